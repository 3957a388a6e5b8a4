package registrybuilder_test

import (
	"testing"

	"github.com/aabtop/respire-go/internal/registry"
	"github.com/aabtop/respire-go/internal/registrybuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactsConsecutiveRuns(t *testing.T) {
	b := registrybuilder.New("/out")
	b.AddSystemCommand(registrybuilder.SystemCommandSpec{Inputs: []string{"a"}, Outputs: []string{"b"}, Command: "cp a b", Stdout: "x", Stderr: "y"})
	b.AddSystemCommand(registrybuilder.SystemCommandSpec{Inputs: []string{"b"}, Outputs: []string{"c"}, Command: "cp b c", Stdout: "x", Stderr: "y"})
	b.AddInclude("/gen/one.reg")
	b.AddInclude("/gen/two.reg")
	b.AddBuild("/out/final")

	compiled := b.Compile()
	require.Len(t, compiled, 3)
	assert.Equal(t, registry.KindSystemCommand, compiled[0].Kind)
	assert.Len(t, compiled[0].SystemCommands, 2)
	assert.Equal(t, registry.KindInclude, compiled[1].Kind)
	assert.Equal(t, []string{"/gen/one.reg", "/gen/two.reg"}, compiled[1].Paths)
	assert.Equal(t, registry.KindBuild, compiled[2].Kind)
}

func TestInterleavedKindsDoNotCompact(t *testing.T) {
	b := registrybuilder.New("/out")
	b.AddInclude("/gen/one.reg")
	b.AddSystemCommand(registrybuilder.SystemCommandSpec{Inputs: []string{"a"}, Outputs: []string{"b"}, Command: "cp a b", Stdout: "x", Stderr: "y"})
	b.AddInclude("/gen/two.reg")

	compiled := b.Compile()
	require.Len(t, compiled, 3)
}

func TestAutoAssignsLogPaths(t *testing.T) {
	b := registrybuilder.New("/out")
	b.AddSystemCommand(registrybuilder.SystemCommandSpec{Inputs: []string{"a"}, Outputs: []string{"b"}, Command: "cp a b"})
	compiled := b.Compile()
	sc := compiled[0].SystemCommands[0]
	assert.Contains(t, sc.Stdout, "/out/__respire_build_files/logs/")
	assert.Contains(t, sc.Stderr, "/out/__respire_build_files/logs/")
	assert.NotEqual(t, sc.Stdout, sc.Stderr)
}

func TestRenderCommandQuotesWhitespaceTokens(t *testing.T) {
	cmd := registrybuilder.RenderCommand([]string{"cp", "a file.txt", "b.txt"})
	assert.Equal(t, `cp "a file.txt" b.txt`, cmd)
}

func TestSelfDependencies(t *testing.T) {
	b := registrybuilder.New("/out")
	b.AddSelfDependency("/data/config.json")
	b.AddSelfDependency("/data/extra.json")
	assert.Equal(t, []string{"/data/config.json", "/data/extra.json"}, b.SelfDependencies())
}
