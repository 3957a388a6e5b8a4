package fingerprint_test

import (
	"strings"
	"testing"

	"github.com/aabtop/respire-go/internal/fingerprint"
	"github.com/stretchr/testify/assert"
)

func TestIdentifierDeterministic(t *testing.T) {
	a := fingerprint.Identifier("/scripts/build.so", "Main", []byte(`{"a":1}`))
	b := fingerprint.Identifier("/scripts/build.so", "Main", []byte(`{"a":1}`))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestIdentifierSensitiveToEachComponent(t *testing.T) {
	base := fingerprint.Identifier("/scripts/build.so", "Main", []byte(`{}`))
	diffScript := fingerprint.Identifier("/scripts/other.so", "Main", []byte(`{}`))
	diffFn := fingerprint.Identifier("/scripts/build.so", "Other", []byte(`{}`))
	diffParams := fingerprint.Identifier("/scripts/build.so", "Main", []byte(`{"a":1}`))
	assert.NotEqual(t, base, diffScript)
	assert.NotEqual(t, base, diffFn)
	assert.NotEqual(t, base, diffParams)
}

func TestBaseSanitizesAndTruncates(t *testing.T) {
	longPath := "/scripts/" + strings.Repeat("x", 500) + ".so"
	base := fingerprint.Base(longPath, "Weird Name!@#", []byte(`{}`))
	assert.LessOrEqual(t, len(base), 200)
	assert.NotContains(t, base, "!")
	assert.NotContains(t, base, "@")
	assert.NotContains(t, base, "#")
}

func TestDerivePathsExtensions(t *testing.T) {
	base := fingerprint.Base("/scripts/build.so", "Main", []byte(`{}`))
	paths := fingerprint.DerivePaths("/out", base)
	assert.True(t, strings.HasSuffix(paths.Params, fingerprint.ExtParams))
	assert.True(t, strings.HasSuffix(paths.GenRegistry, fingerprint.ExtGenRegistry))
	assert.True(t, strings.HasSuffix(paths.Registry, fingerprint.ExtRegistry))
	assert.True(t, strings.HasSuffix(paths.Output, fingerprint.ExtOutput))
	assert.True(t, strings.HasSuffix(paths.FlattenedOutput, fingerprint.ExtFlattenedOutput))
	assert.True(t, strings.HasSuffix(paths.Deps, fingerprint.ExtDeps))
	assert.True(t, strings.HasSuffix(paths.Timestamp, fingerprint.ExtTimestamp))
	assert.Contains(t, paths.Params, fingerprint.BuildFilesDirName)
}
