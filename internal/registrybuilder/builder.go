// Package registrybuilder implements the in-process staging area a build
// function calls into (spec §4.C): a sequence of declarations compacted
// into runs and compiled to the wire format defined by internal/registry.
package registrybuilder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aabtop/respire-go/internal/fingerprint"
	"github.com/aabtop/respire-go/internal/registry"
)

type entryKind int

const (
	kindSystemCommand entryKind = iota
	kindInclude
	kindBuild
)

type entry struct {
	kind entryKind
	sc   registry.SystemCommand
	path string
}

// Builder stages registry entries for one build-function invocation.
type Builder struct {
	outDir   string
	entries  []entry
	selfDeps []string
}

// New creates a Builder that auto-assigns log files under outDir's
// logs directory.
func New(outDir string) *Builder {
	return &Builder{outDir: outDir}
}

// SystemCommandSpec is the typed argument bundle for AddSystemCommand,
// mirroring add_system_command(inputs, outputs, command, soft_outputs?,
// deps?, stdout?, stderr?, stdin?).
type SystemCommandSpec struct {
	Inputs      []string
	Outputs     []string
	Command     string
	SoftOutputs []string
	Deps        string
	Stdout      string
	Stderr      string
	Stdin       string
}

// AddSystemCommand stages a system-command entry. stdout/stderr are
// auto-assigned under logs/ when left empty (supplemented feature:
// command log file auto-naming), so every command's output lands
// somewhere even when the caller didn't ask for it explicitly.
func (b *Builder) AddSystemCommand(spec SystemCommandSpec) {
	stdout, stderr := spec.Stdout, spec.Stderr
	if stdout == "" || stderr == "" {
		autoStdout, autoStderr := autoLogPaths(b.outDir, spec.Command)
		if stdout == "" {
			stdout = autoStdout
		}
		if stderr == "" {
			stderr = autoStderr
		}
	}
	b.entries = append(b.entries, entry{
		kind: kindSystemCommand,
		sc: registry.SystemCommand{
			In:      spec.Inputs,
			Out:     spec.Outputs,
			Cmd:     spec.Command,
			SoftOut: spec.SoftOutputs,
			Deps:    spec.Deps,
			Stdout:  stdout,
			Stderr:  stderr,
			Stdin:   spec.Stdin,
		},
	})
}

// AddInclude stages an include entry naming another registry file.
func (b *Builder) AddInclude(path string) {
	b.entries = append(b.entries, entry{kind: kindInclude, path: path})
}

// AddBuild stages a build entry requesting production of a target file.
func (b *Builder) AddBuild(path string) {
	b.entries = append(b.entries, entry{kind: kindBuild, path: path})
}

// AddSelfDependency records that the build function read path directly,
// outside the script-import mechanism the deps file otherwise captures
// (supplemented feature: self-dependency registration, registry.py's
// RegisterSelfDependency). The subrespire host writes these, and only
// these, into the invocation's deps file.
func (b *Builder) AddSelfDependency(path string) {
	b.selfDeps = append(b.selfDeps, path)
}

// SelfDependencies returns every path registered via AddSelfDependency,
// in registration order.
func (b *Builder) SelfDependencies() []string {
	return append([]string(nil), b.selfDeps...)
}

// RunFunctionSpec stages a plain out-of-process function call as its own
// system command (supplemented feature 2a, registry.py's PythonFunction):
// unlike a subrespire invocation it has no return value joining the
// future graph, only declared inputs/outputs and a function to run.
type RunFunctionSpec struct {
	Inputs             []string
	Outputs            []string
	Script             string
	Function           string
	ParamsFile         string
	SubrespireHostPath string
}

// AddRunFunction stages the RunFunctionSpec as a system command that
// invokes the subrespire host binary in its plain-function mode (no
// registry parameter, no flattened-output pipeline).
func (b *Builder) AddRunFunction(spec RunFunctionSpec) {
	cmd := RenderCommand([]string{spec.SubrespireHostPath, "-plain", spec.Script, spec.Function, spec.ParamsFile})
	inputs := append(append([]string(nil), spec.Inputs...), spec.ParamsFile)
	b.AddSystemCommand(SystemCommandSpec{Inputs: inputs, Outputs: spec.Outputs, Command: cmd})
}

// Compile compacts staged entries into runs and returns the resulting
// Registry, ready for internal/registry.Encode.
func (b *Builder) Compile() registry.Registry {
	var out registry.Registry
	for _, e := range b.entries {
		k := runKind(e.kind)
		if n := len(out); n > 0 && out[n-1].Kind == k {
			appendEntry(&out[n-1], e)
			continue
		}
		out = append(out, newRun(e))
	}
	return out
}

func runKind(k entryKind) registry.Kind {
	switch k {
	case kindSystemCommand:
		return registry.KindSystemCommand
	case kindInclude:
		return registry.KindInclude
	default:
		return registry.KindBuild
	}
}

func newRun(e entry) registry.Run {
	r := registry.Run{Kind: runKind(e.kind)}
	appendEntry(&r, e)
	return r
}

func appendEntry(r *registry.Run, e entry) {
	switch e.kind {
	case kindSystemCommand:
		r.SystemCommands = append(r.SystemCommands, e.sc)
	default:
		r.Paths = append(r.Paths, e.path)
	}
}

// RenderCommand joins tokens with spaces, quoting any token containing
// whitespace in double quotes — the exact rendering rule spec §4.C
// mandates, and the form internal/engine's argv parser must invert.
func RenderCommand(tokens []string) string {
	rendered := make([]string, len(tokens))
	for i, t := range tokens {
		if strings.ContainsAny(t, " \t\n") {
			rendered[i] = fmt.Sprintf("%q", t)
		} else {
			rendered[i] = t
		}
	}
	return strings.Join(rendered, " ")
}

func autoLogPaths(outDir, command string) (stdout, stderr string) {
	sum := sha256.Sum256([]byte(command))
	name := hex.EncodeToString(sum[:])
	dir := fingerprint.LogsDir(outDir)
	return filepath.Join(dir, name+".stdout.log"), filepath.Join(dir, name+".stderr.log")
}
