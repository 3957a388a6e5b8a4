// Package subrespire implements the Subrespire Host (spec §4.D): running
// one build function in a worker process, flattening its parameters,
// invoking it, and writing its registry, output, flattened output, and
// deps files.
package subrespire

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aabtop/respire-go/internal/atomicfile"
	"github.com/aabtop/respire-go/internal/codec"
	"github.com/aabtop/respire-go/internal/fingerprint"
	"github.com/aabtop/respire-go/internal/registry"
	"github.com/aabtop/respire-go/internal/registrybuilder"
	"github.com/aabtop/respire-go/internal/respireerrors"
	"github.com/aabtop/respire-go/internal/scriptloader"
	"github.com/spkg/bom"
)

// BuildFunc is the signature every exported build-script symbol (and the
// built-in resolve-and-forward helper, see coalesce.go) must satisfy.
type BuildFunc func(b *registrybuilder.Builder, params map[string]interface{}) (interface{}, error)

// BuiltinScript is the reserved "script path" value that routes an
// invocation to one of this package's own built-in build functions
// instead of loading a user plugin — used exclusively by the future
// coalescing indirection in coalesce.go.
const BuiltinScript = "<respire-builtin>"

// RunOptions configures one subrespire host invocation (spec §4.D step 1
// parses the CLI equivalent of these fields).
type RunOptions struct {
	ScriptPath     string
	FunctionName   string
	ParamsFile     string
	OutDir         string
	TimestampFile  string // overrides the derived timestamp path when set
	SelfBinaryPath string // absolute path to this process's own executable
	Registry       *codec.SchemaRegistry
}

// Result reports the derived paths the invocation wrote to.
type Result struct {
	Paths fingerprint.Paths
}

// Run executes the twelve-step sequence from spec §4.D.
func Run(opts RunOptions) (*Result, error) {
	// A plugin's init() registers records/functions into codec.Active, so
	// it must point at this invocation's registry before the script loads.
	codec.Active = opts.Registry

	// Step 2: fingerprint is computed over the literal bytes of the params
	// file as written, before any flattening.
	rawParams, err := os.ReadFile(opts.ParamsFile)
	if err != nil {
		return nil, respireerrors.Newf(respireerrors.InvalidRegistryFile, "reading params file %q: %v", opts.ParamsFile, err)
	}
	rawParams = bom.Clean(rawParams)

	base := fingerprint.Base(opts.ScriptPath, opts.FunctionName, rawParams)
	paths := fingerprint.DerivePaths(opts.OutDir, base)
	if opts.TimestampFile != "" {
		paths.Timestamp = opts.TimestampFile
	}

	// Step 3: for a file-backed plugin, run inside the script's own
	// directory so relative paths it opens behave the way the original's
	// cwd-switch + module-search-path prepend did.
	if opts.ScriptPath != BuiltinScript {
		restore, err := chdirToScriptDir(opts.ScriptPath)
		if err != nil {
			return nil, err
		}
		defer restore()
	}

	// Step 4 + 6: load the script and locate the function (or dispatch to
	// a built-in for the coalescing indirection).
	fn, err := resolveBuildFunc(opts)
	if err != nil {
		return nil, err
	}

	// Step 5: decode params with flattening; every future's value file
	// must already exist because the engine ordered its include ahead of
	// this command.
	decoded, err := codec.DecodeFromJSONWithFlattening(rawParams, opts.Registry, readValueFile, true)
	if err != nil {
		return nil, err
	}
	params, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, respireerrors.New(respireerrors.InvalidRegistryFile, "decoded params are not a JSON object")
	}

	// Step 7: construct the registry builder and invoke the function.
	builder := registrybuilder.New(opts.OutDir)
	returnValue, err := fn(builder, params)
	if err != nil {
		return nil, err
	}

	// Step 8: encode the return value; write output file only if changed.
	outputJSON, futures, err := codec.EncodeToJSON(returnValue, opts.Registry)
	if err != nil {
		return nil, err
	}
	if _, err := atomicfile.WriteIfDifferent(paths.Output, outputJSON); err != nil {
		return nil, err
	}

	// Invariant 3: every future's include path must be registered ahead of
	// the commands that depend on it.
	for _, f := range futures {
		builder.AddInclude(f.IncludeFilepath)
	}

	// Step 9: append the copy-or-flatten linking command.
	appendLinkCommand(builder, paths, futures, opts.SelfBinaryPath)

	// Step 10: compile and write the registry file only if changed.
	compiled := builder.Compile()
	regBytes, err := registry.Encode(compiled)
	if err != nil {
		return nil, err
	}
	if _, err := atomicfile.WriteIfDifferent(paths.Registry, regBytes); err != nil {
		return nil, err
	}

	// Step 11: write the deps file. Go statically links imported packages
	// into the plugin binary itself, which is already a declared input of
	// the gen-registry's host-invoking command (see coalesce.go's
	// writeGenRegistry), so the only dynamic dependencies left to record
	// here are self-registered ones (AddSelfDependency) — files the build
	// function read directly outside of Go's own import mechanism.
	if err := writeDepsFile(paths.Deps, builder.SelfDependencies()); err != nil {
		return nil, err
	}

	// Step 12.
	if err := atomicfile.Touch(paths.Timestamp); err != nil {
		return nil, err
	}

	return &Result{Paths: paths}, nil
}

func resolveBuildFunc(opts RunOptions) (BuildFunc, error) {
	if opts.ScriptPath == BuiltinScript {
		return builtinFunc(opts)
	}
	script, err := scriptloader.Load(opts.ScriptPath)
	if err != nil {
		return nil, err
	}
	sym, err := script.Lookup(opts.FunctionName)
	if err != nil {
		return nil, err
	}
	fn, ok := sym.(func(*registrybuilder.Builder, map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, respireerrors.Newf(respireerrors.MissingFunction,
			"%q does not have the build-function signature func(*registrybuilder.Builder, map[string]interface{}) (interface{}, error)", opts.FunctionName)
	}
	return fn, nil
}

func appendLinkCommand(b *registrybuilder.Builder, paths fingerprint.Paths, futures []codec.Future, selfBinaryPath string) {
	if len(futures) == 0 {
		b.AddSystemCommand(registrybuilder.SystemCommandSpec{
			Inputs:  []string{paths.Output},
			Outputs: []string{paths.FlattenedOutput},
			Command: registrybuilder.RenderCommand([]string{selfBinaryPath, "-copy", paths.Output, paths.FlattenedOutput}),
		})
		return
	}
	inputs := make([]string, 0, len(futures)+1)
	for _, f := range futures {
		inputs = append(inputs, f.ValueFilepath)
	}
	inputs = append(inputs, paths.Output)
	b.AddSystemCommand(registrybuilder.SystemCommandSpec{
		Inputs:  inputs,
		Outputs: []string{paths.FlattenedOutput},
		Command: registrybuilder.RenderCommand([]string{selfBinaryPath, "-flatten", paths.Output, paths.FlattenedOutput}),
	})
}

func writeDepsFile(path string, selfDeps []string) error {
	if len(selfDeps) == 0 {
		return atomicfile.Write(path, []byte{})
	}
	var b strings.Builder
	for _, d := range selfDeps {
		b.WriteString(d)
		b.WriteString("\n")
	}
	return atomicfile.Write(path, []byte(b.String()))
}

func chdirToScriptDir(scriptPath string) (restore func(), err error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("subrespire: getting working directory: %w", err)
	}
	if err := os.Chdir(filepath.Dir(scriptPath)); err != nil {
		return nil, fmt.Errorf("subrespire: changing to script directory: %w", err)
	}
	return func() { _ = os.Chdir(prev) }, nil
}

func readValueFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bom.Clean(data), nil
}
