package subrespire

import (
	"github.com/aabtop/respire-go/internal/atomicfile"
	"github.com/aabtop/respire-go/internal/codec"
	"github.com/aabtop/respire-go/internal/fingerprint"
	"github.com/aabtop/respire-go/internal/registry"
	"github.com/aabtop/respire-go/internal/registrybuilder"
	"github.com/aabtop/respire-go/internal/respireerrors"
)

func missingBuiltin(name string) error {
	return respireerrors.Newf(respireerrors.MissingFunction, "no built-in subrespire function named %q", name)
}

// ResolveAndForwardFunction is the built-in function name used with
// BuiltinScript to request the future-coalescing indirection (supplemented
// feature: future-resolution coalescing, registry.py's _ResolveFutures).
const ResolveAndForwardFunction = "ResolveAndForward"

// CallContext carries the ambient paths a subrespire call needs to stage
// its gen-registry and invoking command, supplied by whatever build
// function (user plugin code, or this package's own built-in) is issuing
// the call.
type CallContext struct {
	OutDir         string
	SelfBinaryPath string
}

// Call stages a subrespire invocation of (script, function, params) from
// within a running build function and returns a Future for its result.
//
// When params contains no unresolved futures, this computes the target's
// fingerprint directly. When it does, the call is routed through a
// built-in indirection: the indirection's own fingerprint is over the
// params-with-futures (so its identity is stable), but its build function
// body only runs once the futures it embeds have resolved (ordinary
// include/flatten sequencing — no special engine support needed), at
// which point it reissues this same call with the now-literal params.
// Two callers passing the same value once as a literal and once as a
// future therefore both bottom out at the identical direct call and
// share its fingerprint, satisfying spec Law 3 / Scenario S2.
func Call(b *registrybuilder.Builder, ctx CallContext, script, function string, params map[string]interface{}, reg *codec.SchemaRegistry) (codec.Future, error) {
	if !containsFuture(params) {
		return callDirect(b, ctx, script, function, params, reg)
	}
	indirectionParams := map[string]interface{}{
		"target_script":   script,
		"target_function": function,
		"target_params":   params,
	}
	return callDirect(b, ctx, BuiltinScript, ResolveAndForwardFunction, indirectionParams, reg)
}

func builtinFunc(opts RunOptions) (BuildFunc, error) {
	switch opts.FunctionName {
	case ResolveAndForwardFunction:
		return func(b *registrybuilder.Builder, params map[string]interface{}) (interface{}, error) {
			targetScript, _ := params["target_script"].(string)
			targetFunction, _ := params["target_function"].(string)
			targetParams, _ := params["target_params"].(map[string]interface{})
			ctx := CallContext{OutDir: opts.OutDir, SelfBinaryPath: opts.SelfBinaryPath}
			return callDirect(b, ctx, targetScript, targetFunction, targetParams, opts.Registry)
		}, nil
	default:
		return nil, missingBuiltin(opts.FunctionName)
	}
}

// callDirect stages one gen-registry/host invocation for (script,
// function, params). params may itself embed unresolved futures — e.g.
// the indirection's target_params, or a plugin passing a future straight
// through as a parameter value (spec §8 Law 3, Scenario S2) — in which
// case paramsJSON retains their __FUTURE__ envelopes and writeGenRegistry
// wires the host command to wait on their resolution (invariant 3).
func callDirect(b *registrybuilder.Builder, ctx CallContext, script, function string, params map[string]interface{}, reg *codec.SchemaRegistry) (codec.Future, error) {
	paramsJSON, futures, err := codec.EncodeToJSON(params, reg)
	if err != nil {
		return codec.Future{}, err
	}

	base := fingerprint.Base(script, function, paramsJSON)
	paths := fingerprint.DerivePaths(ctx.OutDir, base)

	if _, err := atomicfile.WriteIfDifferent(paths.Params, paramsJSON); err != nil {
		return codec.Future{}, err
	}
	if err := writeGenRegistry(ctx, paths, script, function, futures); err != nil {
		return codec.Future{}, err
	}
	b.AddInclude(paths.GenRegistry)

	return codec.Future{
		ValueFilepath:       paths.FlattenedOutput,
		IncludeFilepath:     paths.GenRegistry,
		SourceBuildFilepath: script,
		SourceBuildFunction: function,
	}, nil
}

// writeGenRegistry stages the generated registry for one fingerprint: a
// single system command that runs this same binary as the subrespire
// host for (script, function, params), followed by an include of the
// registry file that command will produce (spec §2's control-flow
// bootstrap chain, generalized to every subrespire call rather than only
// the root).
//
// When params embedded futures, the host command's params file still
// names them by their __FUTURE__ envelope, so the command can't run
// until each one's value file exists. Their value paths are added as
// extra inputs and their include chains are pulled in ahead of the
// command (mirroring registry_helpers._MakeGenRegistryContents in the
// original), exactly as appendLinkCommand/host.go does for a build
// function's own return value.
func writeGenRegistry(ctx CallContext, paths fingerprint.Paths, script, function string, futures []codec.Future) error {
	b := registrybuilder.New(ctx.OutDir)

	// Invariant 3: each embedded future's producing chain must be
	// discovered ahead of the command that waits on its value file.
	for _, f := range futures {
		b.AddInclude(f.IncludeFilepath)
	}

	inputs := make([]string, 0, len(futures)+2)
	inputs = append(inputs, paths.Params, script)
	for _, f := range futures {
		inputs = append(inputs, f.ValueFilepath)
	}

	b.AddSystemCommand(registrybuilder.SystemCommandSpec{
		Inputs: inputs,
		Outputs: []string{
			paths.Registry, paths.Output, paths.FlattenedOutput, paths.Deps, paths.Timestamp,
		},
		Deps: paths.Deps,
		Command: registrybuilder.RenderCommand(
			[]string{ctx.SelfBinaryPath, script, function, paths.Params, ctx.OutDir},
		),
	})

	b.AddInclude(paths.Registry)

	compiled := b.Compile()
	data, err := registry.Encode(compiled)
	if err != nil {
		return err
	}
	_, err = atomicfile.WriteIfDifferent(paths.GenRegistry, data)
	return err
}

func containsFuture(v interface{}) bool {
	switch val := v.(type) {
	case codec.Future:
		return true
	case map[string]interface{}:
		for _, mv := range val {
			if containsFuture(mv) {
				return true
			}
		}
	case []interface{}:
		for _, ev := range val {
			if containsFuture(ev) {
				return true
			}
		}
	}
	return false
}
