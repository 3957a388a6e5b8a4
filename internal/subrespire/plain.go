package subrespire

import (
	"os"

	"github.com/aabtop/respire-go/internal/codec"
	"github.com/aabtop/respire-go/internal/respireerrors"
	"github.com/aabtop/respire-go/internal/scriptloader"
	"github.com/spkg/bom"
)

// PlainFunc is the signature a script exports for a plain out-of-process
// function call (registrybuilder.RunFunctionSpec): no Builder, no return
// value — its inputs/outputs are already fixed by the staged system
// command, so it only needs to run for effect.
type PlainFunc func(params map[string]interface{}) error

// RunPlain executes a RunFunctionSpec invocation: load scriptPath, look
// up functionName, decode paramsFile as already-flattened JSON (a plain
// function's params can never contain a future — nothing downstream
// joins on its return value) and call the function.
func RunPlain(scriptPath, functionName, paramsFile string, reg *codec.SchemaRegistry) error {
	codec.Active = reg

	rawParams, err := os.ReadFile(paramsFile)
	if err != nil {
		return respireerrors.Newf(respireerrors.InvalidRegistryFile, "reading params file %q: %v", paramsFile, err)
	}
	rawParams = bom.Clean(rawParams)

	restore, err := chdirToScriptDir(scriptPath)
	if err != nil {
		return err
	}
	defer restore()

	script, err := scriptloader.Load(scriptPath)
	if err != nil {
		return err
	}
	sym, err := script.Lookup(functionName)
	if err != nil {
		return err
	}
	fn, ok := sym.(func(map[string]interface{}) error)
	if !ok {
		return respireerrors.Newf(respireerrors.MissingFunction,
			"%q does not have the plain-function signature func(map[string]interface{}) error", functionName)
	}

	decoded, err := codec.DecodeFromJSON(rawParams, reg)
	if err != nil {
		return err
	}
	params, ok := decoded.(map[string]interface{})
	if !ok {
		return respireerrors.New(respireerrors.InvalidRegistryFile, "decoded params are not a JSON object")
	}

	return fn(params)
}
