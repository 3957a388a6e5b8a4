package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aabtop/respire-go/internal/respireerrors"
)

// ReadValueFile reads the contents of a future's value path. Supplied by
// the caller (the subrespire host reads from OUT_DIR; tests can stub it)
// so this package has no filesystem dependency of its own.
type ReadValueFile func(path string) ([]byte, error)

// DecodeFromJSON parses data and reconstructs registered records and
// functions, rejecting any future it encounters (plain decode, spec
// §4.A — "this decoder forbids futures and demands already-flattened
// input").
func DecodeFromJSON(data []byte, reg *SchemaRegistry) (interface{}, error) {
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, respireerrors.Newf(respireerrors.InvalidRegistryFile, "decoding JSON: %v", err)
	}
	return decodeNode(tree, reg, decodeOptions{expandEnvelopes: true, flatten: false}, nil)
}

// DecodeFromJSONWithFlattening is DecodeFromJSON's flattening sibling: a
// future is resolved by reading its value file and substituting the
// decoded contents, recursively, with cycle detection across
// (script:function, value_path) frames. When expandEnvelopes is false,
// object/function envelopes are left as generic maps (futures nested
// inside their "vars" are still flattened) — used by the flattener
// utility, which must not need a schema registry for the record types it
// passes through untouched.
func DecodeFromJSONWithFlattening(data []byte, reg *SchemaRegistry, readValueFile ReadValueFile, expandEnvelopes bool) (interface{}, error) {
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, respireerrors.Newf(respireerrors.InvalidRegistryFile, "decoding JSON: %v", err)
	}
	return decodeNode(tree, reg, decodeOptions{expandEnvelopes: expandEnvelopes, flatten: true, readValueFile: readValueFile}, nil)
}

type decodeOptions struct {
	expandEnvelopes bool
	flatten         bool
	readValueFile   ReadValueFile
}

func decodeNode(node interface{}, reg *SchemaRegistry, opts decodeOptions, stack []frame) (interface{}, error) {
	switch n := node.(type) {
	case map[string]interface{}:
		if _, isFuture := n["__FUTURE__"]; isFuture {
			return decodeFuture(n, reg, opts, stack)
		}
		if isObj, _ := n["__is_object"].(bool); isObj {
			return decodeObject(n, reg, opts, stack)
		}
		if isFn, _ := n["__is_function"].(bool); isFn {
			return decodeFunction(n, reg, opts)
		}
		out := make(map[string]interface{}, len(n))
		for k, v := range n {
			dv, err := decodeNode(v, reg, opts, stack)
			if err != nil {
				return nil, err
			}
			out[k] = dv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, v := range n {
			dv, err := decodeNode(v, reg, opts, stack)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	default:
		return n, nil
	}
}

func decodeFuture(n map[string]interface{}, reg *SchemaRegistry, opts decodeOptions, stack []frame) (interface{}, error) {
	if !opts.flatten {
		return nil, respireerrors.New(respireerrors.UnexpectedFuture, "encountered a future in a plain (non-flattening) decode")
	}
	valuePath, _ := n["value_filepath"].(string)
	includePath, _ := n["include_filepath"].(string)
	sourceScript, _ := n["source_build_filepath"].(string)
	sourceFunction, _ := n["source_build_function"].(string)
	if valuePath == "" || sourceScript == "" || sourceFunction == "" {
		return nil, respireerrors.New(respireerrors.InvalidRegistryFile, "future envelope missing required fields")
	}
	_ = includePath

	f := frame{scriptFunction: sourceScript + ":" + sourceFunction, valuePath: valuePath}
	for _, existing := range stack {
		if existing == f {
			return nil, respireerrors.New(respireerrors.CyclicDependency, renderCycle(stack, f))
		}
	}

	raw, err := opts.readValueFile(valuePath)
	if err != nil {
		return nil, respireerrors.Newf(respireerrors.InvalidRegistryFile, "reading future value file %q: %v", valuePath, err)
	}
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, respireerrors.Newf(respireerrors.InvalidRegistryFile, "decoding future value file %q: %v", valuePath, err)
	}
	return decodeNode(tree, reg, opts, append(stack, f))
}

func renderCycle(stack []frame, closing frame) string {
	var b strings.Builder
	b.WriteString("cyclic future dependency: ")
	for _, f := range stack {
		fmt.Fprintf(&b, "%s(%s) -> ", f.scriptFunction, f.valuePath)
	}
	fmt.Fprintf(&b, "%s(%s)", closing.scriptFunction, closing.valuePath)
	return b.String()
}

func decodeObject(n map[string]interface{}, reg *SchemaRegistry, opts decodeOptions, stack []frame) (interface{}, error) {
	varsRaw, _ := n["vars"].(map[string]interface{})
	vars := make(map[string]interface{}, len(varsRaw))
	for k, v := range varsRaw {
		dv, err := decodeNode(v, reg, opts, stack)
		if err != nil {
			return nil, err
		}
		vars[k] = dv
	}
	if !opts.expandEnvelopes {
		return map[string]interface{}{"__is_object": true, "tag": n["tag"], "vars": vars}, nil
	}
	tag, _ := n["tag"].(string)
	if tag == "" {
		return nil, respireerrors.New(respireerrors.InvalidRegistryFile, "object envelope missing \"tag\"")
	}
	factory, ok := reg.recordFactory(tag)
	if !ok {
		return nil, respireerrors.Newf(respireerrors.ModuleLookupFailed, "no record type registered for tag %q", tag)
	}
	rec, err := factory(vars)
	if err != nil {
		return nil, respireerrors.Newf(respireerrors.ModuleLookupFailed, "constructing record %q: %v", tag, err)
	}
	return rec, nil
}

func decodeFunction(n map[string]interface{}, reg *SchemaRegistry, opts decodeOptions) (interface{}, error) {
	name, _ := n["name"].(string)
	if name == "" {
		return nil, respireerrors.New(respireerrors.InvalidRegistryFile, "function envelope missing \"name\"")
	}
	if !opts.expandEnvelopes {
		return map[string]interface{}{"__is_function": true, "name": name}, nil
	}
	fn, ok := reg.function(name)
	if !ok {
		return nil, respireerrors.Newf(respireerrors.ModuleLookupFailed, "no function registered under name %q", name)
	}
	return fn, nil
}
