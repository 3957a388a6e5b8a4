package subrespire

import (
	"encoding/json"
	"os"

	"github.com/aabtop/respire-go/internal/atomicfile"
	"github.com/aabtop/respire-go/internal/codec"
)

// Copy implements the "-copy src dst" helper mode appendLinkCommand stages
// when a build function's return value contains no futures: the output
// file already IS the flattened output, so linking it is a plain copy.
func Copy(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	_, err = atomicfile.WriteIfDifferent(dst, data)
	return err
}

// Flatten implements the "-flatten src dst" helper mode: src's future
// envelopes are replaced with the decoded content of the value files they
// point at (futures inside those value files are flattened the same way;
// expandEnvelopes false keeps object/function envelopes literal), and the
// result is written to dst.
//
// This runs with no SchemaRegistry of its own: expandEnvelopes=false never
// dereferences the registry argument to DecodeFromJSONWithFlattening, so a
// future's target object/function envelopes pass through untouched for
// whatever eventually decodes them with the right registry.
func Flatten(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	decoded, err := codec.DecodeFromJSONWithFlattening(data, nil, readValueFile, false)
	if err != nil {
		return err
	}
	flattened, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return err
	}
	_, err = atomicfile.WriteIfDifferent(dst, flattened)
	return err
}
