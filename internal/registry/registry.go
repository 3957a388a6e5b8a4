// Package registry defines the on-wire registry format from the external
// interfaces section: an ordered list of runs, each run a single-key
// object tagging a consecutive group of same-variant entries ("sc", "inc",
// or "build").
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies a run's variant.
type Kind string

const (
	KindSystemCommand Kind = "sc"
	KindInclude       Kind = "inc"
	KindBuild         Kind = "build"
)

// SystemCommand is one "sc" entry. Field order matches the mandated key
// order ("in, out, cmd, soft_out?, deps?, stdout?, stderr?, stdin?") —
// encoding/json emits struct fields in declaration order, so this struct's
// layout IS the wire contract; do not reorder it.
type SystemCommand struct {
	In      []string `json:"in"`
	Out     []string `json:"out"`
	Cmd     string   `json:"cmd"`
	SoftOut []string `json:"soft_out,omitempty"`
	Deps    string   `json:"deps,omitempty"`
	Stdout  string   `json:"stdout,omitempty"`
	Stderr  string   `json:"stderr,omitempty"`
	Stdin   string   `json:"stdin,omitempty"`
}

// Run is one element of the top-level array: a single-key object whose
// key names the variant and whose value is the list of entries.
type Run struct {
	Kind           Kind
	SystemCommands []SystemCommand // populated iff Kind == KindSystemCommand
	Paths          []string        // populated iff Kind == KindInclude or KindBuild
}

// Registry is the full ordered run list decoded from, or destined for, one
// registry file.
type Registry []Run

func (r Run) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindSystemCommand:
		return json.Marshal(map[string][]SystemCommand{string(KindSystemCommand): r.SystemCommands})
	case KindInclude:
		return json.Marshal(map[string][]string{string(KindInclude): r.Paths})
	case KindBuild:
		return json.Marshal(map[string][]string{string(KindBuild): r.Paths})
	default:
		return nil, fmt.Errorf("registry: run has unknown kind %q", r.Kind)
	}
}

func (r *Run) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if len(probe) != 1 {
		return fmt.Errorf("registry: run object must have exactly one key, got %d", len(probe))
	}
	for key, raw := range probe {
		switch Kind(key) {
		case KindSystemCommand:
			var scs []SystemCommand
			if err := json.Unmarshal(raw, &scs); err != nil {
				return fmt.Errorf("registry: decoding sc run: %w", err)
			}
			r.Kind = KindSystemCommand
			r.SystemCommands = scs
		case KindInclude:
			var paths []string
			if err := json.Unmarshal(raw, &paths); err != nil {
				return fmt.Errorf("registry: decoding inc run: %w", err)
			}
			r.Kind = KindInclude
			r.Paths = paths
		case KindBuild:
			var paths []string
			if err := json.Unmarshal(raw, &paths); err != nil {
				return fmt.Errorf("registry: decoding build run: %w", err)
			}
			r.Kind = KindBuild
			r.Paths = paths
		default:
			return fmt.Errorf("registry: unknown run key %q", key)
		}
	}
	return nil
}

// Encode renders the registry as the exact wire-format bytes (no trailing
// newline), using compact separators — this is a data file, not a
// fingerprinted canonical form (that lives in internal/fingerprint /
// internal/codec), so it does not need the codec's indent=2 convention.
func Encode(reg Registry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(reg); err != nil {
		return nil, fmt.Errorf("registry: encoding: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses registry file bytes into a Registry.
func Decode(data []byte) (Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("registry: decoding: %w", err)
	}
	return reg, nil
}
