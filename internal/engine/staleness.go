package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/aabtop/respire-go/internal/atomicfile"
)

// stalenessCacheFileName names the on-disk record of each command's last known
// input fingerprints, persisted across runs under OUT_DIR so that a
// second invocation with no file changes can recognize everything as
// up to date (Law 4, "idempotent build").
const stalenessCacheFileName = "staleness.json"

// commandRecord is one command's recorded fingerprints, keyed by its
// first declared output (stable across runs as long as the registry
// doesn't change which command owns that output).
type commandRecord struct {
	InputFingerprints map[string]string `json:"input_fingerprints"`
	ExtraInputs       []string          `json:"extra_inputs,omitempty"`
}

type stalenessCache struct {
	path    string
	records map[string]commandRecord
}

func loadStalenessCache(outDir string) *stalenessCache {
	path := filepath.Join(outDir, stalenessCacheDir(), stalenessCacheFileName)
	c := &stalenessCache{path: path, records: map[string]commandRecord{}}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	_ = json.Unmarshal(data, &c.records)
	return c
}

func stalenessCacheDir() string {
	return "__respire_build_files"
}

func (c *stalenessCache) save() error {
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return err
	}
	_, err = atomicfile.WriteIfDifferent(c.path, data)
	return err
}

// contentFingerprint hashes a file's bytes with xxhash — a fast,
// non-cryptographic fingerprint distinct from the SHA-256 identity
// fingerprint of spec §4.B, which must stay cryptographic since it's a
// cache key shared across machines; this one only needs to detect
// "did this file's content change since last run" cheaply and often.
func contentFingerprint(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		return directoryFingerprint(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	sum := xxhash.Sum64(data)
	return formatUint64(sum), true
}

// directoryFingerprint hashes a directory's sorted entry names plus each
// entry's own fingerprint, recursing into subdirectories through
// contentFingerprint, so S4's "directory as input" scenario detects an
// added, removed, or modified file anywhere beneath the directory.
func directoryFingerprint(path string) (string, bool) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", false
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)

	digest := xxhash.New()
	for _, name := range names {
		digest.Write([]byte(name))
		digest.Write([]byte{0})
		if fp, ok := contentFingerprint(filepath.Join(path, name)); ok {
			digest.Write([]byte(fp))
		}
		digest.Write([]byte{0})
	}
	return formatUint64(digest.Sum64()), true
}

func formatUint64(v uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

// applyStalenessRecord seeds a newly-discovered command with the extra
// inputs its deps file contributed in a prior run (Law 7). Must be
// called with e.mu held.
func (e *Engine) applyStalenessRecord(cmd *commandNode) {
	if len(cmd.spec.Out) == 0 {
		return
	}
	rec, ok := e.staleness.records[cmd.spec.Out[0]]
	if !ok {
		return
	}
	cmd.extraInputs = append(cmd.extraInputs, rec.ExtraInputs...)
}

// isStale reports whether cmd needs to run: any effective input's
// recorded fingerprint differs from its current one, any hard output is
// missing, or there is no prior record at all. Must be called with e.mu
// held (its only caller, collectRunnableLocked, already holds it).
func (e *Engine) isStale(cmd *commandNode) bool {
	if len(cmd.spec.Out) == 0 {
		return true
	}
	for _, out := range cmd.spec.Out {
		if _, err := os.Stat(out); err != nil {
			return true
		}
	}
	rec, ok := e.staleness.records[cmd.spec.Out[0]]
	if !ok {
		return true
	}
	for _, in := range cmd.effectiveInputs() {
		current, ok := contentFingerprint(in)
		if !ok {
			// A missing or unreadable input: treat as stale so the
			// command (re)runs and picks up the current state.
			return true
		}
		if rec.InputFingerprints[in] != current {
			return true
		}
	}
	return false
}

// recordSuccess stores cmd's current input fingerprints after a
// successful run.
func (e *Engine) recordSuccess(cmd *commandNode) {
	if len(cmd.spec.Out) == 0 {
		return
	}
	fps := map[string]string{}
	for _, in := range cmd.effectiveInputs() {
		if fp, ok := contentFingerprint(in); ok {
			fps[in] = fp
		}
	}
	e.mu.Lock()
	e.staleness.records[cmd.spec.Out[0]] = commandRecord{
		InputFingerprints: fps,
		ExtraInputs:       cmd.extraInputs,
	}
	e.mu.Unlock()
}
