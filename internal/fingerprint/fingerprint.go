// Package fingerprint computes the stable SHA-256 identity of a
// (script, function, params) triple and derives the seven per-invocation
// file paths from it (spec §3, §4.B).
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"

	"github.com/samber/lo"
)

// Extensions for the seven derived paths, fixed by spec §6's on-disk
// layout.
const (
	ExtParams          = ".respire.params.json"
	ExtGenRegistry     = ".respire.gen.reg"
	ExtRegistry        = ".respire.reg"
	ExtOutput          = ".respire.output.json"
	ExtFlattenedOutput = ".respire.flattened.output.json"
	ExtDeps            = ".respire.deps"
	ExtTimestamp       = ".respire.timestamp"
)

var allExtensions = []string{
	ExtParams, ExtGenRegistry, ExtRegistry, ExtOutput, ExtFlattenedOutput, ExtDeps, ExtTimestamp,
}

// BuildFilesDirName is the subdirectory of OUT_DIR all generated
// invocation state and logs live under.
const BuildFilesDirName = "__respire_build_files"

// LogsDirName is where the Registry Builder auto-assigns stdout/stderr
// capture files for commands that didn't declare their own redirection
// (supplemented feature: command log file auto-naming).
const LogsDirName = "logs"

// maxBaseFilenameLen is the 200-character ceiling spec §4.B imposes on
// the full derived filename (prefix + "_" + 64-hex-char hash + extension).
const maxBaseFilenameLen = 200

const hashHexLen = sha256.Size * 2

var descriptorDisallowed = regexp.MustCompile(`[^A-Za-z0-9_().\- ]`)

// Identifier returns the 64-hex-character SHA-256 fingerprint of
// (scriptAbsPath, functionName, paramsCanonicalJSON), per spec §4.B:
// key = "<script>:<function>"; digest = sha256(key + ":" + params).
func Identifier(scriptAbsPath, functionName string, paramsCanonicalJSON []byte) string {
	sum := sha256.Sum256(append([]byte(key(scriptAbsPath, functionName)+":"), paramsCanonicalJSON...))
	return hex.EncodeToString(sum[:])
}

func key(scriptAbsPath, functionName string) string {
	return scriptAbsPath + ":" + functionName
}

// maxExtensionLen is the length, in bytes, of the longest fixed extension
// any derived path may carry — the truncation budget in Base
// must leave room for whichever extension the caller appends later.
func maxExtensionLen() int {
	return lo.Max(lo.Map(allExtensions, func(ext string, _ int) int { return len(ext) }))
}

// Base computes the fingerprint base filename: a sanitized, length-bounded
// descriptor prefix, an underscore, then the 64-char hash. This is the
// string every derived path extension is appended to.
func Base(scriptAbsPath, functionName string, paramsCanonicalJSON []byte) string {
	hash := Identifier(scriptAbsPath, functionName, paramsCanonicalJSON)
	prefix := descriptorDisallowed.ReplaceAllString(key(scriptAbsPath, functionName), "_")

	maxPrefixLen := maxBaseFilenameLen - maxExtensionLen() - 1 - hashHexLen
	if maxPrefixLen < 0 {
		maxPrefixLen = 0
	}
	if len(prefix) > maxPrefixLen {
		prefix = prefix[:maxPrefixLen]
	}
	return prefix + "_" + hash
}

// Paths is the seven derived filesystem paths for one subrespire
// invocation (spec §3 "Subrespire invocation state").
type Paths struct {
	Base            string
	Params          string
	GenRegistry     string
	Registry        string
	Output          string
	FlattenedOutput string
	Deps            string
	Timestamp       string
}

// DerivePaths computes Paths for base under outDir's build-files
// directory.
func DerivePaths(outDir, base string) Paths {
	dir := filepath.Join(outDir, BuildFilesDirName)
	return Paths{
		Base:            base,
		Params:          filepath.Join(dir, base+ExtParams),
		GenRegistry:     filepath.Join(dir, base+ExtGenRegistry),
		Registry:        filepath.Join(dir, base+ExtRegistry),
		Output:          filepath.Join(dir, base+ExtOutput),
		FlattenedOutput: filepath.Join(dir, base+ExtFlattenedOutput),
		Deps:            filepath.Join(dir, base+ExtDeps),
		Timestamp:       filepath.Join(dir, base+ExtTimestamp),
	}
}

// BuildFilesDir returns the build-files directory under outDir.
func BuildFilesDir(outDir string) string {
	return filepath.Join(outDir, BuildFilesDirName)
}

// LogsDir returns the auto-assigned-log-file directory under outDir.
func LogsDir(outDir string) string {
	return filepath.Join(BuildFilesDir(outDir), LogsDirName)
}
