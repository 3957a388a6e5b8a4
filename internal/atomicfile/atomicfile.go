// Package atomicfile implements the write-rename pattern spec §9 mandates:
// render to a tempfile in the target's own directory, then link it into
// place, tolerating a race against another writer computing the same
// fingerprint.
package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/aabtop/respire-go/internal/respireerrors"
)

// Write renders data to a sibling tempfile and links it into path. If
// path already exists, Write tolerates it silently only when the
// existing content is byte-identical to data; per Open Question #2, a
// content mismatch is a hard error rather than trusting the race blindly.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: creating directory %q: %w", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("atomicfile: writing tempfile: %w", err)
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			existing, rerr := os.ReadFile(path)
			if rerr != nil {
				return fmt.Errorf("atomicfile: reading existing %q after EEXIST race: %w", path, rerr)
			}
			if !bytes.Equal(existing, data) {
				return respireerrors.Newf(respireerrors.InvalidRegistryFile,
					"concurrent writer produced different content for %q than this process computed", path)
			}
			return nil
		}
		return fmt.Errorf("atomicfile: linking tempfile into %q: %w", path, err)
	}
	return nil
}

// WriteIfDifferent writes data to path only if path doesn't already hold
// those exact bytes, mirroring the lifecycle rule that derived files
// "persist across runs and are overwritten only when their content
// differs". Returns whether a write actually happened.
func WriteIfDifferent(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("atomicfile: reading %q: %w", path, err)
	}
	if err == nil {
		// path exists with different content: replace it with a sibling
		// tempfile renamed over it, since Write refuses a differing target.
		tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return false, fmt.Errorf("atomicfile: writing tempfile: %w", err)
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return false, fmt.Errorf("atomicfile: renaming tempfile into %q: %w", path, err)
		}
		return true, nil
	}
	if err := Write(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// Touch creates path if absent, or leaves its content untouched if
// present — used for the timestamp file, which exists purely for its
// presence and mtime.
func Touch(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: creating directory %q: %w", dir, err)
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err == nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("atomicfile: touching %q: %w", path, err)
	}
	return f.Close()
}
