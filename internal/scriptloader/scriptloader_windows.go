//go:build windows

package scriptloader

import "github.com/aabtop/respire-go/internal/respireerrors"

// Script is the Windows stand-in for a loaded build-script plugin. The
// Go toolchain's "plugin" package does not support windows, so build
// scripts cannot be loaded there at all — this mirrors the way the
// teacher splits process-group control between os_default_platform.go
// and os_windows.go rather than trying to fake one side of the split.
type Script struct{}

// Load always fails on windows.
func Load(absPath string) (*Script, error) {
	return nil, respireerrors.Newf(respireerrors.ModuleLookupFailed,
		"loading build script %q: build-script plugins are not supported on windows", absPath)
}

// Lookup always fails on windows.
func (s *Script) Lookup(name string) (interface{}, error) {
	return nil, respireerrors.Newf(respireerrors.MissingFunction,
		"build script does not export %q: build-script plugins are not supported on windows", name)
}
