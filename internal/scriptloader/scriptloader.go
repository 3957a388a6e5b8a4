//go:build !windows

// Package scriptloader loads a build script as a Go plugin, the redesign
// spec §9 calls for in place of the original's dynamic module import: a
// build script is a ".so" compiled with "go build -buildmode=plugin",
// identified by its absolute path exactly as the Fingerprinter expects
// (spec §4.B), and loaded fresh once per subrespire host process so that
// no state leaks between concurrently-running hosts (spec §9 "share
// nothing across concurrent hosts").
package scriptloader

import (
	"plugin"

	"github.com/aabtop/respire-go/internal/respireerrors"
)

// Script is a loaded build-script plugin.
type Script struct {
	plugin *plugin.Plugin
}

// Load opens the plugin at absPath. Loading runs the plugin's init()
// functions, which is where a build script registers its record types
// and functions with a codec.SchemaRegistry.
func Load(absPath string) (*Script, error) {
	p, err := plugin.Open(absPath)
	if err != nil {
		return nil, respireerrors.Newf(respireerrors.ModuleLookupFailed, "loading build script %q: %v", absPath, err)
	}
	return &Script{plugin: p}, nil
}

// Lookup resolves a top-level exported symbol (typically a build
// function) by name.
func (s *Script) Lookup(name string) (plugin.Symbol, error) {
	sym, err := s.plugin.Lookup(name)
	if err != nil {
		return nil, respireerrors.Newf(respireerrors.MissingFunction, "build script does not export %q: %v", name, err)
	}
	return sym, nil
}
