package engine

import (
	"os"

	"github.com/aabtop/respire-go/internal/registry"
	"github.com/aabtop/respire-go/internal/respireerrors"
)

// ensureRegistryLoaded loads path into the graph if its file exists and
// is newer than the last time it was loaded (or has never been loaded).
// Registry-loading paragraph, spec §4.E.
func (e *Engine) ensureRegistryLoaded(path string, originRegistry string, depth int) error {
	e.mu.Lock()
	node, ok := e.graph.registries[path]
	if !ok {
		node = &registryNode{path: path, originRegistry: originRegistry, discoveryDepth: depth, id: e.graph.allocID()}
		e.graph.registries[path] = node
		e.emit(event{Type: "CreateRegistryNode", ID: node.id, Path: path})
	}
	e.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		// Not ready yet; will be retried once its producer command
		// completes (see scheduler.go's execute).
		return nil
	}
	mtime := info.ModTime().UnixNano()

	e.mu.Lock()
	if node.loaded && node.loadedModTime >= mtime {
		e.mu.Unlock()
		return nil
	}
	node.loaded = true
	node.loadedModTime = mtime
	e.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return respireerrors.Newf(respireerrors.InvalidRegistryFile, "reading registry %q: %v", path, err)
	}
	reg, err := registry.Decode(data)
	if err != nil {
		return respireerrors.Newf(respireerrors.InvalidRegistryFile, "parsing registry %q: %v", path, err)
	}
	return e.expandRegistry(reg, path, depth)
}

// expandRegistry creates graph nodes for every entry of reg, in
// declaration order, and wires their edges.
func (e *Engine) expandRegistry(reg registry.Registry, originRegistry string, depth int) error {
	for _, run := range reg {
		switch run.Kind {
		case registry.KindSystemCommand:
			for _, sc := range run.SystemCommands {
				if err := e.addCommand(sc, originRegistry, depth); err != nil {
					return err
				}
			}
		case registry.KindInclude:
			for _, p := range run.Paths {
				if err := e.ensureRegistryLoaded(p, originRegistry, depth+1); err != nil {
					return err
				}
			}
		case registry.KindBuild:
			for _, p := range run.Paths {
				e.addBuild(p)
			}
		default:
			return respireerrors.Newf(respireerrors.InvalidRegistryFile, "registry %q: unknown run kind %q", originRegistry, run.Kind)
		}
	}
	return nil
}

func (e *Engine) addCommand(sc registry.SystemCommand, originRegistry string, depth int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd := &commandNode{
		id:             e.graph.allocID(),
		spec:           sc,
		originRegistry: originRegistry,
		discoveryDepth: depth,
	}

	for _, out := range sc.Out {
		if existing, conflict := e.graph.outputOwner[out]; conflict {
			return respireerrors.Newf(respireerrors.OutputConflict,
				"outputs %q are produced by both command %d (%q) and command %d (%q)",
				out, existing.id, existing.spec.Cmd, cmd.id, sc.Cmd)
		}
	}
	for _, out := range sc.Out {
		e.graph.outputOwner[out] = cmd
	}

	if err := e.detectCycleFromLocked(cmd); err != nil {
		return err
	}

	e.applyStalenessRecord(cmd)

	e.graph.commands = append(e.graph.commands, cmd)
	e.emit(event{
		Type:     "CreateSystemCommandNode",
		ID:       cmd.id,
		Command:  sc.Cmd,
		Inputs:   sc.In,
		Outputs:  sc.Out,
		SoftOuts: sc.SoftOut,
		Stdout:   sc.Stdout,
		Stderr:   sc.Stderr,
		Stdin:    sc.Stdin,
	})
	e.announceDiscoveryLocked(cmd)
	return nil
}

func (e *Engine) addBuild(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.graph.builds = append(e.graph.builds, &buildNode{id: e.graph.allocID(), path: path})
}
