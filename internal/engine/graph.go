// Package engine implements the Execution Engine (spec §4.E): a
// dependency graph over files, system commands, registries, and build
// targets, scheduled with bounded parallelism and a structured JSONL
// event stream.
package engine

import (
	"github.com/aabtop/respire-go/internal/registry"
)

// nodeState is shared by command and registry nodes.
type nodeState int

const (
	statePending nodeState = iota
	stateRunning
	stateDone
	stateFailed
)

// commandNode is one "sc" entry.
type commandNode struct {
	id int

	spec registry.SystemCommand
	// originRegistry is the registry file this command was declared in;
	// spec §3 invariant 5 folds it into the effective input set.
	originRegistry string
	// discoveryDepth records the include-chain depth this command was
	// discovered at; cycle detection (internal/engine/cycle.go) walks
	// producer edges and does not read it.
	discoveryDepth int

	state nodeState
	err   error

	// extraInputs accumulates paths discovered via a prior run's deps
	// file (spec §3 invariant 6 / Law 7).
	extraInputs []string

	dryRunAnnounced bool
}

func (c *commandNode) effectiveInputs() []string {
	inputs := make([]string, 0, len(c.spec.In)+len(c.extraInputs)+1)
	inputs = append(inputs, c.spec.In...)
	inputs = append(inputs, c.extraInputs...)
	if c.originRegistry != "" {
		inputs = append(inputs, c.originRegistry)
	}
	return inputs
}

// registryNode is one "inc" entry: a registry file to be loaded once it
// exists, expanding into more graph nodes.
type registryNode struct {
	id             int
	path           string
	originRegistry string
	discoveryDepth int
	loaded         bool
	loadedModTime  int64
}

// buildNode is a root request to materialize a file.
type buildNode struct {
	id   int
	path string
}

// graph holds every node discovered so far, keyed for quick lookup.
type graph struct {
	nextID int

	commands   []*commandNode
	registries map[string]*registryNode
	builds     []*buildNode

	// outputOwner maps an output path to the command that declares it,
	// used both for dependency resolution and for spec §4.E's OutputConflict
	// detection (two commands producing the same hard output).
	outputOwner map[string]*commandNode
}

func newGraph() *graph {
	return &graph{
		registries:  map[string]*registryNode{},
		outputOwner: map[string]*commandNode{},
	}
}

func (g *graph) allocID() int {
	g.nextID++
	return g.nextID
}
