package engine

import (
	"fmt"
	"strings"

	"github.com/aabtop/respire-go/internal/respireerrors"
)

// detectCycleFromLocked walks backward from start through its effective
// inputs' producing commands; a back-edge to an ancestor on the current
// path is a cycle (spec §4.E "Cycle detection"). Must be called with
// e.mu held.
func (e *Engine) detectCycleFromLocked(start *commandNode) error {
	var path []*commandNode
	onPath := map[int]bool{}

	var dfs func(c *commandNode) error
	dfs = func(c *commandNode) error {
		if onPath[c.id] {
			return respireerrors.New(respireerrors.CyclicDependency, renderCommandChain(append(path, c)))
		}
		onPath[c.id] = true
		path = append(path, c)
		for _, in := range c.effectiveInputs() {
			if producer, ok := e.graph.outputOwner[in]; ok {
				if err := dfs(producer); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		delete(onPath, c.id)
		return nil
	}
	return dfs(start)
}

func renderCommandChain(chain []*commandNode) string {
	var b strings.Builder
	b.WriteString("cyclic command dependency: ")
	for i, c := range chain {
		if i > 0 {
			b.WriteString(" -> ")
		}
		fmt.Fprintf(&b, "#%d(%s)", c.id, c.spec.Cmd)
	}
	return b.String()
}
