package engine

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/jesseduffield/kill"
	"github.com/mgutz/str"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/aabtop/respire-go/internal/respireerrors"
)

// run is the scheduler's main loop: repeatedly collects runnable
// commands, skips ones that are already up to date, dispatches the rest
// up to the -j bound via an errgroup (SetLimit enforces the bound across
// the whole run, not just within one batch), and waits on e.cond for
// state changes in between. Completion is signalled by execute's
// cond.Broadcast rather than a channel, since the set of in-flight
// goroutines at any wake-up is not known in advance.
func (e *Engine) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)

	for {
		e.mu.Lock()
		toRun, skipped := e.collectRunnableLocked()
		for _, c := range skipped {
			c.state = stateDone
		}
		anyRunning := e.anyRunningLocked()
		allDone := e.allSettledLocked()
		e.mu.Unlock()

		if len(skipped) > 0 {
			e.cond.Broadcast()
		}

		if len(toRun) == 0 {
			if allDone {
				break
			}
			if !anyRunning {
				// Nothing running and nothing runnable: the remaining
				// commands are permanently blocked (missing external
				// input, or a build target that can never materialize).
				break
			}
			e.waitForChange()
			continue
		}

		stop := false
		for _, cmd := range toRun {
			e.mu.Lock()
			cmd.state = stateRunning
			e.mu.Unlock()

			c := cmd
			// Blocks once SetLimit in-flight goroutines are already
			// running, which is the desired -j backpressure.
			g.Go(func() error {
				e.execute(gctx, c)
				return nil
			})

			select {
			case <-gctx.Done():
				stop = true
			default:
			}
			if stop {
				break
			}
		}
		if stop {
			break
		}
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.firstErrLocked()
}

func (e *Engine) waitForChange() {
	e.mu.Lock()
	e.cond.Wait()
	e.mu.Unlock()
}

// collectRunnableLocked partitions pending commands whose inputs are all
// ready into those that are already up to date (skipped, no execution)
// and those that need to run. Must be called with e.mu held.
func (e *Engine) collectRunnableLocked() (toRun, skipped []*commandNode) {
	for _, cmd := range e.graph.commands {
		if cmd.state != statePending {
			continue
		}
		if !e.inputsReadyLocked(cmd) {
			continue
		}
		if e.isStale(cmd) {
			toRun = append(toRun, cmd)
		} else {
			skipped = append(skipped, cmd)
		}
	}
	return toRun, skipped
}

func (e *Engine) inputsReadyLocked(cmd *commandNode) bool {
	for _, in := range cmd.effectiveInputs() {
		if owner, ok := e.graph.outputOwner[in]; ok {
			if owner.state != stateDone {
				return false
			}
			continue
		}
		if _, err := os.Stat(in); err != nil {
			return false
		}
	}
	return true
}

func (e *Engine) allSettledLocked() bool {
	for _, cmd := range e.graph.commands {
		if cmd.state == statePending || cmd.state == stateRunning {
			return false
		}
	}
	return true
}

func (e *Engine) anyRunningLocked() bool {
	for _, cmd := range e.graph.commands {
		if cmd.state == stateRunning {
			return true
		}
	}
	return false
}

func (e *Engine) firstErrLocked() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.firstErr
}

// execute runs cmd's shell command line to completion, records its
// outcome, and triggers any registries now ready to be loaded.
func (e *Engine) execute(ctx context.Context, cmd *commandNode) {
	e.emit(event{Type: "ExecutingCommand", ID: cmd.id})

	err := e.runProcess(ctx, cmd)

	e.mu.Lock()
	if err != nil {
		cmd.state = stateFailed
		cmd.err = err
		if e.firstErr == nil {
			e.firstErr = err
		}
	} else {
		cmd.state = stateDone
	}
	e.mu.Unlock()

	if err == nil {
		e.readDepsFile(cmd)
		e.recordSuccess(cmd)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		e.signalError(err)
	}
	e.emit(event{Type: "ProcessingComplete", ID: cmd.id, Error: errMsg})

	if err == nil {
		for _, out := range cmd.spec.Out {
			e.mu.Lock()
			regNode, isRegistryTarget := e.graph.registries[out]
			e.mu.Unlock()
			if isRegistryTarget {
				if loadErr := e.ensureRegistryLoaded(regNode.path, regNode.originRegistry, regNode.discoveryDepth); loadErr != nil {
					e.mu.Lock()
					if e.firstErr == nil {
						e.firstErr = loadErr
					}
					e.mu.Unlock()
					e.signalError(loadErr)
				}
			}
		}
	}

	e.cond.Broadcast()
}

func (e *Engine) runProcess(ctx context.Context, cmd *commandNode) error {
	argv := str.ToArgv(cmd.spec.Cmd)
	if len(argv) == 0 {
		return respireerrors.Newf(respireerrors.CommandFailed, "command %d has an empty command line", cmd.id)
	}

	// Not exec.CommandContext: that only signals the direct child, and
	// some commands (shell wrappers, build-tool drivers) spawn their own
	// children that would survive it. PrepareForChildren groups the
	// process so a cancellation kills the whole tree via kill.Kill.
	c := exec.Command(argv[0], argv[1:]...)
	kill.PrepareForChildren(c)

	if cmd.spec.Stdin != "" {
		f, err := os.Open(cmd.spec.Stdin)
		if err != nil {
			return respireerrors.Newf(respireerrors.CommandFailed, "opening stdin %q: %v", cmd.spec.Stdin, err)
		}
		defer f.Close()
		c.Stdin = f
	}
	if cmd.spec.Stdout != "" {
		if err := os.MkdirAll(parentDir(cmd.spec.Stdout), 0o755); err == nil {
			if f, err := os.Create(cmd.spec.Stdout); err == nil {
				defer f.Close()
				c.Stdout = f
			}
		}
	}
	if cmd.spec.Stderr != "" {
		if err := os.MkdirAll(parentDir(cmd.spec.Stderr), 0o755); err == nil {
			if f, err := os.Create(cmd.spec.Stderr); err == nil {
				defer f.Close()
				c.Stderr = f
			}
		}
	}

	if err := c.Start(); err != nil {
		return respireerrors.Newf(respireerrors.CommandFailed, "starting %q: %v", cmd.spec.Cmd, err)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- c.Wait() }()

	var runErr error
	select {
	case runErr = <-waitErr:
	case <-ctx.Done():
		kill.Kill(c)
		<-waitErr
		runErr = ctx.Err()
	}

	if runErr != nil {
		return respireerrors.Newf(respireerrors.CommandFailed, "%q exited with error: %v (stdout=%s stderr=%s)",
			cmd.spec.Cmd, runErr, cmd.spec.Stdout, cmd.spec.Stderr)
	}

	for _, out := range cmd.spec.Out {
		if _, err := os.Stat(out); err != nil {
			return respireerrors.Newf(respireerrors.MissingOutput, "%q did not produce declared output %q", cmd.spec.Cmd, out)
		}
	}
	return nil
}

func (e *Engine) readDepsFile(cmd *commandNode) {
	if cmd.spec.Deps == "" {
		return
	}
	data, err := os.ReadFile(cmd.spec.Deps)
	if err != nil {
		return
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	extra := lo.Filter(lines, func(l string, _ int) bool { return strings.TrimSpace(l) != "" })
	if len(extra) == 0 {
		return
	}
	e.mu.Lock()
	cmd.extraInputs = append(cmd.extraInputs, extra...)
	e.mu.Unlock()
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
