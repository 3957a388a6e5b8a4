package engine

import (
	"context"
	"io"
	"os"
	"sync"

	lcUtils "github.com/jesseduffield/lazycore/pkg/utils"
	"github.com/sasha-s/go-deadlock"

	"github.com/aabtop/respire-go/internal/respireerrors"
)

func init() {
	// A wedged scheduler mutex would otherwise hang the build with no
	// diagnostic; report it to stderr once, the way the teacher's GUI
	// wires the same package's logging hook.
	deadlock.Opts.LogBuf = lcUtils.NewOnceWriter(os.Stderr, func() {})
}

// Options configures one engine invocation.
type Options struct {
	// RootRegistry is the path to the first registry file to load.
	RootRegistry string
	// OutDir is the build's scratch directory, used for the persisted
	// staleness cache (spec §4.B's build-files dir).
	OutDir string
	// Jobs bounds how many system commands may run concurrently; the -j
	// flag on the driver and engine CLIs, spec §6.
	Jobs int
	// Events receives the JSONL event stream if non-nil.
	Events io.Writer
}

// Engine runs one build: it loads the root registry, discovers commands
// and nested registries as they're included, and schedules runnable
// commands until every build target is satisfied or the graph is
// permanently blocked.
type Engine struct {
	mu   deadlock.Mutex
	cond *sync.Cond

	graph     *graph
	staleness *stalenessCache
	emitter   *emitter

	jobs         int
	outDir       string
	rootRegistry string

	firstErr error
}

// New constructs an Engine from opts. Call Run to execute the build.
func New(opts Options) *Engine {
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	e := &Engine{
		graph:        newGraph(),
		staleness:    loadStalenessCache(opts.OutDir),
		jobs:         jobs,
		outDir:       opts.OutDir,
		rootRegistry: opts.RootRegistry,
	}
	if opts.Events != nil {
		e.emitter = newEmitter(opts.Events)
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Run loads the root registry, schedules every discovered command to
// completion, and reports whether every declared build target was
// produced. Spec §4.E "Failure semantics" / §6 "Exit codes".
func (e *Engine) Run(ctx context.Context) error {
	if err := e.ensureRegistryLoaded(e.rootRegistry, "", 0); err != nil {
		e.signalError(err)
		return err
	}

	if err := e.run(ctx); err != nil {
		return err
	}

	if err := e.staleness.save(); err != nil {
		return respireerrors.WrapError(err)
	}

	return e.checkBuildTargets()
}

// checkBuildTargets reports an error naming the first declared build
// target that was never produced by any command (unreachable target,
// spec §4.E).
func (e *Engine) checkBuildTargets() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.graph.builds {
		owner, ok := e.graph.outputOwner[b.path]
		if !ok {
			err := respireerrors.Newf(respireerrors.MissingOutput, "build target %q is never produced by any command", b.path)
			e.signalError(err)
			return err
		}
		if owner.state != stateDone {
			err := respireerrors.Newf(respireerrors.MissingOutput, "build target %q (produced by command %d) never completed", b.path, owner.id)
			e.signalError(err)
			return err
		}
	}
	for _, cmd := range e.graph.commands {
		if cmd.state == stateFailed {
			return cmd.err
		}
	}
	if e.firstErr != nil {
		return e.firstErr
	}
	return nil
}
