// Command respire-engine is the native Execution Engine binary (spec
// §4.E): it loads a root registry, schedules every discovered command to
// completion, and streams JSONL progress events to stdout. respire-driver
// spawns this as a subprocess and relays its stdout through
// internal/progress.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"

	"github.com/aabtop/respire-go/internal/engine"
	"github.com/aabtop/respire-go/internal/respireerrors"
)

func main() {
	outDir := ""
	jobs := 1

	flaggy.SetName("respire-engine")
	flaggy.SetDescription("Respire's native execution engine")
	flaggy.String(&outDir, "o", "out", "Build output directory (for the staleness cache)")
	flaggy.Int(&jobs, "j", "jobs", "Maximum number of concurrently running commands")

	rootRegistry := ""
	flaggy.AddPositionalValue(&rootRegistry, "root_registry", 1, true, "Path to the root registry file")
	flaggy.Parse()

	if rootRegistry == "" || outDir == "" {
		fmt.Fprintln(os.Stderr, "respire-engine: root_registry and -o are required")
		os.Exit(2)
	}

	e := engine.New(engine.Options{
		RootRegistry: rootRegistry,
		OutDir:       outDir,
		Jobs:         jobs,
		Events:       os.Stdout,
	})

	if err := e.Run(context.Background()); err != nil {
		if _, ok := respireerrors.CodeOf(err); ok {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		newErr := errors.Wrap(err, 0)
		fmt.Fprintln(os.Stderr, newErr.ErrorStack())
		os.Exit(1)
	}
}
