// Command respire-subrespire is the Subrespire Host (spec §4.D): the
// worker process the Execution Engine shells out to for every build
// function invocation, plus the small link/copy helper modes the host
// stages as follow-on commands for its own output.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-errors/errors"

	"github.com/aabtop/respire-go/internal/codec"
	"github.com/aabtop/respire-go/internal/subrespire"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		newErr := errors.Wrap(err, 0)
		log.Fatalf("%s", newErr.ErrorStack())
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("respire-subrespire: missing arguments")
	}

	switch args[0] {
	case "-copy":
		if len(args) != 3 {
			return fmt.Errorf("respire-subrespire -copy: want <src> <dst>, got %d args", len(args)-1)
		}
		return subrespire.Copy(args[1], args[2])

	case "-flatten":
		if len(args) != 3 {
			return fmt.Errorf("respire-subrespire -flatten: want <src> <dst>, got %d args", len(args)-1)
		}
		return subrespire.Flatten(args[1], args[2])

	case "-plain":
		if len(args) != 4 {
			return fmt.Errorf("respire-subrespire -plain: want <script> <function> <params_file>, got %d args", len(args)-1)
		}
		return subrespire.RunPlain(args[1], args[2], args[3], codec.NewSchemaRegistry())

	default:
		if len(args) != 4 && len(args) != 5 {
			return fmt.Errorf("respire-subrespire: want <script> <function> <params_file> <out_dir> [timestamp_file], got %d args", len(args))
		}
		selfBinaryPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("respire-subrespire: resolving own executable path: %w", err)
		}
		opts := subrespire.RunOptions{
			ScriptPath:     args[0],
			FunctionName:   args[1],
			ParamsFile:     args[2],
			OutDir:         args[3],
			SelfBinaryPath: selfBinaryPath,
			Registry:       codec.NewSchemaRegistry(),
		}
		if len(args) == 5 {
			opts.TimestampFile = args[4]
		}
		_, err = subrespire.Run(opts)
		return err
	}
}
