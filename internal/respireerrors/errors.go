// Package respireerrors defines the nine error kinds from the core error
// handling design: stable, checkable codes carried through process
// boundaries (the engine reports them in SignalRespireError events; the
// subrespire host raises them to abort an invocation).
package respireerrors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
	"golang.org/x/xerrors"
)

// Code identifies one of the nine error kinds. Stable across releases;
// never renumber an existing value.
type Code int

const (
	InvalidRegistryFile Code = iota + 1
	OutputConflict
	CyclicDependency
	MissingFunction
	RejectedUnserializable
	UnexpectedFuture
	CommandFailed
	MissingOutput
	ModuleLookupFailed
)

func (c Code) String() string {
	switch c {
	case InvalidRegistryFile:
		return "InvalidRegistryFile"
	case OutputConflict:
		return "OutputConflict"
	case CyclicDependency:
		return "CyclicDependency"
	case MissingFunction:
		return "MissingFunction"
	case RejectedUnserializable:
		return "RejectedUnserializable"
	case UnexpectedFuture:
		return "UnexpectedFuture"
	case CommandFailed:
		return "CommandFailed"
	case MissingOutput:
		return "MissingOutput"
	case ModuleLookupFailed:
		return "ModuleLookupFailed"
	default:
		return "Unknown"
	}
}

// ComplexError pairs a human-readable message with a stable Code and a
// captured stack frame, mirroring the teacher's pkg/commands/errors.go.
type ComplexError struct {
	Code    Code
	Message string
	frame   xerrors.Frame
}

func (e *ComplexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ComplexError) FormatError(p xerrors.Printer) error {
	p.Print(e.Error())
	e.frame.Format(p)
	return nil
}

func (e *ComplexError) Format(f fmt.State, c rune) {
	xerrors.FormatError(e, f, c)
}

// New constructs a ComplexError with the caller's frame attached.
func New(code Code, message string) *ComplexError {
	return &ComplexError{Code: code, Message: message, frame: xerrors.Caller(1)}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code Code, format string, args ...interface{}) *ComplexError {
	return &ComplexError{Code: code, Message: fmt.Sprintf(format, args...), frame: xerrors.Caller(1)}
}

// WrapError wraps err with a stack trace the way the teacher's WrapError
// does, for errors that didn't originate as a ComplexError (I/O failures,
// third-party library errors) but still need a trace for top-level logging.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, 1)
}

// HasErrorCode reports whether err is, or wraps, a ComplexError with code.
func HasErrorCode(err error, code Code) bool {
	var ce *ComplexError
	if xerrors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// CodeOf returns the Code of err if it is a ComplexError, and ok=false
// otherwise.
func CodeOf(err error) (Code, bool) {
	var ce *ComplexError
	if xerrors.As(err, &ce) {
		return ce.Code, true
	}
	return 0, false
}
