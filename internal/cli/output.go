package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // validation found defects
	ExitCommandError = 2 // unreadable input, bad flags, startup failure
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func newExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode extracts the exit code from an error returned by a command.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// formatter writes command results as text or JSON.
type formatter struct {
	format  string
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

func (f *formatter) json() bool { return f.format == formatJSON }

func (f *formatter) encode(v any) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// verbosef writes diagnostics to the error stream so JSON output stays clean.
func (f *formatter) verbosef(format string, args ...any) {
	if !f.verbose {
		return
	}
	fmt.Fprintf(f.errOut, format+"\n", args...)
}
