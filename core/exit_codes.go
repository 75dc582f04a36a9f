package core

import (
	"context"
	"errors"
	"os"
	"syscall"
)

// Exit codes for the application.
// Signal-based exits follow the Unix 128 + signal number convention.
const (
	// ExitCodeSuccess: every input was embedded.
	ExitCodeSuccess = 0

	// ExitCodeError: a load, read or inference failure ended the run.
	ExitCodeError = 1

	// ExitCodeUsage: configuration or arguments were rejected before any
	// model was loaded.
	ExitCodeUsage = 2

	// ExitCodeSIGINT: interrupted by Ctrl+C (128 + 2).
	ExitCodeSIGINT = 130

	// ExitCodeSIGTERM: terminated (128 + 15).
	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeUsage:
		return "usage"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}

// IsSignalExit returns true if the exit code indicates a signal-based termination.
func IsSignalExit(code int) bool {
	return code == ExitCodeSIGINT || code == ExitCodeSIGTERM
}

// ExitCodeForSignal maps a received signal to its exit code.
func ExitCodeForSignal(sig os.Signal) int {
	if sig == syscall.SIGTERM {
		return ExitCodeSIGTERM
	}
	return ExitCodeSIGINT
}

// ExitCodeForError picks the exit code for the error a run ended with.
func ExitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, context.Canceled):
		return ExitCodeSIGINT
	}
	if _, ok := IsConfigError(err); ok {
		return ExitCodeUsage
	}
	return ExitCodeError
}
