package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	// Verify expected values match Unix conventions
	tests := []struct {
		name  string
		code  int
		value int
	}{
		{"ExitCodeSuccess", ExitCodeSuccess, 0},
		{"ExitCodeError", ExitCodeError, 1},
		{"ExitCodeUsage", ExitCodeUsage, 2},
		{"ExitCodeSIGINT", ExitCodeSIGINT, 130},
		{"ExitCodeSIGTERM", ExitCodeSIGTERM, 143},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.value {
				t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.value)
			}
		})
	}
}

func TestExitCodeName(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitCodeSuccess, "success"},
		{ExitCodeError, "error"},
		{ExitCodeUsage, "usage"},
		{ExitCodeSIGINT, "interrupted (SIGINT)"},
		{ExitCodeSIGTERM, "terminated (SIGTERM)"},
		{99, "unknown"},
	}

	for _, tt := range tests {
		if got := ExitCodeName(tt.code); got != tt.want {
			t.Errorf("ExitCodeName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestIsSignalExit(t *testing.T) {
	for code, want := range map[int]bool{0: false, 1: false, 2: false, 130: true, 143: true} {
		if got := IsSignalExit(code); got != want {
			t.Errorf("IsSignalExit(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestExitCodeForSignal(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want int
	}{
		{os.Interrupt, ExitCodeSIGINT},
		{syscall.SIGINT, ExitCodeSIGINT},
		{syscall.SIGTERM, ExitCodeSIGTERM},
	}
	for _, tt := range tests {
		if got := ExitCodeForSignal(tt.sig); got != tt.want {
			t.Errorf("ExitCodeForSignal(%v) = %d, want %d", tt.sig, got, tt.want)
		}
	}
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeSuccess},
		{"config error", fmt.Errorf("startup: %w", ErrNoInputs()), ExitCodeUsage},
		{"canceled", fmt.Errorf("embed: %w", context.Canceled), ExitCodeSIGINT},
		{"other", errors.New("eval failed"), ExitCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError() = %d, want %d", got, tt.want)
			}
		})
	}
}
