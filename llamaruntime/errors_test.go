package llamaruntime

import (
	"errors"
	"strings"
	"testing"
)

// TestLlamaError_Error tests the Error() method formatting.
func TestLlamaError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *LlamaError
		contains []string // Strings that should appear in the error message
	}{
		{
			name: "error without wrapped error",
			err: &LlamaError{
				Op:      "Load",
				Code:    -1,
				Message: "file not found",
			},
			contains: []string{"llama.cpp", "Load", "file not found", "code: -1"},
		},
		{
			name: "error with sentinel",
			err: &LlamaError{
				Op:      "Tokenize",
				Code:    -6,
				Message: "buffer too small",
				Err:     ErrTokenizeFailed,
			},
			contains: []string{"llama.cpp", "Tokenize", "buffer too small", "code: -6", "failed to tokenize"},
		},
		{
			name: "error with zero code",
			err: &LlamaError{
				Op:      "Eval",
				Code:    0,
				Message: "unexpected success code",
			},
			contains: []string{"llama.cpp", "Eval", "unexpected success code", "code: 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Error() = %q, should contain %q", got, want)
				}
			}
		})
	}
}

// TestLlamaError_Unwrap tests error unwrapping functionality.
func TestLlamaError_Unwrap(t *testing.T) {
	llamaErr := newError("Eval", 1, ErrEvalFailed, "llama_eval failed for %d tokens", 3)

	if unwrapped := llamaErr.Unwrap(); unwrapped != ErrEvalFailed {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrEvalFailed)
	}
	if !errors.Is(llamaErr, ErrEvalFailed) {
		t.Errorf("errors.Is() failed to unwrap LlamaError")
	}
	if llamaErr.Message != "llama_eval failed for 3 tokens" {
		t.Errorf("Message = %q", llamaErr.Message)
	}
}

// TestSentinelErrors verifies all sentinel errors are defined and distinct.
func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrEncoding", ErrEncoding},
		{"ErrLoadFailed", ErrLoadFailed},
		{"ErrCreationFailed", ErrCreationFailed},
		{"ErrTokenizeFailed", ErrTokenizeFailed},
		{"ErrEvalFailed", ErrEvalFailed},
		{"ErrClosed", ErrClosed},
		{"ErrModelInUse", ErrModelInUse},
		{"ErrStaleEmbeddings", ErrStaleEmbeddings},
		{"ErrEngineUnavailable", ErrEngineUnavailable},
	}

	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Fatalf("%s is nil", s.name)
			}
			if s.err.Error() == "" {
				t.Errorf("%s has empty error message", s.name)
			}
		})
	}

	for i, s1 := range sentinels {
		for j, s2 := range sentinels {
			if i != j && errors.Is(s1.err, s2.err) {
				t.Errorf("%s matches %s", s1.name, s2.name)
			}
		}
	}
}
