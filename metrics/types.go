// Package metrics provides pure data types for per-run timing statistics.
// This file contains atom-level type definitions with no behavior.
package metrics

import "time"

// RunRecord is one evaluation of one input.
type RunRecord struct {
	// Source names the input, usually a file path
	Source string `json:"source"`

	// Repetition is the 1-based index within the source's timing loop
	Repetition int `json:"repetition"`

	// Status is RunStatusSuccess or RunStatusError
	Status string `json:"status"`

	// Tokens is the number of tokens evaluated
	Tokens int `json:"tokens"`

	// Duration covers tokenize, eval and the embeddings read
	Duration time.Duration `json:"duration"`

	// ErrorMsg contains error details if Status is "error"
	ErrorMsg string `json:"error_msg,omitempty"`
}

// RunMetrics is the aggregate over every recorded run.
type RunMetrics struct {
	TotalRuns    int64 `json:"total_runs"`
	TotalSuccess int64 `json:"total_success"`
	TotalErrors  int64 `json:"total_errors"`

	// BySource holds one entry per input, keyed by RunRecord.Source
	BySource map[string]*SourceStats `json:"by_source"`
}

// SourceStats summarizes the successful runs of one input.
type SourceStats struct {
	Source string        `json:"source"`
	Runs   int64         `json:"runs"`
	Errors int64         `json:"errors"`
	Tokens int           `json:"tokens"` // from the latest successful run
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	Total  time.Duration `json:"total"`
}

// TokensPerSecond returns the throughput at the mean duration.
func (s SourceStats) TokensPerSecond() float64 {
	if s.Mean <= 0 {
		return 0
	}
	return float64(s.Tokens) / s.Mean.Seconds()
}

// Status constants for RunRecord
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)
