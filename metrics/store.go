// Package metrics provides the MetricsStore for in-memory run timings.
// This file contains the MetricsStore which implements the Collector interface.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// MetricsStore keeps a bounded history of evaluation runs and per-source
// timing aggregates. It is safe for concurrent use by embedding workers.
//
// Usage:
//
//	store := NewMetricsStore(DefaultStoreConfig())
//	store.RecordRun(run)
//	stats := store.SourceStats()
type MetricsStore struct {
	mu sync.RWMutex

	// Run history, a ring of the latest runs
	history []RunRecord
	cap     int
	head    int
	size    int

	totalRuns    int64
	totalSuccess int64
	totalErrors  int64
	bySource     map[string]*SourceStats
	order        []string // sources in first-seen order
}

// StoreConfig configures the MetricsStore behavior.
type StoreConfig struct {
	// HistoryCapacity is the max number of runs retained for GetRecentRuns
	HistoryCapacity int
}

// DefaultStoreConfig returns a default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{HistoryCapacity: 100}
}

// NewMetricsStore creates a new MetricsStore with the specified configuration.
func NewMetricsStore(config StoreConfig) *MetricsStore {
	capacity := config.HistoryCapacity
	if capacity < 1 {
		capacity = 100
	}
	return &MetricsStore{
		history:  make([]RunRecord, capacity),
		cap:      capacity,
		bySource: make(map[string]*SourceStats),
	}
}

// RecordRun logs a finished evaluation.
func (s *MetricsStore) RecordRun(run RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[s.head] = run
	s.head = (s.head + 1) % s.cap
	if s.size < s.cap {
		s.size++
	}

	s.totalRuns++
	stats, ok := s.bySource[run.Source]
	if !ok {
		stats = &SourceStats{Source: run.Source}
		s.bySource[run.Source] = stats
		s.order = append(s.order, run.Source)
	}

	if run.Status != RunStatusSuccess {
		s.totalErrors++
		stats.Errors++
		return
	}
	s.totalSuccess++

	if stats.Runs == 0 || run.Duration < stats.Min {
		stats.Min = run.Duration
	}
	if run.Duration > stats.Max {
		stats.Max = run.Duration
	}
	stats.Runs++
	stats.Total += run.Duration
	stats.Mean = stats.Total / time.Duration(stats.Runs)
	stats.Tokens = run.Tokens
}

// GetRunMetrics returns aggregated statistics. The per-source entries are
// copies.
func (s *MetricsStore) GetRunMetrics() RunMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := RunMetrics{
		TotalRuns:    s.totalRuns,
		TotalSuccess: s.totalSuccess,
		TotalErrors:  s.totalErrors,
		BySource:     make(map[string]*SourceStats, len(s.bySource)),
	}
	for source, stats := range s.bySource {
		c := *stats
		m.BySource[source] = &c
	}
	return m
}

// SourceStats returns one entry per source in the order sources were first
// recorded.
func (s *MetricsStore) SourceStats() []SourceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SourceStats, 0, len(s.order))
	for _, source := range s.order {
		out = append(out, *s.bySource[source])
	}
	return out
}

// SlowestSources returns up to n sources ordered by mean duration, slowest
// first. Sources without a successful run are skipped.
func (s *MetricsStore) SlowestSources(n int) []SourceStats {
	all := s.SourceStats()
	ranked := all[:0]
	for _, st := range all {
		if st.Runs > 0 {
			ranked = append(ranked, st)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Mean > ranked[j].Mean })
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// GetRecentRuns returns the N most recent runs, oldest first.
// If limit exceeds available runs, all available are returned.
func (s *MetricsStore) GetRecentRuns(limit int) []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || s.size == 0 {
		return []RunRecord{}
	}
	if limit > s.size {
		limit = s.size
	}

	result := make([]RunRecord, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - limit + i + s.cap) % s.cap
		result[i] = s.history[idx]
	}
	return result
}

// Verify MetricsStore implements Collector interface
var _ Collector = (*MetricsStore)(nil)
