package metrics

// Collector records evaluation runs and reports their aggregates.
// MetricsStore is the in-memory implementation.
type Collector interface {
	// RecordRun logs one finished evaluation.
	RecordRun(run RunRecord)

	// GetRunMetrics returns the aggregate over all recorded runs.
	GetRunMetrics() RunMetrics

	// GetRecentRuns returns up to limit of the latest runs, oldest first.
	GetRecentRuns(limit int) []RunRecord
}
