package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewMetricsStore(t *testing.T) {
	t.Run("creates store with default config", func(t *testing.T) {
		store := NewMetricsStore(DefaultStoreConfig())
		if store.cap != 100 {
			t.Errorf("expected history capacity 100, got %d", store.cap)
		}
	})

	t.Run("handles zero capacity by defaulting to 100", func(t *testing.T) {
		store := NewMetricsStore(StoreConfig{HistoryCapacity: 0})
		if store.cap != 100 {
			t.Errorf("expected default capacity 100, got %d", store.cap)
		}
	})
}

func TestMetricsStore_RecordRun(t *testing.T) {
	store := NewMetricsStore(DefaultStoreConfig())
	for i, d := range []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		store.RecordRun(RunRecord{
			Source:     "a.txt",
			Repetition: i + 1,
			Status:     RunStatusSuccess,
			Tokens:     40,
			Duration:   d,
		})
	}
	store.RecordRun(RunRecord{Source: "b.pdf", Repetition: 1, Status: RunStatusError, ErrorMsg: "failed to eval"})

	got := store.SourceStats()
	want := []SourceStats{
		{
			Source: "a.txt",
			Runs:   3,
			Tokens: 40,
			Min:    10 * time.Millisecond,
			Max:    30 * time.Millisecond,
			Mean:   20 * time.Millisecond,
			Total:  60 * time.Millisecond,
		},
		{Source: "b.pdf", Errors: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SourceStats() mismatch (-want +got):\n%s", diff)
	}

	m := store.GetRunMetrics()
	if m.TotalRuns != 4 || m.TotalSuccess != 3 || m.TotalErrors != 1 {
		t.Errorf("totals = %d/%d/%d, want 4/3/1", m.TotalRuns, m.TotalSuccess, m.TotalErrors)
	}
	if len(m.BySource) != 2 {
		t.Errorf("BySource has %d entries, want 2", len(m.BySource))
	}
}

func TestMetricsStore_GetRunMetricsReturnsCopies(t *testing.T) {
	store := NewMetricsStore(DefaultStoreConfig())
	store.RecordRun(RunRecord{Source: "a", Status: RunStatusSuccess, Duration: time.Second})

	m := store.GetRunMetrics()
	m.BySource["a"].Runs = 99

	if got := store.GetRunMetrics().BySource["a"].Runs; got != 1 {
		t.Errorf("store mutated through returned metrics: Runs = %d", got)
	}
}

func TestMetricsStore_GetRecentRuns(t *testing.T) {
	store := NewMetricsStore(StoreConfig{HistoryCapacity: 3})
	for i := 1; i <= 5; i++ {
		store.RecordRun(RunRecord{Source: "a", Repetition: i, Status: RunStatusSuccess})
	}

	tests := []struct {
		name  string
		limit int
		want  []int
	}{
		{"zero limit", 0, nil},
		{"less than size", 2, []int{4, 5}},
		{"wraps around", 3, []int{3, 4, 5}},
		{"limit above size", 10, []int{3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, r := range store.GetRecentRuns(tt.limit) {
				got = append(got, r.Repetition)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GetRecentRuns(%d) mismatch (-want +got):\n%s", tt.limit, diff)
			}
		})
	}
}

func TestMetricsStore_SlowestSources(t *testing.T) {
	store := NewMetricsStore(DefaultStoreConfig())
	store.RecordRun(RunRecord{Source: "fast", Status: RunStatusSuccess, Duration: time.Millisecond})
	store.RecordRun(RunRecord{Source: "slow", Status: RunStatusSuccess, Duration: time.Second})
	store.RecordRun(RunRecord{Source: "broken", Status: RunStatusError})
	store.RecordRun(RunRecord{Source: "mid", Status: RunStatusSuccess, Duration: 50 * time.Millisecond})

	var got []string
	for _, s := range store.SlowestSources(2) {
		got = append(got, s.Source)
	}
	if diff := cmp.Diff([]string{"slow", "mid"}, got); diff != "" {
		t.Errorf("SlowestSources(2) mismatch (-want +got):\n%s", diff)
	}
	if n := len(store.SlowestSources(-1)); n != 3 {
		t.Errorf("SlowestSources(-1) returned %d sources, want 3", n)
	}
}

func TestSourceStats_TokensPerSecond(t *testing.T) {
	s := SourceStats{Tokens: 100, Mean: 500 * time.Millisecond}
	if got := s.TokensPerSecond(); got != 200 {
		t.Errorf("TokensPerSecond() = %v, want 200", got)
	}
	if got := (SourceStats{Tokens: 100}).TokensPerSecond(); got != 0 {
		t.Errorf("TokensPerSecond() with zero mean = %v, want 0", got)
	}
}

func TestMetricsStore_ConcurrentRecord(t *testing.T) {
	store := NewMetricsStore(DefaultStoreConfig())
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				store.RecordRun(RunRecord{
					Source:   fmt.Sprintf("file-%d", w),
					Status:   RunStatusSuccess,
					Duration: time.Duration(i+1) * time.Microsecond,
				})
			}
		}(w)
	}
	wg.Wait()

	m := store.GetRunMetrics()
	if m.TotalRuns != 400 {
		t.Errorf("TotalRuns = %d, want 400", m.TotalRuns)
	}
	for _, s := range store.SourceStats() {
		if s.Runs != 50 || s.Min != time.Microsecond || s.Max != 50*time.Microsecond {
			t.Errorf("%s: runs=%d min=%v max=%v", s.Source, s.Runs, s.Min, s.Max)
		}
	}
}
