package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultChannelCapacity is the default buffer size for queued records.
const DefaultChannelCapacity = 64

// ErrWriterClosed is returned by Enqueue after Close.
var ErrWriterClosed = errors.New("record writer is closed")

// SaveFunc persists one record. Repository.SaveEmbedding satisfies it.
type SaveFunc func(ctx context.Context, rec EmbeddingRecord) (int64, error)

// RecordWriter saves embedding records on a background goroutine so
// inference workers do not wait on disk. Errors are collected and returned
// from Close.
type RecordWriter struct {
	records chan EmbeddingRecord
	save    SaveFunc
	done    chan struct{}

	// mu guards closed and the senders count. It is never held across a
	// channel send.
	mu        sync.Mutex
	closed    bool
	senders   sync.WaitGroup
	closeOnce sync.Once

	statsMu sync.Mutex
	written int
	errs    []error
}

// NewRecordWriter starts a writer that saves records with save.
func NewRecordWriter(save SaveFunc, capacity int) *RecordWriter {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	w := &RecordWriter{
		records: make(chan EmbeddingRecord, capacity),
		save:    save,
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *RecordWriter) run() {
	defer close(w.done)
	for rec := range w.records {
		_, err := w.save(context.Background(), rec)
		w.statsMu.Lock()
		if err != nil {
			w.errs = append(w.errs, err)
		} else {
			w.written++
		}
		w.statsMu.Unlock()
	}
}

// Enqueue queues rec, blocking while the buffer is full until ctx is done.
func (w *RecordWriter) Enqueue(ctx context.Context, rec EmbeddingRecord) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	// Close waits for registered senders before closing the channel
	w.senders.Add(1)
	w.mu.Unlock()
	defer w.senders.Done()

	select {
	case w.records <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of records waiting in the buffer.
func (w *RecordWriter) Pending() int {
	return len(w.records)
}

// Written returns the number of records saved so far.
func (w *RecordWriter) Written() int {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.written
}

// Close stops accepting records and waits until the queue is drained or ctx
// is done. It returns the joined save errors. Safe to call more than once.
func (w *RecordWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.closeOnce.Do(func() {
		go func() {
			w.senders.Wait()
			close(w.records)
		}()
	})

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("record writer drain interrupted with %d pending: %w", w.Pending(), ctx.Err())
	}

	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return errors.Join(w.errs...)
}
