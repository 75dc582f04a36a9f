package shutdown

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestOperationTracker_StartDone(t *testing.T) {
	tr := NewOperationTracker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		if !tr.Start() {
			t.Fatal("Start() = false on open tracker")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Done()
		}()
	}
	wg.Wait()

	if tr.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", tr.ActiveCount())
	}
	if err := tr.Wait(time.Second); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestOperationTracker_Close(t *testing.T) {
	tr := NewOperationTracker()
	tr.Close()

	if tr.Start() {
		t.Error("Start() = true after Close")
	}
	if !tr.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
}

func TestOperationTracker_WaitTimeout(t *testing.T) {
	tr := NewOperationTracker()
	tr.Start()
	defer tr.Done()

	if err := tr.Wait(10 * time.Millisecond); !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("Wait() error = %v, want ErrWaitTimeout", err)
	}
	if tr.ActiveCount() != 1 {
		t.Errorf("ActiveCount() = %d, want 1", tr.ActiveCount())
	}
}

func TestSignalCounter(t *testing.T) {
	forced := 0
	c := NewSignalCounter(2, func() { forced++ })

	if got := c.Increment(); got != 1 || forced != 0 {
		t.Errorf("first Increment() = %d forced=%d, want 1 and 0", got, forced)
	}
	if got := c.Increment(); got != 2 || forced != 1 {
		t.Errorf("second Increment() = %d forced=%d, want 2 and 1", got, forced)
	}
	if c.Count() != 2 {
		t.Errorf("Count() = %d, want 2", c.Count())
	}

	if got := NewSignalCounter(1, nil).Increment(); got != 1 {
		t.Errorf("Increment() with nil callback = %d, want 1", got)
	}
}
