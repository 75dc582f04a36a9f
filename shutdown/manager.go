package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"llamaembed/core"

	"go.uber.org/zap"
)

// Cleanup priorities. Contexts borrow the model and the model outlives
// nothing else, so the pool goes first, then the model, then the store,
// and the logger is flushed last.
const (
	PriorityPool   = 10
	PriorityModel  = 20
	PriorityStore  = 30
	PriorityLogger = 90
)

// SignalError is the cancellation cause recorded when a signal arrives.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("received %s", e.Signal)
}

// Unwrap lets errors.Is(err, context.Canceled) match a signal cancellation.
func (e *SignalError) Unwrap() error {
	return context.Canceled
}

// Manager coordinates an embedding run's shutdown. It composes:
//   - OperationTracker: files currently being embedded
//   - ShutdownRegistry: ordered cleanup of pool, model, store and logger
//   - SignalCounter: second signal forces exit
//
// Usage:
//
//	manager := NewManager(ctx, logger.Zap())
//	manager.Register("context pool", PriorityPool, core.CloserShutdown(pool))
//	manager.Register("model", PriorityModel, core.CloserShutdown(model))
//	manager.Start()
//
//	err := manager.WrapOperation(manager.Context(), path, embedFile)
//	...
//	manager.Shutdown()
type Manager struct {
	logger   *zap.Logger
	timeout  time.Duration
	exit     func(code int)
	mu       sync.Mutex
	started  bool
	shutdown bool
	received os.Signal

	ctx    context.Context
	cancel context.CancelCauseFunc

	tracker  *OperationTracker
	registry *ShutdownRegistry
	signals  *SignalCounter

	sigChan chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the shutdown timeout duration. Default is 30 seconds.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithExitFunc replaces os.Exit for the forced-exit path.
func WithExitFunc(exit func(code int)) ManagerOption {
	return func(m *Manager) {
		m.exit = exit
	}
}

// NewManager creates a Manager whose context derives from parent.
func NewManager(parent context.Context, logger *zap.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancelCause(parent)

	m := &Manager{
		logger:   logger,
		timeout:  30 * time.Second,
		exit:     os.Exit,
		ctx:      ctx,
		cancel:   cancel,
		tracker:  NewOperationTracker(),
		registry: NewShutdownRegistry(),
		sigChan:  make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func() {
		code := core.ExitCodeForSignal(m.Signal())
		m.logger.Warn("Received second signal, forcing immediate exit",
			zap.Int("exit_code", code),
		)
		m.exit(code)
	})
	return m
}

// Context is cancelled when a signal arrives or Stop is called.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priorities run first.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("Registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start begins handling SIGINT and SIGTERM. The first signal cancels the
// context so no further files start; the second exits immediately.
// Calling Start more than once is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.shutdown {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go m.handleSignals()
}

func (m *Manager) handleSignals() {
	for sig := range m.sigChan {
		m.mu.Lock()
		if m.received == nil {
			m.received = sig
		}
		m.mu.Unlock()

		if m.signals.Increment() == 1 {
			m.logger.Info("Received shutdown signal, finishing in-flight files",
				zap.String("signal", sig.String()),
				zap.Int64("in_flight", m.tracker.ActiveCount()),
			)
			m.cancel(&SignalError{Signal: sig})
		}
	}
}

// Stop cancels the context without a signal, for example after a fatal
// error in one worker.
func (m *Manager) Stop(cause error) {
	m.cancel(cause)
}

// Signal returns the first signal received, or nil.
func (m *Manager) Signal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

// ExitCode returns the signal exit code if a signal ended the run, or the
// code for runErr otherwise.
func (m *Manager) ExitCode(runErr error) int {
	if sig := m.Signal(); sig != nil {
		return core.ExitCodeForSignal(sig)
	}
	return core.ExitCodeForError(runErr)
}

// Shutdown stops accepting operations, waits for in-flight ones up to the
// timeout, then runs cleanup functions in priority order with the time
// left. All cleanup functions run; their errors are joined. Subsequent
// calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	started := m.started
	m.mu.Unlock()

	start := time.Now()
	m.logger.Debug("Initiating shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Int("registered_handlers", m.registry.Count()),
	)

	m.tracker.Close()
	if err := m.tracker.Wait(m.timeout); err != nil {
		m.logger.Warn("Timeout waiting for in-flight operations",
			zap.Duration("waited", time.Since(start)),
			zap.Int64("remaining_ops", m.tracker.ActiveCount()),
		)
	}

	remaining := m.timeout - time.Since(start)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Error("Cleanup function failed", zap.Error(err))
	}

	if started {
		signal.Stop(m.sigChan)
		close(m.sigChan)
	}
	m.cancel(context.Canceled)

	m.logger.Debug("Shutdown completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("error_count", len(errs)),
	)
	return errors.Join(errs...)
}

// WrapOperation runs fn as a tracked in-flight operation. It returns
// ErrTrackerClosed once Shutdown has begun and the context's error if the
// run was already cancelled, without calling fn in either case.
func (m *Manager) WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	if !m.tracker.Start() {
		m.logger.Debug("Operation rejected, shutting down", zap.String("operation", name))
		return ErrTrackerClosed
	}
	defer m.tracker.Done()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return context.Cause(m.ctx)
	default:
	}
	return fn(ctx)
}

// ActiveOperations returns the count of in-flight operations.
func (m *Manager) ActiveOperations() int64 {
	return m.tracker.ActiveCount()
}

// IsShuttingDown reports whether Shutdown has begun.
func (m *Manager) IsShuttingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown || m.tracker.IsClosed()
}

// RegisteredHandlers returns handler names in execution order.
func (m *Manager) RegisteredHandlers() []string {
	return m.registry.Names()
}
