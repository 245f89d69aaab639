package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/gotfa/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by the CPU count when NewManager gets a
// non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a recovered panic in the error returned by Wait.
var ErrPanic = errors.New("goroutine panicked")

// Manager runs background work (event publishing, consumer loops) with a
// concurrency limit. Wait closes the manager and joins every task error.
type Manager struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	slots  chan struct{}

	errMu sync.Mutex
	errs  []error
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, maxGoroutine)}
}

// Go runs f in a new goroutine and reports whether it was started. Work is
// refused, never queued, when the manager is closed or every slot is busy.
// f is skipped if ctx is already done when the goroutine starts.
func (m *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if m == nil || !m.reserve(ctx) {
		return false
	}

	go func() {
		defer m.wg.Done()
		defer func() { <-m.slots }()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled", "because", err)
			return
		}
		m.record(m.run(ctx, f))
	}()
	return true
}

// reserve takes a slot and registers the task with the wait group under the
// same lock Wait uses to close, so no task can start after Wait returned.
func (m *Manager) reserve(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return false
	}
	select {
	case m.slots <- struct{}{}:
		m.wg.Add(1)
		return true
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, failed to start new goroutine")
		return false
	}
}

func (m *Manager) run(ctx context.Context, f func(ctx context.Context) error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("%w: %v", ErrPanic, rvr)
	}()

	return f(ctx)
}

func (m *Manager) record(err error) {
	if err == nil {
		return
	}
	m.errMu.Lock()
	m.errs = append(m.errs, err)
	m.errMu.Unlock()
}

// Wait closes the manager, blocks until running tasks finish and returns
// their errors joined.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.errMu.Lock()
	defer m.errMu.Unlock()
	return errors.Join(m.errs...)
}
