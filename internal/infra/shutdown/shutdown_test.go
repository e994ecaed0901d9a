package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.hooks == nil {
		t.Error("hooks should be initialized")
	}
	if h.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

func TestHandler_Done(t *testing.T) {
	h := NewHandler(5*time.Second, quietLogger())

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func recordingHooks(h *Handler, n int) (*[]int, *sync.Mutex) {
	order := make([]int, 0, n)
	var mu sync.Mutex
	for i := 1; i <= n; i++ {
		id := i
		h.OnShutdown("hook", func(ctx context.Context) error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		})
	}
	return &order, &mu
}

func TestHandler_Wait_Trigger(t *testing.T) {
	h := NewHandler(5*time.Second, quietLogger())
	order, mu := recordingHooks(h, 3)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	h.Trigger("listener failed")
	h.Trigger("ignored")

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*order) != 3 || (*order)[0] != 3 || (*order)[1] != 2 || (*order)[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3 2 1]", *order)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := NewHandler(5*time.Second, quietLogger())
	order, mu := recordingHooks(h, 2)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*order) != 2 {
		t.Errorf("expected 2 hooks called, got %d", len(*order))
	}
}

func TestHandler_Wait_HookErrors(t *testing.T) {
	h := NewHandler(5*time.Second, quietLogger())

	errPersist := errors.New("persist failed")
	errClose := errors.New("close failed")
	ran := false

	h.OnShutdown("store", func(ctx context.Context) error { return errClose })
	h.OnShutdown("middle", func(ctx context.Context) error {
		ran = true
		return nil
	})
	h.OnShutdown("ledger", func(ctx context.Context) error { return errPersist })

	h.Trigger("test")
	err := h.Wait()

	if !errors.Is(err, errPersist) || !errors.Is(err, errClose) {
		t.Errorf("Wait() = %v, want both hook errors", err)
	}
	if !ran {
		t.Error("hooks after a failing hook should still run")
	}
}

func TestHandler_Wait_SharedDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, quietLogger())

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger("test")

	start := time.Now()
	err := h.Wait()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() took %v, deadline not applied", elapsed)
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(5*time.Second, quietLogger())

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(ctx context.Context) error {
				return nil
			})
		}()
	}

	wg.Wait()

	h.mu.Lock()
	if len(h.hooks) != numGoroutines {
		t.Errorf("expected %d hooks, got %d", numGoroutines, len(h.hooks))
	}
	h.mu.Unlock()
}
