package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops a log handler.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler hands records to a pool of workers over a buffered channel so
// that bulk provisioning runs are not slowed down by stdout writes. Records
// are dropped when the buffer is full.
type AsyncHandler struct {
	inner  slog.Handler
	shared *asyncShared
}

type asyncShared struct {
	ch      chan slog.Record
	wg      sync.WaitGroup
	dropped atomic.Int64
	once    sync.Once
}

// NewAsyncHandler creates an AsyncHandler with the given buffer capacity and worker count.
func NewAsyncHandler(inner slog.Handler, bufferSize, workers int) *AsyncHandler {
	shared := &asyncShared{ch: make(chan slog.Record, bufferSize)}
	h := &AsyncHandler{inner: inner, shared: shared}
	for range workers {
		shared.wg.Add(1)
		go h.drain()
	}
	return h
}

func (h *AsyncHandler) drain() {
	defer h.shared.wg.Done()
	for rec := range h.shared.ch {
		_ = h.inner.Handle(context.Background(), rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record without blocking.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.shared.ch <- rec.Clone():
	default:
		h.shared.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the same buffer with attrs added to the inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), shared: h.shared}
}

// WithGroup returns a handler sharing the same buffer with a group added to the inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), shared: h.shared}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.shared.dropped.Load()
}

// Close drains the buffer and reports dropped records on stderr. Safe to call twice.
func (h *AsyncHandler) Close() {
	h.shared.once.Do(func() {
		close(h.shared.ch)
		h.shared.wg.Wait()
		if n := h.shared.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "logger: %d records dropped\n", n)
		}
	})
}
