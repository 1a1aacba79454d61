// Package ingest decouples event producers from store latency with a bounded
// queue drained by a single consumer goroutine. Producers block once the
// queue is full (backpressure); a failed log is reported and skipped, never
// fatal to the worker.
package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/trail/internal/model"
)

// DefaultCapacity is used when the caller asks for a zero or negative queue size.
const DefaultCapacity = 100

// Sink consumes events; *audit.Index satisfies it.
type Sink interface {
	Log(ctx context.Context, e *model.Event) error
}

// Queue is a bounded event queue with exactly one consumer worker.
type Queue struct {
	ch     chan *model.Event
	done   chan struct{}
	sink   Sink
	logger *slog.Logger

	closeOnce sync.Once
}

// Start creates the queue and launches its consumer. capacity <= 0 selects
// DefaultCapacity; a nil logger falls back to slog.Default().
func Start(sink Sink, capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		ch:     make(chan *model.Event, capacity),
		done:   make(chan struct{}),
		sink:   sink,
		logger: logger,
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.ch {
		if err := q.sink.Log(context.Background(), e); err != nil {
			q.logger.Error("failed to log event", "id", e.ID, "error", err)
		}
	}
}

// Enqueue hands e to the worker, blocking while the queue is full. It
// returns ctx.Err() if the context ends first. Enqueue must not be called
// after Close.
func (q *Queue) Enqueue(ctx context.Context, e *model.Event) error {
	select {
	case q.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake. Events already queued still get logged; use Wait to
// block until the worker has drained them. Close is idempotent.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
}

// Wait blocks until the worker has drained the queue and exited. Callers
// normally Close first.
func (q *Queue) Wait() {
	<-q.done
}
