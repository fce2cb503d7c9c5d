package audit

import (
	"context"
	"log/slog"
	"time"
)

// BufferedRecorder decouples domain code from the sink with a bounded inbox.
// When the inbox is full the event is dropped and counted, never blocked on.
type BufferedRecorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewBufferedRecorder(size int, logger *slog.Logger) *BufferedRecorder {
	if size <= 0 {
		size = 256
	}
	return &BufferedRecorder{inbox: make(chan Event, size), logger: logger}
}

func (r *BufferedRecorder) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", event.Action,
			"entity", event.Entity,
		)
	}
}

// Inbox exposes the channel for the worker.
func (r *BufferedRecorder) Inbox() <-chan Event { return r.inbox }

// Worker drains a recorder inbox into a store.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled. Store failures are logged and skipped
// so one bad event cannot wedge the pipeline.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
