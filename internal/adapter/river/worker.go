package river

import (
	"context"
	"log/slog"
	"strings"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Handler consumes one lease event. A returned error makes River retry the job.
type Handler func(ctx context.Context, event domain.Event) error

// LogHandler logs each event with the downstream consumer it is addressed to.
// Notification and accounting consumers live outside this service.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event domain.Event) error {
		logger.InfoContext(ctx, "lease event delivered",
			"event", event.Name,
			"consumer", consumer(event.Name),
			"lease_id", event.LeaseID,
			"transition", event.Transition,
			"new_status", event.NewStatus,
			"actor_id", event.ActorID,
		)
		return nil
	}
}

// consumer derives the owning context from the event name prefix.
func consumer(name domain.EventName) string {
	prefix, _, found := strings.Cut(string(name), ".")
	if !found || prefix == "lease" {
		return "notifications"
	}
	return prefix
}

// EventWorker processes lease event jobs from the River queue.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
	handler Handler
}

// NewEventWorker creates a worker dispatching to handler.
func NewEventWorker(handler Handler) *EventWorker {
	return &EventWorker{handler: handler}
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	return w.handler(ctx, job.Args.DomainEvent())
}
