package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a lease event to asynchronous consumers. River
// serializes this as JSON into its job queue table. It carries the full
// event payload so the worker never needs to query the lease store.
type EventJobArgs struct {
	EventID    string    `json:"event_id"`
	Event      string    `json:"event"`
	LeaseID    string    `json:"lease_id"`
	Transition string    `json:"transition"`
	NewStatus  string    `json:"new_status"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "lease.event" }

func argsFromEvent(e domain.Event) EventJobArgs {
	return EventJobArgs{
		EventID:    e.ID,
		Event:      string(e.Name),
		LeaseID:    e.LeaseID,
		Transition: string(e.Transition),
		NewStatus:  string(e.NewStatus),
		ActorID:    e.ActorID,
		OccurredAt: e.OccurredAt,
	}
}

// DomainEvent converts the job payload back to a domain event.
func (a EventJobArgs) DomainEvent() domain.Event {
	return domain.Event{
		ID:         a.EventID,
		Name:       domain.EventName(a.Event),
		LeaseID:    a.LeaseID,
		Transition: domain.TransitionName(a.Transition),
		NewStatus:  domain.Status(a.NewStatus),
		ActorID:    a.ActorID,
		OccurredAt: a.OccurredAt,
	}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher enqueues lease events as River jobs. Publish inserts on its own;
// PublishTx joins the caller's transaction so jobs commit with the status
// change they describe.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a domain event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	if _, err := p.client.Insert(ctx, argsFromEvent(event), nil); err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}

// PublishTx enqueues events inside tx.
func (p *Publisher) PublishTx(ctx context.Context, tx *sql.Tx, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	params := make([]river.InsertManyParams, 0, len(events))
	for _, e := range events {
		params = append(params, river.InsertManyParams{Args: argsFromEvent(e)})
	}

	if _, err := p.client.InsertManyTx(ctx, tx, params); err != nil {
		return fmt.Errorf("enqueuing event jobs: %w", err)
	}
	return nil
}
