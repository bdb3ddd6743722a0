package app

import (
	"context"
	"log/slog"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: SequentialCommitter implements domain.TransitionCommitter.
var _ domain.TransitionCommitter = (*SequentialCommitter)(nil)

// SequentialCommitter commits transitions on stores that cannot wrap the
// status write, audit entry and events in one transaction. The conditional
// status write decides the outcome; audit and events follow best-effort and
// their failures are logged, never rolled back into the status.
type SequentialCommitter struct {
	status    domain.StatusWriter
	audit     domain.AuditLog
	publisher domain.EventPublisher
	logger    *slog.Logger
}

// NewSequentialCommitter creates a committer over separate ports.
func NewSequentialCommitter(status domain.StatusWriter, audit domain.AuditLog, publisher domain.EventPublisher, logger *slog.Logger) *SequentialCommitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SequentialCommitter{
		status:    status,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
	}
}

func (c *SequentialCommitter) CommitTransition(ctx context.Context, rec domain.TransitionRecord) error {
	if err := c.status.UpdateStatus(ctx, rec.LeaseID, rec.From, rec.To, rec.Audit.At); err != nil {
		return err
	}

	if err := c.audit.Record(ctx, rec.Audit); err != nil {
		c.logger.ErrorContext(ctx, "audit write failed after status commit",
			"lease_id", rec.LeaseID,
			"transition", rec.Audit.Transition,
			"from", rec.From,
			"to", rec.To,
			"actor_id", rec.Audit.ActorID,
			"error", err,
		)
	}

	for _, event := range rec.Events {
		if err := c.publisher.Publish(ctx, event); err != nil {
			c.logger.ErrorContext(ctx, "event publish failed after status commit",
				"lease_id", rec.LeaseID,
				"event", event.Name,
				"event_id", event.ID,
				"error", err,
			)
		}
	}

	return nil
}
