package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// TransitionsCommittedMetric counts commit attempts by transition and outcome.
const TransitionsCommittedMetric = "leaseiq.transitions.committed"

// Commit outcomes reported on the transitions counter.
const (
	OutcomeCommitted = "committed"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// TracingCommitter wraps a domain.TransitionCommitter with a span per commit
// and a counter of commits by transition and outcome.
type TracingCommitter struct {
	next      domain.TransitionCommitter
	tracer    trace.Tracer
	committed metric.Int64Counter
}

// Compile-time check: TracingCommitter implements domain.TransitionCommitter.
var _ domain.TransitionCommitter = (*TracingCommitter)(nil)

// NewTracingCommitter creates an instrumented decorator around next.
func NewTracingCommitter(next domain.TransitionCommitter) (*TracingCommitter, error) {
	counter, err := otel.Meter(tracerName).Int64Counter(TransitionsCommittedMetric,
		metric.WithDescription("Lease transition commit attempts by outcome."),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &TracingCommitter{
		next:      next,
		tracer:    otel.Tracer(tracerName),
		committed: counter,
	}, nil
}

func (c *TracingCommitter) CommitTransition(ctx context.Context, rec domain.TransitionRecord) error {
	ctx, span := c.tracer.Start(ctx, "TransitionCommitter.CommitTransition",
		trace.WithAttributes(
			attribute.String("lease.id", rec.LeaseID),
			attribute.String("lease.transition", string(rec.Audit.Transition)),
			attribute.String("lease.status.from", string(rec.From)),
			attribute.String("lease.status.to", string(rec.To)),
			attribute.Int("lease.events", len(rec.Events)),
			attribute.Int("lease.overridden_guards", len(rec.Audit.OverriddenGuards)),
		),
	)
	defer span.End()

	err := c.next.CommitTransition(ctx, rec)

	outcome := OutcomeCommitted
	switch {
	case errors.Is(err, domain.ErrStatusConflict):
		// Losing a race is an expected outcome, not a span error.
		outcome = OutcomeConflict
		span.SetAttributes(attribute.Bool("lease.conflict", true))
	case err != nil:
		outcome = OutcomeError
		recordError(span, err)
	}

	c.committed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transition", string(rec.Audit.Transition)),
		attribute.String("outcome", outcome),
	))
	return err
}
