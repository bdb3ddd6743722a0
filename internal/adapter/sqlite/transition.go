package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Outbox persists transition events inside the commit transaction, so an
// event exists if and only if its status change committed.
type Outbox interface {
	PublishTx(ctx context.Context, tx *sql.Tx, events []domain.Event) error
}

// TableOutbox writes events to the lease_events table.
type TableOutbox struct{}

func (TableOutbox) PublishTx(ctx context.Context, tx *sql.Tx, events []domain.Event) error {
	for _, e := range events {
		if err := insertEvent(ctx, tx, e); err != nil {
			return err
		}
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CommitTransition writes the conditional status change, the audit entry and
// the events in one transaction. A status that moved away from rec.From
// rolls everything back and returns domain.ErrStatusConflict.
func (r *LeaseRepository) CommitTransition(ctx context.Context, rec domain.TransitionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateStatus(ctx, tx, rec.LeaseID, rec.From, rec.To, rec.Audit.At); err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, rec.Audit); err != nil {
		return err
	}
	if err := r.outbox.PublishTx(ctx, tx, rec.Events); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transition: %w", err)
	}
	return nil
}

// UpdateStatus moves the lease from one status to another, only if it is
// still in from.
func (r *LeaseRepository) UpdateStatus(ctx context.Context, leaseID string, from, to domain.Status, at time.Time) error {
	return updateStatus(ctx, r.db, leaseID, from, to, at)
}

func updateStatus(ctx context.Context, q execer, leaseID string, from, to domain.Status, at time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE leases SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), at.UTC().Format(timeFormat), leaseID, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating lease status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx, `SELECT 1 FROM leases WHERE id = ?`, leaseID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrLeaseNotFound
	}
	if err != nil {
		return fmt.Errorf("checking lease: %w", err)
	}
	return domain.ErrStatusConflict
}

// Record appends an audit entry outside of any transition transaction.
func (r *LeaseRepository) Record(ctx context.Context, e domain.AuditEntry) error {
	return insertAudit(ctx, r.db, e)
}

func insertAudit(ctx context.Context, q execer, e domain.AuditEntry) error {
	guards := e.OverriddenGuards
	if guards == nil {
		guards = []domain.GuardName{}
	}
	guardsJSON, err := json.Marshal(guards)
	if err != nil {
		return fmt.Errorf("encoding overridden guards: %w", err)
	}

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encoding audit metadata: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO lease_audit (id, lease_id, actor_id, transition, from_status, to_status, at, overridden_guards, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.LeaseID, e.ActorID, string(e.Transition), string(e.From), string(e.To),
		e.At.UTC().Format(timeFormat), string(guardsJSON), string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

func (r *LeaseRepository) ListAudit(ctx context.Context, leaseID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lease_id, actor_id, transition, from_status, to_status, at, overridden_guards, metadata
		 FROM lease_audit WHERE lease_id = ? ORDER BY at, rowid`, leaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			e                        domain.AuditEntry
			transition, from, to, at string
			guards, metadata         string
		)
		if err := rows.Scan(&e.ID, &e.LeaseID, &e.ActorID, &transition, &from, &to, &at, &guards, &metadata); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}

		e.Transition = domain.TransitionName(transition)
		e.From = domain.Status(from)
		e.To = domain.Status(to)
		e.At, _ = time.Parse(timeFormat, at)
		if err := json.Unmarshal([]byte(guards), &e.OverriddenGuards); err != nil {
			return nil, fmt.Errorf("decoding overridden guards: %w", err)
		}
		if len(e.OverriddenGuards) == 0 {
			e.OverriddenGuards = nil
		}
		if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
			return nil, fmt.Errorf("decoding audit metadata: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Publish appends a single event to lease_events.
func (r *LeaseRepository) Publish(ctx context.Context, e domain.Event) error {
	return insertEvent(ctx, r.db, e)
}

func insertEvent(ctx context.Context, q execer, e domain.Event) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO lease_events (id, lease_id, name, transition, new_status, actor_id, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.LeaseID, string(e.Name), string(e.Transition), string(e.NewStatus), e.ActorID,
		e.OccurredAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting event %s: %w", e.Name, err)
	}
	return nil
}

// Events lists the events stored in lease_events for a lease, in write order.
func (r *LeaseRepository) Events(ctx context.Context, leaseID string) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lease_id, name, transition, new_status, actor_id, occurred_at
		 FROM lease_events WHERE lease_id = ? ORDER BY rowid`, leaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e                                  domain.Event
			name, transition, status, occurred string
		)
		if err := rows.Scan(&e.ID, &e.LeaseID, &name, &transition, &status, &e.ActorID, &occurred); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		e.Name = domain.EventName(name)
		e.Transition = domain.TransitionName(transition)
		e.NewStatus = domain.Status(status)
		e.OccurredAt, _ = time.Parse(timeFormat, occurred)
		events = append(events, e)
	}

	return events, rows.Err()
}
