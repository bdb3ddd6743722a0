package app_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

func cancelRecord(leaseID string) domain.TransitionRecord {
	return domain.TransitionRecord{
		LeaseID: leaseID,
		From:    domain.StatusDraft,
		To:      domain.StatusCancelled,
		Audit: domain.AuditEntry{
			ID:         "audit-1",
			LeaseID:    leaseID,
			ActorID:    "agent-1",
			Transition: domain.TransitionCancel,
			From:       domain.StatusDraft,
			To:         domain.StatusCancelled,
			At:         now,
		},
		Events: []domain.Event{{ID: "evt-1", Name: domain.EventCancelled, LeaseID: leaseID}},
	}
}

func seedDraft(t *testing.T, store *memStore) string {
	t.Helper()
	lease := domain.NewLease("lease-1", "prop-1", domain.ContractFurnished, now, nil)
	require.NoError(t, store.Create(context.Background(), lease))
	return lease.ID
}

func TestSequentialCommitter_WritesAll(t *testing.T) {
	store := newMemStore()
	id := seedDraft(t, store)
	c := app.NewSequentialCommitter(store, store, store, nil)

	require.NoError(t, c.CommitTransition(context.Background(), cancelRecord(id)))

	assert.Equal(t, domain.StatusCancelled, store.status(id))
	entries, _ := store.ListAudit(context.Background(), id)
	assert.Len(t, entries, 1)
	assert.Equal(t, []domain.EventName{domain.EventCancelled}, store.eventNames())
}

func TestSequentialCommitter_StatusConflict(t *testing.T) {
	store := newMemStore()
	id := seedDraft(t, store)
	c := app.NewSequentialCommitter(store, store, store, nil)
	rec := cancelRecord(id)
	rec.From = domain.StatusPendingSignature

	err := c.CommitTransition(context.Background(), rec)

	assert.ErrorIs(t, err, domain.ErrStatusConflict)
	assert.Equal(t, domain.StatusDraft, store.status(id))
	assert.Empty(t, store.eventNames())
}

func TestSequentialCommitter_SideEffectFailuresAreLogged(t *testing.T) {
	store := newMemStore()
	id := seedDraft(t, store)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := app.NewSequentialCommitter(store, failingAudit{}, failingPublisher{}, logger)

	err := c.CommitTransition(context.Background(), cancelRecord(id))

	require.NoError(t, err, "status already committed")
	assert.Equal(t, domain.StatusCancelled, store.status(id))
	out := buf.String()
	assert.Contains(t, out, "audit write failed after status commit")
	assert.Contains(t, out, "audit store down")
	assert.Contains(t, out, "event publish failed after status commit")
	assert.Contains(t, out, `"event":"lease.cancelled"`)
}

func TestExecute_SequentialCommitMode(t *testing.T) {
	store := newMemStore()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	committer := app.NewSequentialCommitter(store, store, failingPublisher{}, logger)
	svc := newServiceWithCommitter(store, committer, app.WithLogger(logger))
	lease := createLease(t, svc, domain.ContractFurnished)

	result, err := execute(svc, lease.ID, domain.TransitionCancel)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusCancelled, store.status(lease.ID))
	assert.Contains(t, buf.String(), "event publish failed after status commit")
	assert.Contains(t, buf.String(), "lease transitioned")
}
