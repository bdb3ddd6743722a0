package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// --- Mock store ---

// memStore is an in-memory lease store. It implements every persistence port
// so tests can wire it as repository, facts, audit log and committer.
type memStore struct {
	mu          sync.Mutex
	leases      map[string]domain.Lease
	signers     map[string][]domain.Signer
	inspections map[string]domain.Inspection
	insurance   map[string]domain.InsurancePolicy
	notices     map[string]domain.Notice
	audit       []domain.AuditEntry
	events      []domain.Event
	writes      int

	failReads error
}

func newMemStore() *memStore {
	return &memStore{
		leases:      make(map[string]domain.Lease),
		signers:     make(map[string][]domain.Signer),
		inspections: make(map[string]domain.Inspection),
		insurance:   make(map[string]domain.InsurancePolicy),
		notices:     make(map[string]domain.Notice),
	}
}

func (m *memStore) Create(_ context.Context, l domain.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[l.ID] = l
	m.writes++
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (domain.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leases[id]
	if !ok {
		return domain.Lease{}, domain.ErrLeaseNotFound
	}
	return l, nil
}

func (m *memStore) List(_ context.Context, filter domain.ListFilter) ([]domain.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Lease, 0, len(m.leases))
	for _, l := range m.leases {
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *memStore) ListSigners(_ context.Context, leaseID string) ([]domain.Signer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads != nil {
		return nil, m.failReads
	}
	return append([]domain.Signer(nil), m.signers[leaseID]...), nil
}

func (m *memStore) GetInspection(_ context.Context, leaseID string, kind domain.InspectionType) (*domain.Inspection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.inspections[leaseID]
	if !ok || i.Type != kind {
		return nil, nil
	}
	return &i, nil
}

func (m *memStore) GetInsurance(_ context.Context, leaseID string) (*domain.InsurancePolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.insurance[leaseID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) GetNotice(_ context.Context, leaseID string) (*domain.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notices[leaseID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memStore) AddSigner(_ context.Context, s domain.Signer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signers[s.LeaseID] = append(m.signers[s.LeaseID], s)
	m.writes++
	return nil
}

func (m *memStore) MarkSigned(_ context.Context, leaseID, signerID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.signers[leaseID] {
		if s.ID == signerID {
			s.SignatureStatus = domain.SignatureSigned
			s.SignedAt = &at
			m.signers[leaseID][i] = s
			m.writes++
			return nil
		}
	}
	return domain.ErrSignerNotFound
}

func (m *memStore) SaveInspection(_ context.Context, i domain.Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inspections[i.LeaseID] = i
	m.writes++
	return nil
}

func (m *memStore) SaveInsurance(_ context.Context, p domain.InsurancePolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insurance[p.LeaseID] = p
	m.writes++
	return nil
}

func (m *memStore) SaveNotice(_ context.Context, n domain.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices[n.LeaseID] = n
	m.writes++
	return nil
}

func (m *memStore) SetKeysHandedOver(_ context.Context, leaseID string, handedOver bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leases[leaseID]
	if !ok {
		return domain.ErrLeaseNotFound
	}
	l.KeysHandedOver = handedOver
	l.UpdatedAt = at
	m.leases[leaseID] = l
	m.writes++
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, leaseID string, from, to domain.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leases[leaseID]
	if !ok {
		return domain.ErrLeaseNotFound
	}
	if l.Status != from {
		return domain.ErrStatusConflict
	}
	l.Status = to
	l.UpdatedAt = at
	m.leases[leaseID] = l
	m.writes++
	return nil
}

func (m *memStore) Record(_ context.Context, e domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, e)
	return nil
}

func (m *memStore) ListAudit(_ context.Context, leaseID string) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range m.audit {
		if e.LeaseID == leaseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) Publish(_ context.Context, e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// CommitTransition applies status, audit and events atomically under the lock.
func (m *memStore) CommitTransition(ctx context.Context, rec domain.TransitionRecord) error {
	if err := m.UpdateStatus(ctx, rec.LeaseID, rec.From, rec.To, rec.Audit.At); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, rec.Audit)
	m.events = append(m.events, rec.Events...)
	return nil
}

func (m *memStore) status(id string) domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leases[id].Status
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) eventNames() []domain.EventName {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventName, len(m.events))
	for i, e := range m.events {
		out[i] = e.Name
	}
	return out
}

// --- Failing collaborators ---

type failingAudit struct{}

func (failingAudit) Record(context.Context, domain.AuditEntry) error {
	return errors.New("audit store down")
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, domain.Event) error {
	return errors.New("outbox down")
}

type failingCommitter struct{ err error }

func (c failingCommitter) CommitTransition(context.Context, domain.TransitionRecord) error {
	return c.err
}

// gatedCommitter holds every commit until n callers arrived, so concurrent
// executions are guaranteed to have read the same pre-transition status.
type gatedCommitter struct {
	next    domain.TransitionCommitter
	arrived sync.WaitGroup
}

func newGatedCommitter(next domain.TransitionCommitter, n int) *gatedCommitter {
	g := &gatedCommitter{next: next}
	g.arrived.Add(n)
	return g
}

func (g *gatedCommitter) CommitTransition(ctx context.Context, rec domain.TransitionRecord) error {
	g.arrived.Done()
	g.arrived.Wait()
	return g.next.CommitTransition(ctx, rec)
}
