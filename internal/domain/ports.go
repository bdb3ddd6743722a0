package domain

import (
	"context"
	"time"
)

// LeaseRepository defines the persistence contract for leases. It has no
// status setter: status only changes through a TransitionCommitter.
type LeaseRepository interface {
	Create(ctx context.Context, lease Lease) error
	GetByID(ctx context.Context, id string) (Lease, error)
	List(ctx context.Context, filter ListFilter) ([]Lease, error)
}

// ListFilter holds optional criteria for listing leases.
type ListFilter struct {
	Status     *Status
	PropertyID string
	Limit      int
	Offset     int
}

// LeaseFactsReader reads the records guard inputs are derived from. Single
// record lookups return nil, nil when the record does not exist.
type LeaseFactsReader interface {
	ListSigners(ctx context.Context, leaseID string) ([]Signer, error)
	GetInspection(ctx context.Context, leaseID string, kind InspectionType) (*Inspection, error)
	GetInsurance(ctx context.Context, leaseID string) (*InsurancePolicy, error)
	GetNotice(ctx context.Context, leaseID string) (*Notice, error)
}

// LeaseFactsWriter records the facts gathered by the surrounding application.
// None of these writes touch the lease status.
type LeaseFactsWriter interface {
	AddSigner(ctx context.Context, signer Signer) error
	MarkSigned(ctx context.Context, leaseID, signerID string, at time.Time) error
	SaveInspection(ctx context.Context, inspection Inspection) error
	SaveInsurance(ctx context.Context, policy InsurancePolicy) error
	SaveNotice(ctx context.Context, notice Notice) error
	SetKeysHandedOver(ctx context.Context, leaseID string, handedOver bool, at time.Time) error
}

// LeaseFacts combines reading and recording lease facts.
type LeaseFacts interface {
	LeaseFactsReader
	LeaseFactsWriter
}

// TransitionCommitter persists an executed transition. The status write must
// be conditional on rec.From and return ErrStatusConflict when it misses.
type TransitionCommitter interface {
	CommitTransition(ctx context.Context, rec TransitionRecord) error
}

// StatusWriter performs the conditional status update on its own, for
// committers that cannot wrap audit and events in the same transaction.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, leaseID string, from, to Status, at time.Time) error
}

// AuditLog appends audit entries.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditReader lists the audit trail of a lease, oldest first.
type AuditReader interface {
	ListAudit(ctx context.Context, leaseID string) ([]AuditEntry, error)
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// TransitionValidator resolves the destination of a transition from a state,
// independently of guards.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, name TransitionName) (Status, error)
}
