package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// LeaseService orchestrates lease lifecycle operations.
type LeaseService struct {
	repo      domain.LeaseRepository
	facts     domain.LeaseFacts
	audit     domain.AuditReader
	validator domain.TransitionValidator
	committer domain.TransitionCommitter
	contexts  *ContextBuilder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a LeaseService.
type Option func(*LeaseService)

// WithClock overrides the time source used for guards and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LeaseService) { s.now = now }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *LeaseService) { s.logger = logger }
}

// NewLeaseService creates a service with the given adapters.
func NewLeaseService(
	repo domain.LeaseRepository,
	facts domain.LeaseFacts,
	audit domain.AuditReader,
	validator domain.TransitionValidator,
	committer domain.TransitionCommitter,
	opts ...Option,
) *LeaseService {
	s := &LeaseService{
		repo:      repo,
		facts:     facts,
		audit:     audit,
		validator: validator,
		committer: committer,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.contexts = NewContextBuilder(repo, facts, s.now)
	return s
}

// CreateLeaseParams holds the attributes of a new draft lease.
type CreateLeaseParams struct {
	PropertyID   string
	ContractType domain.ContractType
	StartDate    time.Time
	EndDate      *time.Time
}

// Create persists a new lease in the draft state.
func (s *LeaseService) Create(ctx context.Context, params CreateLeaseParams) (domain.Lease, error) {
	if params.PropertyID == "" {
		return domain.Lease{}, &domain.ValidationError{Field: "property_id", Message: "must not be empty"}
	}
	if !params.ContractType.Valid() {
		return domain.Lease{}, &domain.ValidationError{Field: "contract_type", Message: fmt.Sprintf("unknown contract type %q", params.ContractType)}
	}
	if params.StartDate.IsZero() {
		return domain.Lease{}, &domain.ValidationError{Field: "start_date", Message: "must be set"}
	}
	if params.EndDate != nil && !params.EndDate.After(params.StartDate) {
		return domain.Lease{}, &domain.ValidationError{Field: "end_date", Message: "must be after start_date"}
	}

	lease := domain.NewLease(generateID(), params.PropertyID, params.ContractType, params.StartDate, params.EndDate)

	if err := s.repo.Create(ctx, lease); err != nil {
		return domain.Lease{}, fmt.Errorf("creating lease: %w", err)
	}

	s.logger.InfoContext(ctx, "lease created",
		"lease_id", lease.ID,
		"property_id", lease.PropertyID,
		"contract_type", lease.ContractType,
	)
	return lease, nil
}

// GetByID returns a lease by its unique identifier.
func (s *LeaseService) GetByID(ctx context.Context, id string) (domain.Lease, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns leases matching the given filter.
func (s *LeaseService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Lease, error) {
	return s.repo.List(ctx, filter)
}

// TransitionReport is the read-only view of what a lease can do next.
type TransitionReport struct {
	Context     domain.TransitionContext
	Transitions []domain.Availability
}

// AvailableTransitions evaluates every transition defined for the lease's
// current status against freshly read facts. It never writes.
func (s *LeaseService) AvailableTransitions(ctx context.Context, leaseID string) (TransitionReport, error) {
	tc, err := s.contexts.Build(ctx, leaseID)
	if err != nil {
		return TransitionReport{}, err
	}
	return TransitionReport{
		Context:     tc,
		Transitions: domain.AvailableTransitions(tc),
	}, nil
}

// AuditTrail returns the recorded transitions of a lease, oldest first.
func (s *LeaseService) AuditTrail(ctx context.Context, leaseID string) ([]domain.AuditEntry, error) {
	if _, err := s.repo.GetByID(ctx, leaseID); err != nil {
		return nil, err
	}
	return s.audit.ListAudit(ctx, leaseID)
}
