package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// FailureCode classifies why an execution did not change the lease.
type FailureCode string

const (
	CodeNotFound               FailureCode = "not_found"
	CodeInvalidTransition      FailureCode = "invalid_transition"
	CodeGuardFailed            FailureCode = "guard_failed"
	CodeConcurrentModification FailureCode = "concurrent_modification"
	CodeInternal               FailureCode = "internal"
)

// ExecuteParams requests one transition on one lease.
type ExecuteParams struct {
	LeaseID    string
	Transition domain.TransitionName
	ActorID    string
	// Force overrides failed soft guards. Hard guards still apply.
	Force    bool
	Metadata map[string]string
}

// TransitionResult describes the outcome of ExecuteTransition. On failure
// NewStatus equals PreviousStatus and Errors lists every reason.
type TransitionResult struct {
	LeaseID        string
	Transition     domain.TransitionName
	Success        bool
	PreviousStatus domain.Status
	NewStatus      domain.Status
	Warnings       []domain.GuardFailure
	Errors         []domain.GuardFailure
	Code           FailureCode
}

func (r TransitionResult) fail(code FailureCode, failures ...domain.GuardFailure) TransitionResult {
	r.Success = false
	r.NewStatus = r.PreviousStatus
	r.Code = code
	r.Errors = failures
	return r
}

// ExecuteTransition validates and applies a transition. Business rejections
// (unknown lease, undefined transition, failed guards, concurrent change)
// come back as a populated result together with the matching domain error;
// only store failures produce other errors.
func (s *LeaseService) ExecuteTransition(ctx context.Context, params ExecuteParams) (TransitionResult, error) {
	result := TransitionResult{
		LeaseID:    params.LeaseID,
		Transition: params.Transition,
	}

	tc, err := s.contexts.Build(ctx, params.LeaseID)
	if err != nil {
		if errors.Is(err, domain.ErrLeaseNotFound) {
			return result.fail(CodeNotFound, domain.GuardFailure{
				Guard:    domain.GuardLeaseExists,
				Severity: domain.SeverityHard,
				Reason:   "lease not found",
			}), err
		}
		return result.fail(CodeInternal), fmt.Errorf("building transition context: %w", err)
	}
	result.PreviousStatus = tc.Status
	result.NewStatus = tc.Status

	dst, err := s.validator.Apply(ctx, tc.Status, params.Transition)
	if err != nil {
		var trErr *domain.TransitionError
		if errors.As(err, &trErr) {
			return result.fail(CodeInvalidTransition, domain.GuardFailure{
				Guard:    domain.GuardTransitionDefined,
				Severity: domain.SeverityHard,
				Reason:   trErr.Error(),
			}), err
		}
		return result.fail(CodeInternal), fmt.Errorf("validating transition: %w", err)
	}

	def, ok := domain.TransitionFor(tc.Status, params.Transition)
	if !ok || def.Dst != dst {
		return result.fail(CodeInternal), fmt.Errorf("transition %q from %q: validator and table disagree", params.Transition, tc.Status)
	}

	var overridden []domain.GuardFailure
	if failures := def.Evaluate(tc); len(failures) > 0 {
		if !params.Force || !domain.AllSoft(failures) {
			return result.fail(CodeGuardFailed, failures...), &domain.GuardError{
				Transition: params.Transition,
				Current:    tc.Status,
				Failures:   failures,
			}
		}
		overridden = failures
	}

	rec := s.record(params, def, overridden)

	if err := s.committer.CommitTransition(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			s.logger.WarnContext(ctx, "lease transition lost a concurrent race",
				"lease_id", params.LeaseID,
				"transition", params.Transition,
				"from", tc.Status,
			)
			conflict := domain.ConcurrentChange()
			return result.fail(CodeConcurrentModification, conflict), &domain.GuardError{
				Transition: params.Transition,
				Current:    tc.Status,
				Failures:   []domain.GuardFailure{conflict},
			}
		}
		return result.fail(CodeInternal), fmt.Errorf("committing transition %q: %w", params.Transition, err)
	}

	s.logger.InfoContext(ctx, "lease transitioned",
		"lease_id", params.LeaseID,
		"transition", params.Transition,
		"from", def.Src,
		"to", def.Dst,
		"actor_id", params.ActorID,
		"forced", len(overridden) > 0,
	)

	result.Success = true
	result.NewStatus = def.Dst
	result.Warnings = overridden
	return result, nil
}

func (s *LeaseService) record(params ExecuteParams, def domain.Transition, overridden []domain.GuardFailure) domain.TransitionRecord {
	at := s.now()

	var guards []domain.GuardName
	for _, f := range overridden {
		guards = append(guards, f.Guard)
	}

	events := make([]domain.Event, 0, len(def.Events))
	for _, name := range def.Events {
		events = append(events, domain.Event{
			ID:         generateID(),
			Name:       name,
			LeaseID:    params.LeaseID,
			Transition: def.Name,
			NewStatus:  def.Dst,
			ActorID:    params.ActorID,
			OccurredAt: at,
		})
	}

	return domain.TransitionRecord{
		LeaseID: params.LeaseID,
		From:    def.Src,
		To:      def.Dst,
		Audit: domain.AuditEntry{
			ID:               generateID(),
			LeaseID:          params.LeaseID,
			ActorID:          params.ActorID,
			Transition:       def.Name,
			From:             def.Src,
			To:               def.Dst,
			At:               at,
			OverriddenGuards: guards,
			Metadata:         params.Metadata,
		},
		Events: events,
	}
}
