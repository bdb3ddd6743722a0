package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// ContextBuilder assembles a fresh domain.TransitionContext from the store.
type ContextBuilder struct {
	leases domain.LeaseRepository
	facts  domain.LeaseFactsReader
	now    func() time.Time
}

// NewContextBuilder creates a builder reading from the given ports. now
// supplies the reference date for start-date and insurance checks.
func NewContextBuilder(leases domain.LeaseRepository, facts domain.LeaseFactsReader, now func() time.Time) *ContextBuilder {
	return &ContextBuilder{leases: leases, facts: facts, now: now}
}

// Build returns the transition context of a lease, or domain.ErrLeaseNotFound.
// The sub-record reads are independent and run concurrently.
func (b *ContextBuilder) Build(ctx context.Context, leaseID string) (domain.TransitionContext, error) {
	lease, err := b.leases.GetByID(ctx, leaseID)
	if err != nil {
		return domain.TransitionContext{}, err
	}

	var (
		signers   []domain.Signer
		moveIn    *domain.Inspection
		insurance *domain.InsurancePolicy
		notice    *domain.Notice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if signers, err = b.facts.ListSigners(gctx, leaseID); err != nil {
			return fmt.Errorf("listing signers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if moveIn, err = b.facts.GetInspection(gctx, leaseID, domain.InspectionMoveIn); err != nil {
			return fmt.Errorf("reading move-in inspection: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if insurance, err = b.facts.GetInsurance(gctx, leaseID); err != nil {
			return fmt.Errorf("reading insurance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if notice, err = b.facts.GetNotice(gctx, leaseID); err != nil {
			return fmt.Errorf("reading notice: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.TransitionContext{}, err
	}

	return domain.NewTransitionContext(lease, signers, moveIn, insurance, notice, b.now()), nil
}
