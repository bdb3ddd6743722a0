package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// AddSigner registers a party who must sign the lease.
func (s *LeaseService) AddSigner(ctx context.Context, leaseID string, role domain.SignerRole, profileID *string) (domain.Signer, error) {
	if !role.Valid() {
		return domain.Signer{}, &domain.ValidationError{Field: "role", Message: fmt.Sprintf("unknown signer role %q", role)}
	}
	if _, err := s.repo.GetByID(ctx, leaseID); err != nil {
		return domain.Signer{}, err
	}

	signer := domain.Signer{
		ID:              generateID(),
		LeaseID:         leaseID,
		Role:            role,
		SignatureStatus: domain.SignaturePending,
		ProfileID:       profileID,
	}
	if err := s.facts.AddSigner(ctx, signer); err != nil {
		return domain.Signer{}, fmt.Errorf("adding signer: %w", err)
	}
	return signer, nil
}

// RecordSignature marks a signer as having signed.
func (s *LeaseService) RecordSignature(ctx context.Context, leaseID, signerID string) error {
	if err := s.facts.MarkSigned(ctx, leaseID, signerID, s.now()); err != nil {
		return fmt.Errorf("recording signature: %w", err)
	}
	return nil
}

// RecordMoveInInspection stores the move-in condition report, signed or not.
func (s *LeaseService) RecordMoveInInspection(ctx context.Context, leaseID string, signed bool) (domain.Inspection, error) {
	if _, err := s.repo.GetByID(ctx, leaseID); err != nil {
		return domain.Inspection{}, err
	}

	now := s.now()
	inspection := domain.Inspection{
		ID:        generateID(),
		LeaseID:   leaseID,
		Type:      domain.InspectionMoveIn,
		CreatedAt: now,
	}
	if signed {
		inspection.SignedAt = &now
	}

	if err := s.facts.SaveInspection(ctx, inspection); err != nil {
		return domain.Inspection{}, fmt.Errorf("saving inspection: %w", err)
	}
	return inspection, nil
}

// RecordInsurance stores the tenant's insurance certificate.
func (s *LeaseService) RecordInsurance(ctx context.Context, leaseID, insurer, policyNumber string, validUntil time.Time) (domain.InsurancePolicy, error) {
	if validUntil.IsZero() {
		return domain.InsurancePolicy{}, &domain.ValidationError{Field: "valid_until", Message: "must be set"}
	}
	if _, err := s.repo.GetByID(ctx, leaseID); err != nil {
		return domain.InsurancePolicy{}, err
	}

	policy := domain.InsurancePolicy{
		ID:           generateID(),
		LeaseID:      leaseID,
		Insurer:      insurer,
		PolicyNumber: policyNumber,
		ValidUntil:   validUntil,
	}
	if err := s.facts.SaveInsurance(ctx, policy); err != nil {
		return domain.InsurancePolicy{}, fmt.Errorf("saving insurance: %w", err)
	}
	return policy, nil
}

// RecordNotice files a congé for the lease. Filing a notice does not change
// the lease status; GIVE_NOTICE does.
func (s *LeaseService) RecordNotice(ctx context.Context, leaseID string, givenBy domain.SignerRole, effectiveDate time.Time) (domain.Notice, error) {
	if !givenBy.Valid() {
		return domain.Notice{}, &domain.ValidationError{Field: "given_by", Message: fmt.Sprintf("unknown signer role %q", givenBy)}
	}
	if _, err := s.repo.GetByID(ctx, leaseID); err != nil {
		return domain.Notice{}, err
	}

	notice := domain.Notice{
		ID:            generateID(),
		LeaseID:       leaseID,
		GivenBy:       givenBy,
		GivenAt:       s.now(),
		EffectiveDate: effectiveDate,
	}
	if err := s.facts.SaveNotice(ctx, notice); err != nil {
		return domain.Notice{}, fmt.Errorf("saving notice: %w", err)
	}
	return notice, nil
}

// RecordKeyHandover flags that the tenant received the keys.
func (s *LeaseService) RecordKeyHandover(ctx context.Context, leaseID string) error {
	if err := s.facts.SetKeysHandedOver(ctx, leaseID, true, s.now()); err != nil {
		return fmt.Errorf("recording key handover: %w", err)
	}
	return nil
}
