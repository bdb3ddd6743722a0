package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

func (r *LeaseRepository) ListSigners(ctx context.Context, leaseID string) ([]domain.Signer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lease_id, role, signature_status, profile_id, signed_at
		 FROM lease_signers WHERE lease_id = ? ORDER BY rowid`, leaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing signers: %w", err)
	}
	defer rows.Close()

	var signers []domain.Signer
	for rows.Next() {
		var (
			s                   domain.Signer
			role, status        string
			profileID, signedAt sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.LeaseID, &role, &status, &profileID, &signedAt); err != nil {
			return nil, fmt.Errorf("scanning signer row: %w", err)
		}
		s.Role = domain.SignerRole(role)
		s.SignatureStatus = domain.SignatureStatus(status)
		if profileID.Valid {
			s.ProfileID = &profileID.String
		}
		s.SignedAt = parseOptional(timeFormat, signedAt)
		signers = append(signers, s)
	}

	return signers, rows.Err()
}

func (r *LeaseRepository) AddSigner(ctx context.Context, s domain.Signer) error {
	var profileID sql.NullString
	if s.ProfileID != nil {
		profileID = sql.NullString{String: *s.ProfileID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lease_signers (id, lease_id, role, signature_status, profile_id, signed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.LeaseID, string(s.Role), string(s.SignatureStatus), profileID, formatOptionalTime(s.SignedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrLeaseNotFound
		}
		return fmt.Errorf("inserting signer: %w", err)
	}
	return nil
}

func (r *LeaseRepository) MarkSigned(ctx context.Context, leaseID, signerID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE lease_signers SET signature_status = ?, signed_at = ?
		 WHERE id = ? AND lease_id = ?`,
		string(domain.SignatureSigned), at.UTC().Format(timeFormat), signerID, leaseID,
	)
	if err != nil {
		return fmt.Errorf("updating signer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSignerNotFound
	}

	return nil
}

func (r *LeaseRepository) GetInspection(ctx context.Context, leaseID string, kind domain.InspectionType) (*domain.Inspection, error) {
	var (
		i              domain.Inspection
		inspectionType string
		signedAt       sql.NullString
		createdAt      string
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, lease_id, type, signed_at, created_at
		 FROM lease_inspections WHERE lease_id = ? AND type = ?`, leaseID, string(kind),
	).Scan(&i.ID, &i.LeaseID, &inspectionType, &signedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning inspection: %w", err)
	}

	i.Type = domain.InspectionType(inspectionType)
	i.SignedAt = parseOptional(timeFormat, signedAt)
	i.CreatedAt, _ = time.Parse(timeFormat, createdAt)

	return &i, nil
}

// SaveInspection stores the report of its type for the lease, replacing any
// earlier one.
func (r *LeaseRepository) SaveInspection(ctx context.Context, i domain.Inspection) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lease_inspections (id, lease_id, type, signed_at, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (lease_id, type) DO UPDATE SET
		   id = excluded.id, signed_at = excluded.signed_at, created_at = excluded.created_at`,
		i.ID, i.LeaseID, string(i.Type), formatOptionalTime(i.SignedAt), i.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrLeaseNotFound
		}
		return fmt.Errorf("saving inspection: %w", err)
	}
	return nil
}

func (r *LeaseRepository) GetInsurance(ctx context.Context, leaseID string) (*domain.InsurancePolicy, error) {
	var (
		p          domain.InsurancePolicy
		validUntil string
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, lease_id, insurer, policy_number, valid_until
		 FROM lease_insurance WHERE lease_id = ?`, leaseID,
	).Scan(&p.ID, &p.LeaseID, &p.Insurer, &p.PolicyNumber, &validUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning insurance: %w", err)
	}

	p.ValidUntil, _ = time.Parse(dateFormat, validUntil)
	return &p, nil
}

func (r *LeaseRepository) SaveInsurance(ctx context.Context, p domain.InsurancePolicy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lease_insurance (lease_id, id, insurer, policy_number, valid_until)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (lease_id) DO UPDATE SET
		   id = excluded.id, insurer = excluded.insurer,
		   policy_number = excluded.policy_number, valid_until = excluded.valid_until`,
		p.LeaseID, p.ID, p.Insurer, p.PolicyNumber, p.ValidUntil.UTC().Format(dateFormat),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrLeaseNotFound
		}
		return fmt.Errorf("saving insurance: %w", err)
	}
	return nil
}

func (r *LeaseRepository) GetNotice(ctx context.Context, leaseID string) (*domain.Notice, error) {
	var (
		n                      domain.Notice
		givenBy                string
		givenAt, effectiveDate string
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, lease_id, given_by, given_at, effective_date
		 FROM lease_notices WHERE lease_id = ?`, leaseID,
	).Scan(&n.ID, &n.LeaseID, &givenBy, &givenAt, &effectiveDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning notice: %w", err)
	}

	n.GivenBy = domain.SignerRole(givenBy)
	n.GivenAt, _ = time.Parse(timeFormat, givenAt)
	n.EffectiveDate, _ = time.Parse(dateFormat, effectiveDate)
	return &n, nil
}

func (r *LeaseRepository) SaveNotice(ctx context.Context, n domain.Notice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lease_notices (lease_id, id, given_by, given_at, effective_date)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (lease_id) DO UPDATE SET
		   id = excluded.id, given_by = excluded.given_by,
		   given_at = excluded.given_at, effective_date = excluded.effective_date`,
		n.LeaseID, n.ID, string(n.GivenBy), n.GivenAt.UTC().Format(timeFormat), n.EffectiveDate.UTC().Format(dateFormat),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrLeaseNotFound
		}
		return fmt.Errorf("saving notice: %w", err)
	}
	return nil
}

func (r *LeaseRepository) SetKeysHandedOver(ctx context.Context, leaseID string, handedOver bool, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leases SET keys_handed_over = ?, updated_at = ? WHERE id = ?`,
		handedOver, at.UTC().Format(timeFormat), leaseID,
	)
	if err != nil {
		return fmt.Errorf("updating key handover: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrLeaseNotFound
	}

	return nil
}
