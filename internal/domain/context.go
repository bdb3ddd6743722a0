package domain

import "time"

// TransitionContext is the snapshot of facts guards are evaluated against.
// It is rebuilt from the store on every evaluation and never persisted.
type TransitionContext struct {
	LeaseID      string
	Status       Status
	ContractType ContractType

	SignersCount       int
	OwnerSignerExists  bool
	TenantSignerExists bool
	AllSignersSigned   bool

	MoveInInspectionExists bool
	MoveInInspectionSigned bool

	KeysHandedOver   bool
	InsuranceValid   bool
	StartDateReached bool
	NoticeExists     bool
}

// NewTransitionContext derives the guard inputs for a lease. moveIn, insurance
// and notice are nil when the lease has no such record. Dates are compared at
// day granularity in UTC.
func NewTransitionContext(
	lease Lease,
	signers []Signer,
	moveIn *Inspection,
	insurance *InsurancePolicy,
	notice *Notice,
	now time.Time,
) TransitionContext {
	today := truncateToDay(now)

	tc := TransitionContext{
		LeaseID:          lease.ID,
		Status:           lease.Status,
		ContractType:     lease.ContractType,
		SignersCount:     len(signers),
		AllSignersSigned: len(signers) > 0,
		KeysHandedOver:   lease.KeysHandedOver,
		StartDateReached: !today.Before(truncateToDay(lease.StartDate)),
		NoticeExists:     notice != nil,
	}

	for _, s := range signers {
		if s.Role == RoleOwner {
			tc.OwnerSignerExists = true
		}
		if s.Role.IsTenant() {
			tc.TenantSignerExists = true
		}
		if s.SignatureStatus != SignatureSigned {
			tc.AllSignersSigned = false
		}
	}

	if moveIn != nil {
		tc.MoveInInspectionExists = true
		tc.MoveInInspectionSigned = moveIn.Signed()
	}

	if insurance != nil {
		tc.InsuranceValid = insurance.ValidOn(today)
	}

	return tc
}
