package domain

// GuardName identifies a precondition in diagnostics and audit records.
type GuardName string

const (
	GuardOwnerSignerPresent     GuardName = "owner_signer_present"
	GuardTenantSignerPresent    GuardName = "tenant_signer_present"
	GuardMinTwoSigners          GuardName = "min_two_signers"
	GuardAllSignersSigned       GuardName = "all_signers_signed"
	GuardMoveInInspectionSigned GuardName = "move_in_inspection_signed"
	GuardStartDateReached       GuardName = "start_date_reached"
	GuardKeysHandedOver         GuardName = "keys_handed_over"
	GuardInsuranceValid         GuardName = "insurance_valid"

	// Structural checks performed by the executor rather than the table.
	GuardLeaseExists       GuardName = "lease_exists"
	GuardTransitionDefined GuardName = "transition_defined"
	GuardStatusUnchanged   GuardName = "status_unchanged"
)

// Severity says whether a forced execution may bypass a guard.
type Severity string

const (
	// SeverityHard guards can never be overridden.
	SeverityHard Severity = "hard"
	// SeveritySoft guards may be overridden by an authorized force.
	SeveritySoft Severity = "soft"
)

// Guard is a named precondition over a TransitionContext. Applies, when set,
// restricts the guard to the contexts it is relevant for.
type Guard struct {
	Name     GuardName
	Severity Severity
	Reason   string
	Holds    func(TransitionContext) bool
	Applies  func(TransitionContext) bool
}

func (g Guard) failure() GuardFailure {
	return GuardFailure{Guard: g.Name, Severity: g.Severity, Reason: g.Reason}
}

// GuardFailure reports a guard that did not hold.
type GuardFailure struct {
	Guard    GuardName
	Severity Severity
	Reason   string
}

// AllSoft reports whether every failure may be overridden.
func AllSoft(failures []GuardFailure) bool {
	for _, f := range failures {
		if f.Severity != SeveritySoft {
			return false
		}
	}
	return true
}

// activationRequirement lists the soft activation checks a contract type
// demands on top of the signed move-in inspection and reached start date.
type activationRequirement struct {
	keys      bool
	insurance bool
}

var activationRequirements = map[ContractType]activationRequirement{
	ContractUnfurnished: {insurance: true},
	ContractFurnished:   {},
	ContractShared:      {insurance: true},
	ContractMobility:    {},
	ContractSeasonal:    {},
	ContractCommercial:  {keys: true, insurance: true},
	ContractParking:     {keys: true},
}

// RequiresInsurance reports whether activation checks the insurance policy.
func (t ContractType) RequiresInsurance() bool {
	return activationRequirements[t].insurance
}

// RequiresKeyHandover reports whether activation checks the key handover.
func (t ContractType) RequiresKeyHandover() bool {
	return activationRequirements[t].keys
}

var (
	guardOwnerSigner = Guard{
		Name:     GuardOwnerSignerPresent,
		Severity: SeverityHard,
		Reason:   "no owner signer",
		Holds:    func(tc TransitionContext) bool { return tc.OwnerSignerExists },
	}
	guardTenantSigner = Guard{
		Name:     GuardTenantSignerPresent,
		Severity: SeverityHard,
		Reason:   "no tenant signer",
		Holds:    func(tc TransitionContext) bool { return tc.TenantSignerExists },
	}
	guardMinTwoSigners = Guard{
		Name:     GuardMinTwoSigners,
		Severity: SeverityHard,
		Reason:   "at least two signers required",
		Holds:    func(tc TransitionContext) bool { return tc.SignersCount >= 2 },
	}
	guardAllSigned = Guard{
		Name:     GuardAllSignersSigned,
		Severity: SeverityHard,
		Reason:   "not all signers signed",
		Holds:    func(tc TransitionContext) bool { return tc.AllSignersSigned },
	}
	guardMoveInSigned = Guard{
		Name:     GuardMoveInInspectionSigned,
		Severity: SeverityHard,
		Reason:   "EDL entrée not signed",
		Holds:    func(tc TransitionContext) bool { return tc.MoveInInspectionSigned },
	}
	guardStartDateReached = Guard{
		Name:     GuardStartDateReached,
		Severity: SeverityHard,
		Reason:   "lease start date not reached",
		Holds:    func(tc TransitionContext) bool { return tc.StartDateReached },
	}
	guardKeysHandedOver = Guard{
		Name:     GuardKeysHandedOver,
		Severity: SeveritySoft,
		Reason:   "keys not handed over",
		Holds:    func(tc TransitionContext) bool { return tc.KeysHandedOver },
		Applies:  func(tc TransitionContext) bool { return tc.ContractType.RequiresKeyHandover() },
	}
	guardInsuranceValid = Guard{
		Name:     GuardInsuranceValid,
		Severity: SeveritySoft,
		Reason:   "insurance not valid",
		Holds:    func(tc TransitionContext) bool { return tc.InsuranceValid },
		Applies:  func(tc TransitionContext) bool { return tc.ContractType.RequiresInsurance() },
	}
)
