package domain

// TransitionName identifies an action that moves a lease between states.
type TransitionName string

const (
	TransitionInitiateSignature TransitionName = "INITIATE_SIGNATURE"
	TransitionMarkFullySigned   TransitionName = "MARK_FULLY_SIGNED"
	TransitionActivate          TransitionName = "ACTIVATE"
	TransitionGiveNotice        TransitionName = "GIVE_NOTICE"
	TransitionTerminate         TransitionName = "TERMINATE"
	TransitionArchive           TransitionName = "ARCHIVE"
	TransitionCancel            TransitionName = "CANCEL"
)

// TransitionNames lists every transition name.
var TransitionNames = []TransitionName{
	TransitionInitiateSignature,
	TransitionMarkFullySigned,
	TransitionActivate,
	TransitionGiveNotice,
	TransitionTerminate,
	TransitionArchive,
	TransitionCancel,
}

// Transition defines a legal state change: Name moves a lease from Src to Dst
// once every applicable guard holds. Events are emitted when it commits.
type Transition struct {
	Name   TransitionName
	Src    Status
	Dst    Status
	Guards []Guard
	Events []EventName
}

// Evaluate returns the guards that do not hold for tc, in declaration order.
// An empty result means the transition is legal.
func (t Transition) Evaluate(tc TransitionContext) []GuardFailure {
	var failures []GuardFailure
	for _, g := range t.Guards {
		if g.Applies != nil && !g.Applies(tc) {
			continue
		}
		if !g.Holds(tc) {
			failures = append(failures, g.failure())
		}
	}
	return failures
}

// Transitions is the complete lease lifecycle. A (Src, Name) pair absent from
// this table is illegal regardless of context. archived and cancelled have no
// outgoing rows.
var Transitions = []Transition{
	{
		Name:   TransitionInitiateSignature,
		Src:    StatusDraft,
		Dst:    StatusPendingSignature,
		Guards: []Guard{guardOwnerSigner, guardTenantSigner, guardMinTwoSigners},
		Events: []EventName{EventSignatureRequested},
	},
	{
		Name:   TransitionMarkFullySigned,
		Src:    StatusPendingSignature,
		Dst:    StatusFullySigned,
		Guards: []Guard{guardAllSigned},
		Events: []EventName{EventFullySigned},
	},
	{
		Name:   TransitionActivate,
		Src:    StatusFullySigned,
		Dst:    StatusActive,
		Guards: []Guard{guardMoveInSigned, guardStartDateReached, guardKeysHandedOver, guardInsuranceValid},
		Events: []EventName{EventActivated, EventRentScheduleRequested},
	},
	{
		Name:   TransitionGiveNotice,
		Src:    StatusActive,
		Dst:    StatusNoticeGiven,
		Events: []EventName{EventNoticeGiven},
	},
	{
		Name:   TransitionTerminate,
		Src:    StatusNoticeGiven,
		Dst:    StatusTerminated,
		Guards: []Guard{guardStartDateReached},
		Events: []EventName{EventTerminated, EventDepositSettlementRequested},
	},
	{
		Name:   TransitionTerminate,
		Src:    StatusActive,
		Dst:    StatusTerminated,
		Guards: []Guard{guardStartDateReached},
		Events: []EventName{EventTerminated, EventDepositSettlementRequested},
	},
	{Name: TransitionArchive, Src: StatusTerminated, Dst: StatusArchived, Events: []EventName{EventArchived}},
	{Name: TransitionCancel, Src: StatusDraft, Dst: StatusCancelled, Events: []EventName{EventCancelled}},
	{Name: TransitionCancel, Src: StatusSent, Dst: StatusCancelled, Events: []EventName{EventCancelled}},
	{Name: TransitionCancel, Src: StatusPendingSignature, Dst: StatusCancelled, Events: []EventName{EventCancelled}},
}

// TransitionFor returns the table row for name from src.
func TransitionFor(src Status, name TransitionName) (Transition, bool) {
	for _, t := range Transitions {
		if t.Src == src && t.Name == name {
			return t, true
		}
	}
	return Transition{}, false
}

// Availability describes whether a transition defined for the current state
// could be executed now.
type Availability struct {
	Name     TransitionName
	To       Status
	Legal    bool
	Failures []GuardFailure
	// Overridable is set when the transition is illegal only because of soft
	// guards, so a forced execution would succeed.
	Overridable bool
}

// AvailableTransitions evaluates every transition defined for tc.Status, in
// table order. Illegal transitions are reported with their failed guards,
// never omitted.
func AvailableTransitions(tc TransitionContext) []Availability {
	out := make([]Availability, 0)
	for _, t := range Transitions {
		if t.Src != tc.Status {
			continue
		}
		failures := t.Evaluate(tc)
		out = append(out, Availability{
			Name:        t.Name,
			To:          t.Dst,
			Legal:       len(failures) == 0,
			Failures:    failures,
			Overridable: len(failures) > 0 && AllSoft(failures),
		})
	}
	return out
}
