package domain

import "time"

// EventName identifies a domain event published when a transition commits.
type EventName string

const (
	EventSignatureRequested         EventName = "lease.signature_requested"
	EventFullySigned                EventName = "lease.fully_signed"
	EventActivated                  EventName = "lease.activated"
	EventRentScheduleRequested      EventName = "invoicing.rent_schedule_requested"
	EventNoticeGiven                EventName = "lease.notice_given"
	EventTerminated                 EventName = "lease.terminated"
	EventDepositSettlementRequested EventName = "accounting.deposit_settlement_requested"
	EventArchived                   EventName = "lease.archived"
	EventCancelled                  EventName = "lease.cancelled"
)

// Event is the payload handed to the outbox for asynchronous consumers
// (notifications, accounting).
type Event struct {
	ID         string
	Name       EventName
	LeaseID    string
	Transition TransitionName
	NewStatus  Status
	ActorID    string
	OccurredAt time.Time
}

// AuditEntry records who moved a lease between which states, and which soft
// guards were overridden to do so.
type AuditEntry struct {
	ID               string
	LeaseID          string
	ActorID          string
	Transition       TransitionName
	From             Status
	To               Status
	At               time.Time
	OverriddenGuards []GuardName
	Metadata         map[string]string
}

// TransitionRecord is everything a committer persists for one executed
// transition: the conditional status change, its audit entry and its events.
type TransitionRecord struct {
	LeaseID string
	From    Status
	To      Status
	Audit   AuditEntry
	Events  []Event
}
