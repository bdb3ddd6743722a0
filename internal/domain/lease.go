package domain

import "time"

// Status represents the lifecycle state of a lease.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSent             Status = "sent"
	StatusPendingSignature Status = "pending_signature"
	StatusFullySigned      Status = "fully_signed"
	StatusActive           Status = "active"
	StatusNoticeGiven      Status = "notice_given"
	StatusTerminated       Status = "terminated"
	StatusArchived         Status = "archived"
	StatusCancelled        Status = "cancelled"
)

// Statuses lists every lease status in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusSent,
	StatusPendingSignature,
	StatusFullySigned,
	StatusActive,
	StatusNoticeGiven,
	StatusTerminated,
	StatusArchived,
	StatusCancelled,
}

// IsTerminal reports whether no transition may leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusArchived || s == StatusCancelled
}

// ContractType is the legal category of a lease.
type ContractType string

const (
	ContractUnfurnished ContractType = "nu"
	ContractFurnished   ContractType = "meuble"
	ContractShared      ContractType = "colocation"
	ContractMobility    ContractType = "mobilite"
	ContractSeasonal    ContractType = "saisonnier"
	ContractCommercial  ContractType = "commercial"
	ContractParking     ContractType = "parking"
)

// Valid reports whether t is a known contract type.
func (t ContractType) Valid() bool {
	_, ok := activationRequirements[t]
	return ok
}

// Lease is the rental contract whose lifecycle the state machine governs.
type Lease struct {
	ID             string
	PropertyID     string
	ContractType   ContractType
	Status         Status
	StartDate      time.Time
	EndDate        *time.Time
	KeysHandedOver bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewLease creates a lease in the initial "draft" state.
func NewLease(id, propertyID string, contractType ContractType, startDate time.Time, endDate *time.Time) Lease {
	now := time.Now().UTC()
	return Lease{
		ID:           id,
		PropertyID:   propertyID,
		ContractType: contractType,
		Status:       StatusDraft,
		StartDate:    truncateToDay(startDate),
		EndDate:      endDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SignerRole is the capacity in which a party signs a lease.
type SignerRole string

const (
	RoleOwner         SignerRole = "owner"
	RolePrimaryTenant SignerRole = "primary_tenant"
	RoleCoTenant      SignerRole = "co_tenant"
	RoleGuarantor     SignerRole = "guarantor"
)

// Valid reports whether r is a known signer role.
func (r SignerRole) Valid() bool {
	switch r {
	case RoleOwner, RolePrimaryTenant, RoleCoTenant, RoleGuarantor:
		return true
	}
	return false
}

// IsTenant reports whether the role occupies the property.
func (r SignerRole) IsTenant() bool {
	return r == RolePrimaryTenant || r == RoleCoTenant
}

// SignatureStatus tracks whether a signer has signed.
type SignatureStatus string

const (
	SignaturePending SignatureStatus = "pending"
	SignatureSigned  SignatureStatus = "signed"
)

// Signer is a party who must sign the lease. ProfileID stays nil until the
// party links an account.
type Signer struct {
	ID              string
	LeaseID         string
	Role            SignerRole
	SignatureStatus SignatureStatus
	ProfileID       *string
	SignedAt        *time.Time
}

// InspectionType distinguishes move-in from move-out condition reports.
type InspectionType string

const (
	InspectionMoveIn  InspectionType = "entree"
	InspectionMoveOut InspectionType = "sortie"
)

// Inspection is a condition report (état des lieux) tied to a lease.
type Inspection struct {
	ID        string
	LeaseID   string
	Type      InspectionType
	SignedAt  *time.Time
	CreatedAt time.Time
}

// Signed reports whether all parties signed the report.
func (i Inspection) Signed() bool {
	return i.SignedAt != nil
}

// InsurancePolicy is the tenant's home insurance certificate.
type InsurancePolicy struct {
	ID           string
	LeaseID      string
	Insurer      string
	PolicyNumber string
	ValidUntil   time.Time
}

// ValidOn reports whether the policy still covers the given day.
func (p InsurancePolicy) ValidOn(day time.Time) bool {
	return !truncateToDay(day).After(truncateToDay(p.ValidUntil))
}

// Notice (congé) records that a party gave notice to end the lease.
type Notice struct {
	ID            string
	LeaseID       string
	GivenBy       SignerRole
	GivenAt       time.Time
	EffectiveDate time.Time
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
