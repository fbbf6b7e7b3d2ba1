package db

import "time"

// DDS assignment statuses
const (
	DdsStatusPending     = "pending"
	DdsStatusActive      = "active"
	DdsStatusTransferred = "transferred"
	DdsStatusReleased    = "released"
)

// Ledger actions
const (
	ActionAssigned    = "assigned"
	ActionAccepted    = "accepted"
	ActionTransferred = "transferred"
	ActionReleased    = "released"
)

// Actor types for ledger entries
const (
	ActorAdmin  = "admin"
	ActorMember = "member"
	ActorSystem = "system"
)

// Alert types and severities
const (
	AlertTypeLockupReminder    = "lockup_reminder"
	AlertTypeLockupNotExecuted = "lockup_not_executed"

	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"

	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
)

// Building statuses
const (
	BuildingSecured   = "secured"
	BuildingUnsecured = "unsecured"
)

// TagLockup is the singleton tag tracking building-securing authority.
// DDS transitions are recorded in the ledger under LedgerTagDds.
const (
	TagLockup    = "Lockup"
	LedgerTagDds = "DDS"
)

// Member is the read-only view of a unit member referenced by duty records
type Member struct {
	ID        string
	FirstName string
	LastName  string
	Rank      string
}

// DisplayName is the "<rank> <first> <last>" form used in alert messages
func (m Member) DisplayName() string {
	return m.Rank + " " + m.FirstName + " " + m.LastName
}

// Holder is the member currently holding a singleton responsibility tag
type Holder struct {
	Member
	HeldSince time.Time
}

// TagTransferResult is the outcome of a completed tag transfer.
// PreviousHolder equals NewHolder for idempotent same-member transfers.
// RemovedHoldings above one indicates healed data drift.
type TagTransferResult struct {
	PreviousHolder  *Holder
	NewHolder       *Holder
	RemovedHoldings int
	LedgerWritten   bool
}

// DdsAssignment is one operational day's Daily Duty Staff responsibility.
// AssignedDate is an operational date in "2006-01-02" form, not a
// wall-clock date. Terminal rows (transferred/released) are never deleted.
type DdsAssignment struct {
	ID            string
	MemberID      string
	AssignedDate  string
	AcceptedAt    *time.Time
	ReleasedAt    *time.Time
	TransferredTo *string
	AssignedBy    *string
	Status        string
	Notes         string
	CreatedAt     time.Time

	Member *Member
}

// Live reports whether the assignment still carries the responsibility
func (a DdsAssignment) Live() bool {
	return a.Status == DdsStatusPending || a.Status == DdsStatusActive
}

// AuditEntry is one append-only responsibility ledger row
type AuditEntry struct {
	ID              string
	MemberID        string
	TagName         string
	Action          string
	FromMemberID    *string
	ToMemberID      *string
	PerformedBy     *string
	PerformedByType string
	Timestamp       time.Time
	Notes           string
}

// AuditFilter narrows audit log reads. MemberID matches the subject,
// transfer source, or transfer target of an entry.
type AuditFilter struct {
	MemberID string
	TagName  string
	Limit    int
}

// Alert is a persisted escalation or security alert
type Alert struct {
	ID             string
	Type           string
	Severity       string
	Title          string
	Message        string
	Data           map[string]any
	Status         string
	CreatedAt      time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy *string
	AckNote        string
}

// BuildingStatus is the per-operational-date security state of the building
type BuildingStatus struct {
	OperationalDate string
	Status          string
	SecuredBy       *string
	SecuredAt       *time.Time
}

// PresenceStats counts who is currently inside the building
type PresenceStats struct {
	PresentMembers  int
	PresentVisitors int
}

// BuildingSnapshot is the read-only view the escalation job consumes.
// Recomputed on demand, never persisted.
type BuildingSnapshot struct {
	OperationalDate string
	BuildingStatus  string
	LockupHolder    *Holder
	Presence        PresenceStats
}

// Secured reports whether the building has been locked up for the date
func (s BuildingSnapshot) Secured() bool {
	return s.BuildingStatus == BuildingSecured
}
