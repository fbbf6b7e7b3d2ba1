package db

import (
	"context"
	"time"
)

// TagTransferParams describes an atomic holder replacement for a singleton tag
type TagTransferParams struct {
	TagName         string
	ToMemberID      string
	PerformedBy     *string
	PerformedByType string
	Notes           string
}

// TagAcquireParams originates a holding for a tag that has no holder
type TagAcquireParams struct {
	TagName         string
	MemberID        string
	PerformedBy     *string
	PerformedByType string
	Notes           string
}

// CreateDdsParams creates a new DDS assignment row together with its
// ledger entry. Status must be pending (admin assignment) or active
// (self-accept); LedgerAction names the transition being recorded.
type CreateDdsParams struct {
	MemberID        string
	AssignedDate    string
	Status          string
	AcceptedAt      *time.Time
	AssignedBy      *string
	Notes           string
	LedgerAction    string
	PerformedBy     *string
	PerformedByType string
}

// TransferDdsParams moves the active assignment for a date to another member
type TransferDdsParams struct {
	AssignedDate    string
	ToMemberID      string
	PerformedBy     *string
	PerformedByType string
	Notes           string
}

// ReleaseDdsParams ends the active assignment for a date with no successor
type ReleaseDdsParams struct {
	AssignedDate    string
	PerformedBy     *string
	PerformedByType string
	Notes           string
}

// MemberStore reads member summaries
type MemberStore interface {
	GetMember(ctx context.Context, memberID string) (*Member, error)
}

// TagStore manages singleton responsibility tags. Transfer and acquire
// run the holding change and its ledger append in one transaction.
type TagStore interface {
	GetTagHolder(ctx context.Context, tagName string) (*Holder, error)
	TransferTagHolder(ctx context.Context, p TagTransferParams) (*TagTransferResult, error)
	AcquireTagHolder(ctx context.Context, p TagAcquireParams) (*Holder, error)
}

// DdsStore manages Daily Duty Staff assignments. Mutating methods
// execute the state transition and its ledger append in a single
// transaction; partial application is never observable.
type DdsStore interface {
	GetLiveDdsAssignment(ctx context.Context, assignedDate string) (*DdsAssignment, error)
	GetDdsAssignment(ctx context.Context, assignmentID string) (*DdsAssignment, error)
	CreateDdsAssignment(ctx context.Context, p CreateDdsParams) (*DdsAssignment, error)
	AcceptDdsAssignment(ctx context.Context, assignmentID string, acceptedAt time.Time) (*DdsAssignment, error)
	TransferDdsAssignment(ctx context.Context, p TransferDdsParams) (*DdsAssignment, error)
	ReleaseDdsAssignment(ctx context.Context, p ReleaseDdsParams) (*DdsAssignment, error)
}

// AuditStore reads the append-only responsibility ledger
type AuditStore interface {
	ListAuditEntries(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// AlertStore persists and acknowledges escalation alerts
type AlertStore interface {
	InsertAlert(ctx context.Context, alert *Alert) (*Alert, error)
	ListActiveAlerts(ctx context.Context) ([]Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID, acknowledgedBy, note string) (*Alert, error)
}

// BuildingStore tracks per-date building security and current presence
type BuildingStore interface {
	GetBuildingStatus(ctx context.Context, operationalDate string) (*BuildingStatus, error)
	SecureBuilding(ctx context.Context, operationalDate, securedBy, notes string) (*BuildingStatus, error)
	GetPresenceStats(ctx context.Context) (PresenceStats, error)
	IsMemberPresent(ctx context.Context, memberID string) (bool, error)
}

// SelfAcceptStore combines assignment creation with the tag operations
// needed for the lockup auto-transfer on self-accept
type SelfAcceptStore interface {
	DdsStore
	TagStore
}

// CurrentDdsStore is the read surface for the current-duty view
type CurrentDdsStore interface {
	GetLiveDdsAssignment(ctx context.Context, assignedDate string) (*DdsAssignment, error)
	IsMemberPresent(ctx context.Context, memberID string) (bool, error)
}

// SnapshotStore is what the escalation job needs to assemble a
// building snapshot
type SnapshotStore interface {
	GetTagHolder(ctx context.Context, tagName string) (*Holder, error)
	GetBuildingStatus(ctx context.Context, operationalDate string) (*BuildingStatus, error)
	GetPresenceStats(ctx context.Context) (PresenceStats, error)
}

// Database is the full store surface. postgres.DB implements it.
type Database interface {
	MemberStore
	TagStore
	DdsStore
	AuditStore
	AlertStore
	BuildingStore
}
