package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// mockTagStore is an in-memory db.TagStore mirroring the store's
// transfer semantics: nil result on no holder, idempotent same-member
// transfers, full holding-set replacement otherwise
type mockTagStore struct {
	holders map[string]*db.Holder
	members map[string]*db.Member
	ledger  []db.AuditEntry

	// drift simulates extra holdings healed by the next transfer
	drift       int
	transferErr error
}

func newMockTagStore(members ...*db.Member) *mockTagStore {
	m := &mockTagStore{
		holders: make(map[string]*db.Holder),
		members: make(map[string]*db.Member),
	}
	for _, member := range members {
		m.members[member.ID] = member
	}
	return m
}

func (m *mockTagStore) GetTagHolder(_ context.Context, tagName string) (*db.Holder, error) {
	return m.holders[tagName], nil
}

func (m *mockTagStore) TransferTagHolder(_ context.Context, p db.TagTransferParams) (*db.TagTransferResult, error) {
	if m.transferErr != nil {
		return nil, m.transferErr
	}

	current := m.holders[p.TagName]
	if current == nil {
		return nil, nil
	}
	if current.ID == p.ToMemberID {
		return &db.TagTransferResult{PreviousHolder: current, NewHolder: current}, nil
	}

	target, ok := m.members[p.ToMemberID]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", p.ToMemberID, db.ErrNotFound)
	}

	removed := 1 + m.drift
	m.drift = 0

	newHolder := &db.Holder{Member: *target, HeldSince: time.Now()}
	m.holders[p.TagName] = newHolder
	m.ledger = append(m.ledger, db.AuditEntry{
		MemberID:        p.ToMemberID,
		TagName:         p.TagName,
		Action:          db.ActionTransferred,
		FromMemberID:    &current.ID,
		ToMemberID:      &p.ToMemberID,
		PerformedBy:     p.PerformedBy,
		PerformedByType: p.PerformedByType,
	})

	return &db.TagTransferResult{
		PreviousHolder:  current,
		NewHolder:       newHolder,
		RemovedHoldings: removed,
		LedgerWritten:   true,
	}, nil
}

func (m *mockTagStore) AcquireTagHolder(_ context.Context, p db.TagAcquireParams) (*db.Holder, error) {
	if current := m.holders[p.TagName]; current != nil {
		return nil, fmt.Errorf("tag %s already held: %w", p.TagName, db.ErrConflict)
	}
	member, ok := m.members[p.MemberID]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", p.MemberID, db.ErrNotFound)
	}

	holder := &db.Holder{Member: *member, HeldSince: time.Now()}
	m.holders[p.TagName] = holder
	m.ledger = append(m.ledger, db.AuditEntry{
		MemberID:        p.MemberID,
		TagName:         p.TagName,
		Action:          db.ActionAssigned,
		ToMemberID:      &p.MemberID,
		PerformedBy:     p.PerformedBy,
		PerformedByType: p.PerformedByType,
	})
	return holder, nil
}

// mockDdsStore is an in-memory db.DdsStore enforcing the one-live-row
// invariant the partial unique index provides in PostgreSQL
type mockDdsStore struct {
	live    map[string]*db.DdsAssignment
	byID    map[string]*db.DdsAssignment
	members map[string]*db.Member
	ledger  []db.AuditEntry
	present map[string]bool

	nextID int
}

func newMockDdsStore(members ...*db.Member) *mockDdsStore {
	m := &mockDdsStore{
		live:    make(map[string]*db.DdsAssignment),
		byID:    make(map[string]*db.DdsAssignment),
		members: make(map[string]*db.Member),
		present: make(map[string]bool),
	}
	for _, member := range members {
		m.members[member.ID] = member
	}
	return m
}

func (m *mockDdsStore) newID() string {
	m.nextID++
	return fmt.Sprintf("assignment-%d", m.nextID)
}

func (m *mockDdsStore) GetLiveDdsAssignment(_ context.Context, assignedDate string) (*db.DdsAssignment, error) {
	return m.live[assignedDate], nil
}

func (m *mockDdsStore) GetDdsAssignment(_ context.Context, assignmentID string) (*db.DdsAssignment, error) {
	a, ok := m.byID[assignmentID]
	if !ok {
		return nil, fmt.Errorf("DDS assignment %s: %w", assignmentID, db.ErrNotFound)
	}
	return a, nil
}

func (m *mockDdsStore) CreateDdsAssignment(_ context.Context, p db.CreateDdsParams) (*db.DdsAssignment, error) {
	if m.live[p.AssignedDate] != nil {
		return nil, fmt.Errorf("%w: dds_assignments_live_per_date", db.ErrConflict)
	}
	member, ok := m.members[p.MemberID]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", p.MemberID, db.ErrNotFound)
	}

	a := &db.DdsAssignment{
		ID:           m.newID(),
		MemberID:     p.MemberID,
		AssignedDate: p.AssignedDate,
		AcceptedAt:   p.AcceptedAt,
		AssignedBy:   p.AssignedBy,
		Status:       p.Status,
		Notes:        p.Notes,
		CreatedAt:    time.Now(),
		Member:       member,
	}
	m.live[p.AssignedDate] = a
	m.byID[a.ID] = a
	m.ledger = append(m.ledger, db.AuditEntry{
		MemberID:        p.MemberID,
		TagName:         db.LedgerTagDds,
		Action:          p.LedgerAction,
		ToMemberID:      &p.MemberID,
		PerformedBy:     p.PerformedBy,
		PerformedByType: p.PerformedByType,
	})
	return a, nil
}

func (m *mockDdsStore) AcceptDdsAssignment(_ context.Context, assignmentID string, acceptedAt time.Time) (*db.DdsAssignment, error) {
	a, ok := m.byID[assignmentID]
	if !ok {
		return nil, fmt.Errorf("DDS assignment %s: %w", assignmentID, db.ErrNotFound)
	}
	if a.Status != db.DdsStatusPending {
		return nil, fmt.Errorf("DDS assignment %s is %s, not pending: %w", assignmentID, a.Status, db.ErrConflict)
	}

	a.Status = db.DdsStatusActive
	a.AcceptedAt = &acceptedAt
	m.ledger = append(m.ledger, db.AuditEntry{
		MemberID:        a.MemberID,
		TagName:         db.LedgerTagDds,
		Action:          db.ActionAccepted,
		ToMemberID:      &a.MemberID,
		PerformedByType: db.ActorMember,
	})
	return a, nil
}

func (m *mockDdsStore) TransferDdsAssignment(_ context.Context, p db.TransferDdsParams) (*db.DdsAssignment, error) {
	current := m.live[p.AssignedDate]
	if current == nil || current.Status != db.DdsStatusActive {
		return nil, fmt.Errorf("no active DDS assignment for %s: %w", p.AssignedDate, db.ErrNotFound)
	}
	target, ok := m.members[p.ToMemberID]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", p.ToMemberID, db.ErrNotFound)
	}

	current.Status = db.DdsStatusTransferred
	current.TransferredTo = &p.ToMemberID

	now := time.Now()
	successor := &db.DdsAssignment{
		ID:           m.newID(),
		MemberID:     p.ToMemberID,
		AssignedDate: p.AssignedDate,
		AcceptedAt:   &now,
		Status:       db.DdsStatusActive,
		Notes:        p.Notes,
		CreatedAt:    now,
		Member:       target,
	}
	m.live[p.AssignedDate] = successor
	m.byID[successor.ID] = successor
	m.ledger = append(m.ledger, db.AuditEntry{
		MemberID:        p.ToMemberID,
		TagName:         db.LedgerTagDds,
		Action:          db.ActionTransferred,
		FromMemberID:    &current.MemberID,
		ToMemberID:      &p.ToMemberID,
		PerformedBy:     p.PerformedBy,
		PerformedByType: p.PerformedByType,
	})
	return successor, nil
}

func (m *mockDdsStore) ReleaseDdsAssignment(_ context.Context, p db.ReleaseDdsParams) (*db.DdsAssignment, error) {
	current := m.live[p.AssignedDate]
	if current == nil || current.Status != db.DdsStatusActive {
		return nil, nil
	}

	now := time.Now()
	current.Status = db.DdsStatusReleased
	current.ReleasedAt = &now
	delete(m.live, p.AssignedDate)
	m.ledger = append(m.ledger, db.AuditEntry{
		MemberID:        current.MemberID,
		TagName:         db.LedgerTagDds,
		Action:          db.ActionReleased,
		FromMemberID:    &current.MemberID,
		PerformedBy:     p.PerformedBy,
		PerformedByType: p.PerformedByType,
	})
	return current, nil
}

func (m *mockDdsStore) IsMemberPresent(_ context.Context, memberID string) (bool, error) {
	return m.present[memberID], nil
}

// mockSelfAcceptStore combines the DDS and tag mocks for self-accept tests
type mockSelfAcceptStore struct {
	*mockDdsStore
	*mockTagStore
}

// mockSnapshotStore is a canned db.SnapshotStore for escalation tests
type mockSnapshotStore struct {
	status      *db.BuildingStatus
	statusErr   error
	holder      *db.Holder
	holderErr   error
	presence    db.PresenceStats
	presenceErr error
}

func (m *mockSnapshotStore) GetBuildingStatus(_ context.Context, _ string) (*db.BuildingStatus, error) {
	return m.status, m.statusErr
}

func (m *mockSnapshotStore) GetTagHolder(_ context.Context, _ string) (*db.Holder, error) {
	return m.holder, m.holderErr
}

func (m *mockSnapshotStore) GetPresenceStats(_ context.Context) (db.PresenceStats, error) {
	return m.presence, m.presenceErr
}

// mockAlertStore is an in-memory db.AlertStore
type mockAlertStore struct {
	alerts    []db.Alert
	insertErr error
}

func (m *mockAlertStore) InsertAlert(_ context.Context, alert *db.Alert) (*db.Alert, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	stored := *alert
	stored.ID = fmt.Sprintf("alert-%d", len(m.alerts)+1)
	stored.Status = db.AlertStatusActive
	stored.CreatedAt = time.Now()
	m.alerts = append(m.alerts, stored)
	return &stored, nil
}

func (m *mockAlertStore) ListActiveAlerts(_ context.Context) ([]db.Alert, error) {
	var active []db.Alert
	for _, a := range m.alerts {
		if a.Status == db.AlertStatusActive {
			active = append(active, a)
		}
	}
	return active, nil
}

func (m *mockAlertStore) AcknowledgeAlert(_ context.Context, alertID, acknowledgedBy, note string) (*db.Alert, error) {
	for i := range m.alerts {
		if m.alerts[i].ID != alertID {
			continue
		}
		if m.alerts[i].Status != db.AlertStatusActive {
			return nil, fmt.Errorf("alert %s already acknowledged: %w", alertID, db.ErrConflict)
		}
		now := time.Now()
		m.alerts[i].Status = db.AlertStatusAcknowledged
		m.alerts[i].AcknowledgedAt = &now
		m.alerts[i].AcknowledgedBy = &acknowledgedBy
		m.alerts[i].AckNote = note
		return &m.alerts[i], nil
	}
	return nil, fmt.Errorf("alert %s: %w", alertID, db.ErrNotFound)
}

// mockAlertSink records decisions delivered by the escalation job
type mockAlertSink struct {
	created []*db.Alert
	err     error
}

func (m *mockAlertSink) CreateAlert(_ context.Context, alertType, severity, title, message string, data map[string]any) (*db.Alert, error) {
	if m.err != nil {
		return nil, m.err
	}
	alert := &db.Alert{
		ID:       fmt.Sprintf("alert-%d", len(m.created)+1),
		Type:     alertType,
		Severity: severity,
		Title:    title,
		Message:  message,
		Data:     data,
		Status:   db.AlertStatusActive,
	}
	m.created = append(m.created, alert)
	return alert, nil
}

// mockNotifier records notifications and can be made to fail
type mockNotifier struct {
	notified []*db.Alert
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, alert *db.Alert) error {
	if m.err != nil {
		return m.err
	}
	m.notified = append(m.notified, alert)
	return nil
}

// mockEmailSender records sent emails
type mockEmailSender struct {
	sent []string
	err  error
}

func (m *mockEmailSender) SendEmail(from, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, fmt.Sprintf("%s -> %s: %s", from, to, subject))
	return nil
}

// mockCandidateProvider is a canned NextCandidateProvider
type mockCandidateProvider struct {
	candidate *db.Member
	err       error
}

func (m *mockCandidateProvider) NextCandidate(_ context.Context, _ string) (*db.Member, error) {
	return m.candidate, m.err
}
