package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"visitorgate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVisitRepo implements domain.VisitRequestRepository over a map, with the
// same guarded-update semantics as the real store.
type fakeVisitRepo struct {
	byID          map[string]*domain.VisitRequest
	visitorOf     func(id string) *domain.Visitor
	nextID        int
	getErr        error
	createErr     error
	forceMarkFail bool
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{byID: make(map[string]*domain.VisitRequest)}
}

func (f *fakeVisitRepo) Create(ctx context.Context, req *domain.VisitRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	req.ID = fmt.Sprintf("visit-%d", f.nextID)
	cp := *req
	f.byID[req.ID] = &cp
	return nil
}

func (f *fakeVisitRepo) GetByID(ctx context.Context, id string) (*domain.VisitRequest, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	req, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeVisitRepo) GetWithVisitorByID(ctx context.Context, id string) (*domain.VisitRequestWithVisitor, error) {
	req, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.VisitRequestWithVisitor{Request: req, Visitor: f.visitorOf(req.VisitorID)}, nil
}

func (f *fakeVisitRepo) GetWithVisitorByGatePass(ctx context.Context, gatePass string) (*domain.VisitRequestWithVisitor, error) {
	for id, req := range f.byID {
		if req.GatePass == gatePass {
			return f.GetWithVisitorByID(ctx, id)
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVisitRepo) ListByResidentID(ctx context.Context, residentID string, filter domain.VisitFilter, p domain.PaginationParams) ([]*domain.VisitRequestWithVisitor, error) {
	var out []*domain.VisitRequestWithVisitor
	for id, req := range f.byID {
		if req.ResidentID != residentID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		bundle, _ := f.GetWithVisitorByID(ctx, id)
		out = append(out, bundle)
	}
	return out, nil
}

func (f *fakeVisitRepo) ListAll(ctx context.Context, filter domain.VisitFilter, p domain.PaginationParams) ([]*domain.VisitRequestWithVisitor, error) {
	var out []*domain.VisitRequestWithVisitor
	for id, req := range f.byID {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		bundle, _ := f.GetWithVisitorByID(ctx, id)
		out = append(out, bundle)
	}
	return out, nil
}

func (f *fakeVisitRepo) ListApprovedByIDNumber(ctx context.Context, idNumber string) ([]*domain.VisitRequest, error) {
	var out []*domain.VisitRequest
	for _, req := range f.byID {
		v := f.visitorOf(req.VisitorID)
		if v == nil || v.IDNumber != idNumber || req.Status != domain.VisitApproved {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeVisitRepo) MarkApproved(ctx context.Context, id, gatePass string, decidedAt time.Time) (bool, error) {
	if f.forceMarkFail {
		return false, nil
	}
	req, ok := f.byID[id]
	if !ok || req.Status != domain.VisitPending {
		return false, nil
	}
	req.Status = domain.VisitApproved
	req.GatePass = gatePass
	req.DecidedAt = &decidedAt
	return true, nil
}

func (f *fakeVisitRepo) MarkDenied(ctx context.Context, id string, from domain.VisitStatus, reason string, decidedAt time.Time) (bool, error) {
	if f.forceMarkFail {
		return false, nil
	}
	req, ok := f.byID[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = domain.VisitDenied
	req.DenialReason = reason
	req.DecidedAt = &decidedAt
	return true, nil
}

func (f *fakeVisitRepo) MarkCancelled(ctx context.Context, id string, from domain.VisitStatus) (bool, error) {
	if f.forceMarkFail {
		return false, nil
	}
	req, ok := f.byID[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = domain.VisitCancelled
	return true, nil
}

func (f *fakeVisitRepo) MarkCheckedIn(ctx context.Context, id string, enteredAt time.Time) (bool, error) {
	if f.forceMarkFail {
		return false, nil
	}
	req, ok := f.byID[id]
	if !ok || req.Status != domain.VisitApproved {
		return false, nil
	}
	req.Status = domain.VisitCheckedIn
	req.EnteredAt = &enteredAt
	return true, nil
}

func (f *fakeVisitRepo) MarkCheckedOut(ctx context.Context, id string, leftAt time.Time) (bool, error) {
	if f.forceMarkFail {
		return false, nil
	}
	req, ok := f.byID[id]
	if !ok || req.Status != domain.VisitCheckedIn {
		return false, nil
	}
	req.Status = domain.VisitCheckedOut
	req.LeftAt = &leftAt
	return true, nil
}

func (f *fakeVisitRepo) ExpireOverdue(ctx context.Context, cutoff time.Time) ([]*domain.VisitRequest, error) {
	var out []*domain.VisitRequest
	for _, req := range f.byID {
		if req.Status != domain.VisitPending || !req.WindowEnd.Before(cutoff) {
			continue
		}
		req.Status = domain.VisitExpired
		cp := *req
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeVisitRepo) CountByStatus(ctx context.Context) (map[domain.VisitStatus]int, error) {
	counts := make(map[domain.VisitStatus]int)
	for _, req := range f.byID {
		counts[req.Status]++
	}
	return counts, nil
}

// fakeVisitorRepo implements domain.VisitorRepository for tests.
type fakeVisitorRepo struct {
	byID       map[string]*domain.Visitor
	byIDNumber map[string]*domain.Visitor
	nextID     int
	createErr  error
}

func newFakeVisitorRepo() *fakeVisitorRepo {
	return &fakeVisitorRepo{
		byID:       make(map[string]*domain.Visitor),
		byIDNumber: make(map[string]*domain.Visitor),
	}
}

func (f *fakeVisitorRepo) add(v *domain.Visitor) *domain.Visitor {
	f.byID[v.ID] = v
	f.byIDNumber[v.IDNumber] = v
	return v
}

func (f *fakeVisitorRepo) Create(ctx context.Context, v *domain.Visitor) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byIDNumber[v.IDNumber]; ok {
		return domain.ErrDuplicateIDNumber
	}
	f.nextID++
	v.ID = fmt.Sprintf("visitor-%d", f.nextID)
	cp := *v
	f.add(&cp)
	return nil
}

func (f *fakeVisitorRepo) GetByID(ctx context.Context, id string) (*domain.Visitor, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVisitorRepo) GetByIDNumber(ctx context.Context, idNumber string) (*domain.Visitor, error) {
	v, ok := f.byIDNumber[idNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVisitorRepo) Update(ctx context.Context, v *domain.Visitor) error {
	if _, ok := f.byID[v.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *v
	f.add(&cp)
	return nil
}

func (f *fakeVisitorRepo) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Visitor, error) {
	var out []*domain.Visitor
	for _, v := range f.byID {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeVisitorRepo) Count(ctx context.Context) (int, error) { return len(f.byID), nil }

// fakeBlacklistRepo implements domain.BlacklistRepository for tests.
type fakeBlacklistRepo struct {
	entries  map[string]*domain.BlacklistEntry
	checkErr error
}

func newFakeBlacklistRepo() *fakeBlacklistRepo {
	return &fakeBlacklistRepo{entries: make(map[string]*domain.BlacklistEntry)}
}

func (f *fakeBlacklistRepo) Create(ctx context.Context, entry *domain.BlacklistEntry) error {
	if _, ok := f.entries[entry.IDNumber]; ok {
		return domain.ErrAlreadyBlacklisted
	}
	entry.ID = fmt.Sprintf("bl-%d", len(f.entries)+1)
	f.entries[entry.IDNumber] = entry
	return nil
}

func (f *fakeBlacklistRepo) Remove(ctx context.Context, idNumber string) error {
	if _, ok := f.entries[idNumber]; !ok {
		return domain.ErrNotFound
	}
	delete(f.entries, idNumber)
	return nil
}

func (f *fakeBlacklistRepo) IsBlacklisted(ctx context.Context, idNumber string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	_, ok := f.entries[idNumber]
	return ok, nil
}

func (f *fakeBlacklistRepo) List(ctx context.Context, p domain.PaginationParams) ([]*domain.BlacklistEntry, error) {
	var out []*domain.BlacklistEntry
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeBlacklistRepo) Count(ctx context.Context) (int, error) { return len(f.entries), nil }

// fakeAccessLogRepo implements domain.AccessLogRepository for tests.
type fakeAccessLogRepo struct {
	entries []*domain.AccessLogEntry
	records []*domain.AccessLogRecord
}

func (f *fakeAccessLogRepo) Append(ctx context.Context, entry *domain.AccessLogEntry) error {
	for _, e := range f.entries {
		if e.VisitRequestID == entry.VisitRequestID && e.EventType == entry.EventType {
			return domain.ErrDuplicateLogEntry
		}
	}
	entry.ID = fmt.Sprintf("log-%d", len(f.entries)+1)
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAccessLogRepo) ListByVisitRequestID(ctx context.Context, visitRequestID string) ([]*domain.AccessLogEntry, error) {
	var out []*domain.AccessLogEntry
	for _, e := range f.entries {
		if e.VisitRequestID == visitRequestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAccessLogRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.AccessLogRecord, error) {
	var out []*domain.AccessLogRecord
	for _, r := range f.records {
		if !r.OccurredAt.Before(from) && r.OccurredAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAccessLogRepo) CountBetween(ctx context.Context, eventType domain.AccessEventType, from, to time.Time) (int, error) {
	n := 0
	for _, r := range f.records {
		if r.EventType == eventType && !r.OccurredAt.Before(from) && r.OccurredAt.Before(to) {
			n++
		}
	}
	return n, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	events []domain.VisitEvent
}

func (f *fakePublisher) Publish(event domain.VisitEvent) {
	f.events = append(f.events, event)
}

func (f *fakePublisher) kinds() []domain.NotificationKind {
	out := make([]domain.NotificationKind, len(f.events))
	for i, e := range f.events {
		out[i] = e.Kind
	}
	return out
}

type visitFixture struct {
	visits    *fakeVisitRepo
	visitors  *fakeVisitorRepo
	users     *fakeUserRepo
	blacklist *fakeBlacklistRepo
	accessLog *fakeAccessLogRepo
	published *fakePublisher
	svc       domain.VisitService
}

func newVisitFixture() *visitFixture {
	f := &visitFixture{
		visits:    newFakeVisitRepo(),
		visitors:  newFakeVisitorRepo(),
		users:     newFakeUserRepo(),
		blacklist: newFakeBlacklistRepo(),
		accessLog: &fakeAccessLogRepo{},
		published: &fakePublisher{},
	}
	f.visits.visitorOf = func(id string) *domain.Visitor {
		v, err := f.visitors.GetByID(context.Background(), id)
		if err != nil {
			return nil
		}
		return v
	}
	f.svc = NewVisitService(f.visits, f.visitors, f.users, f.blacklist, f.accessLog, f.published, 2*time.Second)
	return f
}

// seedRequest stores a visitor and a request in the given status.
func (f *visitFixture) seedRequest(status domain.VisitStatus, residentID, idNumber string) *domain.VisitRequest {
	now := time.Now()
	visitor := f.visitors.add(&domain.Visitor{
		ID:       fmt.Sprintf("visitor-%s", idNumber),
		FullName: "Jane Visitor",
		Email:    "jane@example.com",
		IDNumber: idNumber,
	})
	req := domain.NewVisitRequest(visitor.ID, residentID, "family visit", domain.VisitTypePersonal, now.Add(time.Hour), now.Add(3*time.Hour), now, now)
	req.ID = fmt.Sprintf("visit-%s-%s", idNumber, status)
	req.Status = status
	if status == domain.VisitApproved {
		req.GatePass = "SEEDPASS1"
	}
	f.visits.byID[req.ID] = req
	return req
}

func TestVisitService_PreRegister(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	input := &domain.PreRegistration{
		VisitorName: "Jane Visitor",
		IDNumber:    "id-100",
		Purpose:     "family visit",
		VisitType:   domain.VisitTypePersonal,
		WindowStart: now.Add(time.Hour),
		WindowEnd:   now.Add(3 * time.Hour),
	}

	t.Run("creates visitor and pending request", func(t *testing.T) {
		f := newVisitFixture()

		bundle, err := f.svc.PreRegister(ctx, "resident-1", input)
		require.NoError(t, err)
		require.NotNil(t, bundle)
		assert.Equal(t, domain.VisitPending, bundle.Request.Status)
		assert.Equal(t, "resident-1", bundle.Request.ResidentID)
		assert.Equal(t, "ID-100", bundle.Visitor.IDNumber)
		assert.NotEmpty(t, bundle.Visitor.ID)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitRequested}, f.published.kinds())
	})

	t.Run("reuses visitor by id number and refreshes contact", func(t *testing.T) {
		f := newVisitFixture()
		f.visitors.add(&domain.Visitor{ID: "visitor-7", FullName: "Jane Visitor", Phone: "111", IDNumber: "ID-100"})

		in := *input
		in.VisitorPhone = "222"
		bundle, err := f.svc.PreRegister(ctx, "resident-1", &in)
		require.NoError(t, err)
		assert.Equal(t, "visitor-7", bundle.Visitor.ID)
		assert.Equal(t, "222", bundle.Visitor.Phone)

		stored, err := f.visitors.GetByID(ctx, "visitor-7")
		require.NoError(t, err)
		assert.Equal(t, "222", stored.Phone)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		f := newVisitFixture()
		in := *input
		in.WindowStart, in.WindowEnd = in.WindowEnd, in.WindowStart

		_, err := f.svc.PreRegister(ctx, "resident-1", &in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "window end")
		assert.Empty(t, f.published.events)
	})

	t.Run("rejects missing visitor name", func(t *testing.T) {
		f := newVisitFixture()
		in := *input
		in.VisitorName = "  "

		_, err := f.svc.PreRegister(ctx, "resident-1", &in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "visitor name")
	})
}

func TestVisitService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("approves pending request and issues gate pass", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitPending, "resident-1", "ID-1")

		approved, err := f.svc.Approve(ctx, "resident-1", req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VisitApproved, approved.Status)
		assert.Len(t, approved.GatePass, gatePassLength)
		require.NotNil(t, approved.DecidedAt)

		stored, _ := f.visits.GetByID(ctx, req.ID)
		assert.Equal(t, domain.VisitApproved, stored.Status)
		assert.Equal(t, approved.GatePass, stored.GatePass)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitApproved}, f.published.kinds())
	})

	t.Run("blacklisted visitor stays pending", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitPending, "resident-1", "ID-2")
		f.blacklist.entries["ID-2"] = domain.NewBlacklistEntry("ID-2", "trespassing", "admin-1", time.Now())

		_, err := f.svc.Approve(ctx, "resident-1", req.ID)
		require.ErrorIs(t, err, domain.ErrBlacklistedVisitor)

		stored, _ := f.visits.GetByID(ctx, req.ID)
		assert.Equal(t, domain.VisitPending, stored.Status)
		assert.Empty(t, stored.GatePass)
		assert.Equal(t, []domain.NotificationKind{domain.KindSecurityAlert}, f.published.kinds())
	})

	t.Run("foreign resident is forbidden", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitPending, "resident-1", "ID-3")

		_, err := f.svc.Approve(ctx, "resident-2", req.ID)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("already decided", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitDenied, "resident-1", "ID-4")

		_, err := f.svc.Approve(ctx, "resident-1", req.ID)
		require.ErrorIs(t, err, domain.ErrAlreadyDecided)
	})

	t.Run("concurrent decision wins the race", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitPending, "resident-1", "ID-5")
		f.visits.forceMarkFail = true

		_, err := f.svc.Approve(ctx, "resident-1", req.ID)
		require.ErrorIs(t, err, domain.ErrAlreadyDecided)
		assert.Empty(t, f.published.events)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newVisitFixture()

		_, err := f.svc.Approve(ctx, "resident-1", "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestVisitService_Deny(t *testing.T) {
	ctx := context.Background()

	t.Run("denies pending request with reason", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitPending, "resident-1", "ID-1")

		denied, err := f.svc.Deny(ctx, "resident-1", req.ID, "not expecting anyone")
		require.NoError(t, err)
		assert.Equal(t, domain.VisitDenied, denied.Status)
		assert.Equal(t, "not expecting anyone", denied.DenialReason)

		stored, _ := f.visits.GetByID(ctx, req.ID)
		assert.Equal(t, domain.VisitDenied, stored.Status)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitDenied}, f.published.kinds())
	})

	t.Run("already decided", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitApproved, "resident-1", "ID-2")

		_, err := f.svc.Deny(ctx, "resident-1", req.ID, "")
		require.ErrorIs(t, err, domain.ErrAlreadyDecided)
	})
}

func TestVisitService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels an approved request", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitApproved, "resident-1", "ID-1")

		cancelled, err := f.svc.Cancel(ctx, "resident-1", req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VisitCancelled, cancelled.Status)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitCancelled}, f.published.kinds())
	})

	t.Run("checked-in visit cannot be cancelled", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitCheckedIn, "resident-1", "ID-2")

		_, err := f.svc.Cancel(ctx, "resident-1", req.ID)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestVisitService_CheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("checks in approved request and logs entry", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitApproved, "resident-1", "ID-1")

		checkedIn, err := f.svc.CheckIn(ctx, "security-1", req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VisitCheckedIn, checkedIn.Status)
		require.NotNil(t, checkedIn.EnteredAt)

		require.Len(t, f.accessLog.entries, 1)
		entry := f.accessLog.entries[0]
		assert.Equal(t, req.ID, entry.VisitRequestID)
		assert.Equal(t, domain.AccessEntry, entry.EventType)
		assert.Equal(t, "security-1", entry.RecordedBy)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitorCheckedIn}, f.published.kinds())
	})

	t.Run("blacklisted after approval is denied at the gate", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitApproved, "resident-1", "ID-2")
		f.blacklist.entries["ID-2"] = domain.NewBlacklistEntry("ID-2", "trespassing", "admin-1", time.Now())

		_, err := f.svc.CheckIn(ctx, "security-1", req.ID)
		require.ErrorIs(t, err, domain.ErrBlacklistedVisitor)

		stored, _ := f.visits.GetByID(ctx, req.ID)
		assert.Equal(t, domain.VisitDenied, stored.Status)
		assert.Equal(t, domain.DenialRetroactiveBlacklist, stored.DenialReason)
		assert.Empty(t, f.accessLog.entries)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitDenied, domain.KindSecurityAlert}, f.published.kinds())
	})

	t.Run("pending request cannot check in", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitPending, "resident-1", "ID-3")

		_, err := f.svc.CheckIn(ctx, "security-1", req.ID)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("duplicate entry log surfaces", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitApproved, "resident-1", "ID-4")
		f.accessLog.entries = append(f.accessLog.entries, domain.NewAccessLogEntry(req.ID, domain.AccessEntry, "security-9", time.Now()))

		_, err := f.svc.CheckIn(ctx, "security-1", req.ID)
		require.ErrorIs(t, err, domain.ErrDuplicateLogEntry)
	})
}

func TestVisitService_CheckOut(t *testing.T) {
	ctx := context.Background()

	t.Run("checks out and logs exit", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitCheckedIn, "resident-1", "ID-1")

		checkedOut, err := f.svc.CheckOut(ctx, "security-1", req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VisitCheckedOut, checkedOut.Status)
		require.NotNil(t, checkedOut.LeftAt)

		require.Len(t, f.accessLog.entries, 1)
		assert.Equal(t, domain.AccessExit, f.accessLog.entries[0].EventType)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitorCheckedOut}, f.published.kinds())
	})

	t.Run("approved request cannot check out", func(t *testing.T) {
		f := newVisitFixture()
		req := f.seedRequest(domain.VisitApproved, "resident-1", "ID-2")

		_, err := f.svc.CheckOut(ctx, "security-1", req.ID)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

// TestVisitService_FullVisitFlow drives one request from pre-registration to
// check-out and verifies the log rows and events it leaves behind.
func TestVisitService_FullVisitFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newVisitFixture()

	bundle, err := f.svc.PreRegister(ctx, "resident-1", &domain.PreRegistration{
		VisitorName: "Jane Visitor",
		IDNumber:    "id-100",
		Purpose:     "family visit",
		VisitType:   domain.VisitTypePersonal,
		WindowStart: now.Add(time.Hour),
		WindowEnd:   now.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, domain.VisitPending, bundle.Request.Status)
	id := bundle.Request.ID

	approved, err := f.svc.Approve(ctx, "resident-1", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VisitApproved, approved.Status)
	assert.Len(t, approved.GatePass, gatePassLength)

	checkedIn, err := f.svc.CheckIn(ctx, "security-1", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VisitCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.EnteredAt)

	checkedOut, err := f.svc.CheckOut(ctx, "security-1", id)
	require.NoError(t, err)
	assert.Equal(t, domain.VisitCheckedOut, checkedOut.Status)
	require.NotNil(t, checkedOut.LeftAt)

	require.Len(t, f.accessLog.entries, 2)
	assert.Equal(t, domain.AccessEntry, f.accessLog.entries[0].EventType)
	assert.Equal(t, domain.AccessExit, f.accessLog.entries[1].EventType)
	for _, e := range f.accessLog.entries {
		assert.Equal(t, id, e.VisitRequestID)
	}

	assert.Equal(t, []domain.NotificationKind{
		domain.KindVisitRequested,
		domain.KindVisitApproved,
		domain.KindVisitorCheckedIn,
		domain.KindVisitorCheckedOut,
	}, f.published.kinds())
}

func TestVisitService_WalkIn(t *testing.T) {
	ctx := context.Background()

	input := &domain.WalkInEntry{
		VisitorName: "Sam Courier",
		IDNumber:    "id-900",
		ResidentID:  "resident-1",
		Purpose:     "package drop-off",
		VisitType:   domain.VisitTypeDelivery,
	}

	t.Run("records checked-in walk-in with entry log", func(t *testing.T) {
		f := newVisitFixture()
		f.users.byID["resident-1"] = &domain.User{ID: "resident-1", Email: "res@example.com", FullName: "Resident One"}

		bundle, err := f.svc.WalkIn(ctx, "security-1", input)
		require.NoError(t, err)
		assert.Equal(t, domain.VisitCheckedIn, bundle.Request.Status)
		require.NotNil(t, bundle.Request.EnteredAt)
		assert.Equal(t, "ID-900", bundle.Visitor.IDNumber)

		require.Len(t, f.accessLog.entries, 1)
		assert.Equal(t, domain.AccessEntry, f.accessLog.entries[0].EventType)
		assert.Equal(t, []domain.NotificationKind{domain.KindVisitorCheckedIn}, f.published.kinds())
	})

	t.Run("blacklisted walk-in is turned away", func(t *testing.T) {
		f := newVisitFixture()
		f.users.byID["resident-1"] = &domain.User{ID: "resident-1"}
		f.blacklist.entries["ID-900"] = domain.NewBlacklistEntry("ID-900", "trespassing", "admin-1", time.Now())

		_, err := f.svc.WalkIn(ctx, "security-1", input)
		require.ErrorIs(t, err, domain.ErrBlacklistedVisitor)
		assert.Empty(t, f.visits.byID)
		assert.Empty(t, f.accessLog.entries)
		assert.Equal(t, []domain.NotificationKind{domain.KindSecurityAlert}, f.published.kinds())
	})

	t.Run("unknown resident", func(t *testing.T) {
		f := newVisitFixture()

		_, err := f.svc.WalkIn(ctx, "security-1", input)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestVisitService_GetByID(t *testing.T) {
	ctx := context.Background()
	f := newVisitFixture()
	req := f.seedRequest(domain.VisitPending, "resident-1", "ID-1")

	bundle, err := f.svc.GetByID(ctx, "resident-1", false, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, bundle.Request.ID)

	_, err = f.svc.GetByID(ctx, "resident-2", false, req.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	bundle, err = f.svc.GetByID(ctx, "security-1", true, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, bundle.Request.ID)
}

func TestVisitService_ExpireOverdue(t *testing.T) {
	ctx := context.Background()
	f := newVisitFixture()
	now := time.Now()

	overdue := f.seedRequest(domain.VisitPending, "resident-1", "ID-1")
	overdue.WindowEnd = now.Add(-time.Hour)
	fresh := f.seedRequest(domain.VisitPending, "resident-1", "ID-2")
	fresh.WindowEnd = now.Add(time.Hour)
	approved := f.seedRequest(domain.VisitApproved, "resident-1", "ID-3")
	approved.WindowEnd = now.Add(-time.Hour)

	n, err := f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, _ := f.visits.GetByID(ctx, overdue.ID)
	assert.Equal(t, domain.VisitExpired, stored.Status)
	stored, _ = f.visits.GetByID(ctx, fresh.ID)
	assert.Equal(t, domain.VisitPending, stored.Status)
	stored, _ = f.visits.GetByID(ctx, approved.ID)
	assert.Equal(t, domain.VisitApproved, stored.Status)

	assert.Equal(t, []domain.NotificationKind{domain.KindVisitExpired}, f.published.kinds())
}
