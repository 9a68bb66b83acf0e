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

// fakeNotificationRepo implements domain.NotificationRepository for tests.
type fakeNotificationRepo struct {
	byID   map[string]*domain.Notification
	nextID int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{byID: make(map[string]*domain.Notification)}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	f.nextID++
	n.ID = fmt.Sprintf("notif-%d", f.nextID)
	cp := *n
	f.byID[n.ID] = &cp
	return nil
}

func (f *fakeNotificationRepo) ListByUserID(ctx context.Context, userID string, p domain.PaginationParams) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for _, n := range f.byID {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range f.byID {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	n, ok := f.byID[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotFound
	}
	n.Read = true
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range f.byID {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func TestNotificationService_NotifyAndList(t *testing.T) {
	ctx := context.Background()
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, 2*time.Second)

	require.NoError(t, svc.Notify(ctx, "user-1", domain.KindVisitRequested, "New visit request", "Jane requested a visit."))
	require.NoError(t, svc.Notify(ctx, "user-1", domain.KindVisitorCheckedIn, "Visitor arrived", "Jane checked in."))
	require.NoError(t, svc.Notify(ctx, "user-2", domain.KindSecurityAlert, "Blacklisted visitor blocked", "ID-1 at the gate."))

	items, unread, err := svc.ListMine(ctx, "user-1", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, unread)
}

func TestNotificationService_NotifyRequiresRecipient(t *testing.T) {
	svc := NewNotificationService(newFakeNotificationRepo(), 2*time.Second)

	err := svc.Notify(context.Background(), "", domain.KindVisitRequested, "t", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, 2*time.Second)

	require.NoError(t, svc.Notify(ctx, "user-1", domain.KindVisitExpired, "Visit request expired", "It lapsed."))

	// Another user cannot mark it.
	err := svc.MarkRead(ctx, "user-2", "notif-1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, "user-1", "notif-1"))
	_, unread, err := svc.ListMine(ctx, "user-1", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	ctx := context.Background()
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, 2*time.Second)

	require.NoError(t, svc.Notify(ctx, "user-1", domain.KindVisitApproved, "a", "b"))
	require.NoError(t, svc.Notify(ctx, "user-1", domain.KindVisitDenied, "c", "d"))

	n, err := svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
