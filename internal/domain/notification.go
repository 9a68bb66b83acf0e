package domain

import (
	"context"
	"time"
)

// NotificationKind labels what a notification (or the lifecycle event behind
// it) is about.
type NotificationKind string

// Known notification kinds.
const (
	KindVisitRequested    NotificationKind = "visit_requested"
	KindVisitApproved     NotificationKind = "visit_approved"
	KindVisitDenied       NotificationKind = "visit_denied"
	KindVisitCancelled    NotificationKind = "visit_cancelled"
	KindVisitExpired      NotificationKind = "visit_expired"
	KindVisitorCheckedIn  NotificationKind = "visitor_checked_in"
	KindVisitorCheckedOut NotificationKind = "visitor_checked_out"
	KindSecurityAlert     NotificationKind = "security_alert"
	KindAccountApproved   NotificationKind = "account_approved"
)

// Notification is an in-app message persisted for one user.
// swagger:model Notification
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification returns a new unread Notification. ID is typically set by the repository on create.
func NewNotification(userID string, kind NotificationKind, title, body string, createdAt time.Time) *Notification {
	return &Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: createdAt,
	}
}

// NotificationRepository defines storage operations for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUserID(ctx context.Context, userID string, p PaginationParams) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead flips one notification owned by userID to read.
	MarkRead(ctx context.Context, id, userID string) error
	// MarkAllRead flips every unread notification of userID and returns how many changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// NotificationService defines in-app notification business logic.
type NotificationService interface {
	Notify(ctx context.Context, userID string, kind NotificationKind, title, body string) error
	ListMine(ctx context.Context, userID string, p PaginationParams) (items []*Notification, unread int, err error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}
