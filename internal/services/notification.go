package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"visitorgate/internal/domain"
)

type notificationService struct {
	notificationRepo domain.NotificationRepository
	contextTimeout   time.Duration
}

// NewNotificationService creates a NotificationService backed by the given repository.
func NewNotificationService(notificationRepo domain.NotificationRepository, timeout time.Duration) domain.NotificationService {
	return &notificationService{notificationRepo: notificationRepo, contextTimeout: timeout}
}

func (s *notificationService) Notify(ctx context.Context, userID string, kind domain.NotificationKind, title, body string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if userID == "" {
		return fmt.Errorf("notification recipient is required")
	}
	n := domain.NewNotification(userID, kind, title, body, time.Now())
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *notificationService) ListMine(ctx context.Context, userID string, p domain.PaginationParams) ([]*domain.Notification, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, err := s.notificationRepo.ListByUserID(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return items, unread, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.notificationRepo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}
