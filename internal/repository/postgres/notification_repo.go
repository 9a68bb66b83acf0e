package postgres

import (
	"context"
	"database/sql"

	"visitorgate/internal/domain"
)

type notificationRepository struct {
	DB *sql.DB
}

// NewNotificationRepository returns a domain.NotificationRepository implemented with Postgres.
func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (user_id, kind, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, n.UserID, n.Kind, n.Title, n.Body, n.Read, n.CreatedAt).Scan(&n.ID)
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID string, p domain.PaginationParams) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, kind, title, body, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&n)
	return n, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE user_id = $1 AND read = FALSE
	`
	result, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
