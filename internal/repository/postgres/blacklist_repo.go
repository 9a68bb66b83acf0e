package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"visitorgate/internal/domain"
)

type blacklistRepository struct {
	DB *sql.DB
}

// NewBlacklistRepository returns a domain.BlacklistRepository implemented with Postgres.
func NewBlacklistRepository(db *sql.DB) domain.BlacklistRepository {
	return &blacklistRepository{DB: db}
}

func (r *blacklistRepository) Create(ctx context.Context, entry *domain.BlacklistEntry) error {
	query := `
		INSERT INTO blacklist_entries (id_number, reason, added_by, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, entry.IDNumber, entry.Reason, entry.AddedBy, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrAlreadyBlacklisted
		}
		return err
	}
	return nil
}

func (r *blacklistRepository) Remove(ctx context.Context, idNumber string) error {
	query := `DELETE FROM blacklist_entries WHERE id_number = $1`
	result, err := r.DB.ExecContext(ctx, query, idNumber)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *blacklistRepository) IsBlacklisted(ctx context.Context, idNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM blacklist_entries WHERE id_number = $1)`
	err := r.DB.QueryRowContext(ctx, query, idNumber).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *blacklistRepository) List(ctx context.Context, p domain.PaginationParams) ([]*domain.BlacklistEntry, error) {
	query := `
		SELECT id, id_number, reason, added_by, created_at
		FROM blacklist_entries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.BlacklistEntry, 0)
	for rows.Next() {
		e := &domain.BlacklistEntry{}
		if err := rows.Scan(&e.ID, &e.IDNumber, &e.Reason, &e.AddedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *blacklistRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM blacklist_entries`).Scan(&n)
	return n, err
}
