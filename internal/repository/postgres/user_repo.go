package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"visitorgate/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

// NewUserRepository returns a domain.UserRepository implemented with Postgres.
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, salt, full_name, phone, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.Salt, u.FullName, u.Phone, u.Approved, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, salt, full_name, phone, approved, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	u := &domain.User{}
	var phone sql.NullString
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &u.FullName, &phone, &u.Approved, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Phone = phone.String
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, salt, full_name, phone, approved, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	var phone sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &u.FullName, &phone, &u.Approved, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Phone = phone.String
	return u, nil
}

func (r *userRepository) Approve(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET approved = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) ListPending(ctx context.Context, p domain.PaginationParams) ([]*domain.User, error) {
	query := `
		SELECT id, email, full_name, phone, approved, created_at, updated_at
		FROM users
		WHERE approved = FALSE
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u := &domain.User{}
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &phone, &u.Approved, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Phone = phone.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) ListByRole(ctx context.Context, roleCode string) ([]*domain.User, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.phone, u.approved, u.created_at, u.updated_at
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.code = $1
		ORDER BY u.created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, roleCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u := &domain.User{}
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &phone, &u.Approved, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Phone = phone.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) AssignRole(ctx context.Context, userID, roleID string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, userID, roleID)
	return err
}
