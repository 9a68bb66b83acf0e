package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"visitorgate/internal/domain"
)

type visitorRepository struct {
	DB *sql.DB
}

// NewVisitorRepository returns a domain.VisitorRepository implemented with Postgres.
func NewVisitorRepository(db *sql.DB) domain.VisitorRepository {
	return &visitorRepository{DB: db}
}

func (r *visitorRepository) Create(ctx context.Context, v *domain.Visitor) error {
	query := `
		INSERT INTO visitors (full_name, email, phone, id_number, vehicle_plate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, v.FullName, v.Email, v.Phone, v.IDNumber, v.VehiclePlate, v.CreatedAt, v.UpdatedAt).Scan(&v.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateIDNumber
		}
		return err
	}
	return nil
}

func (r *visitorRepository) GetByID(ctx context.Context, id string) (*domain.Visitor, error) {
	query := `
		SELECT id, full_name, email, phone, id_number, vehicle_plate, created_at, updated_at
		FROM visitors
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *visitorRepository) GetByIDNumber(ctx context.Context, idNumber string) (*domain.Visitor, error) {
	query := `
		SELECT id, full_name, email, phone, id_number, vehicle_plate, created_at, updated_at
		FROM visitors
		WHERE id_number = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, idNumber))
}

func (r *visitorRepository) scanOne(row *sql.Row) (*domain.Visitor, error) {
	v := &domain.Visitor{}
	var plate sql.NullString
	err := row.Scan(&v.ID, &v.FullName, &v.Email, &v.Phone, &v.IDNumber, &plate, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	v.VehiclePlate = plate.String
	return v, nil
}

func (r *visitorRepository) Update(ctx context.Context, v *domain.Visitor) error {
	query := `
		UPDATE visitors
		SET full_name = $2, email = $3, phone = $4, vehicle_plate = $5, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, v.ID, v.FullName, v.Email, v.Phone, v.VehiclePlate)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *visitorRepository) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Visitor, error) {
	query := `
		SELECT id, full_name, email, phone, id_number, vehicle_plate, created_at, updated_at
		FROM visitors
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visitors := make([]*domain.Visitor, 0)
	for rows.Next() {
		v := &domain.Visitor{}
		var plate sql.NullString
		if err := rows.Scan(&v.ID, &v.FullName, &v.Email, &v.Phone, &v.IDNumber, &plate, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		v.VehiclePlate = plate.String
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

func (r *visitorRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors`).Scan(&n)
	return n, err
}
