package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"visitorgate/internal/domain"
)

type visitRequestRepository struct {
	DB *sql.DB
}

// NewVisitRequestRepository returns a domain.VisitRequestRepository implemented with Postgres.
func NewVisitRequestRepository(db *sql.DB) domain.VisitRequestRepository {
	return &visitRequestRepository{DB: db}
}

func (r *visitRequestRepository) Create(ctx context.Context, req *domain.VisitRequest) error {
	query := `
		INSERT INTO visit_requests (visitor_id, resident_id, purpose, visit_type, window_start, window_end, status, entered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		req.VisitorID, req.ResidentID, req.Purpose, req.VisitType,
		req.WindowStart, req.WindowEnd, req.Status, req.EnteredAt,
		req.CreatedAt, req.UpdatedAt,
	).Scan(&req.ID)
}

func (r *visitRequestRepository) GetByID(ctx context.Context, id string) (*domain.VisitRequest, error) {
	query := `
		SELECT id, visitor_id, resident_id, purpose, visit_type, window_start, window_end,
		       status, denial_reason, gate_pass, decided_at, entered_at, left_at, created_at, updated_at
		FROM visit_requests
		WHERE id = $1
	`
	req := &domain.VisitRequest{}
	var reason, gatePass sql.NullString
	var decidedAt, enteredAt, leftAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.VisitorID, &req.ResidentID, &req.Purpose, &req.VisitType,
		&req.WindowStart, &req.WindowEnd, &req.Status, &reason, &gatePass,
		&decidedAt, &enteredAt, &leftAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	req.DenialReason = reason.String
	req.GatePass = gatePass.String
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	if enteredAt.Valid {
		req.EnteredAt = &enteredAt.Time
	}
	if leftAt.Valid {
		req.LeftAt = &leftAt.Time
	}
	return req, nil
}

func (r *visitRequestRepository) GetWithVisitorByID(ctx context.Context, id string) (*domain.VisitRequestWithVisitor, error) {
	query := `
		SELECT vr.id, vr.visitor_id, vr.resident_id, vr.purpose, vr.visit_type, vr.window_start, vr.window_end,
		       vr.status, vr.denial_reason, vr.gate_pass, vr.decided_at, vr.entered_at, vr.left_at, vr.created_at, vr.updated_at,
		       v.id, v.full_name, v.email, v.phone, v.id_number, v.vehicle_plate, v.created_at, v.updated_at
		FROM visit_requests vr
		JOIN visitors v ON v.id = vr.visitor_id
		WHERE vr.id = $1
	`
	return r.scanWithVisitor(r.DB.QueryRowContext(ctx, query, id))
}

func (r *visitRequestRepository) GetWithVisitorByGatePass(ctx context.Context, gatePass string) (*domain.VisitRequestWithVisitor, error) {
	query := `
		SELECT vr.id, vr.visitor_id, vr.resident_id, vr.purpose, vr.visit_type, vr.window_start, vr.window_end,
		       vr.status, vr.denial_reason, vr.gate_pass, vr.decided_at, vr.entered_at, vr.left_at, vr.created_at, vr.updated_at,
		       v.id, v.full_name, v.email, v.phone, v.id_number, v.vehicle_plate, v.created_at, v.updated_at
		FROM visit_requests vr
		JOIN visitors v ON v.id = vr.visitor_id
		WHERE vr.gate_pass = $1
	`
	return r.scanWithVisitor(r.DB.QueryRowContext(ctx, query, gatePass))
}

func (r *visitRequestRepository) scanWithVisitor(row *sql.Row) (*domain.VisitRequestWithVisitor, error) {
	req := &domain.VisitRequest{}
	visitor := &domain.Visitor{}
	var reason, gatePass, plate sql.NullString
	var decidedAt, enteredAt, leftAt sql.NullTime
	err := row.Scan(
		&req.ID, &req.VisitorID, &req.ResidentID, &req.Purpose, &req.VisitType,
		&req.WindowStart, &req.WindowEnd, &req.Status, &reason, &gatePass,
		&decidedAt, &enteredAt, &leftAt, &req.CreatedAt, &req.UpdatedAt,
		&visitor.ID, &visitor.FullName, &visitor.Email, &visitor.Phone, &visitor.IDNumber,
		&plate, &visitor.CreatedAt, &visitor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	req.DenialReason = reason.String
	req.GatePass = gatePass.String
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	if enteredAt.Valid {
		req.EnteredAt = &enteredAt.Time
	}
	if leftAt.Valid {
		req.LeftAt = &leftAt.Time
	}
	visitor.VehiclePlate = plate.String
	return &domain.VisitRequestWithVisitor{Request: req, Visitor: visitor}, nil
}

func (r *visitRequestRepository) ListByResidentID(ctx context.Context, residentID string, f domain.VisitFilter, p domain.PaginationParams) ([]*domain.VisitRequestWithVisitor, error) {
	query := `
		SELECT vr.id, vr.visitor_id, vr.resident_id, vr.purpose, vr.visit_type, vr.window_start, vr.window_end,
		       vr.status, vr.denial_reason, vr.gate_pass, vr.decided_at, vr.entered_at, vr.left_at, vr.created_at, vr.updated_at,
		       v.id, v.full_name, v.email, v.phone, v.id_number, v.vehicle_plate, v.created_at, v.updated_at
		FROM visit_requests vr
		JOIN visitors v ON v.id = vr.visitor_id
		WHERE vr.resident_id = $1
	`
	args := []interface{}{residentID}
	n := 2
	if f.Status != "" {
		query += fmt.Sprintf(" AND vr.status = $%d", n)
		args = append(args, f.Status)
		n++
	}
	query += fmt.Sprintf(" ORDER BY vr.created_at DESC LIMIT $%d OFFSET $%d", n, n+1)
	args = append(args, p.PageSize, p.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectWithVisitor(rows)
}

func (r *visitRequestRepository) ListAll(ctx context.Context, f domain.VisitFilter, p domain.PaginationParams) ([]*domain.VisitRequestWithVisitor, error) {
	query := `
		SELECT vr.id, vr.visitor_id, vr.resident_id, vr.purpose, vr.visit_type, vr.window_start, vr.window_end,
		       vr.status, vr.denial_reason, vr.gate_pass, vr.decided_at, vr.entered_at, vr.left_at, vr.created_at, vr.updated_at,
		       v.id, v.full_name, v.email, v.phone, v.id_number, v.vehicle_plate, v.created_at, v.updated_at
		FROM visit_requests vr
		JOIN visitors v ON v.id = vr.visitor_id
	`
	args := []interface{}{}
	n := 1
	if f.Status != "" {
		query += fmt.Sprintf(" WHERE vr.status = $%d", n)
		args = append(args, f.Status)
		n++
	}
	query += fmt.Sprintf(" ORDER BY vr.created_at DESC LIMIT $%d OFFSET $%d", n, n+1)
	args = append(args, p.PageSize, p.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectWithVisitor(rows)
}

func (r *visitRequestRepository) collectWithVisitor(rows *sql.Rows) ([]*domain.VisitRequestWithVisitor, error) {
	items := make([]*domain.VisitRequestWithVisitor, 0)
	for rows.Next() {
		req := &domain.VisitRequest{}
		visitor := &domain.Visitor{}
		var reason, gatePass, plate sql.NullString
		var decidedAt, enteredAt, leftAt sql.NullTime
		if err := rows.Scan(
			&req.ID, &req.VisitorID, &req.ResidentID, &req.Purpose, &req.VisitType,
			&req.WindowStart, &req.WindowEnd, &req.Status, &reason, &gatePass,
			&decidedAt, &enteredAt, &leftAt, &req.CreatedAt, &req.UpdatedAt,
			&visitor.ID, &visitor.FullName, &visitor.Email, &visitor.Phone, &visitor.IDNumber,
			&plate, &visitor.CreatedAt, &visitor.UpdatedAt,
		); err != nil {
			return nil, err
		}
		req.DenialReason = reason.String
		req.GatePass = gatePass.String
		if decidedAt.Valid {
			req.DecidedAt = &decidedAt.Time
		}
		if enteredAt.Valid {
			req.EnteredAt = &enteredAt.Time
		}
		if leftAt.Valid {
			req.LeftAt = &leftAt.Time
		}
		visitor.VehiclePlate = plate.String
		items = append(items, &domain.VisitRequestWithVisitor{Request: req, Visitor: visitor})
	}
	return items, rows.Err()
}

func (r *visitRequestRepository) ListApprovedByIDNumber(ctx context.Context, idNumber string) ([]*domain.VisitRequest, error) {
	query := `
		SELECT vr.id, vr.visitor_id, vr.resident_id, vr.purpose, vr.visit_type, vr.window_start, vr.window_end,
		       vr.status, vr.denial_reason, vr.gate_pass, vr.decided_at, vr.entered_at, vr.left_at, vr.created_at, vr.updated_at
		FROM visit_requests vr
		JOIN visitors v ON v.id = vr.visitor_id
		WHERE v.id_number = $1 AND vr.status = 'approved'
		ORDER BY vr.created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, idNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]*domain.VisitRequest, 0)
	for rows.Next() {
		req := &domain.VisitRequest{}
		var reason, gatePass sql.NullString
		var decidedAt, enteredAt, leftAt sql.NullTime
		if err := rows.Scan(
			&req.ID, &req.VisitorID, &req.ResidentID, &req.Purpose, &req.VisitType,
			&req.WindowStart, &req.WindowEnd, &req.Status, &reason, &gatePass,
			&decidedAt, &enteredAt, &leftAt, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		req.DenialReason = reason.String
		req.GatePass = gatePass.String
		if decidedAt.Valid {
			req.DecidedAt = &decidedAt.Time
		}
		if enteredAt.Valid {
			req.EnteredAt = &enteredAt.Time
		}
		if leftAt.Valid {
			req.LeftAt = &leftAt.Time
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// MarkApproved is a compare-and-set from pending. updated=false means the
// row is missing or no longer pending.
func (r *visitRequestRepository) MarkApproved(ctx context.Context, id, gatePass string, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE visit_requests
		SET status = 'approved', gate_pass = $2, decided_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.DB.ExecContext(ctx, query, id, gatePass, decidedAt)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *visitRequestRepository) MarkDenied(ctx context.Context, id string, from domain.VisitStatus, reason string, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE visit_requests
		SET status = 'denied', denial_reason = $3, decided_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.DB.ExecContext(ctx, query, id, from, reason, decidedAt)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *visitRequestRepository) MarkCancelled(ctx context.Context, id string, from domain.VisitStatus) (bool, error) {
	query := `
		UPDATE visit_requests
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.DB.ExecContext(ctx, query, id, from)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *visitRequestRepository) MarkCheckedIn(ctx context.Context, id string, enteredAt time.Time) (bool, error) {
	query := `
		UPDATE visit_requests
		SET status = 'checked_in', entered_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'approved'
	`
	result, err := r.DB.ExecContext(ctx, query, id, enteredAt)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *visitRequestRepository) MarkCheckedOut(ctx context.Context, id string, leftAt time.Time) (bool, error) {
	query := `
		UPDATE visit_requests
		SET status = 'checked_out', left_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'checked_in'
	`
	result, err := r.DB.ExecContext(ctx, query, id, leftAt)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *visitRequestRepository) ExpireOverdue(ctx context.Context, cutoff time.Time) ([]*domain.VisitRequest, error) {
	query := `
		UPDATE visit_requests
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND window_end < $1
		RETURNING id, visitor_id, resident_id, purpose, visit_type, window_start, window_end, status, created_at, updated_at
	`
	rows, err := r.DB.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]*domain.VisitRequest, 0)
	for rows.Next() {
		req := &domain.VisitRequest{}
		if err := rows.Scan(
			&req.ID, &req.VisitorID, &req.ResidentID, &req.Purpose, &req.VisitType,
			&req.WindowStart, &req.WindowEnd, &req.Status, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *visitRequestRepository) CountByStatus(ctx context.Context) (map[domain.VisitStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM visit_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.VisitStatus]int)
	for rows.Next() {
		var status domain.VisitStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
