package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"visitorgate/internal/domain"
)

type accessLogRepository struct {
	DB *sql.DB
}

// NewAccessLogRepository returns a domain.AccessLogRepository implemented with Postgres.
func NewAccessLogRepository(db *sql.DB) domain.AccessLogRepository {
	return &accessLogRepository{DB: db}
}

func (r *accessLogRepository) Append(ctx context.Context, entry *domain.AccessLogEntry) error {
	query := `
		INSERT INTO access_log (visit_request_id, event_type, recorded_by, occurred_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, entry.VisitRequestID, entry.EventType, entry.RecordedBy, entry.OccurredAt).Scan(&entry.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateLogEntry
		}
		return err
	}
	return nil
}

func (r *accessLogRepository) ListByVisitRequestID(ctx context.Context, visitRequestID string) ([]*domain.AccessLogEntry, error) {
	query := `
		SELECT id, visit_request_id, event_type, recorded_by, occurred_at
		FROM access_log
		WHERE visit_request_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, visitRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.AccessLogEntry, 0)
	for rows.Next() {
		e := &domain.AccessLogEntry{}
		if err := rows.Scan(&e.ID, &e.VisitRequestID, &e.EventType, &e.RecordedBy, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *accessLogRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.AccessLogRecord, error) {
	query := `
		SELECT al.id, al.visit_request_id, al.event_type, al.occurred_at,
		       v.full_name, v.id_number, vr.resident_id, vr.purpose
		FROM access_log al
		JOIN visit_requests vr ON vr.id = al.visit_request_id
		JOIN visitors v ON v.id = vr.visitor_id
		WHERE al.occurred_at >= $1 AND al.occurred_at < $2
		ORDER BY al.occurred_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.AccessLogRecord, 0)
	for rows.Next() {
		rec := &domain.AccessLogRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.VisitRequestID, &rec.EventType, &rec.OccurredAt,
			&rec.VisitorName, &rec.VisitorIDNumber, &rec.ResidentID, &rec.Purpose,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *accessLogRepository) CountBetween(ctx context.Context, eventType domain.AccessEventType, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM access_log
		WHERE event_type = $1 AND occurred_at >= $2 AND occurred_at < $3
	`
	var n int
	err := r.DB.QueryRowContext(ctx, query, eventType, from, to).Scan(&n)
	return n, err
}
