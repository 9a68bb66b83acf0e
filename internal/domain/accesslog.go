package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateLogEntry is returned when an entry or exit event already exists
// for the same visit request.
var ErrDuplicateLogEntry = errors.New("duplicate access log entry")

// AccessEventType distinguishes entry from exit events.
type AccessEventType string

// Access log event types.
const (
	AccessEntry AccessEventType = "entry"
	AccessExit  AccessEventType = "exit"
)

// AccessLogEntry is one append-only entry or exit record for a visit request.
// At most one row per (visit request, event type) pair.
type AccessLogEntry struct {
	ID             string          `json:"id"`
	VisitRequestID string          `json:"visit_request_id"`
	EventType      AccessEventType `json:"event_type"`
	RecordedBy     string          `json:"recorded_by"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewAccessLogEntry returns a new AccessLogEntry. ID is typically set by the repository on create.
func NewAccessLogEntry(visitRequestID string, eventType AccessEventType, recordedBy string, occurredAt time.Time) *AccessLogEntry {
	return &AccessLogEntry{
		VisitRequestID: visitRequestID,
		EventType:      eventType,
		RecordedBy:     recordedBy,
		OccurredAt:     occurredAt,
	}
}

// AccessLogRecord is an access log row joined with its visit and visitor,
// as served by reports.
type AccessLogRecord struct {
	ID              string          `json:"id"`
	VisitRequestID  string          `json:"visit_request_id"`
	EventType       AccessEventType `json:"event_type"`
	OccurredAt      time.Time       `json:"occurred_at"`
	VisitorName     string          `json:"visitor_name"`
	VisitorIDNumber string          `json:"visitor_id_number"`
	ResidentID      string          `json:"resident_id"`
	Purpose         string          `json:"purpose"`
}

// AccessLogRepository defines storage operations for the append-only access log.
type AccessLogRepository interface {
	// Append inserts one event row. A duplicate (visit request, event type)
	// pair fails with ErrDuplicateLogEntry.
	Append(ctx context.Context, entry *AccessLogEntry) error
	ListByVisitRequestID(ctx context.Context, visitRequestID string) ([]*AccessLogEntry, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*AccessLogRecord, error)
	CountBetween(ctx context.Context, eventType AccessEventType, from, to time.Time) (int, error)
}
