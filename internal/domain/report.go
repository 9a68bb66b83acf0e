package domain

import (
	"context"
	"time"
)

// SystemStats is the aggregate snapshot served by the stats report.
// swagger:model SystemStats
type SystemStats struct {
	TotalVisitors    int                 `json:"total_visitors"`
	TotalRequests    int                 `json:"total_requests"`
	RequestsByStatus map[VisitStatus]int `json:"requests_by_status"`
	EntriesToday     int                 `json:"entries_today"`
	ExitsToday       int                 `json:"exits_today"`
	BlacklistSize    int                 `json:"blacklist_size"`
}

// ReportService serves access log reports and system statistics.
type ReportService interface {
	DailyLog(ctx context.Context, day time.Time) ([]*AccessLogRecord, error)
	RangeLog(ctx context.Context, from, to time.Time) ([]*AccessLogRecord, error)
	Stats(ctx context.Context) (*SystemStats, error)
}
