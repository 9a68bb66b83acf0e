package services

import (
	"context"
	"fmt"
	"time"

	"visitorgate/internal/domain"
)

type reportService struct {
	accessLogRepo  domain.AccessLogRepository
	visitRepo      domain.VisitRequestRepository
	visitorRepo    domain.VisitorRepository
	blacklistRepo  domain.BlacklistRepository
	contextTimeout time.Duration
}

// NewReportService creates a ReportService over the given repositories.
func NewReportService(accessLogRepo domain.AccessLogRepository,
	visitRepo domain.VisitRequestRepository,
	visitorRepo domain.VisitorRepository,
	blacklistRepo domain.BlacklistRepository,
	timeout time.Duration,
) domain.ReportService {
	return &reportService{
		accessLogRepo:  accessLogRepo,
		visitRepo:      visitRepo,
		visitorRepo:    visitorRepo,
		blacklistRepo:  blacklistRepo,
		contextTimeout: timeout,
	}
}

func (s *reportService) DailyLog(ctx context.Context, day time.Time) ([]*domain.AccessLogRecord, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	return s.RangeLog(ctx, from, from.Add(24*time.Hour))
}

func (s *reportService) RangeLog(ctx context.Context, from, to time.Time) ([]*domain.AccessLogRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !to.After(from) {
		return nil, fmt.Errorf("range end must be after its start")
	}
	records, err := s.accessLogRepo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list access log: %w", err)
	}
	if records == nil {
		records = []*domain.AccessLogRecord{}
	}
	return records, nil
}

func (s *reportService) Stats(ctx context.Context) (*domain.SystemStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	byStatus, err := s.visitRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}
	total := 0
	for _, n := range byStatus {
		total += n
	}

	visitors, err := s.visitorRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count visitors: %w", err)
	}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	entries, err := s.accessLogRepo.CountBetween(ctx, domain.AccessEntry, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("count today's entries: %w", err)
	}
	exits, err := s.accessLogRepo.CountBetween(ctx, domain.AccessExit, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("count today's exits: %w", err)
	}

	blacklisted, err := s.blacklistRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count blacklist entries: %w", err)
	}

	return &domain.SystemStats{
		TotalVisitors:    visitors,
		TotalRequests:    total,
		RequestsByStatus: byStatus,
		EntriesToday:     entries,
		ExitsToday:       exits,
		BlacklistSize:    blacklisted,
	}, nil
}
