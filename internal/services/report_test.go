package services

import (
	"context"
	"testing"
	"time"

	"visitorgate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newVisitFixture()

	f.seedRequest(domain.VisitPending, "resident-1", "ID-1")
	f.seedRequest(domain.VisitApproved, "resident-1", "ID-2")
	f.seedRequest(domain.VisitCheckedIn, "resident-2", "ID-3")
	f.blacklist.entries["ID-9"] = domain.NewBlacklistEntry("ID-9", "trespassing", "admin-1", time.Now())

	now := time.Now().UTC()
	f.accessLog.records = []*domain.AccessLogRecord{
		{ID: "log-1", EventType: domain.AccessEntry, OccurredAt: now},
		{ID: "log-2", EventType: domain.AccessExit, OccurredAt: now},
		{ID: "log-3", EventType: domain.AccessEntry, OccurredAt: now.Add(-48 * time.Hour)},
	}

	svc := NewReportService(f.accessLog, f.visits, f.visitors, f.blacklist, 2*time.Second)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalVisitors)
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 1, stats.RequestsByStatus[domain.VisitPending])
	assert.Equal(t, 1, stats.RequestsByStatus[domain.VisitApproved])
	assert.Equal(t, 1, stats.RequestsByStatus[domain.VisitCheckedIn])
	assert.Equal(t, 1, stats.EntriesToday)
	assert.Equal(t, 1, stats.ExitsToday)
	assert.Equal(t, 1, stats.BlacklistSize)
}

func TestReportService_RangeLog(t *testing.T) {
	ctx := context.Background()
	f := newVisitFixture()
	now := time.Now().UTC()
	f.accessLog.records = []*domain.AccessLogRecord{
		{ID: "log-1", EventType: domain.AccessEntry, OccurredAt: now.Add(-time.Hour), VisitorName: "Jane Visitor"},
		{ID: "log-2", EventType: domain.AccessExit, OccurredAt: now.Add(-30 * time.Minute), VisitorName: "Jane Visitor"},
		{ID: "log-3", EventType: domain.AccessEntry, OccurredAt: now.Add(-72 * time.Hour), VisitorName: "Old Visitor"},
	}
	svc := NewReportService(f.accessLog, f.visits, f.visitors, f.blacklist, 2*time.Second)

	records, err := svc.RangeLog(ctx, now.Add(-2*time.Hour), now)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = svc.RangeLog(ctx, now, now.Add(-time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "range end")
}

func TestReportService_DailyLog(t *testing.T) {
	ctx := context.Background()
	f := newVisitFixture()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	f.accessLog.records = []*domain.AccessLogRecord{
		{ID: "log-1", EventType: domain.AccessEntry, OccurredAt: day.Add(9 * time.Hour)},
		{ID: "log-2", EventType: domain.AccessExit, OccurredAt: day.Add(17 * time.Hour)},
		{ID: "log-3", EventType: domain.AccessEntry, OccurredAt: day.Add(25 * time.Hour)},
	}
	svc := NewReportService(f.accessLog, f.visits, f.visitors, f.blacklist, 2*time.Second)

	records, err := svc.DailyLog(ctx, day.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
