package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"visitorgate/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestVisitRequestRepository_Create(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO visit_requests`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("visit-uuid-1"))

	repo := NewVisitRequestRepository(db)
	req := domain.NewVisitRequest(
		"visitor-uuid-1", "resident-uuid-1", "family visit", domain.VisitTypePersonal,
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Now(), time.Now(),
	)
	require.NoError(t, repo.Create(ctx, req))
	require.Equal(t, "visit-uuid-1", req.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRequestRepository_MarkApproved(t *testing.T) {
	ctx := context.Background()
	decidedAt := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mock        func(mock sqlmock.Sqlmock)
		wantUpdated bool
		wantErr     bool
	}{
		{
			name: "pending row updated",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE visit_requests`).
					WithArgs("visit-uuid-1", "GP-1234", decidedAt).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantUpdated: true,
		},
		{
			name: "no longer pending",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE visit_requests`).
					WithArgs("visit-uuid-1", "GP-1234", decidedAt).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantUpdated: false,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE visit_requests`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewVisitRequestRepository(db)
			updated, err := repo.MarkApproved(ctx, "visit-uuid-1", "GP-1234", decidedAt)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.wantUpdated, updated)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVisitRequestRepository_MarkCheckedIn(t *testing.T) {
	ctx := context.Background()
	enteredAt := time.Date(2026, 3, 1, 10, 10, 0, 0, time.UTC)

	t.Run("approved row updated", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE visit_requests`).
			WithArgs("visit-uuid-1", enteredAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewVisitRequestRepository(db)
		updated, err := repo.MarkCheckedIn(ctx, "visit-uuid-1", enteredAt)
		require.NoError(t, err)
		require.True(t, updated)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not approved", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE visit_requests`).
			WithArgs("visit-uuid-1", enteredAt).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewVisitRequestRepository(db)
		updated, err := repo.MarkCheckedIn(ctx, "visit-uuid-1", enteredAt)
		require.NoError(t, err)
		require.False(t, updated)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVisitRequestRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM visit_requests`).
		WithArgs("nonexistent").
		WillReturnError(sql.ErrNoRows)

	repo := NewVisitRequestRepository(db)
	_, err = repo.GetByID(context.Background(), "nonexistent")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRequestRepository_ExpireOverdue(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "visitor_id", "resident_id", "purpose", "visit_type",
		"window_start", "window_end", "status", "created_at", "updated_at",
	}).AddRow(
		"visit-uuid-1", "visitor-uuid-1", "resident-uuid-1", "delivery", "delivery",
		cutoff.Add(-3*time.Hour), cutoff.Add(-time.Hour), "expired", cutoff.Add(-4*time.Hour), cutoff,
	)
	mock.ExpectQuery(`UPDATE visit_requests`).
		WithArgs(cutoff).
		WillReturnRows(rows)

	repo := NewVisitRequestRepository(db)
	expired, err := repo.ExpireOverdue(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, domain.VisitExpired, expired[0].Status)
	require.Equal(t, "resident-uuid-1", expired[0].ResidentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRequestRepository_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM visit_requests GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("approved", 2).
			AddRow("checked_out", 7))

	repo := NewVisitRequestRepository(db)
	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, counts[domain.VisitPending])
	require.Equal(t, 2, counts[domain.VisitApproved])
	require.Equal(t, 7, counts[domain.VisitCheckedOut])
	require.NoError(t, mock.ExpectationsWereMet())
}
