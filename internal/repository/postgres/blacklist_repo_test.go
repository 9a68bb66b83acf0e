package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"visitorgate/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestBlacklistRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		entry   *domain.BlacklistEntry
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name:  "success",
			entry: domain.NewBlacklistEntry("ID-100", "trespassing", "admin-uuid-1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO blacklist_entries`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bl-uuid-1"))
			},
		},
		{
			name:  "duplicate id number returns ErrAlreadyBlacklisted",
			entry: domain.NewBlacklistEntry("ID-100", "trespassing", "admin-uuid-1", time.Now()),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO blacklist_entries`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: true,
			errIs:   domain.ErrAlreadyBlacklisted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewBlacklistRepository(db)
			err = repo.Create(ctx, tt.entry)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, "bl-uuid-1", tt.entry.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlacklistRepository_IsBlacklisted(t *testing.T) {
	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    bool
		wantErr bool
	}{
		{
			name: "listed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("ID-100").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: true,
		},
		{
			name: "not listed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("ID-100").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: false,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
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
			repo := NewBlacklistRepository(db)
			got, err := repo.IsBlacklisted(context.Background(), "ID-100")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlacklistRepository_Remove(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM blacklist_entries`).
			WithArgs("ID-100").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewBlacklistRepository(db)
		require.NoError(t, repo.Remove(context.Background(), "ID-100"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM blacklist_entries`).
			WithArgs("ID-999").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewBlacklistRepository(db)
		require.ErrorIs(t, repo.Remove(context.Background(), "ID-999"), domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
