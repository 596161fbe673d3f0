package health

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestStatusWithoutDatabase(t *testing.T) {
	report := NewService(nil, "dev").Status(context.Background())
	require.True(t, report.OK)
	require.Equal(t, "memory", report.Database)
	require.Equal(t, "dev", report.Env)
}

func TestStatusPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(db, "production")
	svc.SchemaVersion = func(ctx context.Context, db *sql.DB) (int64, error) { return 6, nil }

	mock.ExpectPing()
	report := svc.Status(context.Background())
	require.True(t, report.OK)
	require.Equal(t, "ok", report.Database)
	require.Equal(t, int64(6), report.SchemaVersion)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	report = svc.Status(context.Background())
	require.False(t, report.OK)
	require.Equal(t, "unreachable", report.Database)
	require.NoError(t, mock.ExpectationsWereMet())
}
