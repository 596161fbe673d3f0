package quota

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreIncrementIsSingleUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := now.Add(24 * time.Hour)
	rows := sqlmock.NewRows([]string{"user_id", "operation_count", "token_count", "total_cost", "period_start", "period_end"}).
		AddRow("user-1", 4, int64(820), 0.0016, now, end)
	mock.ExpectQuery("INSERT INTO ai_quotas").
		WithArgs("user-1", now, end, 1, int64(120), 0.00024).
		WillReturnRows(rows)

	u, err := NewPGStore(db).Increment(context.Background(), "user-1", Delta{Operations: 1, Tokens: 120, Cost: 0.00024}, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if u.OperationCount != 4 || u.TokenCount != 820 || !u.PeriodEnd.Equal(end) {
		t.Fatalf("unexpected usage: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
