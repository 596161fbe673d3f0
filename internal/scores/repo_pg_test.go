package scores

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"resume-builder/internal/scoring"
)

func TestPGRepoSaveUpsertsCurrentAndHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	rec := Record{DocumentID: "doc-1", UserID: "user-1", Version: 3, Score: scoring.Score{Overall: 70}, CalculatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scores").
		WithArgs("doc-1", "user-1", 3, 70, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO score_history").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := (&PGRepo{DB: db}).Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCurrentDecodesJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"document_id", "user_id", "version", "overall", "dimensions", "breakdown", "suggestions", "job_description_hash", "calculated_at"}).
		AddRow("doc-1", "user-1", 2, 61, []byte(`{"ats":80,"keywords":50,"content":40,"format":70,"completeness":60}`), []byte(`{"bulletCount":4}`), []byte(`[]`), "abc", now)
	mock.ExpectQuery("FROM scores").WithArgs("doc-1").WillReturnRows(rows)

	rec, err := (&PGRepo{DB: db}).Current(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if rec.Score.Dimensions.ATS != 80 || rec.Score.Breakdown.BulletCount != 4 || rec.JobDescriptionHash != "abc" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
