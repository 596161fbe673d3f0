// Package health reports process and database readiness.
package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Report is the /health payload.
type Report struct {
	OK            bool   `json:"ok"`
	Database      string `json:"database"`
	SchemaVersion int64  `json:"schemaVersion,omitempty"`
	Env           string `json:"env"`
}

// Service encapsulates health-related checks. A nil DB means in-memory repositories.
type Service struct {
	DB            *sql.DB
	Env           string
	SchemaVersion func(ctx context.Context, db *sql.DB) (int64, error)
}

func NewService(db *sql.DB, env string) *Service {
	return &Service{DB: db, Env: env}
}

// Status pings the database when one is configured.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true, Database: "memory", Env: s.Env}
	if s.DB == nil {
		return report
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		report.OK = false
		report.Database = "unreachable"
		return report
	}
	report.Database = "ok"
	if s.SchemaVersion != nil {
		if v, err := s.SchemaVersion(pingCtx, s.DB); err == nil {
			report.SchemaVersion = v
		}
	}
	return report
}
