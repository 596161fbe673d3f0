package quota

import (
	"context"
	"time"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
)

const (
	DefaultFreeLimit = 20
	DefaultProLimit  = 200
	DefaultWindow    = 24 * time.Hour
)

// Service evaluates and records per-user AI usage against plan limits.
type Service struct {
	Store     Store
	FreeLimit int
	ProLimit  int
	Window    time.Duration
	Now       func() time.Time
}

// NewService constructs a Service with the default limits.
func NewService(store Store) *Service {
	return &Service{
		Store:     store,
		FreeLimit: DefaultFreeLimit,
		ProLimit:  DefaultProLimit,
		Window:    DefaultWindow,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// LimitFor returns the operation limit of a plan; unknown plans get the free limit.
func (s *Service) LimitFor(plan string) int {
	if normalizePlan(plan) == PlanPro {
		return s.ProLimit
	}
	return s.FreeLimit
}

// Check returns the current window, resetting it first when it has ended.
func (s *Service) Check(ctx context.Context, userID, plan string) (Status, error) {
	u, err := s.Store.Current(ctx, userID, s.Now(), s.Window)
	if err != nil {
		return Status{}, err
	}
	return s.status(u, plan), nil
}

// Enforce is Check that turns an exhausted window into a QuotaExceeded error.
func (s *Service) Enforce(ctx context.Context, userID, plan string) (Status, error) {
	st, err := s.Check(ctx, userID, plan)
	if err != nil {
		return Status{}, err
	}
	if !st.Allowed {
		metrics.IncAIQuotaDenied()
		telemetry.Warn("quota.exceeded", map[string]any{
			"user_id":    userID,
			"plan":       st.Plan,
			"limit":      st.Limit,
			"period_end": st.PeriodEnd,
		})
		return st, apperr.QuotaExceeded(st.PeriodEnd)
	}
	return st, nil
}

// Increment records one completed operation.
func (s *Service) Increment(ctx context.Context, userID string, tokens int64, cost float64) (Usage, error) {
	return s.Store.Increment(ctx, userID, Delta{Operations: 1, Tokens: tokens, Cost: cost}, s.Now(), s.Window)
}

func (s *Service) status(u Usage, plan string) Status {
	plan = normalizePlan(plan)
	limit := s.LimitFor(plan)
	remaining := limit - u.OperationCount
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Usage:     u,
		Plan:      plan,
		Limit:     limit,
		Remaining: remaining,
		Allowed:   u.OperationCount < limit,
	}
}
