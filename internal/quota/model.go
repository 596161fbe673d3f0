package quota

import "time"

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Usage is a user's AI consumption inside the current rolling window.
type Usage struct {
	UserID         string
	OperationCount int
	TokenCount     int64
	TotalCost      float64
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// Status is Usage evaluated against the limit of the user's plan.
type Status struct {
	Usage
	Plan      string
	Limit     int
	Remaining int
	Allowed   bool
}

// Delta is what one completed AI operation adds to the counters.
type Delta struct {
	Operations int
	Tokens     int64
	Cost       float64
}

func normalizePlan(plan string) string {
	if plan == PlanPro {
		return PlanPro
	}
	return PlanFree
}
