package quota

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

// Handler exposes usage endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", middleware.RequireUser(), h.getUsage)
}

type usageResponse struct {
	Plan           string    `json:"plan"`
	Limit          int       `json:"limit"`
	OperationCount int       `json:"operationCount"`
	TokenCount     int64     `json:"tokenCount"`
	TotalCost      float64   `json:"totalCost"`
	Remaining      int       `json:"remaining"`
	Allowed        bool      `json:"allowed"`
	PeriodStart    time.Time `json:"periodStart"`
	PeriodEnd      time.Time `json:"periodEnd"`
}

func (h *Handler) getUsage(c *gin.Context) {
	st, err := h.Svc.Check(c.Request.Context(), middleware.UserIDFromContext(c), middleware.UserPlanFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, usageResponse{
		Plan:           st.Plan,
		Limit:          st.Limit,
		OperationCount: st.OperationCount,
		TokenCount:     st.TokenCount,
		TotalCost:      st.TotalCost,
		Remaining:      st.Remaining,
		Allowed:        st.Allowed,
		PeriodStart:    st.PeriodStart,
		PeriodEnd:      st.PeriodEnd,
	})
}
