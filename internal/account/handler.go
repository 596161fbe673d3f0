package account

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

const guestHeader = "X-Guest-Id"

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	requireUser := middleware.RequireUser()
	rg.GET("/me", requireUser, h.me)
	rg.DELETE("/me", requireUser, h.deleteMe)
	rg.POST("/account/claim-guest", requireUser, h.claimGuest)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.Profile(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, user)
}

func (h *Handler) deleteMe(c *gin.Context) {
	if _, err := h.Svc.DeleteAccount(c.Request.Context(), middleware.UserIDFromContext(c)); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) claimGuest(c *gin.Context) {
	guestID := strings.TrimSpace(c.GetHeader(guestHeader))
	if guestID == "" {
		respond.FromError(c, apperr.Validation("missing X-Guest-Id header", apperr.FieldError{Field: guestHeader, Issue: "required"}))
		return
	}
	if _, err := uuid.Parse(guestID); err != nil {
		respond.FromError(c, apperr.Validation("invalid guest id", apperr.FieldError{Field: guestHeader, Issue: "invalid"}))
		return
	}

	result, err := h.Svc.ClaimGuest(c.Request.Context(), "guest:"+guestID, middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, result)
}
