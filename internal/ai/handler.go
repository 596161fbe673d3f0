package ai

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

// Handler exposes the enhancer endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches AI routes to the router group. All of them require a signed-in user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/ai", middleware.RequireUser())
	g.POST("/bullets/rewrite", h.rewriteBullet)
	g.POST("/summary", h.generateSummary)
	g.POST("/keywords", h.extractKeywords)
	g.POST("/job-match", h.jobMatch)
}

type rewriteBulletRequest struct {
	Bullet         string `json:"bullet" validate:"required,max=500"`
	Position       string `json:"position" validate:"max=200"`
	Company        string `json:"company" validate:"max=200"`
	JobDescription string `json:"jobDescription" validate:"max=20000"`
}

type summaryRequest struct {
	DocumentID     string `json:"documentId" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"max=20000"`
}

type keywordsRequest struct {
	JobDescription string `json:"jobDescription" validate:"required,max=20000"`
}

type jobMatchRequest struct {
	DocumentID     string `json:"documentId" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required,max=20000"`
}

func caller(c *gin.Context) Caller {
	return Caller{UserID: middleware.UserIDFromContext(c), Plan: middleware.UserPlanFromContext(c)}
}

func (h *Handler) rewriteBullet(c *gin.Context) {
	var req rewriteBulletRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	out, err := h.Svc.RewriteBullet(c.Request.Context(), caller(c), RewriteBulletInput{
		Bullet:         req.Bullet,
		Position:       req.Position,
		Company:        req.Company,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"suggestions": out.Value.Suggestions, "cached": out.Cached})
}

func (h *Handler) generateSummary(c *gin.Context) {
	var req summaryRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	out, err := h.Svc.GenerateSummary(c.Request.Context(), caller(c), req.DocumentID, req.JobDescription)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"summary": out.Value.Summary, "cached": out.Cached})
}

func (h *Handler) extractKeywords(c *gin.Context) {
	var req keywordsRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	out, err := h.Svc.ExtractKeywords(c.Request.Context(), caller(c), req.JobDescription)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"keywords": out.Value.Keywords, "cached": out.Cached})
}

func (h *Handler) jobMatch(c *gin.Context) {
	var req jobMatchRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	out, err := h.Svc.JobMatch(c.Request.Context(), caller(c), req.DocumentID, req.JobDescription)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"score":          out.Value.Score,
		"strengths":      out.Value.Strengths,
		"gaps":           out.Value.Gaps,
		"recommendation": out.Value.Recommendation,
		"cached":         out.Cached,
	})
}
