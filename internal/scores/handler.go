package scores

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/documents"
	"resume-builder/internal/scoring"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/score", h.score)
	rg.GET("/documents/:id/score", h.current)
	rg.GET("/documents/:id/score/history", h.history)
	rg.POST("/documents/:id/suggestions/apply", h.apply)
}

type scoreRequest struct {
	JobDescription string `json:"jobDescription" validate:"max=20000"`
}

type applyRequest struct {
	Version int            `json:"version" validate:"required,gte=1"`
	Action  scoring.Action `json:"action" validate:"required"`
}

// ScoreResponse is the stored score as returned to clients.
type ScoreResponse struct {
	DocumentID         string               `json:"documentId"`
	Version            int                  `json:"version"`
	Overall            int                  `json:"overall"`
	Dimensions         scoring.Dimensions   `json:"dimensions"`
	Breakdown          scoring.Breakdown    `json:"breakdown"`
	Suggestions        []scoring.Suggestion `json:"suggestions"`
	JobDescriptionHash string               `json:"jobDescriptionHash,omitempty"`
	CalculatedAt       time.Time            `json:"calculatedAt"`
}

func toResponse(rec Record) ScoreResponse {
	return ScoreResponse{
		DocumentID:         rec.DocumentID,
		Version:            rec.Version,
		Overall:            rec.Score.Overall,
		Dimensions:         rec.Score.Dimensions,
		Breakdown:          rec.Score.Breakdown,
		Suggestions:        rec.Score.Suggestions,
		JobDescriptionHash: rec.JobDescriptionHash,
		CalculatedAt:       rec.CalculatedAt,
	}
}

func (h *Handler) score(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	var req scoreRequest
	// An empty body scores without a job description.
	if c.Request.ContentLength != 0 && !respond.BindJSON(c, &req) {
		return
	}
	rec, err := h.Svc.Score(c.Request.Context(), middleware.UserIDFromContext(c), id, req.JobDescription)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) current(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	rec, err := h.Svc.Current(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) history(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	recs, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	items := make([]ScoreResponse, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toResponse(rec))
	}
	respond.OK(c, gin.H{"history": items})
}

func (h *Handler) apply(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	var req applyRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	doc, err := h.Svc.ApplySuggestion(c.Request.Context(), middleware.UserIDFromContext(c), id, req.Version, req.Action)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, documents.ToResponse(doc))
}
