package templates

import (
	"github.com/gin-gonic/gin"

	"resume-builder/internal/content"
	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/server/respond"
)

// Handler serves the template catalog.
type Handler struct {
	Catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{Catalog: catalog}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.list)
}

func (h *Handler) list(c *gin.Context) {
	kind := content.Kind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		respond.FromError(c, apperr.Validation("invalid kind", apperr.FieldError{Field: "kind", Issue: "must be one of: resume cover_letter"}))
		return
	}
	respond.OK(c, gin.H{"templates": h.Catalog.List(kind)})
}
