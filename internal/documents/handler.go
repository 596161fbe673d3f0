package documents

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/content"
	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.create)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.delete)
	rg.POST("/documents/:id/status", h.changeStatus)
	rg.POST("/documents/:id/duplicate", h.duplicate)
	rg.GET("/documents/:id/versions", h.listVersions)
	rg.GET("/documents/:id/versions/:version", h.getVersion)
	rg.POST("/documents/:id/versions/:version/restore", h.restore)
	rg.GET("/documents/:id/preview", h.preview)
}

func documentID(c *gin.Context) string {
	id := c.Param("id")
	c.Set("documentId", id)
	return id
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	doc, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		Kind:       content.Kind(req.Kind),
		Title:      req.Title,
		Content:    req.Content,
		TemplateID: req.TemplateID,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.Created(c, "/api/v1/documents/"+doc.ID, ToResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), ListFilter{
		Kind:   content.Kind(c.Query("kind")),
		Status: Status(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}

	items := make([]SummaryResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toSummary(doc))
	}
	respond.OK(c, gin.H{"documents": items, "limit": limit, "offset": offset})
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), documentID(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(doc))
}

func (h *Handler) update(c *gin.Context) {
	id := documentID(c)
	var req updateRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	doc, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), id, UpdateInput{
		Version:    req.Version,
		Title:      req.Title,
		Content:    req.Content,
		TemplateID: req.TemplateID,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), documentID(c)); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) changeStatus(c *gin.Context) {
	id := documentID(c)
	var req statusRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	userID := middleware.UserIDFromContext(c)
	doc, err := h.Svc.ChangeStatus(c.Request.Context(), userID, id, req.Version, Status(req.Status))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("statusTransition", req.Status)
	respond.OK(c, ToResponse(doc))
}

func (h *Handler) duplicate(c *gin.Context) {
	doc, err := h.Svc.Duplicate(c.Request.Context(), middleware.UserIDFromContext(c), documentID(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, "/api/v1/documents/"+doc.ID, ToResponse(doc))
}

func (h *Handler) listVersions(c *gin.Context) {
	versions, err := h.Svc.ListVersions(c.Request.Context(), middleware.UserIDFromContext(c), documentID(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	items := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		items = append(items, toVersionResponse(v, false))
	}
	respond.OK(c, gin.H{"versions": items})
}

func (h *Handler) getVersion(c *gin.Context) {
	id := documentID(c)
	version, ok := versionParam(c)
	if !ok {
		return
	}
	v, err := h.Svc.GetVersion(c.Request.Context(), middleware.UserIDFromContext(c), id, version)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toVersionResponse(v, true))
}

func (h *Handler) restore(c *gin.Context) {
	id := documentID(c)
	target, ok := versionParam(c)
	if !ok {
		return
	}
	var req restoreRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	doc, err := h.Svc.Restore(c.Request.Context(), middleware.UserIDFromContext(c), id, target, req.Version)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(doc))
}

func (h *Handler) preview(c *gin.Context) {
	html, err := h.Svc.Preview(c.Request.Context(), middleware.UserIDFromContext(c), documentID(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func versionParam(c *gin.Context) (int, bool) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		respond.FromError(c, apperr.Validation("invalid version", apperr.FieldError{Field: "version", Issue: "must be >= 1"}))
		return 0, false
	}
	return version, true
}
