package export

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/storage/object/local"
	"resume-builder/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
	// Files serves signed local download links; nil when blobs live in S3.
	Files *local.Store
}

func NewHandler(svc *Service, files *local.Store) *Handler {
	return &Handler{Svc: svc, Files: files}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	requireUser := middleware.RequireUser()
	rg.POST("/documents/:id/exports", requireUser, h.create)
	rg.GET("/exports", requireUser, h.list)
	rg.GET("/exports/:id", requireUser, h.get)
	rg.POST("/exports/:id/cancel", requireUser, h.cancel)
	rg.GET("/exports/:id/download", requireUser, h.download)
	rg.GET("/exports/:id/file", requireUser, h.file)
}

// RegisterFileRoutes attaches the unauthenticated signed-link route for the local store.
func (h *Handler) RegisterFileRoutes(r gin.IRoutes) {
	if h.Files == nil {
		return
	}
	r.GET(local.FilesPath, h.signedFile)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if c.Request.ContentLength != 0 && !respond.BindJSON(c, &req) {
		return
	}
	job, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), CreateInput{
		TemplateID: req.TemplateID,
		RequestID:  middleware.RequestIDFromContext(c),
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Accepted(c, "/api/v1/exports/"+job.ID, ToResponse(job))
}

func (h *Handler) list(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respond.FromError(c, apperr.Validation("invalid limit", apperr.FieldError{Field: "limit", Issue: "must be a positive integer"}))
			return
		}
		limit = parsed
	}
	jobs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	items := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, ToResponse(job))
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	job, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(job))
}

func (h *Handler) cancel(c *gin.Context) {
	job, err := h.Svc.Cancel(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(job))
}

func (h *Handler) download(c *gin.Context) {
	link, err := h.Svc.Download(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, link)
}

func (h *Handler) file(c *gin.Context) {
	body, job, err := h.Svc.Open(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer body.Close()
	streamPDF(c, body, FileName(job), job.SizeBytes)
}

func (h *Handler) signedFile(c *gin.Context) {
	key := c.Query("key")
	name := c.Query("name")
	if err := h.Files.VerifyDownload(key, name, c.Query("exp"), c.Query("sig")); err != nil {
		respond.FromError(c, apperr.Unauthorized("invalid or expired download link"))
		return
	}
	body, err := h.Files.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.FromError(c, ErrNotFound)
			return
		}
		respond.FromError(c, apperr.Internal(err))
		return
	}
	defer body.Close()
	streamPDF(c, body, name, -1)
}

func streamPDF(c *gin.Context, body io.Reader, name string, size int64) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, size, "application/pdf", body, nil)
	telemetry.Info("export.downloaded", map[string]any{"file_name": name})
}
