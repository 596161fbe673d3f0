package respond

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	ResetAt *time.Time  `json:"resetAt,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	write(c, status, ErrorBody{Code: code, Message: message, Details: details}, nil)
}

// FromError maps a classified error onto its status code and envelope.
// Internal errors are logged with their cause and sanitized for the client.
func FromError(c *gin.Context, err error) {
	e := apperr.As(err)
	body := ErrorBody{Code: string(e.Kind), Message: e.Message}
	if len(e.Fields) > 0 {
		body.Details = e.Fields
	}
	status := StatusFor(e.Kind)
	switch e.Kind {
	case apperr.KindQuotaExceeded, apperr.KindRateLimited:
		if !e.ResetAt.IsZero() {
			reset := e.ResetAt.UTC()
			body.ResetAt = &reset
			secs := int(math.Ceil(time.Until(reset).Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
		}
	case apperr.KindInternal:
		body.Message = "Unexpected server error"
	}
	write(c, status, body, e.Err)
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindQuotaExceeded, apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func write(c *gin.Context, status int, body ErrorBody, cause error) {
	fields := map[string]any{
		"status":     status,
		"code":       body.Code,
		"message":    body.Message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if isGuest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = isGuest
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}
