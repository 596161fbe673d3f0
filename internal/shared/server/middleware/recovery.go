package middleware

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard 500 envelope and logs the
// stack with the request and user ids. Broken client connections are left to gin.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		telemetry.Error("http.panic", map[string]any{
			"request_id": RequestIDFromContext(c),
			"user_id":    UserIDFromContext(c),
			"route":      c.FullPath(),
			"method":     c.Request.Method,
			"error":      fmt.Sprint(rec),
			"stack":      string(debug.Stack()),
		})
		respond.FromError(c, apperr.Internal(fmt.Errorf("panic: %v", rec)))
	})
}
