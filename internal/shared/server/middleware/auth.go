package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
	userPlanKey    = "userPlan"
	isGuestKey     = "isGuest"
	guestPrefix    = "guest:"
)

// Auth validates bearer tokens or guest headers and stores identity in context.
// Requests under any of publicPrefixes pass through without identity.
func Auth(signer *auth.Signer, publicPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.FromError(c, apperr.Unauthorized("missing or invalid token"))
				return
			}
			claims, err := signer.Verify(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer")))
			if err != nil {
				respond.FromError(c, apperr.Unauthorized("missing or invalid token"))
				return
			}

			c.Set(userIDKey, claims.UserID())
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			if claims.Picture != "" {
				c.Set(userPictureKey, claims.Picture)
			}
			if claims.Plan != "" {
				c.Set(userPlanKey, claims.Plan)
			}
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.FromError(c, apperr.Unauthorized("Missing identity"))
			return
		}
		if _, err := uuid.Parse(guestID); err != nil {
			respond.FromError(c, apperr.Unauthorized("invalid guest id"))
			return
		}

		c.Set(userIDKey, guestPrefix+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

// RequireUser rejects guest identities.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsGuest(c) || UserIDFromContext(c) == "" {
			respond.FromError(c, apperr.Unauthorized("login required"))
			return
		}
		c.Next()
	}
}

// IsGuest reports whether the request carries a guest identity.
func IsGuest(c *gin.Context) bool {
	return c.GetBool(isGuestKey)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}

// UserPlanFromContext fetches the plan claim set by the auth middleware.
func UserPlanFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userPlanKey)
}
