package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/account"
	"resume-builder/internal/ai"
	authhandler "resume-builder/internal/auth"
	"resume-builder/internal/documents"
	"resume-builder/internal/export"
	"resume-builder/internal/quota"
	"resume-builder/internal/scores"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/templates"
)

const apiPrefix = "/api/v1"

// Requests under these prefixes skip identity checks.
var publicPrefixes = []string{
	apiPrefix + "/health",
	apiPrefix + "/metrics",
	apiPrefix + "/auth/",
	apiPrefix + "/files",
	apiPrefix + "/templates",
}

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config      config.Config
	Signer      *auth.Signer
	RateLimiter *middleware.RateLimiter
	Health      *health.Service
	Auth        *authhandler.Handler
	GoogleAuth  *authhandler.GoogleService
	Account     *account.Handler
	Documents   *documents.Handler
	Templates   *templates.Handler
	Scores      *scores.Handler
	AI          *ai.Handler
	Quota       *quota.Handler
	Exports     *export.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigins),
		middleware.Auth(deps.Signer, publicPrefixes...),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules,
			GroupFor: rateLimitGroup,
			Limiter:  deps.RateLimiter,
		}),
	)

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.Auth != nil {
		deps.Auth.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Account != nil {
		deps.Account.RegisterRoutes(api)
	}
	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(api)
	}
	if deps.Templates != nil {
		deps.Templates.RegisterRoutes(api)
	}
	if deps.Scores != nil {
		deps.Scores.RegisterRoutes(api)
	}
	if deps.AI != nil {
		deps.AI.RegisterRoutes(api)
	}
	if deps.Quota != nil {
		deps.Quota.RegisterRoutes(api)
	}
	if deps.Exports != nil {
		deps.Exports.RegisterRoutes(api)
		deps.Exports.RegisterFileRoutes(r)
	}

	return r
}

var rateLimitRules = map[string]middleware.RateLimitRule{
	"DEFAULT": {Rate: 10, Burst: 60},
	"AI":      {Rate: 0.5, Burst: 10},
	"EXPORT":  {Rate: 0.2, Burst: 5},
}

func rateLimitGroup(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case strings.HasPrefix(path, apiPrefix+"/ai/"):
		return "AI"
	case c.Request.Method == http.MethodPost && strings.HasSuffix(path, "/exports"):
		return "EXPORT"
	default:
		return "DEFAULT"
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
