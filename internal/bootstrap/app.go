package bootstrap

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/account"
	"resume-builder/internal/ai"
	authhandler "resume-builder/internal/auth"
	"resume-builder/internal/authlimit"
	"resume-builder/internal/documents"
	"resume-builder/internal/export"
	"resume-builder/internal/llm"
	"resume-builder/internal/llm/gemini"
	"resume-builder/internal/llm/openai"
	"resume-builder/internal/queue"
	"resume-builder/internal/quota"
	"resume-builder/internal/scores"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/server"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/storage/object"
	localstore "resume-builder/internal/shared/storage/object/local"
	s3store "resume-builder/internal/shared/storage/object/s3"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/templates"
	"resume-builder/internal/users"
)

const (
	limiterSweepInterval = time.Minute
	rateLimitIdle        = 10 * time.Minute
)

// App holds the wired services shared by the API, the worker and the lambdas.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.Store
	Files  *localstore.Store
	Queue  queue.Client
	LLM    llm.Client

	Signer          *auth.Signer
	Catalog         *templates.Catalog
	Documents       *documents.Service
	Scores          *scores.Service
	Quota           *quota.Service
	AICache         ai.Cache
	AI              *ai.Service
	Users           *users.Service
	AuthLimiter     *authlimit.Limiter
	Exports         *export.Service
	ExportProcessor *export.Processor
	Account         *account.Service
	Health          *health.Service
	RateLimiter     *middleware.RateLimiter

	closers []func() error
}

// Build wires every service. Without DATABASE_URL the repositories are in memory.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := telemetry.Configure(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if err := app.buildStore(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.ExportQueueURL) != "" {
		client, err := queue.NewSQSClient(ctx, cfg.ExportQueueURL, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		app.Queue = client
	}
	if app.LLM, err = app.buildLLM(ctx); err != nil {
		return nil, err
	}
	if err := app.buildServices(); err != nil {
		return nil, err
	}
	app.buildRouter()
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		telemetry.Info("bootstrap.memory_repositories", map[string]any{"env": cfg.Env})
		return nil, nil
	}
	overrides := db.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
		PingTimeout:     cfg.DB.PingTimeout,
	}
	if isLambdaRuntime() {
		return db.GetSingleton(ctx, cfg.DatabaseURL, db.DefaultLambdaOptions().Override(overrides))
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions().Override(overrides))
}

func isLambdaRuntime() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

func (a *App) buildStore(ctx context.Context) error {
	switch a.Config.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, a.Config.AWSRegion, a.Config.S3Bucket, a.Config.S3Prefix, a.Config.SSEKMSKeyID)
		if err != nil {
			return err
		}
		a.Store = store
	default:
		files := localstore.New(a.Config.LocalStoreDir, a.Config.PublicBaseURL, signingKey(a.Config.JWTSecret))
		a.Store = files
		a.Files = files
	}
	return nil
}

// signingKey falls back to a per-process random key, which invalidates links on restart.
func signingKey(secret string) []byte {
	if secret = strings.TrimSpace(secret); secret != "" {
		return []byte("files:" + secret)
	}
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return key
}

func (a *App) buildLLM(ctx context.Context) (llm.Client, error) {
	switch a.Config.LLMProvider {
	case "openai":
		return openai.NewClient(a.Config.OpenAIAPIKey, a.Config.LLMModel, a.Config.OpenAIBaseURL, a.Config.LLMTimeout)
	case "gemini":
		client, err := gemini.NewClient(ctx, a.Config.GeminiAPIKey, a.Config.LLMModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	case "placeholder", "":
		return llm.PlaceholderClient{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", a.Config.LLMProvider)
	}
}

func (a *App) buildServices() error {
	cfg := a.Config

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL, cfg.IsProduction())
	if err != nil {
		return err
	}
	a.Signer = signer

	catalog, err := templates.Default()
	if err != nil {
		return fmt.Errorf("load template catalog: %w", err)
	}
	a.Catalog = catalog

	var (
		docRepo     documents.Repo
		scoreRepo   scores.Repo
		userRepo    users.Repo
		exportRepo  export.Repo
		quotaStore  quota.Store
		limiterRepo authlimit.Store
	)
	if a.DB != nil {
		docRepo = &documents.PGRepo{DB: a.DB}
		scoreRepo = &scores.PGRepo{DB: a.DB}
		userRepo = &users.PGRepo{DB: a.DB}
		exportRepo = &export.PGRepo{DB: a.DB}
		quotaStore = quota.NewPGStore(a.DB)
		a.AICache = ai.NewPGCache(a.DB)
	} else {
		docRepo = documents.NewMemoryRepo()
		scoreRepo = scores.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		exportRepo = export.NewMemoryRepo()
		quotaStore = quota.NewMemoryStore()
		a.AICache = ai.NewMemoryCache()
	}
	switch cfg.AuthRateLimitStore {
	case "postgres":
		if a.DB == nil {
			return errors.New("AUTH_RATE_LIMIT_STORE=postgres requires DATABASE_URL")
		}
		limiterRepo = authlimit.NewPGStore(a.DB)
	default:
		limiterRepo = authlimit.NewMemoryStore()
	}

	a.Documents = documents.NewService(docRepo, catalog)
	a.Scores = scores.NewService(a.Documents, scoreRepo)

	a.Quota = quota.NewService(quotaStore)
	a.Quota.FreeLimit = cfg.QuotaFreeLimit
	a.Quota.ProLimit = cfg.QuotaProLimit
	a.Quota.Window = cfg.QuotaWindow

	a.AI = ai.NewService(a.LLM, a.AICache, a.Quota, a.Documents)
	if cfg.AICacheTTL > 0 {
		a.AI.TTL = cfg.AICacheTTL
	}
	a.AI.CostPer1K = cfg.AICostPer1KTokens

	a.Users = users.NewService(userRepo, auth.NewPasswordHasher(0))
	a.AuthLimiter = authlimit.NewLimiter(limiterRepo)
	a.AuthLimiter.Max = cfg.AuthRateLimitMax
	a.AuthLimiter.Window = cfg.AuthRateLimitWindow

	a.Exports = export.NewService(exportRepo, a.Documents, a.Store)
	a.Exports.Queue = a.Queue
	a.ExportProcessor = export.NewProcessor(exportRepo, a.Documents, a.Store, export.ChromeRenderer{ExecPath: cfg.ChromePath})
	if cfg.ExportTTL > 0 {
		a.ExportProcessor.TTL = cfg.ExportTTL
	}
	if cfg.ExportRenderTimeout > 0 {
		a.ExportProcessor.RenderTimeout = cfg.ExportRenderTimeout
	}
	if cfg.ExportMaxAttempts > 0 {
		a.ExportProcessor.Retry.Attempts = cfg.ExportMaxAttempts
	}
	if cfg.ExportWorkerInline {
		a.Exports.Wake = a.ExportProcessor.Wake
	}

	a.Account = account.NewService(a.Documents, a.Exports, a.Users)
	a.Health = health.NewService(a.DB, cfg.Env)
	a.Health.SchemaVersion = db.MigrationStatus
	a.RateLimiter = middleware.NewRateLimiter(nil)
	return nil
}

func (a *App) buildRouter() {
	cfg := a.Config
	a.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Signer:      a.Signer,
		RateLimiter: a.RateLimiter,
		Health:      a.Health,
		Auth:        authhandler.NewHandler(a.Users, a.Signer, a.AuthLimiter),
		GoogleAuth: authhandler.NewGoogleService(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
			cfg.UIRedirectURL,
			a.Users,
			a.Signer,
		),
		Account:   account.NewHandler(a.Account),
		Documents: documents.NewHandler(a.Documents),
		Templates: templates.NewHandler(a.Catalog),
		Scores:    scores.NewHandler(a.Scores),
		AI:        ai.NewHandler(a.AI),
		Quota:     quota.NewHandler(a.Quota),
		Exports:   export.NewHandler(a.Exports, a.Files),
	})
}

// StartBackground runs the API process's housekeeping until ctx is done: limiter
// sweeps and, when enabled, the in-process export worker.
func (a *App) StartBackground(ctx context.Context) {
	go a.AuthLimiter.RunSweeper(ctx, limiterSweepInterval)
	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.RateLimiter.Sweep(rateLimitIdle)
			}
		}
	}()
	if a.Config.ExportWorkerInline {
		go func() {
			_ = a.ExportProcessor.Run(ctx, a.Config.ExportPollInterval)
		}()
		telemetry.Info("export.inline_worker_started", nil)
	}
}

// Close releases clients and the database pool.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil && !isLambdaRuntime() {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
