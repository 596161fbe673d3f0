package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	CORSAllowOrigins []string

	DatabaseURL string
	DB          DBConfig

	JWTSecret string
	JWTTTL    time.Duration

	ObjectStoreType string
	LocalStoreDir   string
	PublicBaseURL   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	LLMProvider       string
	LLMModel          string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	LLMTimeout        time.Duration
	AICacheTTL        time.Duration
	AICostPer1KTokens float64

	QuotaFreeLimit int
	QuotaProLimit  int
	QuotaWindow    time.Duration

	ExportQueueURL      string
	ExportTTL           time.Duration
	ExportWorkerInline  bool
	ExportPollInterval  time.Duration
	ExportRenderTimeout time.Duration
	ExportMaxAttempts   int
	ChromePath          string

	AuthRateLimitMax    int
	AuthRateLimitWindow time.Duration
	AuthRateLimitStore  string
}

// DBConfig carries optional pool overrides; zero values keep the process defaults.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
// Keys map to upper-cased environment variables, e.g. database_url -> DATABASE_URL.
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "dev")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allow_origins", "http://localhost:5173")
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("object_store", "local")
	v.SetDefault("local_store_dir", "./data")
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("llm_provider", "placeholder")
	v.SetDefault("llm_timeout", "45s")
	v.SetDefault("ai_cache_ttl", "24h")
	v.SetDefault("ai_cost_per_1k_tokens", 0.002)
	v.SetDefault("quota_free_limit", 20)
	v.SetDefault("quota_pro_limit", 200)
	v.SetDefault("quota_window", "24h")
	v.SetDefault("export_ttl", "168h")
	v.SetDefault("export_poll_interval", "2s")
	v.SetDefault("export_render_timeout", "60s")
	v.SetDefault("export_max_attempts", 3)
	v.SetDefault("auth_rate_limit_max", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_rate_limit_store", "memory")
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	return LoadWith(NewViper())
}

// LoadWith loads dotenv files and parses v, which may carry bound command flags.
func LoadWith(v *viper.Viper) (Config, error) {
	loadEnvFiles(".env", "cmd/.env")
	return FromViper(v)
}

// FromViper parses runtime configuration from an already configured viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	env := normalizeEnv(v.GetString("env"))
	cfg := Config{
		Env:              env,
		Port:             v.GetString("port"),
		LogLevel:         v.GetString("log_level"),
		CORSAllowOrigins: splitAndTrim(v.GetString("cors_allow_origins")),
		DatabaseURL:      strings.TrimSpace(v.GetString("database_url")),
		DB: DBConfig{
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
			PingTimeout:     v.GetDuration("db_ping_timeout"),
		},
		JWTSecret:           strings.TrimSpace(v.GetString("jwt_secret")),
		JWTTTL:              v.GetDuration("jwt_ttl"),
		ObjectStoreType:     normalizeStoreType(v.GetString("object_store")),
		LocalStoreDir:       v.GetString("local_store_dir"),
		PublicBaseURL:       strings.TrimRight(v.GetString("public_base_url"), "/"),
		AWSRegion:           v.GetString("aws_region"),
		S3Bucket:            v.GetString("s3_bucket"),
		S3Prefix:            v.GetString("s3_prefix"),
		SSEKMSKeyID:         v.GetString("sse_kms_key_id"),
		GoogleClientID:      v.GetString("google_client_id"),
		GoogleClientSecret:  v.GetString("google_client_secret"),
		GoogleRedirectURL:   v.GetString("google_redirect_url"),
		UIRedirectURL:       v.GetString("ui_redirect_url"),
		LLMProvider:         strings.ToLower(strings.TrimSpace(v.GetString("llm_provider"))),
		LLMModel:            v.GetString("llm_model"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		OpenAIBaseURL:       v.GetString("openai_base_url"),
		GeminiAPIKey:        v.GetString("gemini_api_key"),
		LLMTimeout:          v.GetDuration("llm_timeout"),
		AICacheTTL:          v.GetDuration("ai_cache_ttl"),
		AICostPer1KTokens:   v.GetFloat64("ai_cost_per_1k_tokens"),
		QuotaFreeLimit:      v.GetInt("quota_free_limit"),
		QuotaProLimit:       v.GetInt("quota_pro_limit"),
		QuotaWindow:         v.GetDuration("quota_window"),
		ExportQueueURL:      v.GetString("export_queue_url"),
		ExportTTL:           v.GetDuration("export_ttl"),
		ExportPollInterval:  v.GetDuration("export_poll_interval"),
		ExportRenderTimeout: v.GetDuration("export_render_timeout"),
		ExportMaxAttempts:   v.GetInt("export_max_attempts"),
		ChromePath:          v.GetString("chrome_path"),
		AuthRateLimitMax:    v.GetInt("auth_rate_limit_max"),
		AuthRateLimitWindow: v.GetDuration("auth_rate_limit_window"),
		AuthRateLimitStore:  strings.ToLower(strings.TrimSpace(v.GetString("auth_rate_limit_store"))),
	}
	if v.IsSet("export_worker_inline") {
		cfg.ExportWorkerInline = v.GetBool("export_worker_inline")
	} else {
		cfg.ExportWorkerInline = env != "production"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production safeguards.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) validate() error {
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	if c.ObjectStoreType == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
		return fmt.Errorf("S3_BUCKET is required when OBJECT_STORE=s3")
	}
	if c.QuotaFreeLimit < 0 || c.QuotaProLimit < 0 {
		return fmt.Errorf("quota limits must not be negative")
	}
	if c.QuotaWindow <= 0 {
		return fmt.Errorf("QUOTA_WINDOW must be positive")
	}
	if c.AuthRateLimitMax <= 0 || c.AuthRateLimitWindow <= 0 {
		return fmt.Errorf("auth rate limit max and window must be positive")
	}
	switch c.AuthRateLimitStore {
	case "memory", "postgres":
	default:
		return fmt.Errorf("AUTH_RATE_LIMIT_STORE must be memory or postgres, got %q", c.AuthRateLimitStore)
	}
	return nil
}

// loadEnvFiles loads dotenv files for local development; missing files are skipped
// and variables already present in the environment win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		_ = godotenv.Load(path)
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
