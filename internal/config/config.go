package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Origins allowed to call the API from a browser (empty: any)
	CORSOrigins []string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret                string
	SessionExpiry            time.Duration
	TokenPasswordResetExpiry time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: Cloudflare R2, MinIO, AWS S3)
	S3Region              string
	S3Bucket              string
	S3AccessKey           string
	S3SecretKey           string
	S3Endpoint            string
	FileDownloadEndpoint  string        // Public base URL, objects are served at <endpoint>/<key>
	S3PresignUploadExpiry time.Duration // Default expiry for presigned upload URLs

	// Upload limits
	ModFileSizeLimit        int64
	TrustedModFileSizeLimit int64
	BuildFileSizeLimit      int64

	// Kelvin chat
	GPTAPIKey string
	GPTModel  string

	// Jobs
	JobsEnabled      bool
	CountersInterval time.Duration
	MentionsInterval time.Duration
	FeaturedCacheTTL time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "SOTF-Mods"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envRequired("APP_URL"), // Required: base URL for email links
		Port:    envString("PORT", "8090"),

		CORSOrigins: envList("CORS_ORIGINS"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/sotf.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:                envRequired("JWT_SECRET"),
		SessionExpiry:            envDuration("SESSION_EXPIRY", 48*time.Hour),
		TokenPasswordResetExpiry: envDuration("PASSWORD_RESET_EXPIRY", 1*time.Hour),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@sotf-mods.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:              envString("S3_REGION", "auto"),
		S3Bucket:              envRequired("S3_BUCKET"),
		S3AccessKey:           envRequired("S3_ACCESS_KEY"),
		S3SecretKey:           envRequired("S3_SECRET_KEY"),
		S3Endpoint:            envString("S3_ENDPOINT", ""),
		FileDownloadEndpoint:  envRequired("FILE_DOWNLOAD_ENDPOINT"),
		S3PresignUploadExpiry: envDuration("S3_PRESIGN_UPLOAD_EXPIRY", 1*time.Hour),

		// Upload limits
		ModFileSizeLimit:        envInt64("MOD_FILE_SIZE_LIMIT", 200<<20),
		TrustedModFileSizeLimit: envInt64("TRUSTED_MOD_FILE_SIZE_LIMIT", 1<<30),
		BuildFileSizeLimit:      envInt64("BUILD_FILE_SIZE_LIMIT", 100<<20),

		// Kelvin chat (empty key disables the upstream call, fallback matching still answers)
		GPTAPIKey: envString("GPT_API_KEY", ""),
		GPTModel:  envString("GPT_MODEL", "gpt-4o-mini"),

		// Jobs
		JobsEnabled:      envBool("JOBS_ENABLED", true),
		CountersInterval: envDuration("COUNTERS_INTERVAL", 30*time.Minute),
		MentionsInterval: envDuration("MENTIONS_INTERVAL", 10*time.Minute),
		FeaturedCacheTTL: envDuration("FEATURED_CACHE_TTL", 5*time.Minute),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to run in log mode.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

// envList splits a comma separated value, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
