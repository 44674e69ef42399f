// Package config loads sheetprep settings from environment variables.
// Every setting has a default except the optional secrets, and the whole
// configuration is validated on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	Insight  InsightConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for runs.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the per-request middleware timeout.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"3m"`
}

// DatabaseConfig holds the optional PostgreSQL run-history settings.
// An empty URL keeps run history in memory.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// UploadConfig holds spreadsheet upload settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 50MB).
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the number of cleaning runs allowed at once.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a free run slot.
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single run, AI calls included.
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
	Burst             int  `env:"RATE_LIMIT_BURST" default:"20"`

	// UploadLimit is requests per minute for /preprocess and /analyze.
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys guards the upload and /api routes when RequireAPIKey is set.
	APIKeys       []string `env:"API_KEYS"`
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// StorageConfig controls where cleaned workbooks live and for how long.
type StorageConfig struct {
	OutputDir string `env:"OUTPUT_DIR" default:"processed_data"`

	// Retention is how long output files and run records are kept.
	Retention time.Duration `env:"OUTPUT_RETENTION" default:"24h"`

	// SweepInterval is how often expired files are removed.
	SweepInterval time.Duration `env:"OUTPUT_SWEEP_INTERVAL" default:"1h"`

	// CacheTTL is how long finished runs stay in the in-process cache.
	CacheTTL time.Duration `env:"RESULT_CACHE_TTL" default:"30m"`
}

// InsightConfig configures the generative AI collaborator.
type InsightConfig struct {
	// APIKey enables Gemini; empty disables all AI text.
	APIKey  string        `env:"GEMINI_API_KEY" envAlt:"GOOGLE_API_KEY"`
	Model   string        `env:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	Timeout time.Duration `env:"GEMINI_TIMEOUT" default:"45s"`

	// MaxChartInsights is how many charts get AI commentary.
	MaxChartInsights int `env:"INSIGHT_MAX_CHARTS" default:"2"`

	// ChatPreviewRows is how many rows of a cleaned file a chat question sees.
	ChatPreviewRows int `env:"CHAT_PREVIEW_ROWS" default:"10"`
}

// Enabled reports whether an API key is configured.
func (i InsightConfig) Enabled() bool {
	return i.APIKey != ""
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Path    string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
