// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Upload   UploadConfig
	Inspect  InspectConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000)
	// PORT is honored for platforms that inject it.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for streamed exports)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds auth requests only; inspect routes run until done (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
// The database backs the identity layer only and is optional.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty disables signup and login.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// CacheConfig bounds the in-memory workbook store.
type CacheConfig struct {
	// Capacity is the maximum number of cached workbooks (default: 32)
	Capacity int `env:"CACHE_CAPACITY" default:"32"`

	// TTL is how long a workbook may sit unused before it expires (default: 15m)
	TTL time.Duration `env:"CACHE_TTL" default:"15m"`

	// EvictBatch is how many least recently used entries a full cache drops (default: 4)
	EvictBatch int `env:"CACHE_EVICT_BATCH" default:"4"`
}

// UploadConfig holds workbook upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of workbooks parsed at once (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// UnzipSizeLimit is the cap on a workbook's uncompressed size:
// sixteen times the upload limit.
func (c *UploadConfig) UnzipSizeLimit() int64 {
	return c.MaxFileSize * 16
}

// InspectConfig holds preview and paging limits.
type InspectConfig struct {
	// SampleRowsDefault is used when a preview omits sample_rows (default: 25)
	SampleRowsDefault int `env:"INSPECT_SAMPLE_ROWS_DEFAULT" default:"25"`

	// SampleRowsMax is the largest accepted sample_rows (default: 500)
	SampleRowsMax int `env:"INSPECT_SAMPLE_ROWS_MAX" default:"500"`

	// PageLimitDefault is used when a page request omits limit (default: 100)
	PageLimitDefault int `env:"INSPECT_PAGE_LIMIT_DEFAULT" default:"100"`

	// PageLimitMax is the largest accepted limit (default: 2000)
	PageLimitMax int `env:"INSPECT_PAGE_LIMIT_MAX" default:"2000"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the preview endpoint (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// CORSAllowedOrigins is a comma-separated origin list; "*" allows any (default: *)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// JWTSecret signs access tokens; required when DATABASE_URL is set
	JWTSecret string `env:"JWT_SECRET"`

	// JWTExpiry is the access token lifetime (default: 60m)
	JWTExpiry time.Duration `env:"JWT_EXPIRY" default:"60m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
