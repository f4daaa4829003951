// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Suggest  SuggestConfig
	Locale   LocaleConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	// PORT is accepted for platforms that inject it.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds file loading settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxMemory is the multipart form memory budget before spilling to disk (default: 10MB)
	MaxMemory int64 `env:"UPLOAD_MAX_MEMORY" default:"10485760"`

	// AllowedExtensions lists accepted file extensions
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" default:".csv,.tsv,.txt,.xlsx"`

	// Encoding is the text encoding assumed when an upload names none (default: utf-8)
	Encoding string `env:"UPLOAD_ENCODING" default:"utf-8"`

	// FallbackEncoding is tried when the bytes do not fit Encoding (default: windows-1251)
	FallbackEncoding string `env:"UPLOAD_FALLBACK_ENCODING" default:"windows-1251"`
}

// SuggestConfig tunes the fast-mover and issue views.
type SuggestConfig struct {
	// WindowDays is the look-back window ending at the latest record date (default: 30)
	WindowDays int `env:"SUGGEST_WINDOW_DAYS" default:"30"`

	// CoverageDays is how many days a suggested minimum stock should cover (default: 14)
	CoverageDays int `env:"SUGGEST_COVERAGE_DAYS" default:"14"`

	// MinQuantity is the window quantity a fast mover needs (default: 5)
	MinQuantity int64 `env:"SUGGEST_MIN_QUANTITY" default:"5"`

	// MaxFastMovers caps the fast-mover list (default: 20)
	MaxFastMovers int `env:"SUGGEST_MAX_FAST_MOVERS" default:"20"`

	// MaxIssues caps the displayed issue list (default: 50)
	MaxIssues int `env:"SUGGEST_MAX_ISSUES" default:"50"`
}

// LocaleConfig holds language-dependent settings.
type LocaleConfig struct {
	// Collation is the BCP 47 tag used to sort filter values (default: bg)
	Collation string `env:"LOCALE_COLLATION" default:"bg"`

	// SynonymsFile replaces the built-in header synonym table when set
	SynonymsFile string `env:"HEADER_SYNONYMS_FILE"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the load endpoint (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
