// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the chat service.
package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// AutoReplyConfig controls the optional reply posted after each chat message.
// A zero Delay disables it.
type AutoReplyConfig struct {
	Delay    time.Duration
	UserName string
	UserID   string
	Content  string
}

// Enabled reports whether auto replies are switched on.
func (c AutoReplyConfig) Enabled() bool {
	return c.Delay > 0
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string
	AllowedOrigins  []string
	MaxMessageSize  int64
	RateLimit       RateLimitConfig
	DatabasePath    string
	JWTSecret       string
	AuthCookieName  string
	AnonymousName   string
	HistoryLimit    int
	AutoReply       AutoReplyConfig
	ShutdownTimeout time.Duration
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 4096
	defaultBurst           = 5
	defaultRefillInterval  = time.Second
	defaultDatabasePath    = "chat.db"
	defaultAuthCookieName  = "payload-token"
	defaultAnonymousName   = "Anonymous User"
	defaultHistoryLimit    = 20
	defaultAutoReplyName   = "Bot"
	defaultAutoReplyText   = "Thanks for your message! Someone will be with you shortly."
	defaultShutdownTimeout = 30 * time.Second
)

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
			"http://localhost:3000",
		},
		MaxMessageSize: defaultMaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          defaultBurst,
			RefillInterval: defaultRefillInterval,
		},
		DatabasePath:   defaultDatabasePath,
		AuthCookieName: defaultAuthCookieName,
		AnonymousName:  defaultAnonymousName,
		HistoryLimit:   defaultHistoryLimit,
		AutoReply: AutoReplyConfig{
			UserName: defaultAutoReplyName,
			Content:  defaultAutoReplyText,
		},
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// sanitizeConfig fills zero or invalid values with defaults.
func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaultBurst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaultRefillInterval
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	if cfg.AuthCookieName == "" {
		cfg.AuthCookieName = defaultAuthCookieName
	}
	if strings.TrimSpace(cfg.AnonymousName) == "" {
		cfg.AnonymousName = defaultAnonymousName
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.AutoReply.Delay < 0 {
		cfg.AutoReply.Delay = 0
	}
	if cfg.AutoReply.UserName == "" {
		cfg.AutoReply.UserName = defaultAutoReplyName
	}
	if cfg.AutoReply.Content == "" {
		cfg.AutoReply.Content = defaultAutoReplyText
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}
	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}
	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}
	if path := os.Getenv("DATABASE_PATH"); path != "" {
		cfg.DatabasePath = path
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cookie := os.Getenv("AUTH_COOKIE_NAME"); cookie != "" {
		cfg.AuthCookieName = cookie
	}
	if name := os.Getenv("ANONYMOUS_NAME"); name != "" {
		cfg.AnonymousName = name
	}
	if limit := os.Getenv("HISTORY_LIMIT"); limit != "" {
		cfg.HistoryLimit = parseIntValue(limit, cfg.HistoryLimit)
	}
	if delay := os.Getenv("AUTO_REPLY_DELAY"); delay != "" {
		cfg.AutoReply.Delay = parseSeconds(delay, 0)
	}
	if name := os.Getenv("AUTO_REPLY_NAME"); name != "" {
		cfg.AutoReply.UserName = name
	}
	cfg.AutoReply.UserID = os.Getenv("AUTO_REPLY_USER_ID")
	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseSeconds(timeout, cfg.ShutdownTimeout)
	}

	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
