package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "payload-token", cfg.AuthCookieName)
	assert.Equal(t, "Anonymous User", cfg.AnonymousName)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.False(t, cfg.AutoReply.Enabled())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:8080")
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "3")
	t.Setenv("DATABASE_PATH", "/tmp/chat.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_COOKIE_NAME", "token")
	t.Setenv("ANONYMOUS_NAME", "Guest")
	t.Setenv("HISTORY_LIMIT", "50")
	t.Setenv("AUTO_REPLY_DELAY", "2")
	t.Setenv("AUTO_REPLY_NAME", "Helper")
	t.Setenv("AUTO_REPLY_USER_ID", "bot-1")
	t.Setenv("SHUTDOWN_TIMEOUT", "5")

	cfg := NewConfigFromEnv()

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "/tmp/chat.db", cfg.DatabasePath)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "token", cfg.AuthCookieName)
	assert.Equal(t, "Guest", cfg.AnonymousName)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 2*time.Second, cfg.AutoReply.Delay)
	assert.True(t, cfg.AutoReply.Enabled())
	assert.Equal(t, "Helper", cfg.AutoReply.UserName)
	assert.Equal(t, "bot-1", cfg.AutoReply.UserID)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestNewConfigFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "-5")
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("HISTORY_LIMIT", "0")
	t.Setenv("AUTO_REPLY_DELAY", "soon")

	cfg := NewConfigFromEnv()

	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.False(t, cfg.AutoReply.Enabled())
}

func TestSanitizeConfig(t *testing.T) {
	origins := []string{"http://example.com"}
	cfg := sanitizeConfig(Config{
		AllowedOrigins: origins,
		AnonymousName:  "   ",
		AutoReply:      AutoReplyConfig{Delay: -time.Second},
	})

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "Anonymous User", cfg.AnonymousName)
	assert.Equal(t, time.Duration(0), cfg.AutoReply.Delay)
	assert.Equal(t, "Bot", cfg.AutoReply.UserName)
	assert.NotEmpty(t, cfg.AutoReply.Content)

	cfg.AllowedOrigins[0] = "http://changed.example"
	assert.Equal(t, "http://example.com", origins[0], "sanitizeConfig copies the origin list")
}
