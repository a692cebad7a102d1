package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	JWTSigningKey string
	// AdminToken guards the bootstrap role-grant endpoint before any admin
	// principal exists. Verified as a bcrypt hash, never compared raw.
	AdminTokenHash string
	AuditInboxSize int
}

// RedisConfig captures connection settings for the optional Redis-backed
// token revocation list.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("REDRESSAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	inboxSize := 1024
	if raw := os.Getenv("AUDIT_INBOX_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			inboxSize = n
		}
	}

	return Server{
		Addr:           addr,
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		JWTSigningKey:  jwtSigningKey,
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		AuditInboxSize: inboxSize,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}
