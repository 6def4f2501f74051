package config

import (
	"os"
	"time"
)

// Alias store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the process-wide configuration, read once from the environment
// at startup.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// BaseURL is the externally visible origin used to assemble shareable
	// form links. When empty, links are derived from the incoming request.
	BaseURL string
	// TokenSecret signs form tokens. Empty falls back to an insecure
	// development secret; see token.DevFallbackSecret.
	TokenSecret string
	// AliasStore selects the alias backend: "memory" (default) or "redis".
	AliasStore string
	// RedisAddr and RedisPassword configure the redis backend.
	RedisAddr     string
	RedisPassword string
	// AliasTTL expires redis-held aliases. Zero means no expiry, matching
	// the in-memory store. Ignored by the memory backend.
	AliasTTL time.Duration
	// CallbackTimeout bounds the single outbound delivery attempt.
	CallbackTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", ""),
		TokenSecret:     getEnv("FORM_TOKEN_SECRET", ""),
		AliasStore:      getEnv("ALIAS_STORE", StoreMemory),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		AliasTTL:        getDuration("ALIAS_TTL", 0),
		CallbackTimeout: getDuration("CALLBACK_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
