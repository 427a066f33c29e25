package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=factory port=5432 sslmode=disable"

type Config struct {
	HTTPPort     string
	DatabaseDSN  string
	JWTSecret    string
	CORSOrigins  string
	LogLevel     string
	LogFormat    string
	RedisAddress string        // empty disables the batch-number lock
	BatchLockTTL time.Duration // lifetime of the per-date redis lock
}

// Load reads configuration from the environment, after an optional .env file.
func Load() *Config {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:  getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		CORSOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		RedisAddress: getEnv("REDIS_ADDRESS", ""),
		BatchLockTTL: getDuration("BATCH_LOCK_TTL", 5*time.Second),
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is using the default value, set your own Postgres DSN in production.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is using the default value.")
	}

	return cfg
}

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")
	ErrShortJWTSecret   = errors.New("JWT_SECRET must be at least 32 characters")
	ErrBadLogFormat     = errors.New("LOG_FORMAT must be json or text")
	ErrBadLockTTL       = errors.New("BATCH_LOCK_TTL must be positive")
)

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWTSecret) < 32 {
		return ErrShortJWTSecret
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return ErrBadLogFormat
	}
	if c.BatchLockTTL <= 0 {
		return ErrBadLockTTL
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}
