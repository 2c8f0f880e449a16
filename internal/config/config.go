// README: Config loader with env defaults for HTTP, Mongo, Redis, auth, and logging.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type RateLimitConfig struct {
	PerMinute int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Mongo struct {
		URI      string
		Database string
	}
	Redis struct {
		Addr string
	}
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       struct {
		File  string
		Level string
	}
}

func Load() (Config, error) {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	cfg.HTTP.Addr = envOrDefault("SAFEGUARD_HTTP_ADDR", ":8080")
	cfg.Mongo.URI = envOrDefault("SAFEGUARD_MONGO_URI", "mongodb://localhost:27017")
	cfg.Mongo.Database = envOrDefault("SAFEGUARD_MONGO_DB", "safeguard")
	cfg.Redis.Addr = envOrDefault("SAFEGUARD_REDIS_ADDR", "localhost:6379")
	cfg.Auth.JWTSecret = envOrDefault("JWT_SECRET", "supersecret")
	cfg.Auth.TokenTTL = time.Duration(envOrDefaultInt("SAFEGUARD_TOKEN_TTL_HOURS", 72)) * time.Hour
	cfg.RateLimit.PerMinute = envOrDefaultInt("SAFEGUARD_RATE_LIMIT_PER_MINUTE", 60)
	cfg.Log.File = envOrDefault("SAFEGUARD_LOG_FILE", "./logs/app.log")
	cfg.Log.Level = envOrDefault("SAFEGUARD_LOG_LEVEL", "info")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
