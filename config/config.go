package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from the environment at startup. The token secret is
// deliberately required: it must never be a literal in source.
type Config struct {
	ListenAddr     string        `env:"API_LISTEN_ADDR" envDefault:":8080"`
	DatabaseURL    string        `env:"DATABASE_URL,notEmpty"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	TokenSecret    string        `env:"TOKEN_SECRET,notEmpty"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
