package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath        string     `env:"DB_PATH" envDefault:"data/hunt.db"`
	RedisURL      string     `env:"REDIS_URL"`
	LogLevel      slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	AdminEmail    string     `env:"ADMIN_EMAIL" envDefault:"admin@cipherhunt.dev"`
	AdminPassword string     `env:"ADMIN_PASSWORD" envDefault:"changeme"`
	SeedDemo      bool       `env:"SEED_DEMO"`
	SPADir        string     `env:"SPA_DIR" envDefault:"../web/dist"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
