package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, read from the environment.
// DATABASE_URL may be empty, in which case the API starts without a
// database (useful for probing the binary); JWT_SECRET is mandatory.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c Config) Development() bool {
	return c.Environment == "development"
}
