// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"leadgrid.org/internal/token"
)

// Config is the full set of runtime settings. Both JWT secrets are
// mandatory: a process missing either never starts serving.
type Config struct {
	HTTPAddr string `env:"LEADGRID_HTTP_ADDR" env-default:":8080"`
	PGDSN    string `env:"LEADGRID_PG_DSN"`

	AccessSecret  string `env:"LEADGRID_ACCESS_SECRET"`
	RefreshSecret string `env:"LEADGRID_REFRESH_SECRET"`
	AccessTTL     string `env:"LEADGRID_ACCESS_TTL" env-default:"1d"`
	RefreshTTL    string `env:"LEADGRID_REFRESH_TTL" env-default:"7d"`
	Issuer        string `env:"LEADGRID_ISSUER" env-default:"leadgrid"`

	SpreadsheetID   string `env:"LEADGRID_SPREADSHEET_ID"`
	SheetsCredsFile string `env:"LEADGRID_SHEETS_CREDENTIALS"`

	RateLimitBurst  int `env:"LEADGRID_RATE_BURST" env-default:"50"`
	RateLimitPerSec int `env:"LEADGRID_RATE_PER_SEC" env-default:"25"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.AccessSecret == "" {
		return Config{}, errors.New("config: LEADGRID_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return Config{}, errors.New("config: LEADGRID_REFRESH_SECRET is required")
	}
	if _, err := cfg.AccessTokenTTL(); err != nil {
		return Config{}, fmt.Errorf("config: LEADGRID_ACCESS_TTL: %w", err)
	}
	if _, err := cfg.RefreshTokenTTL(); err != nil {
		return Config{}, fmt.Errorf("config: LEADGRID_REFRESH_TTL: %w", err)
	}
	return cfg, nil
}

// AccessTokenTTL parses the configured access-token lifetime.
func (c Config) AccessTokenTTL() (time.Duration, error) {
	return token.ParseLifetime(c.AccessTTL)
}

// RefreshTokenTTL parses the configured refresh-token lifetime.
func (c Config) RefreshTokenTTL() (time.Duration, error) {
	return token.ParseLifetime(c.RefreshTTL)
}

// TokenConfig assembles the codec configuration.
func (c Config) TokenConfig() (token.Config, error) {
	accessTTL, err := c.AccessTokenTTL()
	if err != nil {
		return token.Config{}, err
	}
	refreshTTL, err := c.RefreshTokenTTL()
	if err != nil {
		return token.Config{}, err
	}
	return token.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Issuer:        c.Issuer,
	}, nil
}
