package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/calldash/server/internal/analytics"
	"github.com/calldash/server/internal/core"
	"github.com/calldash/server/internal/model"
	logx "github.com/calldash/server/pkg/logger"
	pkgredis "github.com/calldash/server/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig defines all configurable parameters of the dashboard, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// Telephony provider
	Provider model.ProviderConfig

	// Web UI
	Dashboard model.DashboardConfig
}

// CLIConfig is the subset needed by the terminal commands, which run
// without Redis or the web UI.
type CLIConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	Provider    model.ProviderConfig
	Timezone    string `envconfig:"DASHBOARD_TIMEZONE" default:"America/New_York"`
}

// dashboardSettings are the parsed forms of DashboardConfig's string fields.
type dashboardSettings struct {
	Location      *time.Location
	SessionTTL    time.Duration
	UsersCacheTTL time.Duration
	ClockIn       analytics.Clock
	ClockOut      analytics.Clock
}

var errNoPassword = errors.New("DASHBOARD_PASSWORD must be set")

// loadEnv reads .env when present and binds the environment onto cfg.
func loadEnv(cfg any) error {
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("no .env file loaded")
	}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("process environment config: %w", err)
	}
	return nil
}

func initLogger(environment, level string) core.Environment {
	env := core.ParseEnvironment(environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: level})
	return env
}

func parseDashboard(cfg model.DashboardConfig) (dashboardSettings, error) {
	var (
		s   dashboardSettings
		err error
	)
	if cfg.Password == "" {
		return s, errNoPassword
	}
	if s.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return s, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if s.SessionTTL, err = parsePositive("DASHBOARD_SESSION_TTL", cfg.SessionTTL); err != nil {
		return s, err
	}
	if s.UsersCacheTTL, err = parsePositive("DASHBOARD_USERS_CACHE_TTL", cfg.UsersCacheTTL); err != nil {
		return s, err
	}
	if s.ClockIn, err = analytics.ParseClock(cfg.ClockIn); err != nil {
		return s, fmt.Errorf("invalid DASHBOARD_CLOCK_IN: %w", err)
	}
	if s.ClockOut, err = analytics.ParseClock(cfg.ClockOut); err != nil {
		return s, fmt.Errorf("invalid DASHBOARD_CLOCK_OUT: %w", err)
	}
	return s, nil
}

func parsePositive(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, v)
	}
	return d, nil
}
