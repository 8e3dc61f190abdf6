package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calldash/server/internal/dashboard"
	"github.com/calldash/server/internal/gotoapi"
	"github.com/calldash/server/internal/repo"
	"github.com/calldash/server/internal/service"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg AppConfig
			if err := loadEnv(&cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg AppConfig) error {
	env := initLogger(cfg.Environment, cfg.LogLevel)
	settings, err := parseDashboard(cfg.Dashboard)
	if err != nil {
		return err
	}

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()
	logx.Info().Msg("connected to redis")

	prefix := cfg.Redis.KeyPrefix
	tokens, err := gotoapi.NewTokenSource(context.WithoutCancel(ctx), cfg.Provider, repo.NewRedisTokenStore(rdb, prefix), nil)
	if err != nil {
		return err
	}
	client := gotoapi.NewClient(cfg.Provider, tokens)

	reports := service.NewReports(client, repo.NewRedisUsersCache(rdb, prefix, settings.UsersCacheTTL), service.Config{
		Location:     settings.Location,
		GapThreshold: float64(cfg.Dashboard.GapThreshold),
		Concurrency:  cfg.Provider.Concurrency,
	})
	handler := dashboard.NewHandler(reports, repo.NewRedisSessionRepository(rdb, prefix, settings.SessionTTL), dashboard.Options{
		Title:         cfg.Dashboard.Title,
		Username:      cfg.Dashboard.Username,
		Password:      cfg.Dashboard.Password,
		WebhookToken:  cfg.Dashboard.WebhookToken,
		ClockIn:       settings.ClockIn,
		ClockOut:      settings.ClockOut,
		SessionTTL:    settings.SessionTTL,
		SecureCookies: env.SecureCookies(),
	})

	srv := &http.Server{
		Addr:              cfg.Dashboard.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().
			Str("addr", srv.Addr).
			Str("environment", env.String()).
			Str("timezone", settings.Location.String()).
			Bool("oauth", cfg.Provider.UsesOAuth()).
			Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
