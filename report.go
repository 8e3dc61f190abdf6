package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/calldash/server/internal/gotoapi"
	"github.com/calldash/server/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newReports(ctx context.Context, cfg CLIConfig) (*service.Reports, error) {
	initLogger(cfg.Environment, cfg.LogLevel)
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	tokens, err := gotoapi.NewTokenSource(ctx, cfg.Provider, gotoapi.NewMemoryTokenStore(), nil)
	if err != nil {
		return nil, err
	}
	return service.NewReports(gotoapi.NewClient(cfg.Provider, tokens), nil, service.Config{
		Location:    loc,
		Concurrency: cfg.Provider.Concurrency,
	}), nil
}

func newSummaryCmd() *cobra.Command {
	var user, start, end, format string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a user's call summary for whole UTC days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg CLIConfig
			if err := loadEnv(&cfg); err != nil {
				return err
			}
			reports, err := newReports(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if end == "" {
				end = start
			}
			summary, err := reports.Webhook(cmd.Context(), user, start, end)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), format, summary)
		},
	}
	today := time.Now().UTC().Format("2006-01-02")
	cmd.Flags().StringVar(&user, "user", "", "name, email, key or line name to match")
	cmd.Flags().StringVar(&start, "start", today, "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (defaults to --start)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newUsersCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users with a phone line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg CLIConfig
			if err := loadEnv(&cfg); err != nil {
				return err
			}
			reports, err := newReports(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			nurses, err := reports.Nurses(cmd.Context())
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), format, nurses)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q, expected json or yaml", format)
	}
}
