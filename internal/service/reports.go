// Package service assembles dashboard reports from provider data.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calldash/server/internal/analytics"
	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/model"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/calldash/server/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrUserNotFound is returned when no user matches a key or name.
var ErrUserNotFound = errors.New("user not found")

// CallSource is the subset of the provider client used for reports.
type CallSource interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListCalls(ctx context.Context, userKey, start, end string) ([]model.Call, error)
}

type Config struct {
	Location     *time.Location
	GapThreshold float64
	Concurrency  int
	Now          func() time.Time
}

type Reports struct {
	source CallSource
	cache  model.UsersCache
	cfg    Config
}

// NewReports wires a report builder. cache may be nil.
func NewReports(source CallSource, cache model.UsersCache, cfg Config) *Reports {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.GapThreshold <= 0 {
		cfg.GapThreshold = analytics.DefaultGapThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reports{source: source, cache: cache, cfg: cfg}
}

// Location is the timezone reports are rendered in.
func (s *Reports) Location() *time.Location { return s.cfg.Location }

// Now is the current time, overridable for tests.
func (s *Reports) Now() time.Time { return s.cfg.Now() }

// GapThreshold is the idle minutes that get flagged.
func (s *Reports) GapThreshold() float64 { return s.cfg.GapThreshold }

// Users returns every account user, served from the cache when warm.
func (s *Reports) Users(ctx context.Context) ([]model.User, error) {
	if s.cache != nil {
		users, err := s.cache.Get(ctx)
		if err != nil {
			logx.Warn().Err(err).Msg("users cache unavailable, fetching from provider")
		} else if users != nil {
			metrics.UsersCacheTotal.WithLabelValues("hit").Inc()
			return users, nil
		}
		metrics.UsersCacheTotal.WithLabelValues("miss").Inc()
	}

	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, users); err != nil {
			logx.Warn().Err(err).Msg("failed to cache users")
		}
	}
	return users, nil
}

// NurseOption is an entry of the nurse selector.
type NurseOption struct {
	Key  string `json:"user_key" yaml:"user_key"`
	Name string `json:"name" yaml:"name"`
}

// Nurses lists users that have a phone line, in provider order. When two
// users share a display name the later one wins, matching the selector.
func (s *Reports) Nurses(ctx context.Context) ([]NurseOption, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	var out []NurseOption
	for _, u := range users {
		if !u.HasLines() {
			continue
		}
		name := u.DisplayName()
		if i, ok := idx[name]; ok {
			out[i].Key = u.UserKey
			continue
		}
		idx[name] = len(out)
		out = append(out, NurseOption{Key: u.UserKey, Name: name})
	}
	return out, nil
}

func (s *Reports) findUser(ctx context.Context, match func(model.User) bool) (model.User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, errx.NotFound(ErrUserNotFound, "User not found")
}

func observe(view string, started time.Time) {
	metrics.ReportsBuiltTotal.WithLabelValues(view).Inc()
	metrics.ReportDurationSeconds.WithLabelValues(view).Observe(time.Since(started).Seconds())
}

// fetchAll pulls every user's calls concurrently and normalizes them with
// the user's label as nurse name.
func (s *Reports) fetchAll(ctx context.Context, users []model.User, w analytics.Window) ([]analytics.Record, error) {
	results := make([][]analytics.Record, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, u := range users {
		g.Go(func() error {
			calls, err := s.source.ListCalls(gctx, u.UserKey, w.StartParam(), w.EndParam())
			if err != nil {
				return fmt.Errorf("list calls for %s: %w", u.UserKey, err)
			}
			results[i] = analytics.Normalize(calls, u.Label(), s.cfg.Location)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []analytics.Record
	for _, rs := range results {
		all = append(all, rs...)
	}
	analytics.SortByStart(all)
	return all, nil
}

// Webhook summarizes the calls of the first user whose fields contain name,
// between start and end (YYYY-MM-DD, whole UTC days).
func (s *Reports) Webhook(ctx context.Context, name, start, end string) (*analytics.WebhookSummary, error) {
	started := time.Now()
	if strings.TrimSpace(name) == "" {
		return nil, errx.BadRequest(errors.New("user is required"))
	}
	r, err := analytics.NewDateRange(start, end, time.UTC)
	if err != nil {
		return nil, errx.BadRequest(err)
	}

	u, err := s.findUser(ctx, func(u model.User) bool { return u.Matches(name) })
	if err != nil {
		return nil, err
	}

	w := analytics.ShiftWindow(r, time.UTC)
	calls, err := s.source.ListCalls(ctx, u.UserKey, w.StartParam(), w.EndParam())
	if err != nil {
		return nil, fmt.Errorf("list calls for %s: %w", u.UserKey, err)
	}
	summary := analytics.SummarizeForWebhook(name, calls)

	observe("webhook", started)
	logx.Info().
		Str("user", name).
		Str("userKey", u.UserKey).
		Int("calls", summary.TotalCalls).
		Msg("served webhook summary")
	return &summary, nil
}
