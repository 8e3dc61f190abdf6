package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/calldash/server/internal/analytics"
	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type window struct{ start, end string }

type fakeSource struct {
	mu        sync.Mutex
	users     []model.User
	calls     map[string][]model.Call
	userCalls int
	windows   map[string]window
	failFor   string
}

func (f *fakeSource) ListUsers(context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	return f.users, nil
}

func (f *fakeSource) ListCalls(_ context.Context, userKey, start, end string) ([]model.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.windows == nil {
		f.windows = map[string]window{}
	}
	f.windows[userKey] = window{start, end}
	if userKey == f.failFor {
		return nil, errx.WrapUpstream(errors.New("boom"), http.StatusInternalServerError)
	}
	return f.calls[userKey], nil
}

type memCache struct {
	users []model.User
	sets  int
}

func (m *memCache) Get(context.Context) ([]model.User, error) { return m.users, nil }
func (m *memCache) Set(_ context.Context, users []model.User) error {
	m.sets++
	m.users = users
	return nil
}

func call(start string, minutes float64, direction string) model.Call {
	return model.Call{
		StartTime: start,
		Duration:  model.Millis{Value: minutes * 60000, Valid: true},
		Direction: direction,
		Caller:    &model.Party{Number: "+1555"},
		Callee:    &model.Party{Number: "+1666"},
	}
}

func newFixture(t *testing.T) (*Reports, *fakeSource, *memCache) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	src := &fakeSource{
		users: []model.User{
			{UserKey: "u-ana", Name: "Ana Lopez", Email: "ana@clinic.org", Lines: []model.Line{{Name: "Ana Desk"}}},
			{UserKey: "u-bo", Email: "bo@clinic.org", Lines: []model.Line{{Number: "200"}}},
			{UserKey: "u-fax", Name: "Fax Machine"},
		},
		calls: map[string][]model.Call{
			"u-ana": {
				call("2025-07-01T13:00:00Z", 10, "INBOUND"), // Tue 09:00
				call("2025-07-01T13:50:00Z", 0, "INBOUND"),  // Tue 09:50, 40 min gap
				call("2025-07-01T23:00:00Z", 5, "OUTBOUND"), // Tue 19:00, after clock-out
				call("2025-07-05T14:00:00Z", 12, "INBOUND"), // Saturday
			},
			"u-bo": {
				call("2025-07-01T15:00:00Z", 0, "OUTBOUND"),
				call("2025-07-02T15:00:00Z", 20, "INBOUND"),
			},
		},
	}
	cache := &memCache{}
	r := NewReports(src, cache, Config{Location: loc, GapThreshold: 30, Concurrency: 2})
	return r, src, cache
}

func dates(t *testing.T, r *Reports, start, end string) analytics.DateRange {
	t.Helper()
	dr, err := analytics.NewDateRange(start, end, r.Location())
	require.NoError(t, err)
	return dr
}

func TestUsersUsesCache(t *testing.T) {
	r, src, cache := newFixture(t)
	ctx := context.Background()

	_, err := r.Users(ctx)
	require.NoError(t, err)
	_, err = r.Users(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, src.userCalls)
	assert.Equal(t, 1, cache.sets)
}

func TestNurses(t *testing.T) {
	r, _, _ := newFixture(t)
	nurses, err := r.Nurses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []NurseOption{
		{Key: "u-ana", Name: "Ana Desk"},
		{Key: "u-bo", Name: "User u-bo"},
	}, nurses)
}

func TestOverall(t *testing.T) {
	r, src, _ := newFixture(t)
	rep, err := r.Overall(context.Background(), dates(t, r, "2025-07-01", "2025-07-05"))
	require.NoError(t, err)

	assert.Equal(t, window{"2025-07-01T04:00:00Z", "2025-07-06T03:59:59Z"}, src.windows["u-ana"])
	assert.Contains(t, src.windows, "u-fax", "overall view queries every user")

	assert.False(t, rep.Empty)
	assert.Equal(t, 6, rep.Summary.TotalCalls)
	assert.Equal(t, 4, rep.Summary.AnsweredCalls)
	assert.Equal(t, 1, rep.Summary.MissedInbound)
	assert.Equal(t, "0 hr 47 min", rep.Tiles.TalkTime)

	assert.Equal(t, []analytics.NurseOutcome{
		{Nurse: "Ana Lopez", Answered: 3, Missed: 1},
		{Nurse: "bo@clinic.org", Answered: 1, Missed: 0},
	}, rep.NurseOutcomes)

	require.Len(t, rep.MissedInbound, 1)
	assert.Equal(t, "2025-07-01 09:50:00", rep.MissedInbound[0].Start)
	assert.Equal(t, "Ana Lopez", rep.MissedInbound[0].Nurse)

	require.Len(t, rep.DailyVolume, 5, "every day of the range is listed")
	assert.Equal(t, analytics.DayVolume{Date: "2025-07-01", Total: 4, Zone: analytics.ZoneLow}, rep.DailyVolume[0])
	assert.Equal(t, analytics.DayVolume{Date: "2025-07-03", Total: 0, Zone: analytics.ZoneLow}, rep.DailyVolume[2])
}

func TestOverallEmpty(t *testing.T) {
	r, src, _ := newFixture(t)
	src.calls = nil

	rep, err := r.Overall(context.Background(), dates(t, r, "2025-07-01", "2025-07-01"))
	require.NoError(t, err)
	assert.True(t, rep.Empty)
	assert.Empty(t, rep.NurseOutcomes)
}

func TestOverallPropagatesProviderErrors(t *testing.T) {
	r, src, _ := newFixture(t)
	src.failFor = "u-bo"

	_, err := r.Overall(context.Background(), dates(t, r, "2025-07-01", "2025-07-01"))
	require.Error(t, err)
	status, _ := errx.StatusOf(err)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestNurse(t *testing.T) {
	r, _, _ := newFixture(t)
	rep, err := r.Nurse(context.Background(), NurseQuery{
		UserKey:  "u-ana",
		Range:    dates(t, r, "2025-07-01", "2025-07-05"),
		ClockIn:  analytics.Clock{Hour: 9},
		ClockOut: analytics.Clock{Hour: 17},
	})
	require.NoError(t, err)

	assert.Equal(t, NurseOption{Key: "u-ana", Name: "Ana Desk"}, rep.Nurse)
	assert.False(t, rep.NoCalls)
	assert.False(t, rep.Empty)
	assert.Equal(t, 2, rep.Tiles.TotalCalls, "evening and weekend calls are filtered out")
	assert.Equal(t, 1, rep.Tiles.AnsweredCalls)
	assert.Equal(t, 1, rep.Tiles.MissedInbound)
	assert.Equal(t, "0 hr 10 min", rep.Tiles.AvgDuration)

	require.NotNil(t, rep.Longest)
	assert.Equal(t, "2025-07-01 09:00:00", rep.Longest.Start)

	require.Len(t, rep.Gaps, 1)
	assert.Equal(t, 40.0, rep.Gaps[0].Minutes)
	assert.Equal(t, 1, rep.GapAnalysis.FlagCount)

	assert.Len(t, rep.Logs, 2)
	assert.Equal(t, []analytics.DayOutcome{{Date: "2025-07-01", Answered: 1, Missed: 1}}, rep.DailyOutcomes)
}

func TestNurseOutsideHours(t *testing.T) {
	r, _, _ := newFixture(t)
	rep, err := r.Nurse(context.Background(), NurseQuery{
		UserKey:  "u-ana",
		Range:    dates(t, r, "2025-07-01", "2025-07-05"),
		ClockIn:  analytics.Clock{Hour: 20},
		ClockOut: analytics.Clock{Hour: 21},
	})
	require.NoError(t, err)
	assert.False(t, rep.NoCalls)
	assert.True(t, rep.Empty)
	assert.Nil(t, rep.Longest)
}

func TestNurseUnknown(t *testing.T) {
	r, _, _ := newFixture(t)
	_, err := r.Nurse(context.Background(), NurseQuery{UserKey: "nope", Range: dates(t, r, "2025-07-01", "2025-07-01")})
	assert.ErrorIs(t, err, ErrUserNotFound)
	status, msg := errx.StatusOf(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", msg)
}

func TestWebhook(t *testing.T) {
	r, src, _ := newFixture(t)
	got, err := r.Webhook(context.Background(), "lopez", "2025-07-01", "2025-07-05")
	require.NoError(t, err)

	assert.Equal(t, window{"2025-07-01T00:00:00Z", "2025-07-05T23:59:59Z"}, src.windows["u-ana"])
	assert.Equal(t, &analytics.WebhookSummary{
		User:          "lopez",
		TotalCalls:    4,
		AnsweredCalls: 3,
		MissedCalls:   1,
		AvgDuration:   9,
		TotalDuration: 27,
	}, got)
}

func TestWebhookErrors(t *testing.T) {
	r, _, _ := newFixture(t)
	ctx := context.Background()

	_, err := r.Webhook(ctx, "nobody", "2025-07-01", "2025-07-01")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = r.Webhook(ctx, "ana", "2025-07-02", "2025-07-01")
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
	status, _ := errx.StatusOf(err)
	assert.Equal(t, http.StatusBadRequest, status)

	_, err = r.Webhook(ctx, " ", "2025-07-01", "2025-07-01")
	status, _ = errx.StatusOf(err)
	assert.Equal(t, http.StatusBadRequest, status)
}
