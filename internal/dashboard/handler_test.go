package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/calldash/server/internal/analytics"
	"github.com/calldash/server/internal/model"
	"github.com/calldash/server/internal/repo"
	"github.com/calldash/server/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	users []model.User
	calls map[string][]model.Call
}

func (f *fakeSource) ListUsers(context.Context) ([]model.User, error) { return f.users, nil }

// ListCalls honours the query window so empty ranges come back empty.
func (f *fakeSource) ListCalls(_ context.Context, userKey, start, end string) ([]model.Call, error) {
	var out []model.Call
	for _, c := range f.calls[userKey] {
		if c.StartTime >= start && c.StartTime <= end {
			out = append(out, c)
		}
	}
	return out, nil
}

func call(start string, minutes float64, direction string) model.Call {
	return model.Call{
		StartTime: start,
		Duration:  model.Millis{Value: minutes * 60000, Valid: true},
		Direction: direction,
		Caller:    &model.Party{Number: "+15550001"},
		Callee:    &model.Party{Number: "+15550002"},
	}
}

type fixture struct {
	handler http.Handler
	mr      *miniredis.Miniredis
}

func newFixture(t *testing.T, webhookToken string) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	src := &fakeSource{
		users: []model.User{
			{UserKey: "u-ana-0001", Name: "Ana Lopez", Lines: []model.Line{{Name: "Ana Desk"}}},
			{UserKey: "u-bo-00002", Email: "bo@clinic.org", Lines: []model.Line{{Number: "200"}}},
		},
		calls: map[string][]model.Call{
			"u-ana-0001": {
				call("2025-07-01T13:00:00Z", 10, "INBOUND"),
				call("2025-07-01T13:50:00Z", 0, "INBOUND"),
				call("2025-07-01T15:00:00Z", 4.5, "OUTBOUND"),
			},
			"u-bo-00002": {
				call("2025-07-01T16:00:00Z", 6, "INBOUND"),
			},
		},
	}
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, loc)
	reports := service.NewReports(src, nil, service.Config{
		Location:     loc,
		GapThreshold: 30,
		Now:          func() time.Time { return now },
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewHandler(reports, repo.NewRedisSessionRepository(rdb, "test", time.Hour), Options{
		Title:        "Test Dashboard",
		Username:     "admin",
		Password:     "s3cret",
		WebhookToken: webhookToken,
		SessionTTL:   time.Hour,
	})
	return &fixture{handler: h.Routes(), mr: mr}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {"s3cret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(t, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (f *fixture) authed(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.AddCookie(f.login(t))
	return f.do(t, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "")
	f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/overall", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "not-a-session"})
	assert.Equal(t, http.StatusUnauthorized, f.do(t, req).Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t, "")
	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := f.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginPage(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Test Dashboard")
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLogoutDeletesSession(t *testing.T) {
	f := newFixture(t, "")
	cookie := f.login(t)
	require.True(t, f.mr.Exists("test:session:"+cookie.Value))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := f.do(t, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, f.mr.Exists("test:session:"+cookie.Value))

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, req).Code)
}

func TestAPIUsers(t *testing.T) {
	f := newFixture(t, "")
	rec := f.authed(t, "/api/users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []service.NurseOption{
		{Key: "u-ana-0001", Name: "Ana Desk"},
		{Key: "u-bo-00002", Name: "User u-bo-0"},
	}, decode[[]service.NurseOption](t, rec))
}

func TestAPIOverallDefaultsToToday(t *testing.T) {
	f := newFixture(t, "")
	rec := f.authed(t, "/api/overall")
	require.Equal(t, http.StatusOK, rec.Code)

	rep := decode[service.OverallReport](t, rec)
	assert.Equal(t, "2025-07-01..2025-07-01", rep.Range)
	assert.Equal(t, "2025-07-01T04:00:00Z", rep.WindowStart)
	assert.Equal(t, 4, rep.Tiles.TotalCalls)
	assert.Equal(t, 3, rep.Tiles.AnsweredCalls)
	assert.Equal(t, 1, rep.Tiles.MissedInbound)
	assert.Equal(t, "0 hr 20 min", rep.Tiles.TalkTime)
}

func TestAPIOverallRejectsBadFilters(t *testing.T) {
	f := newFixture(t, "")
	cases := map[string]string{
		"unknown preset": "/api/overall?range=Year",
		"reversed dates": "/api/overall?range=Custom&start=2025-07-05&end=2025-07-01",
		"bad date":       "/api/overall?range=Custom&start=07/01/2025&end=2025-07-01",
		"bad clock":      "/api/overall?clock_in=9am",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.authed(t, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestAPINurse(t *testing.T) {
	f := newFixture(t, "")
	rec := f.authed(t, "/api/nurses/u-ana-0001?range=Custom&start=2025-07-01&end=2025-07-01&clock_in=09:00&clock_out=10:00")
	require.Equal(t, http.StatusOK, rec.Code)

	rep := decode[service.NurseReport](t, rec)
	assert.Equal(t, "Ana Desk", rep.Nurse.Name)
	assert.Equal(t, "10:00", rep.ClockOut)
	assert.Equal(t, 2, rep.Tiles.TotalCalls, "11:00 call is after clock-out")
	require.Len(t, rep.Gaps, 1)
	assert.Equal(t, 40.0, rep.Gaps[0].Minutes)
}

func TestAPINurseUnknown(t *testing.T) {
	f := newFixture(t, "")
	rec := f.authed(t, "/api/nurses/nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode[map[string]string](t, rec)["error"])
}

func TestDashboardPage(t *testing.T) {
	f := newFixture(t, "")

	rec := f.authed(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "All Nurses")
	assert.Contains(t, body, "Total Talk Time per Day")
	assert.Contains(t, body, "data:image/png;base64,")

	rec = f.authed(t, "/?nurse=u-ana-0001")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Longest Call")
	assert.Contains(t, body, "Gaps Over 30 Minutes (2)")
	assert.Contains(t, body, `<option value="u-ana-0001" selected>`)
}

func TestDashboardPageEmptyRange(t *testing.T) {
	f := newFixture(t, "")
	rec := f.authed(t, "/?range=Custom&start=2025-06-01&end=2025-06-02")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No call data found")
}

func TestDashboardPageShowsFilterErrors(t *testing.T) {
	f := newFixture(t, "")
	rec := f.authed(t, "/?range=Custom&start=2025-07-09&end=2025-07-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), analytics.ErrInvalidRange.Error())
}

func TestChartEndpoint(t *testing.T) {
	f := newFixture(t, "")

	rec := f.authed(t, "/charts/daily-volume.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = f.authed(t, "/charts/gap-distribution.png")
	assert.Equal(t, http.StatusNotFound, rec.Code, "gap chart belongs to the nurse view")

	rec = f.authed(t, "/charts/gap-distribution.png?nurse=u-ana-0001")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook(t *testing.T) {
	f := newFixture(t, "hook-token")

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/webhook?user=Ana&start=2025-07-01&end=2025-07-01", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/webhook?user=Ana&start=2025-07-01&end=2025-07-01", nil)
	req.Header.Set("X-Webhook-Token", "hook-token")
	rec = f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.WebhookSummary{
		User:          "Ana",
		TotalCalls:    3,
		AnsweredCalls: 2,
		MissedCalls:   1,
		AvgDuration:   7.25,
		TotalDuration: 14.5,
	}, decode[analytics.WebhookSummary](t, rec))

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/webhook?token=hook-token&user=zed&start=2025-07-01&end=2025-07-01", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/webhook?token=hook-token&user=Ana&start=bad&end=2025-07-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionStoreDownRendersLoginPage(t *testing.T) {
	f := newFixture(t, "")
	cookie := f.login(t)
	f.mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := f.do(t, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<div class="err">redis operation failed</div>`)

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(cookie)
	rec = f.do(t, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"redis operation failed"}`, rec.Body.String())
}
