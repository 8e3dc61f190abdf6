// Package dashboard serves the call analytics web UI and its JSON API.
package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/calldash/server/internal/analytics"
	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/model"
	"github.com/calldash/server/internal/service"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/calldash/server/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the dashboard handler.
type Options struct {
	Title         string
	Username      string
	Password      string
	WebhookToken  string
	ClockIn       analytics.Clock
	ClockOut      analytics.Clock
	SessionTTL    time.Duration
	SecureCookies bool
}

// Handler holds dependencies for dashboard HTTP handlers.
type Handler struct {
	reports  *service.Reports
	sessions model.SessionRepository
	opts     Options
}

// NewHandler creates a dashboard handler.
func NewHandler(reports *service.Reports, sessions model.SessionRepository, opts Options) *Handler {
	if opts.Title == "" {
		opts.Title = "GoTo Call Dashboard"
	}
	if opts.ClockIn == (analytics.Clock{}) && opts.ClockOut == (analytics.Clock{}) {
		opts.ClockIn = analytics.Clock{Hour: 9}
		opts.ClockOut = analytics.Clock{Hour: 17}
	}
	return &Handler{reports: reports, sessions: sessions, opts: opts}
}

// Routes builds the router with every dashboard endpoint.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/webhook", h.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/", h.handleDashboard)
		r.Get("/charts/{name}.png", h.handleChart)
		r.Get("/api/users", h.handleAPIUsers)
		r.Get("/api/overall", h.handleAPIOverall)
		r.Get("/api/nurses/{userKey}", h.handleAPINurse)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAPIUsers(w http.ResponseWriter, r *http.Request) {
	nurses, err := h.reports.Nurses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nurses)
}

func (h *Handler) handleAPIOverall(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilters(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.reports.Overall(r.Context(), f.Range)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleAPINurse(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilters(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.reports.Nurse(r.Context(), f.nurseQuery(chi.URLParam(r, "userKey")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.webhookAuthorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid webhook token"})
		return
	}
	q := r.URL.Query()
	summary, err := h.reports.Webhook(r.Context(), q.Get("user"), q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps err to its status and safe message and logs server-side
// failures with the request id.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		reqLog(r).Error().Err(err).
			Int("status", status).
			Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
