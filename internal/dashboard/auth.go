package dashboard

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/calldash/server/pkg/metrics"
)

const sessionCookie = "calldash_session"

func equalConstantTime(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, "")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, "Invalid form")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	// Evaluate both comparisons so timing does not reveal which one failed.
	userOK := equalConstantTime(username, h.opts.Username)
	passOK := equalConstantTime(password, h.opts.Password)
	if !userOK || !passOK || h.opts.Password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("denied").Inc()
		reqLog(r).Warn().Str("username", username).Msg("dashboard login denied")
		h.renderLogin(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s, err := h.sessions.Create(r.Context(), username)
	if err != nil {
		reqLog(r).Error().Err(err).Msg("failed to create session")
		h.renderLogin(w, http.StatusInternalServerError, "Login is unavailable, try again later")
		return
	}
	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	reqLog(r).Info().Str("username", username).Msg("dashboard login")

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.opts.SessionTTL),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), c.Value); err != nil {
			reqLog(r).Warn().Err(err).Msg("failed to delete session")
		}
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// requireSession lets the request through only with a live session. API
// callers get JSON errors, browsers get the login page.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api := strings.HasPrefix(r.URL.Path, "/api/")
		c, err := r.Cookie(sessionCookie)
		if err == nil && c.Value != "" {
			s, err := h.sessions.Get(r.Context(), c.Value)
			if err != nil {
				if api {
					writeError(w, r, err)
					return
				}
				status, msg := h.pageError(r, err)
				h.renderLogin(w, status, msg)
				return
			}
			if s != nil {
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
				return
			}
		}
		if api {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func (h *Handler) webhookAuthorized(r *http.Request) bool {
	if h.opts.WebhookToken == "" {
		return true
	}
	token := r.Header.Get("X-Webhook-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return equalConstantTime(token, h.opts.WebhookToken)
}
