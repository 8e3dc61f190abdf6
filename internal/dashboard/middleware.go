package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/calldash/server/internal/model"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type ctxKey int

const sessionKey ctxKey = iota

func withSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func sessionFrom(ctx context.Context) *model.Session {
	s, _ := ctx.Value(sessionKey).(*model.Session)
	return s
}

// reqLog returns the request scoped logger, or the global one outside the
// request logger middleware.
func reqLog(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	l := logx.With().Logger()
	return &l
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logx.With().
			Str("requestID", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := l.Debug()
		if status >= http.StatusInternalServerError {
			ev = l.Warn()
		}
		ev.Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(started)).
			Msg("http request")
	})
}
