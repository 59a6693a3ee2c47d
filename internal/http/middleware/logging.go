package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Logging attaches log to every request and writes one access line per
// response. It must run after chi's RequestID.
func Logging(log zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(log),
		requestID,
		hlog.AccessHandler(func(r *http.Request, status, size int, elapsed time.Duration) {
			ev := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				ev = hlog.FromRequest(r).Error()
			}
			ev.Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("elapsed", elapsed).
				Msg("request")
		}),
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			log := zerolog.Ctx(r.Context()).With().Str("request_id", id).Logger()
			r = r.WithContext(log.WithContext(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}
