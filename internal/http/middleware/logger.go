package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logger writes one access-log line per request. The level follows the
// status class: Error for 5xx, Warn for 4xx, Info otherwise.
func Logger(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := recorderFor(w)
			start := time.Now()
			next.ServeHTTP(rec, r)

			status := rec.Status()
			fields := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", rec.bytes),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("ip", clientIP(r)),
			}
			if id := RequestIDFromContext(r.Context()); id != "" {
				fields = append(fields, slog.String("request_id", id))
			}
			ctx := rec.ctx
			if ctx == nil {
				ctx = r.Context()
			}
			if u, ok := UserFromContext(ctx); ok {
				fields = append(fields, slog.Int64("user_id", u.ID))
			}

			switch {
			case status >= http.StatusInternalServerError:
				log.Error("http_request", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("http_request", fields...)
			default:
				log.Info("http_request", fields...)
			}
		})
	}
}
