package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/session-gateway/internal/observability"
	"go.uber.org/zap"
)

// RequestLogger writes one access log entry per request. Query strings are
// left out since the callback carries a one-time authorization code.
func RequestLogger(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("proto", r.Proto),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("latency", time.Since(start)),
				}
				if status >= http.StatusInternalServerError {
					logger.Error(r.Context(), "http request", fields...)
					return
				}
				logger.Info(r.Context(), "http request", fields...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
