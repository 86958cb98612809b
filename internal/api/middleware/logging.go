package middleware

import (
	"net/http"
	"time"

	"github.com/gemeenteweb/server/internal/audit"
	"github.com/rs/zerolog"
)

// statusRecorder captures the status code and body size written by the
// downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// RequestLogging writes one access-log line per request through the
// request-scoped logger installed by CorrelationID, so every line carries
// the request ID. Liveness and scrape endpoints are not logged.
func RequestLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			event := zerolog.Ctx(r.Context()).Info()
			if rec.status >= http.StatusInternalServerError {
				event = zerolog.Ctx(r.Context()).Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("ip", audit.ClientIP(r)).
				Int("status", rec.status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
