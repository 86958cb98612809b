package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type requestIDKey struct{}

const maxRequestIDLength = 64

// CorrelationID tags every request with an ID, echoes it in the
// X-Request-ID response header, and installs a request-scoped logger
// carrying it. An incoming X-Request-ID from a proxy is honored when it
// looks sane; oversized values are discarded rather than logged.
func CorrelationID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.New().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			ctx = reqLogger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the correlation ID for the request, or "" outside the
// middleware chain.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
