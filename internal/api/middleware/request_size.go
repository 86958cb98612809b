package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize is 1MB for JSON API endpoints
	DefaultMaxBodySize int64 = 1 << 20 // 1MB

	// UploadMaxBodySize bounds multipart upload requests. The per-file 10MB
	// cap is enforced in the upload handler; this outer bound leaves room
	// for multipart framing so oversized files still reach the handler's
	// size check and its specific error message.
	UploadMaxBodySize int64 = 12 << 20 // 12MB
)

// RequestSize limits the size of incoming request bodies.
//
// It wraps the request body with http.MaxBytesReader to enforce the limit.
// If the body exceeds maxBytes, reads fail and the handler reports the error.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

// APIRequestSize limits request bodies to 1MB for JSON endpoints.
func APIRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}

// UploadRequestSize limits request bodies for the multipart upload endpoint.
func UploadRequestSize() func(http.Handler) http.Handler {
	return RequestSize(UploadMaxBodySize)
}
