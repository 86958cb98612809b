package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json"

// ErrorBody is the uniform error envelope. Every failure produced by this
// layer is `{"error": "..."}` with an appropriate status code; the underlying
// cause goes to the server log, never to the caller.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes a success payload.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes the error envelope and logs the cause. Server errors (5xx) log
// at error level, client errors (4xx) at warn level, using the request-scoped
// logger injected by the correlation middleware.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	payload, marshalErr := json.Marshal(ErrorBody{Error: message})
	if marshalErr != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
