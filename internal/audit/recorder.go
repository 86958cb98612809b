package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gemeenteweb/server/internal/domain/auditlog"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Recorder persists audit entries and mirrors them to the structured log.
// Entry IDs are ULIDs so the log sorts by creation time without a secondary
// index.
type Recorder struct {
	repo   auditlog.Repository
	logger zerolog.Logger
}

func NewRecorder(repo auditlog.Repository, logger zerolog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Record writes one audit entry. Persistence failures are logged, not
// propagated: an audit write must never fail the operation it describes.
func (r *Recorder) Record(ctx context.Context, actorID, action, entityType, entityID, ipAddress string, details map[string]string) {
	entry := auditlog.Entry{
		ID:         ulid.Make().String(),
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  ipAddress,
		CreatedAt:  time.Now().UTC(),
	}

	if r.repo != nil {
		if err := r.repo.Insert(ctx, entry); err != nil {
			r.logger.Error().Err(err).Str("action", action).Msg("audit entry not persisted")
		}
	}

	r.logger.Info().
		Str("action", action).
		Str("actor", actorID).
		Str("entity_type", entityType).
		Str("entity_id", entityID).
		Str("ip", ipAddress).
		Fields(map[string]any{"details": details}).
		Msg("audit")
}

// ClientIP extracts the caller address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// may contain multiple addresses, the first is the client
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
