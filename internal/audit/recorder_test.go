package audit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gemeenteweb/server/internal/domain/auditlog"
	"github.com/rs/zerolog"
)

type captureRepo struct {
	entries []auditlog.Entry
	err     error
}

func (r *captureRepo) Insert(ctx context.Context, entry auditlog.Entry) error {
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *captureRepo) List(ctx context.Context, filter auditlog.Filter) ([]auditlog.Entry, int64, error) {
	return nil, 0, nil
}

func (r *captureRepo) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]auditlog.Entry, error) {
	return nil, nil
}

func (r *captureRepo) ListForActor(ctx context.Context, userID string, limit int) ([]auditlog.Entry, error) {
	return nil, nil
}

func (r *captureRepo) Statistics(ctx context.Context, dateFrom, dateTo *time.Time) (auditlog.Stats, error) {
	return auditlog.Stats{}, nil
}

func TestRecordPersistsEntry(t *testing.T) {
	repo := &captureRepo{}
	rec := NewRecorder(repo, zerolog.Nop())

	rec.Record(context.Background(), "u1", "invitation.revoked", "Invitation", "inv-1", "10.0.0.1",
		map[string]string{"email": "lid@gemeente.org"})

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("entry should have a generated ID")
	}
	if e.UserID != "u1" || e.Action != "invitation.revoked" || e.EntityType != "Invitation" {
		t.Errorf("entry = %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("entry should carry a timestamp")
	}
}

func TestRecordSurvivesPersistenceFailure(t *testing.T) {
	repo := &captureRepo{err: errors.New("db down")}
	rec := NewRecorder(repo, zerolog.Nop())

	// Must not panic or propagate
	rec.Record(context.Background(), "u1", "test.action", "User", "u1", "", nil)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:1234"
	if got := ClientIP(r); got != "192.0.2.10:1234" {
		t.Errorf("ClientIP = %q", got)
	}

	r.Header.Set("X-Real-IP", "198.51.100.7")
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Errorf("ClientIP = %q, want X-Real-IP value", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("ClientIP = %q, want first X-Forwarded-For address", got)
	}
}
