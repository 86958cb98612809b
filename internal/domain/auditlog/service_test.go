package auditlog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockRepository struct {
	listFunc          func(ctx context.Context, filter Filter) ([]Entry, int64, error)
	listForEntityFunc func(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error)
	listForActorFunc  func(ctx context.Context, userID string, limit int) ([]Entry, error)
	statisticsFunc    func(ctx context.Context, dateFrom, dateTo *time.Time) (Stats, error)

	listCalls  atomic.Int32
	statsCalls atomic.Int32
}

func (m *mockRepository) Insert(ctx context.Context, entry Entry) error { return nil }

func (m *mockRepository) List(ctx context.Context, filter Filter) ([]Entry, int64, error) {
	m.listCalls.Add(1)
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockRepository) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error) {
	if m.listForEntityFunc != nil {
		return m.listForEntityFunc(ctx, entityType, entityID, limit)
	}
	return nil, nil
}

func (m *mockRepository) ListForActor(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if m.listForActorFunc != nil {
		return m.listForActorFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockRepository) Statistics(ctx context.Context, dateFrom, dateTo *time.Time) (Stats, error) {
	m.statsCalls.Add(1)
	if m.statisticsFunc != nil {
		return m.statisticsFunc(ctx, dateFrom, dateTo)
	}
	return Stats{}, nil
}

func TestQueryReturnsPage(t *testing.T) {
	repo := &mockRepository{
		listFunc: func(ctx context.Context, filter Filter) ([]Entry, int64, error) {
			return []Entry{{ID: "e1"}, {ID: "e2"}}, 42, nil
		},
	}
	svc := NewService(repo, zerolog.Nop())

	result, err := svc.Query(context.Background(), Filter{Page: 1, Limit: 50})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(result.Entries))
	}
	if result.Total != 42 {
		t.Errorf("total = %d, want 42", result.Total)
	}
}

func TestQueryWithStatisticsCallsBothDelegates(t *testing.T) {
	repo := &mockRepository{
		listFunc: func(ctx context.Context, filter Filter) ([]Entry, int64, error) {
			return []Entry{{ID: "e1"}}, 1, nil
		},
		statisticsFunc: func(ctx context.Context, dateFrom, dateTo *time.Time) (Stats, error) {
			return Stats{TotalEntries: 100, DistinctActors: 7}, nil
		},
	}
	svc := NewService(repo, zerolog.Nop())

	result, stats, err := svc.QueryWithStatistics(context.Background(), Filter{Page: 1, Limit: 50})
	if err != nil {
		t.Fatalf("QueryWithStatistics: %v", err)
	}
	if repo.listCalls.Load() != 1 || repo.statsCalls.Load() != 1 {
		t.Errorf("delegate calls: list=%d stats=%d, want 1 each",
			repo.listCalls.Load(), repo.statsCalls.Load())
	}
	if result.Total != 1 {
		t.Errorf("total = %d, want 1", result.Total)
	}
	if stats.TotalEntries != 100 || stats.DistinctActors != 7 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestQueryWithStatisticsPropagatesListError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockRepository{
		listFunc: func(ctx context.Context, filter Filter) ([]Entry, int64, error) {
			return nil, 0, wantErr
		},
	}
	svc := NewService(repo, zerolog.Nop())

	_, _, err := svc.QueryWithStatistics(context.Background(), Filter{Page: 1, Limit: 50})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestQueryWithStatisticsPropagatesStatsError(t *testing.T) {
	wantErr := errors.New("aggregate failed")
	repo := &mockRepository{
		statisticsFunc: func(ctx context.Context, dateFrom, dateTo *time.Time) (Stats, error) {
			return Stats{}, wantErr
		},
	}
	svc := NewService(repo, zerolog.Nop())

	_, _, err := svc.QueryWithStatistics(context.Background(), Filter{Page: 1, Limit: 50})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestEntityLogsClampsLimit(t *testing.T) {
	var gotLimit int
	repo := &mockRepository{
		listForEntityFunc: func(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.EntityLogs(context.Background(), "User", "u1", 0); err != nil {
		t.Fatalf("EntityLogs: %v", err)
	}
	if gotLimit != DefaultEntityLimit {
		t.Errorf("zero limit should become default %d, got %d", DefaultEntityLimit, gotLimit)
	}

	if _, err := svc.EntityLogs(context.Background(), "User", "u1", 5000); err != nil {
		t.Fatalf("EntityLogs: %v", err)
	}
	if gotLimit != MaxLimit {
		t.Errorf("oversized limit should clamp to %d, got %d", MaxLimit, gotLimit)
	}
}

func TestActorActivityClampsLimit(t *testing.T) {
	var gotLimit int
	repo := &mockRepository{
		listForActorFunc: func(ctx context.Context, userID string, limit int) ([]Entry, error) {
			gotLimit = limit
			return []Entry{{ID: "e1", UserID: userID}}, nil
		},
	}
	svc := NewService(repo, zerolog.Nop())

	entries, err := svc.ActorActivity(context.Background(), "u1", -3)
	if err != nil {
		t.Fatalf("ActorActivity: %v", err)
	}
	if gotLimit != DefaultActivityLimit {
		t.Errorf("negative limit should become default %d, got %d", DefaultActivityLimit, gotLimit)
	}
	if len(entries) != 1 || entries[0].UserID != "u1" {
		t.Errorf("entries = %+v", entries)
	}
}
