package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// delegateTimeout bounds every repository call made on behalf of a single
// request. The layer itself holds no state, so a timed-out call has no
// partial side effects to undo.
const delegateTimeout = 5 * time.Second

// Entry is a single audit log record.
type Entry struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	Username   string            `json:"username,omitempty"`
	Action     string            `json:"action"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Details    map[string]string `json:"details,omitempty"`
	IPAddress  string            `json:"ipAddress,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Stats aggregates the full (date-filtered) log history.
type Stats struct {
	TotalEntries   int64            `json:"totalEntries"`
	ByAction       map[string]int64 `json:"byAction"`
	ByEntityType   map[string]int64 `json:"byEntityType"`
	DistinctActors int64            `json:"distinctActors"`
}

// QueryResult is one page of entries plus the unpaginated total.
type QueryResult struct {
	Entries []Entry
	Total   int64
}

// Repository is the persistence delegate for audit log reads and writes.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, int64, error)
	ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error)
	ListForActor(ctx context.Context, userID string, limit int) ([]Entry, error)
	Statistics(ctx context.Context, dateFrom, dateTo *time.Time) (Stats, error)
}

// Service answers audit log queries. It owns no state; all durable data
// lives behind the Repository.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "auditlog").Logger(),
	}
}

// Query returns one filtered page of the audit log.
func (s *Service) Query(ctx context.Context, filter Filter) (QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return QueryResult{}, fmt.Errorf("list audit logs: %w", err)
	}
	return QueryResult{Entries: entries, Total: total}, nil
}

// QueryWithStatistics fetches the log page and the aggregate statistics
// concurrently. The two reads are independent: statistics cover the same
// immutable history and do not depend on the page result.
func (s *Service) QueryWithStatistics(ctx context.Context, filter Filter) (QueryResult, Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	var (
		result QueryResult
		stats  Stats
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		entries, total, err := s.repo.List(groupCtx, filter)
		if err != nil {
			return fmt.Errorf("list audit logs: %w", err)
		}
		result = QueryResult{Entries: entries, Total: total}
		return nil
	})
	group.Go(func() error {
		var err error
		stats, err = s.repo.Statistics(groupCtx, filter.DateFrom, filter.DateTo)
		if err != nil {
			return fmt.Errorf("audit log statistics: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return QueryResult{}, Stats{}, err
	}
	return result, stats, nil
}

// EntityLogs returns the newest audit entries about one entity.
func (s *Service) EntityLogs(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	if limit < 1 {
		limit = DefaultEntityLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries, err := s.repo.ListForEntity(ctx, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entity audit logs: %w", err)
	}
	return entries, nil
}

// ActorActivity returns the newest audit entries performed by one user.
func (s *Service) ActorActivity(ctx context.Context, userID string, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	if limit < 1 {
		limit = DefaultActivityLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries, err := s.repo.ListForActor(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user activity: %w", err)
	}
	return entries, nil
}
