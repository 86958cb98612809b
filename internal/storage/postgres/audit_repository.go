package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gemeenteweb/server/internal/domain/auditlog"
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLogRepository struct {
	db dbtx
}

const insertAuditLogQuery = `
INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, details, ip_address, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *AuditLogRepository) Insert(ctx context.Context, entry auditlog.Entry) error {
	var details []byte
	if len(entry.Details) > 0 {
		encoded, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		details = encoded
	}

	_, err := r.db.Exec(ctx, insertAuditLogQuery,
		entry.ID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		details, entry.IPAddress, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

const auditLogColumns = `
SELECT a.id, a.user_id, coalesce(u.username, ''), a.action, a.entity_type, a.entity_id,
       a.details, a.ip_address, a.created_at
FROM audit_logs a
LEFT JOIN users u ON u.id::text = a.user_id`

// List applies the filter and returns one page, newest first, plus the
// unpaginated total for the same conditions.
func (r *AuditLogRepository) List(ctx context.Context, filter auditlog.Filter) ([]auditlog.Entry, int64, error) {
	where, args := buildAuditConditions(filter.UserID, filter.EntityType, filter.EntityID, filter.Action, filter.DateFrom, filter.DateTo)

	countQuery := "SELECT count(*) FROM audit_logs a" + where
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	listQuery := fmt.Sprintf("%s%s ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d",
		auditLogColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	entries, err := r.queryEntries(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *AuditLogRepository) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]auditlog.Entry, error) {
	query := auditLogColumns + `
WHERE a.entity_type = $1 AND a.entity_id = $2
ORDER BY a.created_at DESC
LIMIT $3`
	return r.queryEntries(ctx, query, entityType, entityID, limit)
}

func (r *AuditLogRepository) ListForActor(ctx context.Context, userID string, limit int) ([]auditlog.Entry, error) {
	query := auditLogColumns + `
WHERE a.user_id = $1
ORDER BY a.created_at DESC
LIMIT $2`
	return r.queryEntries(ctx, query, userID, limit)
}

// Statistics aggregates the date-filtered history: entry counts, breakdowns
// by action and entity type, and the number of distinct actors.
func (r *AuditLogRepository) Statistics(ctx context.Context, dateFrom, dateTo *time.Time) (auditlog.Stats, error) {
	where, args := buildAuditConditions("", "", "", "", dateFrom, dateTo)

	stats := auditlog.Stats{
		ByAction:     make(map[string]int64),
		ByEntityType: make(map[string]int64),
	}

	totalsQuery := "SELECT count(*), count(DISTINCT a.user_id) FROM audit_logs a" + where
	if err := r.db.QueryRow(ctx, totalsQuery, args...).Scan(&stats.TotalEntries, &stats.DistinctActors); err != nil {
		return auditlog.Stats{}, fmt.Errorf("audit log totals: %w", err)
	}

	actionQuery := "SELECT a.action, count(*) FROM audit_logs a" + where + " GROUP BY a.action"
	if err := r.queryCounts(ctx, actionQuery, args, stats.ByAction); err != nil {
		return auditlog.Stats{}, fmt.Errorf("audit log action counts: %w", err)
	}

	entityQuery := "SELECT a.entity_type, count(*) FROM audit_logs a" + where + " GROUP BY a.entity_type"
	if err := r.queryCounts(ctx, entityQuery, args, stats.ByEntityType); err != nil {
		return auditlog.Stats{}, fmt.Errorf("audit log entity counts: %w", err)
	}

	return stats, nil
}

func (r *AuditLogRepository) queryEntries(ctx context.Context, query string, args ...any) ([]auditlog.Entry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]auditlog.Entry, 0)
	for rows.Next() {
		var (
			entry     auditlog.Entry
			details   []byte
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Username, &entry.Action,
			&entry.EntityType, &entry.EntityID, &details, &entry.IPAddress, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		entry.CreatedAt = createdAt.Time
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit log rows: %w", err)
	}
	return entries, nil
}

func (r *AuditLogRepository) queryCounts(ctx context.Context, query string, args []any, dest map[string]int64) error {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}

func buildAuditConditions(userID, entityType, entityID, action string, dateFrom, dateTo *time.Time) (string, []any) {
	conditions := make([]string, 0, 6)
	args := make([]any, 0, 6)

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if userID != "" {
		add("a.user_id = $%d", userID)
	}
	if entityType != "" {
		add("a.entity_type = $%d", entityType)
	}
	if entityID != "" {
		add("a.entity_id = $%d", entityID)
	}
	if action != "" {
		add("a.action = $%d", action)
	}
	if dateFrom != nil {
		add("a.created_at >= $%d", *dateFrom)
	}
	if dateTo != nil {
		add("a.created_at <= $%d", *dateTo)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
