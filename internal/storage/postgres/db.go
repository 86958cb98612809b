package postgres

import (
	"context"
	"fmt"

	"github.com/gemeenteweb/server/internal/domain/auditlog"
	"github.com/gemeenteweb/server/internal/domain/users"
	"github.com/gemeenteweb/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so repositories run
// unchanged inside and outside transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) db() dbtx {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{db: r.db(), root: r}
}

func (r *Repository) AuditLogs() auditlog.Repository {
	return &AuditLogRepository{db: r.db()}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
