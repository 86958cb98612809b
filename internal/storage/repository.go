package storage

import (
	"context"

	"github.com/gemeenteweb/server/internal/domain/auditlog"
	"github.com/gemeenteweb/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	AuditLogs() auditlog.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
