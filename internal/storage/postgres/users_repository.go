package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gemeenteweb/server/internal/domain/users"
	"github.com/gemeenteweb/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserRepository struct {
	db   dbtx
	root *Repository
}

// Transact runs fn against a user repository bound to a single transaction.
func (r *UserRepository) Transact(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	return r.root.WithTx(ctx, func(ctx context.Context, repo storage.Repository) error {
		return fn(ctx, repo.Users())
	})
}

const listUsersQuery = `
SELECT id, username, email, role, is_active, created_at, last_login_at
FROM users
WHERE deleted_at IS NULL
  AND ($1 = '' OR username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

const countUsersQuery = `
SELECT count(*)
FROM users
WHERE deleted_at IS NULL
  AND ($1 = '' OR username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')`

func (r *UserRepository) List(ctx context.Context, search string, limit, offset int) ([]users.User, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, countUsersQuery, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.db.Query(ctx, listUsersQuery, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	result := make([]users.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users rows: %w", err)
	}
	return result, total, nil
}

const getUserByIDQuery = `
SELECT id, username, email, role, is_active, created_at, last_login_at
FROM users
WHERE id = $1 AND deleted_at IS NULL`

func (r *UserRepository) GetByID(ctx context.Context, id string) (users.User, error) {
	userID, err := scanUUID(id)
	if err != nil {
		return users.User{}, users.ErrUserNotFound
	}

	user, err := scanUser(r.db.QueryRow(ctx, getUserByIDQuery, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}
		return users.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

const getInvitationQuery = `
SELECT id, user_id, email, token_hash, expires_at, accepted_at, revoked_at, created_by
FROM user_invitations
WHERE id = $1`

func (r *UserRepository) GetInvitation(ctx context.Context, id string) (users.Invitation, error) {
	invitationID, err := scanUUID(id)
	if err != nil {
		return users.Invitation{}, users.ErrInvitationNotFound
	}

	var (
		rowID      pgtype.UUID
		userID     pgtype.UUID
		email      string
		tokenHash  string
		expiresAt  pgtype.Timestamptz
		acceptedAt pgtype.Timestamptz
		revokedAt  pgtype.Timestamptz
		createdBy  pgtype.UUID
	)
	row := r.db.QueryRow(ctx, getInvitationQuery, invitationID)
	if err := row.Scan(&rowID, &userID, &email, &tokenHash, &expiresAt, &acceptedAt, &revokedAt, &createdBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.Invitation{}, users.ErrInvitationNotFound
		}
		return users.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}

	return users.Invitation{
		ID:         uuidToString(rowID),
		UserID:     uuidToString(userID),
		Email:      email,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt.Time,
		AcceptedAt: timePtr(acceptedAt),
		RevokedAt:  timePtr(revokedAt),
		CreatedBy:  uuidToString(createdBy),
	}, nil
}

const revokeInvitationQuery = `
UPDATE user_invitations
SET revoked_at = $2
WHERE id = $1 AND revoked_at IS NULL AND accepted_at IS NULL`

func (r *UserRepository) RevokeInvitation(ctx context.Context, id string, revokedAt time.Time) error {
	invitationID, err := scanUUID(id)
	if err != nil {
		return users.ErrInvitationNotFound
	}

	tag, err := r.db.Exec(ctx, revokeInvitationQuery, invitationID, revokedAt)
	if err != nil {
		return fmt.Errorf("revoke invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrInvitationNotFound
	}
	return nil
}

const rotateInvitationQuery = `
UPDATE user_invitations
SET token_hash = $2, expires_at = $3
WHERE id = $1 AND revoked_at IS NULL AND accepted_at IS NULL`

func (r *UserRepository) RotateInvitationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	invitationID, err := scanUUID(id)
	if err != nil {
		return users.ErrInvitationNotFound
	}

	tag, err := r.db.Exec(ctx, rotateInvitationQuery, invitationID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("rotate invitation token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrInvitationNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (users.User, error) {
	var (
		id          pgtype.UUID
		username    string
		email       string
		role        string
		isActive    bool
		createdAt   pgtype.Timestamptz
		lastLoginAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &username, &email, &role, &isActive, &createdAt, &lastLoginAt); err != nil {
		return users.User{}, err
	}
	return users.User{
		ID:          uuidToString(id),
		Username:    username,
		Email:       email,
		Role:        role,
		IsActive:    isActive,
		CreatedAt:   createdAt.Time,
		LastLoginAt: timePtr(lastLoginAt),
	}, nil
}
