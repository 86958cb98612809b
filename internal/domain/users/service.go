package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gemeenteweb/server/internal/audit"
	"github.com/gemeenteweb/server/internal/email"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Error types for user domain operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationRevoked  = errors.New("invitation has been revoked")
	ErrInvitationAccepted = errors.New("invitation has already been accepted")
	ErrInvalidParams      = errors.New("invalid parameters")
)

const (
	// DefaultInvitationExpiry is the time until a (re)sent invitation expires
	DefaultInvitationExpiry = 168 * time.Hour // 7 days

	delegateTimeout = 5 * time.Second
)

// User is the directory record exposed to the admin API.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Invitation is a pending account invitation. Only the token hash is stored;
// the plaintext token exists solely in the invitation email.
type Invitation struct {
	ID         string
	UserID     string
	Email      string
	TokenHash  string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	RevokedAt  *time.Time
	CreatedBy  string
}

// Repository is the persistence delegate for users and invitations.
// Transact runs fn against a transaction-scoped repository; the invitation
// state checks and their follow-up writes run inside it so a concurrent
// accept cannot slip between the read and the update.
type Repository interface {
	List(ctx context.Context, search string, limit, offset int) ([]User, int64, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetInvitation(ctx context.Context, id string) (Invitation, error)
	RevokeInvitation(ctx context.Context, id string, revokedAt time.Time) error
	RotateInvitationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	Transact(ctx context.Context, fn func(context.Context, Repository) error) error
}

// Service handles the user directory and invitation lifecycle.
type Service struct {
	repo     Repository
	emailSvc *email.Service
	recorder *audit.Recorder
	baseURL  string
	logger   zerolog.Logger
	validate *validator.Validate
}

func NewService(repo Repository, emailSvc *email.Service, recorder *audit.Recorder, baseURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		emailSvc: emailSvc,
		recorder: recorder,
		baseURL:  baseURL,
		logger:   logger.With().Str("component", "users").Logger(),
		validate: validator.New(),
	}
}

// ListParams bounds a directory listing request.
type ListParams struct {
	Page   int    `validate:"gte=1"`
	Limit  int    `validate:"gte=1,lte=100"`
	Search string `validate:"omitempty,max=200"`
}

// List returns one page of the user directory, optionally narrowed by a
// case-insensitive search over username and email.
func (s *Service) List(ctx context.Context, params ListParams) ([]User, int64, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidParams, err)
	}

	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	offset := (params.Page - 1) * params.Limit
	users, total, err := s.repo.List(ctx, params.Search, params.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Get returns a single user by ID.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// RevokeInvitation marks a pending invitation as revoked. Revoked and
// already-accepted invitations cannot be revoked again.
func (s *Service) RevokeInvitation(ctx context.Context, invitationID, revokedBy, clientIP string) error {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	var invitation Invitation
	err := s.repo.Transact(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		invitation, err = repo.GetInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if invitation.RevokedAt != nil {
			return ErrInvitationRevoked
		}
		if invitation.AcceptedAt != nil {
			return ErrInvitationAccepted
		}
		if err := repo.RevokeInvitation(ctx, invitationID, time.Now().UTC()); err != nil {
			return fmt.Errorf("revoke invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recorder.Record(ctx, revokedBy, "invitation.revoked", "Invitation", invitationID, clientIP, map[string]string{
		"email": invitation.Email,
	})
	return nil
}

// ResendInvitation rotates the invitation token, extends its expiry, and
// sends a fresh invitation email. The previous token stops working because
// only the new hash remains stored.
func (s *Service) ResendInvitation(ctx context.Context, invitationID, resentBy, clientIP string) error {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	token, err := generateSecureToken()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	var invitation Invitation
	err = s.repo.Transact(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		invitation, err = repo.GetInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if invitation.RevokedAt != nil {
			return ErrInvitationRevoked
		}
		if invitation.AcceptedAt != nil {
			return ErrInvitationAccepted
		}
		expiresAt := time.Now().UTC().Add(DefaultInvitationExpiry)
		if err := repo.RotateInvitationToken(ctx, invitationID, hashToken(token), expiresAt); err != nil {
			return fmt.Errorf("rotate invitation token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	inviteLink := fmt.Sprintf("%s/accept-invitation?token=%s", s.baseURL, token)
	if err := s.emailSvc.SendInvitation(ctx, invitation.Email, inviteLink, resentBy); err != nil {
		s.logger.Error().Err(err).Str("email", invitation.Email).Msg("failed to send invitation email")
		// The rotation already happened; a failed email is recoverable by
		// resending again, so it does not fail the operation.
	}

	s.recorder.Record(ctx, resentBy, "invitation.resent", "Invitation", invitationID, clientIP, map[string]string{
		"email": invitation.Email,
	})
	return nil
}

// generateSecureToken returns a 32-byte random token as URL-safe base64.
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// hashToken hashes an invitation token with SHA-256 for storage.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.URLEncoding.EncodeToString(hash[:])
}
