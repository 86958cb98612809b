package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gemeenteweb/server/internal/api/middleware"
	"github.com/gemeenteweb/server/internal/api/respond"
	"github.com/gemeenteweb/server/internal/audit"
	"github.com/gemeenteweb/server/internal/auth"
	"github.com/gemeenteweb/server/internal/domain/users"
)

// InvitationService defines the invitation lifecycle operations.
type InvitationService interface {
	RevokeInvitation(ctx context.Context, invitationID, revokedBy, clientIP string) error
	ResendInvitation(ctx context.Context, invitationID, resentBy, clientIP string) error
}

// InvitationsHandler handles the invitation action endpoint.
type InvitationsHandler struct {
	service InvitationService
	env     string
}

func NewInvitationsHandler(service InvitationService, env string) *InvitationsHandler {
	return &InvitationsHandler{service: service, env: env}
}

// InvitationActionRequest is the PATCH body. Action selects the operation.
type InvitationActionRequest struct {
	Action string `json:"action"`
}

// MessageResponse is a simple confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// Update handles PATCH /api/invitations/{id}. Admin only. The body names
// the action; anything other than revoke or resend is rejected before any
// service call.
func (h *InvitationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r)
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", respond.ErrUnauthorized)
		return
	}
	if !auth.CanManageInvitations(principal) {
		respond.Error(w, r, http.StatusForbidden, "Insufficient permissions", respond.ErrForbidden)
		return
	}

	invitationID := pathParam(r, "id")
	if invitationID == "" {
		respond.Error(w, r, http.StatusBadRequest, "Invitation ID is required", errors.New("missing id path parameter"))
		return
	}

	var req InvitationActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	clientIP := audit.ClientIP(r)

	switch req.Action {
	case "revoke":
		if err := h.service.RevokeInvitation(r.Context(), invitationID, principal.ID, clientIP); err != nil {
			h.writeInvitationError(w, r, err, "Failed to revoke invitation")
			return
		}
		respond.JSON(w, http.StatusOK, MessageResponse{Message: "Invitation revoked"})
	case "resend":
		if err := h.service.ResendInvitation(r.Context(), invitationID, principal.ID, clientIP); err != nil {
			h.writeInvitationError(w, r, err, "Failed to resend invitation")
			return
		}
		respond.JSON(w, http.StatusOK, MessageResponse{Message: "Invitation resent"})
	default:
		respond.Error(w, r, http.StatusBadRequest, "Invalid action: must be 'revoke' or 'resend'", nil)
	}
}

func (h *InvitationsHandler) writeInvitationError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, users.ErrInvitationNotFound):
		respond.Error(w, r, http.StatusNotFound, "Invitation not found", err)
	case errors.Is(err, users.ErrInvitationRevoked):
		respond.Error(w, r, http.StatusConflict, "Invitation has been revoked", err)
	case errors.Is(err, users.ErrInvitationAccepted):
		respond.Error(w, r, http.StatusConflict, "Invitation has already been accepted", err)
	default:
		respond.Error(w, r, http.StatusInternalServerError, fallback, err)
	}
}
