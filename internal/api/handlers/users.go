package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gemeenteweb/server/internal/api/middleware"
	"github.com/gemeenteweb/server/internal/api/respond"
	"github.com/gemeenteweb/server/internal/auth"
	"github.com/gemeenteweb/server/internal/domain/auditlog"
	"github.com/gemeenteweb/server/internal/domain/users"
)

// UserService defines the user directory operations the handler needs.
type UserService interface {
	List(ctx context.Context, params users.ListParams) ([]users.User, int64, error)
}

// ActivityService returns the audit trail of a single actor.
type ActivityService interface {
	ActorActivity(ctx context.Context, userID string, limit int) ([]auditlog.Entry, error)
}

// UsersHandler serves the admin user directory and per-user activity.
type UsersHandler struct {
	userService     UserService
	activityService ActivityService
	env             string
}

func NewUsersHandler(userService UserService, activityService ActivityService, env string) *UsersHandler {
	return &UsersHandler{
		userService:     userService,
		activityService: activityService,
		env:             env,
	}
}

// ListUsersResponse is the paginated user directory page.
type ListUsersResponse struct {
	Users []users.User `json:"users"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// ActivityResponse wraps a user's recent audit entries.
type ActivityResponse struct {
	Activities []auditlog.Entry `json:"activities"`
}

// List handles GET /api/users. Only admins may enumerate the directory.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r)
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", respond.ErrUnauthorized)
		return
	}
	if !auth.CanViewAllUsers(principal) {
		respond.Error(w, r, http.StatusForbidden, "Insufficient permissions", respond.ErrForbidden)
		return
	}

	filter := auditlog.ParseFilter(r.URL.Query(), auditlog.DefaultUsersLimit)
	result, total, err := h.userService.List(r.Context(), users.ListParams{
		Page:   filter.Page,
		Limit:  filter.Limit,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		if errors.Is(err, users.ErrInvalidParams) {
			respond.Error(w, r, http.StatusBadRequest, "Invalid query parameters", err)
			return
		}
		respond.Error(w, r, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	respond.JSON(w, http.StatusOK, ListUsersResponse{
		Users: result,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// Activity handles GET /api/users/{id}/activity. Admins may view anyone;
// other callers only themselves.
func (h *UsersHandler) Activity(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r)
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", respond.ErrUnauthorized)
		return
	}

	targetID := pathParam(r, "id")
	if !auth.CanViewUserActivity(principal, targetID) {
		respond.Error(w, r, http.StatusForbidden, "Insufficient permissions", respond.ErrForbidden)
		return
	}

	filter := auditlog.ParseFilter(r.URL.Query(), auditlog.DefaultActivityLimit)
	entries, err := h.activityService.ActorActivity(r.Context(), targetID, filter.Limit)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "Failed to load user activity", err)
		return
	}

	respond.JSON(w, http.StatusOK, ActivityResponse{Activities: entries})
}
