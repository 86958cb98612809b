package handlers

import (
	"context"
	"net/http"

	"github.com/gemeenteweb/server/internal/api/middleware"
	"github.com/gemeenteweb/server/internal/api/respond"
	"github.com/gemeenteweb/server/internal/auth"
	"github.com/gemeenteweb/server/internal/domain/auditlog"
)

// AuditLogService defines the audit log queries the handler needs.
type AuditLogService interface {
	Query(ctx context.Context, filter auditlog.Filter) (auditlog.QueryResult, error)
	QueryWithStatistics(ctx context.Context, filter auditlog.Filter) (auditlog.QueryResult, auditlog.Stats, error)
	EntityLogs(ctx context.Context, entityType, entityID string, limit int) ([]auditlog.Entry, error)
}

// AuditLogsHandler serves the global audit log and per-entity histories.
type AuditLogsHandler struct {
	service AuditLogService
	env     string
}

func NewAuditLogsHandler(service AuditLogService, env string) *AuditLogsHandler {
	return &AuditLogsHandler{service: service, env: env}
}

// LogsResponse is one page of the global audit log. Statistics are present
// only when the caller asked for them.
type LogsResponse struct {
	Logs       []auditlog.Entry `json:"logs"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Statistics *auditlog.Stats  `json:"statistics,omitempty"`
}

// EntityLogsResponse wraps the audit entries about one entity.
type EntityLogsResponse struct {
	Logs []auditlog.Entry `json:"logs"`
}

// List handles GET /api/audit-logs. Admin only.
func (h *AuditLogsHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r)
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", respond.ErrUnauthorized)
		return
	}
	if !auth.CanViewAllUsers(principal) {
		respond.Error(w, r, http.StatusForbidden, "Insufficient permissions", respond.ErrForbidden)
		return
	}

	filter := auditlog.ParseFilter(r.URL.Query(), auditlog.DefaultLogsLimit)

	resp := LogsResponse{Page: filter.Page, Limit: filter.Limit}
	if filter.Stats {
		result, stats, err := h.service.QueryWithStatistics(r.Context(), filter)
		if err != nil {
			respond.Error(w, r, http.StatusInternalServerError, "Failed to query audit logs", err)
			return
		}
		resp.Logs = result.Entries
		resp.Total = result.Total
		resp.Statistics = &stats
	} else {
		result, err := h.service.Query(r.Context(), filter)
		if err != nil {
			respond.Error(w, r, http.StatusInternalServerError, "Failed to query audit logs", err)
			return
		}
		resp.Logs = result.Entries
		resp.Total = result.Total
	}

	respond.JSON(w, http.StatusOK, resp)
}

// EntityLogs handles GET /api/audit-logs/entity/{type}/{id}. Admins may
// view any entity; other callers only their own user record.
func (h *AuditLogsHandler) EntityLogs(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r)
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", respond.ErrUnauthorized)
		return
	}

	entityType := pathParam(r, "type")
	entityID := pathParam(r, "id")
	if !auth.CanViewEntityAuditLogs(principal, entityType, entityID) {
		respond.Error(w, r, http.StatusForbidden, "Insufficient permissions", respond.ErrForbidden)
		return
	}

	filter := auditlog.ParseFilter(r.URL.Query(), auditlog.DefaultEntityLimit)
	entries, err := h.service.EntityLogs(r.Context(), entityType, entityID, filter.Limit)
	if err != nil {
		respond.Error(w, r, http.StatusInternalServerError, "Failed to query entity audit logs", err)
		return
	}

	respond.JSON(w, http.StatusOK, EntityLogsResponse{Logs: entries})
}
