package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthCheck is the aggregate health report.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult is one dependency's health.
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// HealthChecker reports server and database health.
type HealthChecker struct {
	pool    *pgxpool.Pool
	version string
}

func NewHealthChecker(pool *pgxpool.Pool, version string) *HealthChecker {
	return &HealthChecker{pool: pool, version: version}
}

// Health returns the full health check handler.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(ctx),
			"migrations": h.checkMigrations(ctx),
		}

		status := "healthy"
		code := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    status,
			Version:   h.version,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	if h.pool == nil {
		return CheckResult{Status: "fail", Message: "database pool not initialized"}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var result int
	err := h.pool.QueryRow(dbCtx, "SELECT 1").Scan(&result)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{Status: "fail", Message: err.Error(), LatencyMs: latency}
	}
	return CheckResult{Status: "pass", LatencyMs: latency}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	start := time.Now()
	if h.pool == nil {
		return CheckResult{Status: "fail", Message: "database pool not initialized"}
	}

	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := h.pool.QueryRow(migCtx, "SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&version, &dirty)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{Status: "fail", Message: err.Error(), LatencyMs: latency}
	}
	if dirty {
		return CheckResult{Status: "fail", Message: "database in dirty migration state", LatencyMs: latency}
	}
	return CheckResult{Status: "pass", LatencyMs: latency}
}

// Healthz is the lightweight liveness endpoint.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
