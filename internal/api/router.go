package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gemeenteweb/server/internal/api/handlers"
	"github.com/gemeenteweb/server/internal/api/middleware"
	"github.com/gemeenteweb/server/internal/audit"
	"github.com/gemeenteweb/server/internal/auth"
	"github.com/gemeenteweb/server/internal/blob"
	"github.com/gemeenteweb/server/internal/config"
	"github.com/gemeenteweb/server/internal/domain/auditlog"
	"github.com/gemeenteweb/server/internal/domain/users"
	"github.com/gemeenteweb/server/internal/email"
	"github.com/gemeenteweb/server/internal/metrics"
	"github.com/gemeenteweb/server/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps carries the wired dependencies for the HTTP surface.
type RouterDeps struct {
	Config  config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Repo    storage.Repository
	Blob    blob.Store
	Version string
}

// NewRouter assembles services, handlers, and the middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	recorder := audit.NewRecorder(deps.Repo.AuditLogs(), logger)

	emailService, err := email.NewService(cfg.Email, logger)
	if err != nil {
		logger.Error().Err(err).Msg("email service init failed, continuing with email disabled")
		emailService, _ = email.NewService(config.EmailConfig{}, logger)
	}

	auditService := auditlog.NewService(deps.Repo.AuditLogs(), logger)
	userService := users.NewService(deps.Repo.Users(), emailService, recorder, cfg.Server.BaseURL, logger)

	usersHandler := handlers.NewUsersHandler(userService, auditService, cfg.Environment)
	auditHandler := handlers.NewAuditLogsHandler(auditService, cfg.Environment)
	invitationsHandler := handlers.NewInvitationsHandler(userService, cfg.Environment)
	uploadHandler := handlers.NewUploadHandler(deps.Blob, cfg.Environment)
	healthChecker := handlers.NewHealthChecker(deps.Pool, deps.Version)

	requireAuth := middleware.RequireAuth(jwtManager, cfg.Environment)
	apiBody := middleware.APIRequestSize()
	uploadBody := middleware.UploadRequestSize()

	authed := func(pattern string, h http.Handler) http.Handler {
		return metrics.Instrument(pattern, requireAuth(apiBody(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/health", healthChecker.Health())
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/users", authed("/api/users", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(usersHandler.List),
	})))
	mux.Handle("/api/users/{id}/activity", authed("/api/users/{id}/activity", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(usersHandler.Activity),
	})))
	mux.Handle("/api/audit-logs", authed("/api/audit-logs", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(auditHandler.List),
	})))
	mux.Handle("/api/audit-logs/entity/{type}/{id}", authed("/api/audit-logs/entity/{type}/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(auditHandler.EntityLogs),
	})))
	mux.Handle("/api/invitations/{id}", authed("/api/invitations/{id}", methodMux(map[string]http.Handler{
		http.MethodPatch: http.HandlerFunc(invitationsHandler.Update),
	})))
	mux.Handle("/api/upload", metrics.Instrument("/api/upload",
		requireAuth(uploadBody(methodMux(map[string]http.Handler{
			http.MethodPost: http.HandlerFunc(uploadHandler.Upload),
		})))))

	var handler http.Handler = mux
	handler = middleware.RateLimit(cfg.RateLimit)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
