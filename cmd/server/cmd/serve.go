package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gemeenteweb/server/internal/api"
	"github.com/gemeenteweb/server/internal/blob"
	"github.com/gemeenteweb/server/internal/config"
	"github.com/gemeenteweb/server/internal/metrics"
	"github.com/gemeenteweb/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the back office HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap an admin user if ADMIN_* env vars are set
- Serve the user directory, audit log, invitation, and upload endpoints
- Handle graceful shutdown on SIGINT/SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting gemeente server")

	metrics.Init(Version, GitCommit, BuildDate)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminUser(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	cancel()

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init failed: %w", err)
	}

	var store blob.Store
	if cfg.Storage.Endpoint != "" {
		store, err = blob.NewS3Store(cfg.Storage)
		if err != nil {
			return fmt.Errorf("blob store init failed: %w", err)
		}
	} else {
		logger.Warn().Msg("S3 storage not configured, uploads will fail")
	}

	handler := api.NewRouter(api.RouterDeps{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Repo:    repo,
		Blob:    store,
		Version: Version,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	return cfg, nil
}

func bootstrapAdminUser(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Username == "" || bootstrap.Password == "" || bootstrap.Email == "" {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	const checkQuery = `SELECT id FROM users WHERE email = $1 OR username = $2 LIMIT 1`
	row := pool.QueryRow(ctx, checkQuery, bootstrap.Email, bootstrap.Username)
	var existingID string
	if err := row.Scan(&existingID); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrap.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	const insertQuery = `
INSERT INTO users (id, username, email, password_hash, role, is_active, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, 'admin', true, now())`
	if _, err := pool.Exec(ctx, insertQuery, bootstrap.Username, bootstrap.Email, string(hash)); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	// Redact email in production to avoid PII leaks
	if cfg.Environment == "production" {
		logger.Info().Str("username", bootstrap.Username).Msg("bootstrapped admin user")
	} else {
		logger.Info().Str("email", bootstrap.Email).Str("username", bootstrap.Username).Msg("bootstrapped admin user")
	}
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
