/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the settlement engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment)
  2. Initialize logging
  3. Open SQLite store and apply migrations
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

ENVIRONMENT:
  PORT                      HTTP port (default: 8080)
  SQLITE_DB_PATH            Database file (default: ./data/settlement.db)
                            Use ":memory:" for an in-memory database
  CORS_ALLOWED_ORIGINS      Comma-separated dashboard origins
  SHUTDOWN_TIMEOUT          Grace period for active requests (default: 10s)
  LOG_LEVEL                 trace, debug, info, warn, error (default: info)
  BILLING_YEAR_START_MONTH  1 for calendar years, else fiscal start month

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SHUTDOWN_TIMEOUT)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Settings
  - cmd/settlectl: Command-line tool over the same store
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/settlement-engine/api"
	"github.com/warp/settlement-engine/config"
	"github.com/warp/settlement-engine/logging"
	"github.com/warp/settlement-engine/store/sqlite"
)

func main() {
	cfg := config.Load()
	logging.Init("settlement", cfg.LogLevel)
	log := logging.Component("server")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	// Initialize store
	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	if version, dirty, err := store.MigrationVersion(); err == nil {
		log.WithField("version", version).WithField("dirty", dirty).Info("Database schema ready")
	}

	handler := api.NewHandler(store, cfg.Periods(), logging.Component("api"))
	router := api.NewRouter(handler, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server starting on http://localhost:%s", cfg.Port)
		log.Infof("API available at http://localhost:%s/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return
	}

	log.Info("Server stopped")
}
