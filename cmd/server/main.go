/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the agency commission report server.
  Handles configuration, store selection, the export scheduler and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env / environment, then apply command-line flags
  2. Validate configuration
  3. Open the record store (sqlite, memory or postgres)
  4. Optionally seed a demo scenario into an empty writable store
  5. Start the export scheduler when EXPORT_DIR is set
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override environment):
  -port        HTTP server port (default: 8080)
  -db          SQLite database path (default: reports.db)
               Use ":memory:" for in-memory database
  -driver      sqlite | postgres | memory
  -export-dir  Directory for scheduled CSV snapshots
  -seed        Demo scenario for an empty store

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the export scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/reports.db"

  # Read straight from the hosted backend
  DB_DRIVER=postgres DATABASE_URL="postgres://..." ./server

  # In-memory with demo data
  ./server -driver=memory -seed=agency-mix

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/agency-reports/api"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/config"
	"github.com/warp/agency-reports/export"
	"github.com/warp/agency-reports/generic/store"
	"github.com/warp/agency-reports/store/postgres"
	"github.com/warp/agency-reports/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyFlags(flag.CommandLine, os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize store
	source, closeStore, err := openSource(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer closeStore()

	// Initialize handler
	handler := api.NewHandler(source)
	handler.SetCurrency(cfg.Currency)

	if cfg.SeedScenario != "" {
		seed(context.Background(), handler, cfg.SeedScenario)
	}

	// Export scheduler
	scheduler := api.NewExportScheduler(source, cfg.ExportDir)
	scheduler.Interval = cfg.ExportInterval
	scheduler.Currency = export.MoneyFormatter(cfg.Currency)
	scheduler.Enabled = cfg.ExportDir != ""
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d (store: %s)", cfg.Port, cfg.DBDriver)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openSource opens the configured record source and returns its closer.
func openSource(ctx context.Context, cfg config.Config) (commission.RecordSource, func() error, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		src, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("[Store] Reading from Postgres (read-only)")
		return src, src.Close, nil
	case config.DriverMemory:
		log.Println("[Store] Using in-memory store")
		return store.NewMemory(), func() error { return nil }, nil
	default:
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[Store] Using SQLite at %s", cfg.DBPath)
		return s, s.Close, nil
	}
}

// seed loads a demo scenario when the store holds no properties yet.
func seed(ctx context.Context, h *api.Handler, scenarioID string) {
	if h.Store == nil {
		log.Printf("[Store] Not seeding %s: store is read-only", scenarioID)
		return
	}
	records, err := h.Store.LoadRecords(ctx)
	if err != nil {
		log.Printf("[Store] Not seeding %s: %v", scenarioID, err)
		return
	}
	if len(records.Properties) > 0 {
		return
	}
	if err := h.LoadScenarioByID(ctx, scenarioID); err != nil {
		log.Printf("[Store] Failed to seed %s: %v", scenarioID, err)
	}
}
