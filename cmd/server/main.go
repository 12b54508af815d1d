/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the EcoVault waste bank server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + env), apply command-line flag overrides
  2. Initialize SQLite store and seed defaults on first run
  3. Build ledger engine, catalog and report generator
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for in-memory database

CONFIGURATION:
  config.toml in the working directory, or ECOVAULT_* env vars:
    ECOVAULT_SERVER_PORT, ECOVAULT_DATABASE_PATH,
    ECOVAULT_LLM_MODEL, ECOVAULT_LLM_ENABLED,
    ECOVAULT_LEDGER_MINIMUM_WITHDRAWAL, ECOVAULT_LEDGER_SEED
  The Gemini API key is read from GEMINI_API_KEY by the client itself.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/ecovault.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - core/seed.go: First-run defaults
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
	"path/filepath"
	"syscall"
	"time"

	"github.com/ecovault/bank-engine/api"
	"github.com/ecovault/bank-engine/config"
	"github.com/ecovault/bank-engine/core"
	"github.com/ecovault/bank-engine/report"
	"github.com/ecovault/bank-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override config
	port := flag.Int("port", cfg.Server.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()

	// Initialize store
	if *dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if cfg.Ledger.Seed {
		if err := core.Seed(context.Background(), store, time.Now); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	// Build the engine and its HTTP surface
	engine := core.NewEngine(store,
		core.WithMinimumWithdrawal(core.Money(cfg.Ledger.MinimumWithdrawal)))
	catalog := core.NewCatalog(store)

	var reports report.Generator
	if cfg.LLM.Enabled {
		gen, err := report.NewGemini(context.Background(), cfg.LLM.Model)
		if err != nil {
			log.Printf("Warning: report generation disabled: %v", err)
		} else {
			reports = gen
		}
	}

	handler := api.NewHandler(engine, catalog, reports)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
