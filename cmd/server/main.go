/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the revenue allocation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite mirror store
  3. Build a CRM syncer if credentials are configured
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: revenue.db)
           Use ":memory:" for in-memory database
  -year    Calendar year the mirror tracks (default: current year)
  -sync    Run a CRM sync on startup

ENVIRONMENT:
  GRIPP_API_URL      CRM API base URL
  GRIPP_API_TOKEN    CRM API bearer token
  Without both, the server still runs: allocations work against
  whatever the mirror holds, and POST /api/sync returns 503.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/revenue.db"

  # Run with in-memory database and demo scenarios only
  ./server -db=":memory:"

  # Mirror last year and sync immediately
  ./server -year=2025 -sync

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - gripp/sync.go: CRM mirror refresh
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gripp/revenue-engine/api"
	"github.com/gripp/revenue-engine/gripp"
	"github.com/gripp/revenue-engine/store/sqlite"
)

func main() {
	// .env is optional; flags and real env vars win
	_ = godotenv.Load()

	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "revenue.db", "SQLite database path")
	year := flag.Int("year", time.Now().Year(), "Calendar year the mirror tracks")
	syncOnStart := flag.Bool("sync", false, "Run a CRM sync on startup")
	flag.Parse()

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	// Initialize CRM syncer, if credentials are present
	var syncer *gripp.Syncer
	client, err := gripp.NewClientFromEnv()
	switch {
	case err == nil:
		syncer = gripp.NewSyncer(client, st)
	case errors.Is(err, gripp.ErrMissingCredentials):
		log.Printf("No CRM credentials configured; running on mirror data only")
	default:
		log.Fatalf("Failed to configure CRM client: %v", err)
	}

	if *syncOnStart {
		if syncer == nil {
			log.Fatalf("-sync requires GRIPP_API_URL and GRIPP_API_TOKEN")
		}
		if _, err := syncer.Run(context.Background(), *year); err != nil {
			log.Fatalf("Startup sync failed: %v", err)
		}
	}

	// Initialize handler and router
	handler := api.NewHandler(st, syncer, *year)
	router := api.NewRouter(handler)

	// Create server
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
