/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the day-lifecycle engine server. Handles
  configuration, dependency injection, the background Scheduler, and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Wire WorkTracker, Planner, Backup manager, Scheduler
  4. Create API handler with dependencies
  5. Start the Scheduler in the background
  6. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port          HTTP server port (default: 8080)
  -db            SQLite database path (default: dayline.db)
                 Use ":memory:" for in-memory database
  -backup-dir    Directory backups are written to (default: ./backups)
  -tick          Scheduler poll interval (default: 1m)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the Scheduler (lets an in-flight job finish)
  2. Stop accepting new HTTP connections, drain in-flight requests (30s)
  3. Close the database connection

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - scheduler/scheduler.go: background job loop
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

	"github.com/warp/dayline/api"
	"github.com/warp/dayline/backup"
	"github.com/warp/dayline/planner"
	"github.com/warp/dayline/scheduler"
	"github.com/warp/dayline/store/sqlite"
	"github.com/warp/dayline/worktracker"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "dayline.db", "SQLite database path")
	backupDir := flag.String("backup-dir", "./backups", "directory backups are written to")
	tick := flag.Duration("tick", time.Minute, "scheduler poll interval")
	flag.Parse()

	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer st.Close()

	tracker := worktracker.New(st, nil)
	pl := planner.New(st)
	backupMgr := backup.New(st, *dbPath, *backupDir, nil)
	sched := scheduler.New(st, backupMgr, *tick, nil)

	handler := api.NewHandler(st, tracker, pl, sched, backupMgr)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	schedCtx, cancelSched := context.WithCancel(context.Background())
	go sched.Run(schedCtx)

	go func() {
		log.Printf("dayline server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Shutdown(shutdownCtx); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
	cancelSched()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server stopped")
}
