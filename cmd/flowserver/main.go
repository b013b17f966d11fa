// Command flowserver serves flows stored in SQLite over the REST API the
// editor's HTTP store talks to.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petrijr/flowkit/internal/flowapi"
	"github.com/petrijr/flowkit/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	port := os.Getenv("FLOWKIT_PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("FLOWKIT_DB")
	if dsn == "" {
		dsn = "file:flowkit.db?_journal=WAL"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("open database", "dsn", dsn, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := persistence.NewSQLiteFlowStore(db)
	if err != nil {
		logger.Error("init flow store", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           flowapi.NewRouter(store, "/api", logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("flowserver listening", "addr", srv.Addr, "db", dsn)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
