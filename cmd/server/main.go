// Package main serves persisted backtest results and Prometheus
// metrics over HTTP. Endpoints:
//   - /healthz          liveness probe
//   - /metrics          Prometheus metrics
//   - /runs             run results (all, or ?series=NAME)
//   - /runs/{id}        one run result
//   - /runs/{id}/trades trade logs of a run, in execution order
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backtest-lab/internal/observability"
	"backtest-lab/internal/storage"
	"backtest-lab/internal/storage/migrations"
	pgstore "backtest-lab/internal/storage/postgres"
)

type server struct {
	runResults storage.RunResultStore
	tradeLogs  storage.TradeLogStore
	logger     *log.Logger
}

func main() {
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres DSN (required)")

	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("run postgres migrations: %v", err)
	}

	s := &server{
		runResults: pgstore.NewRunResultStore(pool),
		tradeLogs:  pgstore.NewTradeLogStore(pool),
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)
	mux.HandleFunc("GET /runs/{id}/trades", s.handleRunTrades)

	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
		cancel()
	}()

	logger.Printf("listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	var (
		results any
		err     error
	)
	if series := r.URL.Query().Get("series"); series != "" {
		results, err = s.runResults.GetBySeries(r.Context(), series)
	} else {
		results, err = s.runResults.GetAll(r.Context())
	}
	if err != nil {
		s.internalError(w, "load run results", err)
		return
	}
	s.writeJSON(w, results)
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.runResults.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "load run result", err)
		return
	}
	s.writeJSON(w, result)
}

func (s *server) handleRunTrades(w http.ResponseWriter, r *http.Request) {
	logs, err := s.tradeLogs.GetByRunID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.internalError(w, "load trade logs", err)
		return
	}
	s.writeJSON(w, logs)
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Printf("%s: %v", msg, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
