package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/lan-tournament/internal/config"
	"github.com/AdamBeresnev/lan-tournament/internal/db"
	"github.com/AdamBeresnev/lan-tournament/internal/live"
	"github.com/AdamBeresnev/lan-tournament/internal/metrics"
	"github.com/AdamBeresnev/lan-tournament/internal/service"
	"github.com/AdamBeresnev/lan-tournament/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub()
	go hub.Run(ctx)
	observers := []service.Observer{hub}

	if cfg.RedisURL != "" {
		publisher, err := live.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to configure redis", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		if err := publisher.Ping(ctx); err != nil {
			slog.Warn("Redis unreachable at startup", "error", err)
		}
		observers = append(observers, publisher)
	}

	tournamentStore := store.NewTournamentStore(database)
	srv := &server{
		tournaments: service.NewTournamentService(database, tournamentStore, service.WithObservers(observers...)),
		matches:     service.NewMatchService(database, tournamentStore, service.WithObservers(observers...)),
		hub:         hub,
		adminToken:  cfg.AdminToken,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down server", "error", err)
		}
	}()

	slog.Info("Server starting", "addr", cfg.Addr())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
