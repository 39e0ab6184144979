package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kancelariai/stefan/internal/bus"
	"github.com/kancelariai/stefan/internal/config"
	"github.com/kancelariai/stefan/internal/gateway"
	"github.com/kancelariai/stefan/internal/syncqueue"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("stefan-gateway starting", "port", cfg.GatewayPort, "version", cfg.CacheVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		slog.Error("invalid upstream URL", "url", cfg.UpstreamURL, "error", err)
		os.Exit(1)
	}

	// Response cache
	cache, err := gateway.OpenCache(cfg.CachePath)
	if err != nil {
		slog.Error("failed to open cache", "path", cfg.CachePath, "error", err)
		os.Exit(1)
	}
	defer cache.Close()
	slog.Info("cache opened", "path", cfg.CachePath)

	gw := gateway.New(upstream, cache, cfg.CacheVersion, cfg.GatewayHost, slog.Default())

	// Pre-cache the static assets, then sweep buckets left by previous
	// versions before serving.
	gw.Install(ctx)
	if err := gw.Activate(ctx); err != nil {
		slog.Error("failed to activate cache version", "error", err)
		os.Exit(1)
	}
	slog.Info("cache version active", "version", cfg.CacheVersion)

	// NATS
	busClient, err := bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer busClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Push notifications
	notifier := gateway.NewNotifier(slog.Default())
	if err := busClient.Subscribe(bus.SubjectPush, notifier.HandlePush); err != nil {
		slog.Error("failed to subscribe to push payloads", "error", err)
		os.Exit(1)
	}

	// Sync queue + drain worker
	queue := syncqueue.New(cfg.SyncQueuePath)
	worker := syncqueue.NewWorker(queue, busClient, cfg.UpstreamURL+"/api/notes/sync", slog.Default())
	if err := worker.Start(); err != nil {
		slog.Error("failed to start sync worker", "error", err)
		os.Exit(1)
	}
	// Opportunistic drain: anything left from a previous run goes out now.
	go worker.Sync(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/notifications", notifier.ServeList)
	r.Handle("/*", gw)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.GatewayPort),
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := busClient.Publish(bus.SubjectRegistered, map[string]any{
		"service":   "stefan-gateway",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.GatewayPort,
		"version":   cfg.CacheVersion,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("stefan-gateway ready", "port", cfg.GatewayPort)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("stefan-gateway stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
