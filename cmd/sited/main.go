// cmd/sited/main.go
// Package main implements the entry point for the site service.
// It initializes all components, starts the HTTP server and the live notification feed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhinandan-events/site-bff-go/internal/admin"
	"github.com/abhinandan-events/site-bff-go/internal/auth"
	"github.com/abhinandan-events/site-bff-go/internal/config"
	"github.com/abhinandan-events/site-bff-go/internal/content"
	"github.com/abhinandan-events/site-bff-go/internal/event"
	"github.com/abhinandan-events/site-bff-go/internal/media"
	"github.com/abhinandan-events/site-bff-go/internal/metrics"
	"github.com/abhinandan-events/site-bff-go/internal/notify"
	"github.com/abhinandan-events/site-bff-go/internal/realtime"
	"github.com/abhinandan-events/site-bff-go/internal/server"
	"github.com/abhinandan-events/site-bff-go/internal/storage"
	"github.com/abhinandan-events/site-bff-go/internal/telemetry"
)

const serviceName = "site-bff"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	tracing, err := telemetry.Init(telemetry.Options{
		ServiceName: serviceName,
		Version:     version,
		Env:         cfg.Env,
		Pretty:      cfg.Env == "dev",
	})
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tracing.Shutdown(ctx)
	}()

	m := metrics.NewMetrics()

	// Initialize storage backend (PostgreSQL or in-memory)
	var store storage.Store
	if cfg.DatabaseDSN != "" {
		store, err = storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("failed to initialize postgres storage", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("SITE_DB_DSN not set, booking inquiries are kept in memory")
		store = storage.NewMemory()
	}
	defer store.Close()

	// Initialize event publisher (NATS JetStream or no-op)
	pub := event.NewPublisher(cfg.NATSURL, m)
	defer pub.Close()

	// Media resolution: presigned S3 URLs when a bucket is configured
	var resolver media.Resolver = media.NewBaseResolver(cfg.MediaURL)
	if cfg.S3Bucket != "" {
		s3r, err := media.NewS3Resolver(cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3URLTTL, resolver)
		if err != nil {
			logger.Error("failed to initialize S3 media resolver", "error", err)
			os.Exit(1)
		}
		resolver = s3r
	}

	dataset, err := content.LoadDataset(cfg.FallbackPath)
	if err != nil {
		logger.Error("failed to load fallback dataset", "path", cfg.FallbackPath, "error", err)
		os.Exit(1)
	}
	contentClient := content.New(cfg.APIURL, resolver,
		content.WithTimeout(cfg.HTTPTimeout),
		content.WithFallback(dataset),
		content.WithMetrics(m),
	)

	// Live notifications from the backend's real-time channel
	notes := notify.NewStore(cfg.NotificationLimit, notify.WithStoreMetrics(m))
	session := &realtime.Session{
		Dial:    realtime.SocketDialer(cfg.SocketURL, realtime.DialOptions{}),
		Backoff: realtime.Backoff{Max: cfg.RealtimeMaxBackoff},
		Metrics: m,
	}
	aggregator := notify.NewAggregator(notes, session, pub, m)
	if err := aggregator.Start(context.Background()); err != nil {
		logger.Error("failed to start notification aggregator", "error", err)
		os.Exit(1)
	}

	verifier := auth.NewVerifier(cfg.AdminJWTSecret, cfg.AdminJWTIssuer)
	if !verifier.VerifiesLocally() {
		logger.Warn("SITE_ADMIN_JWT_SECRET not set, admin tokens are only checked by the backend")
	}

	// Closed on shutdown so long-lived notification streams end
	streamsDone := make(chan struct{})

	mux, err := server.NewMux(server.Deps{
		Content:            contentClient,
		Admin:              admin.New(cfg.APIURL, cfg.HTTPTimeout),
		Verifier:           verifier,
		Notifications:      notes,
		Store:              store,
		Publisher:          pub,
		Metrics:            m,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Done:               streamsDone,
	})
	if err != nil {
		logger.Error("failed to build HTTP mux", "error", err)
		os.Exit(1)
	}

	// Create HTTP server with timeout configuration
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 40 * time.Second, // Admin uploads are proxied synchronously
	}
	srv.RegisterOnShutdown(func() { close(streamsDone) })

	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env, "api", cfg.APIURL, "socket", cfg.SocketURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the feed first so open notification streams see no further updates
	aggregator.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server exited")
}
