// Package main runs the album API against the in-memory fixture, so the client can be
// developed and tested without the real backend.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lanalbum/albumclient/internal/config"
	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/server"
	"github.com/lanalbum/albumclient/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.IsDev() {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Spans are exported to stderr only when debugging.
	var traceOut io.Writer
	if cfg.Debug {
		traceOut = os.Stderr
	}
	if err := telemetry.InitTracer("albumfixtured", traceOut); err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.ShutdownTracer(ctx); err != nil {
			logger.Error("failed to flush spans", "error", err)
		}
	}()

	fixture := gateway.NewFixture()
	if cfg.FixtureDir != "" {
		res, err := fixture.ScanDirectory(context.Background(), cfg.FixtureDir)
		if err != nil {
			logger.Error("fixture scan failed", "dir", cfg.FixtureDir, "error", err)
			os.Exit(1)
		}
		logger.Info("fixture scanned", "dir", cfg.FixtureDir, "result", res.Message)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.NewMux(fixture, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}
