// Package main provides the HTTP and websocket server for paydesk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/paydesk/internal/app"
	"github.com/raphaelgruber/paydesk/internal/config"
	"github.com/raphaelgruber/paydesk/internal/server"
)

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	seed := flag.Bool("seed", false, "write the sample payments on startup")
	flag.Parse()

	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if err := run(cfg, logger, *wipeDB, *seed); err != nil {
		slog.Error("server failed", "error", err)
		_ = closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, wipe, seed bool) error {
	slog.Info("starting paydesk-server",
		"port", cfg.ServerPort,
		"memory_backend", cfg.MemoryBackend,
		"llm_provider", cfg.LLMProvider)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.Build(ctx, cfg, logger)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	// Wipe database if requested (via flag or env var)
	if wipe || os.Getenv("PAYDESK_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := a.WipeData(ctx)
		cancel()
		if err != nil {
			return err
		}
	}

	if seed || cfg.SeedData {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := a.SeedSamplePayments(ctx)
		cancel()
		if err != nil {
			return err
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	chat, err := a.ChatService(ctx)
	cancel()
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Chat:     chat,
		Metrics:  a.Metrics,
		Gatherer: a.Registry,
		Backend:  cfg.MemoryBackend,
		Logger:   logger,
	})
	httpServer := srv.HTTPServer(":" + cfg.ServerPort)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("chat endpoint available", "url", fmt.Sprintf("http://localhost:%s/message", cfg.ServerPort))
		slog.Info("websocket endpoint available", "url", fmt.Sprintf("ws://localhost:%s/ws", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
