// Package app assembles paydesk's storage, lookup and generation
// components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/raphaelgruber/paydesk/internal/agent"
	"github.com/raphaelgruber/paydesk/internal/config"
	"github.com/raphaelgruber/paydesk/internal/db"
	"github.com/raphaelgruber/paydesk/internal/llm"
	"github.com/raphaelgruber/paydesk/internal/memory"
	"github.com/raphaelgruber/paydesk/internal/metrics"
	"github.com/raphaelgruber/paydesk/internal/payments"
)

// App holds the long-lived components shared by every request.
type App struct {
	Config   config.Config
	Metrics  *metrics.Collector
	Registry *prometheus.Registry
	Store    memory.Store
	Payments *payments.Service

	paymentWriter payments.Writer
	paymentCache  *payments.CachedSource
	embedder      *llm.Embedder
	wipe          func(context.Context) error
	logger        *slog.Logger
	closers       []func(context.Context) error
}

// Build connects the configured memory backend, payment source and
// optional redis cache. It does not contact the language model.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		Config:   cfg,
		Metrics:  metrics.NewCollector(),
		Registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if err := a.Metrics.Register(a.Registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.EmbedProvider != "" {
		a.embedder, err = llm.NewEmbedder(cfg, a.Metrics)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	}

	var store memory.Store
	var source payments.Source

	switch cfg.MemoryBackend {
	case config.BackendSurreal:
		client, err := db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to surrealdb: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		if err := client.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return nil, fmt.Errorf("initialize schema: %w", err)
		}

		var embedder memory.Embedder
		if a.embedder != nil {
			embedder = a.embedder
		}
		store = memory.NewSurrealStore(client, embedder, logger)
		source, a.paymentWriter = client, client
		a.wipe = client.WipeData

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })

		pgStore, err := memory.NewPostgresStore(ctx, pool)
		if err != nil {
			return nil, err
		}
		pgPayments, err := payments.NewPostgresSource(ctx, pool)
		if err != nil {
			return nil, err
		}
		store = pgStore
		source, a.paymentWriter = pgPayments, pgPayments
		a.wipe = func(ctx context.Context) error {
			logger.Warn("wiping all data from database")
			_, err := pool.Exec(ctx, `TRUNCATE conversation_messages, payments`)
			return err
		}

	case config.BackendMemory:
		store = memory.NewInMemoryStore()
		mem := payments.NewMemorySource()
		source, a.paymentWriter = mem, mem
		a.wipe = func(context.Context) error { return nil }
	}

	if cfg.RedisURL != "" {
		rdb, err := payments.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		a.paymentCache = payments.NewCachedSource(source, rdb, cfg.PaymentCacheTTL, logger)
		source = a.paymentCache
	}

	a.Store = memory.WithMetrics(store, a.Metrics)
	a.Payments = payments.NewService(source, a.Metrics, logger)

	logger.Info("storage ready",
		"memory_backend", cfg.MemoryBackend,
		"embeddings", cfg.EmbedProvider != "",
		"payment_cache", cfg.RedisURL != "")
	return a, nil
}

// ChatService creates the language model and the agent service on top of
// the storage built by Build.
func (a *App) ChatService(ctx context.Context) (*agent.Service, error) {
	model, err := llm.NewModel(ctx, a.Config, a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}
	a.logger.Info("language model ready", "provider", a.Config.LLMProvider, "model", model.Model())

	return agent.NewService(agent.ServiceConfig{
		Store:        a.Store,
		Payments:     a.Payments,
		Generator:    model,
		SystemPrompt: a.Config.SystemPrompt,
		MaxItems:     a.Config.MaxMemoryItems,
		Logger:       a.logger,
	}), nil
}

// SeedSamplePayments writes the demo payments and drops any cached copies.
func (a *App) SeedSamplePayments(ctx context.Context) (int, error) {
	n, err := payments.SeedSamples(ctx, a.paymentWriter)
	if err != nil {
		return n, err
	}
	if a.paymentCache != nil {
		samples, err := payments.SamplePayments()
		if err != nil {
			return n, err
		}
		refs := make([]string, len(samples))
		for i, p := range samples {
			refs[i] = p.Reference
		}
		if err := a.paymentCache.Invalidate(ctx, refs...); err != nil {
			a.logger.Warn("failed to invalidate payment cache", "error", err)
		}
	}
	a.logger.Info("sample payments seeded", "count", n)
	return n, nil
}

// WipeData deletes every stored message and payment. Use for testing only.
func (a *App) WipeData(ctx context.Context) error {
	if a.wipe == nil {
		return nil
	}
	if err := a.wipe(ctx); err != nil {
		return fmt.Errorf("wipe data: %w", err)
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
