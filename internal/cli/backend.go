package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/httpserver"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/memory"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/postgres"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/redis"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/app"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/config"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/realtime"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// backend is the store and change feed selected by configuration, plus the
// background loops and health checks that come with them.
type backend struct {
	store     domain.Store
	feed      domain.ChangeFeed
	publisher domain.ChangePublisher
	runners   []func(ctx context.Context) error
	checks    []httpserver.HealthCheck
	closers   []func()
}

type backendOptions struct {
	migrate bool
}

func openBackend(ctx context.Context, cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer, opts backendOptions) (*backend, error) {
	b := &backend{}

	var hub *realtime.Hub
	if cfg.Realtime == config.RealtimeMemory {
		hub = realtime.NewHub()
		b.feed = hub
	}

	switch cfg.Backend {
	case config.BackendMemory:
		slog.Warn("Using in-memory store, feedback is lost on exit")
		// A nil *Hub must not become a non-nil publisher interface.
		var publisher domain.ChangePublisher
		if hub != nil {
			publisher = hub
		}
		b.store = memory.NewStore(clock, publisher)

	case config.BackendPostgres:
		dbMetrics := metrics.NewDatabaseMetrics(reg)
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, dbMetrics)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)

		if opts.migrate {
			if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
				b.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		b.store = postgres.NewStore(pool)
		b.checks = append(b.checks, httpserver.HealthCheck{Name: "postgres", Check: pool.Ping})

		if cfg.Realtime == config.RealtimePostgres {
			feed := postgres.NewChangeFeed(cfg.DatabaseURL, dbMetrics, clock)
			b.feed = feed
			b.runners = append(b.runners, feed.Run)
		}
	}

	if cfg.Realtime == config.RealtimeRedis {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL, metrics.NewRedisMetrics(reg))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })

		feed := redis.NewChangeFeed(rdb)
		b.feed = feed
		b.publisher = feed
		b.runners = append(b.runners, feed.Run)
		b.checks = append(b.checks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	slog.Info("Backend ready", "backend", cfg.Backend, "realtime", cfg.Realtime)
	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func (b *backend) service(cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer) *app.Service {
	viewCfg := app.ViewConfig{
		PollInterval: cfg.PollInterval,
		Debounce:     cfg.RefreshDebounce,
	}
	return app.NewService(b.store, b.feed, b.publisher, clock, viewCfg,
		metrics.NewViewMetrics(reg), metrics.NewVoteMetrics(reg))
}
