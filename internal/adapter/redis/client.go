// Package redis implements the broker-backed change feed on Redis pub/sub.
//
// Writers PUBLISH one message per change on a per-collection channel; each
// process holds one subscription connection and fans events out through a hub.
// Every command passes through a metrics hook and a circuit breaker hook.
package redis

import (
	"context"
	"fmt"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient parses redisURL, installs the hooks and verifies the connection. m may be nil.
func NewClient(ctx context.Context, redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if m != nil {
		rdb.AddHook(NewMetricsHook(m))
	}
	rdb.AddHook(NewCircuitBreakerHook(m))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
