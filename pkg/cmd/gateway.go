package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/pqdag-console/pkg/cache"
	"github.com/dukex/pqdag-console/pkg/config"
	"github.com/dukex/pqdag-console/pkg/gateway/httpgateway"
	"go.opentelemetry.io/otel/trace"
)

func NewGateway(cfg config.Config, tracer trace.Tracer, observer httpgateway.Observer, logger *slog.Logger) (*httpgateway.Client, error) {
	opts := []httpgateway.Option{
		httpgateway.WithTimeout(cfg.RequestTimeout),
		httpgateway.WithStrictSchemas(cfg.StrictSchemas),
	}

	if tracer != nil {
		opts = append(opts, httpgateway.WithTracer(tracer))
	}

	if observer != nil {
		opts = append(opts, httpgateway.WithObserver(observer))
	}

	client, err := httpgateway.New(cfg.BackendURL, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	return client, nil
}

// NewCache connects the catalog cache. An empty URL disables caching and
// returns a nil cache.
func NewCache(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (*cache.RedisCache, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	c, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect catalog cache: %w", err)
	}

	return c, nil
}
