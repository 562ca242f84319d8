package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/pqdag-console/pkg/cache"
	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/services"
)

var (
	ErrEmptyQuerySet = services.NewPreconditionError(
		"catalog", "empty_query_set", "query set identifier is required")
	ErrEmptyArtifact = services.NewPreconditionError(
		"query", "empty_artifact", "query artifact identifier is required")
)

// Catalog is the stateless read side of the backend metadata. Every value it
// returns has ssh banner lines removed.
type Catalog struct {
	gateway gateway.MetadataGateway
	cluster gateway.ClusterGateway
	cache   cache.Cache
	logger  *slog.Logger
}

type CatalogOption func(*Catalog)

// WithCache serves listings from c when present and fills it on a miss.
func WithCache(c cache.Cache) CatalogOption {
	return func(cat *Catalog) {
		cat.cache = c
	}
}

func NewCatalog(metadata gateway.MetadataGateway, cluster gateway.ClusterGateway, logger *slog.Logger, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		gateway: metadata,
		cluster: cluster,
		logger:  logger.With("module", "query_catalog"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListPipelineDatasets returns the datasets the pipeline has produced.
func (c *Catalog) ListPipelineDatasets(ctx context.Context) ([]string, error) {
	return c.cachedList(ctx, "pipeline-datasets", c.gateway.ListPipelineDatasets)
}

// ListQuerySets returns the logical query sets.
func (c *Catalog) ListQuerySets(ctx context.Context) ([]string, error) {
	return c.cachedList(ctx, "query-sets", c.gateway.ListQueryArtifactSets)
}

// ListQueryArtifacts returns the query files of querySet.
func (c *Catalog) ListQueryArtifacts(ctx context.Context, querySet string) ([]string, error) {
	querySet = strings.TrimSpace(querySet)
	if querySet == "" {
		return nil, ErrEmptyQuerySet
	}

	return c.cachedList(ctx, "query-sets/"+querySet, func(ctx context.Context) ([]string, error) {
		return c.gateway.ListQueryArtifacts(ctx, querySet)
	})
}

// QueryArtifactContent returns the raw text of one query file.
func (c *Catalog) QueryArtifactContent(ctx context.Context, querySet, artifact string) (string, error) {
	querySet = strings.TrimSpace(querySet)
	if querySet == "" {
		return "", ErrEmptyQuerySet
	}

	artifact = strings.TrimSpace(artifact)
	if artifact == "" {
		return "", ErrEmptyArtifact
	}

	raw, err := c.gateway.GetQueryArtifactContent(ctx, querySet, artifact)
	if err != nil {
		return "", fmt.Errorf("content of %s/%s: %w", querySet, artifact, err)
	}

	return gateway.StripBanners(raw), nil
}

// CurrentDataset returns the dataset the backend reports as bound to the
// cluster. It is never cached.
func (c *Catalog) CurrentDataset(ctx context.Context) (string, error) {
	raw, err := c.cluster.GetCurrentDataset(ctx)
	if err != nil {
		return "", fmt.Errorf("current dataset: %w", err)
	}

	return gateway.NormalizeMetadata(raw), nil
}

func (c *Catalog) cachedList(ctx context.Context, key string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	if c.cache != nil {
		var cached []string

		found, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.logger.WarnContext(ctx, "Catalog cache read failed", "key", key, "error", err)
		} else if found {
			return cached, nil
		}
	}

	raw, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}

	entries := gateway.FilterBannerLines(raw)

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, entries); err != nil {
			c.logger.WarnContext(ctx, "Catalog cache write failed", "key", key, "error", err)
		}
	}

	return entries, nil
}
