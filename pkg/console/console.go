// Package console wires the pipeline workflow, the cluster controller, the
// query coordinator, the metadata catalog and the uploader over one gateway.
package console

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/quartz"
	"github.com/dukex/pqdag-console/pkg/cache"
	"github.com/dukex/pqdag-console/pkg/cluster"
	"github.com/dukex/pqdag-console/pkg/eventbus"
	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/pipeline"
	"github.com/dukex/pqdag-console/pkg/query"
	"github.com/dukex/pqdag-console/pkg/upload"
)

type Config struct {
	Publisher      eventbus.EventPublisher
	Cache          cache.Cache
	Clock          quartz.Clock
	ProgressDelays []time.Duration
	MasterIP       string
	PlanNumber     int
	BoundDataset   string
}

type Console struct {
	Pipeline *pipeline.Workflow
	Cluster  *cluster.Controller
	Queries  *query.Coordinator
	Catalog  *query.Catalog
	Files    *upload.Uploader
}

// Status is the aggregate view rendered by the API and the CLI.
type Status struct {
	Pipeline pipeline.State   `json:"pipeline"`
	Cluster  cluster.Snapshot `json:"cluster"`
	Query    query.Outcome    `json:"query"`
}

func New(gw gateway.Gateway, logger *slog.Logger, cfg Config) *Console {
	pipelineOpts := []pipeline.Option{pipeline.WithPublisher(cfg.Publisher)}
	if cfg.Clock != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithClock(cfg.Clock))
	}

	if len(cfg.ProgressDelays) > 0 {
		pipelineOpts = append(pipelineOpts, pipeline.WithProgressDelays(cfg.ProgressDelays))
	}

	controller := cluster.NewController(gw, logger,
		cluster.WithPublisher(cfg.Publisher),
		cluster.WithBoundDataset(cfg.BoundDataset),
	)

	var catalogOpts []query.CatalogOption
	if cfg.Cache != nil {
		catalogOpts = append(catalogOpts, query.WithCache(cfg.Cache))
	}

	return &Console{
		Pipeline: pipeline.NewWorkflow(gw, logger, pipelineOpts...),
		Cluster:  controller,
		Queries: query.NewCoordinator(gw, controller, logger,
			query.WithDefaults(cfg.MasterIP, cfg.PlanNumber),
			query.WithPublisher(cfg.Publisher),
		),
		Catalog: query.NewCatalog(gw, gw, logger, catalogOpts...),
		Files:   upload.NewUploader(gw, logger),
	}
}

func (c *Console) Status() Status {
	return Status{
		Pipeline: c.Pipeline.Snapshot(),
		Cluster:  c.Cluster.Snapshot(),
		Query:    c.Queries.LastOutcome(),
	}
}

// Close waits for background pipeline calls to settle or ctx to end.
func (c *Console) Close(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		c.Pipeline.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
