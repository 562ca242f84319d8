// Package query gates query execution against the cluster and exposes the
// backend's query metadata.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/pqdag-console/pkg/eventbus"
	"github.com/dukex/pqdag-console/pkg/events"
	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/services"
)

const (
	DefaultMasterIP   = "192.168.165.27"
	DefaultPlanNumber = 0

	executeFallback = "Failed to execute query"
	eventKey        = "query"
)

var ErrPending = services.NewBusyError(
	"query", "query_pending", "a query execution is still pending")

// ClusterStateReader is the view of the cluster a query outcome reports.
type ClusterStateReader interface {
	State() models.ClusterState
	BoundDataset() string
}

// Outcome is the result of one execution together with the cluster state
// last known when it resolved. Callers warn when ClusterState is not running.
type Outcome struct {
	Result       *models.QueryExecutionResult `json:"result,omitempty"`
	ClusterState models.ClusterState          `json:"cluster_state"`
	BoundDataset string                       `json:"bound_dataset,omitempty"`
	Pending      bool                         `json:"pending"`
}

// ClusterReady reports whether the cluster was known to be running.
func (o Outcome) ClusterReady() bool {
	return o.ClusterState == models.ClusterRunning
}

// Coordinator dispatches at most one query at a time.
type Coordinator struct {
	gateway    gateway.QueryGateway
	cluster    ClusterStateReader
	publisher  eventbus.EventPublisher
	masterIP   string
	planNumber int
	logger     *slog.Logger

	mu      sync.Mutex
	pending bool
	last    *models.QueryExecutionResult
}

type Option func(*Coordinator)

// WithDefaults sets the master address and plan number used when a request
// leaves them out.
func WithDefaults(masterIP string, planNumber int) Option {
	return func(c *Coordinator) {
		if masterIP != "" {
			c.masterIP = masterIP
		}

		c.planNumber = planNumber
	}
}

func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(c *Coordinator) {
		if publisher != nil {
			c.publisher = publisher
		}
	}
}

func NewCoordinator(gw gateway.QueryGateway, cluster ClusterStateReader, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		gateway:    gw,
		cluster:    cluster,
		publisher:  eventbus.NopPublisher{},
		masterIP:   DefaultMasterIP,
		planNumber: DefaultPlanNumber,
		logger:     logger.With("module", "query_coordinator"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Execute runs one query. Cluster state is reported, not enforced; the
// backend decides whether the query can run. Remote failures produce a
// failed result and a nil error.
func (c *Coordinator) Execute(ctx context.Context, req models.QueryExecutionRequest) (Outcome, error) {
	req.QueryFile = strings.TrimSpace(req.QueryFile)
	if req.QueryFile == "" {
		return c.LastOutcome(), ErrEmptyArtifact
	}

	req.Dataset = strings.TrimSpace(req.Dataset)
	if req.Dataset == "" {
		req.Dataset = c.cluster.BoundDataset()
	}

	if strings.TrimSpace(req.MasterIP) == "" {
		req.MasterIP = c.masterIP
	}

	if req.PlanNumber == nil {
		plan := c.planNumber
		req.PlanNumber = &plan
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()

		return c.LastOutcome(), ErrPending
	}

	c.pending = true
	c.last = nil
	c.mu.Unlock()

	logger := c.logger.With("dataset", req.Dataset, "query_file", req.QueryFile)
	logger.InfoContext(ctx, "Executing query", "master_ip", req.MasterIP, "plan_number", *req.PlanNumber)

	result, err := c.gateway.ExecuteQuery(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "Query execution failed", "error", err)

		result = models.QueryExecutionResult{
			Status:    models.StatusFailure,
			Message:   gateway.OperatorMessage(err, executeFallback),
			QueryFile: req.QueryFile,
		}
	} else {
		if result.QueryFile == "" {
			result.QueryFile = req.QueryFile
		}

		if result.Succeeded() {
			result.Message = fmt.Sprintf("Query executed in %dms", result.ExecutionTimeMs)
		} else if result.Message == "" {
			result.Message = executeFallback
		}

		logger.InfoContext(ctx, "Query resolved",
			"status", result.Status,
			"execution_time_ms", result.ExecutionTimeMs,
			"result_count", result.ResultCount,
		)
	}

	stored := result
	stored.Results = append([]string(nil), result.Results...)

	c.mu.Lock()
	c.pending = false
	c.last = &stored
	c.mu.Unlock()

	outcome := c.LastOutcome()

	c.publish(ctx, events.QueryExecuted{
		BaseEvent:       events.NewBaseEvent(events.QueryExecutedEvent),
		Dataset:         req.Dataset,
		QueryFile:       req.QueryFile,
		Status:          result.Status,
		ExecutionTimeMs: result.ExecutionTimeMs,
		ResultCount:     result.ResultCount,
		ClusterState:    outcome.ClusterState,
	})

	return outcome, nil
}

// LastOutcome returns the most recent result, if any, with the current
// cluster view.
func (c *Coordinator) LastOutcome() Outcome {
	c.mu.Lock()
	outcome := Outcome{Pending: c.pending}

	if c.last != nil {
		result := *c.last
		result.Results = append([]string(nil), c.last.Results...)
		outcome.Result = &result
	}
	c.mu.Unlock()

	outcome.ClusterState = c.cluster.State()
	outcome.BoundDataset = c.cluster.BoundDataset()

	return outcome
}

func (c *Coordinator) publish(ctx context.Context, event eventbus.Event) {
	if err := c.publisher.Publish(ctx, eventKey, event); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish query event", "event_type", event.GetType(), "error", err)
	}
}
