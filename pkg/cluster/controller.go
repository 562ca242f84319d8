// Package cluster serializes lifecycle transitions of the remote query cluster
// and tracks the dataset it is bound to.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/pqdag-console/pkg/eventbus"
	"github.com/dukex/pqdag-console/pkg/events"
	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
)

const (
	eventKey     = "cluster"
	bindFallback = "Failed to change dataset"
	syncFallback = "Failed to read current dataset"
)

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	State        models.ClusterState `json:"state"`
	BoundDataset string              `json:"bound_dataset,omitempty"`
	LastError    string              `json:"last_error,omitempty"`
	LastMessage  string              `json:"last_message,omitempty"`
	Output       string              `json:"output,omitempty"`
	Busy         bool                `json:"busy"`
}

// Controller is the only writer of the cluster state. At most one lifecycle
// or bind operation is outstanding at a time; others are rejected with
// ErrBusy. Binding refreshes never take the busy guard.
type Controller struct {
	gateway   gateway.ClusterGateway
	publisher eventbus.EventPublisher
	logger    *slog.Logger

	mu    sync.Mutex
	state Snapshot

	// bindGen is bumped whenever a bind is issued. A refresh applies its
	// answer only if no bind was issued or pending while it was in flight.
	bindGen     uint64
	bindPending bool
}

type Option func(*Controller)

func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(c *Controller) {
		if publisher != nil {
			c.publisher = publisher
		}
	}
}

// WithBoundDataset seeds the bound dataset, e.g. from configuration.
func WithBoundDataset(dataset string) Option {
	return func(c *Controller) {
		c.state.BoundDataset = strings.TrimSpace(dataset)
	}
}

func NewController(gw gateway.ClusterGateway, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		gateway:   gw,
		publisher: eventbus.NopPublisher{},
		logger:    logger.With("module", "cluster_controller"),
		state:     Snapshot{State: models.ClusterUnknown},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// State returns the last known operational state.
func (c *Controller) State() models.ClusterState {
	return c.Snapshot().State
}

// BoundDataset returns the dataset the cluster is configured to serve.
func (c *Controller) BoundDataset() string {
	return c.Snapshot().BoundDataset
}

func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	return c.transition(ctx, OpStart, c.gateway.StartCluster)
}

func (c *Controller) Stop(ctx context.Context) (Snapshot, error) {
	return c.transition(ctx, OpStop, c.gateway.StopCluster)
}

func (c *Controller) Restart(ctx context.Context) (Snapshot, error) {
	return c.transition(ctx, OpRestart, c.gateway.RestartCluster)
}

// ClearProcesses force-kills every remote worker process. It is usable from
// any state and leaves the cluster Stopped on success.
func (c *Controller) ClearProcesses(ctx context.Context) (Snapshot, error) {
	return c.transition(ctx, OpClear, c.gateway.ClearProcesses)
}

// Do runs op by name.
func (c *Controller) Do(ctx context.Context, op Operation) (Snapshot, error) {
	switch op {
	case OpStart:
		return c.Start(ctx)
	case OpStop:
		return c.Stop(ctx)
	case OpRestart:
		return c.Restart(ctx)
	case OpClear:
		return c.ClearProcesses(ctx)
	default:
		return c.Snapshot(), fmt.Errorf("%w: unknown operation %q", ErrIllegalTransition, op)
	}
}

func (c *Controller) transition(
	ctx context.Context,
	op Operation,
	call func(context.Context) (models.ClusterStatus, error),
) (Snapshot, error) {
	t := transitions[op]

	c.mu.Lock()
	if c.state.Busy {
		snapshot := c.state
		c.mu.Unlock()

		return snapshot, ErrBusy
	}

	from := c.state.State

	if !slices.Contains(t.from, from) {
		snapshot := c.state
		c.mu.Unlock()

		return snapshot, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, op, from)
	}

	c.state.Busy = true
	c.state.State = t.transient
	c.mu.Unlock()

	logger := c.logger.With("operation", op)
	logger.InfoContext(ctx, "Cluster transition started", "from", from, "to", t.transient)
	c.publishState(ctx, from, t.transient, "")

	status, err := call(ctx)

	c.mu.Lock()
	c.state.Busy = false

	if err != nil {
		message := gateway.OperatorMessage(err, t.fallback)
		c.state.State = models.ClusterError
		c.state.LastError = message
		c.state.Output = ""
		snapshot := c.state
		c.mu.Unlock()

		logger.ErrorContext(ctx, "Cluster transition failed", "error", err)
		c.publishState(ctx, t.transient, models.ClusterError, message)

		return snapshot, fmt.Errorf("cluster %s: %w", op, err)
	}

	c.state.State = t.terminal
	c.state.LastError = ""
	c.state.LastMessage = status.Message
	c.state.Output = status.Output
	snapshot := c.state
	c.mu.Unlock()

	logger.InfoContext(ctx, "Cluster transition completed", "state", t.terminal)
	c.publishState(ctx, t.transient, t.terminal, status.Message)

	return snapshot, nil
}

// BindDataset configures the cluster to serve dataset. The operational state
// is never changed; on failure the previous binding is kept.
func (c *Controller) BindDataset(ctx context.Context, dataset string) (Snapshot, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return c.Snapshot(), ErrEmptyDataset
	}

	c.mu.Lock()
	if c.state.Busy {
		snapshot := c.state
		c.mu.Unlock()

		return snapshot, ErrBusy
	}

	c.state.Busy = true
	c.bindGen++
	c.bindPending = true
	previous := c.state.BoundDataset
	c.mu.Unlock()

	status, err := c.gateway.SetDataset(ctx, dataset)

	c.mu.Lock()
	c.state.Busy = false
	c.bindPending = false

	if err != nil {
		snapshot := c.state
		c.mu.Unlock()

		c.logger.ErrorContext(ctx, "Dataset binding failed",
			"dataset", dataset, "message", gateway.OperatorMessage(err, bindFallback), "error", err)

		return snapshot, fmt.Errorf("bind %s: %w", dataset, err)
	}

	c.state.BoundDataset = dataset
	c.state.LastMessage = status.Message
	snapshot := c.state
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Dataset bound", "previous", previous, "dataset", dataset)
	c.publish(ctx, events.DatasetBound{
		BaseEvent: events.NewBaseEvent(events.DatasetBoundEvent),
		Previous:  previous,
		Dataset:   dataset,
	})

	return snapshot, nil
}

// SyncBinding refreshes the bound dataset from the backend. Banner lines in
// the remote answer are discarded; an empty answer keeps the local binding.
// It runs alongside lifecycle operations. An answer is dropped when a bind
// was issued while it was in flight.
func (c *Controller) SyncBinding(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	gen := c.bindGen
	c.mu.Unlock()

	raw, err := c.gateway.GetCurrentDataset(ctx)

	c.mu.Lock()

	if err != nil {
		snapshot := c.state
		c.mu.Unlock()

		c.logger.WarnContext(ctx, "Failed to sync dataset binding", "error", gateway.OperatorMessage(err, syncFallback))

		return snapshot, fmt.Errorf("sync binding: %w", err)
	}

	dataset := gateway.NormalizeMetadata(raw)
	previous := c.state.BoundDataset
	stale := c.bindPending || c.bindGen != gen
	changed := !stale && dataset != "" && dataset != previous

	if stale {
		c.logger.DebugContext(ctx, "Discarding dataset binding refresh", "dataset", dataset)
	}

	if changed {
		c.state.BoundDataset = dataset
	}

	snapshot := c.state
	c.mu.Unlock()

	if changed {
		c.logger.InfoContext(ctx, "Dataset binding refreshed", "previous", previous, "dataset", dataset)
		c.publish(ctx, events.DatasetBound{
			BaseEvent: events.NewBaseEvent(events.DatasetBoundEvent),
			Previous:  previous,
			Dataset:   dataset,
		})
	}

	return snapshot, nil
}

func (c *Controller) publishState(ctx context.Context, from, to models.ClusterState, message string) {
	c.publish(ctx, events.ClusterStateChanged{
		BaseEvent: events.NewBaseEvent(events.ClusterStateChangedEvent),
		From:      from,
		To:        to,
		Message:   message,
	})
}

func (c *Controller) publish(ctx context.Context, event eventbus.Event) {
	if err := c.publisher.Publish(ctx, eventKey, event); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish cluster event", "event_type", event.GetType(), "error", err)
	}
}
