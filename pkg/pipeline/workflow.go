package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/dukex/pqdag-console/pkg/eventbus"
	"github.com/dukex/pqdag-console/pkg/events"
	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/google/uuid"
)

// DefaultProgressDelays are the estimator delays, measured from the start of
// an allocation, after which the first three phases are shown as reached.
var DefaultProgressDelays = []time.Duration{3 * time.Second, 5 * time.Second, 8 * time.Second}

const eventKey = "pipeline"

// Workflow drives the allocation and distribution pipeline of one dataset.
// The backend does not push progress, so while an allocation is pending a
// local estimator advances the displayed phases. Its guesses never reach the
// distribution phase and are overwritten by the authoritative response.
type Workflow struct {
	gateway   gateway.AllocationGateway
	publisher eventbus.EventPublisher
	clock     quartz.Clock
	delays    []time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	state     State
	estimator *estimator
	inflight  sync.WaitGroup
}

type Option func(*Workflow)

// WithClock replaces the clock driving the estimator.
func WithClock(clock quartz.Clock) Option {
	return func(w *Workflow) {
		w.clock = clock
	}
}

// WithProgressDelays replaces DefaultProgressDelays. Only the first three are used.
func WithProgressDelays(delays []time.Duration) Option {
	return func(w *Workflow) {
		w.delays = append([]time.Duration(nil), delays...)
	}
}

func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) {
		if publisher != nil {
			w.publisher = publisher
		}
	}
}

func NewWorkflow(gw gateway.AllocationGateway, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		gateway:   gw,
		publisher: eventbus.NopPublisher{},
		clock:     quartz.NewReal(),
		delays:    DefaultProgressDelays,
		logger:    logger.With("module", "pipeline_workflow"),
		state:     newState(uuid.New().String(), "", 0),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state.clone()
}

// Reset discards all progress and starts a new, empty run. Any response still
// in flight for the previous run will be ignored.
func (w *Workflow) Reset(ctx context.Context) State {
	w.mu.Lock()
	w.stopEstimatorLocked()
	w.state = newState(uuid.New().String(), "", 0)
	snapshot := w.state.clone()
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Pipeline reset", "run_id", snapshot.RunID)
	w.publish(ctx, events.PipelineReset{
		BaseEvent: events.NewBaseEvent(events.PipelineResetEvent),
		RunID:     snapshot.RunID,
	})

	return snapshot
}

// BeginAllocation starts a new run for dataset and blocks until the backend
// has computed statistics, the dependency graph and the partitioning. Remote
// failures are recorded in State.LastError and returned.
func (w *Workflow) BeginAllocation(ctx context.Context, dataset string, workers int) (State, error) {
	runID, snapshot, err := w.acceptAllocation(ctx, dataset, workers)
	if err != nil {
		return snapshot, err
	}

	return w.completeAllocation(ctx, runID, snapshot.Dataset, workers)
}

// StartAllocation accepts an allocation like BeginAllocation but returns the
// pending state without waiting for the backend. The outcome is observed
// through Snapshot or the published events. Wait blocks until it is applied.
func (w *Workflow) StartAllocation(ctx context.Context, dataset string, workers int) (State, error) {
	runID, snapshot, err := w.acceptAllocation(ctx, dataset, workers)
	if err != nil {
		return snapshot, err
	}

	w.inflight.Add(1)

	go func() {
		defer w.inflight.Done()

		_, _ = w.completeAllocation(context.WithoutCancel(ctx), runID, snapshot.Dataset, workers)
	}()

	return snapshot, nil
}

func (w *Workflow) acceptAllocation(ctx context.Context, dataset string, workers int) (string, State, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return "", w.Snapshot(), ErrEmptyDataset
	}

	if workers < 1 {
		return "", w.Snapshot(), ErrInvalidWorkerCount
	}

	w.mu.Lock()
	if w.state.Pending() {
		snapshot := w.state.clone()
		w.mu.Unlock()

		return "", snapshot, ErrPending
	}

	w.stopEstimatorLocked()

	runID := uuid.New().String()
	w.state = newState(runID, dataset, workers)
	w.state.Allocating = true
	w.estimator = w.startEstimatorLocked(runID, dataset)
	snapshot := w.state.clone()
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Starting allocation", "run_id", runID, "dataset", dataset, "workers", workers)
	w.publish(ctx, events.AllocationStarted{
		BaseEvent: events.NewBaseEvent(events.AllocationStartedEvent),
		RunID:     runID,
		Dataset:   dataset,
		Workers:   workers,
	})

	return runID, snapshot, nil
}

func (w *Workflow) completeAllocation(ctx context.Context, runID, dataset string, workers int) (State, error) {
	logger := w.logger.With("run_id", runID, "dataset", dataset)

	result, err := w.gateway.StartAllocation(ctx, dataset, workers, true)

	w.mu.Lock()
	if w.state.RunID != runID {
		snapshot := w.state.clone()
		w.mu.Unlock()

		logger.WarnContext(ctx, "Discarding allocation response of superseded run")

		return snapshot, ErrSuperseded
	}

	w.stopEstimatorLocked()

	next := w.state.clone()
	next.Allocating = false

	if err != nil {
		next.LastError = gateway.OperatorMessage(err, allocationFallback)
		w.state = next
		w.mu.Unlock()

		logger.ErrorContext(ctx, "Allocation failed", "error", err)
		w.publish(ctx, events.AllocationFailed{
			BaseEvent: events.NewBaseEvent(events.AllocationFailedEvent),
			RunID:     runID,
			Dataset:   dataset,
			Error:     next.LastError,
		})

		return next.clone(), fmt.Errorf("allocation of %s: %w", dataset, err)
	}

	next.completeThrough(PhasePartitioning)
	next.PhaseIndex = AllocationResolved
	next.AllocationCompleted = true
	next.LastError = ""
	stored := result.Clone()
	next.Result = &stored
	w.state = next
	w.mu.Unlock()

	logger.InfoContext(ctx, "Allocation completed",
		"total_fragments", result.Statistics.TotalFragments,
		"total_edges", result.Statistics.TotalEdges,
		"execution_time", result.Statistics.ExecutionTime,
	)
	w.publish(ctx, events.AllocationCompleted{
		BaseEvent:  events.NewBaseEvent(events.AllocationCompletedEvent),
		RunID:      runID,
		Dataset:    dataset,
		Statistics: result.Statistics,
		Workers:    len(result.Distribution),
	})

	return next.clone(), nil
}

// Distribute deploys the fragments of the current run to the workers. The
// run must have a completed allocation for the same dataset.
func (w *Workflow) Distribute(ctx context.Context, dataset string, cleanAfter bool) (State, error) {
	runID, snapshot, err := w.acceptDistribution(dataset)
	if err != nil {
		return snapshot, err
	}

	return w.completeDistribution(ctx, runID, snapshot.Dataset, cleanAfter)
}

// StartDistribution is the non-blocking form of Distribute.
func (w *Workflow) StartDistribution(ctx context.Context, dataset string, cleanAfter bool) (State, error) {
	runID, snapshot, err := w.acceptDistribution(dataset)
	if err != nil {
		return snapshot, err
	}

	w.inflight.Add(1)

	go func() {
		defer w.inflight.Done()

		_, _ = w.completeDistribution(context.WithoutCancel(ctx), runID, snapshot.Dataset, cleanAfter)
	}()

	return snapshot, nil
}

// Wait blocks until every remote call started by StartAllocation or
// StartDistribution has been applied or discarded.
func (w *Workflow) Wait() {
	w.inflight.Wait()
}

func (w *Workflow) acceptDistribution(dataset string) (string, State, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return "", w.Snapshot(), ErrEmptyDataset
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state.Pending():
		return "", w.state.clone(), ErrPending
	case !w.state.AllocationCompleted:
		return "", w.state.clone(), ErrAllocationRequired
	case w.state.Dataset != dataset:
		return "", w.state.clone(), ErrDatasetMismatch
	}

	next := w.state.clone()
	next.Distributing = true
	next.LastError = ""
	w.state = next

	return next.RunID, next.clone(), nil
}

func (w *Workflow) completeDistribution(ctx context.Context, runID, dataset string, cleanAfter bool) (State, error) {
	logger := w.logger.With("run_id", runID, "dataset", dataset)
	logger.InfoContext(ctx, "Starting distribution", "clean_after", cleanAfter)

	_, err := w.gateway.DistributeFragments(ctx, dataset, cleanAfter)

	w.mu.Lock()
	if w.state.RunID != runID {
		snapshot := w.state.clone()
		w.mu.Unlock()

		logger.WarnContext(ctx, "Discarding distribution response of superseded run")

		return snapshot, ErrSuperseded
	}

	next := w.state.clone()
	next.Distributing = false

	if err != nil {
		next.LastError = gateway.OperatorMessage(err, distributionFallback)
		w.state = next
		w.mu.Unlock()

		logger.ErrorContext(ctx, "Distribution failed", "error", err)
		w.publish(ctx, events.DistributionFailed{
			BaseEvent: events.NewBaseEvent(events.DistributionFailedEvent),
			RunID:     runID,
			Dataset:   dataset,
			Error:     next.LastError,
		})

		return next.clone(), fmt.Errorf("distribution of %s: %w", dataset, err)
	}

	next.completeThrough(PhaseDistribution)
	next.DistributionCompleted = true
	w.state = next
	w.mu.Unlock()

	logger.InfoContext(ctx, "Distribution completed")
	w.publish(ctx, events.DistributionCompleted{
		BaseEvent:  events.NewBaseEvent(events.DistributionCompletedEvent),
		RunID:      runID,
		Dataset:    dataset,
		CleanAfter: cleanAfter,
	})

	return next.clone(), nil
}

// LoadResults adopts the results of a previously completed allocation of
// dataset. When none exist the workflow is left clean and no error is
// recorded, since a dataset without results is the normal starting point.
func (w *Workflow) LoadResults(ctx context.Context, dataset string) (State, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return w.Snapshot(), ErrEmptyDataset
	}

	w.mu.Lock()
	if w.state.Pending() {
		snapshot := w.state.clone()
		w.mu.Unlock()

		return snapshot, ErrPending
	}

	w.stopEstimatorLocked()

	runID := uuid.New().String()
	w.state = newState(runID, dataset, 0)
	w.state.Loading = true
	w.mu.Unlock()

	result, err := w.gateway.GetAllocationResults(ctx, dataset)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.RunID != runID {
		return w.state.clone(), ErrSuperseded
	}

	if err != nil {
		w.state = newState(runID, "", 0)
		w.logger.DebugContext(ctx, "No previous allocation results", "dataset", dataset, "error", err)

		return w.state.clone(), fmt.Errorf("results of %s: %w", dataset, err)
	}

	next := newState(runID, dataset, len(result.Distribution))
	next.completeThrough(PhasePartitioning)
	next.PhaseIndex = AllocationResolved
	next.AllocationCompleted = true
	stored := result.Clone()
	next.Result = &stored
	w.state = next

	w.logger.InfoContext(ctx, "Loaded previous allocation results", "dataset", dataset, "run_id", runID)

	return next.clone(), nil
}

func (w *Workflow) publish(ctx context.Context, event eventbus.Event) {
	if err := w.publisher.Publish(ctx, eventKey, event); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish pipeline event", "event_type", event.GetType(), "error", err)
	}
}
