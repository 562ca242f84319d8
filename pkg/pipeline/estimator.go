package pipeline

import (
	"context"

	"github.com/coder/quartz"
	"github.com/dukex/pqdag-console/pkg/events"
)

// estimator owns the timers of one run's speculative progress.
type estimator struct {
	timers []*quartz.Timer
}

func (e *estimator) stop() {
	for _, t := range e.timers {
		t.Stop()
	}
}

// startEstimatorLocked arms one timer per speculative phase. Only the phases
// before PhaseDistribution are ever estimated.
func (w *Workflow) startEstimatorLocked(runID, dataset string) *estimator {
	est := &estimator{}

	for i, delay := range w.delays {
		if i >= PhaseDistribution {
			break
		}

		phase := i
		est.timers = append(est.timers, w.clock.AfterFunc(delay, func() {
			w.advanceSpeculative(runID, dataset, phase)
		}, "estimator"))
	}

	return est
}

func (w *Workflow) stopEstimatorLocked() {
	if w.estimator == nil {
		return
	}

	w.estimator.stop()
	w.estimator = nil
}

// advanceSpeculative runs on a timer. It must be a no-op unless the run it
// was armed for is still the current, pending allocation.
func (w *Workflow) advanceSpeculative(runID, dataset string, phase int) {
	w.mu.Lock()
	if w.state.RunID != runID || !w.state.Allocating || phase >= PhaseDistribution {
		w.mu.Unlock()

		return
	}

	next := w.state.clone()
	next.completeThrough(phase)
	next.PhaseIndex = max(next.PhaseIndex, phase+1)
	w.state = next
	name := next.Phases[phase].Name
	w.mu.Unlock()

	ctx := context.Background()
	w.logger.DebugContext(ctx, "Estimated phase progress", "run_id", runID, "phase", name)
	w.publish(ctx, events.PhaseProgressed{
		BaseEvent:  events.NewBaseEvent(events.PhaseProgressedEvent),
		RunID:      runID,
		Dataset:    dataset,
		PhaseIndex: phase,
		Phase:      name,
	})
}
