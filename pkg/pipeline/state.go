// Package pipeline tracks the four-phase allocation and distribution pipeline
// for one dataset at a time.
package pipeline

import (
	"errors"
	"slices"

	"github.com/dukex/pqdag-console/pkg/models"
)

const (
	PhaseStatistics = iota
	PhaseGraph
	PhasePartitioning
	PhaseDistribution

	phaseCount
)

// AllocationResolved is the phase index once the allocation phases are
// confirmed. DistributionCompleted tells "awaiting distribution" apart from
// "fully distributed".
const AllocationResolved = phaseCount

// Phase is one stage of the pipeline.
type Phase struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func newPhases() []Phase {
	return []Phase{
		{Name: "Statistics Generation", Description: "Computing dataset statistics with MPI"},
		{Name: "Graph Generation", Description: "Creating dependency graph"},
		{Name: "Partitioning", Description: "Optimal allocation with METIS"},
		{Name: "Distribution", Description: "Deploying fragments to the cluster"},
	}
}

// Stage is a coarse, display-oriented summary of a State.
type Stage string

const (
	StageIdle                 Stage = "idle"
	StageAllocating           Stage = "allocating"
	StageLoading              Stage = "loading"
	StageAwaitingDistribution Stage = "awaiting_distribution"
	StageDistributing         Stage = "distributing"
	StageDistributed          Stage = "distributed"
	StageFailed               Stage = "failed"
)

// State is an immutable snapshot of the workflow. Every operation replaces
// the workflow's State instead of editing it in place.
type State struct {
	RunID                 string                   `json:"run_id"`
	Dataset               string                   `json:"dataset,omitempty"`
	Workers               int                      `json:"workers,omitempty"`
	Phases                []Phase                  `json:"phases"`
	PhaseIndex            int                      `json:"phase_index"`
	Allocating            bool                     `json:"allocating"`
	Distributing          bool                     `json:"distributing"`
	Loading               bool                     `json:"loading"`
	AllocationCompleted   bool                     `json:"allocation_completed"`
	DistributionCompleted bool                     `json:"distribution_completed"`
	Result                *models.AllocationResult `json:"result,omitempty"`
	LastError             string                   `json:"last_error,omitempty"`
}

func newState(runID, dataset string, workers int) State {
	return State{
		RunID:   runID,
		Dataset: dataset,
		Workers: workers,
		Phases:  newPhases(),
	}
}

func (s State) clone() State {
	s.Phases = slices.Clone(s.Phases)

	if s.Result != nil {
		result := s.Result.Clone()
		s.Result = &result
	}

	return s
}

// Pending reports whether a remote call of this workflow is outstanding.
func (s State) Pending() bool {
	return s.Allocating || s.Distributing || s.Loading
}

// Stage summarises the state for display.
func (s State) Stage() Stage {
	switch {
	case s.Allocating:
		return StageAllocating
	case s.Loading:
		return StageLoading
	case s.Distributing:
		return StageDistributing
	case s.DistributionCompleted:
		return StageDistributed
	case s.LastError != "":
		return StageFailed
	case s.AllocationCompleted:
		return StageAwaitingDistribution
	default:
		return StageIdle
	}
}

// CompletedPhases counts completed phases.
func (s State) CompletedPhases() int {
	count := 0

	for _, p := range s.Phases {
		if p.Completed {
			count++
		}
	}

	return count
}

var (
	errPhaseOrder        = errors.New("phase completed while an earlier phase is incomplete")
	errDistributionOrder = errors.New("distribution completed without allocation")
)

// Validate checks the structural invariants of a snapshot.
func (s State) Validate() error {
	for i := 1; i < len(s.Phases); i++ {
		if s.Phases[i].Completed && !s.Phases[i-1].Completed {
			return errPhaseOrder
		}
	}

	if s.DistributionCompleted && !s.AllocationCompleted {
		return errDistributionOrder
	}

	return nil
}

// completeThrough marks every phase up to and including last as complete,
// keeping the ordering invariant even if progress signals arrive out of order.
func (s *State) completeThrough(last int) {
	for i := 0; i <= last && i < len(s.Phases); i++ {
		s.Phases[i].Completed = true
	}
}
