package models

import (
	"fmt"
	"slices"
)

// AllocationStatistics summarises one successful allocation run.
type AllocationStatistics struct {
	TotalFragments int     `json:"total_fragments"`
	TotalEdges     int     `json:"total_edges"`
	ExecutionTime  float64 `json:"execution_time"` // seconds
	StatFile       string  `json:"stat_file,omitempty"`
	GraphFile      string  `json:"graph_file,omitempty"`
}

// MachineAllocation is the partitioning outcome for one worker.
type MachineAllocation struct {
	MachineID     int    `json:"machine_id"`
	FragmentCount int    `json:"fragment_count"`
	WorkerIP      string `json:"worker_ip"`
}

// AllocationResult is the payload of allocation, distribution and result lookups.
type AllocationResult struct {
	Message         string               `json:"message,omitempty"`
	Statistics      AllocationStatistics `json:"statistics"`
	Distribution    []MachineAllocation  `json:"distribution"`
	AffectationFile string               `json:"affectation_file,omitempty"`
}

// NewAllocationResult copies distribution and orders it by worker identifier.
func NewAllocationResult(message string, stats AllocationStatistics, distribution []MachineAllocation, affectation string) AllocationResult {
	sorted := slices.Clone(distribution)
	slices.SortStableFunc(sorted, func(a, b MachineAllocation) int {
		return a.MachineID - b.MachineID
	})

	return AllocationResult{
		Message:         message,
		Statistics:      stats,
		Distribution:    sorted,
		AffectationFile: affectation,
	}
}

// Clone returns a deep copy so snapshots never share the distribution slice.
func (r AllocationResult) Clone() AllocationResult {
	r.Distribution = slices.Clone(r.Distribution)

	return r
}

const defaultMaxFragmentCount = 100

// MaxFragmentCount is the largest per-worker fragment count, or 100 when
// there is no distribution to scale against.
func (r AllocationResult) MaxFragmentCount() int {
	if len(r.Distribution) == 0 {
		return defaultMaxFragmentCount
	}

	maxCount := r.Distribution[0].FragmentCount
	for _, m := range r.Distribution[1:] {
		maxCount = max(maxCount, m.FragmentCount)
	}

	return maxCount
}

// WorkerLoad is one bar of the proportional load view.
type WorkerLoad struct {
	Label    string  `json:"label"`
	Value    int     `json:"value"`
	Fraction float64 `json:"fraction"`
}

// Load derives the per-worker load relative to the most loaded worker.
func (r AllocationResult) Load() []WorkerLoad {
	if len(r.Distribution) == 0 {
		return []WorkerLoad{}
	}

	maxCount := r.MaxFragmentCount()
	loads := make([]WorkerLoad, 0, len(r.Distribution))

	for _, m := range r.Distribution {
		fraction := 0.0
		if maxCount > 0 {
			fraction = float64(m.FragmentCount) / float64(maxCount)
		}

		loads = append(loads, WorkerLoad{
			Label:    fmt.Sprintf("Worker %d", m.MachineID),
			Value:    m.FragmentCount,
			Fraction: fraction,
		})
	}

	return loads
}
