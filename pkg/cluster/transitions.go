package cluster

import (
	"slices"

	"github.com/dukex/pqdag-console/pkg/models"
)

// Operation is a remote-facing lifecycle operation.
type Operation string

const (
	OpStart   Operation = "start"
	OpStop    Operation = "stop"
	OpRestart Operation = "restart"
	OpClear   Operation = "clear"
)

type transition struct {
	transient models.ClusterState
	terminal  models.ClusterState
	fallback  string

	// from lists the states the operation may be issued from. An operation
	// whose target already holds locally is still sent; the backend answer
	// is authoritative.
	from []models.ClusterState
}

var transitions = map[Operation]transition{
	OpStart: {
		transient: models.ClusterStarting,
		terminal:  models.ClusterRunning,
		fallback:  "Failed to start cluster",
		from: []models.ClusterState{
			models.ClusterUnknown, models.ClusterRunning, models.ClusterStopped, models.ClusterError,
		},
	},
	OpStop: {
		transient: models.ClusterStopping,
		terminal:  models.ClusterStopped,
		fallback:  "Failed to stop cluster",
		from: []models.ClusterState{
			models.ClusterUnknown, models.ClusterRunning, models.ClusterStopped, models.ClusterError,
		},
	},
	OpRestart: {
		transient: models.ClusterRestarting,
		terminal:  models.ClusterRunning,
		fallback:  "Failed to restart cluster",
		from:      []models.ClusterState{models.ClusterUnknown, models.ClusterRunning, models.ClusterError},
	},
	OpClear: {
		transient: models.ClusterStopping,
		terminal:  models.ClusterStopped,
		fallback:  "Failed to clear Java processes",
		from: []models.ClusterState{
			models.ClusterUnknown, models.ClusterRunning, models.ClusterStopped, models.ClusterError,
		},
	},
}

// Allowed reports whether op may be issued from state.
func Allowed(op Operation, state models.ClusterState) bool {
	t, ok := transitions[op]
	if !ok {
		return false
	}

	return slices.Contains(t.from, state)
}
