package cluster

import "github.com/dukex/pqdag-console/pkg/services"

var (
	ErrEmptyDataset = services.NewPreconditionError(
		"cluster", "empty_dataset", "dataset identifier is required")
	ErrIllegalTransition = services.NewPreconditionError(
		"cluster", "illegal_transition", "transition not allowed from the current cluster state")
	ErrBusy = services.NewBusyError(
		"cluster", "cluster_busy", "a cluster operation is still pending")
)
