package pipeline

import (
	"errors"

	"github.com/dukex/pqdag-console/pkg/services"
)

var (
	ErrEmptyDataset = services.NewPreconditionError(
		"pipeline", "empty_dataset", "dataset identifier is required")
	ErrInvalidWorkerCount = services.NewPreconditionError(
		"pipeline", "invalid_worker_count", "worker count must be at least 1")
	ErrAllocationRequired = services.NewPreconditionError(
		"pipeline", "allocation_required", "allocation must complete before distribution")
	ErrDatasetMismatch = services.NewPreconditionError(
		"pipeline", "dataset_mismatch", "distribution dataset differs from the allocated dataset")
	ErrPending = services.NewBusyError(
		"pipeline", "pipeline_pending", "a pipeline operation is still pending")

	// ErrSuperseded is returned when a reset or newer run replaced the run
	// an operation belonged to; its response was discarded.
	ErrSuperseded = errors.New("pipeline run superseded")
)

const (
	allocationFallback   = "Allocation failed. Please check the logs."
	distributionFallback = "Distribution failed. Please check SSH connectivity."
)
