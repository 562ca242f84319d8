// Package web exposes the console over a REST API.
package web

import (
	"github.com/dukex/pqdag-console/pkg/cluster"
	"github.com/dukex/pqdag-console/pkg/pipeline"
)

// StartAllocationRequest is the body of POST /pipeline/allocations.
type StartAllocationRequest struct {
	Dataset string `json:"dataset" validate:"required"`
	Workers int    `json:"workers" validate:"required,min=1"`
}

// StartDistributionRequest is the body of POST /pipeline/distributions.
type StartDistributionRequest struct {
	Dataset    string `json:"dataset"     validate:"required"`
	CleanAfter bool   `json:"clean_after"`
}

type BindDatasetRequest struct {
	Dataset string `json:"dataset" validate:"required"`
}

// ExecuteQueryRequest is the body of POST /queries. Dataset, master IP and
// plan number fall back to the bound dataset and the configured defaults.
type ExecuteQueryRequest struct {
	QueryFile  string `json:"query_file"            validate:"required"`
	Dataset    string `json:"dataset,omitempty"`
	MasterIP   string `json:"master_ip,omitempty"   validate:"omitempty,ip"`
	PlanNumber *int   `json:"plan_number,omitempty" validate:"omitempty,min=0"`
}

type PipelineResponse struct {
	Pipeline pipeline.State `json:"pipeline"`
	Stage    pipeline.Stage `json:"stage"`
}

func newPipelineResponse(state pipeline.State) PipelineResponse {
	return PipelineResponse{Pipeline: state, Stage: state.Stage()}
}

type ClusterResponse struct {
	Cluster cluster.Snapshot `json:"cluster"`
}

type ListResponse struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

func newListResponse(items []string) ListResponse {
	if items == nil {
		items = []string{}
	}

	return ListResponse{Items: items, Count: len(items)}
}

type ContentResponse struct {
	QuerySet string `json:"query_set"`
	Artifact string `json:"artifact"`
	Content  string `json:"content"`
}
