// Package gateway defines the boundary between the console core and the remote
// backend that runs statistics, partitioning, distribution and the query cluster.
package gateway

import (
	"context"

	"github.com/dukex/pqdag-console/pkg/models"
)

// AllocationGateway drives the allocation pipeline on the backend.
type AllocationGateway interface {
	StartAllocation(ctx context.Context, dataset string, workers int, cleanAfter bool) (models.AllocationResult, error)
	DistributeFragments(ctx context.Context, dataset string, cleanAfter bool) (models.AllocationResult, error)
	GetAllocationResults(ctx context.Context, dataset string) (models.AllocationResult, error)
}

// ClusterGateway controls the remote query cluster.
type ClusterGateway interface {
	StartCluster(ctx context.Context) (models.ClusterStatus, error)
	StopCluster(ctx context.Context) (models.ClusterStatus, error)
	RestartCluster(ctx context.Context) (models.ClusterStatus, error)
	ClearProcesses(ctx context.Context) (models.ClusterStatus, error)
	SetDataset(ctx context.Context, dataset string) (models.ClusterStatus, error)
	GetCurrentDataset(ctx context.Context) (string, error)
}

// MetadataGateway exposes read-only listings produced by the pipeline.
type MetadataGateway interface {
	ListPipelineDatasets(ctx context.Context) ([]string, error)
	ListQueryArtifactSets(ctx context.Context) ([]string, error)
	ListQueryArtifacts(ctx context.Context, querySet string) ([]string, error)
	GetQueryArtifactContent(ctx context.Context, querySet, artifact string) (string, error)
}

// QueryGateway executes queries on the cluster.
type QueryGateway interface {
	ExecuteQuery(ctx context.Context, req models.QueryExecutionRequest) (models.QueryExecutionResult, error)
}

// FileGateway manages raw RDF files on the backend.
type FileGateway interface {
	UploadFiles(ctx context.Context, files []models.FileBlob) (models.UploadResult, error)
	ListFiles(ctx context.Context) (models.FileListing, error)
	ClearFiles(ctx context.Context) error
}

// Gateway is the full set of remote operations the console consumes.
// Every method blocks until the backend answers or ctx is done.
type Gateway interface {
	AllocationGateway
	ClusterGateway
	MetadataGateway
	QueryGateway
	FileGateway
}
