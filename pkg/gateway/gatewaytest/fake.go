// Package gatewaytest provides a programmable in-memory gateway for tests.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/models"
)

var _ gateway.Gateway = (*Fake)(nil)

// Fake implements gateway.Gateway. Each operation delegates to its Func field
// when set and otherwise succeeds with a zero payload. Calls are counted per
// operation name.
type Fake struct {
	StartAllocationFunc         func(ctx context.Context, dataset string, workers int, cleanAfter bool) (models.AllocationResult, error)
	DistributeFragmentsFunc     func(ctx context.Context, dataset string, cleanAfter bool) (models.AllocationResult, error)
	GetAllocationResultsFunc    func(ctx context.Context, dataset string) (models.AllocationResult, error)
	ClusterFunc                 func(ctx context.Context, op string) (models.ClusterStatus, error)
	SetDatasetFunc              func(ctx context.Context, dataset string) (models.ClusterStatus, error)
	GetCurrentDatasetFunc       func(ctx context.Context) (string, error)
	ListPipelineDatasetsFunc    func(ctx context.Context) ([]string, error)
	ListQueryArtifactSetsFunc   func(ctx context.Context) ([]string, error)
	ListQueryArtifactsFunc      func(ctx context.Context, querySet string) ([]string, error)
	GetQueryArtifactContentFunc func(ctx context.Context, querySet, artifact string) (string, error)
	ExecuteQueryFunc            func(ctx context.Context, req models.QueryExecutionRequest) (models.QueryExecutionResult, error)
	UploadFilesFunc             func(ctx context.Context, files []models.FileBlob) (models.UploadResult, error)
	ListFilesFunc               func(ctx context.Context) (models.FileListing, error)
	ClearFilesFunc              func(ctx context.Context) error

	mu    sync.Mutex
	calls map[string]int
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.calls == nil {
		f.calls = make(map[string]int)
	}

	f.calls[op]++
}

func (f *Fake) StartAllocation(ctx context.Context, dataset string, workers int, cleanAfter bool) (models.AllocationResult, error) {
	f.record("StartAllocation")

	if f.StartAllocationFunc != nil {
		return f.StartAllocationFunc(ctx, dataset, workers, cleanAfter)
	}

	return models.AllocationResult{}, nil
}

func (f *Fake) DistributeFragments(ctx context.Context, dataset string, cleanAfter bool) (models.AllocationResult, error) {
	f.record("DistributeFragments")

	if f.DistributeFragmentsFunc != nil {
		return f.DistributeFragmentsFunc(ctx, dataset, cleanAfter)
	}

	return models.AllocationResult{}, nil
}

func (f *Fake) GetAllocationResults(ctx context.Context, dataset string) (models.AllocationResult, error) {
	f.record("GetAllocationResults")

	if f.GetAllocationResultsFunc != nil {
		return f.GetAllocationResultsFunc(ctx, dataset)
	}

	return models.AllocationResult{}, nil
}

func (f *Fake) cluster(ctx context.Context, op string) (models.ClusterStatus, error) {
	f.record(op)

	if f.ClusterFunc != nil {
		return f.ClusterFunc(ctx, op)
	}

	return models.ClusterStatus{Status: models.StatusSuccess}, nil
}

func (f *Fake) StartCluster(ctx context.Context) (models.ClusterStatus, error) {
	return f.cluster(ctx, "StartCluster")
}

func (f *Fake) StopCluster(ctx context.Context) (models.ClusterStatus, error) {
	return f.cluster(ctx, "StopCluster")
}

func (f *Fake) RestartCluster(ctx context.Context) (models.ClusterStatus, error) {
	return f.cluster(ctx, "RestartCluster")
}

func (f *Fake) ClearProcesses(ctx context.Context) (models.ClusterStatus, error) {
	return f.cluster(ctx, "ClearProcesses")
}

func (f *Fake) SetDataset(ctx context.Context, dataset string) (models.ClusterStatus, error) {
	f.record("SetDataset")

	if f.SetDatasetFunc != nil {
		return f.SetDatasetFunc(ctx, dataset)
	}

	return models.ClusterStatus{Status: models.StatusSuccess}, nil
}

func (f *Fake) GetCurrentDataset(ctx context.Context) (string, error) {
	f.record("GetCurrentDataset")

	if f.GetCurrentDatasetFunc != nil {
		return f.GetCurrentDatasetFunc(ctx)
	}

	return "", nil
}

func (f *Fake) ListPipelineDatasets(ctx context.Context) ([]string, error) {
	f.record("ListPipelineDatasets")

	if f.ListPipelineDatasetsFunc != nil {
		return f.ListPipelineDatasetsFunc(ctx)
	}

	return []string{}, nil
}

func (f *Fake) ListQueryArtifactSets(ctx context.Context) ([]string, error) {
	f.record("ListQueryArtifactSets")

	if f.ListQueryArtifactSetsFunc != nil {
		return f.ListQueryArtifactSetsFunc(ctx)
	}

	return []string{}, nil
}

func (f *Fake) ListQueryArtifacts(ctx context.Context, querySet string) ([]string, error) {
	f.record("ListQueryArtifacts")

	if f.ListQueryArtifactsFunc != nil {
		return f.ListQueryArtifactsFunc(ctx, querySet)
	}

	return []string{}, nil
}

func (f *Fake) GetQueryArtifactContent(ctx context.Context, querySet, artifact string) (string, error) {
	f.record("GetQueryArtifactContent")

	if f.GetQueryArtifactContentFunc != nil {
		return f.GetQueryArtifactContentFunc(ctx, querySet, artifact)
	}

	return "", nil
}

func (f *Fake) ExecuteQuery(ctx context.Context, req models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
	f.record("ExecuteQuery")

	if f.ExecuteQueryFunc != nil {
		return f.ExecuteQueryFunc(ctx, req)
	}

	return models.QueryExecutionResult{Status: models.StatusSuccess, QueryFile: req.QueryFile}, nil
}

func (f *Fake) UploadFiles(ctx context.Context, files []models.FileBlob) (models.UploadResult, error) {
	f.record("UploadFiles")

	if f.UploadFilesFunc != nil {
		return f.UploadFilesFunc(ctx, files)
	}

	names := make([]string, 0, len(files))

	var total int64

	for _, file := range files {
		names = append(names, file.Name)
		total += file.Size
	}

	return models.UploadResult{FileNames: names, TotalSize: total, FileCount: len(files)}, nil
}

func (f *Fake) ListFiles(ctx context.Context) (models.FileListing, error) {
	f.record("ListFiles")

	if f.ListFilesFunc != nil {
		return f.ListFilesFunc(ctx)
	}

	return models.FileListing{Files: []string{}}, nil
}

func (f *Fake) ClearFiles(ctx context.Context) error {
	f.record("ClearFiles")

	if f.ClearFilesFunc != nil {
		return f.ClearFilesFunc(ctx)
	}

	return nil
}

// Pending is the call-side half of a blocked gateway operation. Entered is
// closed once the operation has been invoked; Release unblocks it.
type Pending[T any] struct {
	Entered chan struct{}
	release chan outcome[T]
	once    sync.Once
}

type outcome[T any] struct {
	value T
	err   error
}

func NewPending[T any]() *Pending[T] {
	return &Pending[T]{
		Entered: make(chan struct{}),
		release: make(chan outcome[T], 1),
	}
}

// Wait marks the operation as entered and blocks until Release or ctx is done.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	p.once.Do(func() { close(p.Entered) })

	select {
	case o := <-p.release:
		return o.value, o.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

func (p *Pending[T]) Release(value T, err error) {
	p.release <- outcome[T]{value: value, err: err}
}
