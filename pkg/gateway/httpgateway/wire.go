package httpgateway

import "github.com/dukex/pqdag-console/pkg/models"

// Backend payloads. Status discriminants are decoded into models.ResultStatus
// here and nowhere else.

type allocationRequest struct {
	DatasetName string `json:"datasetName"`
	NumMachines int    `json:"numMachines,omitempty"`
	CleanAfter  bool   `json:"cleanAfter"`
}

type allocationStatistics struct {
	TotalFragments int     `json:"totalFragments"`
	TotalEdges     int     `json:"totalEdges"`
	ExecutionTime  float64 `json:"executionTime"`
	DBStatFile     string  `json:"dbStatFile"`
	GraphFile      string  `json:"graphFile"`
}

type machineAllocation struct {
	MachineID     int    `json:"machineId"`
	FragmentCount int    `json:"fragmentCount"`
	WorkerIP      string `json:"workerIp"`
}

type allocationResponse struct {
	Status          models.ResultStatus   `json:"status"`
	Message         string                `json:"message"`
	Statistics      *allocationStatistics `json:"statistics"`
	Distribution    []machineAllocation   `json:"distribution"`
	AffectationFile string                `json:"affectationFile"`
}

func (r allocationResponse) toModel() models.AllocationResult {
	var stats models.AllocationStatistics
	if r.Statistics != nil {
		stats = models.AllocationStatistics{
			TotalFragments: r.Statistics.TotalFragments,
			TotalEdges:     r.Statistics.TotalEdges,
			ExecutionTime:  r.Statistics.ExecutionTime,
			StatFile:       r.Statistics.DBStatFile,
			GraphFile:      r.Statistics.GraphFile,
		}
	}

	distribution := make([]models.MachineAllocation, 0, len(r.Distribution))
	for _, m := range r.Distribution {
		distribution = append(distribution, models.MachineAllocation{
			MachineID:     m.MachineID,
			FragmentCount: m.FragmentCount,
			WorkerIP:      m.WorkerIP,
		})
	}

	return models.NewAllocationResult(r.Message, stats, distribution, r.AffectationFile)
}

type clusterStatusResponse struct {
	Status  models.ResultStatus `json:"status"`
	Message string              `json:"message"`
	Output  string              `json:"output"`
}

type currentDatasetResponse struct {
	Dataset string `json:"dataset"`
}

type contentResponse struct {
	Content string `json:"content"`
}

type queryExecutionRequest struct {
	Dataset    string `json:"dataset"`
	QueryFile  string `json:"queryFile"`
	MasterIP   string `json:"masterIp,omitempty"`
	PlanNumber *int   `json:"planNumber,omitempty"`
}

type queryExecutionResponse struct {
	Status          models.ResultStatus `json:"status"`
	Message         string              `json:"message"`
	QueryFile       string              `json:"queryFile"`
	ExecutionTimeMs int64               `json:"executionTimeMs"`
	ResultCount     int                 `json:"resultCount"`
	Output          string              `json:"output"`
	Results         []string            `json:"results"`
}

func (r queryExecutionResponse) toModel() models.QueryExecutionResult {
	return models.QueryExecutionResult{
		Status:          r.Status,
		Message:         r.Message,
		QueryFile:       r.QueryFile,
		ExecutionTimeMs: r.ExecutionTimeMs,
		ResultCount:     r.ResultCount,
		Output:          r.Output,
		Results:         append([]string(nil), r.Results...),
	}
}

type fileResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	FileNames []string `json:"fileNames"`
	TotalSize int64    `json:"totalSize"`
	FileCount int      `json:"fileCount"`
}

// errorEnvelope is the subset of any backend error body the client reads.
type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
