package models

// QueryExecutionRequest selects a query artifact to run against the bound dataset.
type QueryExecutionRequest struct {
	Dataset    string `json:"dataset"`
	QueryFile  string `json:"query_file"`
	MasterIP   string `json:"master_ip,omitempty"`
	PlanNumber *int   `json:"plan_number,omitempty"`
}

// QueryExecutionResult is produced once per request and never mutated afterwards.
type QueryExecutionResult struct {
	Status          ResultStatus `json:"status"`
	Message         string       `json:"message"`
	QueryFile       string       `json:"query_file,omitempty"`
	ExecutionTimeMs int64        `json:"execution_time_ms"`
	ResultCount     int          `json:"result_count"`
	Output          string       `json:"output,omitempty"`
	Results         []string     `json:"results,omitempty"`
}

// Succeeded reports whether the remote execution succeeded.
func (r QueryExecutionResult) Succeeded() bool {
	return r.Status.IsSuccess()
}
