package models

// ClusterState is the operational state of the remote query cluster.
type ClusterState string

const (
	ClusterUnknown    ClusterState = "unknown"
	ClusterStarting   ClusterState = "starting"
	ClusterRunning    ClusterState = "running"
	ClusterStopping   ClusterState = "stopping"
	ClusterStopped    ClusterState = "stopped"
	ClusterRestarting ClusterState = "restarting"
	ClusterError      ClusterState = "error"
)

// IsTransient reports whether the state only exists while a remote call is pending.
func (s ClusterState) IsTransient() bool {
	return s == ClusterStarting || s == ClusterStopping || s == ClusterRestarting
}

// ClusterStatus is the status+message payload of cluster control operations.
type ClusterStatus struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message"`
	Output  string       `json:"output,omitempty"`
}
