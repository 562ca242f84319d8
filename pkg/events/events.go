// Package events defines the notifications published on console state transitions.
package events

import (
	"time"

	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "pqdag.console.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Pipeline events.
	PipelineResetEvent         EventType = "pipeline.reset"
	AllocationStartedEvent     EventType = "pipeline.allocation.started"
	PhaseProgressedEvent       EventType = "pipeline.phase.progressed"
	AllocationCompletedEvent   EventType = "pipeline.allocation.completed"
	AllocationFailedEvent      EventType = "pipeline.allocation.failed"
	DistributionCompletedEvent EventType = "pipeline.distribution.completed"
	DistributionFailedEvent    EventType = "pipeline.distribution.failed"

	// Cluster events.
	ClusterStateChangedEvent EventType = "cluster.state.changed"
	DatasetBoundEvent        EventType = "cluster.dataset.bound"

	// Query events.
	QueryExecutedEvent EventType = "query.executed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a new event of the given type.
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

type PipelineReset struct {
	BaseEvent

	RunID string `json:"run_id"`
}

func (e PipelineReset) GetType() EventType {
	return PipelineResetEvent
}

type AllocationStarted struct {
	BaseEvent

	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Workers int    `json:"workers"`
}

func (e AllocationStarted) GetType() EventType {
	return AllocationStartedEvent
}

// PhaseProgressed is emitted by the speculative estimator; it is an estimate, not a confirmation.
type PhaseProgressed struct {
	BaseEvent

	RunID      string `json:"run_id"`
	Dataset    string `json:"dataset"`
	PhaseIndex int    `json:"phase_index"`
	Phase      string `json:"phase"`
}

func (e PhaseProgressed) GetType() EventType {
	return PhaseProgressedEvent
}

type AllocationCompleted struct {
	BaseEvent

	RunID      string                      `json:"run_id"`
	Dataset    string                      `json:"dataset"`
	Statistics models.AllocationStatistics `json:"statistics"`
	Workers    int                         `json:"workers"`
}

func (e AllocationCompleted) GetType() EventType {
	return AllocationCompletedEvent
}

type AllocationFailed struct {
	BaseEvent

	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Error   string `json:"error"`
}

func (e AllocationFailed) GetType() EventType {
	return AllocationFailedEvent
}

type DistributionCompleted struct {
	BaseEvent

	RunID      string `json:"run_id"`
	Dataset    string `json:"dataset"`
	CleanAfter bool   `json:"clean_after"`
}

func (e DistributionCompleted) GetType() EventType {
	return DistributionCompletedEvent
}

type DistributionFailed struct {
	BaseEvent

	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Error   string `json:"error"`
}

func (e DistributionFailed) GetType() EventType {
	return DistributionFailedEvent
}

type ClusterStateChanged struct {
	BaseEvent

	From    models.ClusterState `json:"from"`
	To      models.ClusterState `json:"to"`
	Message string              `json:"message,omitempty"`
}

func (e ClusterStateChanged) GetType() EventType {
	return ClusterStateChangedEvent
}

type DatasetBound struct {
	BaseEvent

	Previous string `json:"previous,omitempty"`
	Dataset  string `json:"dataset"`
}

func (e DatasetBound) GetType() EventType {
	return DatasetBoundEvent
}

type QueryExecuted struct {
	BaseEvent

	Dataset         string              `json:"dataset"`
	QueryFile       string              `json:"query_file"`
	Status          models.ResultStatus `json:"status"`
	ExecutionTimeMs int64               `json:"execution_time_ms"`
	ResultCount     int                 `json:"result_count"`
	ClusterState    models.ClusterState `json:"cluster_state"`
}

func (e QueryExecuted) GetType() EventType {
	return QueryExecutedEvent
}
