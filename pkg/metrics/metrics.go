// Package metrics exposes Prometheus collectors for the console.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/pqdag-console/pkg/eventbus"
	"github.com/dukex/pqdag-console/pkg/events"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var clusterStates = []models.ClusterState{
	models.ClusterUnknown,
	models.ClusterStarting,
	models.ClusterRunning,
	models.ClusterStopping,
	models.ClusterStopped,
	models.ClusterRestarting,
	models.ClusterError,
}

type Metrics struct {
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec

	pipelineEvents     *prometheus.CounterVec
	allocationDuration prometheus.Histogram
	fragments          prometheus.Gauge

	clusterState *prometheus.GaugeVec

	queryExecutions *prometheus.CounterVec
	queryDuration   prometheus.Histogram
}

func New(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		gatewayRequests: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "pqdag_gateway_requests_total",
			Help: "Total number of backend requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		gatewayDuration: promauto.With(r).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pqdag_gateway_request_duration_seconds",
			Help:    "Time taken by backend requests.",
			Buckets: []float64{.05, .25, 1, 5, 15, 60, 300, 900},
		}, []string{"operation"}),
		pipelineEvents: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "pqdag_pipeline_events_total",
			Help: "Total number of pipeline transitions by event type.",
		}, []string{"event"}),
		allocationDuration: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name:    "pqdag_allocation_execution_seconds",
			Help:    "Backend-reported execution time of successful allocations.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		fragments: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Name: "pqdag_allocation_fragments",
			Help: "Total fragments produced by the last successful allocation.",
		}),
		clusterState: promauto.With(r).NewGaugeVec(prometheus.GaugeOpts{
			Name: "pqdag_cluster_state",
			Help: "1 for the current cluster state, 0 otherwise.",
		}, []string{"state"}),
		queryExecutions: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "pqdag_query_executions_total",
			Help: "Total number of query executions by status.",
		}, []string{"status"}),
		queryDuration: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name:    "pqdag_query_execution_seconds",
			Help:    "Backend-reported query execution time.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}

	m.setClusterState(models.ClusterUnknown)

	return m
}

// ObserveGateway records one backend request.
func (m *Metrics) ObserveGateway(operation string, took time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	m.gatewayRequests.WithLabelValues(operation, outcome).Inc()
	m.gatewayDuration.WithLabelValues(operation).Observe(took.Seconds())
}

func (m *Metrics) setClusterState(current models.ClusterState) {
	for _, state := range clusterStates {
		value := 0.0
		if state == current {
			value = 1
		}

		m.clusterState.WithLabelValues(string(state)).Set(value)
	}
}

// Subscribe registers handlers that keep the collectors in step with the
// events published by the console components.
func (m *Metrics) Subscribe(sub eventbus.EventSubscriber) error {
	pipelineTypes := []events.EventType{
		events.PipelineResetEvent,
		events.AllocationStartedEvent,
		events.PhaseProgressedEvent,
		events.AllocationFailedEvent,
		events.DistributionCompletedEvent,
		events.DistributionFailedEvent,
	}

	for _, eventType := range pipelineTypes {
		if err := sub.Handle(eventType, m.countPipeline(eventType)); err != nil {
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}

	handlers := map[events.EventType]eventbus.EventHandler{
		events.AllocationCompletedEvent: m.handleAllocationCompleted,
		events.ClusterStateChangedEvent: m.handleClusterStateChanged,
		events.QueryExecutedEvent:       m.handleQueryExecuted,
	}

	for eventType, handler := range handlers {
		if err := sub.Handle(eventType, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}

	return nil
}

func (m *Metrics) countPipeline(eventType events.EventType) eventbus.EventHandler {
	return func(context.Context, any) error {
		m.pipelineEvents.WithLabelValues(string(eventType)).Inc()

		return nil
	}
}

func (m *Metrics) handleAllocationCompleted(_ context.Context, event any) error {
	e, ok := event.(*events.AllocationCompleted)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	m.pipelineEvents.WithLabelValues(string(events.AllocationCompletedEvent)).Inc()
	m.allocationDuration.Observe(e.Statistics.ExecutionTime)
	m.fragments.Set(float64(e.Statistics.TotalFragments))

	return nil
}

func (m *Metrics) handleClusterStateChanged(_ context.Context, event any) error {
	e, ok := event.(*events.ClusterStateChanged)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	m.setClusterState(e.To)

	return nil
}

func (m *Metrics) handleQueryExecuted(_ context.Context, event any) error {
	e, ok := event.(*events.QueryExecuted)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	m.queryExecutions.WithLabelValues(e.Status.String()).Inc()
	m.queryDuration.Observe(float64(e.ExecutionTimeMs) / 1000)

	return nil
}
