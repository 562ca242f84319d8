package metrics

import (
	"errors"
	"testing"

	"github.com/dukex/pqdag-console/pkg/events"
	"github.com/dukex/pqdag-console/pkg/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SubscribeRegistersEveryHandler(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, New(prometheus.NewRegistry()).Subscribe(bus))

	bus.AssertNumberOfCalls(t, "Handle", 9)
	bus.AssertCalled(t, "Handle", events.ClusterStateChangedEvent, mock.Anything)
	bus.AssertCalled(t, "Handle", events.QueryExecutedEvent, mock.Anything)
}

func TestMetrics_SubscribeFailure(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.PipelineResetEvent, mock.Anything).Return(errors.New("closed"))

	err := New(prometheus.NewRegistry()).Subscribe(bus)
	require.Error(t, err)
	require.ErrorContains(t, err, string(events.PipelineResetEvent))
}
