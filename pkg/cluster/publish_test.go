package cluster

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/pqdag-console/pkg/events"
	"github.com/dukex/pqdag-console/pkg/gateway/gatewaytest"
	"github.com/dukex/pqdag-console/pkg/mocks"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestController_PublishesStateChanges(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "cluster", mock.MatchedBy(func(e events.ClusterStateChanged) bool {
		return e.From == models.ClusterUnknown && e.To == models.ClusterStarting
	})).Return(nil).Once()
	bus.On("Publish", mock.Anything, "cluster", mock.MatchedBy(func(e events.ClusterStateChanged) bool {
		return e.From == models.ClusterStarting && e.To == models.ClusterRunning
	})).Return(nil).Once()

	c := NewController(&gatewaytest.Fake{}, slog.Default(), WithPublisher(bus))

	snapshot, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ClusterRunning, snapshot.State)

	bus.AssertExpectations(t)
}

func TestController_PublishFailureDoesNotFailTransition(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "cluster", mock.Anything).Return(errors.New("broker unavailable"))

	c := NewController(&gatewaytest.Fake{}, slog.Default(), WithPublisher(bus))

	snapshot, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ClusterStopped, snapshot.State)

	_, err = c.BindDataset(context.Background(), "watdiv100k")
	require.NoError(t, err)

	bus.AssertNumberOfCalls(t, "Publish", 3)
	bus.AssertCalled(t, "Publish", mock.Anything, "cluster", mock.AnythingOfType("events.DatasetBound"))
}
