package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	a := NewBaseEvent(AllocationStartedEvent)
	b := NewBaseEvent(AllocationStartedEvent)

	assert.Equal(t, AllocationStartedEvent, a.Type)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestClusterStateChanged_JSON(t *testing.T) {
	event := ClusterStateChanged{
		BaseEvent: NewBaseEvent(ClusterStateChangedEvent),
		From:      models.ClusterStarting,
		To:        models.ClusterRunning,
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded ClusterStateChanged
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ClusterStateChangedEvent, decoded.GetType())
	assert.Equal(t, ClusterStateChangedEvent, decoded.Type)
	assert.Equal(t, models.ClusterRunning, decoded.To)
	assert.Equal(t, event.ID, decoded.ID)
}
