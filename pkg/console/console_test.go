package console

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/dukex/pqdag-console/pkg/gateway/gatewaytest"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_QueryUsesBoundDataset(t *testing.T) {
	var seen models.QueryExecutionRequest

	gw := &gatewaytest.Fake{
		ExecuteQueryFunc: func(_ context.Context, req models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
			seen = req

			return models.QueryExecutionResult{Status: models.StatusSuccess, QueryFile: req.QueryFile, ExecutionTimeMs: 42}, nil
		},
	}

	c := New(gw, slog.Default(), Config{MasterIP: "10.0.0.1", PlanNumber: 2})

	_, err := c.Cluster.BindDataset(context.Background(), "watdiv100k")
	require.NoError(t, err)

	_, err = c.Cluster.Start(context.Background())
	require.NoError(t, err)

	outcome, err := c.Queries.Execute(context.Background(), models.QueryExecutionRequest{QueryFile: "q1.sparql"})
	require.NoError(t, err)
	assert.True(t, outcome.ClusterReady())
	assert.Equal(t, "watdiv100k", seen.Dataset)
	assert.Equal(t, "10.0.0.1", seen.MasterIP)
	require.NotNil(t, seen.PlanNumber)
	assert.Equal(t, 2, *seen.PlanNumber)

	status := c.Status()
	assert.Equal(t, models.ClusterRunning, status.Cluster.State)
	require.NotNil(t, status.Query.Result)
	assert.Equal(t, "q1.sparql", status.Query.Result.QueryFile)
}

func TestConsole_SeedsBindingAndClock(t *testing.T) {
	mClock := quartz.NewMock(t)

	c := New(&gatewaytest.Fake{}, slog.Default(), Config{
		Clock:          mClock,
		ProgressDelays: []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
		BoundDataset:   " lubm ",
	})

	assert.Equal(t, "lubm", c.Cluster.BoundDataset())

	_, err := c.Pipeline.StartAllocation(context.Background(), "lubm", 2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Close(ctx))
	assert.True(t, c.Status().Pipeline.AllocationCompleted)
}
