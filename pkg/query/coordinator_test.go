package query

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/pqdag-console/pkg/gateway"
	"github.com/dukex/pqdag-console/pkg/gateway/gatewaytest"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/dukex/pqdag-console/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCluster struct {
	state   models.ClusterState
	dataset string
}

func (s staticCluster) State() models.ClusterState { return s.state }
func (s staticCluster) BoundDataset() string       { return s.dataset }

func running() staticCluster {
	return staticCluster{state: models.ClusterRunning, dataset: "watdiv100k"}
}

func TestCoordinator_EmptyArtifactIsRejectedLocally(t *testing.T) {
	gw := &gatewaytest.Fake{}
	c := NewCoordinator(gw, running(), slog.Default())

	for _, artifact := range []string{"", "   "} {
		outcome, err := c.Execute(context.Background(), models.QueryExecutionRequest{
			Dataset:   "watdiv100k",
			QueryFile: artifact,
		})
		require.ErrorIs(t, err, ErrEmptyArtifact)
		assert.True(t, services.IsPreconditionError(err))
		assert.False(t, outcome.Pending)
		assert.Nil(t, outcome.Result)
	}

	assert.Equal(t, 0, gw.Calls("ExecuteQuery"))
}

func TestCoordinator_Execute(t *testing.T) {
	var got models.QueryExecutionRequest

	gw := &gatewaytest.Fake{
		ExecuteQueryFunc: func(_ context.Context, req models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
			got = req

			return models.QueryExecutionResult{
				Status:          models.StatusSuccess,
				Message:         "Query executed successfully",
				QueryFile:       req.QueryFile,
				ExecutionTimeMs: 842,
				ResultCount:     2,
				Output:          "<a> <b>\n<c> <d>",
				Results:         []string{"<a> <b>", "<c> <d>"},
			}, nil
		},
	}
	c := NewCoordinator(gw, running(), slog.Default())

	outcome, err := c.Execute(context.Background(), models.QueryExecutionRequest{Dataset: "watdiv", QueryFile: "Q1.in"})
	require.NoError(t, err)

	assert.Equal(t, "watdiv", got.Dataset)
	assert.Equal(t, "Q1.in", got.QueryFile)
	assert.Equal(t, DefaultMasterIP, got.MasterIP)
	require.NotNil(t, got.PlanNumber)
	assert.Equal(t, DefaultPlanNumber, *got.PlanNumber)

	require.NotNil(t, outcome.Result)
	assert.True(t, outcome.Result.Succeeded())
	assert.Equal(t, int64(842), outcome.Result.ExecutionTimeMs)
	assert.Equal(t, 2, outcome.Result.ResultCount)
	assert.Equal(t, "Query executed in 842ms", outcome.Result.Message)
	assert.Equal(t, []string{"<a> <b>", "<c> <d>"}, outcome.Result.Results)
	assert.Equal(t, models.ClusterRunning, outcome.ClusterState)
	assert.True(t, outcome.ClusterReady())
	assert.False(t, outcome.Pending)
}

func TestCoordinator_RequestDefaults(t *testing.T) {
	var got models.QueryExecutionRequest

	gw := &gatewaytest.Fake{
		ExecuteQueryFunc: func(_ context.Context, req models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
			got = req

			return models.QueryExecutionResult{Status: models.StatusSuccess}, nil
		},
	}
	c := NewCoordinator(gw, running(), slog.Default(), WithDefaults("10.0.0.9", 2))

	_, err := c.Execute(context.Background(), models.QueryExecutionRequest{QueryFile: "C3.in"})
	require.NoError(t, err)
	assert.Equal(t, "watdiv100k", got.Dataset)
	assert.Equal(t, "10.0.0.9", got.MasterIP)
	assert.Equal(t, 2, *got.PlanNumber)

	plan := 5
	_, err = c.Execute(context.Background(), models.QueryExecutionRequest{
		QueryFile:  "C3.in",
		MasterIP:   "10.0.0.1",
		PlanNumber: &plan,
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", got.MasterIP)
	assert.Equal(t, 5, *got.PlanNumber)
}

func TestCoordinator_DoesNotGateOnClusterState(t *testing.T) {
	gw := &gatewaytest.Fake{}
	c := NewCoordinator(gw, staticCluster{state: models.ClusterStopped}, slog.Default())

	outcome, err := c.Execute(context.Background(), models.QueryExecutionRequest{Dataset: "watdiv", QueryFile: "Q1.in"})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.Calls("ExecuteQuery"))
	assert.Equal(t, models.ClusterStopped, outcome.ClusterState)
	assert.False(t, outcome.ClusterReady())
}

func TestCoordinator_RemoteFailureBecomesFailedResult(t *testing.T) {
	tests := []struct {
		name        string
		result      models.QueryExecutionResult
		err         error
		wantMessage string
	}{
		{
			name:        "transport failure",
			err:         gateway.WrapTransportError("ExecuteQuery", errors.New("connection refused")),
			wantMessage: "Failed to execute query",
		},
		{
			name:        "backend message",
			err:         gateway.NewRemoteError("ExecuteQuery", 500, "client.jar exited with code 1"),
			wantMessage: "client.jar exited with code 1",
		},
		{
			name:        "failed status",
			result:      models.QueryExecutionResult{Status: models.StatusFailure, Message: "Query execution failed", Output: "stack trace"},
			wantMessage: "Query execution failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &gatewaytest.Fake{
				ExecuteQueryFunc: func(context.Context, models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
					return tt.result, tt.err
				},
			}
			c := NewCoordinator(gw, running(), slog.Default())

			outcome, err := c.Execute(context.Background(), models.QueryExecutionRequest{Dataset: "watdiv", QueryFile: "Q1.in"})
			require.NoError(t, err)
			require.NotNil(t, outcome.Result)
			assert.False(t, outcome.Result.Succeeded())
			assert.Equal(t, tt.wantMessage, outcome.Result.Message)
			assert.Equal(t, "Q1.in", outcome.Result.QueryFile)
			assert.False(t, outcome.Pending)
		})
	}
}

func TestCoordinator_RejectsOverlappingExecution(t *testing.T) {
	ctx := context.Background()
	gw := &gatewaytest.Fake{
		ExecuteQueryFunc: func(context.Context, models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
			return models.QueryExecutionResult{Status: models.StatusSuccess, ExecutionTimeMs: 10}, nil
		},
	}
	c := NewCoordinator(gw, running(), slog.Default())

	prior, err := c.Execute(ctx, models.QueryExecutionRequest{Dataset: "watdiv100k", QueryFile: "Q0.in"})
	require.NoError(t, err)
	require.NotNil(t, prior.Result)

	blocked := gatewaytest.NewPending[models.QueryExecutionResult]()
	gw.ExecuteQueryFunc = func(ctx context.Context, _ models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
		return blocked.Wait(ctx)
	}

	done := make(chan Outcome, 1)

	go func() {
		outcome, _ := c.Execute(ctx, models.QueryExecutionRequest{Dataset: "watdiv100k", QueryFile: "Q1.sparql"})
		done <- outcome
	}()

	select {
	case <-blocked.Entered:
	case <-time.After(5 * time.Second):
		t.Fatal("query was not dispatched")
	}

	inFlight := c.LastOutcome()
	assert.True(t, inFlight.Pending)
	assert.Nil(t, inFlight.Result, "previous result is cleared on dispatch")

	_, err = c.Execute(ctx, models.QueryExecutionRequest{Dataset: "watdiv100k", QueryFile: "Q1.sparql"})
	require.ErrorIs(t, err, ErrPending)
	assert.True(t, services.IsBusyError(err))
	assert.Equal(t, 2, gw.Calls("ExecuteQuery"))

	blocked.Release(models.QueryExecutionResult{Status: models.StatusSuccess, ExecutionTimeMs: 5, ResultCount: 1}, nil)

	select {
	case outcome := <-done:
		require.NotNil(t, outcome.Result)
		assert.Equal(t, "Q1.sparql", outcome.Result.QueryFile)
		assert.Equal(t, 1, outcome.Result.ResultCount)
		assert.False(t, outcome.Pending)
	case <-time.After(5 * time.Second):
		t.Fatal("query did not return")
	}
}

func TestCoordinator_ResultsAreIndependent(t *testing.T) {
	gw := &gatewaytest.Fake{
		ExecuteQueryFunc: func(context.Context, models.QueryExecutionRequest) (models.QueryExecutionResult, error) {
			return models.QueryExecutionResult{Status: models.StatusSuccess, Results: []string{"row"}}, nil
		},
	}
	c := NewCoordinator(gw, running(), slog.Default())

	first, err := c.Execute(context.Background(), models.QueryExecutionRequest{QueryFile: "Q1.in"})
	require.NoError(t, err)

	first.Result.Results[0] = "mutated"

	assert.Equal(t, []string{"row"}, c.LastOutcome().Result.Results)

	second, err := c.Execute(context.Background(), models.QueryExecutionRequest{QueryFile: "Q1.in"})
	require.NoError(t, err)
	assert.NotSame(t, first.Result, second.Result)
}
