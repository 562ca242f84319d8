package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/pqdag-console/pkg/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (s *countingSyncer) SyncBinding(context.Context) (cluster.Snapshot, error) {
	s.calls.Add(1)

	return cluster.Snapshot{BoundDataset: "watdiv100k"}, s.err
}

func TestNewBindingSync_Validation(t *testing.T) {
	_, err := NewBindingSync("", &countingSyncer{}, slog.Default())
	require.Error(t, err)

	_, err = NewBindingSync("every minute", &countingSyncer{}, slog.Default())
	require.Error(t, err)

	s, err := NewBindingSync("*/5 * * * *", &countingSyncer{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", s.CronExpr)

	_, err = NewBindingSync("@every 30s", &countingSyncer{}, slog.Default())
	require.NoError(t, err)
}

func TestBindingSync_RunOnce(t *testing.T) {
	for _, syncErr := range []error{nil, errors.New("ssh: timeout")} {
		syncer := &countingSyncer{err: syncErr}
		s, err := NewBindingSync("@every 1m", syncer, slog.Default())
		require.NoError(t, err)

		s.RunOnce(context.Background())
		assert.Equal(t, int32(1), syncer.calls.Load())
	}
}

func TestBindingSync_StartStop(t *testing.T) {
	syncer := &countingSyncer{}
	s, err := NewBindingSync("@every 1s", syncer, slog.Default())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return syncer.calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))
}

func TestBindingSync_StopWithoutStart(t *testing.T) {
	s, err := NewBindingSync("@every 1m", &countingSyncer{}, slog.Default())
	require.NoError(t, err)
	require.NoError(t, s.Stop(context.Background()))
}
