// Package scheduler refreshes the cluster's dataset binding on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pqdag-console/pkg/cluster"
	"github.com/robfig/cron/v3"
)

const syncTimeout = time.Minute

// BindingSyncer refreshes the bound dataset from the backend.
type BindingSyncer interface {
	SyncBinding(ctx context.Context) (cluster.Snapshot, error)
}

type BindingSync struct {
	CronExpr string

	syncer BindingSyncer
	cron   *cron.Cron
	logger *slog.Logger
}

func NewBindingSync(cronExpr string, syncer BindingSyncer, logger *slog.Logger) (*BindingSync, error) {
	s := &BindingSync{
		CronExpr: cronExpr,
		syncer:   syncer,
		logger:   logger.With("module", "binding_sync", "cron", cronExpr),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *BindingSync) Validate() error {
	if s.CronExpr == "" {
		return errors.New("binding sync cron expression is required")
	}

	if _, err := cron.ParseStandard(s.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (s *BindingSync) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting binding sync")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := s.cron.AddFunc(s.CronExpr, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to add binding sync job: %w", err)
	}

	s.cron.Start()

	return nil
}

// RunOnce performs a single sync. Failures are logged; the next tick retries.
func (s *BindingSync) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	snapshot, err := s.syncer.SyncBinding(ctx)

	if err != nil {
		s.logger.WarnContext(ctx, "Binding sync failed", "error", err)

		return
	}

	s.logger.DebugContext(ctx, "Binding synced", "dataset", snapshot.BoundDataset)
}

// Stop stops the schedule and waits for a running sync until ctx is done.
func (s *BindingSync) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping binding sync")

	if s.cron == nil {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
