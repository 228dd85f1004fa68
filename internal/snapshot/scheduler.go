package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/matsen/artman/internal/logging"
)

// Scheduler runs a Snapshotter on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler registers snap to run on spec, a standard five-field cron
// expression or a descriptor such as "@daily" or "@every 1h".
// Each run uses ctx; cancelling it aborts in-flight runs.
func NewScheduler(ctx context.Context, spec string, snap *Snapshotter, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "snapshot")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		if _, err := snap.Run(ctx); err != nil {
			logger.Error("scheduled snapshot failed", "path", snap.Path(), "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}

	logger.Info("snapshot scheduled", "schedule", spec, "path", snap.Path())
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running snapshots in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
