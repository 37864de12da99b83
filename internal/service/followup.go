package service

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// FollowUpWorker periodically retries progression updates that failed during
// grading.
type FollowUpWorker struct {
	progression *ProgressionService
	spec        string
	drainSize   int
	logger      *zap.Logger
}

func NewFollowUpWorker(progression *ProgressionService, spec string, drainSize int, logger *zap.Logger) *FollowUpWorker {
	return &FollowUpWorker{
		progression: progression,
		spec:        spec,
		drainSize:   drainSize,
		logger:      logger,
	}
}

// Start runs the drain on the cron spec until ctx is cancelled.
func (w *FollowUpWorker) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(w.spec, func() { w.RunOnce(ctx) }); err != nil {
		return err
	}

	c.Start()
	w.logger.Info("follow-up worker started", zap.String("spec", w.spec))

	<-ctx.Done()

	<-c.Stop().Done()
	w.logger.Info("follow-up worker stopped")
	return nil
}

// RunOnce drains up to the configured number of queued events.
func (w *FollowUpWorker) RunOnce(ctx context.Context) {
	applied, err := w.progression.DrainFollowUps(ctx, w.drainSize)
	if err != nil {
		w.logger.Error("failed to drain progression follow-ups",
			zap.Int("applied", applied),
			zap.Error(err),
		)
		return
	}
	if applied > 0 {
		w.logger.Info("progression follow-ups applied", zap.Int("applied", applied))
	}
}
