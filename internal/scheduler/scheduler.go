package scheduler

import (
	"context"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/sentry"
	"github.com/retailpulse/retailpulse/internal/service"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/robfig/cron/v3"
)

// runTimeout bounds the snapshot load of one scheduled run
const runTimeout = 10 * time.Minute

// PipelineScheduler recomputes the pipeline from the snapshot source on a
// cron schedule and publishes the result as the latest run
type PipelineScheduler struct {
	cronEngine *cron.Cron
	spec       string
	pipeline   service.PipelineService
	runs       *service.RunCache
	sentry     *sentry.Service
	logger     *logger.Logger
}

func NewPipelineScheduler(
	cfg *config.Configuration,
	pipeline service.PipelineService,
	runs *service.RunCache,
	sentry *sentry.Service,
	logger *logger.Logger,
) *PipelineScheduler {
	return &PipelineScheduler{
		cronEngine: cron.New(cron.WithLocation(time.UTC)),
		spec:       cfg.Scheduler.Spec,
		pipeline:   pipeline,
		runs:       runs,
		sentry:     sentry,
		logger:     logger,
	}
}

// Start registers the pipeline job and starts the cron engine
func (s *PipelineScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Errorw("scheduled pipeline run failed", "error", err)
		}
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Invalid scheduler spec %q", s.spec).
			Mark(ierr.ErrValidation)
	}

	s.cronEngine.Start()
	s.logger.Infow("pipeline scheduler started", "spec", s.spec)
	return nil
}

// RunOnce executes one scheduled run
func (s *PipelineScheduler) RunOnce(ctx context.Context) error {
	runID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PIPELINE_RUN)
	ctx = types.WithRunID(ctx, runID)

	span, ctx := s.sentry.StartTransaction(ctx, "pipeline.scheduled")
	if span != nil {
		defer span.Finish()
	}
	s.sentry.AddBreadcrumb("pipeline", "scheduled run started", map[string]interface{}{"run_id": runID})

	result, err := s.pipeline.RunFromSource(ctx)
	if err != nil {
		s.sentry.CaptureException(err)
		return err
	}

	s.sentry.MonitorRun(ctx, result.RunID, result.ReferenceDate)
	s.runs.SetLatest(ctx, result)
	s.runs.Invalidate(ctx)
	s.logger.Infow("scheduled pipeline run cached",
		"run_id", result.RunID,
		"reference_date", types.FormatDate(result.ReferenceDate))
	return nil
}

// Stop stops the cron engine and waits for a running job to finish
func (s *PipelineScheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping pipeline scheduler")
	done := s.cronEngine.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
