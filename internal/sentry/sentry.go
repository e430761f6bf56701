package sentry

import (
	"context"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/logger"
	"go.uber.org/fx"
)

const flushTimeout = 2 * time.Second

// Reference lag thresholds, in days, for scheduled pipeline runs.
const (
	lagWarningDays  = 2
	lagCriticalDays = 7
)

type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// Module provides fx options for Sentry
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewSentryService),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks initialises the client on start and flushes pending events
// on stop.
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.init()
		},
		OnStop: func(ctx context.Context) error {
			if svc.enabled() {
				svc.logger.Info("flushing sentry events before shutdown")
				sentry.Flush(flushTimeout)
			}
			return nil
		},
	})
}

func NewSentryService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Service) enabled() bool {
	return s.cfg.Sentry.Enabled
}

func (s *Service) init() error {
	if !s.enabled() {
		s.logger.Info("sentry is disabled")
		return nil
	}

	rate := s.cfg.Sentry.SampleRate
	err := sentry.Init(sentry.ClientOptions{
		Dsn:           s.cfg.Sentry.DSN,
		Environment:   s.cfg.Sentry.Environment,
		EnableTracing: true,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			return sampleRate(ctx.Span, rate)
		}),
	})
	if err != nil {
		s.logger.Errorw("failed to initialize sentry", "error", err)
		return err
	}
	s.logger.Infow("sentry initialized",
		"environment", s.cfg.Sentry.Environment,
		"sample_rate", rate,
	)
	return nil
}

// sampleRate drops health probes and samples everything else at rate.
func sampleRate(span *sentry.Span, rate float64) float64 {
	if span != nil && span.Name == "GET /health" {
		return 0
	}
	return rate
}

func (s *Service) CaptureException(err error) {
	if !s.enabled() {
		return
	}
	sentry.CaptureException(err)
}

func (s *Service) AddBreadcrumb(category, message string, data map[string]interface{}) {
	if !s.enabled() {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Level:    sentry.LevelInfo,
		Data:     data,
	})
}

// Flush waits up to timeout seconds for queued events to be sent
func (s *Service) Flush(timeout uint) bool {
	if !s.enabled() {
		return true
	}
	return sentry.Flush(time.Duration(timeout) * time.Second)
}

// StartSnapshotSpan opens a span around loading one snapshot from source
// (e.g. "postgres"). The returned span is nil when sentry is disabled.
func (s *Service) StartSnapshotSpan(ctx context.Context, source string, data map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.enabled() {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, "snapshot.load")
	span.Description = source + " snapshot load"
	span.SetTag("snapshot.source", source)
	for k, v := range data {
		span.SetData(k, v)
	}
	return span, span.Context()
}

// MonitorRun tags the current transaction with the run id and how far the
// reference date lags behind now
func (s *Service) MonitorRun(ctx context.Context, runID string, referenceDate time.Time) {
	if !s.enabled() {
		return
	}

	tx := sentry.TransactionFromContext(ctx)
	if tx == nil {
		return
	}

	lagDays := int(time.Since(referenceDate).Hours() / 24)
	tx.SetTag("pipeline.run_id", runID)
	tx.SetTag("pipeline.reference_lag.days", strconv.Itoa(lagDays))
	tx.SetTag("pipeline.reference_lag.severity", lagSeverity(lagDays))
}

func lagSeverity(lagDays int) string {
	switch {
	case lagDays >= lagCriticalDays:
		return "critical"
	case lagDays >= lagWarningDays:
		return "warning"
	default:
		return "normal"
	}
}

// StartTransaction starts a transaction on the hub carried by ctx, cloning
// the current hub when ctx has none
func (s *Service) StartTransaction(ctx context.Context, name string, options ...sentry.SpanOption) (*sentry.Span, context.Context) {
	if !s.enabled() {
		return nil, ctx
	}

	if sentry.GetHubFromContext(ctx) == nil {
		ctx = sentry.SetHubOnContext(ctx, sentry.CurrentHub().Clone())
	}

	opts := append([]sentry.SpanOption{
		sentry.WithOpName(name),
		sentry.WithTransactionSource(sentry.SourceCustom),
	}, options...)

	tx := sentry.StartTransaction(ctx, name, opts...)
	return tx, tx.Context()
}
