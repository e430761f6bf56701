package postgres

import (
	"context"

	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	sentryService "github.com/retailpulse/retailpulse/internal/sentry"
)

// SentrySource wraps a snapshot source with Sentry span tracking
type SentrySource struct {
	source snapshot.Source
	sentry *sentryService.Service
	logger *logger.Logger
}

// NewSentrySource creates a Sentry-instrumented snapshot source
func NewSentrySource(source snapshot.Source, sentry *sentryService.Service, logger *logger.Logger) snapshot.Source {
	return &SentrySource{
		source: source,
		sentry: sentry,
		logger: logger,
	}
}

// Load wraps the snapshot load in a database span
func (s *SentrySource) Load(ctx context.Context) (*snapshot.Dataset, error) {
	span, spanCtx := s.sentry.StartSnapshotSpan(ctx, "postgres", map[string]interface{}{
		"operation": "snapshot_load",
	})
	if span != nil {
		defer span.Finish()
	}

	ds, err := s.source.Load(spanCtx)
	if err != nil {
		s.sentry.CaptureException(err)
		return nil, err
	}
	return ds, nil
}
