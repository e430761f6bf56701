package sentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestService_Disabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sentry.Enabled = false
	svc := NewSentryService(cfg, logger.NewNopLogger())
	ctx := context.Background()

	svc.CaptureException(errors.New("boom"))
	svc.AddBreadcrumb("pipeline", "run", nil)
	svc.MonitorRun(ctx, "run_1", time.Now())
	assert.True(t, svc.Flush(1))
	assert.NoError(t, svc.init())

	span, spanCtx := svc.StartTransaction(ctx, "pipeline.scheduled")
	assert.Nil(t, span)
	assert.Equal(t, ctx, spanCtx)

	span, spanCtx = svc.StartSnapshotSpan(ctx, "postgres", nil)
	assert.Nil(t, span)
	assert.Equal(t, ctx, spanCtx)
}

func TestLagSeverity(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "normal"},
		{1, "normal"},
		{2, "warning"},
		{6, "warning"},
		{7, "critical"},
		{30, "critical"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lagSeverity(tt.days), "days=%d", tt.days)
	}
}

func TestSampleRate(t *testing.T) {
	assert.Equal(t, 0.25, sampleRate(nil, 0.25))
	assert.Equal(t, 0.25, sampleRate(&sentry.Span{Name: "POST /v1/pipeline/runs"}, 0.25))
	assert.Equal(t, 0.0, sampleRate(&sentry.Span{Name: "GET /health"}, 0.25))
}
