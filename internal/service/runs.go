package service

import (
	"context"

	"github.com/retailpulse/retailpulse/internal/cache"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
)

// RunCache keeps pipeline results for dashboard sessions: the latest
// scheduled run, and on demand runs keyed by the fingerprint of their
// dataset. Runs are deterministic so a cached result for the same dataset
// and configuration is interchangeable with a fresh one.
type RunCache struct {
	cache  cache.Cache
	logger *logger.Logger
}

func NewRunCache(c cache.Cache, logger *logger.Logger) *RunCache {
	return &RunCache{cache: c, logger: logger}
}

// SetLatest records result as the latest scheduled run
func (r *RunCache) SetLatest(ctx context.Context, result *PipelineResult) {
	r.cache.Set(ctx, cache.GenerateKey(cache.PrefixLatestRun, "latest"), result, 0)
}

// Latest returns the latest scheduled run
func (r *RunCache) Latest(ctx context.Context) (*PipelineResult, bool) {
	return r.get(ctx, cache.GenerateKey(cache.PrefixLatestRun, "latest"))
}

// RunDataset returns the cached result for ds or runs the pipeline and
// caches it. The boolean reports a cache hit. Keys include the current day
// since the reference date of a run may come from the clock.
func (r *RunCache) RunDataset(ctx context.Context, pipeline PipelineService, ds *snapshot.Dataset) (*PipelineResult, bool, error) {
	fingerprint, err := cache.Fingerprint(ds)
	if err != nil {
		return nil, false, err
	}
	key := cache.GenerateKey(cache.PrefixPipelineRun, fingerprint, types.FormatDate(pipeline.Today()))

	if result, ok := r.get(ctx, key); ok {
		r.logger.Debugw("pipeline result served from cache", "fingerprint", fingerprint, "run_id", result.RunID)
		return result, true, nil
	}

	result, err := pipeline.Run(ctx, ds)
	if err != nil {
		return nil, false, err
	}
	r.cache.Set(ctx, key, result, 0)
	return result, false, nil
}

// Invalidate drops every cached on demand run
func (r *RunCache) Invalidate(ctx context.Context) {
	r.cache.DeleteByPrefix(ctx, cache.PrefixPipelineRun)
}

func (r *RunCache) get(ctx context.Context, key string) (*PipelineResult, bool) {
	v, ok := r.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	result, ok := v.(*PipelineResult)
	return result, ok
}
