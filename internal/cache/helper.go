package cache

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
)

// startSpan opens a child span for a cache operation when the request carries
// a sentry hub. The key prefix is recorded rather than the full key so pipeline
// fingerprints do not end up as span data.
func startSpan(ctx context.Context, operation, key string) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "cache.inmemory."+operation)
	span.Op = "cache." + operation
	span.Description = keyPrefix(key)
	span.SetData("cache.key_prefix", keyPrefix(key))
	return span
}

// finishSpan records whether a lookup found its key and closes the span
func finishSpan(span *sentry.Span, hit bool) {
	if span == nil {
		return
	}
	span.SetData("cache.hit", hit)
	span.Status = sentry.SpanStatusOK
	span.Finish()
}

func keyPrefix(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[:i+1]
	}
	return key
}
