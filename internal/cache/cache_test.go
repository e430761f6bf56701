package cache

import (
	"context"
	"testing"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(enabled bool) *InMemoryCache {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	return NewInMemoryCache(cfg, logger.NewNopLogger())
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := newCache(true)

	c.Set(ctx, GenerateKey(PrefixPipelineRun, "abc"), "first", 0)
	c.Set(ctx, GenerateKey(PrefixPipelineRun, "def"), "second", time.Minute)
	c.Set(ctx, GenerateKey(PrefixLatestRun, "latest"), "latest", 0)

	v, ok := c.Get(ctx, "pipeline_run:v1::abc")
	require.True(t, ok)
	assert.Equal(t, "first", v)

	c.Delete(ctx, GenerateKey(PrefixPipelineRun, "abc"))
	_, ok = c.Get(ctx, GenerateKey(PrefixPipelineRun, "abc"))
	assert.False(t, ok)

	c.DeleteByPrefix(ctx, PrefixPipelineRun)
	_, ok = c.Get(ctx, GenerateKey(PrefixPipelineRun, "def"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixLatestRun, "latest"))
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, GenerateKey(PrefixLatestRun, "latest"))
	assert.False(t, ok)
}

func TestInMemoryCache_Disabled(t *testing.T) {
	ctx := context.Background()
	c := newCache(false)

	c.Set(ctx, "key", "value", 0)
	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestInMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := newCache(true)

	c.Set(ctx, "short", "value", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestFingerprint(t *testing.T) {
	type payload struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}

	a, err := Fingerprint(payload{Name: "x", Items: []string{"1", "2"}})
	require.NoError(t, err)
	b, err := Fingerprint(payload{Name: "x", Items: []string{"1", "2"}})
	require.NoError(t, err)
	c, err := Fingerprint(payload{Name: "x", Items: []string{"2", "1"}})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = Fingerprint(make(chan int))
	assert.Error(t, err)
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "pipeline_run:v1::", keyPrefix(GenerateKey(PrefixPipelineRun, "abc123")))
	assert.Equal(t, "plain", keyPrefix("plain"))
}
