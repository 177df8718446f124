package embedding

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider wraps a provider and counts calls for cache assertions.
type countingProvider struct {
	inner Provider

	mu         sync.Mutex
	embeds     int
	batchTexts int
}

func (c *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.embeds++
	c.mu.Unlock()
	return c.inner.Embed(ctx, text)
}

func (c *countingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batchTexts += len(texts)
	c.mu.Unlock()
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingProvider) Dimensions() int { return c.inner.Dimensions() }
func (c *countingProvider) ID() string      { return c.inner.ID() }

func TestCache_EmbedHitAndMiss(t *testing.T) {
	counting := &countingProvider{inner: NewLexicalProvider(64)}
	cache := NewCache(counting, 10)
	ctx := context.Background()

	first, err := cache.Embed(ctx, "data retention policy")
	require.NoError(t, err)

	second, err := cache.Embed(ctx, "data retention policy")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counting.embeds)

	hits, misses := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCache_EmbedBatchComputesOnlyMisses(t *testing.T) {
	counting := &countingProvider{inner: NewLexicalProvider(64)}
	cache := NewCache(counting, 10)
	ctx := context.Background()

	_, err := cache.Embed(ctx, "alpha")
	require.NoError(t, err)

	vectors, err := cache.EmbedBatch(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	// Only beta and gamma needed computing.
	assert.Equal(t, 2, counting.batchTexts)

	direct, err := NewLexicalProvider(64).Embed(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, direct, vectors[1])
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	counting := &countingProvider{inner: NewLexicalProvider(32)}
	cache := NewCache(counting, 2)
	ctx := context.Background()

	_, err := cache.Embed(ctx, "one")
	require.NoError(t, err)
	_, err = cache.Embed(ctx, "two")
	require.NoError(t, err)

	// Touch "one" so "two" becomes the eviction candidate.
	_, err = cache.Embed(ctx, "one")
	require.NoError(t, err)

	_, err = cache.Embed(ctx, "three")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	// "two" was evicted and must be recomputed.
	before := counting.embeds
	_, err = cache.Embed(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, before+1, counting.embeds)
}

func TestCache_BoundedUnderChurn(t *testing.T) {
	cache := NewCache(NewLexicalProvider(16), 8)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := cache.Embed(ctx, fmt.Sprintf("text-%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 8, cache.Len())
}

func TestCache_PassesThroughIdentity(t *testing.T) {
	provider := NewLexicalProvider(128)
	cache := NewCache(provider, 0)

	assert.Equal(t, provider.ID(), cache.ID())
	assert.Equal(t, 128, cache.Dimensions())
}
