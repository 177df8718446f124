package embedding

import (
	"container/list"
	"context"
	"sync"

	"github.com/minio/highwayhash"
)

// cacheHashKey seeds cache key hashing. Fixed so keys are stable across runs.
var cacheHashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// DefaultCacheCapacity bounds the cache when no capacity is configured.
const DefaultCacheCapacity = 4096

// cacheKey identifies a cached vector by content hash and provider identity.
type cacheKey struct {
	textHash uint64
	provider string
}

// Cache is a bounded LRU cache in front of an embedding provider. Entries
// are keyed by (text hash, provider identity); writes are idempotent since
// a given provider embeds the same text to the same vector. Once written,
// an entry is owned by the cache; callers read through it and must not
// mutate returned vectors.
type Cache struct {
	provider Provider
	capacity int

	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	order   *list.List // front = most recently used

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key    cacheKey
	vector []float32
}

// NewCache wraps provider with a bounded LRU cache. A capacity <= 0 uses
// DefaultCacheCapacity.
func NewCache(provider Provider, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		provider: provider,
		capacity: capacity,
		entries:  make(map[cacheKey]*list.Element),
		order:    list.New(),
	}
}

// Embed returns the cached vector for text or computes and caches it.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.keyFor(text)

	if vector, ok := c.lookup(key); ok {
		return vector, nil
	}

	vector, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(key, vector)
	return vector, nil
}

// EmbedBatch resolves each text through the cache, computing only the
// misses in a single provider call. Results are order-preserving.
func (c *Cache) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vector, ok := c.lookup(c.keyFor(text)); ok {
			vectors[i] = vector
		} else {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	computed, err := c.provider.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, idx := range missingIdx {
		vectors[idx] = computed[j]
		c.store(c.keyFor(texts[idx]), computed[j])
	}
	return vectors, nil
}

// Dimensions returns the underlying provider's dimensionality.
func (c *Cache) Dimensions() int {
	return c.provider.Dimensions()
}

// ID returns the underlying provider's identity.
func (c *Cache) ID() string {
	return c.provider.ID()
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) keyFor(text string) cacheKey {
	return cacheKey{
		textHash: highwayhash.Sum64([]byte(text), cacheHashKey),
		provider: c.provider.ID(),
	}
}

func (c *Cache) lookup(key cacheKey) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits++
	return elem.Value.(*cacheEntry).vector, true
}

func (c *Cache) store(key cacheKey, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		// Idempotent write: same text and provider yield the same vector.
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, vector: vector})
	c.entries[key] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
