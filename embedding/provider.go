// Package embedding provides text embedding providers for relevance
// filtering, with a deterministic degraded fallback and a bounded cache.
package embedding

import "context"

// Provider computes fixed-length embedding vectors for text.
// EmbedBatch is order-preserving and one-to-one with its input.
// Implementations truncate over-long input silently and reproducibly
// rather than failing.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the fixed vector length this provider produces.
	Dimensions() int

	// ID identifies the provider and model for cache keying. Vectors from
	// providers with different IDs are never comparable.
	ID() string
}

// Truncate bounds text to at most limit runes. Truncation is deterministic:
// the same text always truncates to the same prefix.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
