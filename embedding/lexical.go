package embedding

import (
	"context"
	"strings"

	"github.com/minio/highwayhash"
)

// lexicalHashKey seeds the token hashing. It is fixed so that the same text
// always produces the same vector across processes and runs.
var lexicalHashKey = []byte("tendercheck-lexical-embedder-key")

// LexicalProvider is a deterministic, offline embedding provider built from
// hashed token frequencies. It is a degraded stand-in for a real embedding
// model: vectors capture lexical overlap only, not semantics. It exists so
// that downstream similarity math keeps working when the configured
// provider is unavailable.
type LexicalProvider struct {
	dimensions int
	inputLimit int
}

// NewLexicalProvider creates a lexical-hash provider of the given
// dimensionality, matching the real provider it substitutes for.
func NewLexicalProvider(dimensions int) *LexicalProvider {
	return &LexicalProvider{
		dimensions: dimensions,
		inputLimit: defaultInputLimit,
	}
}

// Embed computes a hashed bag-of-words vector for the text.
func (p *LexicalProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, p.dimensions)

	tokens := tokenize(Truncate(text, p.inputLimit))
	for _, token := range tokens {
		h := highwayhash.Sum64([]byte(token), lexicalHashKey)
		vector[int(h%uint64(p.dimensions))]++
	}
	return vector, nil
}

// EmbedBatch computes vectors for all texts, order-preserving.
func (p *LexicalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Dimensions returns the configured vector dimensionality.
func (p *LexicalProvider) Dimensions() int {
	return p.dimensions
}

// ID identifies this provider for cache keying when it is the configured
// provider. Behind a Fallback, degraded vectors cache under the primary's
// identity instead; see Fallback.ID.
func (p *LexicalProvider) ID() string {
	return "lexical:v1"
}

// tokenize lowercases and splits text on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		return !isLower && !isDigit
	})
}
