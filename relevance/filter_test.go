package relevance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tendercheck/tender"
)

// stubEmbedder returns canned vectors keyed by text.
type stubEmbedder struct {
	vectors map[string][]float32
	dims    int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, s.dims), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }
func (s *stubEmbedder) ID() string      { return "stub:test" }

func TestFilterRelevant_SelectsAboveThreshold(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float32{
			"Must support SSO":       {1, 0},
			"Provide gardening tips": {0, 1},
			"proposal about SSO":     {0.95, 0.05},
		},
	}
	filter := New(embedder, 0.5, 10)

	requirements := []tender.Requirement{
		{ID: "r1", Text: "Must support SSO"},
		{ID: "r2", Text: "Provide gardening tips"},
	}

	matches, err := filter.FilterRelevant(context.Background(), requirements, "proposal about SSO")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "r1", matches[0].RequirementID)
	assert.Greater(t, matches[0].Similarity, 0.5)
}

func TestFilterRelevant_FallbackToAllWhenNothingMatches(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float32{
			"req one": {1, 0},
			"req two": {1, 0},
		},
	}
	// The proposal text embeds to a zero vector, so every similarity is 0.
	filter := New(embedder, 0.5, 10)

	requirements := []tender.Requirement{
		{ID: "r1", Text: "req one"},
		{ID: "r2", Text: "req two"},
	}

	matches, err := filter.FilterRelevant(context.Background(), requirements, "totally unrelated proposal")
	require.NoError(t, err)

	// Fallback: all requirements come back rather than none.
	require.Len(t, matches, 2)
	assert.Equal(t, "r1", matches[0].RequirementID)
	assert.Equal(t, "r2", matches[1].RequirementID)
	assert.Zero(t, matches[0].Similarity)
}

func TestFilterRelevant_LimitCapsSelection(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float32{
			"a": {1, 0}, "b": {0.9, 0.1}, "c": {0.8, 0.2},
			"q": {1, 0},
		},
	}
	filter := New(embedder, 0.1, 2)

	requirements := []tender.Requirement{
		{ID: "r1", Text: "a"},
		{ID: "r2", Text: "b"},
		{ID: "r3", Text: "c"},
	}

	matches, err := filter.FilterRelevant(context.Background(), requirements, "q")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestFilterRelevant_NoRequirements(t *testing.T) {
	filter := New(&stubEmbedder{dims: 2}, 0.5, 10)

	matches, err := filter.FilterRelevant(context.Background(), nil, "some proposal")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
