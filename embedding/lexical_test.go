package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tendercheck/similarity"
)

func TestLexicalProvider_Deterministic(t *testing.T) {
	provider := NewLexicalProvider(128)
	ctx := context.Background()

	a, err := provider.Embed(ctx, "The supplier must provide SSO authentication.")
	require.NoError(t, err)
	b, err := provider.Embed(ctx, "The supplier must provide SSO authentication.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestLexicalProvider_LexicalOverlapRanksHigher(t *testing.T) {
	provider := NewLexicalProvider(256)
	ctx := context.Background()

	query, err := provider.Embed(ctx, "Must support SSO")
	require.NoError(t, err)
	related, err := provider.Embed(ctx, "We support SSO login for all users")
	require.NoError(t, err)
	unrelated, err := provider.Embed(ctx, "Quarterly gardening newsletter pricing")
	require.NoError(t, err)

	assert.Greater(t, similarity.Cosine(query, related), similarity.Cosine(query, unrelated))
}

func TestLexicalProvider_EmptyText(t *testing.T) {
	provider := NewLexicalProvider(64)

	vector, err := provider.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, vector, 64)
	for _, v := range vector {
		assert.Zero(t, v)
	}
}

func TestLexicalProvider_EmbedBatchOrderPreserving(t *testing.T) {
	provider := NewLexicalProvider(64)
	ctx := context.Background()

	texts := []string{"first requirement", "second requirement", "third requirement"}
	vectors, err := provider.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		direct, err := provider.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, direct, vectors[i])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"under limit", "short", 10, "short"},
		{"at limit", "exact", 5, "exact"},
		{"over limit", "truncated text", 9, "truncated"},
		{"no limit", "anything", 0, "anything"},
		{"multibyte runes", "héllo wörld", 5, "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, tt.limit))
		})
	}
}
