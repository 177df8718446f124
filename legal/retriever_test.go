package legal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tendercheck/embedding"
)

func writeCorpusFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

const procurementCorpus = `source: procurement-directive
articles:
  - id: pd-18
    article: "Article 18"
    text: "Contracting authorities shall treat economic operators equally and without discrimination in public procurement."
  - id: pd-57
    article: "Article 57"
    text: "Candidates convicted of fraud shall be excluded from participation in a procurement procedure."
`

func TestRetriever_LoadAndSearch(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "procurement.yaml", procurementCorpus)

	retriever := New(embedding.NewLexicalProvider(256), 0.01, 3)
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))
	assert.Equal(t, 2, retriever.Size())

	citations, err := retriever.Search(context.Background(), "exclusion of candidates convicted of fraud from procurement")
	require.NoError(t, err)
	require.NotEmpty(t, citations)

	assert.Equal(t, "pd-57", citations[0].ID)
	assert.Equal(t, "procurement-directive", citations[0].Source)
	assert.Greater(t, citations[0].Relevance, 0.0)
}

func TestRetriever_MaxCitationsCap(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "procurement.yaml", procurementCorpus)

	retriever := New(embedding.NewLexicalProvider(256), 0, 1)
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))

	citations, err := retriever.Search(context.Background(), "procurement procedure participation")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(citations), 1)
}

func TestRetriever_MissingDirectoryIsNotAnError(t *testing.T) {
	retriever := New(embedding.NewLexicalProvider(64), 0.5, 3)
	require.NoError(t, retriever.LoadCorpus(context.Background(), "/nonexistent/corpus"))
	assert.Zero(t, retriever.Size())

	citations, err := retriever.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, citations)
}

func TestRetriever_EmptyIndexSearch(t *testing.T) {
	retriever := New(embedding.NewLexicalProvider(64), 0.5, 3)

	citations, err := retriever.Search(context.Background(), "equal treatment")
	require.NoError(t, err)
	assert.Empty(t, citations)
}

func TestRetriever_SkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "good.yaml", procurementCorpus)
	writeCorpusFile(t, dir, "broken.yaml", "articles: [not: valid: yaml: {{{")

	retriever := New(embedding.NewLexicalProvider(256), 0, 5)
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))
	assert.Equal(t, 2, retriever.Size())
}

func TestRetriever_NestedCorpusDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "eu")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeCorpusFile(t, sub, "procurement.yml", procurementCorpus)

	retriever := New(embedding.NewLexicalProvider(256), 0, 5)
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))
	assert.Equal(t, 2, retriever.Size())
}

func TestRetriever_ReloadReplacesIndex(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "procurement.yaml", procurementCorpus)

	retriever := New(embedding.NewLexicalProvider(256), 0, 5)
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))
	require.Equal(t, 2, retriever.Size())

	require.NoError(t, os.Remove(filepath.Join(dir, "procurement.yaml")))
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))
	assert.Zero(t, retriever.Size())
}
