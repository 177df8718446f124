package legal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tendercheck/embedding"
)

func startWatcher(t *testing.T, retriever *Retriever, dir string) {
	t.Helper()

	w := NewWatcher(retriever, dir, nil)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestWatcher_ReindexesOnCorpusChange(t *testing.T) {
	dir := t.TempDir()
	retriever := New(embedding.NewLexicalProvider(256), 0, 5)
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))
	require.Zero(t, retriever.Size())

	startWatcher(t, retriever, dir)

	writeCorpusFile(t, dir, "procurement.yaml", procurementCorpus)

	require.Eventually(t, func() bool { return retriever.Size() == 2 },
		5*time.Second, 25*time.Millisecond)
}

func TestWatcher_ReindexesOnCorpusRemoval(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "procurement.yaml", procurementCorpus)

	retriever := New(embedding.NewLexicalProvider(256), 0, 5)
	require.NoError(t, retriever.LoadCorpus(context.Background(), dir))
	require.Equal(t, 2, retriever.Size())

	startWatcher(t, retriever, dir)

	require.NoError(t, os.Remove(filepath.Join(dir, "procurement.yaml")))

	require.Eventually(t, func() bool { return retriever.Size() == 0 },
		5*time.Second, 25*time.Millisecond)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	retriever := New(embedding.NewLexicalProvider(64), 0, 3)
	w := NewWatcher(retriever, "/nonexistent/corpus", nil)

	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestIsCorpusFile(t *testing.T) {
	assert.True(t, isCorpusFile("corpus/procurement.yaml"))
	assert.True(t, isCorpusFile("corpus/procurement.YML"))
	assert.False(t, isCorpusFile("corpus/procurement.yaml.swp"))
	assert.False(t, isCorpusFile("corpus/README.md"))
}
