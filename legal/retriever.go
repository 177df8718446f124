// Package legal retrieves supporting legal and regulatory citations for
// requirement comparison context. The corpus is a directory of YAML files,
// offline-indexed with the same embedding and cosine-similarity mechanism
// used for relevance filtering. An empty or missing corpus is a valid
// state: Search returns no citations, which callers treat as "no additional
// legal context", never as an error.
package legal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/tendercheck/embedding"
	"github.com/c360studio/tendercheck/similarity"
	"github.com/c360studio/tendercheck/tender"
)

// corpusGlob matches corpus files under the corpus directory.
const corpusGlob = "**/*.{yaml,yml}"

// corpusFile is the on-disk YAML shape of a corpus file.
type corpusFile struct {
	Source   string `yaml:"source"`
	Articles []struct {
		ID      string `yaml:"id"`
		Article string `yaml:"article"`
		Text    string `yaml:"text"`
	} `yaml:"articles"`
}

// indexedCitation is a corpus entry with its embedding.
type indexedCitation struct {
	citation tender.LegalCitation
	vector   []float32
}

// Retriever searches the legal corpus for citations relevant to a query.
type Retriever struct {
	embedder     embedding.Provider
	minRelevance float64
	maxCitations int
	logger       *slog.Logger

	mu    sync.RWMutex
	index []indexedCitation
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// New creates a retriever with an empty index. Call LoadCorpus to populate
// it; an unpopulated retriever returns no citations from Search.
func New(embedder embedding.Provider, minRelevance float64, maxCitations int, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:     embedder,
		minRelevance: minRelevance,
		maxCitations: maxCitations,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadCorpus discovers corpus YAML files under dir, embeds every article,
// and atomically replaces the index. A missing directory clears the index
// and is not an error.
func (r *Retriever) LoadCorpus(ctx context.Context, dir string) error {
	if dir == "" {
		r.replaceIndex(nil)
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		r.logger.Warn("Legal corpus directory does not exist, citations disabled", "dir", dir)
		r.replaceIndex(nil)
		return nil
	}

	paths, err := doublestar.FilepathGlob(filepath.Join(dir, corpusGlob))
	if err != nil {
		return fmt.Errorf("glob corpus files: %w", err)
	}

	var citations []tender.LegalCitation
	for _, path := range paths {
		loaded, err := loadCorpusFile(path)
		if err != nil {
			// A malformed file degrades the corpus, it does not break retrieval.
			r.logger.Warn("Skipping malformed corpus file", "path", path, "error", err)
			continue
		}
		citations = append(citations, loaded...)
	}

	if len(citations) == 0 {
		r.replaceIndex(nil)
		r.logger.Info("Legal corpus is empty", "dir", dir)
		return nil
	}

	texts := make([]string, len(citations))
	for i, c := range citations {
		texts[i] = c.Article + "\n" + c.Text
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}

	index := make([]indexedCitation, len(citations))
	for i := range citations {
		index[i] = indexedCitation{citation: citations[i], vector: vectors[i]}
	}
	r.replaceIndex(index)

	r.logger.Info("Indexed legal corpus", "dir", dir, "citations", len(index))
	return nil
}

// Search returns the citations most relevant to the query, ranked by
// similarity, floored at the minimum relevance and capped at the maximum
// citation count. An empty index yields an empty, non-error result.
func (r *Retriever) Search(ctx context.Context, query string) ([]tender.LegalCitation, error) {
	r.mu.RLock()
	index := r.index
	r.mu.RUnlock()

	if len(index) == 0 {
		return nil, nil
	}

	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates := make([]similarity.Candidate, len(index))
	for i, entry := range index {
		candidates[i] = similarity.Candidate{ID: entry.citation.ID, Vector: entry.vector}
	}

	ranked := similarity.FindSimilar(queryVector, candidates, r.minRelevance, r.maxCitations)

	byID := make(map[string]tender.LegalCitation, len(index))
	for _, entry := range index {
		byID[entry.citation.ID] = entry.citation
	}

	results := make([]tender.LegalCitation, 0, len(ranked))
	for _, m := range ranked {
		citation := byID[m.ID]
		citation.Relevance = m.Similarity
		results = append(results, citation)
	}
	return results, nil
}

// Size returns the number of indexed citations.
func (r *Retriever) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

func (r *Retriever) replaceIndex(index []indexedCitation) {
	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
}

// loadCorpusFile parses one corpus YAML file into citations.
func loadCorpusFile(path string) ([]tender.LegalCitation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse corpus file: %w", err)
	}

	source := file.Source
	if source == "" {
		source = filepath.Base(path)
	}

	citations := make([]tender.LegalCitation, 0, len(file.Articles))
	for _, a := range file.Articles {
		if a.Text == "" {
			continue
		}
		id := a.ID
		if id == "" {
			id = fmt.Sprintf("%s#%s", source, a.Article)
		}
		citations = append(citations, tender.LegalCitation{
			ID:      id,
			Article: a.Article,
			Text:    a.Text,
			Source:  source,
		})
	}
	return citations, nil
}
