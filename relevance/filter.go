// Package relevance selects which requirements are worth sending to the
// judge for a given proposal, using embedding similarity. Filtering is an
// optimization only: when it yields nothing, every requirement is treated
// as relevant so a validation run never silently checks zero requirements.
package relevance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/tendercheck/embedding"
	"github.com/c360studio/tendercheck/similarity"
	"github.com/c360studio/tendercheck/tender"
)

// Match pairs a requirement ID with its similarity to the proposal.
type Match struct {
	RequirementID string
	Similarity    float64
}

// Filter ranks requirements by embedding similarity to the proposal text.
type Filter struct {
	embedder  embedding.Provider
	threshold float64
	limit     int
	logger    *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		f.logger = logger
	}
}

// New creates a relevance filter. The embedder is typically an
// *embedding.Cache so requirement vectors are computed once and shared
// across concurrent validations.
func New(embedder embedding.Provider, threshold float64, limit int, opts ...Option) *Filter {
	f := &Filter{
		embedder:  embedder,
		threshold: threshold,
		limit:     limit,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// proposalSampleLimit bounds how much proposal text is embedded as the
// query. The opening of a proposal is its most representative part.
const proposalSampleLimit = 4000

// FilterRelevant returns the requirements relevant to the proposal, ranked
// by similarity. If filtering yields an empty set (threshold too high,
// degenerate vectors), all requirements are returned with zero similarity
// so the caller still validates everything.
func (f *Filter) FilterRelevant(ctx context.Context, requirements []tender.Requirement, proposalText string) ([]Match, error) {
	if len(requirements) == 0 {
		return nil, nil
	}

	texts := make([]string, len(requirements))
	for i, req := range requirements {
		texts[i] = req.Text
	}

	vectors, err := f.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed requirements: %w", err)
	}

	query, err := f.embedder.Embed(ctx, embedding.Truncate(proposalText, proposalSampleLimit))
	if err != nil {
		return nil, fmt.Errorf("embed proposal: %w", err)
	}

	candidates := make([]similarity.Candidate, len(requirements))
	for i, req := range requirements {
		candidates[i] = similarity.Candidate{ID: req.ID, Vector: vectors[i]}
	}

	ranked := similarity.FindSimilar(query, candidates, f.threshold, f.limit)
	if len(ranked) == 0 {
		f.logger.Info("Relevance filter selected nothing, falling back to all requirements",
			"requirements", len(requirements),
			"threshold", f.threshold)
		all := make([]Match, len(requirements))
		for i, req := range requirements {
			all[i] = Match{RequirementID: req.ID}
		}
		return all, nil
	}

	matches := make([]Match, len(ranked))
	for i, m := range ranked {
		matches[i] = Match{RequirementID: m.ID, Similarity: m.Similarity}
	}

	f.logger.Debug("Relevance filter selected requirements",
		"selected", len(matches),
		"total", len(requirements))
	return matches, nil
}
