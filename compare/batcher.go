// Package compare dispatches requirement batches to the judge model and
// turns its answers into per-requirement compliance verdicts. A judge
// failure never fails the pipeline: affected requirements get degraded
// verdicts according to the configured failure policy, and every verdict
// map returned contains exactly one entry per input requirement.
package compare

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/c360studio/tendercheck/config"
	"github.com/c360studio/tendercheck/embedding"
	"github.com/c360studio/tendercheck/llm"
	"github.com/c360studio/tendercheck/metrics"
	"github.com/c360studio/tendercheck/model"
	"github.com/c360studio/tendercheck/tender"
)

// degradedScore is the confidence assigned to verdicts synthesized without
// judge evaluation.
const degradedScore = 30

// degradedReasoning flags synthesized verdicts for manual review.
const degradedReasoning = "not processed by batch, requires manual review"

// CitationSearcher provides legal context for requirements. A nil searcher
// means no legal context is attached.
type CitationSearcher interface {
	Search(ctx context.Context, query string) ([]tender.LegalCitation, error)
}

// JudgeClient is the subset of the llm client the batcher needs.
type JudgeClient interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Batcher splits requirements into fixed-size batches and evaluates them
// against a proposal with bounded concurrency.
type Batcher struct {
	client      JudgeClient
	legal       CitationSearcher
	cfg         config.BatchConfig
	metrics     *metrics.Metrics
	logger      *slog.Logger
	temperature float64
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithCitations attaches a legal citation searcher.
func WithCitations(searcher CitationSearcher) BatcherOption {
	return func(b *Batcher) {
		b.legal = searcher
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) BatcherOption {
	return func(b *Batcher) {
		b.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BatcherOption {
	return func(b *Batcher) {
		b.logger = logger
	}
}

// WithTemperature sets the sampling temperature sent on judge calls.
// The default of 0 keeps verdicts deterministic.
func WithTemperature(t float64) BatcherOption {
	return func(b *Batcher) {
		b.temperature = t
	}
}

// NewBatcher creates a batcher using the given judge client and batch
// configuration.
func NewBatcher(client JudgeClient, cfg config.BatchConfig, opts ...BatcherOption) *Batcher {
	b := &Batcher{
		client: client,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compare evaluates every requirement against the proposal text and returns
// one verdict per requirement, keyed by requirement ID. Batches run
// concurrently up to the configured limit, each under its own timeout.
// Requirements whose batch failed, or which the judge dropped from its
// answer, receive degraded verdicts; Compare only returns an error when the
// surrounding context is cancelled.
func (b *Batcher) Compare(ctx context.Context, requirements []tender.Requirement, proposalText string) (map[string]tender.ComparisonVerdict, error) {
	if len(requirements) == 0 {
		return map[string]tender.ComparisonVerdict{}, nil
	}

	batches := partition(requirements, b.cfg.Size)

	budget := b.cfg.ProposalBudget
	if len(requirements) == 1 && b.cfg.SingleBudget > 0 {
		budget = b.cfg.SingleBudget
	}
	proposal := embedding.Truncate(proposalText, budget)

	var mu sync.Mutex
	verdicts := make(map[string]tender.ComparisonVerdict, len(requirements))

	sem := semaphore.NewWeighted(int64(b.cfg.Concurrency))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, batch := range batches {
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			result := b.evaluateBatch(groupCtx, i, batch, proposal)

			mu.Lock()
			for id, v := range result {
				verdicts[id] = v
			}
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// The judge may silently drop requirements even on a successful call.
	missing := 0
	for _, req := range requirements {
		if _, ok := verdicts[req.ID]; !ok {
			verdicts[req.ID] = b.degradedVerdict(req.ID)
			missing++
		}
	}
	if missing > 0 {
		b.metrics.RecordDegraded(missing)
		b.logger.Warn("Judge dropped requirements, filled with degraded verdicts",
			"missing", missing,
			"policy", b.cfg.OnJudgeFailure)
	}

	return verdicts, nil
}

// evaluateBatch runs one judge call for a batch of requirements. On any
// failure (transport, timeout, unparseable answer) it degrades the whole
// batch instead of erroring.
func (b *Batcher) evaluateBatch(ctx context.Context, index int, batch []tender.Requirement, proposal string) map[string]tender.ComparisonVerdict {
	callCtx := ctx
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	citations := b.searchCitations(callCtx, batch)

	wanted := make(map[string]bool, len(batch))
	for _, req := range batch {
		wanted[req.ID] = true
	}

	started := time.Now()
	resp, err := b.client.Complete(callCtx, llm.Request{
		Capability: string(model.CapabilityCompare),
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: comparisonPrompt(batch, proposal, citations)},
		},
		Temperature: &b.temperature,
	})
	if err != nil {
		b.logger.Warn("Judge batch failed, degrading",
			"batch", index,
			"requirements", len(batch),
			"elapsed", time.Since(started),
			"error", err)
		return b.degradeBatch(batch)
	}

	parsed, err := parseVerdicts(resp.Content, wanted)
	if err != nil {
		b.logger.Warn("Judge batch response unparseable, degrading",
			"batch", index,
			"request_id", resp.RequestID,
			"model", resp.Model,
			"error", err)
		return b.degradeBatch(batch)
	}

	b.metrics.RecordBatch("ok")
	b.logger.Debug("Judge batch complete",
		"batch", index,
		"requirements", len(batch),
		"verdicts", len(parsed),
		"model", resp.Model,
		"elapsed", time.Since(started))
	return parsed
}

// searchCitations gathers legal context per requirement. Citation lookup is
// best-effort: a failed search just means no context for that requirement.
func (b *Batcher) searchCitations(ctx context.Context, batch []tender.Requirement) map[string][]tender.LegalCitation {
	if b.legal == nil {
		return nil
	}

	citations := make(map[string][]tender.LegalCitation, len(batch))
	for _, req := range batch {
		found, err := b.legal.Search(ctx, req.Text)
		if err != nil {
			b.logger.Debug("Citation search failed", "requirement", req.ID, "error", err)
			continue
		}
		if len(found) > 0 {
			citations[req.ID] = found
		}
	}
	return citations
}

func (b *Batcher) degradeBatch(batch []tender.Requirement) map[string]tender.ComparisonVerdict {
	verdicts := make(map[string]tender.ComparisonVerdict, len(batch))
	for _, req := range batch {
		verdicts[req.ID] = b.degradedVerdict(req.ID)
	}
	b.metrics.RecordBatch("degraded")
	b.metrics.RecordDegraded(len(batch))
	return verdicts
}

// degradedVerdict synthesizes a verdict for a requirement the judge never
// evaluated, according to the failure policy.
func (b *Batcher) degradedVerdict(requirementID string) tender.ComparisonVerdict {
	status := tender.VerdictCompliant
	if b.cfg.OnJudgeFailure == config.FailClosed {
		status = tender.VerdictNonCompliant
	}
	return tender.ComparisonVerdict{
		RequirementID: requirementID,
		Status:        status,
		Score:         degradedScore,
		Reasoning:     degradedReasoning,
		Degraded:      true,
	}
}

// partition splits requirements into batches of at most size entries.
func partition(requirements []tender.Requirement, size int) [][]tender.Requirement {
	if size <= 0 {
		size = 1
	}
	batches := make([][]tender.Requirement, 0, (len(requirements)+size-1)/size)
	for start := 0; start < len(requirements); start += size {
		end := min(start+size, len(requirements))
		batches = append(batches, requirements[start:end])
	}
	return batches
}
