// Package validate orchestrates a full compliance validation run: load the
// tender, parse the proposal, filter relevant requirements, compare them
// against the proposal with the judge, run deterministic policy rules,
// merge both result sets, and persist them to the tender's history.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/tendercheck/config"
	"github.com/c360studio/tendercheck/metrics"
	"github.com/c360studio/tendercheck/relevance"
	"github.com/c360studio/tendercheck/rules"
	"github.com/c360studio/tendercheck/source/parser"
	"github.com/c360studio/tendercheck/tender"
)

// notRelevantReasoning marks requirements skipped by the relevance filter.
// Distinct from any judge reasoning so skipped requirements are never
// mistaken for genuine compliance failures.
const notRelevantReasoning = "deemed not relevant to proposal, not evaluated"

// RelevanceFilter selects the requirements worth judging for a proposal.
type RelevanceFilter interface {
	FilterRelevant(ctx context.Context, requirements []tender.Requirement, proposalText string) ([]relevance.Match, error)
}

// Comparator evaluates requirements against a proposal via the judge.
type Comparator interface {
	Compare(ctx context.Context, requirements []tender.Requirement, proposalText string) (map[string]tender.ComparisonVerdict, error)
}

// RuleRunner runs deterministic policy checks.
type RuleRunner interface {
	Run(ctx context.Context, rc *rules.Context) []tender.ValidationResult
}

// EventPublisher announces completed validation runs.
type EventPublisher interface {
	PublishValidationCompleted(ctx context.Context, tenderID string, results []tender.ValidationResult) error
}

// Validator is the validation use-case entry point.
type Validator struct {
	repo     tender.Repository
	parsers  *parser.Registry
	filter   RelevanceFilter
	comparer Comparator
	rules    RuleRunner
	events   EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithEvents attaches an event publisher.
func WithEvents(events EventPublisher) ValidatorOption {
	return func(v *Validator) {
		v.events = events
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) ValidatorOption {
	return func(v *Validator) {
		v.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a validator with its collaborators injected.
func NewValidator(
	repo tender.Repository,
	parsers *parser.Registry,
	filter RelevanceFilter,
	comparer Comparator,
	ruleRunner RuleRunner,
	opts ...ValidatorOption,
) *Validator {
	v := &Validator{
		repo:     repo,
		parsers:  parsers,
		filter:   filter,
		comparer: comparer,
		rules:    ruleRunner,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run validates the proposal file against the stored tender and persists
// the merged results. It returns the results of this run only; the
// tender's accumulated history is available through the repository.
//
// Returns tender.ErrNotFound for an unknown tender ID and
// tender.ErrEmptyProposal when the extracted proposal text is too short to
// validate. The short-proposal check happens before any embedding or judge
// call.
func (v *Validator) Run(ctx context.Context, tenderID, proposalFilename string, proposalContent []byte) ([]tender.ValidationResult, error) {
	started := time.Now()

	t, err := v.repo.FindByID(ctx, tenderID)
	if err != nil {
		return nil, fmt.Errorf("load tender %s: %w", tenderID, err)
	}

	doc, err := v.parsers.Parse(proposalFilename, proposalContent)
	if err != nil {
		return nil, fmt.Errorf("parse proposal: %w", err)
	}
	if len(doc.Text) < config.MinProposalLength {
		return nil, fmt.Errorf("proposal text too short (%d chars): %w", len(doc.Text), tender.ErrEmptyProposal)
	}

	v.logger.Info("Validation started",
		"tender", t.ID,
		"requirements", len(t.Requirements),
		"proposal", doc.Filename,
		"proposal_chars", len(doc.Text))

	matches, err := v.filter.FilterRelevant(ctx, t.Requirements, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("filter requirements: %w", err)
	}

	relevant, skipped := splitByRelevance(t.Requirements, matches)

	var verdicts map[string]tender.ComparisonVerdict
	var ruleResults []tender.ValidationResult

	// Judge comparison and rule evaluation are independent; a rule
	// finding never blocks or aborts comparison results.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var compareErr error
		verdicts, compareErr = v.comparer.Compare(groupCtx, relevant, doc.Text)
		return compareErr
	})
	group.Go(func() error {
		ruleResults = v.rules.Run(groupCtx, &rules.Context{
			Tender:       t,
			ProposalText: doc.Text,
		})
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("compare requirements: %w", err)
	}

	results := v.merge(relevant, skipped, verdicts, ruleResults)

	t.AppendResults(results)
	if err := v.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save tender: %w", err)
	}

	if v.events != nil {
		if err := v.events.PublishValidationCompleted(ctx, t.ID, results); err != nil {
			v.logger.Warn("Event publish failed", "tender", t.ID, "error", err)
		}
	}

	v.metrics.RecordValidation(time.Since(started).Seconds())
	v.logger.Info("Validation complete",
		"tender", t.ID,
		"results", len(results),
		"judged", len(relevant),
		"skipped", len(skipped),
		"elapsed", time.Since(started))

	return results, nil
}

// merge combines judge verdicts, skipped-requirement placeholders, and
// rule findings into one result set keyed by requirement ID. Sentinel rule
// IDs never collide with extracted requirement IDs.
func (v *Validator) merge(
	relevant, skipped []tender.Requirement,
	verdicts map[string]tender.ComparisonVerdict,
	ruleResults []tender.ValidationResult,
) []tender.ValidationResult {
	results := make([]tender.ValidationResult, 0, len(relevant)+len(skipped)+len(ruleResults))

	for _, req := range relevant {
		verdict, ok := verdicts[req.ID]
		if !ok {
			// The batcher guarantees N-in/N-out; this is a stub-comparator
			// escape hatch, not an expected path.
			v.logger.Warn("No verdict for requirement, marking ambiguous", "requirement", req.ID)
			results = append(results, tender.ValidationResult{
				RequirementID: req.ID,
				Status:        tender.StatusAmbiguous,
				Reasoning:     "no verdict returned for requirement",
				CreatedAt:     time.Now(),
			})
			continue
		}
		results = append(results, tender.ResultFromVerdict(verdict))
	}

	for _, req := range skipped {
		results = append(results, tender.ValidationResult{
			RequirementID: req.ID,
			Status:        tender.StatusNotMet,
			Reasoning:     notRelevantReasoning,
			Confidence:    0,
			CreatedAt:     time.Now(),
		})
	}

	results = append(results, ruleResults...)
	return results
}

// splitByRelevance partitions requirements into those selected by the
// filter and those it excluded, preserving tender order.
func splitByRelevance(requirements []tender.Requirement, matches []relevance.Match) (relevant, skipped []tender.Requirement) {
	selected := make(map[string]bool, len(matches))
	for _, m := range matches {
		selected[m.RequirementID] = true
	}

	for _, req := range requirements {
		if selected[req.ID] {
			relevant = append(relevant, req)
		} else {
			skipped = append(skipped, req)
		}
	}
	return relevant, skipped
}
