// Package rules runs deterministic policy checks against a tender and
// proposal, independently of the judge model. Rules are stateless and
// order-independent; the engine collects their findings without
// short-circuiting.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/tendercheck/tender"
)

// Context is the read-only input every rule evaluates against.
type Context struct {
	Tender       *tender.Tender
	ProposalText string
}

// Rule is a single deterministic policy check. A nil result with a nil
// error is a silent pass. Findings use the rule's ID as their requirement
// ID, so rules that evaluate the tender as a whole use sentinel IDs that
// never collide with extracted requirement IDs.
type Rule interface {
	// ID returns the requirement ID findings are attributed to.
	ID() string

	// Validate evaluates the rule against the context.
	Validate(ctx context.Context, rc *Context) (*tender.ValidationResult, error)
}

// Engine runs a list of rules in order and concatenates their findings.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// NewEngine creates an engine with the given rules.
func NewEngine(rules []Rule, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: rules, logger: logger}
}

// Register appends a rule to the engine's list.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Run evaluates every rule against the context, in registration order. It
// never short-circuits: a rule error becomes an AMBIGUOUS finding for that
// rule and evaluation continues. Zero rules yield an empty result set.
func (e *Engine) Run(ctx context.Context, rc *Context) []tender.ValidationResult {
	results := make([]tender.ValidationResult, 0, len(e.rules))

	for _, rule := range e.rules {
		result, err := rule.Validate(ctx, rc)
		if err != nil {
			e.logger.Warn("Rule failed, recording ambiguous finding",
				"rule", rule.ID(),
				"error", err)
			results = append(results, tender.ValidationResult{
				RequirementID: rule.ID(),
				Status:        tender.StatusAmbiguous,
				Reasoning:     fmt.Sprintf("rule evaluation failed: %v", err),
				Confidence:    0,
				CreatedAt:     time.Now(),
			})
			continue
		}
		if result == nil {
			continue
		}
		results = append(results, *result)
	}

	return results
}
