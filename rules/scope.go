package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/c360studio/tendercheck/tender"
)

// ScopeRule checks whether a tender falls inside the organization's bidding
// domain by matching keyword sets against the tender title and requirement
// text. Exclusion keywords take precedence over inclusion keywords; no
// keyword match at all yields an ambiguous finding rather than a failure.
type ScopeRule struct {
	include []string
	exclude []string
}

// NewScopeRule creates a scope eligibility rule. Keywords are matched
// case-insensitively as substrings.
func NewScopeRule(include, exclude []string) *ScopeRule {
	return &ScopeRule{
		include: lowerAll(include),
		exclude: lowerAll(exclude),
	}
}

// ID returns the sentinel requirement ID for scope findings.
func (r *ScopeRule) ID() string {
	return tender.ScopeCheckID
}

// Validate evaluates scope eligibility for the whole tender.
func (r *ScopeRule) Validate(_ context.Context, rc *Context) (*tender.ValidationResult, error) {
	text := scopeText(rc.Tender)

	if kw := firstMatch(text, r.exclude); kw != "" {
		return &tender.ValidationResult{
			RequirementID: tender.ScopeCheckID,
			Status:        tender.StatusNotMet,
			Reasoning:     fmt.Sprintf("tender matches exclusion keyword %q", kw),
			Confidence:    0.9,
			CreatedAt:     time.Now(),
		}, nil
	}

	if kw := firstMatch(text, r.include); kw != "" {
		return &tender.ValidationResult{
			RequirementID: tender.ScopeCheckID,
			Status:        tender.StatusMet,
			Reasoning:     fmt.Sprintf("tender matches inclusion keyword %q", kw),
			Confidence:    0.9,
			CreatedAt:     time.Now(),
		}, nil
	}

	return &tender.ValidationResult{
		RequirementID: tender.ScopeCheckID,
		Status:        tender.StatusAmbiguous,
		Reasoning:     "no scope keywords matched, manual scope review required",
		Confidence:    0.5,
		CreatedAt:     time.Now(),
	}, nil
}

// scopeText concatenates the searchable text of a tender.
func scopeText(t *tender.Tender) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(t.Title))
	for _, req := range t.Requirements {
		b.WriteString("\n")
		b.WriteString(strings.ToLower(req.Text))
	}
	return b.String()
}

// firstMatch returns the first keyword found in text, or "".
func firstMatch(text string, keywords []string) string {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

func lowerAll(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	return out
}
