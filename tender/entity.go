// Package tender defines the core entities of the compliance validation
// pipeline: tenders, their extracted requirements, comparison verdicts from
// the judge, and the validation results appended across runs.
package tender

import (
	"time"

	"github.com/google/uuid"
)

// RequirementType classifies how binding an extracted requirement is.
type RequirementType string

const (
	RequirementMandatory RequirementType = "MANDATORY"
	RequirementOptional  RequirementType = "OPTIONAL"
	RequirementUnknown   RequirementType = "UNKNOWN"
)

// Requirement is a discrete obligation extracted from a tender document.
// Requirements are immutable once extracted; they are owned by the Tender.
type Requirement struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Type       RequirementType `json:"type"`
	Keywords   []string        `json:"keywords,omitempty"`
	Confidence float64         `json:"confidence"`
}

// Tender aggregates a tender document's extracted requirements and the
// validation results accumulated across analysis runs.
type Tender struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Requirements []Requirement      `json:"requirements"`
	Results      []ValidationResult `json:"results,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewTender creates a tender with a generated ID.
func NewTender(title string) *Tender {
	now := time.Now()
	return &Tender{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RequirementByID returns the requirement with the given ID, or nil.
func (t *Tender) RequirementByID(id string) *Requirement {
	for i := range t.Requirements {
		if t.Requirements[i].ID == id {
			return &t.Requirements[i]
		}
	}
	return nil
}

// AppendResults appends validation results to the tender's history.
// Prior results are never discarded or overwritten.
func (t *Tender) AppendResults(results []ValidationResult) {
	t.Results = append(t.Results, results...)
	t.UpdatedAt = time.Now()
}

// VerdictStatus is the judge's per-requirement compliance decision.
type VerdictStatus string

const (
	VerdictCompliant    VerdictStatus = "COMPLIANT"
	VerdictNonCompliant VerdictStatus = "NON_COMPLIANT"
	VerdictPartial      VerdictStatus = "PARTIAL"
)

// IsValid checks if a verdict status is one of the known values.
func (s VerdictStatus) IsValid() bool {
	switch s {
	case VerdictCompliant, VerdictNonCompliant, VerdictPartial:
		return true
	}
	return false
}

// ComparisonVerdict is the judge's decision for a single requirement.
type ComparisonVerdict struct {
	RequirementID string        `json:"requirement_id"`
	Status        VerdictStatus `json:"status"`
	Score         int           `json:"score"`
	Reasoning     string        `json:"reasoning"`
	SourceQuote   string        `json:"source_quote,omitempty"`

	// Degraded marks verdicts synthesized without judge evaluation
	// (batch failure or silently dropped requirement).
	Degraded bool `json:"degraded,omitempty"`
}

// ResultStatus is the final validation outcome for a requirement.
type ResultStatus string

const (
	StatusMet          ResultStatus = "MET"
	StatusNotMet       ResultStatus = "NOT_MET"
	StatusPartiallyMet ResultStatus = "PARTIALLY_MET"
	StatusAmbiguous    ResultStatus = "AMBIGUOUS"
)

// Sentinel requirement IDs used by whole-tender rules. They never collide
// with extracted requirement IDs, which are UUIDs or "r<n>" identifiers.
const (
	ScopeCheckID        = "SCOPE_CHECK"
	MandatoryCoverageID = "MANDATORY_COVERAGE"
)

// Evidence is a supporting proposal excerpt attached to a result.
type Evidence struct {
	Text       string `json:"text"`
	PageNumber int    `json:"page_number,omitempty"`
}

// LegalCitation is a read-only reference to supporting legal text.
type LegalCitation struct {
	ID        string  `json:"id"`
	Article   string  `json:"article"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
	Source    string  `json:"source,omitempty"`
}

// ValidationResult is a single validation finding. Its RequirementID is
// either a real requirement ID or a sentinel for whole-tender rules.
type ValidationResult struct {
	RequirementID  string          `json:"requirement_id"`
	Status         ResultStatus    `json:"status"`
	Reasoning      string          `json:"reasoning"`
	Confidence     float64         `json:"confidence"`
	Evidence       *Evidence       `json:"evidence,omitempty"`
	LegalCitations []LegalCitation `json:"legal_citations,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ResultFromVerdict maps a judge verdict to a validation result.
func ResultFromVerdict(v ComparisonVerdict) ValidationResult {
	var status ResultStatus
	switch v.Status {
	case VerdictCompliant:
		status = StatusMet
	case VerdictPartial:
		status = StatusPartiallyMet
	default:
		status = StatusNotMet
	}

	result := ValidationResult{
		RequirementID: v.RequirementID,
		Status:        status,
		Reasoning:     v.Reasoning,
		Confidence:    float64(v.Score) / 100.0,
		CreatedAt:     time.Now(),
	}
	if v.SourceQuote != "" {
		result.Evidence = &Evidence{Text: v.SourceQuote}
	}
	return result
}
