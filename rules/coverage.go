package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/c360studio/tendercheck/tender"
)

// MandatoryCoverageRule flags tenders whose extracted requirement set
// contains no MANDATORY entries. Extraction that finds only optional or
// unclassified requirements usually means the tender document was not
// parsed correctly, which would make a clean compliance report misleading.
type MandatoryCoverageRule struct{}

// NewMandatoryCoverageRule creates the coverage rule.
func NewMandatoryCoverageRule() *MandatoryCoverageRule {
	return &MandatoryCoverageRule{}
}

// ID returns the sentinel requirement ID for coverage findings.
func (r *MandatoryCoverageRule) ID() string {
	return tender.MandatoryCoverageID
}

// Validate passes silently when at least one mandatory requirement exists.
func (r *MandatoryCoverageRule) Validate(_ context.Context, rc *Context) (*tender.ValidationResult, error) {
	total := len(rc.Tender.Requirements)
	mandatory := 0
	for _, req := range rc.Tender.Requirements {
		if req.Type == tender.RequirementMandatory {
			mandatory++
		}
	}

	if mandatory > 0 {
		return nil, nil
	}

	return &tender.ValidationResult{
		RequirementID: tender.MandatoryCoverageID,
		Status:        tender.StatusAmbiguous,
		Reasoning:     fmt.Sprintf("no mandatory requirements among %d extracted, extraction may be incomplete", total),
		Confidence:    0.5,
		CreatedAt:     time.Now(),
	}, nil
}
