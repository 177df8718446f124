package compare

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/tendercheck/llm"
	"github.com/c360studio/tendercheck/tender"
)

// verdictResponse is the strict schema the judge must produce. Anything
// that does not unmarshal into this shape, or fails validation, is treated
// as a failed call for the whole batch — the parser never goes hunting for
// verdict-shaped structures in arbitrary JSON.
type verdictResponse struct {
	Verdicts []verdictEntry `json:"verdicts"`
}

type verdictEntry struct {
	RequirementID string `json:"requirement_id"`
	Status        string `json:"status"`
	Score         int    `json:"score"`
	Reasoning     string `json:"reasoning"`
	SourceQuote   string `json:"source_quote"`
}

// parseVerdicts extracts and validates judge verdicts from raw LLM output.
// Only entries whose requirement_id is in wanted are kept; unknown IDs are
// dropped. Entries for requirements the judge omitted are NOT synthesized
// here — the batcher fills those in with degraded defaults.
func parseVerdicts(content string, wanted map[string]bool) (map[string]tender.ComparisonVerdict, error) {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in judge response")
	}

	var resp verdictResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("parse verdict JSON: %w", err)
	}
	if len(resp.Verdicts) == 0 {
		return nil, fmt.Errorf("judge response contains no verdicts")
	}

	verdicts := make(map[string]tender.ComparisonVerdict, len(resp.Verdicts))
	for _, entry := range resp.Verdicts {
		if !wanted[entry.RequirementID] {
			continue
		}

		status := tender.VerdictStatus(entry.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("invalid verdict status %q for requirement %s", entry.Status, entry.RequirementID)
		}
		if entry.Score < 0 || entry.Score > 100 {
			return nil, fmt.Errorf("verdict score %d out of range for requirement %s", entry.Score, entry.RequirementID)
		}

		verdicts[entry.RequirementID] = tender.ComparisonVerdict{
			RequirementID: entry.RequirementID,
			Status:        status,
			Score:         entry.Score,
			Reasoning:     entry.Reasoning,
			SourceQuote:   entry.SourceQuote,
		}
	}

	if len(verdicts) == 0 {
		return nil, fmt.Errorf("judge response matched no requested requirement IDs")
	}
	return verdicts, nil
}
