package compare

import (
	"fmt"
	"strings"

	"github.com/c360studio/tendercheck/tender"
)

// systemPrompt instructs the judge on its role and output contract.
const systemPrompt = `You are a tender compliance analyst. You compare requirements extracted from a tender document against a supplier's proposal and decide, per requirement, whether the proposal satisfies it.

Respond with ONLY a JSON object in this exact shape, no prose before or after:

{
  "verdicts": [
    {
      "requirement_id": "<id from the input>",
      "status": "COMPLIANT" | "NON_COMPLIANT" | "PARTIAL",
      "score": <integer 0-100, your confidence in the status>,
      "reasoning": "<one or two sentences explaining the decision>",
      "source_quote": "<the proposal excerpt supporting the decision, or empty>"
    }
  ]
}

Include exactly one verdict entry for every requirement in the input. Base every decision only on the proposal text provided.`

// comparisonPrompt builds the user message for a batch comparison call.
func comparisonPrompt(requirements []tender.Requirement, proposalText string, citations map[string][]tender.LegalCitation) string {
	var b strings.Builder

	b.WriteString("## Requirements\n\n")
	for _, req := range requirements {
		fmt.Fprintf(&b, "- id: %s\n  text: %s\n", req.ID, req.Text)
		if refs := citations[req.ID]; len(refs) > 0 {
			b.WriteString("  legal context:\n")
			for _, c := range refs {
				fmt.Fprintf(&b, "  - [%s] %s\n", c.Article, c.Text)
			}
		}
	}

	b.WriteString("\n## Proposal\n\n")
	b.WriteString(proposalText)
	b.WriteString("\n")

	return b.String()
}
