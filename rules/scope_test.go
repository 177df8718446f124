package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tendercheck/tender"
)

func scopeContext(title string, reqTexts ...string) *Context {
	t := &tender.Tender{ID: "t1", Title: title}
	for i, text := range reqTexts {
		t.Requirements = append(t.Requirements, tender.Requirement{
			ID:   ids(i),
			Text: text,
		})
	}
	return &Context{Tender: t}
}

func ids(i int) string {
	return string(rune('a' + i))
}

func TestScopeRule_InclusionMatch(t *testing.T) {
	rule := NewScopeRule([]string{"software", "cloud"}, []string{"construction"})

	result, err := rule.Validate(context.Background(), scopeContext("Cloud hosting services tender"))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, tender.ScopeCheckID, result.RequirementID)
	assert.Equal(t, tender.StatusMet, result.Status)
}

func TestScopeRule_ExclusionBeatsInclusion(t *testing.T) {
	rule := NewScopeRule([]string{"software"}, []string{"construction"})

	result, err := rule.Validate(context.Background(),
		scopeContext("Software for construction site management"))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, tender.StatusNotMet, result.Status)
	assert.Contains(t, result.Reasoning, "construction")
}

func TestScopeRule_NoMatchIsAmbiguous(t *testing.T) {
	rule := NewScopeRule([]string{"software"}, []string{"construction"})

	result, err := rule.Validate(context.Background(), scopeContext("Catering framework agreement"))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, tender.StatusAmbiguous, result.Status)
}

func TestScopeRule_MatchesRequirementText(t *testing.T) {
	rule := NewScopeRule([]string{"kubernetes"}, nil)

	result, err := rule.Validate(context.Background(),
		scopeContext("Platform tender", "Must run on Kubernetes clusters"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tender.StatusMet, result.Status)
}

func TestScopeRule_CaseInsensitive(t *testing.T) {
	rule := NewScopeRule([]string{"SOFTWARE"}, nil)

	result, err := rule.Validate(context.Background(), scopeContext("software development"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tender.StatusMet, result.Status)
}

func TestMandatoryCoverageRule_PassesWithMandatory(t *testing.T) {
	rule := NewMandatoryCoverageRule()

	rc := &Context{Tender: &tender.Tender{
		ID: "t1",
		Requirements: []tender.Requirement{
			{ID: "r1", Text: "must do x", Type: tender.RequirementMandatory},
			{ID: "r2", Text: "may do y", Type: tender.RequirementOptional},
		},
	}}

	result, err := rule.Validate(context.Background(), rc)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMandatoryCoverageRule_FlagsNoMandatory(t *testing.T) {
	rule := NewMandatoryCoverageRule()

	rc := &Context{Tender: &tender.Tender{
		ID: "t1",
		Requirements: []tender.Requirement{
			{ID: "r1", Text: "may do y", Type: tender.RequirementOptional},
			{ID: "r2", Text: "unclassified", Type: tender.RequirementUnknown},
		},
	}}

	result, err := rule.Validate(context.Background(), rc)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, tender.MandatoryCoverageID, result.RequirementID)
	assert.Equal(t, tender.StatusAmbiguous, result.Status)
}
