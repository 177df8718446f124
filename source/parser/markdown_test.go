package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParser_Frontmatter(t *testing.T) {
	content := []byte(`---
title: Network upgrade proposal
supplier: Acme Networks
---

# Proposal

We will deliver the upgrade in three phases.
`)

	doc, err := NewMarkdownParser().Parse("proposal.md", content)
	require.NoError(t, err)

	require.NotNil(t, doc.Frontmatter)
	assert.Equal(t, "Network upgrade proposal", doc.Frontmatter["title"])
	assert.Equal(t, "Acme Networks", doc.Frontmatter["supplier"])

	assert.Contains(t, doc.Text, "# Proposal")
	assert.NotContains(t, doc.Text, "supplier:")
	assert.Equal(t, "proposal.md", doc.Filename)
	assert.NotEmpty(t, doc.ID)
}

func TestMarkdownParser_NoFrontmatter(t *testing.T) {
	content := []byte("# Plain document\n\nNo metadata here.\n")

	doc, err := NewMarkdownParser().Parse("plain.md", content)
	require.NoError(t, err)

	assert.Nil(t, doc.Frontmatter)
	assert.Equal(t, string(content), doc.Text)
}

func TestMarkdownParser_UnclosedFrontmatterDegradesToBody(t *testing.T) {
	content := []byte("---\ntitle: broken\n\nbody without closing delimiter\n")

	doc, err := NewMarkdownParser().Parse("broken.md", content)
	require.NoError(t, err)

	assert.Nil(t, doc.Frontmatter)
	assert.Equal(t, string(content), doc.Text)
}

func TestMarkdownParser_InvalidYAMLDegradesToBody(t *testing.T) {
	content := []byte("---\n[not: valid: yaml\n---\n\nbody\n")

	doc, err := NewMarkdownParser().Parse("invalid.md", content)
	require.NoError(t, err)

	assert.Nil(t, doc.Frontmatter)
	assert.Equal(t, string(content), doc.Text)
}

func TestMarkdownParser_CanParse(t *testing.T) {
	p := NewMarkdownParser()
	assert.True(t, p.CanParse("text/markdown"))
	assert.True(t, p.CanParse("text/x-markdown"))
	assert.False(t, p.CanParse("text/plain"))
}

func TestGenerateDocID_Stable(t *testing.T) {
	first, err := NewMarkdownParser().Parse("doc.md", []byte("same content"))
	require.NoError(t, err)
	second, err := NewMarkdownParser().Parse("doc.md", []byte("same content"))
	require.NoError(t, err)
	changed, err := NewMarkdownParser().Parse("doc.md", []byte("different content"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.ID, changed.ID)
}
