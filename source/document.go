// Package source defines the parsed document model shared by the proposal
// and tender parsers.
package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Document is a parsed input document. Text holds the extracted plain
// text used by the validation pipeline; Frontmatter carries structured
// metadata when the format supports it.
type Document struct {
	ID          string
	Filename    string
	Text        string
	Frontmatter map[string]any
}

// GenerateDocID creates a stable document ID from filename and content
// hash. Identical content under the same name always produces the same ID.
func GenerateDocID(filename string, content []byte) string {
	base := filepath.Base(filename)
	name := sanitizeID(strings.TrimSuffix(base, filepath.Ext(base)))

	hash := sha256.Sum256(content)
	shortHash := hex.EncodeToString(hash[:])[:12]

	return fmt.Sprintf("doc.%s.%s", name, shortHash)
}

// sanitizeID makes a string safe for use as an entity ID.
func sanitizeID(s string) string {
	var buf bytes.Buffer
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			buf.WriteRune(r)
		case r >= '0' && r <= '9':
			buf.WriteRune(r)
		case r == '-' || r == '_' || r == ' ':
			buf.WriteRune('-')
		}
	}
	return buf.String()
}
