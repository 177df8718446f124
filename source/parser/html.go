package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"

	"github.com/c360studio/tendercheck/source"
)

// HTMLParser extracts the main article content from HTML documents and
// converts it to markdown text. Readability extraction strips navigation,
// boilerplate, and scripts; if it fails, the whole document is converted.
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser.
func NewHTMLParser() *HTMLParser {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLParser{converter: converter}
}

// Parse extracts readable text from an HTML document.
func (p *HTMLParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := &source.Document{
		ID:       source.GenerateDocID(filename, content),
		Filename: filepath.Base(filename),
	}

	pageURL := &url.URL{Scheme: "file", Path: filename}
	article, err := readability.FromReader(bytes.NewReader(content), pageURL)

	var htmlBody string
	if err == nil && article.Content != "" {
		htmlBody = article.Content
	} else {
		htmlBody = string(content)
	}

	markdown, err := p.converter.ConvertString(htmlBody)
	if err != nil {
		return nil, fmt.Errorf("convert HTML: %w", err)
	}

	doc.Text = strings.TrimSpace(markdown)
	return doc, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *HTMLParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this parser.
func (p *HTMLParser) MimeType() string {
	return "text/html"
}
