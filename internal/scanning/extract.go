package scanning

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blankLinesPattern = regexp.MustCompile(`\n\s*\n`)
	spacesPattern     = regexp.MustCompile(`[ \t]+`)
)

// skippedElements never contribute visible text
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Head:     true,
}

// blockElements end a line of extracted text
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Tr: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Section: true,
}

// TextExtractor pulls plain text out of non-multimodal documents such as
// booking confirmation e-mails saved as HTML.
type TextExtractor struct{}

// NewTextExtractor creates a new TextExtractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractText returns the visible text of a document
func (e *TextExtractor) ExtractText(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	switch {
	case ext == ".html" || ext == ".htm" || strings.HasPrefix(mimeType, "text/html"):
		extracted, err := extractHTML(data)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrExtraction, filename, err)
		}
		text = extracted
	case ext == ".txt" || ext == ".eml" || strings.HasPrefix(mimeType, "text/"):
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrExtraction, filename)
		}
		text = strings.TrimSpace(string(data))
	default:
		return "", fmt.Errorf("%w: %s: %w: %s", ErrExtraction, filename, ErrUnsupportedContent, contentType)
	}

	if text == "" {
		return "", fmt.Errorf("%w: %s has no text", ErrExtraction, filename)
	}
	return text, nil
}

// extractHTML walks the document tree and keeps only visible text
func extractHTML(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	text := spacesPattern.ReplaceAllString(b.String(), " ")
	text = blankLinesPattern.ReplaceAllString(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
