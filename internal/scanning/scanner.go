package scanning

import (
	"context"
	"errors"
)

var (
	// ErrExtraction is returned when text cannot be pulled out of a document
	ErrExtraction = errors.New("extraction failed")
	// ErrParseFailure marks a transient parser failure (rate limited, unavailable)
	ErrParseFailure = errors.New("parse failed")
	// ErrParseUnavailable marks a permanent parser failure (malformed response)
	ErrParseUnavailable = errors.New("parse unavailable")
	// ErrUnsupportedContent is returned for content types a component cannot handle
	ErrUnsupportedContent = errors.New("unsupported content type")
)

// Document is the input handed to a Parser. Exactly one of Text or Base64 is set.
type Document struct {
	Text     string
	Base64   string
	MIMEType string
}

// IsMultimodal reports whether the document carries encoded file bytes instead of text
func (d Document) IsMultimodal() bool {
	return d.Base64 != ""
}

// Parser defines the interface for AI document parsing
type Parser interface {
	// Parse analyzes a travel document and returns a structured record
	Parse(ctx context.Context, doc Document) (*ParsedRecord, error)
	// Close closes the parser and releases resources
	Close() error
}
