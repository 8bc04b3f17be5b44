package driven

import (
	"context"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// Normaliser transforms raw file bytes into plain text.
// Each normaliser handles specific MIME types (e.g., Markdown, DOCX).
// Paragraph boundaries must survive as blank lines.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Generic MIME normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts title and text from a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Paragraph splitting is handled by the loader.
type NormaliseResult struct {
	Title   string
	Content string
}

// DocumentLoader loads a document from disk into ordered paragraphs.
type DocumentLoader interface {
	// Load returns the document at path. Failures wrap domain.ErrDocumentLoad.
	Load(ctx context.Context, path string) (*domain.Document, error)
}

// NormaliserRegistry selects the appropriate normaliser for a document.
// It maintains a priority-ordered list of normalisers and dispatches
// based on MIME type.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the best matching normaliser.
	// Unknown MIME types fail with domain.ErrUnsupportedType.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
