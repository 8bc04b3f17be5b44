package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/x-rst",
		"text/x-asciidoc",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalise keeps the text as written. Line endings become \n and trailing
// whitespace is trimmed, so lines holding only spaces still separate
// paragraphs.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := lineEndings.Replace(strings.TrimPrefix(string(raw.Content), "\ufeff"))
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\f\v")
	}

	return &driven.NormaliseResult{
		Title:   normalisers.TitleFromURI(raw.URI),
		Content: strings.Join(lines, "\n"),
	}, nil
}
