// Package chunker provides a fixed-size windowing processor for oversized paragraphs.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/postprocessors/paragraph"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits paragraphs longer than the chunk size into overlapping
// windows. Shorter paragraphs pass through unchanged apart from renumbering.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Version returns the windowing rule.
func (p *Processor) Version() string {
	return fmt.Sprintf("window-%d-%d", p.chunkSize, p.overlap)
}

// Process windows the incoming paragraphs. Ordinals are reassigned so the
// output is a contiguous sequence.
func (p *Processor) Process(ctx context.Context, _ string, paragraphs []domain.Paragraph) ([]domain.Paragraph, error) {
	if len(paragraphs) == 0 {
		return nil, nil
	}

	version := p.Version()
	out := make([]domain.Paragraph, 0, len(paragraphs))
	for _, para := range paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, window := range p.windows(para.Text) {
			out = append(out, paragraph.Anchor(version, len(out), window))
		}
	}
	return out, nil
}

// windows cuts text into rune windows of chunkSize, stepping by
// chunkSize-overlap. A cut prefers the last space in the window.
func (p *Processor) windows(text string) []string {
	runes := []rune(text)
	if len(runes) <= p.chunkSize {
		return []string{text}
	}

	var result []string
	start := 0
	for start < len(runes) {
		end := start + p.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > p.chunkSize/2 {
			end = start + cut
		}

		if window := strings.TrimSpace(string(runes[start:end])); window != "" {
			result = append(result, window)
		}
		if end == len(runes) {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return result
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
