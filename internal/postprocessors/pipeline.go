// Package postprocessors provides paragraph processing pipelines.
package postprocessors

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the text through all processors in order.
// The first processor receives nil paragraphs and should create them.
// Subsequent processors receive and may reshape the paragraphs.
func (p *Pipeline) Process(ctx context.Context, text string) ([]domain.Paragraph, error) {
	if len(p.processors) == 0 {
		return nil, fmt.Errorf("pipeline has no processors")
	}

	var paragraphs []domain.Paragraph

	for _, processor := range p.processors {
		var err error
		paragraphs, err = processor.Process(ctx, text, paragraphs)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return paragraphs, nil
}

// Version joins the versions of all processors.
func (p *Pipeline) Version() string {
	versions := make([]string, len(p.processors))
	for i, processor := range p.processors {
		versions[i] = processor.Version()
	}
	return strings.Join(versions, "+")
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
