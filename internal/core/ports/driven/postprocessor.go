package driven

import (
	"context"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// PostProcessor turns normalised text into paragraphs.
// PostProcessors are chained in a pipeline (e.g., paragraph splitting, windowing).
type PostProcessor interface {
	// Name returns the processor name for logging.
	Name() string

	// Version identifies the processor's rule. Any change to how text is
	// split must change the version, since paragraph IDs depend on it.
	Version() string

	// Process takes the text and the paragraphs produced so far.
	// A splitter receives nil paragraphs and returns new ones.
	Process(ctx context.Context, text string, paragraphs []domain.Paragraph) ([]domain.Paragraph, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the text through all processors in order.
	Process(ctx context.Context, text string) ([]domain.Paragraph, error)

	// Version is the combined version of every processor.
	Version() string
}
