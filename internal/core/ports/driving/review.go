package driving

import (
	"context"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// ReviewRequest describes one review run.
type ReviewRequest struct {
	// DocumentPath is the document to review.
	DocumentPath string

	// Agents is the validated agents configuration.
	Agents domain.AgentsConfig

	// OutputDir receives run outputs. Empty skips writing.
	OutputDir string
}

// ReviewService runs the ingest, index, review and synthesize pipeline.
type ReviewService interface {
	// Review runs one document through every agent. Fatal errors wrap
	// domain.ErrDocumentLoad or domain.ErrAgentConfig. Partial runs return
	// a result with Metadata.Status == domain.RunPartial and no error.
	Review(ctx context.Context, req ReviewRequest) (*domain.RunResult, error)
}
