package driven

import (
	"context"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// ReportWriter persists the outputs of a run.
type ReportWriter interface {
	// Write stores run outputs under dir and returns the written file paths.
	Write(ctx context.Context, dir string, result *domain.RunResult) ([]string, error)
}
