// Package tui provides an interactive browser for review outputs.
package tui

import (
	"context"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// ReportLoader reads the consolidated report of a finished run.
type ReportLoader interface {
	ReadReport(ctx context.Context, dir string) (*domain.ConsolidatedReport, error)
}

// Ports aggregates the services the TUI calls.
type Ports struct {
	// Reports loads consolidated.json from an output directory.
	Reports ReportLoader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Reports == nil {
		return ErrMissingReportLoader
	}
	return nil
}
