package mcp

import (
	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
)

// AgentsLoader reads and validates an agents file.
type AgentsLoader interface {
	LoadAgents(path string) (domain.AgentsConfig, error)
}

// Ports aggregates the services the MCP server calls.
type Ports struct {
	// Review runs documents through the agents.
	Review driving.ReviewService

	// Agents loads agents files named in tool calls.
	Agents AgentsLoader

	// Prompts exposes the active prompt templates. Optional.
	Prompts driven.PromptStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Review == nil {
		return ErrMissingReviewService
	}
	if p.Agents == nil {
		return ErrMissingAgentsLoader
	}
	return nil
}
