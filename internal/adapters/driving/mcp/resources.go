package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

const uriScheme = "autoreview://"

// promptNames are the templates exposed as resources.
var promptNames = []string{driven.PromptReviewSystem, driven.PromptReviewTask}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "prompts/{name}",
		Name:        "prompt-template",
		Description: "Active prompt template (review_system or review_task)",
		MIMEType:    "text/plain",
	}, s.handlePromptResource)
}

// handlePromptResource returns the template a review would use, honouring
// overrides in the prompts directory.
func (s *Server) handlePromptResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Prompts == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	name := extractPromptName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.Prompts.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading prompt %s: %w", name, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}

// extractPromptName returns the known prompt named by a URI like
// autoreview://prompts/{name}, or "" when there is none.
func extractPromptName(uri string) string {
	const prefix = uriScheme + "prompts/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	name := strings.TrimPrefix(uri, prefix)
	for _, known := range promptNames {
		if name == known {
			return name
		}
	}
	return ""
}
