// Package mcp serves autoreview over the Model Context Protocol so that
// assistants can review documents and inspect agent configurations.
package mcp

import "errors"

var (
	// ErrMissingReviewService is returned when the review service is not provided.
	ErrMissingReviewService = errors.New("mcp: review service is required")

	// ErrMissingAgentsLoader is returned when the agents loader is not provided.
	ErrMissingAgentsLoader = errors.New("mcp: agents loader is required")
)
