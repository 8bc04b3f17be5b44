// Package domain defines the core review entities for autoreview.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document and Paragraph: immutable, content-addressed review units
//   - AgentProfile and AgentsConfig: data-described reviewers
//   - RetrievalContext: the isolated context for one (agent, paragraph) pair
//   - ReviewFinding: one agent's judgement of one paragraph
//   - ConsolidatedReport: the reduced, document-level artefact of a run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
