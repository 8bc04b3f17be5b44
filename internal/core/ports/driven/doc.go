// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a review run:
//
//   - DocumentLoader: Loads a file into ordered paragraphs
//   - Normaliser: Turns raw file bytes into plain text
//   - LLMService: Produces one review per (agent, paragraph) prompt
//   - EmbeddingService: Generates vectors for paragraphs and knowledge base fragments
//   - EmbeddingCache: Persists vectors by content hash per provider namespace
//   - VectorIndexFactory: Builds owned, read-only nearest-neighbour indexes
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PromptStore: User-editable prompt templates. Built-in defaults otherwise.
//   - ReportWriter: Persists run outputs. Results are only returned otherwise.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
