package postprocessors

import (
	"github.com/custodia-labs/autoreview/internal/postprocessors/chunker"
	"github.com/custodia-labs/autoreview/internal/postprocessors/paragraph"
)

// DocumentPipeline splits a reviewed document into paragraphs. Paragraphs
// are never windowed: each one is an anchor that findings refer to.
func DocumentPipeline(minLength int) *Pipeline {
	return NewPipeline(paragraph.New(paragraph.WithMinLength(minLength)))
}

// KnowledgePipeline splits a knowledge base file into retrievable fragments.
// Oversized paragraphs are windowed so one fragment fits a context budget.
func KnowledgePipeline(minLength, chunkSize, overlap int) *Pipeline {
	return NewPipeline(
		paragraph.New(paragraph.WithMinLength(minLength)),
		chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(overlap)),
	)
}
