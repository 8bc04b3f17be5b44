package domain

import "unicode/utf8"

// FragmentSource identifies where a retrieved fragment came from.
type FragmentSource string

// Fragment sources.
const (
	SourceNeighbor      FragmentSource = "neighbor"
	SourceDocument      FragmentSource = "document"
	SourceKnowledgeBase FragmentSource = "knowledge_base"
)

// Fragment is one piece of retrieved text.
type Fragment struct {
	Source FragmentSource

	// SourceID is the paragraph or knowledge base fragment ID.
	SourceID string

	// Ref is the knowledge base file for SourceKnowledgeBase fragments.
	Ref string

	Ordinal    int
	Text       string
	Similarity float64
}

// RetrievalContext is the ordered context for one (agent, paragraph) pair.
// It is built fresh per call and never shared between agents.
type RetrievalContext struct {
	AgentName   string
	ParagraphID string
	Fragments   []Fragment
}

// Len returns the total text length of all fragments in characters.
func (c RetrievalContext) Len() int {
	n := 0
	for _, f := range c.Fragments {
		n += utf8.RuneCountInString(f.Text)
	}
	return n
}
