package domain

// Paragraph is an immutable, addressable unit of a document (a "gold anchor").
// ID is derived from ContentHash and Ordinal so unchanged text keeps its ID
// across runs and processes.
type Paragraph struct {
	// ID is the content-derived anchor all findings and rewrites refer to.
	ID string `json:"id"`

	// Ordinal is the zero-based position in the document.
	Ordinal int `json:"ordinal"`

	// Text is the normalised paragraph text.
	Text string `json:"text"`

	// ContentHash is the hex SHA-256 of Text.
	ContentHash string `json:"content_hash"`
}

// Document is an ordered sequence of paragraphs. Immutable once loaded.
type Document struct {
	// Path is where the document was loaded from.
	Path string

	// Title is the best-effort title from the normaliser.
	Title string

	// Hash is the hex SHA-256 of the normalised document text.
	Hash string

	// ChunkingVersion identifies the splitting rule that produced the paragraphs.
	ChunkingVersion string

	// Paragraphs in document order; Paragraphs[i].Ordinal == i.
	Paragraphs []Paragraph
}

// ParagraphAt returns the paragraph at ordinal, if any.
func (d *Document) ParagraphAt(ordinal int) (Paragraph, bool) {
	if d == nil || ordinal < 0 || ordinal >= len(d.Paragraphs) {
		return Paragraph{}, false
	}
	return d.Paragraphs[ordinal], true
}
