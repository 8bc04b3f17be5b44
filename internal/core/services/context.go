package services

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// DefaultMaxContextChars bounds the retrieved text handed to one prompt.
const DefaultMaxContextChars = 2000

// KnowledgeFragment is one windowed piece of an agent's reference material.
type KnowledgeFragment struct {
	ID          string
	Ref         string
	Ordinal     int
	Text        string
	ContentHash string
}

// KnowledgeBase is an agent's private index over its kb_refs.
type KnowledgeBase struct {
	Index     driven.VectorIndex
	Fragments map[string]KnowledgeFragment
}

// ContextBuilder assembles the retrieval context for one (agent, paragraph) pair.
// It is read-only after construction and safe for concurrent use.
type ContextBuilder struct {
	doc      *domain.Document
	vectors  map[string][]float32
	main     driven.VectorIndex
	kb       map[string]*KnowledgeBase
	maxChars int
}

// NewContextBuilder creates a builder over the document's main index.
// vectors maps paragraph IDs to their embeddings; kb maps agent names to
// their knowledge bases.
func NewContextBuilder(
	doc *domain.Document,
	vectors map[string][]float32,
	main driven.VectorIndex,
	kb map[string]*KnowledgeBase,
	maxChars int,
) *ContextBuilder {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	if kb == nil {
		kb = map[string]*KnowledgeBase{}
	}
	return &ContextBuilder{doc: doc, vectors: vectors, main: main, kb: kb, maxChars: maxChars}
}

// Build returns a fresh context for agent reviewing p.
func (b *ContextBuilder) Build(ctx context.Context, agent domain.AgentProfile, p domain.Paragraph) (*domain.RetrievalContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings := agent.Retrieval

	var neighbors []domain.Fragment
	exclude := map[string]bool{p.ID: true}
	neighborHashes := map[string]bool{}
	if settings.UseNeighbors {
		for _, ord := range []int{p.Ordinal - 1, p.Ordinal + 1} {
			n, ok := b.doc.ParagraphAt(ord)
			if !ok {
				continue
			}
			neighbors = append(neighbors, domain.Fragment{
				Source:   domain.SourceNeighbor,
				SourceID: n.ID,
				Ordinal:  n.Ordinal,
				Text:     n.Text,
			})
			exclude[n.ID] = true
			neighborHashes[n.ContentHash] = true
		}
	}

	var matches []domain.Fragment
	needVector := settings.DocumentTopK > 0 || (settings.TopK > 0 && b.kb[agent.Name] != nil)
	if needVector {
		vec, ok := b.vectors[p.ID]
		if !ok {
			return nil, fmt.Errorf("%w: no vector for paragraph %s", domain.ErrRetrieval, p.ID)
		}

		if settings.DocumentTopK > 0 && b.main != nil {
			related, err := b.related(ctx, agent, vec, exclude)
			if err != nil {
				return nil, err
			}
			matches = append(matches, related...)
		}

		if kb := b.kb[agent.Name]; kb != nil && settings.TopK > 0 {
			knowledge, err := b.knowledge(ctx, agent, kb, vec, neighborHashes)
			if err != nil {
				return nil, err
			}
			matches = append(matches, knowledge...)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, c := matches[i], matches[j]
		if a.Similarity != c.Similarity {
			return a.Similarity > c.Similarity
		}
		if a.Ordinal != c.Ordinal {
			return a.Ordinal < c.Ordinal
		}
		return a.SourceID < c.SourceID
	})

	neighbors, matches = truncate(neighbors, matches, b.maxChars)

	fragments := make([]domain.Fragment, 0, len(neighbors)+len(matches))
	fragments = append(fragments, neighbors...)
	fragments = append(fragments, matches...)
	return &domain.RetrievalContext{
		AgentName:   agent.Name,
		ParagraphID: p.ID,
		Fragments:   fragments,
	}, nil
}

// related queries the shared document index, skipping self and neighbours.
func (b *ContextBuilder) related(ctx context.Context, agent domain.AgentProfile, vec []float32, exclude map[string]bool) ([]domain.Fragment, error) {
	k := agent.Retrieval.DocumentTopK
	hits, err := b.main.Query(ctx, agent.Name, vec, k+len(exclude))
	if err != nil {
		return nil, fmt.Errorf("%w: document index: %w", domain.ErrRetrieval, err)
	}

	var out []domain.Fragment
	for _, h := range hits {
		if len(out) == k {
			break
		}
		if exclude[h.ID] || h.Similarity < agent.Retrieval.SimilarityThreshold {
			continue
		}
		p, ok := b.doc.ParagraphAt(h.Ordinal)
		if !ok || p.ID != h.ID {
			return nil, fmt.Errorf("%w: document index returned unknown paragraph %s", domain.ErrRetrieval, h.ID)
		}
		out = append(out, domain.Fragment{
			Source:     domain.SourceDocument,
			SourceID:   p.ID,
			Ordinal:    p.Ordinal,
			Text:       p.Text,
			Similarity: h.Similarity,
		})
	}
	return out, nil
}

// knowledge queries the agent's own index. Matches below the threshold are
// dropped without backfilling.
func (b *ContextBuilder) knowledge(
	ctx context.Context, agent domain.AgentProfile, kb *KnowledgeBase, vec []float32, neighborHashes map[string]bool,
) ([]domain.Fragment, error) {
	hits, err := kb.Index.Query(ctx, agent.Name, vec, agent.Retrieval.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: knowledge base: %w", domain.ErrRetrieval, err)
	}

	var out []domain.Fragment
	for _, h := range hits {
		if h.Similarity < agent.Retrieval.SimilarityThreshold {
			continue
		}
		frag, ok := kb.Fragments[h.ID]
		if !ok {
			return nil, fmt.Errorf("%w: knowledge base returned unknown fragment %s", domain.ErrRetrieval, h.ID)
		}
		if neighborHashes[frag.ContentHash] {
			continue
		}
		out = append(out, domain.Fragment{
			Source:     domain.SourceKnowledgeBase,
			SourceID:   frag.ID,
			Ref:        frag.Ref,
			Ordinal:    frag.Ordinal,
			Text:       frag.Text,
			Similarity: h.Similarity,
		})
	}
	return out, nil
}

// truncate drops similarity matches from the tail, then the following
// neighbour, then the preceding one, until the text fits maxChars.
func truncate(neighbors, matches []domain.Fragment, maxChars int) ([]domain.Fragment, []domain.Fragment) {
	total := 0
	for _, f := range neighbors {
		total += utf8.RuneCountInString(f.Text)
	}
	for _, f := range matches {
		total += utf8.RuneCountInString(f.Text)
	}

	for total > maxChars && len(matches) > 0 {
		last := matches[len(matches)-1]
		total -= utf8.RuneCountInString(last.Text)
		matches = matches[:len(matches)-1]
	}
	for total > maxChars && len(neighbors) > 0 {
		last := neighbors[len(neighbors)-1]
		total -= utf8.RuneCountInString(last.Text)
		neighbors = neighbors[:len(neighbors)-1]
	}
	return neighbors, matches
}
