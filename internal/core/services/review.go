package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
	"github.com/custodia-labs/autoreview/internal/logger"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// runNamespace scopes run IDs so identical inputs produce identical IDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/custodia-labs/autoreview/run"))

// ReviewDeps holds the adapters a review run needs.
type ReviewDeps struct {
	// Documents loads the document under review.
	Documents driven.DocumentLoader

	// Knowledge loads kb_refs into windowed fragments.
	Knowledge driven.DocumentLoader

	Embeddings driven.EmbeddingService
	Cache      driven.EmbeddingCache
	Vectors    driven.VectorIndexFactory
	LLM        driven.LLMService
	Prompts    driven.PromptStore

	// Writer persists outputs. Optional.
	Writer driven.ReportWriter
}

// ReviewService runs ingest, index, review and synthesis for one document.
type ReviewService struct {
	deps     ReviewDeps
	settings domain.AppSettings
}

// NewReviewService creates a review service.
func NewReviewService(deps ReviewDeps, settings domain.AppSettings) *ReviewService {
	return &ReviewService{deps: deps, settings: settings}
}

// Review runs one document through every agent.
func (s *ReviewService) Review(ctx context.Context, req driving.ReviewRequest) (*domain.RunResult, error) {
	started := time.Now()
	logger.Section("Review Run")

	cfg := req.Agents
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agents configuration: %w", err)
	}
	agents := cfg.Agents

	doc, err := s.deps.Documents.Load(ctx, req.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	logger.Info("Loaded %s: %d paragraphs (%s)", req.DocumentPath, len(doc.Paragraphs), doc.ChunkingVersion)

	embedder := NewEmbedder(s.deps.Embeddings, s.deps.Cache, s.settings.Embedding.BatchSize)
	stats := domain.RunStats{StartedAt: started, KBFragments: map[string]int{}}

	logger.Section("Indexing")
	kb := make(map[string]*KnowledgeBase)
	for _, a := range agents {
		if len(a.KBRefs) == 0 || a.Retrieval.TopK <= 0 {
			continue
		}
		base, err := s.knowledgeBase(ctx, embedder, a)
		if err != nil {
			return nil, err
		}
		if base != nil {
			kb[a.Name] = base
			stats.KBFragments[a.Name] = len(base.Fragments)
		}
	}

	var (
		vectors map[string][]float32
		main    driven.VectorIndex
	)
	if needsDocumentVectors(agents, kb) {
		vectors, main, err = s.documentIndex(ctx, embedder, doc)
		if err != nil {
			return nil, err
		}
	}

	contexts := NewContextBuilder(doc, vectors, main, kb, s.settings.MaxContextChars)
	prompts := NewPromptBuilder(s.deps.Prompts, cfg.GlobalRubric)
	runner := NewAgentRunner(s.deps.LLM, contexts, prompts, s.settings.Runner, driven.CompletionOptions{
		Temperature: s.settings.LLM.Temperature,
		MaxTokens:   s.settings.LLM.MaxTokens,
	})
	outcome := runner.Run(ctx, agents, doc.Paragraphs)

	meta := domain.RunMetadata{
		DocumentPath:       doc.Path,
		DocumentTitle:      doc.Title,
		DocumentHash:       doc.Hash,
		ChunkingVersion:    doc.ChunkingVersion,
		Model:              s.deps.LLM.ModelName(),
		EmbeddingNamespace: embedder.Namespace(),
		Agents:             cfg.Names(),
		ParagraphCount:     len(doc.Paragraphs),
		AbortReason:        outcome.AbortReason,
		ExpectedFindings:   len(outcome.Findings),
	}
	meta.RunID, err = runID(meta, cfg)
	if err != nil {
		return nil, err
	}

	report := NewSynthesizer().Synthesize(meta.RunID, doc, agents, outcome.Findings)
	meta.Succeeded, meta.Failed = report.SucceededFindings, report.FailedFindings
	meta.Status = domain.RunComplete
	if outcome.Stopped() || !report.Complete {
		meta.Status = domain.RunPartial
	}

	stats.LLMCalls = outcome.LLMCalls
	stats.CacheHits, stats.CacheMisses = embedder.Stats()
	result := &domain.RunResult{
		Metadata: meta,
		Document: doc,
		Findings: outcome.Findings,
		Report:   report,
		Stats:    stats,
	}

	if req.OutputDir != "" && s.deps.Writer != nil {
		logger.Section("Outputs")
		if _, err := s.deps.Writer.Write(ctx, req.OutputDir, result); err != nil {
			return result, fmt.Errorf("write outputs: %w", err)
		}
		result.OutputDir = req.OutputDir
	}

	result.Stats.Duration = time.Since(started)
	logger.Info("Run %s finished %s in %s", meta.RunID, meta.Status, result.Stats.Duration.Round(time.Millisecond))
	return result, nil
}

// documentIndex embeds every paragraph and builds the shared main index.
func (s *ReviewService) documentIndex(
	ctx context.Context, embedder *Embedder, doc *domain.Document,
) (map[string][]float32, driven.VectorIndex, error) {
	texts := make(map[string]string, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		texts[p.ContentHash] = p.Text
	}
	byHash, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("embed document: %w", err)
	}

	vectors := make(map[string][]float32, len(doc.Paragraphs))
	entries := make([]driven.VectorEntry, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		vectors[p.ID] = byHash[p.ContentHash]
		entries = append(entries, driven.VectorEntry{ID: p.ID, Ordinal: p.Ordinal, Vector: byHash[p.ContentHash]})
	}
	index, err := s.deps.Vectors.Build(ctx, driven.SharedOwner, entries)
	if err != nil {
		return nil, nil, fmt.Errorf("build document index: %w", err)
	}
	logger.Debug("Document index: %d vectors", index.Len())
	return vectors, index, nil
}

// knowledgeBase loads, embeds and indexes one agent's kb_refs. Refs that
// cannot be loaded are skipped; nil means the agent has no knowledge base.
func (s *ReviewService) knowledgeBase(ctx context.Context, embedder *Embedder, agent domain.AgentProfile) (*KnowledgeBase, error) {
	refs := agent.KnowledgeRefs()
	var fragments []KnowledgeFragment
	for _, ref := range refs {
		doc, err := s.deps.Knowledge.Load(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("%s: skipping knowledge base ref %s: %v", agent.Name, ref, err)
			continue
		}
		for _, p := range doc.Paragraphs {
			fragments = append(fragments, KnowledgeFragment{
				ID:          ref + "#" + strconv.Itoa(p.Ordinal),
				Ref:         ref,
				Ordinal:     len(fragments),
				Text:        p.Text,
				ContentHash: p.ContentHash,
			})
		}
	}
	if len(fragments) == 0 {
		logger.Warn("%s: no usable knowledge base fragments", agent.Name)
		return nil, nil
	}

	texts := make(map[string]string, len(fragments))
	for _, f := range fragments {
		texts[f.ContentHash] = f.Text
	}
	byHash, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed knowledge base for %s: %w", agent.Name, err)
	}

	base := &KnowledgeBase{Fragments: make(map[string]KnowledgeFragment, len(fragments))}
	entries := make([]driven.VectorEntry, 0, len(fragments))
	for _, f := range fragments {
		base.Fragments[f.ID] = f
		entries = append(entries, driven.VectorEntry{ID: f.ID, Ordinal: f.Ordinal, Vector: byHash[f.ContentHash]})
	}
	base.Index, err = s.deps.Vectors.Build(ctx, agent.Name, entries)
	if err != nil {
		return nil, fmt.Errorf("build knowledge base for %s: %w", agent.Name, err)
	}
	logger.Debug("%s: knowledge base of %d fragments from %d refs", agent.Name, len(fragments), len(refs))
	return base, nil
}

func needsDocumentVectors(agents []domain.AgentProfile, kb map[string]*KnowledgeBase) bool {
	for _, a := range agents {
		if a.Retrieval.DocumentTopK > 0 {
			return true
		}
		if kb[a.Name] != nil && a.Retrieval.TopK > 0 {
			return true
		}
	}
	return false
}

// runID derives a stable identifier from everything that determines the
// run's inputs.
func runID(meta domain.RunMetadata, cfg domain.AgentsConfig) (string, error) {
	agents, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode agents: %w", err)
	}
	parts := []string{
		meta.DocumentHash,
		meta.ChunkingVersion,
		meta.Model,
		meta.EmbeddingNamespace,
		string(agents),
	}
	return uuid.NewSHA1(runNamespace, []byte(strings.Join(parts, "\n"))).String(), nil
}
