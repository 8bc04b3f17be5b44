package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	configfile "github.com/custodia-labs/autoreview/internal/adapters/driven/config/file"
	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/postprocessors/paragraph"
)

// --- Mock implementations ---

// mockEmbeddingService returns fixed vectors keyed by text, or a vector
// derived from the text length when none is configured.
type mockEmbeddingService struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	batches [][]string
	err     error
	short   bool
	block   chan struct{}
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.batches = append(m.batches, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if v, ok := m.vectors[t]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, []float32{float32(len(t)), 1})
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbeddingService) Dimensions() int            { return 2 }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) Version() string            { return "v1" }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error               { return nil }

// stubLLM answers Complete through respond and tracks concurrency.
type stubLLM struct {
	respond func(ctx context.Context, call int, prompt string, opts driven.CompletionOptions) (string, error)

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (s *stubLLM) Complete(ctx context.Context, prompt string, opts driven.CompletionOptions) (string, error) {
	call := int(s.calls.Add(1))
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	return s.respond(ctx, call, prompt, opts)
}

func (s *stubLLM) ModelName() string          { return "stub-llm" }
func (s *stubLLM) Ping(context.Context) error { return nil }
func (s *stubLLM) Close() error               { return nil }

// stubContexts returns an empty context, or err for the listed ordinals.
type stubContexts struct {
	failOrdinals map[int]bool
}

func (s *stubContexts) Build(_ context.Context, agent domain.AgentProfile, p domain.Paragraph) (*domain.RetrievalContext, error) {
	if s.failOrdinals[p.Ordinal] {
		return nil, fmt.Errorf("%w: no vector for paragraph %s", domain.ErrRetrieval, p.ID)
	}
	return &domain.RetrievalContext{AgentName: agent.Name, ParagraphID: p.ID}, nil
}

// --- Fixtures ---

func testAgent(name string, criteria ...string) domain.AgentProfile {
	return domain.AgentProfile{
		Name:      name,
		Tone:      "direct",
		Goals:     []string{"Find problems"},
		Rubric:    domain.Rubric{Criteria: criteria, ScaleMin: 1, ScaleMax: 5},
		Retrieval: domain.DefaultRetrievalSettings(),
	}
}

func testParagraphs(texts ...string) []domain.Paragraph {
	out := make([]domain.Paragraph, len(texts))
	for i, t := range texts {
		out[i] = paragraph.Anchor(paragraph.RuleVersion, i, t)
	}
	return out
}

func testDocument(texts ...string) *domain.Document {
	return &domain.Document{
		Path:            "doc.md",
		Hash:            "doc-hash",
		ChunkingVersion: paragraph.RuleVersion,
		Paragraphs:      testParagraphs(texts...),
	}
}

func newTestPromptBuilder(t *testing.T) *PromptBuilder {
	t.Helper()
	store, err := configfile.NewPromptStore(t.TempDir())
	require.NoError(t, err)
	return NewPromptBuilder(store, "")
}

// scoresJSON renders a well-formed review response.
func scoresJSON(scores map[string]float64) string {
	parts := make([]string, 0, len(scores))
	for k, v := range scores {
		parts = append(parts, fmt.Sprintf("%q: %g", k, v))
	}
	return fmt.Sprintf(`{"scores": {%s}, "comments": "Looks fine.", "confidence": 0.9}`, strings.Join(parts, ", "))
}

// fastRunner returns runner settings with millisecond delays.
func fastRunner() domain.RunnerSettings {
	s := domain.DefaultAppSettings().Runner
	s.BaseDelay = time.Millisecond
	s.MaxDelay = 4 * time.Millisecond
	s.GracePeriod = 50 * time.Millisecond
	return s
}
