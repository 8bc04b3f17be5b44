package mcp

import (
	"context"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
)

// mockReviewService is a mock implementation of driving.ReviewService.
type mockReviewService struct {
	result *domain.RunResult
	err    error
	got    driving.ReviewRequest
}

func (m *mockReviewService) Review(_ context.Context, req driving.ReviewRequest) (*domain.RunResult, error) {
	m.got = req
	return m.result, m.err
}

// mockAgentsLoader returns a fixed configuration.
type mockAgentsLoader struct {
	cfg  domain.AgentsConfig
	err  error
	path string
}

func (m *mockAgentsLoader) LoadAgents(path string) (domain.AgentsConfig, error) {
	m.path = path
	return m.cfg, m.err
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	return m.prompts[name], m.err
}

func (m *mockPromptStore) Reload() {}

func sampleAgents() domain.AgentsConfig {
	return domain.AgentsConfig{
		MaxAgents: 3,
		Model:     "claude-sonnet",
		Agents: []domain.AgentProfile{{
			Name:   "Tech",
			Rubric: domain.Rubric{Criteria: []string{"Accuracy", "Clarity"}, ScaleMin: 1, ScaleMax: 5},
			KBRefs: []string{"kb/style.md"},
		}},
	}
}

func sampleResult() *domain.RunResult {
	overall := 3.5
	return &domain.RunResult{
		Metadata: domain.RunMetadata{
			RunID:     "run-1",
			Status:    domain.RunPartial,
			Succeeded: 3,
			Failed:    1,

			AbortReason: domain.AbortTimeout,
		},
		Report: &domain.ConsolidatedReport{
			OverallScore: &overall,
			Criteria: map[string]domain.CriterionSummary{
				"Clarity":  {Mean: 3, Min: 2, Max: 4},
				"Accuracy": {Mean: 4, Min: 4, Max: 4},
			},
			Agents:          []domain.AgentReport{{AgentName: "Tech", OverallScore: &overall, Succeeded: 3, Failed: 1}},
			Recommendations: []string{"Tighten paragraph 2."},
		},
		OutputDir: "out",
	}
}

func newTestServer(review *mockReviewService, agents *mockAgentsLoader, prompts *mockPromptStore) (*Server, error) {
	ports := &Ports{Review: review, Agents: agents}
	if prompts != nil {
		ports.Prompts = prompts
	}
	return NewServer(ports, "test")
}
