package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
)

// ReviewInput is the input schema for the review_document tool.
type ReviewInput struct {
	Document  string `json:"document" jsonschema:"path of the document to review"`
	Agents    string `json:"agents" jsonschema:"path of the agents configuration file"`
	OutputDir string `json:"output_dir,omitempty" jsonschema:"directory for run outputs, omitted to skip writing"`
}

// ReviewOutput summarises a review run.
type ReviewOutput struct {
	RunID           string             `json:"run_id"`
	Status          string             `json:"status"`
	AbortReason     string             `json:"abort_reason,omitempty"`
	OverallScore    *float64           `json:"overall_score"`
	Criteria        []CriterionOutput  `json:"criteria"`
	Agents          []AgentScoreOutput `json:"agents"`
	Recommendations []string           `json:"recommendations"`
	Succeeded       int                `json:"succeeded"`
	Failed          int                `json:"failed"`
	OutputDir       string             `json:"output_dir,omitempty"`
}

// CriterionOutput is one consolidated criterion score.
type CriterionOutput struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// AgentScoreOutput is one agent's overall result.
type AgentScoreOutput struct {
	Name         string   `json:"name"`
	OverallScore *float64 `json:"overall_score"`
	Succeeded    int      `json:"succeeded"`
	Failed       int      `json:"failed"`
}

// ValidateAgentsInput is the input schema for the validate_agents tool.
type ValidateAgentsInput struct {
	Agents string `json:"agents" jsonschema:"path of the agents configuration file"`
}

// ValidateAgentsOutput lists the agents of a valid file.
type ValidateAgentsOutput struct {
	MaxAgents int           `json:"max_agents"`
	Model     string        `json:"model,omitempty"`
	Agents    []AgentOutput `json:"agents"`
}

// AgentOutput describes one configured agent.
type AgentOutput struct {
	Name     string   `json:"name"`
	Criteria []string `json:"criteria"`
	ScaleMin int      `json:"scale_min"`
	ScaleMax int      `json:"scale_max"`
	KBRefs   []string `json:"kb_refs,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "review_document",
		Description: "Review a document paragraph by paragraph with every agent in an agents file " +
			"and return the consolidated scores and recommendations",
	}, s.handleReview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_agents",
		Description: "Validate an agents configuration file and list its agents",
	}, s.handleValidateAgents)
}

// handleReview runs one review. Partial runs are results, not errors.
func (s *Server) handleReview(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReviewInput,
) (*mcp.CallToolResult, ReviewOutput, error) {
	if input.Document == "" || input.Agents == "" {
		return nil, ReviewOutput{}, errors.New("document and agents are required")
	}

	cfg, err := s.ports.Agents.LoadAgents(input.Agents)
	if err != nil {
		return nil, ReviewOutput{}, err
	}

	result, err := s.ports.Review.Review(ctx, driving.ReviewRequest{
		DocumentPath: input.Document,
		Agents:       cfg,
		OutputDir:    input.OutputDir,
	})
	if err != nil {
		return nil, ReviewOutput{}, err
	}
	if result == nil {
		return nil, ReviewOutput{}, fmt.Errorf("review of %s returned no result", input.Document)
	}

	return nil, toReviewOutput(result), nil
}

func toReviewOutput(r *domain.RunResult) ReviewOutput {
	out := ReviewOutput{
		RunID:           r.Metadata.RunID,
		Status:          string(r.Metadata.Status),
		AbortReason:     r.Metadata.AbortReason,
		Succeeded:       r.Metadata.Succeeded,
		Failed:          r.Metadata.Failed,
		OutputDir:       r.OutputDir,
		Criteria:        []CriterionOutput{},
		Agents:          []AgentScoreOutput{},
		Recommendations: []string{},
	}

	report := r.Report
	if report == nil {
		return out
	}
	out.OverallScore = report.OverallScore
	if len(report.Recommendations) > 0 {
		out.Recommendations = report.Recommendations
	}

	names := make([]string, 0, len(report.Criteria))
	for name := range report.Criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := report.Criteria[name]
		out.Criteria = append(out.Criteria, CriterionOutput{Name: name, Mean: c.Mean, Min: c.Min, Max: c.Max})
	}

	for _, a := range report.Agents {
		out.Agents = append(out.Agents, AgentScoreOutput{
			Name:         a.AgentName,
			OverallScore: a.OverallScore,
			Succeeded:    a.Succeeded,
			Failed:       a.Failed,
		})
	}
	return out
}

func (s *Server) handleValidateAgents(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ValidateAgentsInput,
) (*mcp.CallToolResult, ValidateAgentsOutput, error) {
	if input.Agents == "" {
		return nil, ValidateAgentsOutput{}, errors.New("agents is required")
	}

	cfg, err := s.ports.Agents.LoadAgents(input.Agents)
	if err != nil {
		return nil, ValidateAgentsOutput{}, err
	}

	out := ValidateAgentsOutput{
		MaxAgents: cfg.MaxAgents,
		Model:     cfg.Model,
		Agents:    make([]AgentOutput, len(cfg.Agents)),
	}
	for i, a := range cfg.Agents {
		out.Agents[i] = AgentOutput{
			Name:     a.Name,
			Criteria: a.Rubric.Criteria,
			ScaleMin: a.Rubric.ScaleMin,
			ScaleMax: a.Rubric.ScaleMax,
			KBRefs:   a.KBRefs,
		}
	}
	return nil, out, nil
}
