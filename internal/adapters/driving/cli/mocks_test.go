package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
)

// fakeSettings is an in-memory settings service.
type fakeSettings struct {
	settings    domain.AppSettings
	getErr      error
	validateErr error
	checkErr    error
	setErr      error
	set         map[string]string
	checked     bool
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (f *fakeSettings) Get() (*domain.AppSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s := f.settings
	return &s, nil
}

func (f *fakeSettings) Set(key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.set[key] = value
	switch key {
	case "llm.provider":
		f.settings.LLM.Provider = domain.AIProvider(value)
	case "llm.model":
		f.settings.LLM.Model = value
	case "llm.api_key":
		f.settings.LLM.APIKey = value
	}
	return nil
}

func (f *fakeSettings) Keys() []string {
	return []string{"llm.model", "llm.provider", "runner.workers"}
}

func (f *fakeSettings) Validate(*domain.AppSettings) error { return f.validateErr }

func (f *fakeSettings) Check(context.Context, *domain.AppSettings) error {
	f.checked = true
	return f.checkErr
}

// fakeReview records the request and returns a canned result.
type fakeReview struct {
	result *domain.RunResult
	err    error
	got    driving.ReviewRequest
}

func (f *fakeReview) Review(_ context.Context, req driving.ReviewRequest) (*domain.RunResult, error) {
	f.got = req
	return f.result, f.err
}

// fakeServices wires the fakes into the commands.
type fakeServices struct {
	settings  *fakeSettings
	agents    domain.AgentsConfig
	agentsErr error
	review    *fakeReview
	reviewErr error
	cache     driven.EmbeddingCache
	prompts   driven.PromptStore
	report    *domain.ConsolidatedReport
	reportErr error

	configDir   string
	gotSettings domain.AppSettings
	gotOpts     ReviewOptions
	released    bool
}

func (f *fakeServices) Settings(dir string) (driving.SettingsService, error) {
	f.configDir = dir
	return f.settings, nil
}

func (f *fakeServices) LoadAgents(string) (domain.AgentsConfig, error) {
	return f.agents, f.agentsErr
}

func (f *fakeServices) Review(_ context.Context, s domain.AppSettings, opts ReviewOptions) (driving.ReviewService, func(), error) {
	if f.reviewErr != nil {
		return nil, nil, f.reviewErr
	}
	f.gotSettings, f.gotOpts = s, opts
	return f.review, func() { f.released = true }, nil
}

func (f *fakeServices) Cache(context.Context, domain.CacheSettings) (driven.EmbeddingCache, error) {
	return f.cache, nil
}

func (f *fakeServices) Prompts() (driven.PromptStore, error) {
	return f.prompts, nil
}

func (f *fakeServices) ReadReport(context.Context, string) (*domain.ConsolidatedReport, error) {
	return f.report, f.reportErr
}

func newFakeServices() *fakeServices {
	agent := domain.AgentProfile{
		Name:      "Tech",
		Goals:     []string{"Check facts"},
		Rubric:    domain.Rubric{Criteria: []string{"Accuracy"}, ScaleMin: 1, ScaleMax: 5},
		Retrieval: domain.DefaultRetrievalSettings(),
	}
	return &fakeServices{
		settings: newFakeSettings(),
		agents:   domain.AgentsConfig{MaxAgents: 1, Agents: []domain.AgentProfile{agent}},
		review:   &fakeReview{result: sampleResult(domain.RunComplete)},
	}
}

func sampleResult(status domain.RunStatus) *domain.RunResult {
	overall, techOverall := 3.5, 3.5
	return &domain.RunResult{
		Metadata: domain.RunMetadata{
			RunID:            "run-123",
			DocumentPath:     "notes.md",
			Model:            "stub",
			Agents:           []string{"Tech"},
			ParagraphCount:   2,
			Status:           status,
			ExpectedFindings: 2,
			Succeeded:        2,
		},
		Report: &domain.ConsolidatedReport{
			RunID:        "run-123",
			OverallScore: &overall,
			ScaleMin:     1,
			ScaleMax:     5,
			Criteria:     map[string]domain.CriterionSummary{"Accuracy": {Mean: 3.5}},
			Agents: []domain.AgentReport{
				{AgentName: "Tech", ScaleMin: 1, ScaleMax: 5, OverallScore: &techOverall, Succeeded: 2},
			},
			Complete: status == domain.RunComplete,
		},
		Stats:     domain.RunStats{LLMCalls: 1234, CacheHits: 2},
		OutputDir: "notes-review",
	}
}

// execute runs the root command with args against s and returns its output.
func execute(t *testing.T, s Services, stdin string, args ...string) (string, error) {
	t.Helper()
	previous := services
	services = s
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		services = previous
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak values.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
