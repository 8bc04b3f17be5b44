package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Focus statements keyed by the specialisation inferred from an agent's
// name and goals. Order matters: the first matching group wins.
var focusRules = []struct {
	keywords []string
	focus    string
}{
	{
		[]string{"technical", "engineering", "engineer", "accuracy", "developer"},
		"SPECIALISED FOCUS: Technical accuracy. Check that facts, terminology, procedures and claims are correct and precise.",
	},
	{
		[]string{"clarity", "readability", "style", "editor", "plain language"},
		"SPECIALISED FOCUS: Clarity. Check that sentences are easy to follow, unambiguous and free of needless complexity.",
	},
	{
		[]string{"compliance", "legal", "regulatory", "policy", "regulation"},
		"SPECIALISED FOCUS: Compliance. Check statements against applicable policy, regulatory and legal requirements.",
	},
	{
		[]string{"audience", "user", "reader", "customer"},
		"SPECIALISED FOCUS: Audience fit. Check that tone, depth and vocabulary suit the intended readers.",
	},
}

const generalFocus = "SPECIALISED FOCUS: General quality. Weigh correctness, clarity, structure and completeness evenly."

// systemView is the data for the review_system template.
type systemView struct {
	Name      string
	Tone      string
	Goals     []string
	Expertise string
	Focus     string
}

// fragmentView is one retrieved fragment as shown to the model.
type fragmentView struct {
	Label      string
	Ref        string
	Text       string
	Similarity float64
}

// taskView is the data for the review_task template.
type taskView struct {
	Criteria     []string
	ScaleMin     int
	ScaleMax     int
	GlobalRubric string
	Neighbors    []fragmentView
	Related      []fragmentView
	Knowledge    []fragmentView
	ParagraphID  string
	Paragraph    string
}

// Prompt is a rendered system and task prompt pair.
type Prompt struct {
	System string
	Task   string
}

// PromptBuilder renders review prompts from PromptStore templates.
type PromptBuilder struct {
	store        driven.PromptStore
	globalRubric string

	mu        sync.Mutex
	templates map[string]*template.Template
}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder(store driven.PromptStore, globalRubric string) *PromptBuilder {
	return &PromptBuilder{
		store:        store,
		globalRubric: strings.TrimSpace(globalRubric),
		templates:    make(map[string]*template.Template),
	}
}

// Build renders both prompts for agent reviewing p with rc.
func (b *PromptBuilder) Build(agent domain.AgentProfile, p domain.Paragraph, rc *domain.RetrievalContext) (Prompt, error) {
	system, err := b.render(driven.PromptReviewSystem, systemView{
		Name:      agent.Name,
		Tone:      agent.Tone,
		Goals:     agent.Goals,
		Expertise: expertise(agent.Goals),
		Focus:     InferFocus(agent),
	})
	if err != nil {
		return Prompt{}, err
	}

	view := taskView{
		Criteria:     agent.Rubric.Criteria,
		ScaleMin:     agent.Rubric.ScaleMin,
		ScaleMax:     agent.Rubric.ScaleMax,
		GlobalRubric: b.globalRubric,
		ParagraphID:  p.ID,
		Paragraph:    p.Text,
	}
	if rc != nil {
		for _, f := range rc.Fragments {
			switch f.Source {
			case domain.SourceNeighbor:
				label := "Following paragraph"
				if f.Ordinal < p.Ordinal {
					label = "Preceding paragraph"
				}
				view.Neighbors = append(view.Neighbors, fragmentView{Label: label, Text: f.Text})
			case domain.SourceDocument:
				view.Related = append(view.Related, fragmentView{
					Label:      fmt.Sprintf("Paragraph %d", f.Ordinal+1),
					Text:       f.Text,
					Similarity: f.Similarity,
				})
			case domain.SourceKnowledgeBase:
				view.Knowledge = append(view.Knowledge, fragmentView{
					Label:      filepath.Base(f.Ref),
					Ref:        filepath.Base(f.Ref),
					Text:       f.Text,
					Similarity: f.Similarity,
				})
			}
		}
	}

	task, err := b.render(driven.PromptReviewTask, view)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, Task: task}, nil
}

func (b *PromptBuilder) render(name string, data any) (string, error) {
	tmpl, err := b.template(name)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return sb.String(), nil
}

// template parses each prompt once per builder.
func (b *PromptBuilder) template(name string) (*template.Template, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.templates[name]; ok {
		return t, nil
	}
	text, err := b.store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load prompt %q: %w", name, err)
	}
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %q: %w", name, err)
	}
	b.templates[name] = t
	return t, nil
}

// InferFocus picks a specialised focus from keywords in the agent's name and goals.
func InferFocus(agent domain.AgentProfile) string {
	haystack := strings.ToLower(agent.Name + " " + strings.Join(agent.Goals, " "))
	for _, rule := range focusRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.focus
			}
		}
	}
	return generalFocus
}

// expertise summarises the first three goals.
func expertise(goals []string) string {
	n := min(len(goals), 3)
	if n == 0 {
		return "document quality"
	}
	parts := make([]string, n)
	for i, g := range goals[:n] {
		parts[i] = strings.ToLower(strings.TrimRight(strings.TrimSpace(g), "."))
	}
	return strings.Join(parts, ", ")
}
