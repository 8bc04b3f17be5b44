package domain

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// MaxAgents is the hard cap on active agents per run.
const MaxAgents = 7

// Retrieval and rubric defaults applied when a profile omits them.
const (
	DefaultTopK                = 4
	DefaultUseNeighbors        = true
	DefaultSimilarityThreshold = 0.7
	DefaultScaleMin            = 1
	DefaultScaleMax            = 5
	MinScale                   = 1
	MaxScale                   = 10
)

// Rubric is the named set of criteria and the numeric scale an agent scores on.
type Rubric struct {
	Criteria []string `json:"criteria"`
	ScaleMin int      `json:"scale_min"`
	ScaleMax int      `json:"scale_max"`
}

// HasCriterion reports whether name is one of the rubric criteria.
func (r Rubric) HasCriterion(name string) bool {
	for _, c := range r.Criteria {
		if c == name {
			return true
		}
	}
	return false
}

// Span returns the width of the scale.
func (r Rubric) Span() float64 {
	return float64(r.ScaleMax - r.ScaleMin)
}

// RetrievalSettings controls how an agent's context is assembled.
type RetrievalSettings struct {
	// TopK is the maximum number of knowledge base matches.
	TopK int `json:"top_k"`

	// UseNeighbors includes the preceding and following paragraphs.
	UseNeighbors bool `json:"use_neighbors"`

	// SimilarityThreshold drops matches scoring below it.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// DocumentTopK is the maximum number of related main-document passages.
	// Zero disables document matches.
	DocumentTopK int `json:"document_top_k"`
}

// DefaultRetrievalSettings returns the settings used when a profile omits them.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		TopK:                DefaultTopK,
		UseNeighbors:        DefaultUseNeighbors,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// AgentProfile describes one reviewer. Agents are data: reviewing is a
// stateless function of (profile, context, paragraph).
type AgentProfile struct {
	Name      string            `json:"name"`
	Tone      string            `json:"tone"`
	Goals     []string          `json:"goals"`
	Rubric    Rubric            `json:"rubric"`
	KBRefs    []string          `json:"kb_refs"`
	Retrieval RetrievalSettings `json:"retrieval"`
}

// KnowledgeRefs returns KBRefs as a set: cleaned, without blanks or
// repeats, in first-seen order.
func (a AgentProfile) KnowledgeRefs() []string {
	refs := make([]string, 0, len(a.KBRefs))
	seen := make(map[string]bool, len(a.KBRefs))
	for _, ref := range a.KBRefs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		ref = filepath.Clean(ref)
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

// AgentsConfig is the validated agents configuration for a run.
type AgentsConfig struct {
	Model        string         `json:"model"`
	MaxAgents    int            `json:"max_agents"`
	GlobalRubric string         `json:"global_rubric,omitempty"`
	Agents       []AgentProfile `json:"agents"`
}

// Agent returns the profile with the given name.
func (c AgentsConfig) Agent(name string) (AgentProfile, bool) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentProfile{}, false
}

// Names returns agent names in configuration order.
func (c AgentsConfig) Names() []string {
	names := make([]string, len(c.Agents))
	for i, a := range c.Agents {
		names[i] = a.Name
	}
	return names
}

// Validate checks the rules that struct tags cannot express.
// All violations are returned joined; each wraps ErrAgentConfig.
func (c AgentsConfig) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if c.MaxAgents < 1 || c.MaxAgents > MaxAgents {
		add("max_agents", "must be between 1 and %d, got %d", MaxAgents, c.MaxAgents)
	}
	if len(c.Agents) == 0 {
		add("agents", "at least one agent is required")
	}
	if len(c.Agents) > MaxAgents {
		add("agents", "%d agents exceeds the hard limit of %d", len(c.Agents), MaxAgents)
	} else if c.MaxAgents > 0 && len(c.Agents) > c.MaxAgents {
		add("agents", "%d agents exceeds max_agents %d", len(c.Agents), c.MaxAgents)
	}

	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		prefix := fmt.Sprintf("agents[%d]", i)
		name := strings.TrimSpace(a.Name)
		if name == "" {
			add(prefix+".name", "is required")
		} else {
			if seen[name] {
				add(prefix+".name", "duplicate agent name %q", name)
			}
			seen[name] = true
		}
		if len(a.Goals) == 0 {
			add(prefix+".goals", "at least one goal is required")
		}
		errs = append(errs, validateRubric(prefix+".rubric", a.Rubric)...)
		if a.Retrieval.TopK < 0 {
			add(prefix+".retrieval.top_k", "must not be negative")
		}
		if a.Retrieval.DocumentTopK < 0 {
			add(prefix+".retrieval.document_top_k", "must not be negative")
		}
		t := a.Retrieval.SimilarityThreshold
		if math.IsNaN(t) || t < -1 || t > 1 {
			add(prefix+".retrieval.similarity_threshold", "must be within [-1, 1]")
		}
	}

	return errors.Join(errs...)
}

func validateRubric(field string, r Rubric) []error {
	var errs []error
	if len(r.Criteria) == 0 {
		errs = append(errs, &ValidationError{Field: field + ".criteria", Reason: "at least one criterion is required"})
	}
	seen := make(map[string]bool, len(r.Criteria))
	for _, c := range r.Criteria {
		if strings.TrimSpace(c) == "" {
			errs = append(errs, &ValidationError{Field: field + ".criteria", Reason: "criterion names must not be empty"})
			continue
		}
		if seen[c] {
			errs = append(errs, &ValidationError{Field: field + ".criteria", Reason: fmt.Sprintf("duplicate criterion %q", c)})
		}
		seen[c] = true
	}
	if r.ScaleMin < MinScale || r.ScaleMax > MaxScale || r.ScaleMin >= r.ScaleMax {
		errs = append(errs, &ValidationError{
			Field:  field + ".scale",
			Reason: fmt.Sprintf("need %d <= scale_min < scale_max <= %d, got %d..%d", MinScale, MaxScale, r.ScaleMin, r.ScaleMax),
		})
	}
	return errs
}
