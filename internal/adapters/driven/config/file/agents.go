package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// agentsFile mirrors the agents configuration file. Pointer fields
// distinguish an omitted value from an explicit zero so defaults apply
// only to omissions.
type agentsFile struct {
	Model        string       `json:"model" yaml:"model" validate:"max=200"`
	MaxAgents    *int         `json:"max_agents" yaml:"max_agents"`
	GlobalRubric string       `json:"global_rubric" yaml:"global_rubric" validate:"max=20000"`
	Agents       []agentEntry `json:"agents" yaml:"agents" validate:"dive"`
}

type agentEntry struct {
	Name      string          `json:"name" yaml:"name" validate:"max=64"`
	Tone      string          `json:"tone" yaml:"tone" validate:"max=500"`
	Goals     []string        `json:"goals" yaml:"goals" validate:"dive,required"`
	Rubric    rubricEntry     `json:"rubric" yaml:"rubric"`
	KBRefs    []string        `json:"kb_refs" yaml:"kb_refs" validate:"dive,required"`
	Retrieval *retrievalEntry `json:"retrieval" yaml:"retrieval"`
}

type rubricEntry struct {
	Criteria []string `json:"criteria" yaml:"criteria"`
	ScaleMin *int     `json:"scale_min" yaml:"scale_min"`
	ScaleMax *int     `json:"scale_max" yaml:"scale_max"`
}

type retrievalEntry struct {
	TopK                *int     `json:"top_k" yaml:"top_k"`
	UseNeighbors        *bool    `json:"use_neighbors" yaml:"use_neighbors"`
	SimilarityThreshold *float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
	DocumentTopK        *int     `json:"document_top_k" yaml:"document_top_k"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadAgents reads and validates an agents file. JSON is the primary
// format; .yaml and .yml files are decoded as YAML. Relative kb_refs are
// resolved against the file's directory and repeats are dropped. Every
// failure wraps domain.ErrAgentConfig.
func LoadAgents(path string) (domain.AgentsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AgentsConfig{}, fmt.Errorf("%w: %w", domain.ErrAgentConfig, err)
	}

	cfg, err := ParseAgents(data, filepath.Ext(path))
	if err != nil {
		return domain.AgentsConfig{}, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range cfg.Agents {
		for j, ref := range cfg.Agents[i].KBRefs {
			if !filepath.IsAbs(ref) {
				cfg.Agents[i].KBRefs[j] = filepath.Join(base, ref)
			}
		}
		if len(cfg.Agents[i].KBRefs) > 0 {
			cfg.Agents[i].KBRefs = cfg.Agents[i].KnowledgeRefs()
		}
	}
	return cfg, nil
}

// ParseAgents decodes and validates agents configuration bytes. ext selects
// the format (".json", ".yaml" or ".yml").
func ParseAgents(data []byte, ext string) (domain.AgentsConfig, error) {
	var raw agentsFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return domain.AgentsConfig{}, fmt.Errorf("%w: decode yaml: %w", domain.ErrAgentConfig, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return domain.AgentsConfig{}, fmt.Errorf("%w: decode json: %w", domain.ErrAgentConfig, err)
		}
	}

	var errs []error
	if err := validate.Struct(raw); err != nil {
		errs = append(errs, translate(err)...)
	}

	cfg := raw.toDomain()
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return domain.AgentsConfig{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (f agentsFile) toDomain() domain.AgentsConfig {
	cfg := domain.AgentsConfig{
		Model:        strings.TrimSpace(f.Model),
		MaxAgents:    domain.MaxAgents,
		GlobalRubric: strings.TrimSpace(f.GlobalRubric),
		Agents:       make([]domain.AgentProfile, 0, len(f.Agents)),
	}
	if f.MaxAgents != nil {
		cfg.MaxAgents = *f.MaxAgents
	}

	for _, a := range f.Agents {
		profile := domain.AgentProfile{
			Name:  strings.TrimSpace(a.Name),
			Tone:  a.Tone,
			Goals: a.Goals,
			Rubric: domain.Rubric{
				Criteria: a.Rubric.Criteria,
				ScaleMin: domain.DefaultScaleMin,
				ScaleMax: domain.DefaultScaleMax,
			},
			KBRefs:    a.KBRefs,
			Retrieval: domain.DefaultRetrievalSettings(),
		}
		if a.Rubric.ScaleMin != nil {
			profile.Rubric.ScaleMin = *a.Rubric.ScaleMin
		}
		if a.Rubric.ScaleMax != nil {
			profile.Rubric.ScaleMax = *a.Rubric.ScaleMax
		}
		if r := a.Retrieval; r != nil {
			if r.TopK != nil {
				profile.Retrieval.TopK = *r.TopK
			}
			if r.UseNeighbors != nil {
				profile.Retrieval.UseNeighbors = *r.UseNeighbors
			}
			if r.SimilarityThreshold != nil {
				profile.Retrieval.SimilarityThreshold = *r.SimilarityThreshold
			}
			if r.DocumentTopK != nil {
				profile.Retrieval.DocumentTopK = *r.DocumentTopK
			}
		}
		cfg.Agents = append(cfg.Agents, profile)
	}
	return cfg
}

// translate converts validator failures into domain validation errors.
func translate(err error) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{fmt.Errorf("%w: %w", domain.ErrAgentConfig, err)}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		out = append(out, &domain.ValidationError{Field: field, Reason: reason})
	}
	return out
}
