// Package file writes run outputs to a directory on disk.
package file

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/logger"
)

// Ensure Writer implements the interface.
var _ driven.ReportWriter = (*Writer)(nil)

// Output file names.
const (
	RunFile          = "run.json"
	ConsolidatedFile = "consolidated.json"
	ReportFile       = "review_report.md"
)

// ErrExists is returned when an output file already exists and force is off.
var ErrExists = errors.New("output file already exists")

//go:embed templates/*.md.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.md.tmpl"))

// Writer writes run.json, per-agent JSONL, consolidated.json and optional markdown.
type Writer struct {
	markdown bool
	force    bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithMarkdown enables the per-agent and overall markdown reports.
func WithMarkdown(enabled bool) Option {
	return func(w *Writer) { w.markdown = enabled }
}

// WithForce allows existing output files to be replaced.
func WithForce(enabled bool) Option {
	return func(w *Writer) { w.force = enabled }
}

// NewWriter creates a report writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// runDocument is the on-disk shape of run.json.
type runDocument struct {
	Metadata domain.RunMetadata     `json:"metadata"`
	Findings []domain.ReviewFinding `json:"findings"`
}

type output struct {
	name   string
	render func() ([]byte, error)
}

// Write renders every output in memory, checks for collisions, then writes
// them under dir. Nothing is written when any target already exists.
func (w *Writer) Write(ctx context.Context, dir string, result *domain.RunResult) ([]string, error) {
	if result == nil || result.Report == nil {
		return nil, fmt.Errorf("%w: no run result to write", domain.ErrInvalidInput)
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: output directory is required", domain.ErrInvalidInput)
	}

	outputs := w.plan(result)

	rendered := make(map[string][]byte, len(outputs))
	for _, out := range outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := out.render()
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", out.name, err)
		}
		rendered[out.name] = data
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if !w.force {
		for _, out := range outputs {
			path := filepath.Join(dir, out.name)
			if _, err := os.Stat(path); err == nil {
				return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
		}
	}

	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := os.WriteFile(path, rendered[out.name], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("Wrote %s (%d bytes)", path, len(rendered[out.name]))
		paths = append(paths, path)
	}
	return paths, nil
}

// plan lists outputs in a fixed order.
func (w *Writer) plan(result *domain.RunResult) []output {
	outputs := []output{
		{RunFile, func() ([]byte, error) {
			findings := result.Findings
			if findings == nil {
				findings = []domain.ReviewFinding{}
			}
			return marshalJSON(runDocument{Metadata: result.Metadata, Findings: findings})
		}},
	}

	names := AgentFileNames(result.Metadata.Agents)
	for _, agent := range result.Metadata.Agents {
		base := names[agent]
		outputs = append(outputs, output{base + ".jsonl", func() ([]byte, error) {
			return marshalJSONL(findingsFor(result, agent))
		}})
	}

	outputs = append(outputs, output{ConsolidatedFile, func() ([]byte, error) {
		return marshalJSON(result.Report)
	}})

	if !w.markdown {
		return outputs
	}
	for _, agent := range result.Metadata.Agents {
		base := names[agent]
		outputs = append(outputs, output{base + ".md", func() ([]byte, error) {
			report, ok := result.Report.Agent(agent)
			if !ok {
				return nil, fmt.Errorf("%w: no sub-report for agent %q", domain.ErrNotFound, agent)
			}
			return render("agent.md.tmpl", agentView{Run: result, Agent: report})
		}})
	}
	outputs = append(outputs, output{ReportFile, func() ([]byte, error) {
		return render("report.md.tmpl", result)
	}})
	return outputs
}

func findingsFor(result *domain.RunResult, agent string) []domain.ReviewFinding {
	var out []domain.ReviewFinding
	for _, f := range result.Findings {
		if f.AgentName == agent {
			out = append(out, f)
		}
	}
	return out
}

// AgentFileNames maps agent names to unique, filesystem-safe base names.
func AgentFileNames(agents []string) map[string]string {
	names := make(map[string]string, len(agents))
	used := make(map[string]bool, len(agents))
	for _, agent := range agents {
		base := SanitizeName(agent)
		candidate := base
		for i := 2; used[strings.ToLower(candidate)] || reserved(candidate); i++ {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		used[strings.ToLower(candidate)] = true
		names[agent] = candidate
	}
	return names
}

// SanitizeName keeps letters, digits, '-' and '_', and turns spaces into underscores.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "agent"
	}
	return b.String()
}

// reserved guards names that would collide with the fixed outputs.
func reserved(base string) bool {
	switch strings.ToLower(base) {
	case "run", "consolidated", "review_report":
		return true
	}
	return false
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalJSONL(findings []domain.ReviewFinding) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, f := range findings {
		if err := enc.Encode(f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
