package file

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// agentView is the data for agent.md.tmpl.
type agentView struct {
	Run   *domain.RunResult
	Agent *domain.AgentReport
}

var funcs = template.FuncMap{
	"score":    formatScore,
	"num":      func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"base":     filepath.Base,
	"quote":    quoteBlock,
	"verdict":  verdict,
	"join":     strings.Join,
	"add":      func(a, b int) int { return a + b },
	"failure":  failureText,
	"short":    shortID,
	"criteria": criterionNames,
}

func formatScore(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// quoteBlock prefixes every line with "> ".
func quoteBlock(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return "> " + strings.Join(lines, "\n> ")
}

// verdict grades the document overall against its scale.
func verdict(r *domain.ConsolidatedReport) string {
	if r.OverallScore == nil {
		return "Not scored: no agent produced a usable finding."
	}
	span := float64(r.ScaleMax - r.ScaleMin)
	if span <= 0 {
		return "Not scored: invalid scale."
	}
	n := (*r.OverallScore - float64(r.ScaleMin)) / span
	switch {
	case n >= 0.75:
		return "Excellent. The document meets a high standard across most criteria."
	case n >= 0.5:
		return "Good. The document is solid but has areas for improvement."
	case n >= 0.25:
		return "Fair. The document needs significant improvement."
	default:
		return "Poor. The document requires major revision."
	}
}

func failureText(f *domain.Failure) string {
	if f == nil {
		return "failed"
	}
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// criterionNames lists a finding's scored criteria in sorted order.
func criterionNames(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for k := range scores {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
