package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/logger"
)

// Score bands, as a fraction of the rubric span.
const (
	highBand = 0.75
	lowBand  = 0.25
)

// Comment categories and their keywords, checked in order.
var commentCategories = []struct {
	name     string
	keywords []string
}{
	{"clarity", []string{"unclear", "confusing", "ambiguous", "vague", "complex", "convoluted", "jargon"}},
	{"accuracy", []string{"error", "incorrect", "inaccurate", "wrong", "outdated", "misleading", "false"}},
	{"structure", []string{"organization", "organisation", "structure", "flow", "order", "sequence", "transition"}},
	{"style", []string{"tone", "wordy", "verbose", "passive", "style", "grammar", "repetitive"}},
	{"completeness", []string{"missing", "add", "include", "expand", "detail", "example", "incomplete"}},
}

const generalCategory = "general"

// Synthesizer reduces findings into a consolidated report.
type Synthesizer struct{}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize verifies there is exactly one finding per (agent, paragraph)
// pair, then computes paragraph, agent and document rollups.
func (s *Synthesizer) Synthesize(
	runID string, doc *domain.Document, agents []domain.AgentProfile, findings []domain.ReviewFinding,
) *domain.ConsolidatedReport {
	logger.Section("Synthesis")

	report := &domain.ConsolidatedReport{
		RunID:             runID,
		DocumentPath:      doc.Path,
		DocumentHash:      doc.Hash,
		Criteria:          map[string]domain.CriterionSummary{},
		ExpectedFindings:  len(agents) * len(doc.Paragraphs),
		Complete:          true,
		CommentCategories: map[string][]domain.CommentRef{},
	}

	grid := s.verify(report, doc, agents, findings)

	report.ScaleMin, report.ScaleMax = documentScale(agents)
	for _, row := range grid {
		for _, f := range row {
			if f.OK() {
				report.SucceededFindings++
			} else {
				report.FailedFindings++
			}
		}
	}

	for pi, p := range doc.Paragraphs {
		pr := paragraphReport(p, agents, grid, pi)
		if pr.Incomplete {
			err := &domain.AggregationError{ParagraphID: p.ID, Reason: "no agent produced a usable finding"}
			report.Issues = append(report.Issues, domain.ReportIssue{ParagraphID: p.ID, Reason: err.Error()})
			report.Complete = false
		}
		report.Paragraphs = append(report.Paragraphs, pr)
	}

	for ai, a := range agents {
		report.Agents = append(report.Agents, agentReport(a, grid[ai]))
	}

	s.rollup(report)
	report.Recommendations = recommendations(report)
	categorise(report)

	logger.Debug("Findings: %d ok, %d failed of %d; complete=%t",
		report.SucceededFindings, report.FailedFindings, report.ExpectedFindings, report.Complete)
	return report
}

// verify builds the agent x paragraph grid, recording every anomaly as an issue.
func (s *Synthesizer) verify(
	report *domain.ConsolidatedReport, doc *domain.Document, agents []domain.AgentProfile, findings []domain.ReviewFinding,
) [][]domain.ReviewFinding {
	agentIdx := make(map[string]int, len(agents))
	for i, a := range agents {
		agentIdx[a.Name] = i
	}
	paraIdx := make(map[string]int, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		paraIdx[p.ID] = i
	}

	grid := make([][]domain.ReviewFinding, len(agents))
	seen := make([][]bool, len(agents))
	for i := range grid {
		grid[i] = make([]domain.ReviewFinding, len(doc.Paragraphs))
		seen[i] = make([]bool, len(doc.Paragraphs))
	}

	for _, f := range findings {
		ai, ok := agentIdx[f.AgentName]
		if !ok {
			report.Issues = append(report.Issues, domain.ReportIssue{
				ParagraphID: f.ParagraphID, AgentName: f.AgentName, Reason: "finding from unknown agent dropped",
			})
			continue
		}
		pi, ok := paraIdx[f.ParagraphID]
		if !ok {
			report.Issues = append(report.Issues, domain.ReportIssue{
				ParagraphID: f.ParagraphID, AgentName: f.AgentName, Reason: "finding for unknown paragraph dropped",
			})
			continue
		}
		if !seen[ai][pi] {
			grid[ai][pi], seen[ai][pi] = f, true
			continue
		}
		report.Issues = append(report.Issues, domain.ReportIssue{
			ParagraphID: f.ParagraphID, AgentName: f.AgentName, Reason: "duplicate finding",
		})
		if !grid[ai][pi].OK() && f.OK() {
			grid[ai][pi] = f
		}
	}

	for ai, a := range agents {
		for pi, p := range doc.Paragraphs {
			if seen[ai][pi] {
				continue
			}
			grid[ai][pi] = domain.FailedFinding(a.Name, p, domain.FailureMissing, "no finding produced", 0)
			report.Issues = append(report.Issues, domain.ReportIssue{
				ParagraphID: p.ID, AgentName: a.Name, Reason: "missing finding",
			})
		}
	}
	return grid
}

func paragraphReport(p domain.Paragraph, agents []domain.AgentProfile, grid [][]domain.ReviewFinding, pi int) domain.ParagraphReport {
	pr := domain.ParagraphReport{
		ParagraphID: p.ID,
		Ordinal:     p.Ordinal,
		Text:        p.Text,
		Criteria:    map[string]float64{},
	}

	criteria := map[string][]float64{}
	var overall []float64
	bestScore := math.Inf(-1)
	for ai, a := range agents {
		f := grid[ai][pi]
		pr.Findings = append(pr.Findings, f)
		if !f.OK() {
			pr.Failed++
			continue
		}
		pr.Succeeded++
		overall = append(overall, f.OverallScore)
		for c, v := range f.Scores {
			criteria[c] = append(criteria[c], v)
		}
		switch band(f.OverallScore, a.Rubric.ScaleMin, a.Rubric.ScaleMax) {
		case 1:
			pr.HighScores++
		case -1:
			pr.LowScores++
		}
		if f.RewrittenText != "" {
			if score := f.Confidence * f.OverallScore; score > bestScore {
				bestScore = score
				pr.BestRewrite = &domain.Rewrite{
					AgentName:  f.AgentName,
					Text:       f.RewrittenText,
					Confidence: f.Confidence,
					Score:      f.OverallScore,
				}
			}
		}
	}

	for c, vs := range criteria {
		pr.Criteria[c] = mean(vs)
	}
	if len(overall) == 0 {
		pr.Incomplete = true
		return pr
	}
	m := mean(overall)
	pr.OverallScore = &m
	pr.StdDev = stdDev(overall)
	return pr
}

func agentReport(a domain.AgentProfile, row []domain.ReviewFinding) domain.AgentReport {
	ar := domain.AgentReport{
		AgentName: a.Name,
		ScaleMin:  a.Rubric.ScaleMin,
		ScaleMax:  a.Rubric.ScaleMax,
		Criteria:  map[string]float64{},
		Findings:  append([]domain.ReviewFinding(nil), row...),
	}
	sort.SliceStable(ar.Findings, func(i, j int) bool { return ar.Findings[i].Ordinal < ar.Findings[j].Ordinal })

	criteria := map[string][]float64{}
	var overall, confidence []float64
	for _, f := range ar.Findings {
		if !f.OK() {
			ar.Failed++
			continue
		}
		ar.Succeeded++
		overall = append(overall, f.OverallScore)
		confidence = append(confidence, f.Confidence)
		for c, v := range f.Scores {
			criteria[c] = append(criteria[c], v)
		}
		switch band(f.OverallScore, a.Rubric.ScaleMin, a.Rubric.ScaleMax) {
		case 1:
			ar.HighScores++
		case -1:
			ar.LowScores++
		}
	}
	for c, vs := range criteria {
		ar.Criteria[c] = mean(vs)
	}
	if len(overall) > 0 {
		m := mean(overall)
		ar.OverallScore = &m
		ar.AvgConfidence = mean(confidence)
	}
	return ar
}

// rollup computes the document overall and per-criterion summaries from
// the agent sub-reports.
func (s *Synthesizer) rollup(report *domain.ConsolidatedReport) {
	var overall []float64
	agentMeans := map[string][]float64{}
	for _, ar := range report.Agents {
		if ar.OverallScore == nil {
			continue
		}
		overall = append(overall, *ar.OverallScore)
		for c, m := range ar.Criteria {
			agentMeans[c] = append(agentMeans[c], m)
		}
	}
	if len(overall) == 0 {
		report.Complete = false
		return
	}
	m := mean(overall)
	report.OverallScore = &m

	for c, means := range agentMeans {
		summary := domain.CriterionSummary{Mean: mean(means), Min: math.Inf(1), Max: math.Inf(-1)}
		for _, ar := range report.Agents {
			reported := false
			for _, f := range ar.Findings {
				v, ok := f.Scores[c]
				if !ok || !f.OK() {
					continue
				}
				reported = true
				summary.Findings++
				summary.Min = math.Min(summary.Min, v)
				summary.Max = math.Max(summary.Max, v)
			}
			if reported {
				summary.Agents = append(summary.Agents, ar.AgentName)
			}
		}
		report.Criteria[c] = summary
	}
}

func recommendations(r *domain.ConsolidatedReport) []string {
	if r.OverallScore == nil {
		return []string{"No agent produced a usable review; check the LLM backend and rerun."}
	}
	norm := func(v float64) float64 { return normalise(v, r.ScaleMin, r.ScaleMax) }

	var recs []string
	switch n := norm(*r.OverallScore); {
	case n < 0.5:
		recs = append(recs, "Consider a comprehensive revision focusing on the lowest-scoring criteria.")
	case n < highBand:
		recs = append(recs, "The document is good but could benefit from targeted improvements.")
	}

	names := make([]string, 0, len(r.Criteria))
	for c := range r.Criteria {
		names = append(names, c)
	}
	sort.Strings(names)
	worst := ""
	for _, c := range names {
		if worst == "" || r.Criteria[c].Mean < r.Criteria[worst].Mean {
			worst = c
		}
	}
	if worst != "" && norm(r.Criteria[worst].Mean) < 0.5 {
		recs = append(recs, fmt.Sprintf("Priority: address issues with %q (score %.2f).", worst, r.Criteria[worst].Mean))
	}

	for _, ar := range r.Agents {
		if ar.OverallScore != nil && norm(*ar.OverallScore) < 0.375 {
			recs = append(recs, fmt.Sprintf("%s raised significant concerns; review their specific feedback.", ar.AgentName))
		}
	}

	var flagged []string
	for _, pr := range r.Paragraphs {
		for _, f := range pr.Findings {
			if f.OK() && f.Confidence >= 0.8 && norm(f.OverallScore) <= lowBand {
				flagged = append(flagged, fmt.Sprintf("%d", pr.Ordinal+1))
				break
			}
		}
	}
	if len(flagged) > 0 {
		recs = append(recs, fmt.Sprintf("High-confidence reviews found serious issues in paragraph(s) %s; address these first.",
			strings.Join(flagged, ", ")))
	}
	return recs
}

// categorise buckets ok comments by keyword in paragraph order.
func categorise(r *domain.ConsolidatedReport) {
	for _, pr := range r.Paragraphs {
		for _, f := range pr.Findings {
			if !f.OK() || f.Comment == "" {
				continue
			}
			name := CommentCategory(f.Comment)
			r.CommentCategories[name] = append(r.CommentCategories[name], domain.CommentRef{
				AgentName:   f.AgentName,
				ParagraphID: f.ParagraphID,
				Comment:     f.Comment,
			})
		}
	}
}

// CommentCategory returns the first category whose keywords appear in comment.
func CommentCategory(comment string) string {
	words := strings.FieldsFunc(strings.ToLower(comment), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, cat := range commentCategories {
		for _, kw := range cat.keywords {
			for _, w := range words {
				if w == kw || w == kw+"s" || w == kw+"ed" || w == kw+"ing" || w == kw+"d" {
					return cat.name
				}
			}
		}
	}
	return generalCategory
}

func documentScale(agents []domain.AgentProfile) (int, int) {
	if len(agents) == 0 {
		return domain.DefaultScaleMin, domain.DefaultScaleMax
	}
	lo, hi := agents[0].Rubric.ScaleMin, agents[0].Rubric.ScaleMax
	for _, a := range agents[1:] {
		lo = min(lo, a.Rubric.ScaleMin)
		hi = max(hi, a.Rubric.ScaleMax)
	}
	return lo, hi
}

func normalise(v float64, lo, hi int) float64 {
	if hi <= lo {
		return 0
	}
	return (v - float64(lo)) / float64(hi-lo)
}

// band returns 1 for a high score, -1 for a low score and 0 otherwise.
func band(v float64, lo, hi int) int {
	switch n := normalise(v, lo, hi); {
	case n >= highBand:
		return 1
	case n <= lowBand:
		return -1
	default:
		return 0
	}
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// stdDev is the sample standard deviation; zero for fewer than two values.
func stdDev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := mean(vs)
	ss := 0.0
	for _, v := range vs {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}
