package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

func okFinding(agent string, p domain.Paragraph, scores map[string]float64) domain.ReviewFinding {
	return domain.ReviewFinding{
		AgentName:    agent,
		ParagraphID:  p.ID,
		Ordinal:      p.Ordinal,
		Scores:       scores,
		OverallScore: mean(values(scores)),
		Confidence:   0.9,
		Status:       domain.FindingOK,
		Attempts:     1,
	}
}

func values(m map[string]float64) []float64 {
	out := make([]float64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func TestSynthesize_DisjointCriteria(t *testing.T) {
	doc := testDocument("P0 text.", "P1 text.", "P2 text.")
	agents := []domain.AgentProfile{testAgent("A", "Accuracy", "Clarity"), testAgent("B", "Accuracy", "Depth")}

	var findings []domain.ReviewFinding
	for _, p := range doc.Paragraphs {
		findings = append(findings, okFinding("A", p, map[string]float64{"Accuracy": 4, "Clarity": 3}))
	}
	for _, p := range doc.Paragraphs {
		findings = append(findings, okFinding("B", p, map[string]float64{"Accuracy": 4, "Depth": 5}))
	}

	r := NewSynthesizer().Synthesize("run-1", doc, agents, findings)

	assert.True(t, r.Complete)
	assert.Empty(t, r.Issues)
	assert.Equal(t, 6, r.ExpectedFindings)
	assert.Equal(t, 6, r.SucceededFindings)
	assert.Equal(t, 0, r.FailedFindings)

	require.Len(t, r.Criteria, 3)
	assert.InDelta(t, 4.0, r.Criteria["Accuracy"].Mean, 1e-9)
	assert.InDelta(t, 3.0, r.Criteria["Clarity"].Mean, 1e-9)
	assert.InDelta(t, 5.0, r.Criteria["Depth"].Mean, 1e-9)
	assert.Equal(t, []string{"A", "B"}, r.Criteria["Accuracy"].Agents)
	assert.Equal(t, []string{"A"}, r.Criteria["Clarity"].Agents)
	assert.Equal(t, 6, r.Criteria["Accuracy"].Findings)
	assert.Equal(t, 3, r.Criteria["Depth"].Findings)

	require.NotNil(t, r.OverallScore)
	assert.InDelta(t, 4.0, *r.OverallScore, 1e-9, "mean of agent overalls 3.5 and 4.5")

	pr := r.Paragraphs[1]
	assert.Equal(t, map[string]float64{"Accuracy": 4, "Clarity": 3, "Depth": 5}, pr.Criteria)
	require.NotNil(t, pr.OverallScore)
	assert.InDelta(t, 4.0, *pr.OverallScore, 1e-9)
	assert.InDelta(t, 0.7071, pr.StdDev, 1e-4)
	assert.Equal(t, 2, pr.Succeeded)

	a, ok := r.Agent("A")
	require.True(t, ok)
	assert.InDelta(t, 3.5, *a.OverallScore, 1e-9)
	assert.InDelta(t, 0.9, a.AvgConfidence, 1e-9)
	assert.Equal(t, 3, a.Succeeded)
}

func TestSynthesize_MissingDuplicateAndUnknown(t *testing.T) {
	doc := testDocument("P0 text.", "P1 text.")
	agents := []domain.AgentProfile{testAgent("A", "Accuracy")}
	p0 := doc.Paragraphs[0]

	failed := domain.FailedFinding("A", p0, domain.FailureMalformedResponse, "bad", 1)
	findings := []domain.ReviewFinding{
		failed,
		okFinding("A", p0, map[string]float64{"Accuracy": 2}),
		okFinding("A", p0, map[string]float64{"Accuracy": 5}),
		okFinding("Ghost", p0, map[string]float64{"Accuracy": 5}),
		{AgentName: "A", ParagraphID: "nowhere", Status: domain.FindingOK},
	}

	r := NewSynthesizer().Synthesize("run-1", doc, agents, findings)

	reasons := map[string]int{}
	for _, is := range r.Issues {
		reasons[is.Reason]++
	}
	assert.Equal(t, 2, reasons["duplicate finding"])
	assert.Equal(t, 1, reasons["finding from unknown agent dropped"])
	assert.Equal(t, 1, reasons["finding for unknown paragraph dropped"])
	assert.Equal(t, 1, reasons["missing finding"])

	pr := r.Paragraphs[0]
	require.Len(t, pr.Findings, 1)
	assert.True(t, pr.Findings[0].OK(), "first ok duplicate replaces the failed one")
	assert.Equal(t, 2.0, pr.Findings[0].Scores["Accuracy"])

	missing := r.Paragraphs[1]
	assert.Equal(t, domain.FailureMissing, missing.Findings[0].Failure.Kind)
	assert.True(t, missing.Incomplete)
	assert.Nil(t, missing.OverallScore)
	assert.False(t, r.Complete)
	assert.Equal(t, 1, r.SucceededFindings)
	assert.Equal(t, 1, r.FailedFindings)
}

func TestSynthesize_IncompleteParagraph(t *testing.T) {
	doc := testDocument("P0 text.", "P1 text.")
	agents := []domain.AgentProfile{testAgent("A", "Accuracy"), testAgent("B", "Accuracy")}
	p0, p1 := doc.Paragraphs[0], doc.Paragraphs[1]

	findings := []domain.ReviewFinding{
		okFinding("A", p0, map[string]float64{"Accuracy": 4}),
		domain.FailedFinding("A", p1, domain.FailureTimeout, "", 0),
		okFinding("B", p0, map[string]float64{"Accuracy": 2}),
		domain.FailedFinding("B", p1, domain.FailureLLMUnavailable, "", 4),
	}
	r := NewSynthesizer().Synthesize("run-1", doc, agents, findings)

	assert.False(t, r.Complete)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, p1.ID, r.Issues[0].ParagraphID)
	assert.True(t, r.Paragraphs[1].Incomplete)
	assert.Equal(t, 2, r.Paragraphs[1].Failed)
	assert.False(t, r.Paragraphs[0].Incomplete)

	require.NotNil(t, r.OverallScore)
	assert.InDelta(t, 3.0, *r.OverallScore, 1e-9)
}

func TestSynthesize_NoUsableFindings(t *testing.T) {
	doc := testDocument("P0 text.")
	agents := []domain.AgentProfile{testAgent("A", "Accuracy")}
	findings := []domain.ReviewFinding{domain.FailedFinding("A", doc.Paragraphs[0], domain.FailureAborted, "", 0)}

	r := NewSynthesizer().Synthesize("run-1", doc, agents, findings)

	assert.False(t, r.Complete)
	assert.Nil(t, r.OverallScore)
	assert.Empty(t, r.Criteria)
	require.Len(t, r.Recommendations, 1)
	assert.Contains(t, r.Recommendations[0], "No agent produced a usable review")
}

func TestSynthesize_BestRewrite(t *testing.T) {
	doc := testDocument("P0 text.")
	p := doc.Paragraphs[0]
	agents := []domain.AgentProfile{testAgent("A", "Accuracy"), testAgent("B", "Accuracy"), testAgent("C", "Accuracy")}

	a := okFinding("A", p, map[string]float64{"Accuracy": 4})
	a.RewrittenText, a.Confidence = "Rewrite A.", 0.5
	b := okFinding("B", p, map[string]float64{"Accuracy": 2})
	b.RewrittenText, b.Confidence = "Rewrite B.", 1.0
	c := okFinding("C", p, map[string]float64{"Accuracy": 5})
	c.Confidence = 1.0

	r := NewSynthesizer().Synthesize("run-1", doc, agents, []domain.ReviewFinding{a, b, c})

	best := r.Paragraphs[0].BestRewrite
	require.NotNil(t, best)
	assert.Equal(t, "A", best.AgentName, "ties on confidence x score keep agent order")
	assert.Equal(t, "Rewrite A.", best.Text)
	assert.Equal(t, 4.0, best.Score)
}

func TestSynthesize_HighLowBands(t *testing.T) {
	doc := testDocument("P0 text.")
	p := doc.Paragraphs[0]
	agents := []domain.AgentProfile{testAgent("A", "Accuracy"), testAgent("B", "Accuracy"), testAgent("C", "Accuracy")}
	findings := []domain.ReviewFinding{
		okFinding("A", p, map[string]float64{"Accuracy": 5}),
		okFinding("B", p, map[string]float64{"Accuracy": 1}),
		okFinding("C", p, map[string]float64{"Accuracy": 3}),
	}
	r := NewSynthesizer().Synthesize("run-1", doc, agents, findings)

	pr := r.Paragraphs[0]
	assert.Equal(t, 1, pr.HighScores)
	assert.Equal(t, 1, pr.LowScores)
	assert.InDelta(t, 2.0, pr.StdDev, 1e-9)

	ar, _ := r.Agent("B")
	assert.Equal(t, 1, ar.LowScores)
}

func TestSynthesize_Recommendations(t *testing.T) {
	doc := testDocument("P0 text.", "P1 text.")
	agents := []domain.AgentProfile{testAgent("A", "Accuracy", "Clarity")}
	findings := []domain.ReviewFinding{
		okFinding("A", doc.Paragraphs[0], map[string]float64{"Accuracy": 1, "Clarity": 2}),
		okFinding("A", doc.Paragraphs[1], map[string]float64{"Accuracy": 2, "Clarity": 3}),
	}
	r := NewSynthesizer().Synthesize("run-1", doc, agents, findings)

	require.Len(t, r.Recommendations, 4)
	assert.Contains(t, r.Recommendations[0], "comprehensive revision")
	assert.Contains(t, r.Recommendations[1], `"Accuracy"`)
	assert.Contains(t, r.Recommendations[2], "A raised significant concerns")
	assert.Contains(t, r.Recommendations[3], "paragraph(s) 1;")
}

func TestSynthesize_GoodDocumentHasNoRecommendations(t *testing.T) {
	doc := testDocument("P0 text.")
	agents := []domain.AgentProfile{testAgent("A", "Accuracy")}
	r := NewSynthesizer().Synthesize("run-1", doc, agents,
		[]domain.ReviewFinding{okFinding("A", doc.Paragraphs[0], map[string]float64{"Accuracy": 5})})

	assert.Empty(t, r.Recommendations)
}

func TestSynthesize_CommentCategories(t *testing.T) {
	doc := testDocument("P0 text.", "P1 text.")
	agents := []domain.AgentProfile{testAgent("A", "Accuracy"), testAgent("B", "Accuracy")}

	f := func(agent string, p domain.Paragraph, comment string) domain.ReviewFinding {
		out := okFinding(agent, p, map[string]float64{"Accuracy": 3})
		out.Comment = comment
		return out
	}
	findings := []domain.ReviewFinding{
		f("A", doc.Paragraphs[0], "The claim is incorrect."),
		f("A", doc.Paragraphs[1], "Nicely done."),
		f("B", doc.Paragraphs[0], "Sentence two is confusing."),
		f("B", doc.Paragraphs[1], "The second claim is wrong."),
	}
	r := NewSynthesizer().Synthesize("run-1", doc, agents, findings)

	require.Len(t, r.CommentCategories["accuracy"], 2)
	assert.Equal(t, "A", r.CommentCategories["accuracy"][0].AgentName, "paragraph order, then agent order")
	assert.Equal(t, doc.Paragraphs[1].ID, r.CommentCategories["accuracy"][1].ParagraphID)
	assert.Len(t, r.CommentCategories["clarity"], 1)
	assert.Len(t, r.CommentCategories["general"], 1)
}

func TestCommentCategory(t *testing.T) {
	tests := []struct {
		comment string
		want    string
	}{
		{"This is unclear.", "clarity"},
		{"Too much JARGON here", "clarity"},
		{"The date is outdated", "accuracy"},
		{"Contains errors", "accuracy"},
		{"The flow between sentences is abrupt", "structure"},
		{"Very wordy", "style"},
		{"Add an example", "completeness"},
		{"Includes nothing about limits", "completeness"},
		{"Great paragraph", "general"},
		{"The address is fine", "general"},
		{"", "general"},
	}
	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			assert.Equal(t, tt.want, CommentCategory(tt.comment))
		})
	}
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, stdDev(nil))
	assert.Equal(t, 0.0, stdDev([]float64{3}))
	assert.InDelta(t, 1.0, stdDev([]float64{2, 3, 4}), 1e-9)
}
