package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// DefaultConfidence is used when the model omits a confidence value.
const DefaultConfidence = 0.8

// overallTolerance is how far the model's overall score may drift from the
// mean of its criterion scores before it is logged as inconsistent.
const overallTolerance = 0.01

// ParsedReview is the usable content of one LLM review response.
type ParsedReview struct {
	Scores        map[string]float64
	OverallScore  float64
	Confidence    float64
	Comment       string
	RewrittenText string

	// ReportedOverall is the model's own overall score, NaN when absent.
	ReportedOverall float64
}

// ParseReview extracts a review from raw model output for the given rubric.
// Any structural or range problem is an ErrMalformedResponse.
func ParseReview(raw string, rubric domain.Rubric, paragraph string) (*ParsedReview, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	doc := gjson.Parse(body)

	scores, err := parseScores(doc.Get("scores"), rubric)
	if err != nil {
		return nil, err
	}

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	review := &ParsedReview{
		Scores:          scores,
		OverallScore:    sum / float64(len(scores)),
		Confidence:      DefaultConfidence,
		ReportedOverall: math.NaN(),
	}

	if v, ok := number(doc.Get("overall_score")); ok {
		review.ReportedOverall = v
	}
	if v, ok := number(doc.Get("confidence")); ok {
		review.Confidence = math.Max(0, math.Min(1, v))
	}

	review.Comment = firstString(doc, "comments", "comment")
	rewrite := firstString(doc, "suggested_rewrite", "rewritten_text")
	if !isPlaceholder(rewrite) && collapse(rewrite) != collapse(paragraph) {
		review.RewrittenText = rewrite
	}

	return review, nil
}

// OverallConsistent reports whether the model's overall matched its scores.
func (r *ParsedReview) OverallConsistent() bool {
	return math.IsNaN(r.ReportedOverall) || math.Abs(r.ReportedOverall-r.OverallScore) <= overallTolerance
}

// extractJSON strips code fences and returns the outermost object.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
		if j := strings.LastIndex(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in response", domain.ErrMalformedResponse)
	}
	body := s[start : end+1]
	if !gjson.Valid(body) {
		return "", fmt.Errorf("%w: response is not valid JSON", domain.ErrMalformedResponse)
	}
	return body, nil
}

// parseScores keeps scores for rubric criteria only, matching names
// case-insensitively when there is no exact match.
func parseScores(node gjson.Result, rubric domain.Rubric) (map[string]float64, error) {
	if !node.IsObject() {
		return nil, fmt.Errorf("%w: scores must be an object", domain.ErrMalformedResponse)
	}

	canonical := make(map[string]string, len(rubric.Criteria))
	for _, c := range rubric.Criteria {
		canonical[strings.ToLower(strings.TrimSpace(c))] = c
	}

	scores := make(map[string]float64)
	var rangeErr error
	node.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if !rubric.HasCriterion(name) {
			c, ok := canonical[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return true
			}
			name = c
		}
		if _, seen := scores[name]; seen {
			return true
		}

		v, ok := number(value)
		switch {
		case !ok:
			rangeErr = fmt.Errorf("%w: score for %q is not a finite number", domain.ErrMalformedResponse, name)
		case v < float64(rubric.ScaleMin) || v > float64(rubric.ScaleMax):
			rangeErr = fmt.Errorf("%w: score %g for %q outside %d-%d",
				domain.ErrMalformedResponse, v, name, rubric.ScaleMin, rubric.ScaleMax)
		default:
			scores[name] = v
			return true
		}
		return false
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no scores for rubric criteria", domain.ErrMalformedResponse)
	}
	return scores, nil
}

// number accepts finite JSON numbers and numeric strings. "NaN" and
// "Inf" strings parse but are treated as absent.
func number(r gjson.Result) (float64, bool) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		var err error
		if v, err = strconv.ParseFloat(strings.TrimSpace(r.Str), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func firstString(doc gjson.Result, keys ...string) string {
	for _, k := range keys {
		if r := doc.Get(k); r.Type == gjson.String {
			if s := strings.TrimSpace(r.Str); s != "" {
				return s
			}
		}
	}
	return ""
}

func isPlaceholder(s string) bool {
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a":
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
