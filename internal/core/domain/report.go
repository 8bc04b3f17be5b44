package domain

// CriterionSummary is the document-level rollup for one criterion.
type CriterionSummary struct {
	// Mean is the mean over reporting agents of each agent's criterion mean.
	Mean float64 `json:"mean"`

	Min float64 `json:"min"`
	Max float64 `json:"max"`

	// Findings counts ok findings that reported the criterion.
	Findings int `json:"findings"`

	// Agents lists agents that reported the criterion at least once.
	Agents []string `json:"agents"`
}

// Rewrite is a proposed replacement anchored to a paragraph.
type Rewrite struct {
	AgentName  string  `json:"agent_name"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
}

// ParagraphReport holds every agent's findings for one paragraph.
type ParagraphReport struct {
	ParagraphID string `json:"paragraph_id"`
	Ordinal     int    `json:"ordinal"`
	Text        string `json:"text"`

	// Criteria maps criterion to the mean over agents that reported it.
	Criteria map[string]float64 `json:"criteria"`

	// OverallScore is the mean of ok findings' overall scores; nil when none.
	OverallScore *float64 `json:"overall_score"`

	StdDev     float64 `json:"std_dev"`
	HighScores int     `json:"high_scores"`
	LowScores  int     `json:"low_scores"`
	Succeeded  int     `json:"succeeded"`
	Failed     int     `json:"failed"`

	// Incomplete is set when no agent produced a usable finding.
	Incomplete bool `json:"incomplete"`

	BestRewrite *Rewrite        `json:"best_rewrite,omitempty"`
	Findings    []ReviewFinding `json:"findings"`
}

// AgentReport is one agent's sub-report.
type AgentReport struct {
	AgentName string `json:"agent_name"`
	ScaleMin  int    `json:"scale_min"`
	ScaleMax  int    `json:"scale_max"`

	// OverallScore is the mean of the agent's ok per-paragraph overall scores.
	OverallScore *float64 `json:"overall_score"`

	Criteria      map[string]float64 `json:"criteria"`
	AvgConfidence float64            `json:"avg_confidence"`
	Succeeded     int                `json:"succeeded"`
	Failed        int                `json:"failed"`
	HighScores    int                `json:"high_scores"`
	LowScores     int                `json:"low_scores"`
	Findings      []ReviewFinding    `json:"findings"`
}

// CommentRef points at one comment that fell into a category.
type CommentRef struct {
	AgentName   string `json:"agent_name"`
	ParagraphID string `json:"paragraph_id"`
	Comment     string `json:"comment"`
}

// ReportIssue is a reduce-time problem recorded on the report.
type ReportIssue struct {
	ParagraphID string `json:"paragraph_id,omitempty"`
	AgentName   string `json:"agent_name,omitempty"`
	Reason      string `json:"reason"`
}

// ConsolidatedReport is the terminal artefact of a run.
type ConsolidatedReport struct {
	RunID        string `json:"run_id"`
	DocumentPath string `json:"document_path"`
	DocumentHash string `json:"document_hash"`

	// OverallScore is the mean of agent overall scores; nil when no agent scored.
	OverallScore *float64 `json:"overall_score"`

	ScaleMin int `json:"scale_min"`
	ScaleMax int `json:"scale_max"`

	Criteria   map[string]CriterionSummary `json:"criteria"`
	Paragraphs []ParagraphReport           `json:"paragraphs"`
	Agents     []AgentReport               `json:"agents"`

	ExpectedFindings  int `json:"expected_findings"`
	SucceededFindings int `json:"succeeded_findings"`
	FailedFindings    int `json:"failed_findings"`

	// Complete is false when any paragraph could not be scored.
	Complete bool          `json:"complete"`
	Issues   []ReportIssue `json:"issues,omitempty"`

	Recommendations   []string                `json:"recommendations,omitempty"`
	CommentCategories map[string][]CommentRef `json:"comment_categories,omitempty"`
}

// Paragraph returns the report for the given paragraph ID.
func (r *ConsolidatedReport) Paragraph(id string) (*ParagraphReport, bool) {
	for i := range r.Paragraphs {
		if r.Paragraphs[i].ParagraphID == id {
			return &r.Paragraphs[i], true
		}
	}
	return nil, false
}

// Agent returns the sub-report for the named agent.
func (r *ConsolidatedReport) Agent(name string) (*AgentReport, bool) {
	for i := range r.Agents {
		if r.Agents[i].AgentName == name {
			return &r.Agents[i], true
		}
	}
	return nil, false
}
