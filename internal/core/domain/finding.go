package domain

// FindingStatus is the outcome of one (agent, paragraph) review.
type FindingStatus string

// Finding statuses.
const (
	FindingOK     FindingStatus = "ok"
	FindingFailed FindingStatus = "failed"
)

// FailureKind classifies why a finding failed.
type FailureKind string

// Failure kinds recorded on failed findings.
const (
	// FailureTimeout means the run timeout and grace period expired first.
	FailureTimeout FailureKind = "timeout"

	// FailureCancelled means the caller cancelled the run.
	FailureCancelled FailureKind = "cancelled"

	// FailureAborted means dispatch stopped after a backend outage.
	FailureAborted FailureKind = "aborted"

	// FailureRetrieval means the retrieval context could not be built.
	FailureRetrieval FailureKind = "retrieval"

	// FailureMalformedResponse means the LLM output was unusable.
	FailureMalformedResponse FailureKind = "malformed_response"

	// FailureLLMUnavailable means transient failures exhausted the retry ceiling.
	FailureLLMUnavailable FailureKind = "llm_unavailable"

	// FailureMissing means no finding was produced for the pair.
	FailureMissing FailureKind = "missing"
)

// Failure describes why a finding failed.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// ReviewFinding is one agent's judgement of one paragraph. Immutable once produced.
type ReviewFinding struct {
	AgentName     string             `json:"agent_name"`
	ParagraphID   string             `json:"paragraph_id"`
	Ordinal       int                `json:"ordinal"`
	Scores        map[string]float64 `json:"scores,omitempty"`
	OverallScore  float64            `json:"overall_score"`
	Confidence    float64            `json:"confidence"`
	Comment       string             `json:"comment,omitempty"`
	RewrittenText string             `json:"rewritten_text,omitempty"`
	Status        FindingStatus      `json:"status"`
	Failure       *Failure           `json:"failure,omitempty"`
	Attempts      int                `json:"attempts"`
}

// OK reports whether the finding can be used for scoring.
func (f ReviewFinding) OK() bool {
	return f.Status == FindingOK
}

// FailedFinding builds a failed finding for the given pair.
func FailedFinding(agent string, p Paragraph, kind FailureKind, message string, attempts int) ReviewFinding {
	return ReviewFinding{
		AgentName:   agent,
		ParagraphID: p.ID,
		Ordinal:     p.Ordinal,
		Status:      FindingFailed,
		Failure:     &Failure{Kind: kind, Message: message},
		Attempts:    attempts,
	}
}
