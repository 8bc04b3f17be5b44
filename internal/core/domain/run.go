package domain

import "time"

// RunStatus summarises how a run ended.
type RunStatus string

// Run statuses.
const (
	// RunComplete means every pair was attempted and the report is complete.
	RunComplete RunStatus = "complete"

	// RunPartial means dispatch stopped early or some paragraphs have no score.
	RunPartial RunStatus = "partial"
)

// Abort reasons recorded when dispatch stops early.
const (
	AbortTimeout            = "timeout"
	AbortCancelled          = "cancelled"
	AbortBackendUnavailable = "backend_unavailable"
)

// RunMetadata is the deterministic description of a run. It carries no
// wall-clock values so reruns on unchanged input serialise identically.
type RunMetadata struct {
	RunID              string    `json:"run_id"`
	DocumentPath       string    `json:"document_path"`
	DocumentTitle      string    `json:"document_title,omitempty"`
	DocumentHash       string    `json:"document_hash"`
	ChunkingVersion    string    `json:"chunking_version"`
	Model              string    `json:"model"`
	EmbeddingNamespace string    `json:"embedding_namespace"`
	Agents             []string  `json:"agents"`
	ParagraphCount     int       `json:"paragraph_count"`
	Status             RunStatus `json:"status"`
	AbortReason        string    `json:"abort_reason,omitempty"`
	ExpectedFindings   int       `json:"expected_findings"`
	Succeeded          int       `json:"succeeded"`
	Failed             int       `json:"failed"`
}

// RunStats holds wall-clock measurements. Kept out of run.json.
type RunStats struct {
	StartedAt   time.Time
	Duration    time.Duration
	LLMCalls    int64
	CacheHits   int
	CacheMisses int
	KBFragments map[string]int
}

// RunResult is everything a run produces.
type RunResult struct {
	Metadata RunMetadata
	Document *Document
	Findings []ReviewFinding
	Report   *ConsolidatedReport
	Stats    RunStats

	// OutputDir is where outputs were written, empty when not written.
	OutputDir string
}

// Partial reports whether the run should be surfaced as incomplete.
func (r *RunResult) Partial() bool {
	return r.Metadata.Status == RunPartial
}
