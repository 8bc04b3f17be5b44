package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the built-in default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Templates use text/template syntax.
const (
	// PromptReviewSystem is the reviewer persona. Fields: Name, Tone, Goals,
	// Expertise, Focus.
	PromptReviewSystem = "review_system"

	// PromptReviewTask is the per-paragraph review request. Fields: Criteria,
	// ScaleMin, ScaleMax, Neighbors, Related, Knowledge, GlobalRubric,
	// ParagraphID, Paragraph.
	PromptReviewTask = "review_task"
)
