package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptReviewSystem: `You are {{.Name}}, a specialised document reviewer with expertise in evaluating written content.

Your reviewing style is: {{.Tone}}

Your primary goals are:
{{range .Goals}}- {{.}}
{{end}}
You have extensive experience in document review, with particular expertise in {{.Expertise}}. Your feedback is thorough, specific and actionable, and it preserves the author's intent and voice.

{{.Focus}}

When reviewing, use the provided context to inform your evaluation, apply the standards in any reference material you are given, and consider how the paragraph fits within the broader document.`,

	driven.PromptReviewTask: `TASK: Review and evaluate the paragraph below.

EVALUATION CRITERIA (rate each on a {{.ScaleMin}}-{{.ScaleMax}} scale):
{{range .Criteria}}- {{.}}
{{end}}{{if .GlobalRubric}}
GLOBAL RUBRIC:
{{.GlobalRubric}}
{{end}}{{if .Neighbors}}
SURROUNDING PARAGRAPHS:
{{range .Neighbors}}[{{.Label}}] {{.Text}}
{{end}}{{end}}{{if .Related}}
RELATED PASSAGES FROM THIS DOCUMENT:
{{range .Related}}[{{.Label}}, similarity {{printf "%.2f" .Similarity}}] {{.Text}}
{{end}}{{end}}{{if .Knowledge}}
KNOWLEDGE BASE:
{{range .Knowledge}}[{{.Ref}}, similarity {{printf "%.2f" .Similarity}}] {{.Text}}
{{end}}{{end}}
PARAGRAPH TO REVIEW (id {{.ParagraphID}}):
{{.Paragraph}}

INSTRUCTIONS:
1. Evaluate the paragraph against each criterion listed above.
2. Give a numerical score between {{.ScaleMin}} and {{.ScaleMax}} for each criterion.
3. Set overall_score to the average of your scores.
4. Explain your evaluation in comments.
5. Suggest a rewrite if any score is below {{.ScaleMax}}; otherwise use null.

OUTPUT FORMAT: respond with only a JSON object of this shape:
{
  "scores": { {{range $i, $c := .Criteria}}{{if $i}}, {{end}}"{{$c}}": <score>{{end}} },
  "overall_score": <average score>,
  "comments": "<specific, actionable explanation>",
  "suggested_rewrite": "<improved paragraph, or null>",
  "confidence": <0.0-1.0>
}`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.autoreview/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".autoreview", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# autoreview prompts

This directory contains the prompt templates used for every review call.

## Files

- ` + "`review_system.txt`" + ` - Reviewer persona (system message)
- ` + "`review_task.txt`" + ` - Per-paragraph review request

## Customisation

Edit either file to change how agents are prompted. Changes take effect on
the next run. Delete a file to restore the built-in default.

## Template Fields

Templates use Go text/template syntax.

review_system: ` + "`.Name`, `.Tone`, `.Goals`, `.Expertise`, `.Focus`" + `

review_task: ` + "`.Criteria`, `.ScaleMin`, `.ScaleMax`, `.GlobalRubric`, `.Neighbors`, `.Related`, `.Knowledge`, `.ParagraphID`, `.Paragraph`" + `

Fragments in ` + "`.Neighbors`, `.Related` and `.Knowledge`" + ` have ` + "`.Label`, `.Ref`, `.Text` and `.Similarity`" + `.

The response must stay a JSON object with scores for every criterion.
`
	return os.WriteFile(path, []byte(content), 0600)
}
