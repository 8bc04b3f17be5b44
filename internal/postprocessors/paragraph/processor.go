// Package paragraph splits document text into content-addressed paragraphs.
package paragraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// RuleVersion identifies the splitting rule. Bump it whenever the rule changes.
const RuleVersion = "para-v1"

// DefaultMinLength drops fragments shorter than this many characters.
const DefaultMinLength = 10

// anchorNamespace scopes paragraph IDs.
var anchorNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/custodia-labs/autoreview/paragraph"))

var blankLine = regexp.MustCompile(`\n[ \t\f\v]*\n`)

// Processor splits text on blank lines.
// It implements the PostProcessor interface.
type Processor struct {
	minLength int
}

// Option configures the paragraph processor.
type Option func(*Processor)

// WithMinLength sets the minimum paragraph length in characters.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// New creates a new paragraph processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{minLength: DefaultMinLength}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "paragraph"
}

// Version returns the rule version including the minimum length.
func (p *Processor) Version() string {
	return fmt.Sprintf("%s/min%d", RuleVersion, p.minLength)
}

// Process splits text into paragraphs. Input paragraphs are ignored.
//
// Lines are normalised to LF, the text is split on blank lines, and runs of
// whitespace inside a paragraph collapse to a single space.
func (p *Processor) Process(ctx context.Context, text string, _ []domain.Paragraph) ([]domain.Paragraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrDocumentLoad)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	version := p.Version()
	var paragraphs []domain.Paragraph
	for _, block := range blankLine.Split(text, -1) {
		normalised := strings.Join(strings.Fields(block), " ")
		if normalised == "" || len([]rune(normalised)) < p.minLength {
			continue
		}
		paragraphs = append(paragraphs, Anchor(version, len(paragraphs), normalised))
	}

	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: no paragraphs of at least %d characters", domain.ErrDocumentLoad, p.minLength)
	}
	return paragraphs, nil
}

// Anchor builds a paragraph with its content hash and derived ID.
func Anchor(version string, ordinal int, text string) domain.Paragraph {
	hash := Hash(text)
	return domain.Paragraph{
		ID:          ID(version, ordinal, hash),
		Ordinal:     ordinal,
		Text:        text,
		ContentHash: hash,
	}
}

// Hash returns the hex SHA-256 of text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ID derives a stable anchor from the rule version, ordinal and content hash.
func ID(version string, ordinal int, contentHash string) string {
	name := version + "|" + strconv.Itoa(ordinal) + "|" + contentHash
	return uuid.NewSHA1(anchorNamespace, []byte(name)).String()
}
