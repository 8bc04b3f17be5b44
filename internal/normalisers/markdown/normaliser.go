package markdown

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to reviewable prose. Block
// structure becomes blank-line separated paragraphs; code blocks are dropped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.TrimPrefix(string(raw.Content), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	return &driven.NormaliseResult{
		Title:   extractMarkdownTitle(content, raw.URI),
		Content: stripMarkdown(content),
	}, nil
}

var (
	fenceLine    = regexp.MustCompile("^\\s{0,3}(`{3,}|~{3,})")
	headingLine  = regexp.MustCompile(`^\s{0,3}#{1,6}(\s+|$)`)
	closingHash  = regexp.MustCompile(`\s+#+\s*$`)
	setextLine   = regexp.MustCompile(`^\s{0,3}(=+|-+)\s*$`)
	ruleLine     = regexp.MustCompile(`^\s{0,3}([-*_])(\s*[-*_]){2,}\s*$`)
	quotePrefix  = regexp.MustCompile(`^\s{0,3}(>\s?)+`)
	bulletPrefix = regexp.MustCompile(`^\s*[-*+]\s+`)
	numberPrefix = regexp.MustCompile(`^\s*\d{1,9}[.)]\s+`)
	inlineCode   = regexp.MustCompile("`+([^`]+?)`+")
	image        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	link         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
)

// extractMarkdownTitle returns the first H1 heading, falling back to the
// file name.
func extractMarkdownTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(closingHash.ReplaceAllString(strings.TrimPrefix(line, "#"), ""))
		}
	}

	return normalisers.TitleFromURI(uri)
}

// stripMarkdown removes markdown syntax line by line and keeps one blank
// line between blocks.
func stripMarkdown(content string) string {
	var out []string
	fence := ""
	blank := func() {
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if m := fenceLine.FindStringSubmatch(line); m != nil {
			switch {
			case fence == "":
				fence = m[1]
				blank()
			case m[1][0] == fence[0] && len(m[1]) >= len(fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}

		switch {
		case strings.TrimSpace(line) == "", ruleLine.MatchString(line):
			blank()
			continue
		case setextLine.MatchString(line) && len(out) > 0 && out[len(out)-1] != "":
			// Underline of the heading on the previous line.
			continue
		}

		line = quotePrefix.ReplaceAllString(line, "")
		if headingLine.MatchString(line) {
			line = closingHash.ReplaceAllString(headingLine.ReplaceAllString(line, ""), "")
		}
		line = bulletPrefix.ReplaceAllString(line, "")
		line = numberPrefix.ReplaceAllString(line, "")

		line = strings.TrimSpace(stripInline(line))
		if line == "" {
			blank()
			continue
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// stripInline unwraps code spans, links and emphasis. Code span contents
// are kept verbatim.
func stripInline(line string) string {
	var b strings.Builder
	last := 0
	for _, m := range inlineCode.FindAllStringSubmatchIndex(line, -1) {
		b.WriteString(stripProse(line[last:m[0]]))
		b.WriteString(line[m[2]:m[3]])
		last = m[1]
	}
	b.WriteString(stripProse(line[last:]))
	return b.String()
}

func stripProse(s string) string {
	s = image.ReplaceAllString(s, "")
	s = link.ReplaceAllString(s, "$1")
	return stripEmphasis(s)
}

type delimiterRun struct {
	start, end  int
	ch          rune
	open, close bool
}

// stripEmphasis removes * and _ runs that pair up as emphasis. An
// underscore run only opens or closes at a word boundary, so identifiers
// such as snake_case survive; unpaired runs are kept.
func stripEmphasis(s string) string {
	rs := []rune(s)
	var runs []delimiterRun
	for i := 0; i < len(rs); {
		ch := rs[i]
		if ch != '*' && ch != '_' {
			i++
			continue
		}
		j := i
		for j < len(rs) && rs[j] == ch {
			j++
		}
		prev, next := ' ', ' '
		if i > 0 {
			prev = rs[i-1]
		}
		if j < len(rs) {
			next = rs[j]
		}
		r := delimiterRun{start: i, end: j, ch: ch,
			open:  !unicode.IsSpace(next),
			close: !unicode.IsSpace(prev),
		}
		if ch == '_' {
			r.open = r.open && !isWord(prev)
			r.close = r.close && !isWord(next)
		}
		runs = append(runs, r)
		i = j
	}

	drop := make([]bool, len(rs))
	var openers []int
	for k, r := range runs {
		matched := false
		if r.close {
			for o := len(openers) - 1; o >= 0; o-- {
				op := runs[openers[o]]
				if op.ch == r.ch && op.end-op.start == r.end-r.start {
					for x := op.start; x < op.end; x++ {
						drop[x] = true
					}
					for x := r.start; x < r.end; x++ {
						drop[x] = true
					}
					openers = openers[:o]
					matched = true
					break
				}
			}
		}
		if !matched && r.open {
			openers = append(openers, k)
		}
	}

	var b strings.Builder
	for i, c := range rs {
		if !drop[i] {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
