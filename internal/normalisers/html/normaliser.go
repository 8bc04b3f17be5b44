package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to reviewable prose. Block elements
// become paragraphs separated by blank lines; preformatted blocks are dropped
// like markdown code fences.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	return &driven.NormaliseResult{
		Title:   extractHTMLTitle(content, raw.URI),
		Content: stripHTML(content),
	}, nil
}

var (
	titleTag = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	// Elements whose content is never prose.
	dropped = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<!--.*?-->`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?is)<template[^>]*>.*?</template>`),
	}
	preBlock = regexp.MustCompile(`(?is)<pre[^>]*>.*?</pre>`)

	blockTag = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|ul|ol|dl|dt|dd|tr|table|blockquote|section|article|header|footer|aside|nav|main|figure|figcaption|hr)(\s[^>]*)?/?>`)
	cellTag  = regexp.MustCompile(`(?i)</?(td|th)(\s[^>]*)?>`)
	brTag    = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag   = regexp.MustCompile(`<[^>]+>`)
	spaces   = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// extractHTMLTitle returns the <title> text, falling back to the file name.
func extractHTMLTitle(content, uri string) string {
	if m := titleTag.FindStringSubmatch(content); m != nil {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}
	return normalisers.TitleFromURI(uri)
}

// stripHTML reduces markup to text with one blank line between blocks.
func stripHTML(content string) string {
	for _, re := range dropped {
		content = re.ReplaceAllString(content, "")
	}
	content = preBlock.ReplaceAllString(content, "\n\n")

	content = blockTag.ReplaceAllString(content, "\n\n")
	content = cellTag.ReplaceAllString(content, " ")
	content = brTag.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	var out []string
	pending := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line == "" {
			pending = len(out) > 0
			continue
		}
		if pending {
			out = append(out, "")
			pending = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
