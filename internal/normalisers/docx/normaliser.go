package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

const (
	bodyPart = "word/document.xml"
	corePart = "docProps/core.xml"
)

// Normalise extracts the text of a DOCX document. Every Word paragraph,
// including those inside tables, becomes a blank-line separated block.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	body, err := readPart(archive, bodyPart)
	if err != nil {
		return nil, err
	}
	content, err := paragraphs(body)
	if err != nil {
		return nil, err
	}

	return &driven.NormaliseResult{
		Title:   documentTitle(archive, raw.URI),
		Content: content,
	}, nil
}

// readPart returns the bytes of one archive member, or nil when the member
// is absent.
func readPart(archive *zip.Reader, name string) ([]byte, error) {
	f, err := archive.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidInput, name, err)
	}
	return data, nil
}

// paragraphs walks the WordprocessingML token stream. Text comes only from
// w:t elements; w:tab becomes a space and w:br a line break.
func paragraphs(body []byte) (string, error) {
	if len(body) == 0 {
		return "", nil
	}

	var (
		blocks []string
		line   strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, bodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte(' ')
			case "br", "cr":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(line.String()); text != "" {
					blocks = append(blocks, text)
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}

	return strings.Join(blocks, "\n\n"), nil
}

// documentTitle reads dc:title from the core properties, falling back to
// the file name.
func documentTitle(archive *zip.Reader, uri string) string {
	data, err := readPart(archive, corePart)
	if err == nil && len(data) > 0 {
		var core struct {
			Title string `xml:"title"`
		}
		if xml.Unmarshal(data, &core) == nil {
			if title := strings.TrimSpace(core.Title); title != "" {
				return title
			}
		}
	}
	return normalisers.TitleFromURI(uri)
}
