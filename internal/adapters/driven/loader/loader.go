// Package loader reads documents from disk into ordered paragraphs.
//
// A file is typed by extension, falling back to content sniffing, then
// normalised to plain text and split by a paragraph pipeline.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/logger"
	"github.com/custodia-labs/autoreview/internal/postprocessors"
	"github.com/custodia-labs/autoreview/internal/postprocessors/paragraph"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// MIMEDocx is the Office Open XML word processing MIME type.
const MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".docx":     MIMEDocx,
}

// Loader implements driven.DocumentLoader for local files.
type Loader struct {
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
}

// Option configures a Loader.
type Option func(*Loader)

// WithRegistry replaces the default normaliser registry.
func WithRegistry(r driven.NormaliserRegistry) Option {
	return func(l *Loader) {
		l.registry = r
	}
}

// WithPipeline replaces the paragraph pipeline.
func WithPipeline(p driven.PostProcessorPipeline) Option {
	return func(l *Loader) {
		l.pipeline = p
	}
}

// New creates a loader with the built-in normalisers and the document
// paragraph pipeline.
func New(opts ...Option) *Loader {
	l := &Loader{
		registry: DefaultRegistry(),
		pipeline: postprocessors.DocumentPipeline(paragraph.DefaultMinLength),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ChunkingVersion returns the version stamped on loaded documents.
func (l *Loader) ChunkingVersion() string {
	return l.pipeline.Version()
}

// Load reads, normalises and splits the file at path.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentLoad, path, err)
	}

	mime := DetectMIME(path, content)
	logger.Debug("Loading %s as %s (%d bytes)", path, mime, len(content))

	result, err := l.registry.Normalise(ctx, &domain.RawDocument{
		URI:      path,
		MIMEType: mime,
		Content:  content,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDocumentLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentLoad, path, err)
	}

	paragraphs, err := l.pipeline.Process(ctx, result.Content)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentLoad) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentLoad, path, err)
	}

	sum := sha256.Sum256([]byte(result.Content))
	return &domain.Document{
		Path:            path,
		Title:           result.Title,
		Hash:            hex.EncodeToString(sum[:]),
		ChunkingVersion: l.pipeline.Version(),
		Paragraphs:      paragraphs,
	}, nil
}

// DetectMIME types a file by extension, then by sniffing its content.
// Sniffed parameters such as charset are dropped.
func DetectMIME(path string, content []byte) string {
	if mime, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	detected := mimetype.Detect(content).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return strings.TrimSpace(detected)
}
