package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/plain")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/release_notes-v2.txt",
		MIMEType: "text/plain",
		Content:  []byte("\ufeffFirst paragraph.\n\nSecond paragraph."),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "release notes v2", result.Title)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", result.Content)
}

func TestNormalise_LineEndingsAndTrailingSpace(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"windows", "One.\r\n\r\nTwo.", "One.\n\nTwo."},
		{"old mac", "One.\r\rTwo.", "One.\n\nTwo."},
		{"whitespace-only separator", "One.  \n \t \nTwo.\t", "One.\n\nTwo."},
		{"leading indent kept", "  Indented line.", "  Indented line."},
		{"underscores kept", "Set max_tokens via FOO_BAR.", "Set max_tokens via FOO_BAR."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "/a.txt", Content: []byte(tt.content)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Content)
		})
	}
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}
