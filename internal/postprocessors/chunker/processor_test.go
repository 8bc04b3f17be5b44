package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_NameAndVersion(t *testing.T) {
	p := New(WithChunkSize(500), WithOverlap(50))
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
	if p.Version() != "window-500-50" {
		t.Errorf("unexpected version %q", p.Version())
	}
}

func TestProcessor_Process_Empty(t *testing.T) {
	out, err := New().Process(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no fragments, got %d", len(out))
	}
}

func TestProcessor_Process_ShortParagraphsPassThrough(t *testing.T) {
	in := []domain.Paragraph{{Text: "alpha beta"}, {Text: "gamma delta"}}
	out, err := New(WithChunkSize(100), WithOverlap(20)).Process(context.Background(), "", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(out))
	}
	for i, para := range out {
		if para.Text != in[i].Text {
			t.Errorf("fragment %d text changed: %q", i, para.Text)
		}
		if para.Ordinal != i || para.ID == "" || para.ContentHash == "" {
			t.Errorf("fragment %d not anchored: %+v", i, para)
		}
	}
}

func TestProcessor_Process_WindowsWithOverlap(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("lorem ipsum ", 50))
	in := []domain.Paragraph{{Text: text}}
	out, err := New(WithChunkSize(100), WithOverlap(20)).Process(context.Background(), "", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) < 6 {
		t.Fatalf("expected at least 6 windows, got %d", len(out))
	}

	seen := make(map[string]bool)
	for i, para := range out {
		if len([]rune(para.Text)) > 100 {
			t.Errorf("window %d too long: %d", i, len(para.Text))
		}
		if seen[para.ID] {
			t.Errorf("duplicate fragment ID: %s", para.ID)
		}
		seen[para.ID] = true
	}
	if !strings.HasSuffix(text, out[len(out)-1].Text) {
		t.Errorf("last window should end the text, got %q", out[len(out)-1].Text)
	}
}

func TestProcessor_Process_UnicodeSafe(t *testing.T) {
	text := strings.Repeat("é", 250)
	out, err := New(WithChunkSize(100), WithOverlap(10)).Process(context.Background(), "", []domain.Paragraph{{Text: text}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, para := range out {
		if !strings.HasPrefix(para.Text, "é") {
			t.Errorf("window %d split a rune: %q", i, para.Text[:2])
		}
	}
}
