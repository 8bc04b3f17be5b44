package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"/docs/release_notes-v2.txt", "release notes v2"},
		{"design.md", "design"},
		{"/path/archive.tar.gz", "archive.tar"},
		{"/no/extension/README", "README"},
		{"_draft_.md", "draft"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromURI(tt.uri))
		})
	}
}
