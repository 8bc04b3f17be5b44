package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

func TestReadReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()
	_, err := NewWriter().Write(context.Background(), dir, result)
	require.NoError(t, err)

	report, err := ReadReport(context.Background(), dir)
	require.NoError(t, err)

	if diff := cmp.Diff(result.Report, report, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("report mismatch (-written +read):\n%s", diff)
	}
}

func TestReadReport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing file", "", os.ErrNotExist},
		{"malformed", "{not json", domain.ErrInvalidInput},
		{"unknown field", `{"run_id":"x","surprise":1}`, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConsolidatedFile), []byte(tt.content), 0o644))
			}
			_, err := ReadReport(context.Background(), dir)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadReport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadReport(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
