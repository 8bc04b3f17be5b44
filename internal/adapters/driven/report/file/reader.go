package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

// ReadReport loads consolidated.json from an output directory.
func ReadReport(ctx context.Context, dir string) (*domain.ConsolidatedReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, ConsolidatedFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var report domain.ConsolidatedReport
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
	}
	return &report, nil
}
