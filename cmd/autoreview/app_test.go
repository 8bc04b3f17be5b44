package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/postprocessors/chunker"
	"github.com/custodia-labs/autoreview/internal/core/domain"
)

func TestKnowledgeChunking(t *testing.T) {
	tests := []struct {
		name        string
		maxContext  int
		wantSize    int
		wantOverlap int
	}{
		{"unlimited", 0, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap},
		{"large budget", 4000, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap},
		{"default budget", 2000, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap},
		{"small budget", 1000, 500, 100},
		{"tiny budget", 50, 100, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, overlap := knowledgeChunking(tt.maxContext)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantOverlap, overlap)
		})
	}
}

func TestApp_SettingsUsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	a := &app{}

	svc, err := a.Settings(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, a.configDir)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings().LLM.Model, settings.LLM.Model)
}

func TestApp_CacheDefaultsUnderConfigDir(t *testing.T) {
	dir := t.TempDir()
	a := &app{configDir: dir}

	cache, err := a.Cache(context.Background(), domain.CacheSettings{Backend: domain.CacheBackendSQLite})
	require.NoError(t, err)
	defer cache.Close()

	assert.DirExists(t, filepath.Join(dir, "data"))
}

func TestApp_LoadAgentsMissing(t *testing.T) {
	_, err := (&app{}).LoadAgents(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
