package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/autoreview/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/autoreview/internal/adapters/driven/config/file"
	"github.com/custodia-labs/autoreview/internal/adapters/driven/loader"
	reportfile "github.com/custodia-labs/autoreview/internal/adapters/driven/report/file"
	"github.com/custodia-labs/autoreview/internal/adapters/driven/storage"
	vectormemory "github.com/custodia-labs/autoreview/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/autoreview/internal/adapters/driving/cli"
	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
	"github.com/custodia-labs/autoreview/internal/core/services"
	"github.com/custodia-labs/autoreview/internal/logger"
	"github.com/custodia-labs/autoreview/internal/postprocessors"
	"github.com/custodia-labs/autoreview/internal/postprocessors/chunker"
)

// Ensure app implements the interface.
var _ cli.Services = (*app)(nil)

// app wires the adapters for the CLI.
type app struct {
	configDir string
}

// Settings opens config.toml in dir and reads .env from dir and the
// working directory.
func (a *app) Settings(dir string) (driving.SettingsService, error) {
	if dir == "" {
		var err error
		if dir, err = configfile.DefaultConfigDir(); err != nil {
			return nil, err
		}
	}
	a.configDir = dir

	store, err := configfile.NewConfigStore(dir)
	if err != nil {
		return nil, err
	}
	env, err := configfile.LoadEnv(dir, ".")
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store, ai.NewConfigValidator(), env), nil
}

func (a *app) LoadAgents(path string) (domain.AgentsConfig, error) {
	return configfile.LoadAgents(path)
}

func (a *app) Review(ctx context.Context, settings domain.AppSettings, opts cli.ReviewOptions) (driving.ReviewService, func(), error) {
	aiServices, err := ai.Init(ctx, &settings)
	if err != nil {
		return nil, nil, err
	}

	cache, err := a.Cache(ctx, settings.Cache)
	if err != nil {
		aiServices.Close()
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	prompts, err := a.Prompts()
	if err != nil {
		aiServices.Close()
		_ = cache.Close()
		return nil, nil, err
	}

	chunkSize, overlap := knowledgeChunking(settings.MaxContextChars)
	deps := services.ReviewDeps{
		Documents: loader.New(loader.WithPipeline(
			postprocessors.DocumentPipeline(settings.MinParagraphLength))),
		Knowledge: loader.New(loader.WithPipeline(
			postprocessors.KnowledgePipeline(settings.MinParagraphLength, chunkSize, overlap))),
		Embeddings: aiServices.EmbeddingService,
		Cache:      cache,
		Vectors:    vectormemory.NewFactory(),
		LLM:        aiServices.LLMService,
		Prompts:    prompts,
		Writer: reportfile.NewWriter(
			reportfile.WithMarkdown(opts.Markdown),
			reportfile.WithForce(opts.Force)),
	}

	release := func() {
		aiServices.Close()
		if err := cache.Close(); err != nil {
			logger.Warn("Failed to close embedding cache: %v", err)
		}
	}
	return services.NewReviewService(deps, settings), release, nil
}

// Cache opens the embedding cache. The SQLite file lives under the
// configuration directory unless DataDir is set.
func (a *app) Cache(ctx context.Context, settings domain.CacheSettings) (driven.EmbeddingCache, error) {
	if settings.DataDir == "" && a.configDir != "" {
		settings.DataDir = filepath.Join(a.configDir, "data")
	}
	return storage.Open(ctx, settings)
}

// knowledgeChunking keeps knowledge fragments small enough that a few fit
// in one retrieval context.
func knowledgeChunking(maxContextChars int) (size, overlap int) {
	size, overlap = chunker.DefaultChunkSize, chunker.DefaultChunkOverlap
	if maxContextChars > 0 && maxContextChars/2 < size {
		size = max(maxContextChars/2, 100)
		overlap = size / 5
	}
	return size, overlap
}

// Prompts opens the prompts directory under the configuration directory.
func (a *app) Prompts() (driven.PromptStore, error) {
	return configfile.NewPromptStore(filepath.Join(a.configDir, "prompts"))
}

func (a *app) ReadReport(ctx context.Context, dir string) (*domain.ConsolidatedReport, error) {
	return reportfile.ReadReport(ctx, dir)
}
