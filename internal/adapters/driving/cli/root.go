// Package cli provides the cobra commands for autoreview.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/core/ports/driving"
	"github.com/custodia-labs/autoreview/internal/logger"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitPartial = 2
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var (
	// errPartial marks a run that wrote its outputs but did not complete.
	errPartial = errors.New("review finished partial")

	errNoServices = errors.New("services not configured")
)

// ReviewOptions are the output switches of a review run.
type ReviewOptions struct {
	Markdown bool
	Force    bool
}

// Services builds the adapters behind each command once the global flags
// are parsed. The composition root supplies it; tests substitute fakes.
type Services interface {
	// Settings returns the settings service for configDir, empty meaning the default.
	Settings(configDir string) (driving.SettingsService, error)

	// LoadAgents reads and validates an agents file.
	LoadAgents(path string) (domain.AgentsConfig, error)

	// Review wires a review service for settings. The returned func
	// releases its resources.
	Review(ctx context.Context, settings domain.AppSettings, opts ReviewOptions) (driving.ReviewService, func(), error)

	// Cache opens the configured embedding cache.
	Cache(ctx context.Context, settings domain.CacheSettings) (driven.EmbeddingCache, error)

	// Prompts opens the prompt template store.
	Prompts() (driven.PromptStore, error)

	// ReadReport loads consolidated.json from a run's output directory.
	ReadReport(ctx context.Context, dir string) (*domain.ConsolidatedReport, error)
}

var (
	services Services

	verbose   bool
	configDir string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "autoreview",
	Short: "Multi-agent document review",
	Long: `autoreview splits a document into paragraphs and has up to seven
reviewing agents score every paragraph against their rubrics, then
consolidates the findings into one reproducible report.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.autoreview)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
}

// Execute runs the root command with s and returns the process exit code.
func Execute(s Services) int {
	services = s
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code == ExitError {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errPartial):
		return ExitPartial
	default:
		return ExitError
	}
}

// setup configures logging before any command runs. A log file set in the
// settings is used when --log-file is absent.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	file := logFile
	if file == "" && services != nil {
		if svc, err := services.Settings(configDir); err == nil {
			if settings, err := svc.Get(); err == nil {
				file = settings.LogFile
			}
		}
	}
	if file != "" {
		logger.Configure(file)
	}
	return nil
}

// settingsService returns the settings service for the current flags.
func settingsService() (driving.SettingsService, error) {
	if services == nil {
		return nil, errNoServices
	}
	svc, err := services.Settings(configDir)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	return svc, nil
}

// loadSettings returns validated settings.
func loadSettings() (driving.SettingsService, *domain.AppSettings, error) {
	svc, err := settingsService()
	if err != nil {
		return nil, nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("read settings: %w", err)
	}
	if err := svc.Validate(settings); err != nil {
		return nil, nil, fmt.Errorf("invalid settings: %w", err)
	}
	return svc, settings, nil
}
