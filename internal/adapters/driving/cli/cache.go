package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheNamespace string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
	Long: `Embeddings are cached by content hash within a namespace of
"<model>@<version>". Use --namespace to limit a command to one namespace.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many embeddings are cached",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached embeddings",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.PersistentFlags().StringVarP(&cacheNamespace, "namespace", "n", "", "limit to one embedding namespace")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func scope() string {
	if cacheNamespace == "" {
		return "all namespaces"
	}
	return "namespace " + cacheNamespace
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	_, settings, err := loadSettings()
	if err != nil {
		return err
	}
	cache, err := services.Cache(cmd.Context(), settings.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	n, err := cache.Count(cmd.Context(), cacheNamespace)
	if err != nil {
		return fmt.Errorf("count embeddings: %w", err)
	}
	cmd.Printf("Backend: %s\n", settings.Cache.Backend)
	cmd.Printf("Embeddings (%s): %s\n", scope(), humanize.Comma(int64(n)))
	return nil
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	_, settings, err := loadSettings()
	if err != nil {
		return err
	}
	cache, err := services.Cache(cmd.Context(), settings.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	n, err := cache.Count(cmd.Context(), cacheNamespace)
	if err != nil {
		return fmt.Errorf("count embeddings: %w", err)
	}
	if err := cache.Purge(cmd.Context(), cacheNamespace); err != nil {
		return fmt.Errorf("purge embeddings: %w", err)
	}
	cmd.Printf("Purged %s embeddings from %s.\n", humanize.Comma(int64(n)), scope())
	return nil
}
