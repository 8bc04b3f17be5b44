package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/custodia-labs/autoreview/internal/adapters/driving/mcp"
	"github.com/custodia-labs/autoreview/internal/logger"
)

var (
	mcpHTTP     string
	mcpMarkdown bool
	mcpForce    bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve review tools over the Model Context Protocol",
	Long: `Start an MCP server exposing the review_document and validate_agents
tools and the active prompt templates.

The server speaks stdio unless --http is given. Reviews use the LLM model
from settings; a model named in an agents file is not applied.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.Flags().BoolVar(&mcpMarkdown, "markdown", false, "also write markdown reports")
	mcpCmd.Flags().BoolVar(&mcpForce, "force", false, "overwrite existing outputs")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	_, settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, release, err := services.Review(ctx, *settings, ReviewOptions{Markdown: mcpMarkdown, Force: mcpForce})
	if err != nil {
		return err
	}
	defer release()

	prompts, err := services.Prompts()
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	server, err := mcpserver.NewServer(&mcpserver.Ports{
		Review:  svc,
		Agents:  services,
		Prompts: prompts,
	}, version)
	if err != nil {
		return err
	}

	if mcpHTTP != "" {
		logger.Info("MCP server listening on %s", mcpHTTP)
		return server.RunHTTP(ctx, mcpHTTP)
	}
	logger.Debug("MCP server on stdio")
	return server.Run(ctx)
}
