package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/autoreview/internal/core/domain"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect agents configuration files",
}

var agentsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate an agents file and list its agents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsValidate,
}

func init() {
	agentsCmd.AddCommand(agentsValidateCmd)
	rootCmd.AddCommand(agentsCmd)
}

func runAgentsValidate(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errNoServices
	}
	cfg, err := services.LoadAgents(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("%s: %d of %d agents\n", args[0], len(cfg.Agents), cfg.MaxAgents)
	if cfg.Model != "" {
		cmd.Printf("Model: %s\n", cfg.Model)
	}
	for _, a := range cfg.Agents {
		printAgent(cmd, a)
	}
	cmd.Println()
	cmd.Println("Configuration is valid.")
	return nil
}

func printAgent(cmd *cobra.Command, a domain.AgentProfile) {
	cmd.Println()
	cmd.Printf("[%s]\n", a.Name)
	if a.Tone != "" {
		cmd.Printf("  Tone: %s\n", a.Tone)
	}
	cmd.Printf("  Rubric: %s (%d-%d)\n", strings.Join(a.Rubric.Criteria, ", "), a.Rubric.ScaleMin, a.Rubric.ScaleMax)
	cmd.Printf("  Goals: %d\n", len(a.Goals))

	r := a.Retrieval
	neighbours := "off"
	if r.UseNeighbors {
		neighbours = "on"
	}
	cmd.Printf("  Retrieval: neighbours %s, document top-k %d, threshold %.2f\n",
		neighbours, r.DocumentTopK, r.SimilarityThreshold)
	if len(a.KBRefs) > 0 {
		cmd.Printf("  Knowledge base: %d file(s), top-k %d\n", len(a.KBRefs), r.TopK)
		for _, ref := range a.KBRefs {
			cmd.Printf("    - %s\n", ref)
		}
	}
}
