package cli

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and ping the AI providers",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	svc, settings, err := loadSettings()
	if err != nil {
		return err
	}

	cmd.Printf("Embedding: %s (%s)\n", settings.Embedding.Provider.Description(), settings.Embedding.Model)
	cmd.Printf("LLM:       %s (%s)\n", settings.LLM.Provider.Description(), settings.LLM.Model)
	if err := svc.Check(cmd.Context(), settings); err != nil {
		return err
	}
	cmd.Println("All providers reachable.")
	return nil
}
