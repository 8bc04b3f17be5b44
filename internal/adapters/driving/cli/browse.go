package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/autoreview/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse <output-dir>",
	Short: "Browse a finished review interactively",
	Long: `Open the consolidated report in an output directory and step through
the paragraphs, their scores and every agent's comments.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

// newBrowser builds the TUI; tests replace it to avoid a terminal.
var newBrowser = func(cmd *cobra.Command, dir string) (interface{ Run() error }, error) {
	app, err := tui.NewApp(&tui.Ports{Reports: services}, dir)
	if err != nil {
		return nil, err
	}
	return app.WithContext(cmd.Context()), nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errNoServices
	}
	// Fail before taking over the terminal.
	if _, err := services.ReadReport(cmd.Context(), args[0]); err != nil {
		return err
	}
	browser, err := newBrowser(cmd, args[0])
	if err != nil {
		return err
	}
	return browser.Run()
}
