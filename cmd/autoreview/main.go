// Command autoreview reviews a document with a panel of LLM agents.
package main

import (
	"os"

	"github.com/custodia-labs/autoreview/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute(&app{}))
}
