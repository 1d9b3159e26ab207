// Package aletheiacmder is the root aletheia command.
package aletheiacmder

import (
	"github.com/spf13/cobra"

	checkcmder "github.com/papercomputeco/aletheia/cmd/aletheia/check"
	configcmder "github.com/papercomputeco/aletheia/cmd/aletheia/config"
	evaluatecmder "github.com/papercomputeco/aletheia/cmd/aletheia/evaluate"
	ingestcmder "github.com/papercomputeco/aletheia/cmd/aletheia/ingest"
	initcmder "github.com/papercomputeco/aletheia/cmd/aletheia/init"
	searchcmder "github.com/papercomputeco/aletheia/cmd/aletheia/search"
	servecmder "github.com/papercomputeco/aletheia/cmd/aletheia/serve"
	statuscmder "github.com/papercomputeco/aletheia/cmd/aletheia/status"
	versioncmder "github.com/papercomputeco/aletheia/cmd/version"
)

const aletheiaLongDesc string = `Aletheia checks Portuguese news claims against a labelled fact-check
corpus and, optionally, live web results, using a local Ollama model.

Typical workflow:
  aletheia ingest               Index data/seed.csv into the evidence store
  aletheia check -t "..."       Check one claim
  aletheia evaluate             Score the classifier against a labelled CSV
  aletheia serve                Run the HTTP API and MCP server`

const aletheiaShortDesc string = "Aletheia - RAG fact checking"

func NewAletheiaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "aletheia",
		Short:        aletheiaShortDesc,
		Long:         aletheiaLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .aletheia config directory")

	// Add subcommands
	cmd.AddCommand(checkcmder.NewCheckCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(evaluatecmder.NewEvaluateCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
