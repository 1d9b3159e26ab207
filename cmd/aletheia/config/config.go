// Package configcmder provides the config command for managing persistent
// aletheia configuration stored in the .aletheia/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/pkg/cliui"
	"github.com/papercomputeco/aletheia/pkg/config"
)

const configLongDesc string = `Manage persistent aletheia configuration.

Configuration is stored as config.toml in the .aletheia/ directory and
provides default values for command flags. CLI flags and ALETHEIA_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  ollama.host, llm.model, llm.temperature,
  embedding.model, embedding.dimensions,
  vector_store.provider, vector_store.target, vector_store.persist_dir,
  vector_store.collection, retrieval.top_k, web.enabled, web.max_results,
  api.listen, history.provider, events.provider, ingest.seed_csv

Use subcommands to get, set, or list configuration values:
  aletheia config set <key> <value>    Set a configuration value
  aletheia config get <key>            Get a configuration value
  aletheia config list                 List all configuration values

Examples:
  aletheia config set llm.model qwen2.5:7b
  aletheia config set retrieval.top_k 8
  aletheia config get vector_store.collection
  aletheia config list`

const configShortDesc string = "Manage persistent aletheia configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
