// Package statuscmder provides the status command that summarises the
// configured stores.
package statuscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/cmd/aletheia/cmdenv"
	"github.com/papercomputeco/aletheia/pkg/cliui"
	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/pipeline"
)

type statusCommander struct {
	collection string
}

var flagKeys = []string{
	config.FlagCollection,
}

const statusLongDesc string = `Show the configured stores and how many documents and verdicts they hold.

Examples:
  aletheia status
  aletheia status --collection checagens`

const statusShortDesc string = "Show evidence store and history status"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdenv.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)

	return cmd
}

func (c *statusCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := cmdenv.Logger(cmd)

	store, err := pipeline.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting documents: %w", err)
	}

	fmt.Fprintln(out)
	row(out, "Modelo:", cfg.LLM.Model)
	row(out, "Embeddings:", cfg.Embedding.Model)
	row(out, "Vetores:", cfg.VectorStore.Provider)
	row(out, "Coleção:", cfg.VectorStore.Collection)
	row(out, "Documentos:", fmt.Sprint(docs))

	history, err := pipeline.NewHistory(ctx, cfg)
	if err != nil {
		return err
	}
	if history == nil {
		row(out, "Histórico:", cliui.DimStyle.Render("desativado"))
	} else {
		defer history.Close()
		n, err := history.Count(ctx)
		if err != nil {
			return fmt.Errorf("counting verdicts: %w", err)
		}
		row(out, "Histórico:", fmt.Sprintf("%s (%d vereditos)", cfg.History.Provider, n))
	}
	fmt.Fprintln(out)

	return nil
}

func row(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-12s", key)), cliui.ValueStyle.Render(value))
}
