// Package searchcmder provides the search command that shows the evidence
// the classifier would see for a query.
package searchcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/cmd/aletheia/cmdenv"
	"github.com/papercomputeco/aletheia/pkg/cliui"
	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/pipeline"
	"github.com/papercomputeco/aletheia/pkg/retriever"
)

type searchCommander struct {
	topK       int
	collection string
	showRaw    bool
}

var flagKeys = []string{
	config.FlagTopK,
	config.FlagCollection,
}

const searchLongDesc string = `Search the evidence store without asking the model.

Prints the context block handed to the classifier, the unique sources it
cites and the number of documents that fit the context budget.

Examples:
  aletheia search "taxa de juros"
  aletheia search "vacina" --top-k 3 --raw`

const searchShortDesc string = "Search the evidence store"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdenv.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, cfg, strings.Join(args, " "))
		},
	}

	config.AddIntFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	cmd.Flags().BoolVar(&cmder.showRaw, "raw", false, "Also print the raw query response")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, cfg *config.Config, query string) error {
	ctx := cmd.Context()
	logger := cmdenv.Logger(cmd)

	store, err := pipeline.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	retr := retriever.New(store, retriever.Config{
		TopK:            cfg.Retrieval.TopK,
		SnippetMaxChars: cfg.Retrieval.SnippetMaxChars,
		ContextMaxChars: cfg.Retrieval.ContextMaxChars,
	}, logger)

	result, err := retr.BuildContext(ctx, query, 0, true)
	if err != nil {
		return err
	}
	return c.print(cmd.OutOrStdout(), result)
}

func (c *searchCommander) print(w io.Writer, r *retriever.Context) error {
	fmt.Fprint(w, "\n===== CONTEXTO FINAL DO RAG =====\n\n")
	fmt.Fprintln(w, r.Context)

	fmt.Fprint(w, "\n===== FONTES USADAS =====\n\n")
	for _, s := range r.Sources {
		fmt.Fprintf(w, "  • %s\n", cliui.ValueStyle.Render(s))
	}

	fmt.Fprint(w, "\n===== HITS =====\n\n")
	fmt.Fprintln(w, r.Hits)

	if c.showRaw {
		data, err := json.MarshalIndent(r.Raw, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding raw result: %w", err)
		}
		fmt.Fprint(w, "\n===== RAW =====\n\n")
		fmt.Fprintln(w, string(data))
	}
	return nil
}
