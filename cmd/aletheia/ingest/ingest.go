// Package ingestcmder provides the ingest command that indexes the labelled
// seed CSV into the evidence store.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/cmd/aletheia/cmdenv"
	"github.com/papercomputeco/aletheia/pkg/cliui"
	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/ingest"
	"github.com/papercomputeco/aletheia/pkg/pipeline"
)

type ingestCommander struct {
	csv        string
	collection string
	persistDir string
	noReset    bool
	watch      bool
	batchSize  int
}

var flagKeys = []string{
	config.FlagSeedCSV,
	config.FlagCollection,
	config.FlagPersistDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingModel,
	config.FlagOllamaHost,
}

const ingestLongDesc string = `Index a labelled seed CSV into the evidence store.

The CSV must have a "text" column; "title", "label" and "source" are
optional. Rows with a blank text are skipped and every row is stored as
doc-<row>. The collection is emptied first unless --no-reset is set.

With --watch the command keeps running and re-indexes the CSV whenever it
changes on disk.

Examples:
  aletheia ingest
  aletheia ingest --csv data/checagens.csv --collection checagens
  aletheia ingest --watch`

const ingestShortDesc string = "Index the seed CSV"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdenv.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, cfg)
		},
	}

	var provider, target, model, host string
	config.AddStringFlag(cmd, config.Flags, config.FlagSeedCSV, &cmder.csv)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagPersistDir, &cmder.persistDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &target)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &model)
	config.AddStringFlag(cmd, config.Flags, config.FlagOllamaHost, &host)
	cmd.Flags().BoolVar(&cmder.noReset, "no-reset", false, "Keep the existing documents (fails on existing ids)")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Re-index whenever the CSV changes")
	cmd.Flags().IntVar(&cmder.batchSize, "batch-size", ingest.DefaultBatchSize, "Documents sent to the store per batch")

	return cmd
}

func (c *ingestCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := cmdenv.Logger(cmd)

	store, err := pipeline.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	path := cfg.Ingest.SeedCSV
	opts := ingest.Options{Reset: !c.noReset, BatchSize: c.batchSize}
	ingester := ingest.New(store, logger)

	var stats ingest.Stats
	err = cliui.Step(cmd.ErrOrStderr(), fmt.Sprintf("Indexando %s na coleção %q", path, cfg.VectorStore.Collection), func() error {
		var ierr error
		stats, ierr = ingester.Run(ctx, path, opts)
		return ierr
	})
	if err != nil {
		return err
	}
	printStats(out, stats)

	if !c.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "\n  %s\n", cliui.DimStyle.Render("Observando "+path+" (Ctrl+C para sair)"))
	err = ingester.Watch(ctx, path, opts, ingest.DefaultDebounce, func(s ingest.Stats, err error) {
		fmt.Fprintf(out, "  %s ", cliui.Mark(err))
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		printStats(out, s)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printStats(w io.Writer, s ingest.Stats) {
	fmt.Fprintf(w, "%s %s  %s %s\n",
		cliui.KeyStyle.Render("Linhas:"), cliui.ValueStyle.Render(fmt.Sprint(s.Rows)),
		cliui.KeyStyle.Render("Indexados:"), cliui.ValueStyle.Render(fmt.Sprint(s.Indexed)),
	)
}
