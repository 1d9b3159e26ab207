// Package evaluatecmder provides the evaluate command that scores the
// classifier against a labelled CSV.
package evaluatecmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/cmd/aletheia/cmdenv"
	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/cliui"
	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/evaluate"
	"github.com/papercomputeco/aletheia/pkg/pipeline"
)

type evaluateCommander struct {
	csv           string
	web           bool
	maxWebResults int
	digits        int
	llmModel      string
	ollamaHost    string
	collection    string
}

var flagKeys = []string{
	config.FlagSeedCSV,
	config.FlagMaxWebResults,
	config.FlagLLMModel,
	config.FlagOllamaHost,
	config.FlagCollection,
}

const evaluateLongDesc string = `Score the classifier against a labelled CSV.

The CSV must have "text" and "label" columns. Labels are normalized
(V, TRUE and T count as VERDADEIRA; F, FALSE as FALSA). Every sample is
classified in turn; a sample that fails is predicted FALSA. The command
prints a per-class precision/recall/F1 report, the confusion matrix and the
elapsed time.

Examples:
  aletheia evaluate
  aletheia evaluate --csv data/teste.csv --web`

const evaluateShortDesc string = "Score the classifier against a labelled CSV"

func NewEvaluateCmd() *cobra.Command {
	cmder := &evaluateCommander{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: evaluateShortDesc,
		Long:  evaluateLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdenv.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSeedCSV, &cmder.csv)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxWebResults, &cmder.maxWebResults)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagOllamaHost, &cmder.ollamaHost)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	cmd.Flags().BoolVar(&cmder.web, "web", false, "Add web results to every classification")
	cmd.Flags().IntVar(&cmder.digits, "digits", 3, "Decimal digits in the classification report")

	return cmd
}

func (c *evaluateCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := cmdenv.Logger(cmd)

	samples, err := evaluate.LoadSamples(cfg.Ingest.SeedCSV)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.Ingest.SeedCSV, err)
	}

	// Evaluation runs are not part of the verdict history.
	cfg.History.Provider = "none"
	cfg.Events.Provider = "none"
	cfg.Web.Enabled = c.web

	p, err := pipeline.FromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Fprintf(out, "Total de amostras para avaliação: %d\n", len(samples))
	fmt.Fprint(out, "Iniciando avaliação...\n\n")

	ev := evaluate.New(p.Classifier(), classifier.Options{
		UseWeb:        c.web,
		MaxWebResults: cfg.Web.MaxResults,
	}, logger)
	progress := cmd.ErrOrStderr()
	ev.Progress = func(done, total int) {
		cliui.Progress(progress, done, total)
	}

	report, err := ev.Run(ctx, samples)
	if err != nil {
		return err
	}

	printReport(out, report, c.digits)
	return nil
}

func printReport(w io.Writer, r *evaluate.Report, digits int) {
	fmt.Fprint(w, "\n===== RELATÓRIO DE CLASSIFICAÇÃO =====\n\n")
	fmt.Fprintln(w, r.ClassificationReport(digits))

	fmt.Fprint(w, "===== MATRIZ DE CONFUSÃO =====\n\n")
	fmt.Fprintln(w, evaluate.FormatMatrix(r.ConfusionMatrix()))
	fmt.Fprintf(w, "\nLinhas/colunas na ordem: ['%s']\n", strings.Join(evaluate.MatrixLabels, "', '"))

	fmt.Fprintf(w, "\nTempo total: %.1f segundos\n", r.Elapsed.Seconds())
	if r.Total() > 0 {
		fmt.Fprintf(w, "Tempo médio por amostra: %.2f s\n", r.MeanTime().Seconds())
	}
}
