// Package checkcmder provides the check command that classifies one claim.
package checkcmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/cmd/aletheia/cmdenv"
	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/cliui"
	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/pipeline"
)

type checkCommander struct {
	text          string
	url           string
	noWeb         bool
	maxWebResults int
	topK          int
	jsonOut       bool

	ollamaHost string
	llmModel   string
	collection string
}

var flagKeys = []string{
	config.FlagMaxWebResults,
	config.FlagTopK,
	config.FlagOllamaHost,
	config.FlagLLMModel,
	config.FlagCollection,
}

const checkLongDesc string = `Check whether a claim is VERDADEIRA or FALSA.

The claim is given as text, or as the URL of a news page whose paragraph
text is extracted and checked. Evidence comes from the indexed corpus and,
when web search is enabled and --no-web is not set, from a DuckDuckGo search.

Examples:
  aletheia check --text "O Banco Central reduziu a taxa de juros"
  aletheia check --url https://exemplo.com/noticia --no-web
  aletheia check -t "Vacina altera o DNA" --json`

const checkShortDesc string = "Check one claim"

func NewCheckCmd() *cobra.Command {
	cmder := &checkCommander{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: checkShortDesc,
		Long:  checkLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdenv.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cmder.text, "text", "t", "", "Claim text to check")
	cmd.Flags().StringVarP(&cmder.url, "url", "u", "", "News page URL to extract the claim from")
	cmd.Flags().BoolVar(&cmder.noWeb, "no-web", false, "Do not search the web for extra evidence")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the verdict as JSON")
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxWebResults, &cmder.maxWebResults)
	config.AddIntFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagOllamaHost, &cmder.ollamaHost)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)

	cmd.MarkFlagsMutuallyExclusive("text", "url")
	cmd.MarkFlagsOneRequired("text", "url")

	return cmd
}

func (c *checkCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := cmdenv.Logger(cmd)

	p, err := pipeline.FromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	// Without --no-web the configured web.enabled applies.
	var useWeb *bool
	if c.noWeb {
		off := false
		useWeb = &off
	}
	req := pipeline.Request{
		Surface:       pipeline.SurfaceCLI,
		Text:          c.text,
		URL:           c.url,
		UseWeb:        useWeb,
		MaxWebResults: cfg.Web.MaxResults,
		TopK:          cfg.Retrieval.TopK,
	}

	var res *classifier.Result
	err = cliui.Step(cmd.ErrOrStderr(), "Analisando o enunciado", func() error {
		var verr error
		res, _, verr = p.Verify(ctx, req)
		return verr
	})
	if errors.Is(err, pipeline.ErrExtract) {
		logger.Debug("url extraction failed", "error", err)
		return errors.New(pipeline.NoTextMessage)
	}
	if err != nil {
		return err
	}

	return c.render(out, res)
}

func (c *checkCommander) render(out io.Writer, res *classifier.Result) error {
	if c.jsonOut {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding verdict: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	cliui.RenderVerdict(out, res, cliui.VerdictOptions{Markdown: cliui.IsTerminal(out)})
	return nil
}
