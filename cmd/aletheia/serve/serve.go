// Package servecmder provides the serve command that runs the HTTP API and
// the MCP server.
package servecmder

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/api"
	"github.com/papercomputeco/aletheia/api/mcp"
	"github.com/papercomputeco/aletheia/cmd/aletheia/cmdenv"
	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/pipeline"
)

type ServeCommander struct {
	listen       string
	logFile      string
	noMCP        bool
	historyProv  string
	eventsProv   string
	ollamaHost   string
	llmModel     string
	collection   string
	vectorProv   string
	vectorTarget string
}

var flagKeys = []string{
	config.FlagListen,
	config.FlagHistoryProv,
	config.FlagEventsProv,
	config.FlagOllamaHost,
	config.FlagLLMModel,
	config.FlagCollection,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
}

const serveLongDesc string = `Run the Aletheia HTTP API.

Serves the endpoints used by the web frontend:
  GET  /                  health message
  POST /api/verify        check a claim ({"text": "..."} or {"url": "..."})
  GET  /api/search        evidence search without a verdict
  GET  /api/history       recent verdicts

The MCP server (tools verify_claim and search_evidence) is mounted at /mcp
unless --no-mcp is set. Every verdict is written to the configured history
and, when events.provider is kafka, published to the verdict topic.

Examples:
  aletheia serve
  aletheia serve --listen :9000 --log-file aletheia.log
  aletheia serve --history-provider postgres --events-provider kafka`

const serveShortDesc string = "Run the HTTP API and MCP server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdenv.Load(cmd, flagKeys...)
			if err != nil {
				return err
			}
			return cmder.run(cmd, cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagHistoryProv, &cmder.historyProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProv, &cmder.eventsProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagOllamaHost, &cmder.ollamaHost)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP server at /mcp")

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	var extra []io.Writer
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		extra = append(extra, f)
	}
	logger := cmdenv.Logger(cmd, extra...)

	p, err := pipeline.FromConfig(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	apiConfig := api.Config{
		ListenAddr:  cfg.API.Listen,
		CORSOrigins: cfg.API.CORSOrigins,
	}
	if !c.noMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Pipeline: p,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		apiConfig.MCPHandler = mcpServer.Handler()
	}

	apiServer := api.NewServer(apiConfig, p, logger)

	logger.Info("aletheia ready",
		"listen", cfg.API.Listen,
		"model", cfg.LLM.Model,
		"vector_store", cfg.VectorStore.Provider,
		"collection", cfg.VectorStore.Collection,
		"history", cfg.History.Provider,
		"events", cfg.Events.Provider,
		"mcp", !c.noMCP,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}
