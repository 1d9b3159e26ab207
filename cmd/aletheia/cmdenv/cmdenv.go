// Package cmdenv resolves the configuration and logger shared by every
// aletheia command.
package cmdenv

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/logger"
)

// Load builds the layered config for cmd. flagKeys are the registry flags
// the command registered; set flags override env, file and defaults.
func Load(cmd *cobra.Command, flagKeys ...string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	return config.FromViper(v), nil
}

// Logger builds the CLI logger: pretty output on stderr, debug level when
// --debug is set.
func Logger(cmd *cobra.Command, extra ...io.Writer) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")

	cli := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
	if len(extra) == 0 {
		return cli
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriters(extra...),
	)
	return logger.Multi(cli, file)
}
