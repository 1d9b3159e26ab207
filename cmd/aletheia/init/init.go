// Package initcmder provides the init command for initializing a local
// .aletheia directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/pkg/cliui"
	"github.com/papercomputeco/aletheia/pkg/config"
	"github.com/papercomputeco/aletheia/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .aletheia/ directory in the current working directory.

Creates a local .aletheia/ directory holding config.toml. A local directory
takes precedence over ~/.aletheia/. An existing config.toml is never
overwritten.

Presets choose the vector store:
  local     sqlite vectors in ./db (default)
  chroma    Chroma server at http://localhost:8000 (API moves to :8080)
  qdrant    Qdrant server at localhost:6334

Examples:
  aletheia init
  aletheia init --preset qdrant`

const initShortDesc string = "Initialize a local .aletheia/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Config preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(cmd *cobra.Command, preset string) error {
	out := cmd.OutOrStdout()

	name := preset
	if name == "" {
		name = "local"
	}
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return err
	}

	dir, err := dotdir.NewManager().Init("")
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Initialized %s %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(dir),
		cliui.DimStyle.Render("(preset "+name+")"),
	)
	return nil
}
