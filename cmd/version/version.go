// Package versioncmder prints the build metadata stamped into the binary.
package versioncmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/aletheia/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the aletheia version",
		Long:  "Print the version, commit and build time of this binary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printVersion(cmd.OutOrStdout(), short)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")

	return cmd
}

func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, utils.Version)
		return
	}
	fmt.Fprintf(w, "Version:  %s\nCommit:   %s\nBuilt at: %s\n", utils.Version, utils.Sha, utils.Buildtime)
}
