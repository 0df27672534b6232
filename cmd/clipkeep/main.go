// clipkeep: keep a file for every clipboard change.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipkeep",
		Short: "Save every clipboard change to a file",
		Long: `clipkeep watches the system clipboard and writes one artifact per change
(text, image, HTML or URL list) plus a metadata record listing every format
that was on the clipboard.

Run "clipkeep watch" to start the monitor. "clipkeep status" asks a running
monitor for its counters over a local socket.

Config file search order (first found wins):
  /etc/clipkeep/clipkeep.toml
  $HOME/.config/clipkeep/clipkeep.toml
  path supplied via --config

All flags can be set via CLIPKEEP_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newWatchCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipkeep %s\n", Version)
		},
	}
}
