package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dcosson/tmuxcore/internal/version"
)

// NewRootCmd creates the root cobra command with all subcommands (spec §6
// CLI surface: new, attach, list-sessions/ls, kill-session, plus the
// hidden _daemon entrypoint ensureServer re-execs into).
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tmuxcore",
		Short:   "A terminal multiplexer core",
		Long:    "tmuxcore manages terminal sessions, windows, and panes behind a single daemon reachable over a Unix-domain socket.",
		Version: version.DisplayVersion(),
	}

	lsCmd := newListSessionsCmd()
	rootCmd.AddCommand(
		newNewCmd(),
		newAttachCmd(),
		lsCmd,
		newLsAlias(lsCmd),
		newKillSessionCmd(),
		newDaemonCmd(),
	)

	return rootCmd
}

func newLsAlias(target *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "ls",
		Short:  "Alias for list-sessions",
		Hidden: true,
		RunE:   target.RunE,
	}
}
