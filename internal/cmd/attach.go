package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcosson/tmuxcore/internal/config"
	"github.com/dcosson/tmuxcore/internal/ipc"
)

func newAttachCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "attach [-t <name>]",
		Short: "Attach to an existing session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return newRuntimeError(fmt.Errorf("load config: %w", err))
			}
			if !serverListening(cfg.ResolveSocketPath()) {
				return newRuntimeError(fmt.Errorf("no running daemon (use 'tmuxcore new' to start one)"))
			}
			cli, err := ipc.Dial(cfg.ResolveSocketPath())
			if err != nil {
				return newRuntimeError(fmt.Errorf("connect to daemon: %w", err))
			}
			defer cli.Close()

			return runAttachLoop(cli, ipc.MsgAttach, target)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Session name to attach to (defaults to the active session)")
	return cmd
}
