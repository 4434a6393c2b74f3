package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcosson/tmuxcore/internal/config"
	"github.com/dcosson/tmuxcore/internal/ipc"
)

func newNewCmd() *cobra.Command {
	var sessionName string

	cmd := &cobra.Command{
		Use:   "new [-s <name>]",
		Short: "Create a new session and attach to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return newRuntimeError(fmt.Errorf("load config: %w", err))
			}
			if err := ensureServer(cfg); err != nil {
				return newRuntimeError(err)
			}
			cli, err := ipc.Dial(cfg.ResolveSocketPath())
			if err != nil {
				return newRuntimeError(fmt.Errorf("connect to daemon: %w", err))
			}
			defer cli.Close()

			return runAttachLoop(cli, ipc.MsgNewSession, sessionName)
		},
	}

	cmd.Flags().StringVarP(&sessionName, "session", "s", "", "Name for the new session (auto-generated if omitted)")
	return cmd
}
