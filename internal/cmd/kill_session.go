package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcosson/tmuxcore/internal/config"
	"github.com/dcosson/tmuxcore/internal/ipc"
)

func newKillSessionCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "kill-session -t <name>",
		Short: "Destroy a session and every window/pane it owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return newUsageError(fmt.Errorf("-t <name> is required"))
			}
			cfg, err := config.Load()
			if err != nil {
				return newRuntimeError(fmt.Errorf("load config: %w", err))
			}
			sockPath := cfg.ResolveSocketPath()
			if !serverListening(sockPath) {
				return newUsageError(fmt.Errorf("no such session %q (no running daemon)", target))
			}

			cli, err := ipc.Dial(sockPath)
			if err != nil {
				return newRuntimeError(fmt.Errorf("connect to daemon: %w", err))
			}
			defer cli.Close()

			// attach (silently, not via the interactive loop) so kill_session
			// has a session context to act on, then ask for it by name.
			// rows/cols are 0: this attach is only to give kill_session a
			// session context, not to actually render, so it must not
			// disturb the geometry of a session some other client is
			// still using.
			if err := cli.Send(ipc.MsgAttach, 0, ipc.EncodeAttach(target, 0, 0)); err != nil {
				return newRuntimeError(err)
			}
			if err := waitForAck(cli, target); err != nil {
				return err
			}
			if err := cli.Send(ipc.MsgKillSession, 0, nil); err != nil {
				return newRuntimeError(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Session name to kill")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

// waitForAck drains messages briefly, failing fast on an explicit MsgError
// reply. Attach has no positive acknowledgement on the wire (spec §4.6:
// output streaming itself is the ack for an interactive client), so the
// absence of an error within the window is treated as success.
func waitForAck(cli *ipc.Client, target string) error {
	deadline := time.After(500 * time.Millisecond)
	for {
		select {
		case msg, ok := <-cli.Messages():
			if !ok {
				return newRuntimeError(fmt.Errorf("daemon closed the connection"))
			}
			if msg.Type == ipc.MsgError {
				code, text, _ := ipc.DecodeError(msg.Payload)
				if code == ipc.ErrNotFound {
					return newUsageError(fmt.Errorf("no such session %q", target))
				}
				return newRuntimeError(fmt.Errorf("%s: %s", code, text))
			}
		case <-deadline:
			return nil
		}
	}
}
