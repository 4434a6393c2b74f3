package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcosson/tmuxcore/internal/config"
	"github.com/dcosson/tmuxcore/internal/ipc"
)

func newListSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-sessions",
		Short: "List sessions known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return newRuntimeError(fmt.Errorf("load config: %w", err))
			}
			sockPath := cfg.ResolveSocketPath()
			if !serverListening(sockPath) {
				fmt.Println("No sessions.")
				return nil
			}

			cli, err := ipc.Dial(sockPath)
			if err != nil {
				return newRuntimeError(fmt.Errorf("connect to daemon: %w", err))
			}
			defer cli.Close()

			if err := cli.Send(ipc.MsgListSessions, 0, nil); err != nil {
				return newRuntimeError(err)
			}

			select {
			case msg, ok := <-cli.Messages():
				if !ok {
					return newRuntimeError(fmt.Errorf("daemon closed the connection"))
				}
				if msg.Type != ipc.MsgSessionInfo {
					return newRuntimeError(fmt.Errorf("unexpected reply type %v", msg.Type))
				}
				sessions, err := ipc.DecodeSessionInfo(msg.Payload)
				if err != nil {
					return newRuntimeError(err)
				}
				printSessions(sessions)
			case <-time.After(2 * time.Second):
				return newRuntimeError(fmt.Errorf("timed out waiting for daemon"))
			}
			return nil
		},
	}
}

func printSessions(sessions []ipc.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s: %d windows (active window %d)\n", s.Name, s.WindowCount, s.ActiveWindow)
	}
}
