package cmd

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcosson/tmuxcore/internal/config"
	"github.com/dcosson/tmuxcore/internal/ipc"
	"github.com/dcosson/tmuxcore/internal/muxtree"
	"github.com/dcosson/tmuxcore/internal/reactor"
)

// newDaemonCmd is the hidden entrypoint ensureServer re-execs into: it owns
// the socket, the session tree, and the reactor loop for the lifetime of
// the server process (spec §4.7 Lifecycle: "Server creates the
// SessionManager at startup").
func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "_daemon",
		Short:  "Run the session daemon (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return newRuntimeError(fmt.Errorf("load config: %w", err))
			}
			return runDaemon(cfg)
		},
	}
	return cmd
}

func runDaemon(cfg *config.Config) error {
	sockPath := cfg.ResolveSocketPath()
	srv, err := ipc.Listen(sockPath)
	if err != nil {
		return newRuntimeError(fmt.Errorf("listen on %s: %w", sockPath, err))
	}

	mgr := muxtree.NewManager(cfg.Shell, nil, cfg.Term, cfg.ScrollbackLines)
	r := reactor.New(mgr, srv, cfg)
	if err := r.Run(); err != nil {
		return newRuntimeError(err)
	}
	return nil
}

// ensureServer makes sure a daemon is listening at cfg's socket path,
// forking one by re-exec'ing this binary with the hidden _daemon
// subcommand if nothing answers yet. Grounded on the teacher's
// ForkDaemon (internal/session/daemon.go): re-exec with the caller's
// environment inherited unfiltered, detach via Setsid, redirect stdio to
// /dev/null, then poll for the socket to appear.
func ensureServer(cfg *config.Config) error {
	sockPath := cfg.ResolveSocketPath()
	if serverListening(sockPath) {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	cmd := exec.Command(exe, "_daemon")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Env = os.Environ()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open /dev/null: %w", err)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		devNull.Close()
		return fmt.Errorf("start daemon: %w", err)
	}
	go func() {
		cmd.Wait()
		devNull.Close()
	}()

	for i := 0; i < 50; i++ {
		if serverListening(sockPath) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not start (socket %s not reachable)", sockPath)
}

// serverListening reports whether a live daemon currently accepts
// connections at sockPath.
func serverListening(sockPath string) bool {
	conn, err := net.DialTimeout("unix", sockPath, 200*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
