package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dcosson/tmuxcore/internal/ipc"
)

// runAttachLoop puts the controlling terminal into raw mode, sends the
// given attach-kind message (attach or new_session, both carrying
// name+rows+cols), then pumps stdin to MsgInput and MsgOutput/MsgError to
// stdout/stderr until the server sends MsgDetach, the connection drops, or
// the process receives SIGINT/SIGTERM.
//
// Grounded on the teacher's client/overlay.go Run(): raw-mode acquisition
// is a scoped resource, released unconditionally via defer even on an
// error unwind (spec §4.8 "Raw-mode acquisition"), and SIGWINCH drives a
// resize message the same way that file's WatchResize drives VT.Resize.
func runAttachLoop(cli *ipc.Client, msgType ipc.MessageType, name string) error {
	fd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return newRuntimeError(fmt.Errorf("get terminal size (is this a terminal?): %w", err))
	}

	if err := cli.Send(msgType, 0, ipc.EncodeAttach(name, uint16(rows), uint16(cols))); err != nil {
		return newRuntimeError(fmt.Errorf("send attach: %w", err))
	}

	restore, err := term.MakeRaw(fd)
	if err != nil {
		return newRuntimeError(fmt.Errorf("set raw mode: %w", err))
	}
	defer term.Restore(fd, restore)

	os.Stdout.Write([]byte("\033[?1000h\033[?1006h"))
	defer os.Stdout.Write([]byte("\033[?1000l\033[?1006l\033[?25h\r\n"))

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGWINCH, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	stdinErr := make(chan error, 1)
	go pumpStdin(cli, stdinErr)

	for {
		select {
		case msg, ok := <-cli.Messages():
			if !ok {
				return nil
			}
			switch msg.Type {
			case ipc.MsgOutput:
				os.Stdout.Write(msg.Payload)
			case ipc.MsgError:
				code, text, _ := ipc.DecodeError(msg.Payload)
				fmt.Fprintf(os.Stderr, "\r\n[%s] %s\r\n", code, text)
			case ipc.MsgDetach:
				return nil
			}

		case err := <-stdinErr:
			if err != nil && err != io.EOF {
				return newRuntimeError(err)
			}
			return nil

		case sig := <-sigCh:
			if sig == syscall.SIGWINCH {
				if cols, rows, err := term.GetSize(fd); err == nil {
					_ = cli.Send(ipc.MsgResize, 0, ipc.EncodeResize(uint16(rows), uint16(cols)))
				}
				continue
			}
			return newSigintError(fmt.Errorf("interrupted"))
		}
	}
}

func pumpStdin(cli *ipc.Client, errCh chan<- error) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			owned := make([]byte, n)
			copy(owned, buf[:n])
			if sendErr := cli.Send(ipc.MsgInput, 0, owned); sendErr != nil {
				errCh <- sendErr
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}
