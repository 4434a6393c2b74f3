package cmd

import "testing"

func TestNewRootCmdRegistersSpecSurface(t *testing.T) {
	root := NewRootCmd()
	want := []string{"new", "attach", "list-sessions", "ls", "kill-session"}
	for _, name := range want {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Errorf("expected subcommand %q to be registered, got error: %v", name, err)
		}
	}
}

func TestDaemonCmdIsHidden(t *testing.T) {
	root := NewRootCmd()
	cmd, _, err := root.Find([]string{"_daemon"})
	if err != nil {
		t.Fatalf("expected _daemon to be registered: %v", err)
	}
	if !cmd.Hidden {
		t.Error("expected _daemon subcommand to be hidden from help output")
	}
}
