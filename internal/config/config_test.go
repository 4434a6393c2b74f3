package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `shell: /bin/zsh
term: xterm-256color
scrollback_lines: 5000
borders: true
status_bar: true
status_position: top
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Shell != "/bin/zsh" {
		t.Errorf("Shell = %q, want /bin/zsh", cfg.Shell)
	}
	if cfg.ScrollbackLines != 5000 {
		t.Errorf("ScrollbackLines = %d, want 5000", cfg.ScrollbackLines)
	}
	if cfg.StatusPosition != "top" {
		t.Errorf("StatusPosition = %q, want top", cfg.StatusPosition)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.ScrollbackLines != Defaults().ScrollbackLines {
		t.Errorf("expected defaults to apply, got ScrollbackLines=%d", cfg.ScrollbackLines)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TMUX_SHELL", "/bin/fish")
	t.Setenv("TMUX_SCROLLBACK", "250")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("shell: /bin/bash\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Shell != "/bin/fish" {
		t.Errorf("Shell = %q, want env override /bin/fish", cfg.Shell)
	}
	if cfg.ScrollbackLines != 250 {
		t.Errorf("ScrollbackLines = %d, want env override 250", cfg.ScrollbackLines)
	}
}

func TestResolveSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	cfg := Defaults()
	got := cfg.ResolveSocketPath()
	want := "/run/user/1000/terminal_mux.sock"
	if got != want {
		t.Errorf("ResolveSocketPath() = %q, want %q", got, want)
	}
}

func TestResolveSocketPath_Fallback(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	cfg := Defaults()
	got := cfg.ResolveSocketPath()
	if filepath.Base(got) != "default.sock" {
		t.Errorf("ResolveSocketPath() = %q, want fallback under /tmp", got)
	}
}

func TestResolveSocketPath_Explicit(t *testing.T) {
	cfg := Defaults()
	cfg.SocketPath = "/custom/path.sock"
	if got := cfg.ResolveSocketPath(); got != "/custom/path.sock" {
		t.Errorf("ResolveSocketPath() = %q, want override", got)
	}
}
