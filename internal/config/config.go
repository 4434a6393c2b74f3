// Package config holds the small set of typed knobs the core needs from its
// external collaborator (the CLI binary). Argument parsing, help text, and
// the status-bar expander strings themselves stay outside this package.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the core's view of user configuration, loaded from
// ~/.config/tmuxcore/config.yaml (or an explicit path).
type Config struct {
	Shell            string `yaml:"shell"`
	Term             string `yaml:"term"`
	ScrollbackLines  int    `yaml:"scrollback_lines"`
	SocketPath       string `yaml:"socket_path"`
	Borders          bool   `yaml:"borders"`
	StatusBar        bool   `yaml:"status_bar"`
	StatusPosition   string `yaml:"status_position"` // "top" or "bottom"
	// AggressiveResize makes the reactor shrink a session to the smallest
	// rows/cols among every attached client instead of the last client to
	// resize winning outright.
	AggressiveResize bool `yaml:"aggressive_resize"`
}

// Defaults returns the built-in configuration used when no file is present
// and no environment override applies.
func Defaults() *Config {
	return &Config{
		Shell:           defaultShell(),
		Term:            "xterm-256color",
		ScrollbackLines: 10000,
		Borders:         true,
		StatusBar:       true,
		StatusPosition:  "bottom",
	}
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// ConfigDir returns the tmuxcore configuration directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tmuxcore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tmuxcore")
	}
	return filepath.Join(home, ".config", "tmuxcore")
}

// Load reads the config from ~/.config/tmuxcore/config.yaml, falling back to
// Defaults() when the file does not exist.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(ConfigDir(), "config.yaml"))
}

// LoadFrom reads the config from an explicit path, applying environment
// overrides (TMUX_SHELL, TMUX_SCROLLBACK per spec §6) on top of whatever
// the file supplies or the built-in defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if sh := os.Getenv("TMUX_SHELL"); sh != "" {
		cfg.Shell = sh
	}
	if sb := os.Getenv("TMUX_SCROLLBACK"); sb != "" {
		if n, ok := parsePositiveInt(sb); ok {
			cfg.ScrollbackLines = n
		}
	}
}

func parsePositiveInt(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, n > 0
}

// ResolveSocketPath returns c.SocketPath when set, else the Unix-domain
// socket path per spec §6:
// ${XDG_RUNTIME_DIR}/terminal_mux.sock, else /tmp/terminal_mux-<uid>/default.sock.
func (c *Config) ResolveSocketPath() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "terminal_mux.sock")
	}
	return filepath.Join("/tmp", "terminal_mux-"+itoa(os.Getuid()), "default.sock")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
