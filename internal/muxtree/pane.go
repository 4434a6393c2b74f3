package muxtree

import (
	"github.com/dcosson/tmuxcore/internal/ptyio"
	"github.com/dcosson/tmuxcore/internal/term"
)

const maxTitleLen = 256

// Pane owns one PTY child and the terminal state that interprets its
// output (spec §3). PTY is nil between creation and Spawn.
type Pane struct {
	id     PaneId
	rect   Rect
	active bool
	zoomed bool
	title  string

	pty *ptyio.PTY
	emu *term.Emulator

	scrollbackLines int
}

func newPane(id PaneId, rect Rect, scrollbackLines int) *Pane {
	return &Pane{
		id:              id,
		rect:            rect,
		active:          true,
		emu:             term.NewEmulator(rect.Height, rect.Width, scrollbackLines),
		scrollbackLines: scrollbackLines,
	}
}

func (p *Pane) ID() PaneId        { return p.id }
func (p *Pane) Rect() Rect        { return p.rect }
func (p *Pane) Active() bool      { return p.active }
func (p *Pane) Zoomed() bool      { return p.zoomed }
func (p *Pane) Title() string     { return p.title }
func (p *Pane) PTY() *ptyio.PTY   { return p.pty }
func (p *Pane) Emulator() *term.Emulator { return p.emu }

// ToggleZoom flips the zoomed flag. Per spec §4.4, zooming never resizes
// the emulator or the PTY.
func (p *Pane) ToggleZoom() { p.zoomed = !p.zoomed }

// SetTitle truncates and stores a title set via the pane's emulator OSC
// handling or an explicit rename.
func (p *Pane) SetTitle(title string) {
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	p.title = title
}

// resize pushes a new rect down into the pane's emulator and PTY, keeping
// the PTY's window size equal to its rect (spec §3 invariant).
func (p *Pane) resize(rect Rect) {
	p.rect = rect
	p.emu.Resize(rect.Height, rect.Width)
	if p.pty != nil {
		_ = p.pty.SetSize(rect.Height, rect.Width)
	}
}

// IsAlive reports whether the pane's child process is still running; a
// pane with no PTY yet (unspawned) is considered alive.
func (p *Pane) IsAlive() bool {
	if p.pty == nil {
		return true
	}
	return p.pty.IsAlive()
}
