// Package term implements the terminal emulator: it consumes the actions
// produced by internal/vtparser and maintains the Grid, Cursor, SGR
// attribute state, modes, and scrollback a Pane needs to track what its
// child process has drawn.
package term

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/dcosson/tmuxcore/internal/vtparser"
)

const defaultTabWidth = 8
const maxTitleLen = 256

// screen bundles everything specific to one of the two buffers (main or
// alternate) an Emulator can display.
type screen struct {
	grid                    *Grid
	cursor                  Cursor
	saved                   SavedCursor
	scrollTop, scrollBottom int
}

func newScreen(rows, cols int) *screen {
	return &screen{
		grid:          NewGrid(rows, cols),
		cursor:        Cursor{Visible: true},
		scrollTop:     0,
		scrollBottom:  rows - 1,
	}
}

// Emulator holds the full visible and off-screen state of one pane's
// terminal and drives it by feeding raw PTY output through a vtparser.Parser.
type Emulator struct {
	parser vtparser.Parser

	main, alt *screen
	onAlt     bool

	modes    Modes
	charsets Charsets

	fg, bg Color
	attrs  Attrs

	tabStops []bool

	scrollback *Scrollback

	title string

	rows, cols int
}

// NewEmulator creates an emulator with the given geometry and scrollback
// capacity, in power-on state (spec §4.3 Reset).
func NewEmulator(rows, cols, scrollbackCap int) *Emulator {
	e := &Emulator{
		rows:       rows,
		cols:       cols,
		scrollback: NewScrollback(scrollbackCap),
	}
	e.main = newScreen(rows, cols)
	e.alt = newScreen(rows, cols)
	e.resetState()
	return e
}

func (e *Emulator) active() *screen {
	if e.onAlt {
		return e.alt
	}
	return e.main
}

// Grid returns the currently visible grid (main or alternate).
func (e *Emulator) Grid() *Grid { return e.active().grid }

// Cursor returns the current screen's cursor.
func (e *Emulator) Cursor() Cursor { return e.active().cursor }

// Modes returns the current mode flags.
func (e *Emulator) Modes() Modes { return e.modes }

// Title returns the pane title set via OSC 0/2.
func (e *Emulator) Title() string { return e.title }

// Scrollback exposes the ring of evicted main-screen rows.
func (e *Emulator) Scrollback() *Scrollback { return e.scrollback }

func (e *Emulator) blank() Cell { return BlankCell(e.fg, e.bg, e.attrs) }

// Write feeds raw bytes from the PTY through the parser, dispatching each
// resulting Action in arrival order.
func (e *Emulator) Write(p []byte) {
	for _, b := range p {
		a := e.parser.Feed(b)
		if a.Kind != vtparser.None {
			e.dispatch(a)
		}
	}
}

func (e *Emulator) dispatch(a vtparser.Action) {
	switch a.Kind {
	case vtparser.Print:
		e.print(a.Rune)
	case vtparser.Execute:
		e.execute(a.Byte)
	case vtparser.CsiDispatch:
		e.csi(a)
	case vtparser.EscDispatch:
		e.esc(a)
	case vtparser.OscDispatch:
		e.osc(a)
	case vtparser.DcsHook, vtparser.DcsPut, vtparser.DcsUnhook:
		// Device control strings (sixel, DECRQSS, etc.) are accepted and
		// silently discarded; no consumer of this emulator needs them.
	}
}

// print places one decoded rune at the cursor, applying the autowrap and
// wide-glyph rules of spec §4.3.
func (e *Emulator) print(r rune) {
	r = e.charsets.Translate(r)
	s := e.active()
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		w = 1
	}

	if s.cursor.Col >= e.cols {
		if e.modes.AutoWrap {
			e.newline()
			s.cursor.Col = 0
		} else {
			s.cursor.Col = e.cols - 1
		}
	}

	if w == 2 && s.cursor.Col == e.cols-1 && e.modes.AutoWrap {
		// Not enough room for a wide glyph on this row: wrap first.
		e.newline()
		s.cursor.Col = 0
	}

	cell := Cell{Rune: r, Fg: e.fg, Bg: e.bg, Attrs: e.attrs & sgrAttrsMask, Width: uint8(w)}
	s.grid.SetCell(s.cursor.Row, s.cursor.Col, cell)
	if w == 2 && s.cursor.Col+1 < e.cols {
		cont := Cell{Rune: ' ', Fg: e.fg, Bg: e.bg, Attrs: (e.attrs & sgrAttrsMask) | attrContinuation, Width: 0}
		s.grid.SetCell(s.cursor.Row, s.cursor.Col+1, cont)
	}
	s.cursor.Col += w
}

func (e *Emulator) execute(b byte) {
	switch b {
	case '\n', '\v', '\f':
		e.newline()
	case '\r':
		e.active().cursor.Col = 0
	case '\t':
		e.tab()
	case '\b':
		s := e.active()
		if s.cursor.Col > 0 {
			s.cursor.Col--
		}
	case 0x07: // BEL
	case 0x0E, 0x0F: // SO / SI select GL slot 1 / 0
		if b == 0x0E {
			e.charsets.GL = 1
		} else {
			e.charsets.GL = 0
		}
	}
}

func (e *Emulator) newline() {
	s := e.active()
	if s.cursor.Row == s.scrollBottom {
		e.scrollUp(s.scrollTop, s.scrollBottom, 1)
		return
	}
	if s.cursor.Row < e.rows-1 {
		s.cursor.Row++
	}
}

func (e *Emulator) tab() {
	s := e.active()
	for c := s.cursor.Col + 1; c < e.cols; c++ {
		if e.tabStops[c] {
			s.cursor.Col = c
			return
		}
	}
	s.cursor.Col = e.cols - 1
}

func (e *Emulator) scrollUp(top, bottom, n int) {
	s := e.active()
	var evict func([]Cell)
	if !e.onAlt {
		evict = e.scrollback.Push
	}
	s.grid.ScrollUp(top, bottom, n, e.blank(), evict)
}

func (e *Emulator) scrollDown(top, bottom, n int) {
	e.active().grid.ScrollDown(top, bottom, n, e.blank())
}

func (e *Emulator) clampCursor(s *screen) {
	if s.cursor.Row < 0 {
		s.cursor.Row = 0
	}
	if s.cursor.Row > e.rows-1 {
		s.cursor.Row = e.rows - 1
	}
	if s.cursor.Col < 0 {
		s.cursor.Col = 0
	}
	if s.cursor.Col > e.cols-1 {
		s.cursor.Col = e.cols - 1
	}
}

// Resize preserves the top-left overlap of both grids, clamps the cursor,
// resets the scroll region to the full grid, and re-initializes tab stops
// (spec §4.3).
func (e *Emulator) Resize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	blank := e.blank()
	e.main.grid.Resize(rows, cols, blank)
	e.alt.grid.Resize(rows, cols, blank)
	e.rows, e.cols = rows, cols
	e.main.scrollTop, e.main.scrollBottom = 0, rows-1
	e.alt.scrollTop, e.alt.scrollBottom = 0, rows-1
	e.clampCursor(e.main)
	e.clampCursor(e.alt)
	e.initTabStops()
}

func (e *Emulator) initTabStops() {
	e.tabStops = make([]bool, e.cols)
	for c := 0; c < e.cols; c += defaultTabWidth {
		e.tabStops[c] = true
	}
}

// Reset restores power-on defaults (ESC c / RIS): cursor home, default
// colors, cleared attributes, default modes, full-grid scroll region,
// Ascii charsets, and a cleared grid (spec §4.3).
func (e *Emulator) Reset() {
	e.resetState()
}

func (e *Emulator) resetState() {
	e.modes = DefaultModes()
	e.charsets = DefaultCharsets()
	e.fg = DefaultColor
	e.bg = DefaultColor
	e.attrs = 0
	e.onAlt = false
	blank := e.blank()
	for _, s := range []*screen{e.main, e.alt} {
		s.grid.ClearAll(blank)
		s.cursor = Cursor{Visible: true}
		s.saved = SavedCursor{}
		s.scrollTop, s.scrollBottom = 0, e.rows-1
	}
	e.initTabStops()
	e.title = ""
}

func (e *Emulator) saveCursor(s *screen) {
	s.saved = SavedCursor{
		Cursor:     s.cursor,
		Attrs:      e.attrs,
		Fg:         e.fg,
		Bg:         e.bg,
		OriginMode: e.modes.OriginMode,
		AutoWrap:   e.modes.AutoWrap,
	}
}

func (e *Emulator) restoreCursor(s *screen) {
	sv := s.saved
	s.cursor = sv.Cursor
	e.attrs = sv.Attrs
	e.fg = sv.Fg
	e.bg = sv.Bg
	e.modes.OriginMode = sv.OriginMode
	e.modes.AutoWrap = sv.AutoWrap
	e.clampCursor(s)
}

func (e *Emulator) esc(a vtparser.Action) {
	switch a.Final {
	case '7':
		e.saveCursor(e.active())
	case '8':
		e.restoreCursor(e.active())
	case 'D': // Index
		e.newline()
	case 'E': // Next Line
		e.active().cursor.Col = 0
		e.newline()
	case 'M': // Reverse Index
		s := e.active()
		if s.cursor.Row == s.scrollTop {
			e.scrollDown(s.scrollTop, s.scrollBottom, 1)
		} else if s.cursor.Row > 0 {
			s.cursor.Row--
		}
	case 'c': // RIS full reset
		e.Reset()
	default:
		if a.NumIntermed > 0 {
			e.designateCharset(a.Intermediates[0], a.Final)
		}
	}
}

// designateCharset handles ESC ( ) * + <final> by assigning the charset
// named by final into the G slot selected by the intermediate byte.
func (e *Emulator) designateCharset(intermediate, final byte) {
	var slot int
	switch intermediate {
	case '(':
		slot = 0
	case ')':
		slot = 1
	case '*':
		slot = 2
	case '+':
		slot = 3
	default:
		return
	}
	e.charsets.G[slot] = charsetFromFinal(final)
}

func (e *Emulator) osc(a vtparser.Action) {
	switch a.OscCommand {
	case 0, 2:
		t := a.OscPayload
		if len(t) > maxTitleLen {
			t = t[:maxTitleLen]
		}
		e.title = string(t)
	case 1:
		// icon name: accepted, ignored.
	}
}

func (e *Emulator) csi(a vtparser.Action) {
	if a.Private != 0 {
		e.privateCsi(a)
		return
	}
	s := e.active()
	switch a.Final {
	case '@': // ICH: insert n blank cells at cursor
		n := a.Param(0, 1)
		row := s.grid.Row(s.cursor.Row)
		for c := e.cols - 1; c >= s.cursor.Col+n; c-- {
			row[c] = row[c-n]
		}
		for c := s.cursor.Col; c < s.cursor.Col+n && c < e.cols; c++ {
			row[c] = e.blank()
		}
		s.grid.MarkDirty(s.cursor.Row)
	case 'A': // CUU
		s.cursor.Row -= a.Param(0, 1)
		e.clampCursor(s)
	case 'B': // CUD
		s.cursor.Row += a.Param(0, 1)
		e.clampCursor(s)
	case 'C': // CUF
		s.cursor.Col += a.Param(0, 1)
		e.clampCursor(s)
	case 'D': // CUB
		s.cursor.Col -= a.Param(0, 1)
		e.clampCursor(s)
	case 'E': // CNL
		s.cursor.Row += a.Param(0, 1)
		s.cursor.Col = 0
		e.clampCursor(s)
	case 'F': // CPL
		s.cursor.Row -= a.Param(0, 1)
		s.cursor.Col = 0
		e.clampCursor(s)
	case 'G': // CHA
		s.cursor.Col = a.Param(0, 1) - 1
		e.clampCursor(s)
	case 'H', 'f': // CUP
		row := a.Param(0, 1) - 1
		col := a.Param(1, 1) - 1
		if e.modes.OriginMode {
			row += s.scrollTop
		}
		s.cursor.Row, s.cursor.Col = row, col
		e.clampCursor(s)
	case 'J': // ED
		e.eraseInDisplay(s, a.Param(0, 0))
	case 'K': // EL
		e.eraseInLine(s, a.Param(0, 0))
	case 'L': // IL
		e.scrollDownAt(s, s.cursor.Row, a.Param(0, 1))
	case 'M': // DL
		e.scrollUpAt(s, s.cursor.Row, a.Param(0, 1))
	case 'S': // SU
		e.scrollUp(s.scrollTop, s.scrollBottom, a.Param(0, 1))
	case 'T': // SD
		e.scrollDown(s.scrollTop, s.scrollBottom, a.Param(0, 1))
	case 'd': // VPA
		s.cursor.Row = a.Param(0, 1) - 1
		e.clampCursor(s)
	case 'm': // SGR
		e.sgr(a)
	case 'r': // DECSTBM
		top := a.Param(0, 1) - 1
		bottom := a.Param(1, e.rows) - 1
		if top < 0 {
			top = 0
		}
		if bottom > e.rows-1 {
			bottom = e.rows - 1
		}
		if top < bottom {
			s.scrollTop, s.scrollBottom = top, bottom
		} else {
			s.scrollTop, s.scrollBottom = 0, e.rows-1
		}
		s.cursor.Row, s.cursor.Col = 0, 0
	case 's':
		e.saveCursor(s)
	case 'u':
		e.restoreCursor(s)
	}
}

// scrollUpAt implements DL (delete n lines at row): equivalent to a
// scroll-up of the region [row, scrollBottom].
func (e *Emulator) scrollUpAt(s *screen, row, n int) {
	if row < s.scrollTop || row > s.scrollBottom {
		return
	}
	s.grid.ScrollUp(row, s.scrollBottom, n, e.blank(), nil)
}

// scrollDownAt implements IL (insert n blank lines at row).
func (e *Emulator) scrollDownAt(s *screen, row, n int) {
	if row < s.scrollTop || row > s.scrollBottom {
		return
	}
	s.grid.ScrollDown(row, s.scrollBottom, n, e.blank())
}

func (e *Emulator) eraseInDisplay(s *screen, mode int) {
	switch mode {
	case 0:
		e.eraseInLine(s, 0)
		for r := s.cursor.Row + 1; r < e.rows; r++ {
			s.grid.ClearRow(r, e.blank())
		}
	case 1:
		e.eraseInLine(s, 1)
		for r := 0; r < s.cursor.Row; r++ {
			s.grid.ClearRow(r, e.blank())
		}
	case 2, 3:
		s.grid.ClearAll(e.blank())
	}
}

func (e *Emulator) eraseInLine(s *screen, mode int) {
	switch mode {
	case 0:
		s.grid.ClearRange(s.cursor.Row, s.cursor.Col, e.cols-1, e.blank())
	case 1:
		s.grid.ClearRange(s.cursor.Row, 0, s.cursor.Col, e.blank())
	case 2:
		s.grid.ClearRow(s.cursor.Row, e.blank())
	}
}

func (e *Emulator) privateCsi(a vtparser.Action) {
	set := a.Final == 'h'
	if a.Final != 'h' && a.Final != 'l' {
		return
	}
	for i := 0; i < a.NumParams; i++ {
		p, ok := a.ParamRaw(i)
		if !ok {
			break
		}
		e.applyPrivateMode(p, set)
	}
}

func (e *Emulator) applyPrivateMode(mode int, set bool) {
	switch mode {
	case 1:
		e.modes.ApplicationCursorKeys = set
	case 3: // 80/132 column mode: not implemented, accepted and ignored.
	case 6:
		e.modes.OriginMode = set
		s := e.active()
		s.cursor.Row, s.cursor.Col = 0, 0
	case 7:
		e.modes.AutoWrap = set
	case 12: // cursor blink: accepted and ignored.
	case 25:
		e.modes.CursorVisible = set
		e.active().cursor.Visible = set
	case 1000:
		e.setMouse(set, MouseX10)
	case 1002:
		e.setMouse(set, MouseButton)
	case 1003:
		e.setMouse(set, MouseAny)
	case 1004:
		e.modes.FocusEvents = set
	case 1049:
		e.setAltScreen(set)
	case 2004:
		e.modes.BracketedPaste = set
	}
}

func (e *Emulator) setMouse(set bool, mode MouseMode) {
	if set {
		e.modes.Mouse = mode
	} else {
		e.modes.Mouse = MouseNone
	}
}

func (e *Emulator) setAltScreen(enter bool) {
	if enter == e.onAlt {
		return
	}
	if enter {
		e.saveCursor(e.main)
		e.onAlt = true
		e.alt.grid.ClearAll(e.blank())
		e.alt.cursor = Cursor{Visible: e.modes.CursorVisible}
	} else {
		e.onAlt = false
		e.restoreCursor(e.main)
	}
	e.modes.AlternateScreen = enter
	e.active().grid.MarkAllDirty()
}

func (e *Emulator) sgr(a vtparser.Action) {
	if a.NumParams == 0 {
		e.attrs = 0
		e.fg, e.bg = DefaultColor, DefaultColor
		return
	}
	i := 0
	for i < a.NumParams {
		p, _ := a.ParamRaw(i)
		switch {
		case p == 0:
			e.attrs = 0
			e.fg, e.bg = DefaultColor, DefaultColor
		case p == 1:
			e.attrs |= AttrBold
		case p == 2:
			e.attrs |= AttrDim
		case p == 3:
			e.attrs |= AttrItalic
		case p == 4:
			e.attrs |= AttrUnderline
		case p == 5:
			e.attrs |= AttrBlink
		case p == 7:
			e.attrs |= AttrInverse
		case p == 8:
			e.attrs |= AttrInvisible
		case p == 9:
			e.attrs |= AttrStrikethrough
		case p == 22:
			e.attrs &^= AttrBold | AttrDim
		case p == 23:
			e.attrs &^= AttrItalic
		case p == 24:
			e.attrs &^= AttrUnderline
		case p == 25:
			e.attrs &^= AttrBlink
		case p == 27:
			e.attrs &^= AttrInverse
		case p == 28:
			e.attrs &^= AttrInvisible
		case p == 29:
			e.attrs &^= AttrStrikethrough
		case p >= 30 && p <= 37:
			e.fg = Indexed(uint8(p - 30))
		case p == 38:
			var consumed int
			e.fg, consumed = e.extendedColor(a, i+1)
			i += consumed
		case p == 39:
			e.fg = DefaultColor
		case p >= 40 && p <= 47:
			e.bg = Indexed(uint8(p - 40))
		case p == 48:
			var consumed int
			e.bg, consumed = e.extendedColor(a, i+1)
			i += consumed
		case p == 49:
			e.bg = DefaultColor
		case p >= 90 && p <= 97:
			e.fg = Indexed(uint8(p - 90 + 8))
		case p >= 100 && p <= 107:
			e.bg = Indexed(uint8(p - 100 + 8))
		}
		i++
	}
}

// extendedColor parses the SGR 38/48 continuation starting at index start
// (which must hold either 5;n or 2;r;g;b) and returns the resolved color
// plus the number of extra parameters consumed after the 38/48 itself.
func (e *Emulator) extendedColor(a vtparser.Action, start int) (Color, int) {
	mode, ok := a.ParamRaw(start)
	if !ok {
		return DefaultColor, 0
	}
	switch mode {
	case 5:
		idx, ok := a.ParamRaw(start + 1)
		if !ok {
			return DefaultColor, 1
		}
		return Indexed(uint8(idx)), 2
	case 2:
		r, _ := a.ParamRaw(start + 1)
		g, _ := a.ParamRaw(start + 2)
		b, _ := a.ParamRaw(start + 3)
		return RGB(uint8(r), uint8(g), uint8(b)), 4
	default:
		return DefaultColor, 1
	}
}

// String renders a brief debug summary of the cursor and active screen,
// useful for logging a pane's state without dumping the whole grid.
func (e *Emulator) String() string {
	c := e.Cursor()
	return fmt.Sprintf("term(%dx%d cursor=%d,%d alt=%v)", e.rows, e.cols, c.Row, c.Col, e.onAlt)
}
