// Package render turns a muxtree Window's panes into a diffed stream of
// ANSI escape sequences for one attached client (spec §4.5).
package render

import (
	"bytes"
	"fmt"

	"github.com/muesli/termenv"

	"github.com/dcosson/tmuxcore/internal/muxtree"
	"github.com/dcosson/tmuxcore/internal/term"
)

// BorderStyle selects whether single-cell borders are drawn between panes.
type BorderStyle int

const (
	BordersOn BorderStyle = iota
	BordersOff
)

// StatusPosition selects where the status bar row is drawn.
type StatusPosition int

const (
	StatusTop StatusPosition = iota
	StatusBottom
)

// StatusBar is the opaque, already-expanded left/right status strings an
// external collaborator supplies for the current session/window (spec §6).
type StatusBar struct {
	Enabled  bool
	Position StatusPosition
	Left     string
	Right    string
	Fg, Bg   term.Color
}

const (
	activeBorderIdx   = 6 // cyan: the focused pane's border color
	inactiveBorderIdx = 8 // grey
)

// Renderer keeps the previous composed frame for one client and produces
// minimal-diff ANSI output for the next one.
type Renderer struct {
	rows, cols int
	prev       [][]term.Cell
	valid      bool

	profile termenv.Profile

	curFg, curBg Color
	curAttrs     term.Attrs
	attrsValid   bool
	lastRow, lastCol int
	haveCursor   bool
}

// Color is a local alias for term.Color, the type the renderer's current
// fg/bg state is tracked in.
type Color = term.Color

// New creates a renderer for a client terminal of the given size using the
// given color profile (from termenv.NewOutput(conn).Profile or similar).
func New(rows, cols int, profile termenv.Profile) *Renderer {
	return &Renderer{rows: rows, cols: cols, profile: profile}
}

// Resize invalidates the previous frame so the next Render call produces a
// full redraw (spec §4.5: "On dimension mismatch ... the previous frame is
// invalidated").
func (r *Renderer) Resize(rows, cols int) {
	r.rows, r.cols = rows, cols
	r.valid = false
}

// Render composes win's visible panes (honoring zoom) plus borders and an
// optional status bar into an absolute (rows x cols) frame, diffs it
// against the previous frame, and returns the ANSI bytes to send.
func (r *Renderer) Render(mgr *muxtree.Manager, win *muxtree.Window, borders BorderStyle, status StatusBar) []byte {
	frame := make([][]term.Cell, r.rows)
	for i := range frame {
		frame[i] = make([]term.Cell, r.cols)
		for c := range frame[i] {
			frame[i][c] = term.Cell{Rune: ' ', Width: 1}
		}
	}

	statusRow := -1
	if status.Enabled && r.rows > 0 {
		if status.Position == StatusTop {
			statusRow = 0
		} else {
			statusRow = r.rows - 1
		}
		r.fillStatusRow(frame[statusRow], status)
	}

	panes := win.Panes()
	zoomedId, isZoomed := zoomedPane(mgr, panes)
	for _, pid := range panes {
		if isZoomed && pid != zoomedId {
			continue
		}
		p, ok := mgr.Pane(pid)
		if !ok {
			continue
		}
		r.composePane(frame, p, statusRow)
	}

	if borders == BordersOn && len(panes) > 1 && !isZoomed {
		r.drawBorders(frame, mgr, win, statusRow)
	}

	var cursorRow, cursorCol int
	var cursorVisible bool
	if activeId := win.ActivePane(); activeId != (muxtree.PaneId{}) {
		if p, ok := mgr.Pane(activeId); ok {
			cur := p.Emulator().Cursor()
			rect := p.Rect()
			cursorRow = rect.Y + cur.Row
			cursorCol = rect.X + cur.Col
			cursorVisible = cur.Visible
		}
	}

	return r.diff(frame, cursorRow, cursorCol, cursorVisible)
}

func zoomedPane(mgr *muxtree.Manager, panes []muxtree.PaneId) (muxtree.PaneId, bool) {
	for _, pid := range panes {
		if p, ok := mgr.Pane(pid); ok && p.Zoomed() {
			return pid, true
		}
	}
	return muxtree.PaneId{}, false
}

func (r *Renderer) composePane(frame [][]term.Cell, p *muxtree.Pane, statusRow int) {
	rect := p.Rect()
	grid := p.Emulator().Grid()
	for row := 0; row < rect.Height; row++ {
		fr := rect.Y + row
		if fr < 0 || fr >= r.rows || fr == statusRow {
			continue
		}
		for col := 0; col < rect.Width; col++ {
			fc := rect.X + col
			if fc < 0 || fc >= r.cols {
				continue
			}
			frame[fr][fc] = grid.Cell(row, col)
		}
	}
}

func (r *Renderer) fillStatusRow(row []term.Cell, status StatusBar) {
	blank := term.Cell{Rune: ' ', Width: 1, Fg: status.Fg, Bg: status.Bg}
	for i := range row {
		row[i] = blank
	}
	writeText(row, 0, status.Left, status.Fg, status.Bg)
	if status.Right != "" {
		start := len(row) - len([]rune(status.Right))
		if start < 0 {
			start = 0
		}
		writeText(row, start, status.Right, status.Fg, status.Bg)
	}
}

func writeText(row []term.Cell, start int, text string, fg, bg term.Color) {
	col := start
	for _, ru := range text {
		if col < 0 {
			col++
			continue
		}
		if col >= len(row) {
			break
		}
		row[col] = term.Cell{Rune: ru, Width: 1, Fg: fg, Bg: bg}
		col++
	}
}

// drawBorders paints a single-cell border in the reserved column/row
// between adjacent panes, coloring the active pane's border distinctly
// (spec §4.5).
func (r *Renderer) drawBorders(frame [][]term.Cell, mgr *muxtree.Manager, win *muxtree.Window, statusRow int) {
	active := win.ActivePane()
	for _, pid := range win.Panes() {
		p, ok := mgr.Pane(pid)
		if !ok {
			continue
		}
		rect := p.Rect()
		idx := uint8(inactiveBorderIdx)
		if pid == active {
			idx = activeBorderIdx
		}
		col := term.Indexed(idx)

		rightCol := rect.X + rect.Width
		if rightCol < r.cols {
			for row := rect.Y; row < rect.Y+rect.Height && row < r.rows; row++ {
				if row == statusRow {
					continue
				}
				frame[row][rightCol] = term.Cell{Rune: '│', Width: 1, Fg: col}
			}
		}
		bottomRow := rect.Y + rect.Height
		if bottomRow < r.rows && bottomRow != statusRow {
			for c := rect.X; c < rect.X+rect.Width && c < r.cols; c++ {
				frame[bottomRow][c] = term.Cell{Rune: '─', Width: 1, Fg: col}
			}
		}
	}
}

// diff compares frame against the previously rendered frame and emits the
// minimal ANSI byte stream needed to bring a client's screen up to date.
func (r *Renderer) diff(frame [][]term.Cell, cursorRow, cursorCol int, cursorVisible bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x1b[?25l")

	full := !r.valid || len(r.prev) != r.rows || (r.rows > 0 && len(r.prev[0]) != r.cols)

	r.attrsValid = false
	r.haveCursor = false

	for row := 0; row < r.rows; row++ {
		for col := 0; col < r.cols; col++ {
			cell := frame[row][col]
			if cell.IsContinuation() {
				continue
			}
			if !full && r.prev[row][col] == cell {
				continue
			}
			r.moveCursor(&buf, row, col)
			r.applySGR(&buf, cell)
			buf.WriteRune(cell.Rune)
			r.lastCol = col + int(cell.Width)
			if cell.Width == 0 {
				r.lastCol = col + 1
			}
			r.lastRow = row
			r.haveCursor = true
		}
	}

	r.prev = frame
	r.valid = true

	if cursorVisible {
		fmt.Fprintf(&buf, "\x1b[%d;%dH\x1b[?25h", cursorRow+1, cursorCol+1)
	}
	return buf.Bytes()
}

func (r *Renderer) moveCursor(buf *bytes.Buffer, row, col int) {
	if r.haveCursor && row == r.lastRow && col == r.lastCol {
		return
	}
	fmt.Fprintf(buf, "\x1b[%d;%dH", row+1, col+1)
}

func (r *Renderer) applySGR(buf *bytes.Buffer, cell term.Cell) {
	if r.attrsValid && cell.Fg == r.curFg && cell.Bg == r.curBg && cell.Attrs == r.curAttrs {
		return
	}
	buf.WriteString("\x1b[0m")
	parts := sgrAttrParts(cell.Attrs)
	parts = append(parts, sgrFragment(cell.Fg, false, r.profile), sgrFragment(cell.Bg, true, r.profile))
	buf.WriteString("\x1b[")
	for i, part := range parts {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.WriteString(part)
	}
	buf.WriteByte('m')

	r.curFg, r.curBg, r.curAttrs = cell.Fg, cell.Bg, cell.Attrs
	r.attrsValid = true
}

func sgrAttrParts(a term.Attrs) []string {
	var parts []string
	if a.Has(term.AttrBold) {
		parts = append(parts, "1")
	}
	if a.Has(term.AttrDim) {
		parts = append(parts, "2")
	}
	if a.Has(term.AttrItalic) {
		parts = append(parts, "3")
	}
	if a.Has(term.AttrUnderline) {
		parts = append(parts, "4")
	}
	if a.Has(term.AttrBlink) {
		parts = append(parts, "5")
	}
	if a.Has(term.AttrInverse) {
		parts = append(parts, "7")
	}
	if a.Has(term.AttrInvisible) {
		parts = append(parts, "8")
	}
	if a.Has(term.AttrStrikethrough) {
		parts = append(parts, "9")
	}
	return parts
}
