package term

import "testing"

func TestPrintAdvancesCursor(t *testing.T) {
	e := NewEmulator(5, 10, 100)
	e.Write([]byte("hi"))
	c := e.Cursor()
	if c.Row != 0 || c.Col != 2 {
		t.Fatalf("cursor = %+v, want (0,2)", c)
	}
	if e.Grid().Cell(0, 0).Rune != 'h' || e.Grid().Cell(0, 1).Rune != 'i' {
		t.Fatalf("grid row 0 = %q %q", e.Grid().Cell(0, 0).Rune, e.Grid().Cell(0, 1).Rune)
	}
}

func TestAutowrapAtEndOfLine(t *testing.T) {
	e := NewEmulator(3, 3, 0)
	e.Write([]byte("abcd"))
	c := e.Cursor()
	if c.Row != 1 || c.Col != 1 {
		t.Fatalf("cursor = %+v, want (1,1)", c)
	}
	if e.Grid().Cell(1, 0).Rune != 'd' {
		t.Fatalf("wrapped cell = %q, want d", e.Grid().Cell(1, 0).Rune)
	}
}

func TestNewlineScrollsAtBottom(t *testing.T) {
	e := NewEmulator(2, 80, 100)
	e.Write([]byte("a\nb\nc"))
	if e.Scrollback().Len() != 1 {
		t.Fatalf("scrollback len = %d, want 1", e.Scrollback().Len())
	}
	row0 := e.Scrollback().At(0)
	if row0[0].Rune != 'a' {
		t.Fatalf("evicted row = %+v", row0[0])
	}
}

func TestCursorPositionCSI(t *testing.T) {
	e := NewEmulator(10, 10, 0)
	e.Write([]byte("\x1b[3;5H"))
	c := e.Cursor()
	if c.Row != 2 || c.Col != 4 {
		t.Fatalf("cursor = %+v, want (2,4)", c)
	}
}

func TestEraseInDisplayMode2(t *testing.T) {
	e := NewEmulator(2, 3, 0)
	e.Write([]byte("abc"))
	e.Write([]byte("\x1b[2J"))
	for r := 0; r < 2; r++ {
		for _, cell := range e.Grid().Row(r) {
			if cell.Rune != ' ' {
				t.Fatalf("row %d not cleared: %+v", r, cell)
			}
		}
	}
}

func TestSGRBoldAndColor(t *testing.T) {
	e := NewEmulator(1, 10, 0)
	e.Write([]byte("\x1b[1;31mX"))
	cell := e.Grid().Cell(0, 0)
	if !cell.Attrs.Has(AttrBold) {
		t.Error("expected bold attribute set")
	}
	if cell.Fg.Kind != ColorIndexed || cell.Fg.Index() != 1 {
		t.Errorf("fg = %+v, want indexed red", cell.Fg)
	}
}

func TestSGRResetClearsAttrsAndColors(t *testing.T) {
	e := NewEmulator(1, 10, 0)
	e.Write([]byte("\x1b[1;31m"))
	e.Write([]byte("\x1b[0mX"))
	cell := e.Grid().Cell(0, 0)
	if cell.Attrs.Has(AttrBold) {
		t.Error("expected bold cleared by SGR 0")
	}
	if cell.Fg.Kind != ColorDefault {
		t.Errorf("fg = %+v, want default", cell.Fg)
	}
}

func TestSGRExtendedRGBColor(t *testing.T) {
	e := NewEmulator(1, 10, 0)
	e.Write([]byte("\x1b[38;2;10;20;30mX"))
	cell := e.Grid().Cell(0, 0)
	if cell.Fg.Kind != ColorRGB {
		t.Fatalf("fg kind = %v, want RGB", cell.Fg.Kind)
	}
	r, g, b := cell.Fg.RGBValues()
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("rgb = %d,%d,%d", r, g, b)
	}
}

func TestAltScreenSwitchRestoresCursor(t *testing.T) {
	e := NewEmulator(5, 5, 0)
	e.Write([]byte("\x1b[3;3H"))
	e.Write([]byte("\x1b[?1049h"))
	if !e.Modes().AlternateScreen {
		t.Fatal("expected alternate screen mode set")
	}
	e.Write([]byte("\x1b[1;1H"))
	e.Write([]byte("\x1b[?1049l"))
	c := e.Cursor()
	if c.Row != 2 || c.Col != 2 {
		t.Fatalf("cursor after restore = %+v, want (2,2)", c)
	}
}

func TestResizePreservesTopLeft(t *testing.T) {
	e := NewEmulator(3, 3, 0)
	e.Write([]byte("abc"))
	e.Resize(5, 5)
	if e.Grid().Cell(0, 0).Rune != 'a' {
		t.Fatalf("cell after resize = %+v", e.Grid().Cell(0, 0))
	}
	if e.Grid().Rows() != 5 || e.Grid().Cols() != 5 {
		t.Fatalf("dims = %dx%d", e.Grid().Rows(), e.Grid().Cols())
	}
}

func TestResetReturnsToPowerOnDefaults(t *testing.T) {
	e := NewEmulator(4, 4, 10)
	e.Write([]byte("\x1b[1;31mabc"))
	e.Write([]byte("\x1b[?25l"))
	e.Write([]byte("\x1bc"))
	if e.Modes().CursorVisible != true {
		t.Error("expected cursor visible after reset")
	}
	c := e.Cursor()
	if c.Row != 0 || c.Col != 0 {
		t.Errorf("cursor = %+v, want origin", c)
	}
	if e.Grid().Cell(0, 0).Rune != ' ' {
		t.Error("expected grid cleared after reset")
	}
}

func TestOscSetsTitle(t *testing.T) {
	e := NewEmulator(1, 10, 0)
	e.Write([]byte("\x1b]0;hello world\x07"))
	if e.Title() != "hello world" {
		t.Errorf("title = %q", e.Title())
	}
}

func TestTabAdvancesToStop(t *testing.T) {
	e := NewEmulator(1, 20, 0)
	e.Write([]byte("\t"))
	if c := e.Cursor(); c.Col != 8 {
		t.Errorf("col = %d, want 8", c.Col)
	}
}
