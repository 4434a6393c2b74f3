package render

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"

	"github.com/dcosson/tmuxcore/internal/muxtree"
	"github.com/dcosson/tmuxcore/internal/term"
)

func newTestSession(t *testing.T, rows, cols int) (*muxtree.Manager, *muxtree.Window) {
	t.Helper()
	mgr := muxtree.NewManager("/bin/sh", nil, "xterm-256color", 100)
	sid, err := mgr.CreateSession("work", muxtree.Rect{Width: cols, Height: rows}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := mgr.Session(sid)
	w, _ := mgr.Window(s.ActiveWindow())
	return mgr, w
}

func writeToActivePane(mgr *muxtree.Manager, w *muxtree.Window, data string) {
	p, _ := mgr.Pane(w.ActivePane())
	p.Emulator().Write([]byte(data))
}

func TestRenderFirstFrameIsFullRedraw(t *testing.T) {
	mgr, w := newTestSession(t, 5, 10)
	writeToActivePane(mgr, w, "hi")

	r := New(5, 10, termenv.TrueColor)
	out := r.Render(mgr, w, BordersOff, StatusBar{})
	if !bytes.Contains(out, []byte("h")) || !bytes.Contains(out, []byte("i")) {
		t.Fatalf("expected rendered output to contain written glyphs, got %q", out)
	}
}

func TestRenderSecondFrameIsDiffOnly(t *testing.T) {
	mgr, w := newTestSession(t, 5, 10)
	writeToActivePane(mgr, w, "hi")

	r := New(5, 10, termenv.TrueColor)
	_ = r.Render(mgr, w, BordersOff, StatusBar{})

	// Nothing changed: the second render should touch no glyphs, only a
	// cursor-position escape at most.
	out := r.Render(mgr, w, BordersOff, StatusBar{})
	if bytes.Contains(out, []byte("h")) {
		t.Fatalf("expected no redundant glyph output on unchanged frame, got %q", out)
	}
}

func TestRenderAfterResizeForcesFullRedraw(t *testing.T) {
	mgr, w := newTestSession(t, 5, 10)
	writeToActivePane(mgr, w, "x")

	r := New(5, 10, termenv.TrueColor)
	_ = r.Render(mgr, w, BordersOff, StatusBar{})

	r.Resize(6, 12)
	if r.valid {
		t.Fatal("Resize should invalidate the previous frame")
	}
}

func TestStatusBarRendersLeftAndRightText(t *testing.T) {
	mgr, w := newTestSession(t, 5, 20)
	r := New(5, 20, termenv.TrueColor)
	status := StatusBar{
		Enabled:  true,
		Position: StatusBottom,
		Left:     "work",
		Right:    "1/2",
	}
	out := r.Render(mgr, w, BordersOff, status)
	if !bytes.Contains(out, []byte("work")) {
		t.Fatalf("expected status left text in output, got %q", out)
	}
	if !bytes.Contains(out, []byte("1/2")) {
		t.Fatalf("expected status right text in output, got %q", out)
	}
}

func TestDrawBordersPaintsDividerBetweenSplitPanes(t *testing.T) {
	mgr, w := newTestSession(t, 10, 21)
	if _, err := mgr.Split(w.ID(), muxtree.Horizontal); err != nil {
		t.Fatal(err)
	}
	w, _ = mgr.Window(w.ID())

	r := New(10, 21, termenv.TrueColor)
	out := r.Render(mgr, w, BordersOn, StatusBar{})
	if !bytes.Contains(out, []byte("│")) {
		t.Fatalf("expected a vertical border glyph in output, got %q", out)
	}
}

func TestZoomedPaneSkipsOthers(t *testing.T) {
	mgr, w := newTestSession(t, 10, 21)
	secondId, err := mgr.Split(w.ID(), muxtree.Horizontal)
	if err != nil {
		t.Fatal(err)
	}
	w, _ = mgr.Window(w.ID())

	second, _ := mgr.Pane(secondId)
	second.ToggleZoom()

	id, ok := zoomedPane(mgr, w.Panes())
	if !ok || id != secondId {
		t.Fatalf("zoomedPane = %v, %v; want %v, true", id, ok, secondId)
	}
}

func TestSgrFragmentDefaultColor(t *testing.T) {
	if got := sgrFragment(term.DefaultColor, false, termenv.TrueColor); got != "39" {
		t.Fatalf("fg default = %q, want 39", got)
	}
	if got := sgrFragment(term.DefaultColor, true, termenv.TrueColor); got != "49" {
		t.Fatalf("bg default = %q, want 49", got)
	}
}

func TestSgrFragmentIndexedLowAndHigh(t *testing.T) {
	if got := sgrFragment(term.Indexed(3), false, termenv.TrueColor); got != "33" {
		t.Fatalf("indexed 3 fg = %q, want 33", got)
	}
	if got := sgrFragment(term.Indexed(12), false, termenv.TrueColor); got != "94" {
		t.Fatalf("indexed 12 fg = %q, want 94", got)
	}
	if got := sgrFragment(term.Indexed(200), true, termenv.TrueColor); got != "48;5;200" {
		t.Fatalf("indexed 200 bg = %q, want 48;5;200", got)
	}
}

func TestSgrFragmentRGBTrueColorPassthrough(t *testing.T) {
	got := sgrFragment(term.RGB(10, 20, 30), false, termenv.TrueColor)
	if got != "38;2;10;20;30" {
		t.Fatalf("rgb fg = %q, want 38;2;10;20;30", got)
	}
}

func TestSgrFragmentRGBDowngradesForANSIProfile(t *testing.T) {
	got := sgrFragment(term.RGB(255, 0, 0), false, termenv.ANSI)
	// Pure red should downgrade to one of the basic/bright red slots.
	if got != "31" && got != "91" {
		t.Fatalf("rgb fg downgraded = %q, want 31 or 91", got)
	}
}

func TestSgrFragmentAsciiProfileDropsColor(t *testing.T) {
	got := sgrFragment(term.RGB(10, 200, 30), false, termenv.Ascii)
	if got != "39" {
		t.Fatalf("ascii profile fg = %q, want 39", got)
	}
}
