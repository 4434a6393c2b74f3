package muxtree

import "testing"

func newTestManager() *Manager {
	return NewManager("/bin/sh", nil, "xterm-256color", 1000)
}

func TestCreateSessionDuplicateName(t *testing.T) {
	m := newTestManager()
	if _, err := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0); err != nil {
		t.Fatalf("first CreateSession: %v", err)
	}
	if _, err := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0); err != ErrDuplicateName {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCreateSessionSingleWindowSinglePane(t *testing.T) {
	m := newTestManager()
	sid, err := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := m.Session(sid)
	if !ok || len(s.Windows()) != 1 {
		t.Fatalf("session = %+v, ok=%v", s, ok)
	}
	w, ok := m.Window(s.ActiveWindow())
	if !ok || len(w.Panes()) != 1 {
		t.Fatalf("window = %+v, ok=%v", w, ok)
	}
	p, ok := m.Pane(w.ActivePane())
	if !ok || p.PTY() != nil {
		t.Fatalf("expected unspawned pane, got %+v", p)
	}
}

func TestSplitProducesTwoPanes(t *testing.T) {
	m := newTestManager()
	sid, _ := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0)
	s, _ := m.Session(sid)
	winId := s.ActiveWindow()

	newId, err := m.Split(winId, Horizontal)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	w, _ := m.Window(winId)
	if len(w.Panes()) != 2 {
		t.Fatalf("panes = %d, want 2", len(w.Panes()))
	}
	if w.Layout() != HorizontalSplit {
		t.Fatalf("layout = %v, want HorizontalSplit", w.Layout())
	}
	newPane, ok := m.Pane(newId)
	if !ok || newPane.Active() {
		t.Fatalf("new pane should be non-active: %+v", newPane)
	}
}

func TestSplitFailsWhenTooSmall(t *testing.T) {
	m := newTestManager()
	sid, _ := m.CreateSession("work", Rect{Width: 1, Height: 1}, 0)
	s, _ := m.Session(sid)
	winId := s.ActiveWindow()
	if _, err := m.Split(winId, Horizontal); err != ErrRectTooSmall {
		t.Fatalf("expected ErrRectTooSmall, got %v", err)
	}
}

func TestRemovePaneReactivatesPrevious(t *testing.T) {
	m := newTestManager()
	sid, _ := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0)
	s, _ := m.Session(sid)
	winId := s.ActiveWindow()
	w, _ := m.Window(winId)
	firstPane := w.ActivePane()

	secondPane, _ := m.Split(winId, Horizontal)
	_ = m.FocusPane(winId, secondPane)

	if err := m.RemovePane(winId, secondPane); err != nil {
		t.Fatalf("RemovePane: %v", err)
	}
	w, _ = m.Window(winId)
	if w.ActivePane() != firstPane {
		t.Fatalf("active pane = %v, want %v", w.ActivePane(), firstPane)
	}
	if _, ok := m.Pane(secondPane); ok {
		t.Fatal("removed pane should no longer resolve")
	}
}

func TestStaleHandleFailsAfterRemoval(t *testing.T) {
	m := newTestManager()
	sid, _ := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0)
	s, _ := m.Session(sid)
	winId := s.ActiveWindow()
	w, _ := m.Window(winId)
	paneId := w.ActivePane()

	secondPane, _ := m.Split(winId, Horizontal)
	_ = m.RemovePane(winId, secondPane)

	// A third pane created afterward may reuse the freed slot index but
	// must carry a different generation.
	thirdPane, _ := m.Split(winId, Vertical)
	if thirdPane.Index == secondPane.Index && thirdPane.Gen == secondPane.Gen {
		t.Fatal("expected reused slot to carry a new generation")
	}
	if _, ok := m.Pane(secondPane); ok {
		t.Fatal("stale handle should not resolve")
	}
	if _, ok := m.Pane(paneId); !ok {
		t.Fatal("original pane should still resolve")
	}
}

func TestRemoveWindowRefusesLastWindow(t *testing.T) {
	m := newTestManager()
	sid, _ := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0)
	if err := m.RemoveWindow(sid, 0); err != ErrOnlyWindow {
		t.Fatalf("expected ErrOnlyWindow, got %v", err)
	}
}

func TestCreateWindowThenRemoveReindexes(t *testing.T) {
	m := newTestManager()
	sid, _ := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0)
	_, err := m.CreateWindow(sid, "second")
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.CreateWindow(sid, "third")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := m.Session(sid)
	if len(s.Windows()) != 3 {
		t.Fatalf("windows = %d, want 3", len(s.Windows()))
	}
	if err := m.RemoveWindow(sid, 0); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	s, _ = m.Session(sid)
	if len(s.Windows()) != 2 {
		t.Fatalf("windows after remove = %d, want 2", len(s.Windows()))
	}
	for i, wid := range s.Windows() {
		w, _ := m.Window(wid)
		if w.Index() != i {
			t.Errorf("window %d has stale index %d", i, w.Index())
		}
	}
}

func TestResizeWindowHorizontalSplitDividesWidth(t *testing.T) {
	m := newTestManager()
	sid, _ := m.CreateSession("work", Rect{Width: 80, Height: 24}, 0)
	s, _ := m.Session(sid)
	winId := s.ActiveWindow()
	m.Split(winId, Horizontal)

	if err := m.ResizeWindow(winId, Rect{Width: 100, Height: 30}); err != nil {
		t.Fatalf("ResizeWindow: %v", err)
	}
	w, _ := m.Window(winId)
	total := 0
	for _, pid := range w.Panes() {
		p, _ := m.Pane(pid)
		total += p.Rect().Width
	}
	if total != 99 { // 100 - 1 border column
		t.Fatalf("total width = %d, want 99", total)
	}
}
