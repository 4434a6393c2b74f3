// Package muxtree implements the session→window→pane tree (spec §3, §4.4):
// arena-addressed Sessions, Windows, and Panes with split/resize/focus/zoom/
// remove operations and the invariants spec.md's data model describes.
package muxtree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dcosson/tmuxcore/internal/ptyio"
)

var (
	ErrDuplicateName   = errors.New("muxtree: session name already in use")
	ErrSessionNotFound = errors.New("muxtree: no such session")
	ErrWindowNotFound  = errors.New("muxtree: no such window")
	ErrPaneNotFound    = errors.New("muxtree: no such pane")
	ErrOnlyWindow      = errors.New("muxtree: refusing to remove a session's only window")
)

// Manager is the SessionManager of spec §3: it owns every Session, Window,
// and Pane, enforces session name uniqueness, and tracks which session is
// active.
type Manager struct {
	sessions arena[Session]
	windows  arena[Window]
	panes    arena[Pane]

	names map[string]SessionId

	activeSession    SessionId
	hasActiveSession bool

	shell             string
	env               map[string]string
	term              string
	defaultScrollback int
}

// NewManager creates an empty manager. shell/env/termName are used to
// spawn every pane's child process; defaultScrollback seeds new sessions
// that don't specify their own scrollback size.
func NewManager(shell string, env map[string]string, termName string, defaultScrollback int) *Manager {
	return &Manager{
		names:             make(map[string]SessionId),
		shell:             shell,
		env:               env,
		term:              termName,
		defaultScrollback: defaultScrollback,
	}
}

// CreateSession creates a Session containing one Window with one unspawned
// Pane (spec §4.4). If name is empty, a short UUID-derived name is used —
// the one place in the tree a random unique string, rather than an
// arena-assigned integer id, is the right tool (spec Design Notes §9 decision).
func (m *Manager) CreateSession(name string, rect Rect, scrollback int) (SessionId, error) {
	if name == "" {
		name = "session-" + uuid.NewString()[:8]
	}
	if _, exists := m.names[name]; exists {
		return SessionId{}, ErrDuplicateName
	}
	if scrollback <= 0 {
		scrollback = m.defaultScrollback
	}

	paneId := m.newPane(rect, scrollback)
	winIdx, winGen := m.windows.insert(Window{
		panes:     []PaneId{paneId},
		activeIdx: 0,
		layout:    Single,
	})
	winId := WindowId{Index: winIdx, Gen: winGen}
	if w, ok := m.windows.get(winIdx, winGen); ok {
		w.id = winId
	}

	sessIdx, sessGen := m.sessions.insert(Session{
		name:       name,
		windows:    []WindowId{winId},
		rect:       rect,
		scrollback: scrollback,
	})
	sessId := SessionId{Index: sessIdx, Gen: sessGen}
	if s, ok := m.sessions.get(sessIdx, sessGen); ok {
		s.id = sessId
	}

	m.names[name] = sessId
	if !m.hasActiveSession {
		m.activeSession = sessId
		m.hasActiveSession = true
	}
	return sessId, nil
}

func (m *Manager) newPane(rect Rect, scrollback int) PaneId {
	idx, gen := m.panes.insert(*newPane(PaneId{}, rect, scrollback))
	id := PaneId{Index: idx, Gen: gen}
	if p, ok := m.panes.get(idx, gen); ok {
		p.id = id
	}
	return id
}

// Spawn starts the child shell for a previously-created, unspawned pane.
func (m *Manager) Spawn(id PaneId) error {
	p, ok := m.panes.get(id.Index, id.Gen)
	if !ok {
		return ErrPaneNotFound
	}
	if p.pty != nil {
		return nil
	}
	env := map[string]string{"TERM": m.term}
	for k, v := range m.env {
		env[k] = v
	}
	pty, err := ptyio.Spawn(m.shell, nil, env, p.rect.Height, p.rect.Width)
	if err != nil {
		return fmt.Errorf("muxtree: spawn pane %v: %w", id, err)
	}
	p.pty = pty
	return nil
}

// Session looks up a session by id.
func (m *Manager) Session(id SessionId) (*Session, bool) {
	return m.sessions.get(id.Index, id.Gen)
}

// SessionByName looks up a session by its unique name.
func (m *Manager) SessionByName(name string) (*Session, bool) {
	id, ok := m.names[name]
	if !ok {
		return nil, false
	}
	return m.Session(id)
}

// ActiveSession returns the currently active session, if any.
func (m *Manager) ActiveSession() (*Session, bool) {
	if !m.hasActiveSession {
		return nil, false
	}
	return m.Session(m.activeSession)
}

// SessionCount returns how many sessions the manager currently owns,
// independent of which (if any) is marked active.
func (m *Manager) SessionCount() int {
	return len(m.names)
}

// AllSessions returns every live session, in arbitrary order. Used by
// list_sessions replies (spec §4.6).
func (m *Manager) AllSessions() []*Session {
	out := make([]*Session, 0, len(m.names))
	for i := range m.sessions.slots {
		slot := &m.sessions.slots[i]
		if slot.occupied {
			out = append(out, &slot.value)
		}
	}
	return out
}

// RenameSession changes a session's name, enforcing the same uniqueness
// constraint CreateSession does.
func (m *Manager) RenameSession(id SessionId, name string) error {
	s, ok := m.sessions.get(id.Index, id.Gen)
	if !ok {
		return ErrSessionNotFound
	}
	if name == s.name {
		return nil
	}
	if _, exists := m.names[name]; exists {
		return ErrDuplicateName
	}
	delete(m.names, s.name)
	s.name = name
	m.names[name] = id
	return nil
}

// RenameWindow changes a window's display name; window names carry no
// uniqueness constraint.
func (m *Manager) RenameWindow(id WindowId, name string) error {
	w, ok := m.windows.get(id.Index, id.Gen)
	if !ok {
		return ErrWindowNotFound
	}
	w.name = name
	return nil
}

// SetActiveSession switches which session is "current" for commands that
// operate on "the" session rather than a named one.
func (m *Manager) SetActiveSession(id SessionId) bool {
	if _, ok := m.Session(id); !ok {
		return false
	}
	m.activeSession = id
	m.hasActiveSession = true
	return true
}

// Window looks up a window by id.
func (m *Manager) Window(id WindowId) (*Window, bool) {
	return m.windows.get(id.Index, id.Gen)
}

// Pane looks up a pane by id.
func (m *Manager) Pane(id PaneId) (*Pane, bool) {
	return m.panes.get(id.Index, id.Gen)
}

// Split halves the active pane's rect along dir, inserting the new pane as
// the non-active sibling (spec §4.4). Fails with ErrRectTooSmall if either
// resulting rect would have width or height < 1.
func (m *Manager) Split(winId WindowId, dir Direction) (PaneId, error) {
	w, ok := m.windows.get(winId.Index, winId.Gen)
	if !ok {
		return PaneId{}, ErrWindowNotFound
	}
	activeId := w.ActivePane()
	active, ok := m.panes.get(activeId.Index, activeId.Gen)
	if !ok {
		return PaneId{}, ErrPaneNotFound
	}

	var rectA, rectB Rect
	var split bool
	if dir == Horizontal {
		rectA, rectB, split = active.rect.SplitHorizontal(0.5)
	} else {
		rectA, rectB, split = active.rect.SplitVertical(0.5)
	}
	if !split {
		return PaneId{}, ErrRectTooSmall
	}

	active.rect = rectA
	active.emu.Resize(rectA.Height, rectA.Width)
	if active.pty != nil {
		_ = active.pty.SetSize(rectA.Height, rectA.Width)
	}

	newId := m.newPane(rectB, active.scrollbackLines)
	newPane, _ := m.panes.get(newId.Index, newId.Gen)
	newPane.active = false

	idx := w.indexOf(activeId)
	inserted := make([]PaneId, 0, len(w.panes)+1)
	inserted = append(inserted, w.panes[:idx+1]...)
	inserted = append(inserted, newId)
	inserted = append(inserted, w.panes[idx+1:]...)
	w.panes = inserted
	w.layout = w.layoutForSplit(dir)
	return newId, nil
}

// FocusNext/FocusPrev/FocusPane move the active pane of a window; no grid
// is marked dirty (spec §4.4: the renderer repaints based on the border
// style change alone).
func (m *Manager) FocusNext(winId WindowId) error { return m.focusBy(winId, 1) }
func (m *Manager) FocusPrev(winId WindowId) error { return m.focusBy(winId, -1) }

func (m *Manager) focusBy(winId WindowId, delta int) error {
	w, ok := m.windows.get(winId.Index, winId.Gen)
	if !ok {
		return ErrWindowNotFound
	}
	if len(w.panes) == 0 {
		return nil
	}
	m.setActivePane(w, false)
	w.activeIdx = ((w.activeIdx+delta)%len(w.panes) + len(w.panes)) % len(w.panes)
	m.setActivePane(w, true)
	return nil
}

// FocusPane activates a specific pane within a window by id.
func (m *Manager) FocusPane(winId WindowId, paneId PaneId) error {
	w, ok := m.windows.get(winId.Index, winId.Gen)
	if !ok {
		return ErrWindowNotFound
	}
	idx := w.indexOf(paneId)
	if idx < 0 {
		return ErrPaneNotFound
	}
	m.setActivePane(w, false)
	w.activeIdx = idx
	m.setActivePane(w, true)
	return nil
}

func (m *Manager) setActivePane(w *Window, active bool) {
	if len(w.panes) == 0 {
		return
	}
	id := w.panes[w.activeIdx]
	if p, ok := m.panes.get(id.Index, id.Gen); ok {
		p.active = active
	}
}

// RemovePane destroys a pane (killing its PTY child). If it was active,
// activation moves to the previous index or 0. Remaining panes keep their
// rects unchanged — no auto-relayout in this revision (spec §4.4).
// Removing a window's last pane leaves the window in place with no panes;
// the caller removes the empty window, and ends the session if it was the
// session's last window (see Sweep).
func (m *Manager) RemovePane(winId WindowId, paneId PaneId) error {
	w, ok := m.windows.get(winId.Index, winId.Gen)
	if !ok {
		return ErrWindowNotFound
	}
	idx := w.indexOf(paneId)
	if idx < 0 {
		return ErrPaneNotFound
	}
	p, _ := m.panes.get(paneId.Index, paneId.Gen)
	if p != nil && p.pty != nil {
		_ = p.pty.Close()
	}
	m.panes.remove(paneId.Index, paneId.Gen)

	wasActive := idx == w.activeIdx
	w.panes = append(w.panes[:idx], w.panes[idx+1:]...)

	if len(w.panes) == 0 {
		return nil // caller removes the now-empty window
	}
	if wasActive {
		if idx > 0 {
			w.activeIdx = idx - 1
		} else {
			w.activeIdx = 0
		}
		m.setActivePane(w, true)
	} else if idx < w.activeIdx {
		w.activeIdx--
	}
	return nil
}

// ResizeWindow recomputes child rects proportionally within the current
// layout (spec §4.4): Single assigns the whole rect; HorizontalSplit/
// VerticalSplit divide equally minus one border; Tiled is divided like
// VerticalSplit, into equal rows (directional resize is out of scope — see
// DESIGN.md's Open Question decision).
func (m *Manager) ResizeWindow(winId WindowId, rect Rect) error {
	w, ok := m.windows.get(winId.Index, winId.Gen)
	if !ok {
		return ErrWindowNotFound
	}
	n := len(w.panes)
	if n == 0 {
		return nil
	}
	switch w.layout {
	case Single:
		m.resizePaneAt(w.panes[0], rect)
	case HorizontalSplit:
		colW := (rect.Width - (n - 1)) / n
		x := rect.X
		for i, id := range w.panes {
			width := colW
			if i == n-1 {
				width = rect.Width - x + rect.X
			}
			m.resizePaneAt(id, Rect{X: x, Y: rect.Y, Width: width, Height: rect.Height})
			x += width + 1
		}
	case VerticalSplit, Tiled:
		rowH := (rect.Height - (n - 1)) / n
		y := rect.Y
		for i, id := range w.panes {
			height := rowH
			if i == n-1 {
				height = rect.Height - y + rect.Y
			}
			m.resizePaneAt(id, Rect{X: rect.X, Y: y, Width: rect.Width, Height: height})
			y += height + 1
		}
	}
	return nil
}

// ResizeSession updates a session's terminal geometry and cascades it to
// every window (and in turn every pane/PTY) it owns — only one window is
// ever visible at a time, so every window shares the session's rect (spec
// §4.6: "resize: updates the session rect and cascades to windows/panes/PTYs").
func (m *Manager) ResizeSession(id SessionId, rect Rect) error {
	s, ok := m.sessions.get(id.Index, id.Gen)
	if !ok {
		return ErrSessionNotFound
	}
	s.rect = rect
	for _, winId := range s.windows {
		_ = m.ResizeWindow(winId, rect)
	}
	return nil
}

func (m *Manager) resizePaneAt(id PaneId, rect Rect) {
	if rect.Width < 1 {
		rect.Width = 1
	}
	if rect.Height < 1 {
		rect.Height = 1
	}
	if p, ok := m.panes.get(id.Index, id.Gen); ok {
		p.resize(rect)
	}
}

// SelectWindow updates the active/last-window indices of a session; fails
// silently on an out-of-range index (spec §4.4).
func (m *Manager) SelectWindow(sessId SessionId, idx int) {
	s, ok := m.sessions.get(sessId.Index, sessId.Gen)
	if !ok || idx < 0 || idx >= len(s.windows) {
		return
	}
	if idx == s.activeWindow {
		return
	}
	s.lastWindow = s.activeWindow
	s.activeWindow = idx
}

// NextWindow/PrevWindow cycle the active window.
func (m *Manager) NextWindow(sessId SessionId) {
	s, ok := m.sessions.get(sessId.Index, sessId.Gen)
	if !ok || len(s.windows) == 0 {
		return
	}
	s.lastWindow = s.activeWindow
	s.activeWindow = (s.activeWindow + 1) % len(s.windows)
}

func (m *Manager) PrevWindow(sessId SessionId) {
	s, ok := m.sessions.get(sessId.Index, sessId.Gen)
	if !ok || len(s.windows) == 0 {
		return
	}
	s.lastWindow = s.activeWindow
	s.activeWindow = (s.activeWindow - 1 + len(s.windows)) % len(s.windows)
}

// LastWindow swaps the active and last window indices.
func (m *Manager) LastWindow(sessId SessionId) {
	s, ok := m.sessions.get(sessId.Index, sessId.Gen)
	if !ok {
		return
	}
	s.activeWindow, s.lastWindow = s.lastWindow, s.activeWindow
}

// CreateWindow adds a new window (with one unspawned pane) to a session,
// matching the Lifecycle note that "windows [are created] by explicit
// command".
func (m *Manager) CreateWindow(sessId SessionId, name string) (WindowId, error) {
	s, ok := m.sessions.get(sessId.Index, sessId.Gen)
	if !ok {
		return WindowId{}, ErrSessionNotFound
	}
	paneId := m.newPane(s.rect, s.scrollback)
	winIdx, winGen := m.windows.insert(Window{
		name:      name,
		index:     len(s.windows),
		panes:     []PaneId{paneId},
		activeIdx: 0,
		layout:    Single,
	})
	winId := WindowId{Index: winIdx, Gen: winGen}
	if w, ok := m.windows.get(winIdx, winGen); ok {
		w.id = winId
	}
	s.windows = append(s.windows, winId)
	s.lastWindow = s.activeWindow
	s.activeWindow = len(s.windows) - 1
	return winId, nil
}

// RemoveWindow refuses to remove a session's only window; otherwise it
// destroys every pane in the window and reassigns window indices
// contiguously (spec §4.4).
func (m *Manager) RemoveWindow(sessId SessionId, idx int) error {
	s, ok := m.sessions.get(sessId.Index, sessId.Gen)
	if !ok {
		return ErrSessionNotFound
	}
	if len(s.windows) <= 1 {
		return ErrOnlyWindow
	}
	if idx < 0 || idx >= len(s.windows) {
		return ErrWindowNotFound
	}
	winId := s.windows[idx]
	w, ok := m.windows.get(winId.Index, winId.Gen)
	if ok {
		for _, pid := range w.panes {
			if p, ok := m.panes.get(pid.Index, pid.Gen); ok && p.pty != nil {
				_ = p.pty.Close()
			}
			m.panes.remove(pid.Index, pid.Gen)
		}
	}
	m.windows.remove(winId.Index, winId.Gen)
	s.windows = append(s.windows[:idx], s.windows[idx+1:]...)
	for i, wid := range s.windows {
		if w, ok := m.windows.get(wid.Index, wid.Gen); ok {
			w.index = i
		}
	}
	if s.activeWindow >= len(s.windows) {
		s.activeWindow = len(s.windows) - 1
	}
	if s.lastWindow >= len(s.windows) {
		s.lastWindow = s.activeWindow
	}
	return nil
}

// RemoveSession destroys every window and pane owned by a session and
// drops it from the manager. Returns true if no sessions remain after the
// removal — the caller's cue to shut the server down (spec §4.4 Process
// liveness).
func (m *Manager) RemoveSession(id SessionId) (serverShouldExit bool, err error) {
	s, ok := m.sessions.get(id.Index, id.Gen)
	if !ok {
		return false, ErrSessionNotFound
	}
	for _, winId := range s.windows {
		if w, ok := m.windows.get(winId.Index, winId.Gen); ok {
			for _, pid := range w.panes {
				if p, ok := m.panes.get(pid.Index, pid.Gen); ok && p.pty != nil {
					_ = p.pty.Close()
				}
				m.panes.remove(pid.Index, pid.Gen)
			}
		}
		m.windows.remove(winId.Index, winId.Gen)
	}
	delete(m.names, s.name)
	wasActive := m.hasActiveSession && m.activeSession == id
	m.sessions.remove(id.Index, id.Gen)

	if wasActive {
		m.hasActiveSession = false
	}
	return len(m.names) == 0, nil
}

// Sweep scans every pane across every session for a dead child process and
// removes it via RemovePane/RemoveWindow/RemoveSession as needed (spec
// §4.4 Process liveness). It returns the ids of any sessions that ended up
// empty, which the caller (the reactor) uses to detach clients and, if the
// last session of the server just ended, shut down.
func (m *Manager) Sweep() []SessionId {
	var emptied []SessionId
	for sessIdx := range m.sessions.slots {
		slot := &m.sessions.slots[sessIdx]
		if !slot.occupied {
			continue
		}
		sessId := SessionId{Index: uint32(sessIdx), Gen: slot.gen}
		m.sweepSession(sessId, &emptied)
	}
	return emptied
}

func (m *Manager) sweepSession(sessId SessionId, emptied *[]SessionId) {
	s, ok := m.sessions.get(sessId.Index, sessId.Gen)
	if !ok {
		return
	}
	// Iterate a snapshot since RemoveWindow mutates s.windows.
	windows := append([]WindowId(nil), s.windows...)
	for _, winId := range windows {
		w, ok := m.windows.get(winId.Index, winId.Gen)
		if !ok {
			continue
		}
		panes := append([]PaneId(nil), w.panes...)
		for _, pid := range panes {
			p, ok := m.panes.get(pid.Index, pid.Gen)
			if !ok || p.IsAlive() {
				continue
			}
			_ = m.RemovePane(winId, pid)
		}
		if w2, ok := m.windows.get(winId.Index, winId.Gen); ok && len(w2.panes) == 0 {
			idx := s.indexOf(winId)
			if idx >= 0 {
				if len(s.windows) == 1 {
					m.RemoveSession(sessId)
					*emptied = append(*emptied, sessId)
					return
				}
				_ = m.RemoveWindow(sessId, idx)
			}
		}
	}
}
