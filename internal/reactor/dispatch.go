package reactor

import (
	"time"

	"github.com/dcosson/tmuxcore/internal/ipc"
	"github.com/dcosson/tmuxcore/internal/muxtree"
	"github.com/dcosson/tmuxcore/internal/render"
)

// inputWriteTimeout bounds how long a write of client keystrokes to a pane's
// PTY master may block the reactor goroutine.
const inputWriteTimeout = 200 * time.Millisecond

// dispatch handles one decoded message from an attached or not-yet-attached
// connection (spec §4.6's message catalog). Every branch that can fail
// replies with MsgError carrying the taxonomy code from spec §7 rather than
// mutating state.
func (r *Reactor) dispatch(c *client, msg ipc.Message) {
	switch msg.Type {
	case ipc.MsgAttach:
		r.handleAttach(c, msg)
	case ipc.MsgDetach:
		c.attached = false
	case ipc.MsgNewSession:
		r.handleNewSession(c, msg)
	case ipc.MsgNewWindow:
		r.handleNewWindow(c, msg)
	case ipc.MsgSplitPane:
		r.handleSplitPane(c, msg)
	case ipc.MsgKillPane:
		r.handleKillPane(c)
	case ipc.MsgResize:
		r.handleResize(c, msg)
	case ipc.MsgInput:
		r.handleInput(c, msg)
	case ipc.MsgListSessions:
		r.handleListSessions(c)
	case ipc.MsgSelectWindow:
		r.handleSelectWindow(c, msg)
	case ipc.MsgSelectPane:
		r.handleSelectPane(c, msg)
	case ipc.MsgRenameSession:
		r.handleRenameSession(c, msg)
	case ipc.MsgRenameWindow:
		r.handleRenameWindow(c, msg)
	case ipc.MsgKillSession:
		r.handleKillSession(c)
	case ipc.MsgKillWindow:
		r.handleKillWindow(c)
	case ipc.MsgPing:
		_ = c.conn.Send(ipc.MsgPong, 0, nil)
	}
}

func (r *Reactor) fail(c *client, code ipc.ErrorCode, message string) {
	_ = c.conn.Send(ipc.MsgError, 0, ipc.EncodeError(code, message))
}

// attachTo binds c to an existing session and starts watching every pane
// the session's windows already own. A zero rows/cols pair (used by
// one-shot, non-rendering commands like kill-session that only need a
// session context) binds the client without sizing a Renderer or
// touching the session's geometry — broadcastFrames skips any client
// with no renderer.
func (r *Reactor) attachTo(c *client, s *muxtree.Session, rows, cols uint16) {
	c.attached = true
	c.sessionID = s.ID()
	if rows == 0 || cols == 0 {
		return
	}
	c.rows = int(rows)
	c.cols = int(cols)
	c.renderer = render.New(c.rows, c.cols, r.profile)
	_ = r.mgr.ResizeSession(s.ID(), muxtree.Rect{X: 0, Y: 0, Width: int(cols), Height: int(rows)})
	for _, winId := range s.Windows() {
		w, ok := r.mgr.Window(winId)
		if !ok {
			continue
		}
		for _, paneId := range w.Panes() {
			r.watchPane(paneId)
		}
	}
}

func (r *Reactor) handleAttach(c *client, msg ipc.Message) {
	name, rows, cols, err := ipc.DecodeAttach(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	var s *muxtree.Session
	var ok bool
	if name == "" {
		s, ok = r.mgr.ActiveSession()
	} else {
		s, ok = r.mgr.SessionByName(name)
	}
	if !ok {
		r.fail(c, ipc.ErrNotFound, "no such session")
		return
	}
	r.attachTo(c, s, rows, cols)
}

func (r *Reactor) handleNewSession(c *client, msg ipc.Message) {
	name, rows, cols, err := ipc.DecodeAttach(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	rect := muxtree.Rect{X: 0, Y: 0, Width: int(cols), Height: int(rows)}
	if rect.Width <= 0 || rect.Height <= 0 {
		r.fail(c, ipc.ErrInvalidGeometry, "rows/cols must be positive")
		return
	}
	sessId, err := r.mgr.CreateSession(name, rect, 0)
	if err != nil {
		r.fail(c, ipc.ErrDuplicateName, err.Error())
		return
	}
	s, _ := r.mgr.Session(sessId)
	r.mgr.SetActiveSession(sessId)
	r.hadSession = true
	r.spawnInitialPane(s)
	r.attachTo(c, s, rows, cols)
}

// spawnInitialPane starts the child shell in the lone pane a freshly
// created session or window owns and begins watching its PTY.
func (r *Reactor) spawnInitialPane(s *muxtree.Session) {
	w, ok := r.mgr.Window(s.ActiveWindow())
	if !ok || len(w.Panes()) == 0 {
		return
	}
	paneId := w.Panes()[0]
	if err := r.mgr.Spawn(paneId); err != nil {
		return
	}
	r.watchPane(paneId)
}

func (r *Reactor) handleNewWindow(c *client, msg ipc.Message) {
	if !c.attached {
		r.fail(c, ipc.ErrNotFound, "not attached to a session")
		return
	}
	name, _ := ipc.DecodeName(msg.Payload)
	winId, err := r.mgr.CreateWindow(c.sessionID, name)
	if err != nil {
		r.fail(c, ipc.ErrNotFound, err.Error())
		return
	}
	w, ok := r.mgr.Window(winId)
	if !ok || len(w.Panes()) == 0 {
		return
	}
	paneId := w.Panes()[0]
	if err := r.mgr.Spawn(paneId); err != nil {
		r.fail(c, ipc.ErrChildSpawnFailed, err.Error())
		return
	}
	r.watchPane(paneId)
}

func (r *Reactor) handleSplitPane(c *client, msg ipc.Message) {
	if !c.attached {
		r.fail(c, ipc.ErrNotFound, "not attached to a session")
		return
	}
	vertical, err := ipc.DecodeSplitPane(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	s, ok := r.mgr.Session(c.sessionID)
	if !ok {
		r.fail(c, ipc.ErrNotFound, "session gone")
		return
	}
	dir := muxtree.Horizontal
	if vertical {
		dir = muxtree.Vertical
	}
	winId := s.ActiveWindow()
	paneId, err := r.mgr.Split(winId, dir)
	if err != nil {
		r.fail(c, ipc.ErrInvalidGeometry, err.Error())
		return
	}
	if err := r.mgr.Spawn(paneId); err != nil {
		r.fail(c, ipc.ErrChildSpawnFailed, err.Error())
		return
	}
	r.watchPane(paneId)
}

// reapEmptyWindow removes a window that RemovePane has already
// drained of panes, cascading to the owning session when it was the
// session's last window — the mirror of sweepSession's liveness-driven
// teardown, but triggered by an explicit kill rather than a dead child.
func (r *Reactor) reapEmptyWindow(sessId muxtree.SessionId, winId muxtree.WindowId) {
	w, ok := r.mgr.Window(winId)
	if !ok || len(w.Panes()) > 0 {
		return
	}
	idx := w.Index()
	if err := r.mgr.RemoveWindow(sessId, idx); err == muxtree.ErrOnlyWindow {
		r.killSessionById(sessId)
	}
}

func (r *Reactor) killSessionById(sessId muxtree.SessionId) {
	r.detachSession(sessId)
	_, _ = r.mgr.RemoveSession(sessId)
}

func (r *Reactor) handleKillPane(c *client) {
	if !c.attached {
		r.fail(c, ipc.ErrNotFound, "not attached to a session")
		return
	}
	s, ok := r.mgr.Session(c.sessionID)
	if !ok {
		r.fail(c, ipc.ErrNotFound, "session gone")
		return
	}
	winId := s.ActiveWindow()
	w, ok := r.mgr.Window(winId)
	if !ok {
		r.fail(c, ipc.ErrNotFound, "no active window")
		return
	}
	paneId := w.ActivePane()
	r.stopWatching(paneId)
	if err := r.mgr.RemovePane(winId, paneId); err != nil {
		r.fail(c, ipc.ErrNotFound, err.Error())
		return
	}
	r.reapEmptyWindow(c.sessionID, winId)
}

func (r *Reactor) handleResize(c *client, msg ipc.Message) {
	rows, cols, err := ipc.DecodeResize(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	if rows == 0 || cols == 0 {
		r.fail(c, ipc.ErrInvalidGeometry, "rows/cols must be positive")
		return
	}
	if !c.attached {
		return
	}
	targetRows, targetCols := int(rows), int(cols)
	if r.cfg.AggressiveResize {
		targetRows, targetCols = r.aggressiveTarget(c, int(rows), int(cols))
	}
	if err := r.mgr.ResizeSession(c.sessionID, muxtree.Rect{X: 0, Y: 0, Width: targetCols, Height: targetRows}); err != nil {
		r.fail(c, ipc.ErrNotFound, err.Error())
		return
	}
	c.rows, c.cols = int(rows), int(cols)
	if c.renderer != nil {
		c.renderer.Resize(c.rows, c.cols)
	}
}

// aggressiveTarget implements spec §4.6's aggressive-resize knob: when more
// than one rendering client is attached to the same session, the session's
// shared geometry adopts the smaller of every attached client's own rows and
// cols rather than last-writer-wins. c's own new size (not yet stored in
// c.rows/c.cols) is folded into the comparison alongside every other
// attached client's last-known size.
func (r *Reactor) aggressiveTarget(c *client, rows, cols int) (int, int) {
	minRows, minCols := rows, cols
	count := 1
	for _, other := range r.clients {
		if other == c || !other.attached || other.renderer == nil || other.sessionID != c.sessionID {
			continue
		}
		count++
		if other.rows < minRows {
			minRows = other.rows
		}
		if other.cols < minCols {
			minCols = other.cols
		}
	}
	if count <= 1 {
		return rows, cols
	}
	return minRows, minCols
}

func (r *Reactor) handleInput(c *client, msg ipc.Message) {
	if !c.attached {
		return
	}
	s, ok := r.mgr.Session(c.sessionID)
	if !ok {
		return
	}
	w, ok := r.mgr.Window(s.ActiveWindow())
	if !ok {
		return
	}
	p, ok := r.mgr.Pane(w.ActivePane())
	if !ok || p.PTY() == nil {
		return
	}
	_, _ = p.PTY().Write(msg.Payload, inputWriteTimeout)
}

func (r *Reactor) handleListSessions(c *client) {
	sessions := r.mgr.AllSessions()
	summaries := make([]ipc.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		activeIdx := 0
		if w, ok := r.mgr.Window(s.ActiveWindow()); ok {
			activeIdx = w.Index()
		}
		summaries = append(summaries, ipc.SessionSummary{
			Name:         s.Name(),
			WindowCount:  uint16(len(s.Windows())),
			ActiveWindow: uint16(activeIdx),
		})
	}
	_ = c.conn.Send(ipc.MsgSessionInfo, 0, ipc.EncodeSessionInfo(summaries))
}

func (r *Reactor) handleSelectWindow(c *client, msg ipc.Message) {
	if !c.attached {
		return
	}
	idx, err := ipc.DecodeSelectIndex(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	r.mgr.SelectWindow(c.sessionID, int(idx))
}

func (r *Reactor) handleSelectPane(c *client, msg ipc.Message) {
	if !c.attached {
		return
	}
	idx, err := ipc.DecodeSelectIndex(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	s, ok := r.mgr.Session(c.sessionID)
	if !ok {
		return
	}
	winId := s.ActiveWindow()
	w, ok := r.mgr.Window(winId)
	if !ok || int(idx) >= len(w.Panes()) {
		r.fail(c, ipc.ErrNotFound, "no such pane")
		return
	}
	_ = r.mgr.FocusPane(winId, w.Panes()[idx])
}

func (r *Reactor) handleRenameSession(c *client, msg ipc.Message) {
	if !c.attached {
		return
	}
	name, err := ipc.DecodeName(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	if err := r.mgr.RenameSession(c.sessionID, name); err != nil {
		r.fail(c, ipc.ErrDuplicateName, err.Error())
	}
}

func (r *Reactor) handleRenameWindow(c *client, msg ipc.Message) {
	if !c.attached {
		return
	}
	name, err := ipc.DecodeName(msg.Payload)
	if err != nil {
		r.fail(c, ipc.ErrInvalidMessage, err.Error())
		return
	}
	s, ok := r.mgr.Session(c.sessionID)
	if !ok {
		return
	}
	if err := r.mgr.RenameWindow(s.ActiveWindow(), name); err != nil {
		r.fail(c, ipc.ErrNotFound, err.Error())
	}
}

func (r *Reactor) handleKillSession(c *client) {
	if !c.attached {
		r.fail(c, ipc.ErrNotFound, "not attached to a session")
		return
	}
	for _, paneId := range r.sessionPanes(c.sessionID) {
		r.stopWatching(paneId)
	}
	r.killSessionById(c.sessionID)
}

// sessionPanes lists every pane id a session currently owns, so their
// reader goroutines can be stopped before the session is torn down.
func (r *Reactor) sessionPanes(sessId muxtree.SessionId) []muxtree.PaneId {
	s, ok := r.mgr.Session(sessId)
	if !ok {
		return nil
	}
	var out []muxtree.PaneId
	for _, winId := range s.Windows() {
		w, ok := r.mgr.Window(winId)
		if !ok {
			continue
		}
		out = append(out, w.Panes()...)
	}
	return out
}

func (r *Reactor) handleKillWindow(c *client) {
	if !c.attached {
		r.fail(c, ipc.ErrNotFound, "not attached to a session")
		return
	}
	s, ok := r.mgr.Session(c.sessionID)
	if !ok {
		r.fail(c, ipc.ErrNotFound, "session gone")
		return
	}
	winId := s.ActiveWindow()
	w, ok := r.mgr.Window(winId)
	if !ok {
		return
	}
	for _, paneId := range w.Panes() {
		r.stopWatching(paneId)
	}
	idx := w.Index()
	if err := r.mgr.RemoveWindow(c.sessionID, idx); err != nil {
		if err == muxtree.ErrOnlyWindow {
			r.killSessionById(c.sessionID)
			return
		}
		r.fail(c, ipc.ErrNotFound, err.Error())
	}
}
