// Package reactor drives the single-threaded event loop that owns every
// pane's PTY, the session tree, and every attached client (spec §4.7, §5).
// No lock guards any of that state: the reactor goroutine is the only
// goroutine that ever touches it. Per-PTY and per-connection reads happen
// on their own goroutines, but they only ever produce values onto channels
// this loop selects over — the idiomatic-Go translation of the epoll-style
// multiplexed wait spec §4.7 describes.
package reactor

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muesli/termenv"

	"github.com/dcosson/tmuxcore/internal/config"
	"github.com/dcosson/tmuxcore/internal/ipc"
	"github.com/dcosson/tmuxcore/internal/muxtree"
	"github.com/dcosson/tmuxcore/internal/render"
)

// tickInterval drives the redraw cadence even when nothing else wakes the
// loop (spec §4.7: "a short timeout (≈ 50-100ms)").
const tickInterval = 75 * time.Millisecond

// ptyReadSize is the read buffer for one PTY drain; generous enough that a
// burst of output drains in one or two reads per tick.
const ptyReadSize = 32 * 1024

// ptyEvent is what a pane's dedicated reader goroutine sends the reactor.
type ptyEvent struct {
	pane   muxtree.PaneId
	data   []byte
	closed bool
}

// client is the reactor's bookkeeping for one attached ipc.Conn.
type client struct {
	conn      *ipc.Conn
	attached  bool
	sessionID muxtree.SessionId
	renderer  *render.Renderer
	rows      int
	cols      int
}

// Reactor is the server's single event loop.
type Reactor struct {
	mgr *muxtree.Manager
	srv *ipc.Server
	cfg *config.Config

	clients map[uint64]*client
	watched map[muxtree.PaneId]chan struct{} // closed to stop a pane's reader goroutine

	ptyEvents  chan ptyEvent
	profile    termenv.Profile
	hadSession bool // guards exit-on-empty so startup (before any session exists) doesn't quit immediately
}

// New creates a reactor around an already-constructed Manager and a
// listening Server.
func New(mgr *muxtree.Manager, srv *ipc.Server, cfg *config.Config) *Reactor {
	return &Reactor{
		mgr:       mgr,
		srv:       srv,
		cfg:       cfg,
		clients:   make(map[uint64]*client),
		watched:   make(map[muxtree.PaneId]chan struct{}),
		ptyEvents: make(chan ptyEvent, 256),
		profile:   termenv.TrueColor,
	}
}

// Run is the main loop. It blocks until SIGINT/SIGTERM or until the last
// session exits, then tears down every PTY and returns.
func (r *Reactor) Run() error {
	go r.srv.Serve()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.srv.Events():
			r.handleIPCEvent(ev)

		case ev := <-r.ptyEvents:
			r.handlePtyEvent(ev)

		case <-ticker.C:
			if r.tick() {
				r.shutdown()
				return nil
			}

		case sig := <-sigCh:
			log.Printf("reactor: received %s, shutting down", sig)
			r.shutdown()
			return nil
		}
	}
}


// handleIPCEvent dispatches one accept/message/disconnect occurrence.
func (r *Reactor) handleIPCEvent(ev ipc.Event) {
	switch ev.Kind {
	case ipc.EventConnected:
		r.clients[ev.Conn.ID()] = &client{conn: ev.Conn}

	case ipc.EventDisconnected:
		r.detachClient(ev.Conn.ID())

	case ipc.EventMessage:
		c, ok := r.clients[ev.Conn.ID()]
		if !ok {
			return
		}
		r.dispatch(c, ev.Msg)
	}
}

func (r *Reactor) detachClient(connID uint64) {
	delete(r.clients, connID)
}

// handlePtyEvent feeds drained PTY bytes through the owning pane's parser
// and emulator, and stops watching the pane on EOF/error; the pane itself is
// removed by a later Sweep once its child has exited (spec §4.1, §4.7 step 3).
func (r *Reactor) handlePtyEvent(ev ptyEvent) {
	p, ok := r.mgr.Pane(ev.pane)
	if !ok {
		return
	}
	if len(ev.data) > 0 {
		p.Emulator().Write(ev.data)
	}
	if ev.closed {
		r.stopWatching(ev.pane)
	}
}

// tick runs the periodic sweep-and-redraw step (spec §4.7 steps 4-5) and
// reports whether the server should now exit — only once a session has
// existed and none remain, whether the sweep or an explicit kill removed the
// last one (spec §7: "the last pane closing exits the server"). Before any
// session is ever created
// (server just started, no client has attached yet) this never fires.
func (r *Reactor) tick() bool {
	emptied := r.mgr.Sweep()
	for _, sid := range emptied {
		r.detachSession(sid)
	}
	r.broadcastFrames()
	if !r.hadSession {
		return false
	}
	return r.mgr.SessionCount() == 0
}

func (r *Reactor) detachSession(sid muxtree.SessionId) {
	for _, c := range r.clients {
		if c.attached && c.sessionID == sid {
			c.attached = false
			_ = c.conn.Send(ipc.MsgDetach, 0, nil)
		}
	}
}

// broadcastFrames rebuilds and sends one diffed frame per attached client,
// each against that client's own previous-frame state (spec §4.5, §4.7
// step 5; §5's "clients of the same session observe output serialized in
// the order the reactor produced it").
func (r *Reactor) broadcastFrames() {
	for _, c := range r.clients {
		if !c.attached || c.renderer == nil {
			continue
		}
		s, ok := r.mgr.Session(c.sessionID)
		if !ok {
			continue
		}
		w, ok := r.mgr.Window(s.ActiveWindow())
		if !ok {
			continue
		}
		status := render.StatusBar{
			Enabled: r.cfg.StatusBar,
			Left:    s.Name(),
		}
		if r.cfg.StatusPosition == "top" {
			status.Position = render.StatusTop
		} else {
			status.Position = render.StatusBottom
		}
		borders := render.BordersOff
		if r.cfg.Borders {
			borders = render.BordersOn
		}
		out := c.renderer.Render(r.mgr, w, borders, status)
		if len(out) > 0 {
			if err := c.conn.Send(ipc.MsgOutput, 0, out); err != nil {
				c.attached = false
			}
		}
	}
}

// watchPane starts a goroutine draining one pane's PTY master into
// r.ptyEvents; this is the translation of spec §4.7's "every pane's PTY
// master FD is a registered descriptor" into Go's goroutine+channel idiom.
func (r *Reactor) watchPane(id muxtree.PaneId) {
	if _, already := r.watched[id]; already {
		return
	}
	p, ok := r.mgr.Pane(id)
	if !ok || p.PTY() == nil {
		return
	}
	stop := make(chan struct{})
	r.watched[id] = stop
	pty := p.PTY()

	go func() {
		buf := make([]byte, ptyReadSize)
		for {
			n, err := pty.Read(buf)
			if n > 0 {
				owned := make([]byte, n)
				copy(owned, buf[:n])
				select {
				case r.ptyEvents <- ptyEvent{pane: id, data: owned}:
				case <-stop:
					return
				}
			}
			if err != nil {
				select {
				case r.ptyEvents <- ptyEvent{pane: id, closed: true}:
				case <-stop:
				}
				return
			}
		}
	}()
}

func (r *Reactor) stopWatching(id muxtree.PaneId) {
	if stop, ok := r.watched[id]; ok {
		close(stop)
		delete(r.watched, id)
	}
}

// shutdown is spec §4.7's cancellation path: notify every client, terminate
// every live child PTY with SIGTERM, stop accepting connections.
func (r *Reactor) shutdown() {
	for _, c := range r.clients {
		_ = c.conn.Send(ipc.MsgDetach, 0, nil)
		_ = c.conn.Close()
	}
	for _, sess := range r.mgr.AllSessions() {
		for _, winId := range sess.Windows() {
			w, ok := r.mgr.Window(winId)
			if !ok {
				continue
			}
			for _, paneId := range w.Panes() {
				p, ok := r.mgr.Pane(paneId)
				if !ok || p.PTY() == nil {
					continue
				}
				_ = p.PTY().Close()
			}
		}
	}
	_ = r.srv.Close()
}
