package ipc

import (
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/dcosson/tmuxcore/internal/socketdir"
)

// EventKind discriminates the three things the reactor can learn about a
// connection without blocking on it.
type EventKind int

const (
	EventConnected EventKind = iota
	EventMessage
	EventDisconnected
)

// Event is one occurrence the reactor's select loop drains from Server's
// channel — a new connection, a decoded message, or a connection going
// away. Per-connection reads happen off the reactor goroutine; everything
// the reactor does in response to an Event runs back on its own goroutine,
// so no lock guards Conn or the session tree it touches (spec §5).
type Event struct {
	Conn *Conn
	Kind EventKind
	Msg  Message
	Err  error
}

// connSeq assigns each accepted connection a small monotonic id, useful for
// logging and as a map key independent of net.Conn's identity.
var connSeq uint64

// Conn is one attached client's socket plus its connection id; which
// session it is attached to and its last-known dimensions are kept by the
// reactor, not here. The reactor is the only goroutine that calls Send; reads
// happen on a private goroutine that only ever forwards decoded messages
// over a channel (spec §4.7's "drain client sockets" step).
type Conn struct {
	id     uint64
	nc     net.Conn
	closed atomic.Bool
}

func newConn(nc net.Conn) *Conn {
	return &Conn{id: atomic.AddUint64(&connSeq, 1), nc: nc}
}

func (c *Conn) ID() uint64 { return c.id }

// Send writes one framed message. Intended to be called only from the
// reactor goroutine that owns this connection's lifecycle.
func (c *Conn) Send(msgType MessageType, flags uint16, payload []byte) error {
	return WriteMessage(c.nc, msgType, flags, payload)
}

// Close closes the underlying socket; safe to call more than once.
func (c *Conn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		return c.nc.Close()
	}
	return nil
}

// Server accepts connections on a Unix-domain socket and funnels every
// connection/message/disconnect occurrence through a single channel, so a
// single-threaded reactor can multiplex many sockets the way an
// epoll-driven loop would (spec §4.7).
type Server struct {
	ln     net.Listener
	events chan Event
}

// Listen binds a Unix-domain socket at sockPath, clearing a stale socket
// file left by a crashed server first (spec §4.6).
func Listen(sockPath string) (*Server, error) {
	if err := socketdir.EnsureDir(sockPath); err != nil {
		return nil, err
	}
	if err := socketdir.Probe(sockPath, 200*time.Millisecond); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln, events: make(chan Event, 64)}, nil
}

// Events returns the channel the reactor drains every tick. It stays open
// for the lifetime of the server.
func (s *Server) Events() <-chan Event { return s.events }

// Serve runs the accept loop until the listener is closed. Call it from its
// own goroutine; every accepted connection gets its own read goroutine that
// only ever produces Events, never touches shared state directly.
func (s *Server) Serve() {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		c := newConn(nc)
		s.events <- Event{Conn: c, Kind: EventConnected}
		go s.readLoop(c)
	}
}

func (s *Server) readLoop(c *Conn) {
	for {
		msg, err := ReadMessage(c.nc)
		if err != nil {
			s.events <- Event{Conn: c, Kind: EventDisconnected, Err: normalizeReadErr(err)}
			return
		}
		s.events <- Event{Conn: c, Kind: EventMessage, Msg: msg}
	}
}

func normalizeReadErr(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

// Close stops accepting new connections. In-flight connections are left to
// their own read goroutines, which will report EventDisconnected once the
// peer notices the listener is gone.
func (s *Server) Close() error {
	return s.ln.Close()
}

// Addr returns the socket path the server is bound to.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}
