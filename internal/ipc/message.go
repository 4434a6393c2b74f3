// Package ipc implements the wire protocol between the reactor and attached
// clients: a 12-byte header framing scheme, the client/server message
// catalog, and their payload encodings (spec §4.6).
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// magic identifies the protocol on the wire; a connection that sends
// anything else is malformed and gets disconnected.
var magic = [4]byte{'T', 'M', 'U', 'X'}

// Version is the only wire version this package speaks.
const Version uint8 = 1

// headerSize is the fixed header length: magic(4) + version(1) + type(1) +
// flags(2) + length(4).
const headerSize = 12

// MaxPayloadSize bounds a single message's payload; a header claiming more
// is treated as a protocol violation rather than an allocation request.
const MaxPayloadSize = 1 << 20

// MessageType identifies the kind of message following the header.
type MessageType uint8

const (
	// Client -> Server
	MsgAttach MessageType = iota + 1
	MsgDetach
	MsgNewSession
	MsgNewWindow
	MsgSplitPane
	MsgKillPane
	MsgResize
	MsgInput
	MsgListSessions
	MsgSelectWindow
	MsgSelectPane
	MsgRenameSession
	MsgRenameWindow
	MsgKillSession
	MsgKillWindow

	// Server -> Client
	MsgOutput
	MsgSessionInfo
	MsgError
	MsgSyncState

	// Bidirectional
	MsgPing
	MsgPong
)

var messageNames = map[MessageType]string{
	MsgAttach:        "attach",
	MsgDetach:        "detach",
	MsgNewSession:    "new_session",
	MsgNewWindow:     "new_window",
	MsgSplitPane:     "split_pane",
	MsgKillPane:      "kill_pane",
	MsgResize:        "resize",
	MsgInput:         "input",
	MsgListSessions:  "list_sessions",
	MsgSelectWindow:  "select_window",
	MsgSelectPane:    "select_pane",
	MsgRenameSession: "rename_session",
	MsgRenameWindow:  "rename_window",
	MsgKillSession:   "kill_session",
	MsgKillWindow:    "kill_window",
	MsgOutput:        "output",
	MsgSessionInfo:   "session_info",
	MsgError:         "error",
	MsgSyncState:     "sync_state",
	MsgPing:          "ping",
	MsgPong:          "pong",
}

func (t MessageType) String() string {
	if n, ok := messageNames[t]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ErrorCode is the machine-readable taxonomy an error message carries
// (spec §7).
type ErrorCode uint8

const (
	ErrPtyAllocationFailed ErrorCode = iota + 1
	ErrPtyIoError
	ErrChildSpawnFailed
	ErrInvalidMessage
	ErrPayloadTooLarge
	ErrUnsupportedVersion
	ErrDuplicateName
	ErrNotFound
	ErrInvalidGeometry
	ErrClientOverflow
	ErrInternal
)

var errCodeNames = map[ErrorCode]string{
	ErrPtyAllocationFailed: "PtyAllocationFailed",
	ErrPtyIoError:          "PtyIoError",
	ErrChildSpawnFailed:    "ChildSpawnFailed",
	ErrInvalidMessage:      "InvalidMessage",
	ErrPayloadTooLarge:     "PayloadTooLarge",
	ErrUnsupportedVersion:  "UnsupportedVersion",
	ErrDuplicateName:       "DuplicateName",
	ErrNotFound:            "NotFound",
	ErrInvalidGeometry:     "InvalidGeometry",
	ErrClientOverflow:      "ClientOverflow",
	ErrInternal:            "Internal",
}

func (c ErrorCode) String() string {
	if n, ok := errCodeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ErrBadMagic is returned by ReadMessage when a connection's first header
// doesn't carry the expected magic bytes.
var ErrBadMagic = errors.New("ipc: bad magic")

// ErrPayloadTooBig is returned by ReadMessage when a header's length field
// exceeds MaxPayloadSize.
var ErrPayloadTooBig = errors.New("ipc: payload exceeds maximum size")

// ErrBadVersion is returned by ReadMessage when a header's version byte
// doesn't match Version. Named distinctly from the ErrUnsupportedVersion
// ErrorCode it maps to, since both live in this package.
var ErrBadVersion = errors.New("ipc: unsupported protocol version")

// WriteMessage writes one framed message: the 12-byte header followed by
// payload.
func WriteMessage(w io.Writer, msgType MessageType, flags uint16, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return ErrPayloadTooBig
	}
	buf := make([]byte, headerSize+len(payload))
	copy(buf[0:4], magic[:])
	buf[4] = Version
	buf[5] = byte(msgType)
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(payload)))
	copy(buf[headerSize:], payload)

	_, err := w.Write(buf)
	return err
}

// Message is a fully decoded frame.
type Message struct {
	Type    MessageType
	Flags   uint16
	Payload []byte
}

// ReadMessage reads one framed message from r. A bad magic, mismatched
// version, or oversized length is reported as ErrBadMagic/ErrBadVersion/
// ErrPayloadTooBig so the caller can map it onto the InvalidMessage/
// UnsupportedVersion/PayloadTooLarge error codes and disconnect.
func ReadMessage(r io.Reader) (Message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Message{}, err
	}
	if hdr[0] != magic[0] || hdr[1] != magic[1] || hdr[2] != magic[2] || hdr[3] != magic[3] {
		return Message{}, ErrBadMagic
	}
	if hdr[4] != Version {
		return Message{}, ErrBadVersion
	}
	length := binary.LittleEndian.Uint32(hdr[8:12])
	if length > MaxPayloadSize {
		return Message{}, ErrPayloadTooBig
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Message{}, err
		}
	}
	return Message{
		Type:    MessageType(hdr[5]),
		Flags:   binary.LittleEndian.Uint16(hdr[6:8]),
		Payload: payload,
	}, nil
}

// EncodeAttach builds an attach payload: u16 name length, name bytes, u16
// rows, u16 cols.
func EncodeAttach(name string, rows, cols uint16) []byte {
	nameBytes := []byte(name)
	buf := make([]byte, 2+len(nameBytes)+2+2)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(nameBytes)))
	copy(buf[2:], nameBytes)
	off := 2 + len(nameBytes)
	binary.LittleEndian.PutUint16(buf[off:off+2], rows)
	binary.LittleEndian.PutUint16(buf[off+2:off+4], cols)
	return buf
}

// DecodeAttach parses an attach payload.
func DecodeAttach(payload []byte) (name string, rows, cols uint16, err error) {
	if len(payload) < 2 {
		return "", 0, 0, fmt.Errorf("ipc: attach payload too short")
	}
	nameLen := int(binary.LittleEndian.Uint16(payload[0:2]))
	if len(payload) < 2+nameLen+4 {
		return "", 0, 0, fmt.Errorf("ipc: attach payload truncated")
	}
	name = string(payload[2 : 2+nameLen])
	off := 2 + nameLen
	rows = binary.LittleEndian.Uint16(payload[off : off+2])
	cols = binary.LittleEndian.Uint16(payload[off+2 : off+4])
	return name, rows, cols, nil
}

// EncodeResize builds a resize payload: u16 rows, u16 cols.
func EncodeResize(rows, cols uint16) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], rows)
	binary.LittleEndian.PutUint16(buf[2:4], cols)
	return buf
}

// DecodeResize parses a resize payload.
func DecodeResize(payload []byte) (rows, cols uint16, err error) {
	if len(payload) < 4 {
		return 0, 0, fmt.Errorf("ipc: resize payload too short")
	}
	return binary.LittleEndian.Uint16(payload[0:2]), binary.LittleEndian.Uint16(payload[2:4]), nil
}

// EncodeSplitPane builds a split_pane payload: 1-byte direction (0 =
// horizontal, 1 = vertical).
func EncodeSplitPane(vertical bool) []byte {
	if vertical {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeSplitPane parses a split_pane payload.
func DecodeSplitPane(payload []byte) (vertical bool, err error) {
	if len(payload) < 1 {
		return false, fmt.Errorf("ipc: split_pane payload too short")
	}
	return payload[0] != 0, nil
}

// EncodeSelectIndex builds the single-u32-index payload shared by
// select_window and select_pane.
func EncodeSelectIndex(idx uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, idx)
	return buf
}

// DecodeSelectIndex parses a select_window/select_pane payload.
func DecodeSelectIndex(payload []byte) (uint32, error) {
	if len(payload) < 4 {
		return 0, fmt.Errorf("ipc: select payload too short")
	}
	return binary.LittleEndian.Uint32(payload), nil
}

// EncodeName builds the single-string payload shared by rename_session and
// rename_window: u16 length, bytes.
func EncodeName(name string) []byte {
	b := []byte(name)
	buf := make([]byte, 2+len(b))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(b)))
	copy(buf[2:], b)
	return buf
}

// DecodeName parses a rename_session/rename_window/new_window name payload.
func DecodeName(payload []byte) (string, error) {
	if len(payload) < 2 {
		return "", fmt.Errorf("ipc: name payload too short")
	}
	n := int(binary.LittleEndian.Uint16(payload[0:2]))
	if len(payload) < 2+n {
		return "", fmt.Errorf("ipc: name payload truncated")
	}
	return string(payload[2 : 2+n]), nil
}

// EncodeError builds an error payload: 1-byte code, then the message bytes.
func EncodeError(code ErrorCode, message string) []byte {
	b := []byte(message)
	buf := make([]byte, 1+len(b))
	buf[0] = byte(code)
	copy(buf[1:], b)
	return buf
}

// DecodeError parses an error payload.
func DecodeError(payload []byte) (code ErrorCode, message string, err error) {
	if len(payload) < 1 {
		return 0, "", fmt.Errorf("ipc: error payload too short")
	}
	return ErrorCode(payload[0]), string(payload[1:]), nil
}

// SessionSummary is one entry in a list_sessions reply.
type SessionSummary struct {
	Name         string
	WindowCount  uint16
	ActiveWindow uint16
}

// EncodeSessionInfo packs a list of session summaries: u16 count, then per
// entry (u16 name length, name bytes, u16 window_count, u16 active_window).
func EncodeSessionInfo(sessions []SessionSummary) []byte {
	size := 2
	for _, s := range sessions {
		size += 2 + len(s.Name) + 2 + 2
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(sessions)))
	off := 2
	for _, s := range sessions {
		nameBytes := []byte(s.Name)
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(nameBytes)))
		off += 2
		copy(buf[off:], nameBytes)
		off += len(nameBytes)
		binary.LittleEndian.PutUint16(buf[off:off+2], s.WindowCount)
		off += 2
		binary.LittleEndian.PutUint16(buf[off:off+2], s.ActiveWindow)
		off += 2
	}
	return buf
}

// DecodeSessionInfo unpacks a list_sessions reply.
func DecodeSessionInfo(payload []byte) ([]SessionSummary, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("ipc: session_info payload too short")
	}
	count := int(binary.LittleEndian.Uint16(payload[0:2]))
	off := 2
	out := make([]SessionSummary, 0, count)
	for i := 0; i < count; i++ {
		if len(payload) < off+2 {
			return nil, fmt.Errorf("ipc: session_info truncated at entry %d", i)
		}
		nameLen := int(binary.LittleEndian.Uint16(payload[off : off+2]))
		off += 2
		if len(payload) < off+nameLen+4 {
			return nil, fmt.Errorf("ipc: session_info truncated reading entry %d", i)
		}
		name := string(payload[off : off+nameLen])
		off += nameLen
		windowCount := binary.LittleEndian.Uint16(payload[off : off+2])
		off += 2
		activeWindow := binary.LittleEndian.Uint16(payload[off : off+2])
		off += 2
		out = append(out, SessionSummary{Name: name, WindowCount: windowCount, ActiveWindow: activeWindow})
	}
	return out, nil
}
