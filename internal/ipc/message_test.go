package ipc

import (
	"bytes"
	"testing"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello pty")
	if err := WriteMessage(&buf, MsgInput, 0, payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	msg, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.Type != MsgInput {
		t.Fatalf("type = %v, want MsgInput", msg.Type)
	}
	if !bytes.Equal(msg.Payload, payload) {
		t.Fatalf("payload = %q, want %q", msg.Payload, payload)
	}
}

func TestReadMessageRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{'X', 'X', 'X', 'X', 1, 0, 0, 0, 0, 0, 0, 0})
	if _, err := ReadMessage(buf); err != ErrBadMagic {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestReadMessageRejectsBadVersion(t *testing.T) {
	buf := bytes.NewBuffer([]byte{'T', 'M', 'U', 'X', Version + 1, byte(MsgInput), 0, 0, 0, 0, 0, 0})
	if _, err := ReadMessage(buf); err != ErrBadVersion {
		t.Fatalf("err = %v, want ErrBadVersion", err)
	}
}

func TestReadMessageRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	hdr := []byte{'T', 'M', 'U', 'X', Version, byte(MsgInput), 0, 0, 0xFF, 0xFF, 0xFF, 0x7F}
	buf.Write(hdr)
	if _, err := ReadMessage(&buf); err != ErrPayloadTooBig {
		t.Fatalf("err = %v, want ErrPayloadTooBig", err)
	}
}

func TestAttachRoundTrip(t *testing.T) {
	payload := EncodeAttach("work", 24, 80)
	name, rows, cols, err := DecodeAttach(payload)
	if err != nil {
		t.Fatal(err)
	}
	if name != "work" || rows != 24 || cols != 80 {
		t.Fatalf("got (%q, %d, %d)", name, rows, cols)
	}
}

func TestAttachEmptyNameRoundTrip(t *testing.T) {
	payload := EncodeAttach("", 10, 20)
	name, rows, cols, err := DecodeAttach(payload)
	if err != nil {
		t.Fatal(err)
	}
	if name != "" || rows != 10 || cols != 20 {
		t.Fatalf("got (%q, %d, %d)", name, rows, cols)
	}
}

func TestResizeRoundTrip(t *testing.T) {
	rows, cols, err := DecodeResize(EncodeResize(50, 120))
	if err != nil {
		t.Fatal(err)
	}
	if rows != 50 || cols != 120 {
		t.Fatalf("got (%d, %d)", rows, cols)
	}
}

func TestSplitPaneRoundTrip(t *testing.T) {
	for _, vertical := range []bool{true, false} {
		got, err := DecodeSplitPane(EncodeSplitPane(vertical))
		if err != nil {
			t.Fatal(err)
		}
		if got != vertical {
			t.Fatalf("vertical = %v, want %v", got, vertical)
		}
	}
}

func TestSelectIndexRoundTrip(t *testing.T) {
	got, err := DecodeSelectIndex(EncodeSelectIndex(7))
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestNameRoundTrip(t *testing.T) {
	got, err := DecodeName(EncodeName("my-window"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "my-window" {
		t.Fatalf("got %q", got)
	}
}

func TestErrorRoundTrip(t *testing.T) {
	code, message, err := DecodeError(EncodeError(ErrNotFound, "no such pane"))
	if err != nil {
		t.Fatal(err)
	}
	if code != ErrNotFound || message != "no such pane" {
		t.Fatalf("got (%v, %q)", code, message)
	}
}

func TestSessionInfoRoundTrip(t *testing.T) {
	want := []SessionSummary{
		{Name: "work", WindowCount: 2, ActiveWindow: 1},
		{Name: "scratch", WindowCount: 1, ActiveWindow: 0},
	}
	got, err := DecodeSessionInfo(EncodeSessionInfo(want))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSessionInfoEmptyList(t *testing.T) {
	got, err := DecodeSessionInfo(EncodeSessionInfo(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestDecodeAttachTruncatedPayload(t *testing.T) {
	if _, _, _, err := DecodeAttach([]byte{0, 5, 'h', 'i'}); err == nil {
		t.Fatal("expected error on truncated attach payload")
	}
}
