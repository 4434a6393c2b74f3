package ptyio

import (
	"strings"
	"testing"
	"time"
)

func TestSpawnEchoHi(t *testing.T) {
	p, err := Spawn("/bin/sh", []string{"-c", "echo hi"}, nil, 24, 80)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Close()

	var out strings.Builder
	buf := make([]byte, 4096)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := p.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if err != nil {
			break
		}
		if !p.IsAlive() {
			break
		}
	}
	if !strings.Contains(out.String(), "hi") {
		t.Fatalf("output = %q, want it to contain %q", out.String(), "hi")
	}
}

func TestIsAliveBecomesFalseAfterExit(t *testing.T) {
	p, err := Spawn("/bin/sh", []string{"-c", "exit 0"}, nil, 24, 80)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Close()

	deadline := time.Now().Add(2 * time.Second)
	for p.IsAlive() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.IsAlive() {
		t.Fatal("expected child to have exited")
	}
}

func TestSetSizeDoesNotError(t *testing.T) {
	p, err := Spawn("/bin/sh", []string{"-c", "sleep 1"}, nil, 24, 80)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Close()
	if err := p.SetSize(30, 100); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
}

func TestWriteCompletesWithinTimeout(t *testing.T) {
	p, err := Spawn("/bin/sh", []string{"-c", "sleep 1"}, nil, 24, 80)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Close()
	// A small write should complete well within a generous timeout.
	if _, err := p.Write([]byte("x"), time.Second); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestMergeEnvOverridesShadowBase(t *testing.T) {
	base := []string{"FOO=old", "BAR=keep"}
	merged := mergeEnv(base, map[string]string{"FOO": "new"})
	found := map[string]string{}
	for _, kv := range merged {
		i := strings.IndexByte(kv, '=')
		found[kv[:i]] = kv[i+1:]
	}
	if found["FOO"] != "new" {
		t.Errorf("FOO = %q, want new", found["FOO"])
	}
	if found["BAR"] != "keep" {
		t.Errorf("BAR = %q, want keep", found["BAR"])
	}
}
