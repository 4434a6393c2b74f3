package cmd

import (
	"errors"
	"testing"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"usage", newUsageError(errors.New("bad flag")), 1},
		{"runtime", newRuntimeError(errors.New("connect failed")), 2},
		{"sigint", newSigintError(errors.New("interrupted")), 130},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := ExitCode(tc.err)
			if !ok {
				t.Fatalf("ExitCode(%v) reported not-ok", tc.err)
			}
			if code != tc.want {
				t.Errorf("code = %d, want %d", code, tc.want)
			}
		})
	}
}

func TestExitCodeUnmappedError(t *testing.T) {
	if _, ok := ExitCode(errors.New("plain")); ok {
		t.Error("expected plain errors to report not-ok")
	}
}
