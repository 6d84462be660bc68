package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name   string
		expect Level
		ok     bool
	}{
		{"debug", LevelDebug, true},
		{" INFO ", LevelInfo, true},
		{"warn", LevelWarning, true},
		{"error", LevelError, true},
		{"verbose", LevelInfo, false},
	}

	for _, tc := range testCases {
		l, ok := ParseLevel(tc.name)
		if l != tc.expect || ok != tc.ok {
			t.Errorf("ParseLevel(%q): expected %s/%t, got %s/%t", tc.name, tc.expect, tc.ok, l, ok)
		}
	}
}

func TestLogger_Filter(t *testing.T) {
	var buf bytes.Buffer

	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := New(LevelWarning)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warning %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()

	for _, unexpected := range []string{"debug 1", "info 2"} {
		if strings.Contains(out, unexpected) {
			t.Errorf("unexpected %q in output %q", unexpected, out)
		}
	}

	for _, expected := range []string{"warning: warning 3", "error: error 4"} {
		if !strings.Contains(out, expected) {
			t.Errorf("expected %q in output %q", expected, out)
		}
	}

	l.SetLevel(LevelDebug)
	l.Debugf("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("expected debug output after lowering the level")
	}
}
