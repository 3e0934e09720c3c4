package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelNone)

	SetLevel(LevelWarning)
	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warning("shown %d", 3)
	Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Messages below threshold were logged: %s", out)
	}
	if !strings.Contains(out, "shown 3") || !strings.Contains(out, "shown 4") {
		t.Errorf("Expected warning and error messages, got: %s", out)
	}
}

func TestLevelNone(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel(LevelNone)
	Error("nothing")
	WithFields(LevelError, map[string]interface{}{"handle": 1}, "nothing")
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got: %s", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelNone)

	SetLevel(LevelDebug)
	WithFields(LevelInfo, map[string]interface{}{"op": "login"}, "session created")
	out := buf.String()
	if !strings.Contains(out, "op=login") || !strings.Contains(out, "session created") {
		t.Errorf("Structured fields missing from output: %s", out)
	}
}
