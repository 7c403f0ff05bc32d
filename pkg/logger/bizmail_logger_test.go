package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLoggerWritesFieldsAsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, Service: "test"})

	l.WithField("attempt", 2).WithError(errors.New("boom")).Warn("retrying %s", "gateway")

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"attempt":2`, `"error":"boom"`, `"message":"retrying gateway"`, `"service":"test"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %s", out, want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})

	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	l.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected error line, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"WARNING", LevelWarn},
		{"Error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
