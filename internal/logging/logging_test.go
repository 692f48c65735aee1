package logging

import (
	"testing"

	"github.com/mxresolve/mxcore/internal/config"
)

func TestNewStdout(t *testing.T) {
	l, err := New(config.LogConfig{Level: "debug", Stdout: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Logger == nil {
		t.Fatal("expected non-nil underlying zap logger")
	}
}

func TestWithSessionAddsFields(t *testing.T) {
	l, err := New(config.LogConfig{Level: "info", Stdout: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := l.WithSession("abc-123", 42)
	if child.Logger == l.Logger {
		t.Fatal("expected WithSession to return a distinct child logger")
	}
}
