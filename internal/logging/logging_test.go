package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	logger, err := New("debug", "json")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug enabled")
	}

	logger, err = New("nonsense", "console")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) || !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("unknown level must fall back to info")
	}
}

func TestNewRejectsFormat(t *testing.T) {
	if _, err := New("info", "xml"); err == nil {
		t.Fatal("expected unknown format to fail")
	}
}
