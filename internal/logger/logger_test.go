package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitLogger_ValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			if err := InitLogger(level); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if GetLogger() == nil {
				t.Fatal("GetLogger() returned nil")
			}
		})
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	if err := InitLogger("invalid"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestInitLoggerTo_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitLoggerTo(&buf, "warn"); err != nil {
		t.Fatal(err)
	}
	GetLogger().Info("hidden")
	GetLogger().Warn("shown", "key", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=1") {
		t.Errorf("warn record missing: %q", out)
	}
}
