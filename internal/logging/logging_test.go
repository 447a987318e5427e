package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, &buf)
	t.Cleanup(func() { Init(LevelInfo, os.Stderr) })

	Info("Store", "should be dropped")
	Warn("Store", "kept %d", 1)
	Error("Images", errors.New("boom"), "lookup failed")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info message leaked through warn level: %s", out)
	}
	if !strings.Contains(out, "kept 1") || !strings.Contains(out, "subsystem=Store") {
		t.Errorf("warn message missing: %s", out)
	}
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "subsystem=Images") {
		t.Errorf("error attributes missing: %s", out)
	}
}
