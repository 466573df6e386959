package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// New returns a logger by value; callers bind it to a variable before
// chaining events off it.
func TestNewLoggerIsUsableAsValue(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "error", Format: "json", Output: &buf})

	logger.Error().Str("component", "boot").Msg("startup failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "error" || entry["component"] != "boot" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "error", Format: "json", Output: &buf})

	logger.Info().Msg("should be suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info entry leaked through error level: %q", buf.String())
	}
}

func TestNewBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "nonsense", Format: "json", Output: &buf})

	logger.Info().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("info entry missing at default level: %q", buf.String())
	}
}
