package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesCriticalLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(&buf, Options{Level: "info", Format: "json", Env: "production"})

	log.Critical("app: init failed", "err", "boom")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output, got %q", buf.String())
	}
	if entry["level"] != "CRITICAL" {
		t.Fatalf("expected CRITICAL level, got %v", entry["level"])
	}
	if entry["msg"] != "app: init failed" {
		t.Fatalf("unexpected message %v", entry["msg"])
	}
}

func TestDevelopmentDefaultsToDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(&buf, Options{Format: "text", Env: "development"})

	log.Debug("db: query")
	if !strings.Contains(buf.String(), "db: query") {
		t.Fatalf("expected debug output in development, got %q", buf.String())
	}
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(&buf, Options{Format: "text"})

	log.BusinessError("clients.get: not found", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for nil error, got %q", buf.String())
	}

	log.With("client_id", 7).BusinessError("clients.get: not found", errors.New("client not found"))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "client_id=7") {
		t.Fatalf("unexpected output %q", out)
	}
}
