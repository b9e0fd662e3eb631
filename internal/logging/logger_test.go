package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unsquash/internal/logging"
	"unsquash/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesLogFileWhenDirSet(t *testing.T) {
	dir := t.TempDir()
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Dir: dir})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", slog.String("key", "value"))

	data, err := os.ReadFile(filepath.Join(dir, "unsquash.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log file is not JSON: %v", err)
	}
	if record["msg"] != "hello" || record["key"] != "value" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestWithContextStampsRequestAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := services.WithRequestID(context.Background(), "req-9")
	ctx = services.WithArchive(ctx, "/data/base.squashfs")
	logging.WithContext(ctx, base).Info("started")

	line := buf.String()
	for _, fragment := range []string{`"request_id":"req-9"`, `"archive":"/data/base.squashfs"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %s in output, got: %s", fragment, line)
		}
	}
}

func TestWithContextToleratesNilInputs(t *testing.T) {
	logger := logging.WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Info("discarded")
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
}
