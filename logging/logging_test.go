package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/config"

	"go.uber.org/zap"
)

func TestForProjectWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	logger, closeFn, err := ForProject(dir, false)
	if err != nil {
		t.Fatalf("ForProject error: %v", err)
	}
	logger.Error("run failed", zap.String("kind", "NoMediaFoundError"), zap.String("state", "selecting_clips"))
	logger.Debug("written to file only")
	closeFn()

	raw, err := os.ReadFile(filepath.Join(dir, config.LogsDir, config.LogFile))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines; want 2:\n%s", len(lines), raw)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "run failed" || rec["kind"] != "NoMediaFoundError" || rec["state"] != "selecting_clips" {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewWithoutDir(t *testing.T) {
	logger, closeFn, err := New(Options{})
	if err != nil || logger == nil {
		t.Fatalf("New = %v, %v", logger, err)
	}
	closeFn()
}
