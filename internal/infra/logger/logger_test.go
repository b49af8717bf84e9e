package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"leadscout/internal/infra/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadscout.log")

	log, closer, err := New(config.LoggerConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatal(err)
	}

	log.Info("hello", "agent_id", "a1")
	if err := closer(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"agent_id":"a1"`) {
		t.Fatalf("log output: %s", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("log file perm = %o, want 0600", perm)
	}
}

func TestNewLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadscout.log")

	log, closer, err := New(config.LoggerConfig{Level: "error", Output: path})
	if err != nil {
		t.Fatal(err)
	}
	log.Info("dropped")
	log.Error("kept")
	if err := closer(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "dropped") {
		t.Fatal("info line should be filtered at error level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Fatal("error line missing")
	}
}
