package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/tfiles/pkg/files/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"loud", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, logging.ErrInvalidLevel) {
				t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if got := logging.LevelWarn.String(); got != "warn" {
		t.Errorf("LevelWarn.String() = %q", got)
	}
	if got := logging.Level(42).String(); got != "unknown" {
		t.Errorf("Level(42).String() = %q", got)
	}
}

// Tests below share the package-level logging state and must not run in
// parallel.

func TestInitAndComponentLevels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tfiles.log")

	err := logging.Init(logging.Config{
		Level:      "info",
		Path:       logPath,
		Components: map[string]string{"tree": "debug"},
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	treeLogger := logging.Get("tree")
	if logging.Get("tree") != treeLogger {
		t.Error("Get() should return the cached logger")
	}

	treeLogger.Debug("tree debug line", "path", "/a/b")
	logging.Get("navigator").Debug("navigator debug line")
	logging.Get("navigator").With("dir", "/tmp").Warn("navigator warn line")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "tree debug line") {
		t.Error("expected component debug override to log debug lines")
	}
	if strings.Contains(content, "navigator debug line") {
		t.Error("expected navigator debug line to be filtered at info level")
	}
	if !strings.Contains(content, "navigator warn line") || !strings.Contains(content, "dir=/tmp") {
		t.Errorf("expected warn line with context, got:\n%s", content)
	}
}

func TestInitErrors(t *testing.T) {
	dir := t.TempDir()

	if err := logging.Init(logging.Config{Level: "loud", Path: filepath.Join(dir, "a.log")}); !errors.Is(err, logging.ErrInvalidLevel) {
		t.Errorf("Init() with bad level error = %v", err)
	}
	err := logging.Init(logging.Config{
		Path:       filepath.Join(dir, "b.log"),
		Components: map[string]string{"tree": "nope"},
	})
	if !errors.Is(err, logging.ErrInvalidLevel) {
		t.Errorf("Init() with bad component level error = %v", err)
	}
	_ = logging.Close()
}

func TestGetBeforeInit(t *testing.T) {
	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Discarded, but must not panic.
	logger := logging.Get("early")
	logger.Info("dropped")
	logger.With("k", "v").Error("dropped")
}
