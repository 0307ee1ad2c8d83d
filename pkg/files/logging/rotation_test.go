package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/tfiles/pkg/files/logging"
)

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "size.log")

	writer, err := logging.NewRotatingWriter(logPath, 256, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	for i := 0; i < 50; i++ {
		if _, err := writer.Write([]byte(strings.Repeat("x", 30) + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for _, name := range []string{"size.log", "size.log.1", "size.log.2"} {
		info, err := os.Stat(filepath.Join(tempDir, name))
		if err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
		if info.Size() > 256 {
			t.Errorf("%s has %d bytes, want at most 256", name, info.Size())
		}
	}
	if _, err := os.Stat(filepath.Join(tempDir, "size.log.3")); !os.IsNotExist(err) {
		t.Errorf("expected size.log.3 to be pruned, got err = %v", err)
	}
}

func TestRotationAppends(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "nested", "append.log")

	for _, line := range []string{"first\n", "second\n"} {
		writer, err := logging.NewRotatingWriter(logPath, 0, 0)
		if err != nil {
			t.Fatalf("NewRotatingWriter() error = %v", err)
		}
		if _, err := writer.Write([]byte(line)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("log content = %q", data)
	}
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()

	writer, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), 0, 0)
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := writer.Write([]byte("late\n")); err == nil {
		t.Error("expected Write() after Close() to fail")
	}
}
