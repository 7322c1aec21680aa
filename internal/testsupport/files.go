package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteLines fills the target path with the given lines joined by newlines,
// creating parent directories as needed. Reader tests use this to simulate a
// serial device feed.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
