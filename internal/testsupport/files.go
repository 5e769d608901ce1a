package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteResultText writes a result.txt in R print format, wrapping each
// "key: value" pair as `[1] "key: value"`.
func WriteResultText(t testing.TB, dir string, pairs ...string) string {
	t.Helper()

	var b strings.Builder
	for _, pair := range pairs {
		b.WriteString(`[1] "`)
		b.WriteString(pair)
		b.WriteString("\"\n")
	}
	path := filepath.Join(dir, "result.txt")
	WriteFile(t, path, []byte(b.String()))
	return path
}
