package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WritePayloadFile writes content to name inside a fresh temporary directory and returns its path.
func WritePayloadFile(t testing.TB, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write payload file %s: %v", path, err)
	}
	return path
}
