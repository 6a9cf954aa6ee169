package store

import (
	"path/filepath"
	"testing"
)

// MustGetTempCache returns a CodeCache backed by a file in a temporary
// directory. The cache is closed when the test finishes.
func MustGetTempCache(t testing.TB, version string) *CodeCache {
	t.Helper()
	c, err := OpenVersion(filepath.Join(t.TempDir(), "cache.db"), version)
	if err != nil {
		t.Fatalf("open temporary code cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
