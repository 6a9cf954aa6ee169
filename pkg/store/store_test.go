package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/emit"
)

func generate(t *testing.T, src string) (compile.Key, *emit.Program) {
	t.Helper()
	opts := compile.CompilerOptions{}
	p, err := compile.Compile(emit.GlobalUnit, "test.js", src, opts)
	require.NoError(t, err)
	return compile.MakeKey(emit.GlobalUnit, "test.js", src, opts, false), p
}

func TestCodeCache_SaveAndLoad(t *testing.T) {
	c := MustGetTempCache(t, "v1.2.3")
	k, p := generate(t, "function f(x) { return x * 2 } f(21)")

	got, err := c.Load(k)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Save(k, p))
	got, err = c.Load(k)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Code, got.Code)
	assert.Equal(t, p.Consts, got.Consts)
	require.Len(t, got.Methods, 1)
	assert.Equal(t, "f", got.Methods[0].Name)
	assert.Equal(t, "test.js", got.Methods[0].SourceContext(0).Name, "nested methods are linked to the source")

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Saves: 1}, stats)
}

func TestCodeCache_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	k, p := generate(t, "1 + 1")

	c, err := OpenVersion(path, "v1.2.3")
	require.NoError(t, err)
	require.NoError(t, c.Save(k, p))
	require.NoError(t, c.Close())

	// A patch release can use the record.
	c, err = OpenVersion(path, "v1.2.9")
	require.NoError(t, err)
	got, err := c.Load(k)
	require.NoError(t, err)
	assert.NotNil(t, got)
	require.NoError(t, c.Close())

	// A minor release cannot, and drops it.
	c, err = OpenVersion(path, "v1.3.0")
	require.NoError(t, err)
	defer c.Close()
	got, err = c.Load(k)
	require.NoError(t, err)
	assert.Nil(t, got)
	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCodeCache_Prune(t *testing.T) {
	c := MustGetTempCache(t, "v0.4.0")
	now := time.Unix(1_000_000, 0)
	c.now = func() time.Time { return now }

	k1, p1 := generate(t, "1")
	k2, p2 := generate(t, "2")
	require.NoError(t, c.Save(k1, p1))
	now = now.Add(48 * time.Hour)
	require.NoError(t, c.Save(k2, p2))

	n, err := c.Prune(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing is too old without a maximum age")

	n, err = c.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := c.Load(k1)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = c.Load(k2)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCodeCache_Compatible(t *testing.T) {
	c := MustGetTempCache(t, "v0.4.1")
	for v, want := range map[string]bool{
		"v0.4.0":     true,
		"v0.4.7":     true,
		"0.4.1":      true,
		"v0.5.0":     false,
		"v0.3.9":     false,
		"v1.4.1":     false,
		"v0.4.2-dev": false,
		"garbage":    false,
	} {
		assert.Equal(t, want, c.Compatible(v), "Compatible(%q)", v)
	}
}

func TestCodeCache_WithSession(t *testing.T) {
	c := MustGetTempCache(t, "v0.4.0")
	s1 := compile.NewSession(compile.CompilerOptions{}, c)
	p1, err := s1.Compile(emit.GlobalUnit, "a.js", "var x = 1; x", false)
	require.NoError(t, err)

	s2 := compile.NewSession(compile.CompilerOptions{}, c)
	p2, err := s2.Compile(emit.GlobalUnit, "a.js", "var x = 1; x", false)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
	assert.Equal(t, p1.Code, p2.Code)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestOpenVersion_BadVersion(t *testing.T) {
	_, err := OpenVersion(filepath.Join(t.TempDir(), "x.db"), "not-a-version")
	assert.Error(t, err)
}
