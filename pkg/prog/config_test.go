package prog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"src.jsil.dev/pkg/compile"
)

func envOf(m map[string]string) LookupEnv {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfig_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strict: true
compat: es3
cache-max-age: 1h
log-level: info
`), 0o644))

	cfg, err := LoadConfig(path, envOf(map[string]string{
		"JSIL_LOG_LEVEL":   "debug",
		"JSIL_IL_ANALYSIS": "1",
		"JSIL_CACHE":       "",
	}))
	require.NoError(t, err)

	want := DefaultConfig()
	want.Strict = true
	want.Compat = "es3"
	want.CacheMaxAge = time.Hour
	want.LogLevel = "debug"
	want.ILAnalysis = true
	want.Cache = ""
	assert.Equal(t, want, cfg)

	opts, err := cfg.CompilerOptions()
	require.NoError(t, err)
	assert.Equal(t, compile.CompilerOptions{
		ForceStrictMode:   true,
		CompatibilityMode: compile.ECMAScript3,
		EnableILAnalysis:  true,
	}, opts)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"), envOf(nil))
	assert.Error(t, err, "a named config file must exist")

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("colour: red\n"), 0o644))
	_, err = LoadConfig(unknown, envOf(nil))
	assert.ErrorContains(t, err, "colour")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cfg, err := LoadConfig(empty, envOf(map[string]string{"JSIL_STRICT": "yes"}))
	assert.ErrorContains(t, err, "JSIL_STRICT")
	assert.False(t, cfg.Strict)
}

func TestCompilerOptions_BadCompat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compat = "es2049"
	_, err := cfg.CompilerOptions()
	assert.Error(t, err)
}

func TestDotEnvLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JSIL_COMPAT=es3\nJSIL_STRICT=true\n"), 0o644))

	lookup, err := DotEnvLookup(path, envOf(map[string]string{"JSIL_STRICT": "false"}))
	require.NoError(t, err)

	v, ok := lookup("JSIL_COMPAT")
	assert.True(t, ok)
	assert.Equal(t, "es3", v)
	v, _ = lookup("JSIL_STRICT")
	assert.Equal(t, "false", v, "the environment overrides the dotenv file")
	_, ok = lookup("JSIL_CACHE")
	assert.False(t, ok)

	lookup, err = DotEnvLookup(filepath.Join(t.TempDir(), ".env"), envOf(nil))
	require.NoError(t, err)
	_, ok = lookup("JSIL_COMPAT")
	assert.False(t, ok)
}
