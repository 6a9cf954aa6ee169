package compile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"src.jsil.dev/pkg/emit"
)

type mapCache struct {
	m       map[Key]*emit.Program
	loads   int
	saves   int
	loadErr error
	closed  bool
}

func newMapCache() *mapCache { return &mapCache{m: make(map[Key]*emit.Program)} }

func (c *mapCache) Load(k Key) (*emit.Program, error) {
	c.loads++
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return c.m[k], nil
}

func (c *mapCache) Save(k Key, p *emit.Program) error {
	c.saves++
	c.m[k] = p
	return nil
}

func (c *mapCache) Close() error {
	c.closed = true
	return nil
}

func TestSession_ReusesPrograms(t *testing.T) {
	cache := newMapCache()
	s := NewSession(CompilerOptions{}, cache)

	p1, err := s.Compile(emit.GlobalUnit, "a.js", "1 + 1", false)
	require.NoError(t, err)
	p2, err := s.Compile(emit.GlobalUnit, "a.js", "1 + 1", false)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, cache.loads)
	assert.Equal(t, 1, cache.saves)

	p3, err := s.Compile(emit.EvalUnit, "a.js", "1 + 1", false)
	require.NoError(t, err)
	assert.NotSame(t, p1, p3, "unit kinds are cached separately")

	// A second session finds the program in the cache.
	s2 := NewSession(CompilerOptions{}, cache)
	p4, err := s2.Compile(emit.GlobalUnit, "a.js", "1 + 1", false)
	require.NoError(t, err)
	assert.Same(t, p1, p4)
	assert.Equal(t, 2, cache.saves)
}

func TestSession_CompilationErrorsAreNotCached(t *testing.T) {
	cache := newMapCache()
	s := NewSession(CompilerOptions{}, cache)
	_, err := s.Compile(emit.GlobalUnit, "bad.js", "a: { for (;;) continue a }", false)
	require.NotNil(t, GetCompilationError(err))
	assert.Equal(t, 0, cache.saves)
}

func TestSession_LoadErrorsFallBackToCompiling(t *testing.T) {
	cache := newMapCache()
	cache.loadErr = errors.New("disk on fire")
	s := NewSession(CompilerOptions{}, cache)
	p, err := s.Compile(emit.GlobalUnit, "a.js", "1", false)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestSession_Close(t *testing.T) {
	cache := newMapCache()
	s := NewSession(CompilerOptions{}, cache)
	require.NoError(t, s.Close())
	assert.True(t, cache.closed)
	require.NoError(t, s.Close())

	_, err := s.Compile(emit.GlobalUnit, "a.js", "1", false)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestMakeKey(t *testing.T) {
	base := MakeKey(emit.GlobalUnit, "a.js", "1", CompilerOptions{}, false)
	assert.Equal(t, base, MakeKey(emit.GlobalUnit, "a.js", "1", CompilerOptions{}, false))
	assert.Len(t, base.Hash, 64)

	for _, k := range []Key{
		MakeKey(emit.EvalUnit, "a.js", "1", CompilerOptions{}, false),
		MakeKey(emit.GlobalUnit, "b.js", "1", CompilerOptions{}, false),
		MakeKey(emit.GlobalUnit, "a.js", "2", CompilerOptions{}, false),
		MakeKey(emit.GlobalUnit, "a.js", "1", CompilerOptions{CompatibilityMode: ECMAScript3}, false),
		MakeKey(emit.GlobalUnit, "a.js", "1", CompilerOptions{}, true),
	} {
		assert.NotEqual(t, base, k)
	}
	assert.True(t, MakeKey(emit.EvalUnit, "", "", CompilerOptions{}, true).Strict)
}

func TestUnitStates(t *testing.T) {
	u := NewUnit(emit.GlobalUnit, "a.js", "'use strict'; var x = 1", CompilerOptions{})
	assert.Equal(t, Unparsed, u.State())
	require.NoError(t, u.Parse())
	assert.Equal(t, Parsed, u.State())
	assert.True(t, u.Strict())
	require.NoError(t, u.Optimize())
	assert.Equal(t, Optimized, u.State())
	assert.NotNil(t, u.Tree())
	p, err := u.GenerateCode()
	require.NoError(t, err)
	assert.Equal(t, CodeGenerated, u.State())
	again, err := u.GenerateCode()
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.Equal(t, "code-generated", u.State().String())
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Compile(emit.GlobalUnit, "p.js", "var a = 1;\nvar = 2;", CompilerOptions{})
	ce := GetCompilationError(err)
	require.NotNil(t, ce)
	assert.Equal(t, "p.js", ce.Context.Name)
	assert.Equal(t, 2, lineOf(ce.Context.Source, ce.Context.From))
}

func lineOf(src string, offset int) int {
	n := 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			n++
		}
	}
	return n
}

func TestParseCompatibilityMode(t *testing.T) {
	for _, test := range []struct {
		in   string
		want CompatibilityMode
		ok   bool
	}{
		{"", Latest, true},
		{"latest", Latest, true},
		{"es3", ECMAScript3, true},
		{"ecmascript3", ECMAScript3, true},
		{"es5", Latest, false},
	} {
		got, err := ParseCompatibilityMode(test.in)
		if (err == nil) != test.ok || got != test.want {
			t.Errorf("ParseCompatibilityMode(%q) -> (%v, %v), want %v", test.in, got, err, test.want)
		}
	}
	assert.Equal(t, "es3", ECMAScript3.String())
}
