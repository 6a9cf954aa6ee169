package engine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/diag"
	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/engine"
	. "src.jsil.dev/pkg/engine/jstest"
	"src.jsil.dev/pkg/rt"
)

func TestHostBuiltins(t *testing.T) {
	Test(t,
		That(`print('a', 1, true, null)`).Prints("a 1 true null\n"),
		That(`console.log([1, 2], 'x')`).Prints("1,2 x\n"),
		That(`print()`).Prints("\n"),
	)
}

func TestSetGlobal(t *testing.T) {
	Test(t,
		That(`answer + 1`).
			WithSetup(func(e *engine.Engine) { e.SetGlobal("answer", 41) }).
			Returns(42.0),
		That(`var total = 0`).Then(`total += 2`).Then(`total`).Returns(2.0),
	)
}

func TestEngine_CallAndGlobal(t *testing.T) {
	e := engine.New(compile.CompilerOptions{})
	defer e.Close()
	require.NoError(t, e.Execute("lib.js", `function add(a, b) { return a + b } var greeting = 'hi'`))

	v, err := e.Call(e.Global("add"), rt.Undefined, 2.0, 3.0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
	assert.Equal(t, "hi", e.Global("greeting"))
	assert.Equal(t, rt.Undefined, e.Global("missing"))

	_, err = e.Call("not a function", rt.Undefined)
	var exc *rt.Exception
	require.ErrorAs(t, err, &exc)
	kind, _ := exc.Kind()
	assert.Equal(t, rt.TypeError, kind)
}

func TestEngine_UncaughtExceptionHasTrace(t *testing.T) {
	e := engine.New(compile.CompilerOptions{})
	defer e.Close()
	_, err := e.Evaluate("trace.js", "function f() {\n  throw new Error('boom')\n}\nf()")
	var exc *rt.Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "Error: boom", exc.Error())
	require.NotNil(t, exc.Trace)
	assert.Equal(t, "trace.js", exc.Trace.Head.Name)
	require.NotNil(t, exc.Trace.Next, "the trace has the function and the global frame")
}

func TestEngine_CompilationError(t *testing.T) {
	e := engine.New(compile.CompilerOptions{})
	defer e.Close()
	_, err := e.Evaluate("bad.js", "var")
	assert.NotNil(t, compile.GetCompilationError(err))
}

func TestEngine_Debugger(t *testing.T) {
	var hits []diag.Context
	e := engine.New(compile.CompilerOptions{},
		engine.WithDebugger(func(pos diag.Context) { hits = append(hits, pos) }))
	defer e.Close()
	_, err := e.Evaluate("dbg.js", "var a = 1;\ndebugger;\na")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "dbg.js", hits[0].Name)
	assert.Equal(t, len("var a = 1;\n"), hits[0].From)
}

func TestEngine_SharedSession(t *testing.T) {
	s := compile.NewSession(compile.CompilerOptions{}, nil)
	defer s.Close()
	var out1, out2 bytes.Buffer
	e1 := engine.New(compile.CompilerOptions{}, engine.WithSession(s), engine.WithOutput(&out1))
	e2 := engine.New(compile.CompilerOptions{}, engine.WithSession(s), engine.WithOutput(&out2))
	require.NoError(t, e1.Execute("p.js", "var n = (typeof n == 'number' ? n : 0) + 1; print(n)"))
	require.NoError(t, e1.Execute("p.js", "var n = (typeof n == 'number' ? n : 0) + 1; print(n)"))
	require.NoError(t, e2.Execute("p.js", "var n = (typeof n == 'number' ? n : 0) + 1; print(n)"))
	assert.Equal(t, "1\n2\n", out1.String())
	assert.Equal(t, "1\n", out2.String(), "engines share programs, not globals")

	require.NoError(t, e1.Close())
	_, err := s.Compile(emit.GlobalUnit, "x.js", "1", false)
	assert.NoError(t, err, "closing an engine leaves a host session open")
}

func TestExport(t *testing.T) {
	e := engine.New(compile.CompilerOptions{})
	defer e.Close()
	v, err := e.Evaluate("x.js", `var o = {a: [1, 'b', null, undefined], n: new Number(3)}; o.self = o; o`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a":    []any{1.0, "b", nil, nil},
		"n":    3.0,
		"self": nil,
	}, engine.Export(v))
}
