package scope

import (
	"testing"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, src string) *Tree {
	t.Helper()
	p, err := parser.ParseFile(nil, "test.js", src, 0)
	require.NoError(t, err)
	return Analyze(p, Global, false)
}

// firstFunc returns the scope of the first function nested in the root.
func firstFunc(t *testing.T, tree *Tree) *Scope {
	t.Helper()
	for _, c := range tree.Root.Children {
		if c.Kind == Function {
			return c
		}
	}
	t.Fatal("no function scope")
	return nil
}

func TestAnalyze_Declarations(t *testing.T) {
	tree := analyze(t, `
		var a = 1;
		let b;
		function f(x, y) { var z; { let w = 1; } }
	`)
	root := tree.Root
	assert.Equal(t, Var, root.Lookup("a").Kind)
	assert.Equal(t, Let, root.Lookup("b").Kind)
	assert.Equal(t, FunctionDecl, root.Lookup("f").Kind)

	f := firstFunc(t, tree)
	assert.True(t, f.IsDeclaration)
	assert.True(t, f.SimpleParams)
	require.Len(t, f.Params, 2)
	assert.Equal(t, "x", f.Params[0].Name)
	assert.Equal(t, Var, f.Lookup("z").Kind)
	assert.Nil(t, f.Lookup("w"))
	require.Len(t, f.Children, 1)
	assert.Equal(t, Let, f.Children[0].Lookup("w").Kind)
}

func TestAnalyze_Hints(t *testing.T) {
	tree := analyze(t, `
		function f() { return this.x + arguments.length; }
		function g() { return () => this; }
		function h() { function inner() {} }
		function e() { eval("1"); }
	`)
	fs := tree.Root.Children
	require.Len(t, fs, 4)
	assert.Equal(t, Hints{This: true, Arguments: true}, fs[0].Hints)
	assert.True(t, fs[1].Hints.This)
	assert.True(t, fs[1].Hints.NestedFunctions)
	assert.True(t, fs[1].Children[0].Arrow)
	assert.Equal(t, Hints{NestedFunctions: true}, fs[2].Hints)
	assert.True(t, fs[3].Hints.Eval)
	assert.True(t, fs[3].Hints.Arguments)
}

func TestAnalyze_CaptureAndMaterialization(t *testing.T) {
	tree := analyze(t, `
		function f() {
			var local = 1, shared = 2;
			{ let inner = 3; }
			return function () { return shared; };
		}
	`)
	f := firstFunc(t, tree)
	assert.False(t, f.Lookup("local").Captured)
	assert.True(t, f.Lookup("shared").Captured)
	assert.True(t, f.Materialized)
	assert.False(t, f.Children[0].Materialized)
}

func TestAnalyze_ArrowArgumentsCaptured(t *testing.T) {
	tree := analyze(t, `function f() { return () => arguments[0]; }`)
	f := firstFunc(t, tree)
	args := f.Lookup("arguments")
	require.NotNil(t, args)
	assert.Equal(t, Arguments, args.Kind)
	assert.True(t, args.Captured)
}

// funcScopes returns the function scopes of a tree in source order.
func funcScopes(s *Scope) []*Scope {
	var fs []*Scope
	for _, c := range s.Children {
		if c.Kind == Function {
			fs = append(fs, c)
		}
		fs = append(fs, funcScopes(c)...)
	}
	return fs
}

func TestAnalyze_ArgumentsBelongToNearestFunction(t *testing.T) {
	for _, src := range []string{
		`function outer() { var n = arguments.length; function inner() { return arguments.length } return n }`,
		`function outer() { function inner() { return arguments.length } var n = arguments.length; return n }`,
	} {
		fs := funcScopes(analyze(t, src).Root)
		require.Len(t, fs, 2, src)
		outer, inner := fs[0], fs[1]
		require.NotNil(t, outer.Lookup("arguments"), src)
		require.NotNil(t, inner.Lookup("arguments"), src)
		assert.NotSame(t, outer.Lookup("arguments"), inner.Lookup("arguments"), src)
		assert.False(t, outer.Lookup("arguments").Captured, src)
		assert.True(t, inner.Hints.Arguments, src)
	}
}

func TestAnalyze_GlobalArgumentsDoesNotShadow(t *testing.T) {
	tree := analyze(t, `function f() { return typeof arguments } var arguments;`)
	f := firstFunc(t, tree)
	args := f.Lookup("arguments")
	require.NotNil(t, args)
	assert.Equal(t, Arguments, args.Kind)
	assert.False(t, args.Captured)
}

func TestAnalyze_EvalMakesScopesDynamic(t *testing.T) {
	tree := analyze(t, `
		function f() {
			var x = 1;
			{ let y = 2; (function () { eval("x + y"); })(); }
		}
	`)
	f := firstFunc(t, tree)
	assert.True(t, f.Dynamic)
	assert.True(t, f.Materialized)
	block := f.Children[0]
	assert.True(t, block.Dynamic)
	assert.True(t, block.Materialized)
	assert.False(t, f.Hints.Eval)
	assert.True(t, block.Children[0].Hints.Eval)
}

func TestAnalyze_Dominance(t *testing.T) {
	tree := analyze(t, `
		function f(c) {
			let a = 1; a;
			a2; let a2 = 1;
			let b; b = 1; b;
			if (c) { var v = 1; } v;
			var w = 1; w++; w;
			let g = 1; function later() { return g; }
			switch (c) { case 1: let s = 1; s; }
		}
	`)
	f := firstFunc(t, tree)
	assert.True(t, f.Lookup("a").Dominated)
	assert.False(t, f.Lookup("a2").Dominated)
	assert.False(t, f.Lookup("b").Dominated)
	assert.False(t, f.Lookup("v").Dominated)
	assert.True(t, f.Lookup("w").Dominated)
	assert.False(t, f.Lookup("g").Dominated)
	assert.True(t, f.Lookup("c").Dominated)
	var sw *Scope
	for _, c := range f.Children {
		if _, ok := c.Node.(*ast.SwitchStatement); ok {
			sw = c
		}
	}
	require.NotNil(t, sw)
	assert.False(t, sw.Lookup("s").Dominated)
	assert.True(t, sw.Lookup("s").NeedsTDZCheck())
	assert.False(t, f.Lookup("a").NeedsTDZCheck())
}

func TestAnalyze_Assignments(t *testing.T) {
	tree := analyze(t, `function f() { var i = 0; i += 2; i++; [i] = [3]; }`)
	i := firstFunc(t, tree).Lookup("i")
	kinds := make([]AssignKind, len(i.Assignments))
	for j, a := range i.Assignments {
		kinds[j] = a.Kind
	}
	assert.ElementsMatch(t, []AssignKind{AssignInit, AssignPlain, AssignUpdate, AssignUnknown}, kinds)
}

func TestAnalyze_FunctionExpressionName(t *testing.T) {
	tree := analyze(t, `
		(function fact(n) { return n ? n * fact(n - 1) : 1; });
		(function shadowed(shadowed) { return shadowed; });
	`)
	fs := tree.Root.Children
	require.Len(t, fs, 2)
	assert.Equal(t, FunctionName, fs[0].Lookup("fact").Kind)
	assert.Equal(t, Param, fs[1].Lookup("shadowed").Kind)
}

func TestAnalyze_Strictness(t *testing.T) {
	tree := analyze(t, `
		function sloppy() {}
		function strict() { "use strict"; }
		class C { m() {} }
	`)
	fs := tree.Root.Children
	assert.False(t, tree.Root.Strict)
	assert.False(t, fs[0].Strict)
	assert.True(t, fs[1].Strict)
	assert.True(t, fs[2].Strict)
	assert.True(t, fs[2].Children[0].Strict)
	assert.True(t, fs[2].Children[0].IsMethod)
}

func TestResolve(t *testing.T) {
	tree := analyze(t, `
		function f(o) {
			var x = 1, y = 2;
			var g = function () { return y; };
			with (o) { x; }
		}
	`)
	f := firstFunc(t, tree)
	var with, g *Scope
	for _, c := range f.Children {
		switch c.Kind {
		case With:
			with = c
		case Function:
			g = c
		}
	}
	require.NotNil(t, with)
	require.NotNil(t, g)

	res := Resolve(with, "x")
	assert.Equal(t, f.Lookup("x"), res.Var)
	assert.True(t, res.Probe)
	assert.Equal(t, 1, res.Depth)

	res = Resolve(g, "y")
	assert.Equal(t, f.Lookup("y"), res.Var)
	assert.False(t, res.Probe)
	assert.Equal(t, 0, res.Depth)

	res = Resolve(g, "undeclared")
	assert.True(t, res.IsDynamic())
	assert.Equal(t, 1, DepthTo(with, f))
}
