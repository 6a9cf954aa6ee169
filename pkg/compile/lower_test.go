package compile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/emit"
	. "src.jsil.dev/pkg/engine/jstest"
	"src.jsil.dev/pkg/rt"
)

func TestLoops(t *testing.T) {
	Test(t,
		That(`
			function sum(n) { var s = 0; for (var i = 0; i < n; i++) s += i; return s }
			function slowSum(n) { var s = 0; for (var i = 0; i < n; i += 1) s += i; return s }
			[sum(1000000), slowSum(1000000)]`).
			Returns([]any{499999500000.0, 499999500000.0}),
		That(`
			function last() { for (var i = 0; i < 10; i++) {} return i }
			function down() { var n = 0; for (var i = 5; i >= 0; i--) n++; return [n, i] }
			[last(), down()]`).
			Returns([]any{10.0, []any{6.0, -1.0}}),
		// Reassigning the counter disables the int32 representation.
		That(`
			function f() { for (var i = 0; i < 3; i++) { i = i + 0.25 } return i }
			f()`).Returns(3.75),
		That(`
			function f() { for (var i = 0; i < 3; i++) { i = i + 0.5 } return i }
			f()`).Returns(3.0),
		That(`
			function f() {
				var i;
				try { for (i = 0; i < 10; i++) { if (i == 4) throw 'x' } } catch (e) {}
				return i
			}
			f()`).Returns(4.0),
		That(`var n = 0; while (n < 5) n++; n`).Returns(5.0),
		That(`var n = 10; do { n++ } while (n < 5); n`).Returns(11.0),
		That(`var r = []; for (var i = 0; i < 5; i++) { if (i == 1) continue; if (i == 3) break; r.push(i) } r.join(',')`).
			Returns("0,2"),
		That(`var fs = []; for (let i = 0; i < 3; i++) fs.push(function () { return i }); fs.map(function (f) { return f() }).join(',')`).
			Returns("0,1,2"),
		That(`var fs = []; for (var i = 0; i < 3; i++) fs.push(function () { return i }); fs.map(function (f) { return f() }).join(',')`).
			Returns("3,3,3"),
		That(`var ks = []; for (var k in {a: 1, b: 2}) ks.push(k); ks.join(',')`).Returns("a,b"),
		That(`var s = 0; for (const [k, v] of [[1, 2], [3, 4]]) s += k * v; s`).Returns(14.0),
		That(`var s = ''; for (var c of 'abc') s = c + s; s`).Returns("cba"),
		That(`var o = {}; for (o.k of [1, 2]) {} o.k`).Returns(2.0),
		That(`for (var k in {a: 1} ) { let k = 2 }`).DoesNothing(),
	)
}

func TestCounterLoopUsesInt32Compare(t *testing.T) {
	p, err := compile.Compile(emit.GlobalUnit, "test.js",
		"function f() { var s = 0; for (var i = 0; i < 10; i++) s += i; return s }",
		compile.CompilerOptions{EnableILAnalysis: true})
	require.NoError(t, err)
	require.Len(t, p.Methods, 1)
	assert.True(t, hasOp(p.Methods[0], emit.LtInt))
	assert.NotEmpty(t, p.Methods[0].Regions, "the counter is copied back in a protected region")

	p, err = compile.Compile(emit.GlobalUnit, "test.js",
		"function f() { for (var i = 0; i < 10; i++) i = 'x' }", compile.CompilerOptions{})
	require.NoError(t, err)
	assert.False(t, hasOp(p.Methods[0], emit.LtInt))
}

func hasOp(p *emit.Program, op emit.Opcode) bool {
	for _, ins := range p.Code {
		if ins.Op == op {
			return true
		}
	}
	return false
}

func TestNewUsesConstruct(t *testing.T) {
	p, err := compile.Compile(emit.GlobalUnit, "test.js", "function F() {} new F()", compile.CompilerOptions{})
	require.NoError(t, err)
	assert.True(t, hasOp(p, emit.Construct))
}

func TestLabels(t *testing.T) {
	Test(t,
		That(`label: for (;;) { break label; } 'done'`).Returns("done"),
		That(`
			var r = [];
			outer: for (var i = 0; i < 3; i++) {
				for (var j = 0; j < 3; j++) {
					if (j == 1) continue outer;
					if (i == 2) break outer;
					r.push(i + '' + j);
				}
			}
			r.join(',')`).Returns("00,10"),
		That(`var x = 1; a: { x = 2; break a; x = 3 } x`).Returns(2.0),
		That(`a: b: for (var i = 0; i < 3; i++) { continue a } i`).Returns(3.0),
		That(`a: { for (;;) { continue a } }`).
			DoesNotCompile("'a' does not denote an iteration statement"),
		That(`a: { a: ; }`).DoesNotCompile(),
	)
}

func TestSwitch(t *testing.T) {
	Test(t,
		That(`
			function f(x) {
				var r = [];
				switch (x) {
				case 1: r.push(1);
				case 2: r.push(2); break;
				default: r.push('d');
				case 3: r.push(3);
				}
				return r.join(',')
			}
			[f(1), f(2), f(3), f(9)]`).Returns([]any{"1,2", "2", "3", "d,3"}),
		That(`switch ('1') { case 1: 'number'; break; case '1': 'string' }`).Returns("string"),
		That(`var n = 0; for (var i = 0; i < 3; i++) { switch (i) { case 1: continue } n++ } n`).Returns(2.0),
	)
}

func TestTryFinally(t *testing.T) {
	Test(t,
		That(`
			var log = [];
			function f() {
				try {
					try { return 1 } finally { log.push('inner') }
				} finally { log.push('outer') }
			}
			[f(), log]`).Returns([]any{1.0, []any{"inner", "outer"}}),
		// A finally block runs once on every way out of its try block.
		That(`
			var n = 0;
			function normal() { try {} finally { n++ } }
			function thrown() { try { throw 1 } finally { n++ } }
			function returned() { try { return } finally { n++ } }
			function broken() { for (;;) { try { break } finally { n++ } } }
			function continued() { for (var i = 0; i < 1; i++) { try { continue } finally { n++ } } }
			normal(); try { thrown() } catch (e) {} returned(); broken(); continued();
			n`).Returns(5.0),
		That(`function f() { try { return 'try' } finally { return 'finally' } } f()`).Returns("finally"),
		That(`function f() { for (;;) { try { return 1 } finally { break } } return 2 } f()`).Returns(2.0),
		That(`var r; try { throw new TypeError('t') } catch (e) { r = e.message } r`).Returns("t"),
		That(`var r; try { null.x } catch ({message}) { r = message } r`).
			Returns("Cannot read properties of null (reading 'x')"),
		That(`var r = 0; try { try { throw 1 } finally { r++ } } catch (e) { r += e } r`).Returns(2.0),
		That(`
			var log = [];
			function f() {
				for (var i = 0; i < 2; i++) {
					try {
						try { if (i == 0) continue; return i } finally { log.push('a' + i) }
					} finally { log.push('b' + i) }
				}
			}
			[f(), log.join(',')]`).Returns([]any{1.0, "a0,b0,a1,b1"}),
		That(`try { throw 1 } catch { 'caught' }`).Returns("caught"),
		That(`throw {code: 42}`).ThrowsValue(map[string]any{"code": 42.0}),
		That(`try { throw 1 } finally { }`).ThrowsValue(1.0),
	)
}

func TestWith(t *testing.T) {
	Test(t,
		That(`var o = {x: 1}; var x = 2; var r; with (o) { r = x } [r, x]`).Returns([]any{1.0, 2.0}),
		That(`function P() {} P.prototype.y = 5; var o = new P(); var r; with (o) r = y; r`).Returns(5.0),
		That(`var o = {x: 1}; with (o) { x = 3 } o.x`).Returns(3.0),
		That(`var x = 'global'; var o = {x: 1}; try { with (o) { throw 0 } } catch (e) {} x`).Returns("global"),
		That(`var x = 'global'; for (;;) { with ({x: 1}) { break } } x`).Returns("global"),
		That(`function f() { var x = 'local'; with ({}) { return x } } f()`).Returns("local"),
		That(`var o = {v: 7, get: function () { return this.v }}; with (o) { get() }`).Returns(7.0),
	)
}

func TestFunctions(t *testing.T) {
	Test(t,
		That(`function f(a, b = a + 1) { return b } [f(5), f(5, 10), f(5, undefined)]`).
			Returns([]any{6.0, 10.0, 6.0}),
		That(`function f(a, a) { return a } f(1, 2)`).Returns(2.0),
		That(`function f(...xs) { return xs.length } [f(), f(1, 2, 3), f.length]`).Returns([]any{0.0, 3.0, 0.0}),
		That(`function f(a, b = 1, c) {} f.length`).Returns(1.0),
		That(`function f() { return arguments.length + arguments[0] } f(10, 20)`).Returns(12.0),
		That(`function f() { return typeof arguments } var arguments; f()`).Returns("object"),
		That(`
			function outer() { var n = arguments.length; function inner() { return arguments.length } return [n, inner(1, 2)] }
			outer(9)`).Returns([]any{1.0, 2.0}),
		That(`
			function outer() { function inner() { return arguments.length } var n = arguments.length; return [n, inner(1, 2)] }
			outer(9)`).Returns([]any{1.0, 2.0}),
		That(`function f() { return (() => arguments[0])() } f(7)`).Returns(7.0),
		// The arguments object is unmapped: it does not alias named parameters.
		That(`function f(a) { for (a = 0; a < 3; a++) { arguments[0] = 100 } return a } f(1)`).Returns(3.0),
		That(`function f(a) { a = 2; return [a, arguments[0]] } f(1)`).Returns([]any{2.0, 1.0}),
		That(`function f() { return typeof this } [f(), f.call(5)]`).Returns([]any{"object", "object"}),
		That(`'use strict'; function f() { return typeof this } f()`).Returns("undefined"),
		That(`var o = {v: 1, m() { return (() => this.v)() }}; o.m()`).Returns(1.0),
		That(`var fact = function me(n) { return n <= 1 ? 1 : n * me(n - 1) }; fact(5)`).Returns(120.0),
		That(`g(); function g() { return 'hoisted' } g()`).Returns("hoisted"),
		That(`function counter() { var n = 0; return function () { return ++n } } var c = counter(); c(); c(); c()`).
			Returns(3.0),
		That(`var f = () => 1; [f.name, (function () {}).name]`).Returns([]any{"f", ""}),
		That(`function f({a, b: [c] = [9]}) { return a + c } [f({a: 1, b: [2]}), f({a: 1})]`).Returns([]any{3.0, 10.0}),
		That(`new (() => 1)`).Throws(rt.TypeError),
		That(`undefinedFunction()`).Throws(rt.ReferenceError, "undefinedFunction is not defined"),
		That(`function* g() {}`).DoesNotCompile(),
		That(`async function g() {}`).DoesNotCompile(),
	)
}

func TestDeclarations(t *testing.T) {
	Test(t,
		That(`{ x; let x = 1 }`).Throws(rt.ReferenceError, "Cannot access 'x' before initialization"),
		That(`const c = 1; c = 2`).Throws(rt.TypeError, "Assignment to constant variable."),
		That(`function f() { const c = 1; c++ } f()`).Throws(rt.TypeError, "Assignment to constant variable."),
		That(`let a = 1; { let a = 2 } a`).Returns(1.0),
		That(`var [a, , b = 3, ...rest] = [1, 2, undefined, 4, 5]; [a, b, rest]`).
			Returns([]any{1.0, 3.0, []any{4.0, 5.0}}),
		That(`var {x, y: {z}, ...o} = {x: 1, y: {z: 2}, p: 3, q: 4}; [x, z, o]`).
			Returns([]any{1.0, 2.0, map[string]any{"p": 3.0, "q": 4.0}}),
		That(`var a = 1, b = 2; [a, b] = [b, a]; [a, b]`).Returns([]any{2.0, 1.0}),
		That(`x = 5; x`).Returns(5.0),
		That(`'use strict'; y = 5`).Throws(rt.ReferenceError, "y is not defined"),
		That(`typeof notDeclared`).Returns("undefined"),
		That(`var o = {p: 1}; [delete o.p, 'p' in o]`).Returns([]any{true, false}),
	)
}

func TestExpressions(t *testing.T) {
	Test(t,
		That(`1 + 2 * 3`).Returns(7.0),
		That(`'a' + 1 + 2`).Returns("a12"),
		That(`(5 | 0) + (7 >>> 1) + (1 << 3)`).Returns(16.0),
		That(`[1 < 2, 'b' > 'a', null == undefined, null === undefined, NaN != NaN]`).
			Returns([]any{true, true, true, false, true}),
		That(`var a = null; var b = a ?? 'd'; var c = 0 || 'e'; var d = 1 && 'f'; [b, c, d]`).Returns([]any{"d", "e", "f"}),
		That(`var o = {a: null}; o.a ??= 1; o.b ||= 2; o.a &&= 3; [o.a, o.b]`).Returns([]any{3.0, 2.0}),
		That(`var i = 1; var r = [i++, i, ++i, i--, --i]; r`).Returns([]any{1.0, 2.0, 3.0, 3.0, 1.0}),
		That(`var o = {n: 1}; o.n += 2; o['n'] *= 2; o.n`).Returns(6.0),
		That(`var n = 2; `+"`a${n}b${n + 1}`").Returns("a2b3"),
		That(`function tag(s, ...v) { return s.raw.join('|') + v.join(',') } tag`+"`x${1}y${2}`").Returns("x|y|1,2"),
		That(`function t(s) { return s } function g() { return t`+"`a`"+` } g() === g()`).Returns(true),
		That(`var k = 'p'; var o = {[k + 1]: 1, q: 2, ...{r: 3}}; [o.p1, o.q, o.r]`).Returns([]any{1.0, 2.0, 3.0}),
		That(`var a = [1, ...[2, 3], 4]; [a.length, a[1], [1, , 3].length]`).Returns([]any{4.0, 2.0, 3.0}),
		That(`Math.pow(...[2, 10])`).Returns(1024.0),
		That(`[typeof 1, typeof 'x', typeof {}, typeof null, typeof function () {}, void 0]`).
			Returns([]any{"number", "string", "object", "object", "function", nil}),
		That(`['a' in {a: 1}, [] instanceof Array, (1, 2)]`).Returns([]any{true, true, 2.0}),
		That(`true ? 'y' : 'n'`).Returns("y"),
		That(`/a+/.test('caaat')`).Returns(true),
		That(`/(/`).DoesNotCompile(),
		That(`a?.b`).DoesNotCompile(),
	)
}

func TestRegExpSites(t *testing.T) {
	const src = `function r() { return /a/g } r() === r()`
	Test(t, That(src).Returns(false))
	TestWithOptions(t, compile.CompilerOptions{CompatibilityMode: compile.ECMAScript3}, That(src).Returns(true))
}

func TestForceStrictMode(t *testing.T) {
	TestWithOptions(t, compile.CompilerOptions{ForceStrictMode: true},
		That(`function f() { return this } f()`).Returns(nil),
		That(`undeclared = 1`).Throws(rt.ReferenceError),
	)
}

func TestClasses(t *testing.T) {
	Test(t,
		That(`
			class A {
				constructor(x) { this.x = x }
				twice() { return this.x * 2 }
				static make() { return new A(3) }
			}
			class B extends A {
				constructor() { super(5) }
				twice() { return super.twice() + 1 }
			}
			[A.make().twice(), new B().twice(), new B() instanceof A]`).Returns([]any{6.0, 11.0, true}),
		That(`class A { m() { return 1 } } class B extends A {} new B().m()`).Returns(1.0),
		That(`class A {} class B extends A { constructor() { this.x = 1; super() } } new B()`).
			Throws(rt.ReferenceError),
		That(`class B extends 1 {}`).Throws(rt.TypeError),
		That(`class A {} A()`).Throws(rt.TypeError, "Class constructor A cannot be invoked without 'new'"),
		That(`class A { get x() { return 1 } }`).DoesNotCompile(),
	)
}

func TestEval(t *testing.T) {
	Test(t,
		That(`var x = 1; function f() { var x = 2; return eval('x') } f()`).Returns(2.0),
		That(`var x = 1; function f() { var x = 2; return (0, eval)('x') } f()`).Returns(1.0),
		That(`eval(42)`).Returns(42.0),
		That(`eval('1 + 1; 3')`).Returns(3.0),
		That(`function f() { eval('var y = 7'); return y } f()`).Returns(7.0),
		That(`function f() { 'use strict'; eval('var y = 7'); return typeof y } f()`).Returns("undefined"),
		That(`try { eval('(') } catch (e) { e instanceof SyntaxError }`).Returns(true),
		That(`function f(a) { eval('a = 2'); return a } f(1)`).Returns(2.0),
		That(`function f() { return eval('this') } var o = {f: f}; o.f() === o`).Returns(true),
		That(`eval('let z = 1'); typeof z`).Returns("undefined"),
	)
}

func TestDebuggerStatement(t *testing.T) {
	Test(t, That(`debugger; 1`).Returns(1.0))
}

func TestCompileErrorsHaveContext(t *testing.T) {
	_, err := compile.Compile(emit.GlobalUnit, "bad.js", "for (;;) {\n  continue nope;\n}", compile.CompilerOptions{})
	ce := compile.GetCompilationError(err)
	require.NotNil(t, ce)
	assert.Equal(t, "bad.js", ce.Context.Name)
	assert.Contains(t, ce.Message, "nope")
}
