package engine_test

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/engine"
)

// Scripts whose results are checked against goja. Each one must evaluate
// to a value made of primitives, arrays and plain objects.
var oracleScripts = []string{
	`var s = 0; for (var i = 0; i < 1000; i++) s += i * i; s`,
	`function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2) } fib(20)`,
	`var log = [];
	function f(x) {
		try {
			try { if (x) throw x; return 'ok' } catch (e) { log.push('c' + e); return 'caught' } finally { log.push('f1') }
		} finally { log.push('f2') }
	}
	[f(0), f(1), log]`,
	`var out = [];
	a: for (var i = 0; i < 4; i++) {
		b: for (var j = 0; j < 4; j++) {
			if (j > i) continue a;
			if (i == 3) break a;
			out.push([i, j]);
		}
	}
	out`,
	`var o = {x: 1, y: 2}; var r = []; with (o) { r.push(x + y); x = 10 } r.push(o.x); r`,
	`function mk() { var fs = []; for (let i = 0; i < 4; i++) { fs.push(() => i * 10) } return fs.map(f => f()) } mk()`,
	`var [a, [b, c] = [2, 3], ...d] = [1, undefined, 4, 5]; ({a, b, c, d})`,
	`class Shape { constructor(n) { this.n = n } area() { return 0 } describe() { return this.n + ':' + this.area() } }
	class Sq extends Shape { constructor(s) { super('sq'); this.s = s } area() { return this.s * this.s } }
	[new Sq(3).describe(), new Shape('x').describe()]`,
	`var r = []; for (var k in {b: 1, a: 2, 1: 3, 0: 4}) r.push(k); r`,
	`function f(a, b = a * 2, ...rest) { return [a, b, rest.length, arguments.length] } [f(1), f(1, 5, 6, 7)]`,
	`var x = 'g'; function f() { var x = 'l'; return [eval('x'), (0, eval)('x')] } f()`,
	`var t = 0; for (var i = 0; i < 10; i++) { switch (i % 3) { case 0: t += 1; break; case 1: t += 10; default: t += 100 } } t`,
	`[1 / 3, 0.1 + 0.2, 2 ** 31 | 0, -7 % 3, '5' * '2', '5' + 2, 1e21 + '', (123.456).toString()]`,
	"var who = 'you'; `hello ${who}, ${1 + 1} times`",
	`var n = 0; do { n += 2 } while (n < 7); var m = 9; while (m > 3) m -= 4; [n, m]`,
	`var o = {}; o.a ??= 1; o.a ||= 2; o.b &&= 3; o.c = o.c || 'd'; o`,
}

func TestAgainstGoja(t *testing.T) {
	for _, src := range oracleScripts {
		t.Run(src, func(t *testing.T) {
			want, err := goja.New().RunString(src)
			if err != nil {
				t.Fatalf("goja: %v", err)
			}
			e := engine.New(compile.CompilerOptions{})
			defer e.Close()
			got, err := e.Evaluate("[oracle]", src)
			if err != nil {
				t.Fatalf("engine: %v", err)
			}
			if diff := cmp.Diff(normalizeGoja(want.Export()), engine.Export(got), cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("result (-goja +engine):\n%s", diff)
			}
		})
	}
}

// normalizeGoja converts the integers goja exports to float64.
func normalizeGoja(v any) any {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeGoja(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalizeGoja(e)
		}
		return out
	}
	return v
}
