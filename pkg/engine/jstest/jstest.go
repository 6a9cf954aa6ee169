// Package jstest provides a framework for testing scripts.
//
// The entry point for the framework is the Test function, which accepts a
// *testing.T and any number of test cases.
//
// Test cases are constructed using the That function, followed by method
// calls that add additional information to it.
//
// Example:
//
//	Test(t,
//	    That("1 + 2").Returns(3.0),
//	    That("print('x')").Prints("x\n"),
//	    That("null.x").Throws(rt.TypeError))
package jstest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/engine"
	"src.jsil.dev/pkg/rt"
)

// Case is a test case that can be used in Test.
type Case struct {
	codes []string
	setup func(*engine.Engine)
	want  result
}

type result struct {
	checkValue bool
	value      any

	checkOutput bool
	output      string

	compileError *compileErrorWant
	exception    *exceptionWant
}

type compileErrorWant struct{ message string }

type exceptionWant struct {
	kind    rt.ErrorKind
	message *string
	// value is checked instead of kind when isValue is set.
	isValue bool
	value   any
}

// That returns a new Case with the specified source code. Multiple
// arguments are joined with newlines. To run several scripts one after
// another against the same engine, use Then.
func That(lines ...string) Case {
	return Case{codes: []string{strings.Join(lines, "\n")}}
}

// Then returns a new Case that runs the given code afterwards. The value
// and exception of the last script are checked.
func (c Case) Then(lines ...string) Case {
	c.codes = append(c.codes, strings.Join(lines, "\n"))
	return c
}

// WithSetup returns a new Case with the given setup function called on the
// Engine before the code runs.
func (c Case) WithSetup(f func(*engine.Engine)) Case {
	c.setup = f
	return c
}

// Returns returns an altered Case that requires the completion value of the
// code, converted by engine.Export, to equal v.
func (c Case) Returns(v any) Case {
	c.want.checkValue, c.want.value = true, v
	return c
}

// Prints returns an altered Case that requires the code to print s.
func (c Case) Prints(s string) Case {
	c.want.checkOutput, c.want.output = true, s
	return c
}

// Throws returns an altered Case that requires the code to throw an error
// of the given kind. If a message is given, the message of the error must
// also match.
func (c Case) Throws(kind rt.ErrorKind, message ...string) Case {
	w := &exceptionWant{kind: kind}
	if len(message) > 0 {
		w.message = &message[0]
	}
	c.want.exception = w
	return c
}

// ThrowsValue returns an altered Case that requires the code to throw v,
// compared after conversion by engine.Export.
func (c Case) ThrowsValue(v any) Case {
	c.want.exception = &exceptionWant{isValue: true, value: v}
	return c
}

// DoesNotCompile returns an altered Case that requires the code to fail
// compilation. If a message is given, the error message must contain it.
func (c Case) DoesNotCompile(message ...string) Case {
	w := &compileErrorWant{}
	if len(message) > 0 {
		w.message = message[0]
	}
	c.want.compileError = w
	return c
}

// DoesNothing returns c unchanged. It marks cases that only need to run
// without errors.
func (c Case) DoesNothing() Case {
	return c
}

// Test runs test cases, each with a new Engine using default options.
func Test(t *testing.T, tests ...Case) {
	t.Helper()
	TestWithOptions(t, compile.CompilerOptions{}, tests...)
}

// TestWithOptions runs test cases, each with a new Engine using the given
// compiler options.
func TestWithOptions(t *testing.T, opts compile.CompilerOptions, tests ...Case) {
	t.Helper()
	for _, tc := range tests {
		t.Run(strings.Join(tc.codes, "\n"), func(t *testing.T) {
			t.Helper()
			var out bytes.Buffer
			e := engine.New(opts, engine.WithOutput(&out))
			defer e.Close()
			if tc.setup != nil {
				tc.setup(e)
			}
			var v rt.Value
			var err error
			for i, code := range tc.codes {
				v, err = e.Evaluate("[test]", code)
				if err != nil && i < len(tc.codes)-1 {
					t.Fatalf("script %d: %v", i, err)
				}
			}
			check(t, tc.want, v, err, out.String())
		})
	}
}

var cmpOpts = cmp.Options{cmpopts.EquateNaNs(), cmpopts.EquateEmpty()}

func check(t *testing.T, want result, v rt.Value, err error, output string) {
	t.Helper()
	if want.checkOutput && output != want.output {
		t.Errorf("got output %q, want %q", output, want.output)
	}

	if w := want.compileError; w != nil {
		ce := compile.GetCompilationError(err)
		switch {
		case ce == nil:
			t.Errorf("got error %v, want compilation error", err)
		case !strings.Contains(ce.Message, w.message):
			t.Errorf("got compilation error %q, want message containing %q", ce.Message, w.message)
		}
		return
	}
	if ce := compile.GetCompilationError(err); ce != nil {
		t.Fatalf("unexpected compilation error:\n%s", ce.Show(""))
	}

	if w := want.exception; w != nil {
		exc, ok := err.(*rt.Exception)
		if !ok {
			t.Errorf("got error %v (value %v), want exception", err, v)
			return
		}
		if w.isValue {
			if diff := cmp.Diff(w.value, engine.Export(exc.Value), cmpOpts); diff != "" {
				t.Errorf("thrown value (-want +got):\n%s", diff)
			}
			return
		}
		kind, ok := exc.Kind()
		if !ok || kind != w.kind {
			t.Errorf("got exception %s, want %v", exc.Show(""), w.kind)
			return
		}
		if w.message != nil {
			if got, wantMsg := exc.Error(), w.kind.String()+": "+*w.message; got != wantMsg {
				t.Errorf("got message %q, want %q", got, wantMsg)
			}
		}
		return
	}
	if err != nil {
		if exc, ok := err.(*rt.Exception); ok {
			t.Fatalf("unexpected exception: %s", exc.Show(""))
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if want.checkValue {
		if diff := cmp.Diff(want.value, engine.Export(v), cmpOpts); diff != "" {
			t.Errorf("completion value (-want +got):\n%s", diff)
		}
	}
}
