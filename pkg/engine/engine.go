// Package engine is the host interface of the language: it compiles scripts
// through a compile.Session and runs them on a vm.Machine against a realm
// with a few host built-ins.
package engine

import (
	"io"
	"os"
	"strings"
	"sync"

	"src.jsil.dev/pkg/compile"
	"src.jsil.dev/pkg/diag"
	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/logutil"
	"src.jsil.dev/pkg/rt"
	"src.jsil.dev/pkg/vm"
)

var logger = logutil.GetLogger("[engine] ")

// evalSourceName is the source name of the code of eval calls.
const evalSourceName = "[eval]"

// Engine runs scripts. The public methods may be called from multiple
// goroutines; they are serialized. They must not be called from host
// functions invoked by a script running on the same Engine.
type Engine struct {
	mu sync.Mutex

	realm   *rt.Realm
	machine *vm.Machine
	session *compile.Session
	// Set when the session was created by New.
	ownSession bool
	out        io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithSession makes the Engine compile with a session owned by the host.
// The session is not closed by Engine.Close.
func WithSession(s *compile.Session) Option {
	return func(e *Engine) { e.session, e.ownSession = s, false }
}

// WithOutput sets the writer print and console.log write to. The default is
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithDebugger installs a function called when a debugger statement is
// executed.
func WithDebugger(f func(pos diag.Context)) Option {
	return func(e *Engine) {
		e.machine.Debugger = func(c *diag.Context) { f(*c) }
	}
}

// New creates an Engine. Unless WithSession is given, it compiles with a
// session of its own using opts.
func New(opts compile.CompilerOptions, options ...Option) *Engine {
	r := rt.NewRealm()
	e := &Engine{realm: r, machine: vm.New(r), out: os.Stdout}
	for _, o := range options {
		o(e)
	}
	if e.session == nil {
		e.session, e.ownSession = compile.NewSession(opts, nil), true
	}
	e.machine.Eval = e.directEval
	r.Eval = r.NewNative("eval", 1, e.indirectEval)
	r.DefineGlobal("eval", r.Eval)
	e.initHostBuiltins()
	return e
}

// Realm returns the realm scripts run against.
func (e *Engine) Realm() *rt.Realm { return e.realm }

// Session returns the compilation session of the Engine.
func (e *Engine) Session() *compile.Session { return e.session }

// Execute runs a script as global code.
func (e *Engine) Execute(name, src string) error {
	_, err := e.Evaluate(name, src)
	return err
}

// Evaluate runs a script as global code and returns its completion value:
// the value of the last expression statement executed.
//
// Compilation errors are returned as *diag.Error values; uncaught script
// exceptions as *rt.Exception values.
func (e *Engine) Evaluate(name, src string) (rt.Value, error) {
	p, err := e.session.Compile(emit.GlobalUnit, name, src, false)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.machine.RunUnit(p, e.realm.GlobalLexical, e.realm.Global)
	if err != nil {
		return nil, err
	}
	return rt.Normalize(v), nil
}

// Call calls a script function.
func (e *Engine) Call(fn, this rt.Value, args ...rt.Value) (rt.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.realm.Call(fn, this, args, "callee")
	if err != nil {
		return nil, err
	}
	return rt.Normalize(v), nil
}

// SetGlobal sets a property of the global object.
func (e *Engine) SetGlobal(name string, v rt.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.realm.Global.Set(name, rt.Normalize(v))
}

// Global returns a property of the global object, or undefined.
func (e *Engine) Global(name string) rt.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rt.Normalize(e.realm.Global.Get(name))
}

// Close releases the compilation session if the Engine owns it.
func (e *Engine) Close() error {
	if e.ownSession {
		return e.session.Close()
	}
	return nil
}

// directEval runs the code of a direct eval call in the scope of its caller.
func (e *Engine) directEval(ctx vm.EvalContext) (rt.Value, error) {
	src, ok := rt.Arg(ctx.Arguments, 0).(string)
	if !ok {
		return rt.Arg(ctx.Arguments, 0), nil
	}
	p, err := e.session.Compile(emit.EvalUnit, evalSourceName, src, ctx.Strict)
	if err != nil {
		return nil, e.scriptError(err)
	}
	return e.machine.RunUnit(p, ctx.Scope, ctx.This)
}

// indirectEval is the eval function when called other than directly: the
// code runs in the global scope as sloppy code.
func (e *Engine) indirectEval(_ rt.Value, args []rt.Value) (rt.Value, error) {
	src, ok := rt.Arg(args, 0).(string)
	if !ok {
		return rt.Arg(args, 0), nil
	}
	p, err := e.session.Compile(emit.EvalUnit, evalSourceName, src, false)
	if err != nil {
		return nil, e.scriptError(err)
	}
	return e.machine.RunUnit(p, e.realm.GlobalLexical, e.realm.Global)
}

// scriptError turns a compilation error into a SyntaxError scripts can
// catch.
func (e *Engine) scriptError(err error) error {
	if ce := compile.GetCompilationError(err); ce != nil {
		logger.Debugf("eval code does not compile: %v", ce)
		return e.realm.Throwf(rt.SyntaxError, "%s", ce.Message)
	}
	return err
}

func (e *Engine) initHostBuiltins() {
	r := e.realm
	printFn := r.NewNative("print", 0, func(_ rt.Value, args []rt.Value) (rt.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = rt.ToDisplayString(a)
		}
		_, err := io.WriteString(e.out, strings.Join(parts, " ")+"\n")
		if err != nil {
			return nil, r.Throwf(rt.Error, "print: %v", err)
		}
		return rt.Undefined, nil
	})
	r.DefineGlobal("print", printFn)
	console := r.NewObject()
	console.DefineValue("log", printFn, false)
	r.DefineGlobal("console", console)
}
