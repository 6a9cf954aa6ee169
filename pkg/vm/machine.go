// Package vm executes emitted programs.
//
// Protected regions are executed structurally: a Try instruction runs the
// protected body as a nested loop and, when the body ends with an exception
// or a long jump, restores the stack and the scope chain to their state at
// the Try instruction and runs the handler. Long jumps are signals carrying
// a route id; the code after a region decides, by matching the route, where
// control goes next.
package vm

import (
	"fmt"
	"runtime/debug"

	"src.jsil.dev/pkg/diag"
	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/logutil"
	"src.jsil.dev/pkg/rt"
)

var logger = logutil.GetLogger("[vm] ")

// MaxCallDepth bounds the nesting of activations.
const MaxCallDepth = 2048

// EvalContext describes the caller of a direct eval.
type EvalContext struct {
	Scope  rt.ScopeHandle
	This   rt.Value
	Strict bool
	// Arguments are the arguments of the eval call.
	Arguments []rt.Value
}

// EvalFunc compiles and runs the code of a direct eval.
type EvalFunc func(ctx EvalContext) (rt.Value, error)

// Machine runs programs against a realm. A Machine is used by one goroutine
// at a time.
type Machine struct {
	Realm *rt.Realm
	// Eval handles direct eval calls. When nil, direct eval calls behave
	// like ordinary calls of the eval function.
	Eval EvalFunc
	// Debugger receives the position of debugger statements.
	Debugger func(*diag.Context)

	sites map[*emit.Program][]rt.Value
	depth int
}

// New creates a Machine.
func New(r *rt.Realm) *Machine {
	return &Machine{Realm: r, sites: make(map[*emit.Program][]rt.Value)}
}

// InternalError is an implementation failure: a malformed program, an
// unmatched long jump or a panic during execution. Scripts cannot catch it.
type InternalError struct {
	Message string
	Stack   string
}

func (e *InternalError) Error() string { return "internal error: " + e.Message }

// LongJump is the signal of a long jump; its value is the route id.
type LongJump int32

func (j LongJump) Error() string { return fmt.Sprintf("long jump to route %d", int32(j)) }

// returned is the signal of a Ret instruction.
type returned struct{}

func (returned) Error() string { return "return" }

func (m *Machine) recoverInternal(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InternalError); ok {
		*errp = ie
		return
	}
	*errp = &InternalError{Message: fmt.Sprint(r), Stack: string(debug.Stack())}
	logger.Errorf("recovered panic: %v", r)
}

// RunUnit runs a global or eval unit with the given scope chain and this
// value.
func (m *Machine) RunUnit(p *emit.Program, scope rt.ScopeHandle, this rt.Value) (v rt.Value, err error) {
	if p.Kind == emit.FunctionUnit {
		return nil, &InternalError{Message: "RunUnit called on a function unit"}
	}
	defer m.recoverInternal(&err)
	f := m.newFrame(p, scope, this)
	return m.execute(f)
}

// Invoke calls a function unit directly, without a function object of its
// own. fn may be nil.
func (m *Machine) Invoke(p *emit.Program, scope rt.ScopeHandle, this rt.Value, fn *rt.Object, args []rt.Value) (v rt.Value, err error) {
	defer m.recoverInternal(&err)
	f := m.newFrame(p, scope, this)
	f.fn = fn
	f.args = args
	return m.execute(f)
}

// execute runs a prepared frame to completion, releasing its scope chain.
func (m *Machine) execute(f *frame) (rt.Value, error) {
	if m.depth >= MaxCallDepth {
		m.Realm.Scopes.Release(f.scope)
		return nil, m.Realm.Throwf(rt.RangeError, "Maximum call stack size exceeded")
	}
	m.depth++
	defer func() {
		m.depth--
		m.Realm.Scopes.Release(f.scope)
	}()
	err := m.run(f, 0, len(f.code))
	switch err := err.(type) {
	case nil:
		return nil, &InternalError{Message: fmt.Sprintf("%s: fell off the end of the code", f.prog.Name)}
	case returned:
		return f.result, nil
	case *rt.Exception:
		pos := f.pos()
		if f.lastExc == err {
			pos = f.lastPos
		}
		err.AddFrame(f.prog.SourceContext(pos))
		return nil, err
	case LongJump:
		return nil, &InternalError{Message: fmt.Sprintf("%s: unmatched %v", f.prog.Name, err)}
	default:
		return nil, err
	}
}

// siteCache returns the per-site cache of a program.
func (m *Machine) siteCache(p *emit.Program) []rt.Value {
	c, ok := m.sites[p]
	if !ok {
		c = make([]rt.Value, p.CacheSlots)
		m.sites[p] = c
	}
	return c
}
