package vm

import (
	"runtime"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/rt"
)

// Closure is the callable behind a function object created from a function
// unit.
type Closure struct {
	m    *Machine
	prog *emit.Program
	env  *envRef
	// this and newTarget are captured by arrow functions.
	this      rt.Value
	newTarget *rt.Object
	// home is the object a method was defined on, for super lookups.
	home *rt.Object
	fn   *rt.Object
}

// envRef holds the reference a closure owns on the scope record it was
// created under. It is a separate object so that the finalizer does not sit
// on the closure, which is part of a cycle with its function object.
type envRef struct {
	arena *rt.ScopeArena
	h     rt.ScopeHandle
}

func newEnvRef(a *rt.ScopeArena, h rt.ScopeHandle) *envRef {
	e := &envRef{arena: a, h: h}
	if !h.IsNone() {
		a.Retain(h)
		runtime.SetFinalizer(e, func(e *envRef) { e.arena.ReleaseLater(e.h) })
	}
	return e
}

// Program returns the function unit of the closure.
func (c *Closure) Program() *emit.Program { return c.prog }

// IsConstructor reports whether the closure can be used with new.
func (c *Closure) IsConstructor() bool { return !c.prog.Has(emit.NoConstruct) }

// Call calls the closure.
func (c *Closure) Call(this rt.Value, args []rt.Value) (rt.Value, error) {
	if c.prog.Has(emit.ClassConstructor) {
		return nil, c.m.Realm.Throwf(rt.TypeError, "Class constructor %s cannot be invoked without 'new'", c.prog.Name)
	}
	return c.m.execute(c.frame(this, args, nil))
}

// Construct applies new to the closure.
func (c *Closure) Construct(args []rt.Value, newTarget *rt.Object) (rt.Value, error) {
	r := c.m.Realm
	if !c.IsConstructor() {
		return nil, r.Throwf(rt.TypeError, "%s is not a constructor", c.prog.Name)
	}
	derived := c.prog.Has(emit.Derived)
	this := rt.Hole
	if !derived {
		this = r.OrdinaryCreateFromConstructor(newTarget)
	}
	f := c.frame(this, args, newTarget)
	v, err := c.m.execute(f)
	if err != nil {
		return nil, err
	}
	if o, ok := v.(*rt.Object); ok {
		return o, nil
	}
	if !derived {
		return this, nil
	}
	if !rt.IsUndefined(v) {
		return nil, r.Throwf(rt.TypeError, "Derived constructors may only return object or undefined")
	}
	if f.this == rt.Hole {
		return nil, r.Throwf(rt.ReferenceError,
			"Must call super constructor in derived class before accessing 'this' or returning from derived constructor")
	}
	return f.this, nil
}

func (c *Closure) frame(this rt.Value, args []rt.Value, newTarget *rt.Object) *frame {
	if c.prog.Has(emit.Arrow) {
		this, newTarget = c.this, c.newTarget
	}
	f := c.m.newFrame(c.prog, c.env.h, this)
	f.fn = c.fn
	f.closure = c
	f.args = args
	f.newTarget = newTarget
	return f
}

func (m *Machine) makeClosure(f *frame, p *emit.Program, home *rt.Object) *rt.Object {
	c := &Closure{m: m, prog: p, env: newEnvRef(m.Realm.Scopes, f.scope), home: home}
	if p.Has(emit.Arrow) {
		c.this, c.newTarget = f.this, f.newTarget
		if f.closure != nil {
			c.home = f.closure.home
		}
	}
	c.fn = m.Realm.NewFunction(p.Name, p.Params, c, c.IsConstructor())
	return c.fn
}

// makeClass creates the constructor and prototype of a class.
func (m *Machine) makeClass(f *frame, p *emit.Program, hasSuper bool, super rt.Value) (*rt.Object, *rt.Object, error) {
	r := m.Realm
	protoParent := r.ObjectPrototype
	ctorParent := r.FunctionPrototype
	if hasSuper {
		switch {
		case super == rt.Null:
			protoParent = nil
		case rt.IsConstructor(super):
			sc := super.(*rt.Object)
			switch pp := sc.Get("prototype").(type) {
			case *rt.Object:
				protoParent = pp
			default:
				if pp != rt.Null {
					return nil, nil, r.Throwf(rt.TypeError,
						"Class extends value does not have valid prototype property %s", rt.ToDisplayString(pp))
				}
				protoParent = nil
			}
			ctorParent = sc
		default:
			return nil, nil, r.Throwf(rt.TypeError,
				"Class extends value %s is not a constructor or null", rt.ToDisplayString(super))
		}
	}
	proto := rt.NewObjectWithProto(protoParent, rt.ClassObject)
	c := &Closure{m: m, prog: p, env: newEnvRef(r.Scopes, f.scope), home: proto}
	ctor := r.NewFunction(p.Name, p.Params, c, false)
	c.fn = ctor
	ctor.SetProto(ctorParent)
	ctor.DefineOwn("prototype", rt.Property{Value: proto})
	proto.DefineValue("constructor", ctor, false)
	return ctor, proto, nil
}

func (m *Machine) superCall(f *frame, args []rt.Value) (rt.Value, error) {
	r := m.Realm
	if f.fn == nil || f.closure == nil || !f.closure.prog.Has(emit.Derived) {
		return nil, r.Throwf(rt.SyntaxError, "'super' keyword unexpected here")
	}
	parent := f.fn.Proto()
	if parent == nil || !rt.IsConstructor(parent) {
		return nil, r.Throwf(rt.TypeError, "Super constructor of %s is not a constructor", f.prog.Name)
	}
	v, err := r.Construct(parent, args, f.newTarget, "super")
	if err != nil {
		return nil, err
	}
	if f.this != rt.Hole {
		return nil, r.Throwf(rt.ReferenceError, "Super constructor may only be called once")
	}
	f.this = v
	return v, nil
}
