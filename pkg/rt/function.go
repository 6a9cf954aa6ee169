package rt

// Callable is the behavior behind a function object.
type Callable interface {
	Call(this Value, args []Value) (Value, error)
}

// Constructor is implemented by callables that can be used with new.
// newTarget is the constructor new was originally applied to.
type Constructor interface {
	Construct(args []Value, newTarget *Object) (Value, error)
}

// NativeFunc is a Callable implemented in Go.
type NativeFunc func(this Value, args []Value) (Value, error)

// Call calls f.
func (f NativeFunc) Call(this Value, args []Value) (Value, error) { return f(this, args) }

// NativeConstructor is a Constructor implemented in Go; calling it without
// new also constructs.
type NativeConstructor func(args []Value, newTarget *Object) (Value, error)

// Call calls f without a new target.
func (f NativeConstructor) Call(_ Value, args []Value) (Value, error) { return f(args, nil) }

// Construct calls f with a new target.
func (f NativeConstructor) Construct(args []Value, newTarget *Object) (Value, error) {
	return f(args, newTarget)
}

// Arg returns args[i], or undefined if there are not enough arguments.
func Arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// NewFunction creates a function object. When c is a Constructor and
// withPrototype is set, a fresh prototype object linked back through
// "constructor" is attached.
func (r *Realm) NewFunction(name string, length int, c Callable, withPrototype bool) *Object {
	f := NewObjectWithProto(r.FunctionPrototype, ClassFunction)
	f.fn = c
	f.DefineOwn("length", Property{Value: float64(length), Configurable: true})
	f.DefineOwn("name", Property{Value: name, Configurable: true})
	if withPrototype {
		proto := r.NewObject()
		proto.DefineValue("constructor", f, false)
		f.DefineOwn("prototype", Property{Value: proto, Writable: true})
	}
	return f
}

// NewNative creates a function object backed by a NativeFunc.
func (r *Realm) NewNative(name string, length int, f func(this Value, args []Value) (Value, error)) *Object {
	return r.NewFunction(name, length, NativeFunc(f), false)
}

// IsCallable reports whether v is a function.
func IsCallable(v Value) bool {
	o, ok := v.(*Object)
	return ok && o.IsCallable()
}

// IsConstructor reports whether v can be used with new.
func IsConstructor(v Value) bool {
	o, ok := v.(*Object)
	if !ok || o.fn == nil {
		return false
	}
	if c, ok := o.fn.(interface{ IsConstructor() bool }); ok {
		return c.IsConstructor()
	}
	_, ok = o.fn.(Constructor)
	return ok
}

// Call calls a function value. what describes the callee in the TypeError
// raised when it is not callable.
func (r *Realm) Call(f Value, this Value, args []Value, what string) (Value, error) {
	o, ok := f.(*Object)
	if !ok || o.fn == nil {
		return nil, r.Throwf(TypeError, "%s is not a function", what)
	}
	return o.fn.Call(this, args)
}

// Construct applies new to a value. newTarget defaults to f itself.
func (r *Realm) Construct(f Value, args []Value, newTarget *Object, what string) (Value, error) {
	if !IsConstructor(f) {
		return nil, r.Throwf(TypeError, "%s is not a constructor", what)
	}
	o := f.(*Object)
	if newTarget == nil {
		newTarget = o
	}
	return o.fn.(Constructor).Construct(args, newTarget)
}

// OrdinaryCreateFromConstructor creates the this object for a base
// constructor: an ordinary object whose prototype is newTarget.prototype, or
// Object.prototype when that is not an object.
func (r *Realm) OrdinaryCreateFromConstructor(newTarget *Object) *Object {
	proto := r.ObjectPrototype
	if newTarget != nil {
		if p, ok := newTarget.Get("prototype").(*Object); ok {
			proto = p
		}
	}
	return NewObjectWithProto(proto, ClassObject)
}
