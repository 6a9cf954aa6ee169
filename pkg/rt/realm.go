package rt

import (
	"math"
	"strconv"
	"strings"
)

// Realm holds the intrinsic objects, the global object and the arena of
// runtime scopes shared by all code running against it.
type Realm struct {
	Global *Object

	ObjectPrototype    *Object
	FunctionPrototype  *Object
	ArrayPrototype     *Object
	StringPrototype    *Object
	NumberPrototype    *Object
	BooleanPrototype   *Object
	RegExpPrototype    *Object
	ArgumentsPrototype *Object

	errorPrototypes [len(errorKindNames)]*Object

	// Eval is the intrinsic eval function. A call through an identifier
	// named eval is a direct eval only when the callee is this object.
	Eval *Object

	Scopes *ScopeArena
	// GlobalScope is the object record of the global object;
	// GlobalLexical is the Named record holding top-level let, const and
	// class declarations, whose parent is GlobalScope.
	GlobalScope   ScopeHandle
	GlobalLexical ScopeHandle
}

// NewRealm creates a realm with the minimal set of built-ins emitted code
// relies on.
func NewRealm() *Realm {
	r := &Realm{}
	r.ObjectPrototype = NewObjectWithProto(nil, ClassObject)
	r.FunctionPrototype = NewObjectWithProto(r.ObjectPrototype, ClassFunction)
	r.FunctionPrototype.fn = NativeFunc(func(Value, []Value) (Value, error) { return Undefined, nil })
	r.ArrayPrototype = NewObjectWithProto(r.ObjectPrototype, ClassArray)
	r.StringPrototype = r.wrap(ClassString, r.ObjectPrototype, "")
	r.NumberPrototype = r.wrap(ClassNumber, r.ObjectPrototype, 0.0)
	r.BooleanPrototype = r.wrap(ClassBoolean, r.ObjectPrototype, false)
	r.RegExpPrototype = NewObjectWithProto(r.ObjectPrototype, ClassObject)
	r.ArgumentsPrototype = r.ObjectPrototype

	r.Global = NewObjectWithProto(r.ObjectPrototype, ClassObject)
	r.Scopes = NewScopeArena()
	r.GlobalScope = r.Scopes.NewObjectBacked(NoScope, r.Global, false, true)
	r.GlobalLexical = r.Scopes.NewNamed(r.GlobalScope, nil, nil, Undefined, false)

	r.initObject()
	r.initFunction()
	r.initArray()
	r.initString()
	r.initNumberAndBoolean()
	r.initErrors()
	r.initRegExp()
	r.initMath()
	r.initGlobals()
	return r
}

// NewObject creates an ordinary object.
func (r *Realm) NewObject() *Object {
	return NewObjectWithProto(r.ObjectPrototype, ClassObject)
}

// NewArray creates an array holding vs. The slice is owned by the array
// afterwards.
func (r *Realm) NewArray(vs []Value) *Object {
	o := NewObjectWithProto(r.ArrayPrototype, ClassArray)
	for i, v := range vs {
		vs[i] = Normalize(v)
	}
	o.elems = vs
	return o
}

// NewArguments creates an unmapped arguments object.
func (r *Realm) NewArguments(args []Value) *Object {
	o := NewObjectWithProto(r.ArgumentsPrototype, ClassArguments)
	o.elems = append([]Value(nil), args...)
	for i, v := range o.elems {
		o.elems[i] = Normalize(v)
	}
	return o
}

// DefineGlobal defines a non-enumerable global property.
func (r *Realm) DefineGlobal(name string, v Value) {
	r.Global.DefineValue(name, v, false)
}

func (r *Realm) method(o *Object, name string, length int, f func(this Value, args []Value) (Value, error)) {
	o.DefineValue(name, r.NewNative(name, length, f), false)
}

func (r *Realm) constructor(name string, length int, proto *Object, f NativeConstructor) *Object {
	c := r.NewFunction(name, length, f, false)
	c.DefineOwn("prototype", Property{Value: proto})
	proto.DefineValue("constructor", c, false)
	r.DefineGlobal(name, c)
	return c
}

func (r *Realm) initObject() {
	ctor := r.constructor("Object", 1, r.ObjectPrototype, func(args []Value, _ *Object) (Value, error) {
		v := Arg(args, 0)
		if IsNullish(v) {
			return r.NewObject(), nil
		}
		return r.ToObject(v)
	})
	r.method(ctor, "keys", 1, func(_ Value, args []Value) (Value, error) {
		o, err := r.ToObject(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		var keys []Value
		for _, k := range o.OwnKeys() {
			if o.IsEnumerable(k) {
				keys = append(keys, k)
			}
		}
		return r.NewArray(keys), nil
	})
	r.method(ctor, "getPrototypeOf", 1, func(_ Value, args []Value) (Value, error) {
		o, err := r.ToObject(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		if o.proto == nil {
			return Null, nil
		}
		return o.proto, nil
	})
	r.method(ctor, "create", 2, func(_ Value, args []Value) (Value, error) {
		switch p := Arg(args, 0).(type) {
		case *Object:
			return NewObjectWithProto(p, ClassObject), nil
		case nullType:
			return NewObjectWithProto(nil, ClassObject), nil
		}
		return nil, r.Throwf(TypeError, "Object prototype may only be an Object or null")
	})
	r.method(ctor, "freeze", 1, func(_ Value, args []Value) (Value, error) {
		if o, ok := Arg(args, 0).(*Object); ok {
			o.Freeze()
		}
		return Arg(args, 0), nil
	})
	r.method(ctor, "defineProperty", 3, func(_ Value, args []Value) (Value, error) {
		o, ok := Arg(args, 0).(*Object)
		if !ok {
			return nil, r.Throwf(TypeError, "Object.defineProperty called on non-object")
		}
		key, err := r.ToPropertyKey(Arg(args, 1))
		if err != nil {
			return nil, err
		}
		desc, ok := Arg(args, 2).(*Object)
		if !ok {
			return nil, r.Throwf(TypeError, "Property description must be an object")
		}
		if p, ok := o.GetOwn(key); ok && !p.Configurable {
			return nil, r.Throwf(TypeError, "Cannot redefine property: %s", key)
		}
		o.DefineOwn(key, Property{
			Value:        desc.Get("value"),
			Writable:     ToBoolean(desc.Get("writable")),
			Enumerable:   ToBoolean(desc.Get("enumerable")),
			Configurable: ToBoolean(desc.Get("configurable")),
		})
		return o, nil
	})
	proto := r.ObjectPrototype
	r.method(proto, "hasOwnProperty", 1, func(this Value, args []Value) (Value, error) {
		o, err := r.ToObject(this)
		if err != nil {
			return nil, err
		}
		key, err := r.ToPropertyKey(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		return o.HasOwn(key), nil
	})
	r.method(proto, "toString", 0, func(this Value, _ []Value) (Value, error) {
		switch this.(type) {
		case undefinedType:
			return "[object Undefined]", nil
		case nullType:
			return "[object Null]", nil
		}
		o, _ := r.ToObject(this)
		return "[object " + o.class.String() + "]", nil
	})
	r.method(proto, "valueOf", 0, func(this Value, _ []Value) (Value, error) {
		return r.ToObject(this)
	})
}

func (r *Realm) initFunction() {
	proto := r.FunctionPrototype
	proto.DefineOwn("length", Property{Value: 0.0, Configurable: true})
	proto.DefineOwn("name", Property{Value: "", Configurable: true})
	r.constructor("Function", 1, proto, func([]Value, *Object) (Value, error) {
		return nil, r.Throwf(EvalError, "Function constructor is not supported")
	})
	r.method(proto, "call", 1, func(this Value, args []Value) (Value, error) {
		var rest []Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return r.Call(this, Arg(args, 0), rest, "Function.prototype.call receiver")
	})
	r.method(proto, "apply", 2, func(this Value, args []Value) (Value, error) {
		list, err := r.listFromArrayLike(Arg(args, 1))
		if err != nil {
			return nil, err
		}
		return r.Call(this, Arg(args, 0), list, "Function.prototype.apply receiver")
	})
	r.method(proto, "bind", 1, func(this Value, args []Value) (Value, error) {
		if !IsCallable(this) {
			return nil, r.Throwf(TypeError, "Bind must be called on a function")
		}
		target := this
		boundThis := Arg(args, 0)
		var bound []Value
		if len(args) > 1 {
			bound = append(bound, args[1:]...)
		}
		name, _ := target.(*Object).Get("name").(string)
		return r.NewNative("bound "+name, 0, func(_ Value, args []Value) (Value, error) {
			return r.Call(target, boundThis, append(append([]Value(nil), bound...), args...), name)
		}), nil
	})
	r.method(proto, "toString", 0, func(this Value, _ []Value) (Value, error) {
		if !IsCallable(this) {
			return nil, r.Throwf(TypeError, "Function.prototype.toString requires that 'this' be a Function")
		}
		return ToDisplayString(this), nil
	})
}

func (r *Realm) listFromArrayLike(v Value) ([]Value, error) {
	if IsNullish(v) {
		return nil, nil
	}
	o, ok := v.(*Object)
	if !ok {
		return nil, r.Throwf(TypeError, "CreateListFromArrayLike called on non-object")
	}
	if o.isArrayLike() {
		list := make([]Value, len(o.elems))
		for i, e := range o.elems {
			if e == nil {
				e = Undefined
			}
			list[i] = e
		}
		return list, nil
	}
	n, err := r.ToNumber(o.Get("length"))
	if err != nil {
		return nil, err
	}
	list := make([]Value, int(ToUint32(n)))
	for i := range list {
		list[i] = o.Get(strconv.Itoa(i))
	}
	return list, nil
}

func (r *Realm) thisArray(this Value, method string) (*Object, error) {
	o, ok := this.(*Object)
	if !ok || o.class != ClassArray {
		return nil, r.Throwf(TypeError, "Array.prototype.%s called on non-array", method)
	}
	return o, nil
}

func (r *Realm) initArray() {
	proto := r.ArrayPrototype
	ctor := r.constructor("Array", 1, proto, func(args []Value, _ *Object) (Value, error) {
		if len(args) == 1 {
			if n, ok := Normalize(args[0]).(float64); ok {
				if n < 0 || n != math.Trunc(n) || n >= 1<<32 {
					return nil, r.Throwf(RangeError, "Invalid array length")
				}
				return r.NewArray(make([]Value, int(n))), nil
			}
		}
		return r.NewArray(append([]Value(nil), args...)), nil
	})
	r.method(ctor, "isArray", 1, func(_ Value, args []Value) (Value, error) {
		o, ok := Arg(args, 0).(*Object)
		return ok && o.class == ClassArray, nil
	})
	r.method(proto, "push", 1, func(this Value, args []Value) (Value, error) {
		o, err := r.thisArray(this, "push")
		if err != nil {
			return nil, err
		}
		for _, a := range args {
			o.elems = append(o.elems, Normalize(a))
		}
		return float64(len(o.elems)), nil
	})
	r.method(proto, "pop", 0, func(this Value, _ []Value) (Value, error) {
		o, err := r.thisArray(this, "pop")
		if err != nil {
			return nil, err
		}
		if len(o.elems) == 0 {
			return Undefined, nil
		}
		v := o.elems[len(o.elems)-1]
		o.elems = o.elems[:len(o.elems)-1]
		if v == nil {
			v = Undefined
		}
		return v, nil
	})
	r.method(proto, "join", 1, func(this Value, args []Value) (Value, error) {
		o, err := r.thisArray(this, "join")
		if err != nil {
			return nil, err
		}
		sep := ","
		if s := Arg(args, 0); !IsUndefined(s) {
			if sep, err = r.ToString(s); err != nil {
				return nil, err
			}
		}
		return r.join(o, sep)
	})
	r.method(proto, "toString", 0, func(this Value, _ []Value) (Value, error) {
		o, err := r.thisArray(this, "toString")
		if err != nil {
			return nil, err
		}
		return r.join(o, ",")
	})
	r.method(proto, "indexOf", 1, func(this Value, args []Value) (Value, error) {
		o, err := r.thisArray(this, "indexOf")
		if err != nil {
			return nil, err
		}
		for i, e := range o.elems {
			if e != nil && StrictEquals(e, Arg(args, 0)) {
				return float64(i), nil
			}
		}
		return -1.0, nil
	})
	r.method(proto, "slice", 2, func(this Value, args []Value) (Value, error) {
		o, err := r.thisArray(this, "slice")
		if err != nil {
			return nil, err
		}
		from, to, err := r.sliceBounds(len(o.elems), args)
		if err != nil {
			return nil, err
		}
		return r.NewArray(append([]Value(nil), o.elems[from:to]...)), nil
	})
	r.method(proto, "forEach", 1, func(this Value, args []Value) (Value, error) {
		o, err := r.thisArray(this, "forEach")
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(o.elems); i++ {
			if e := o.elems[i]; e != nil {
				if _, err := r.Call(Arg(args, 0), Arg(args, 1), []Value{e, float64(i), o}, "callback"); err != nil {
					return nil, err
				}
			}
		}
		return Undefined, nil
	})
	r.method(proto, "map", 1, func(this Value, args []Value) (Value, error) {
		o, err := r.thisArray(this, "map")
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(o.elems))
		for i := 0; i < len(o.elems) && i < len(out); i++ {
			if e := o.elems[i]; e != nil {
				v, err := r.Call(Arg(args, 0), Arg(args, 1), []Value{e, float64(i), o}, "callback")
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
		}
		return r.NewArray(out), nil
	})
}

func (r *Realm) join(o *Object, sep string) (Value, error) {
	parts := make([]string, len(o.elems))
	for i, e := range o.elems {
		if e == nil || IsNullish(e) {
			continue
		}
		s, err := r.ToString(e)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func (r *Realm) sliceBounds(n int, args []Value) (int, int, error) {
	bound := func(v Value, def int) (int, error) {
		if IsUndefined(v) {
			return def, nil
		}
		f, err := r.ToNumber(v)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(f) {
			f = 0
		}
		f = math.Trunc(f)
		if f < 0 {
			f = math.Max(float64(n)+f, 0)
		}
		return int(math.Min(f, float64(n))), nil
	}
	from, err := bound(Arg(args, 0), 0)
	if err != nil {
		return 0, 0, err
	}
	to, err := bound(Arg(args, 1), n)
	if err != nil {
		return 0, 0, err
	}
	if to < from {
		to = from
	}
	return from, to, nil
}

func (r *Realm) thisString(this Value, method string) (string, error) {
	if IsNullish(this) {
		return "", r.Throwf(TypeError, "String.prototype.%s called on null or undefined", method)
	}
	return r.ToString(this)
}

func (r *Realm) initString() {
	proto := r.StringPrototype
	r.constructor("String", 1, proto, func(args []Value, newTarget *Object) (Value, error) {
		s := ""
		if len(args) > 0 {
			var err error
			if s, err = r.ToString(args[0]); err != nil {
				return nil, err
			}
		}
		if newTarget != nil {
			return r.wrap(ClassString, proto, s), nil
		}
		return s, nil
	})
	r.method(proto, "toString", 0, func(this Value, _ []Value) (Value, error) {
		if o, ok := this.(*Object); ok && o.class == ClassString {
			return o.primitive, nil
		}
		if s, ok := this.(string); ok {
			return s, nil
		}
		return nil, r.Throwf(TypeError, "String.prototype.toString requires that 'this' be a String")
	})
	r.method(proto, "charAt", 1, func(this Value, args []Value) (Value, error) {
		s, err := r.thisString(this, "charAt")
		if err != nil {
			return nil, err
		}
		i, err := r.ToNumber(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		c, _ := charAt(s, int(i))
		return c, nil
	})
	r.method(proto, "indexOf", 1, func(this Value, args []Value) (Value, error) {
		s, err := r.thisString(this, "indexOf")
		if err != nil {
			return nil, err
		}
		sub, err := r.ToString(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		i := strings.Index(s, sub)
		if i < 0 {
			return -1.0, nil
		}
		return float64(StringLength(s[:i])), nil
	})
	r.method(proto, "slice", 2, func(this Value, args []Value) (Value, error) {
		s, err := r.thisString(this, "slice")
		if err != nil {
			return nil, err
		}
		units := utf16Units(s)
		from, to, err := r.sliceBounds(len(units), args)
		if err != nil {
			return nil, err
		}
		return decodeUTF16(units[from:to]), nil
	})
	r.method(proto, "toUpperCase", 0, func(this Value, _ []Value) (Value, error) {
		s, err := r.thisString(this, "toUpperCase")
		return strings.ToUpper(s), err
	})
	r.method(proto, "toLowerCase", 0, func(this Value, _ []Value) (Value, error) {
		s, err := r.thisString(this, "toLowerCase")
		return strings.ToLower(s), err
	})
	r.method(proto, "split", 1, func(this Value, args []Value) (Value, error) {
		s, err := r.thisString(this, "split")
		if err != nil {
			return nil, err
		}
		if IsUndefined(Arg(args, 0)) {
			return r.NewArray([]Value{s}), nil
		}
		sep, err := r.ToString(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		var parts []Value
		for _, p := range strings.Split(s, sep) {
			parts = append(parts, p)
		}
		return r.NewArray(parts), nil
	})
}

func (r *Realm) initNumberAndBoolean() {
	r.constructor("Number", 1, r.NumberPrototype, func(args []Value, newTarget *Object) (Value, error) {
		n := 0.0
		if len(args) > 0 {
			var err error
			if n, err = r.ToNumber(args[0]); err != nil {
				return nil, err
			}
		}
		if newTarget != nil {
			return r.wrap(ClassNumber, r.NumberPrototype, n), nil
		}
		return n, nil
	})
	r.method(r.NumberPrototype, "toString", 1, func(this Value, args []Value) (Value, error) {
		n, ok := Normalize(this).(float64)
		if o, isObj := this.(*Object); isObj && o.class == ClassNumber {
			n, ok = o.primitive.(float64), true
		}
		if !ok {
			return nil, r.Throwf(TypeError, "Number.prototype.toString requires that 'this' be a Number")
		}
		radix := 10.0
		if !IsUndefined(Arg(args, 0)) {
			var err error
			if radix, err = r.ToNumber(Arg(args, 0)); err != nil {
				return nil, err
			}
		}
		if radix < 2 || radix > 36 {
			return nil, r.Throwf(RangeError, "toString() radix must be between 2 and 36")
		}
		if radix == 10 || n != math.Trunc(n) || math.IsInf(n, 0) {
			return NumberToString(n), nil
		}
		return strconv.FormatInt(int64(n), int(radix)), nil
	})
	r.constructor("Boolean", 1, r.BooleanPrototype, func(args []Value, newTarget *Object) (Value, error) {
		b := ToBoolean(Arg(args, 0))
		if newTarget != nil {
			return r.wrap(ClassBoolean, r.BooleanPrototype, b), nil
		}
		return b, nil
	})
}

func (r *Realm) initErrors() {
	for _, kind := range ErrorKinds {
		kind := kind
		proto := NewObjectWithProto(r.ObjectPrototype, ClassObject)
		if kind != Error {
			proto.proto = r.errorPrototypes[Error]
		}
		r.errorPrototypes[kind] = proto
		proto.DefineValue("name", kind.String(), false)
		proto.DefineValue("message", "", false)
		ctor := r.constructor(kind.String(), 1, proto, func(args []Value, newTarget *Object) (Value, error) {
			o := r.NewError(kind, "")
			if newTarget != nil {
				if p, ok := newTarget.Get("prototype").(*Object); ok {
					o.proto = p
				}
			}
			if msg := Arg(args, 0); !IsUndefined(msg) {
				s, err := r.ToString(msg)
				if err != nil {
					return nil, err
				}
				o.DefineValue("message", s, false)
			}
			return o, nil
		})
		if kind != Error {
			ctor.proto = r.Global.Get("Error").(*Object)
		}
	}
	r.method(r.errorPrototypes[Error], "toString", 0, func(this Value, _ []Value) (Value, error) {
		o, ok := this.(*Object)
		if !ok {
			return nil, r.Throwf(TypeError, "Error.prototype.toString called on non-object")
		}
		name, err := r.ToString(o.Get("name"))
		if err != nil {
			return nil, err
		}
		msg, err := r.ToString(o.Get("message"))
		if err != nil {
			return nil, err
		}
		if msg == "" {
			return name, nil
		}
		if name == "" {
			return msg, nil
		}
		return name + ": " + msg, nil
	})
}

func (r *Realm) initRegExp() {
	proto := r.RegExpPrototype
	r.constructor("RegExp", 2, proto, func(args []Value, _ *Object) (Value, error) {
		src := "(?:)"
		if v := Arg(args, 0); !IsUndefined(v) {
			if o, ok := v.(*Object); ok && o.class == ClassRegExp {
				src = o.Internal.(*RegExpPattern).Source
			} else {
				var err error
				if src, err = r.ToString(v); err != nil {
					return nil, err
				}
			}
		}
		flags := ""
		if v := Arg(args, 1); !IsUndefined(v) {
			var err error
			if flags, err = r.ToString(v); err != nil {
				return nil, err
			}
		}
		p, err := CompileRegExp(src, flags)
		if err != nil {
			return nil, r.Throwf(SyntaxError, "%s", err.Error())
		}
		return r.NewRegExp(p), nil
	})
	r.method(proto, "exec", 1, func(this Value, args []Value) (Value, error) {
		s, err := r.ToString(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		return r.regExpExec(this, s)
	})
	r.method(proto, "test", 1, func(this Value, args []Value) (Value, error) {
		s, err := r.ToString(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		res, err := r.regExpExec(this, s)
		if err != nil {
			return nil, err
		}
		return res != Null, nil
	})
	r.method(proto, "toString", 0, func(this Value, _ []Value) (Value, error) {
		o, ok := this.(*Object)
		if !ok || o.class != ClassRegExp {
			return nil, r.Throwf(TypeError, "RegExp.prototype.toString called on incompatible receiver")
		}
		p := o.Internal.(*RegExpPattern)
		return "/" + p.Source + "/" + p.Flags, nil
	})
}

func (r *Realm) initMath() {
	m := r.NewObject()
	r.DefineGlobal("Math", m)
	m.DefineOwn("PI", Property{Value: math.Pi})
	m.DefineOwn("E", Property{Value: math.E})
	unary := func(name string, f func(float64) float64) {
		r.method(m, name, 1, func(_ Value, args []Value) (Value, error) {
			x, err := r.ToNumber(Arg(args, 0))
			if err != nil {
				return nil, err
			}
			return f(x), nil
		})
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("sqrt", math.Sqrt)
	unary("trunc", math.Trunc)
	unary("round", func(x float64) float64 { return math.Floor(x + 0.5) })
	fold := func(name string, init float64, pick func(a, b float64) float64) {
		r.method(m, name, 2, func(_ Value, args []Value) (Value, error) {
			acc := init
			for _, a := range args {
				x, err := r.ToNumber(a)
				if err != nil {
					return nil, err
				}
				if math.IsNaN(x) {
					acc = x
				} else if !math.IsNaN(acc) {
					acc = pick(acc, x)
				}
			}
			return acc, nil
		})
	}
	fold("max", math.Inf(-1), math.Max)
	fold("min", math.Inf(1), math.Min)
	r.method(m, "pow", 2, func(_ Value, args []Value) (Value, error) {
		x, err := r.ToNumber(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		y, err := r.ToNumber(Arg(args, 1))
		if err != nil {
			return nil, err
		}
		return Arith(OpExp, x, y), nil
	})
}

func (r *Realm) initGlobals() {
	r.Global.DefineOwn("undefined", Property{Value: Undefined})
	r.Global.DefineOwn("NaN", Property{Value: math.NaN()})
	r.Global.DefineOwn("Infinity", Property{Value: math.Inf(1)})
	r.DefineGlobal("globalThis", r.Global)
	r.method(r.Global, "isNaN", 1, func(_ Value, args []Value) (Value, error) {
		x, err := r.ToNumber(Arg(args, 0))
		return math.IsNaN(x), err
	})
	r.method(r.Global, "isFinite", 1, func(_ Value, args []Value) (Value, error) {
		x, err := r.ToNumber(Arg(args, 0))
		return !math.IsNaN(x) && !math.IsInf(x, 0), err
	})
	r.method(r.Global, "parseInt", 2, func(_ Value, args []Value) (Value, error) {
		s, err := r.ToString(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		radix := 0.0
		if !IsUndefined(Arg(args, 1)) {
			if radix, err = r.ToNumber(Arg(args, 1)); err != nil {
				return nil, err
			}
		}
		return parseInt(s, int(radix)), nil
	})
	r.method(r.Global, "parseFloat", 1, func(_ Value, args []Value) (Value, error) {
		s, err := r.ToString(Arg(args, 0))
		if err != nil {
			return nil, err
		}
		return parseFloatPrefix(strings.TrimSpace(s)), nil
	})
}

func parseInt(s string, radix int) float64 {
	s = strings.TrimSpace(s)
	sign := 1.0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	if (radix == 0 || radix == 16) && len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s, radix = s[2:], 16
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}
	n, digits := 0.0, false
	for _, c := range strings.ToLower(s) {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'z':
			d = int(c-'a') + 10
		default:
			d = radix
		}
		if d >= radix {
			break
		}
		n, digits = n*float64(radix)+float64(d), true
	}
	if !digits {
		return math.NaN()
	}
	return sign * n
}

func parseFloatPrefix(s string) float64 {
	for _, inf := range []string{"Infinity", "+Infinity", "-Infinity"} {
		if strings.HasPrefix(s, inf) {
			return StringToNumber(inf)
		}
	}
	end := 0
	seenDot, seenExp := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			end = i + 1
		case (c == '+' || c == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && !seenExp && end > 0:
			seenExp = true
		default:
			i = len(s)
		}
	}
	if end == 0 {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
