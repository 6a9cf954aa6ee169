package rt

import (
	"sort"
	"strconv"
)

// Class identifies the built-in flavor of an object.
type Class uint8

// Object classes.
const (
	ClassObject Class = iota
	ClassArray
	ClassFunction
	ClassError
	ClassRegExp
	ClassArguments
	ClassBoolean
	ClassNumber
	ClassString
)

var classNames = [...]string{
	ClassObject:    "Object",
	ClassArray:     "Array",
	ClassFunction:  "Function",
	ClassError:     "Error",
	ClassRegExp:    "RegExp",
	ClassArguments: "Arguments",
	ClassBoolean:   "Boolean",
	ClassNumber:    "Number",
	ClassString:    "String",
}

func (c Class) String() string { return classNames[c] }

// Property is an own data property.
type Property struct {
	Value        Value
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// Object is a script object. Arrays and arguments objects keep their indexed
// elements in a dense slice; a nil element is a hole.
type Object struct {
	proto      *Object
	class      Class
	props      map[string]*Property
	keys       []string
	elems      []Value
	extensible bool

	fn        Callable
	primitive Value
	// Internal holds host data, for instance the compiled pattern of a
	// RegExp object.
	Internal any
}

// NewObjectWithProto creates an ordinary object.
func NewObjectWithProto(proto *Object, class Class) *Object {
	return &Object{proto: proto, class: class, props: make(map[string]*Property), extensible: true}
}

// Class returns the class of the object.
func (o *Object) Class() Class { return o.class }

// Proto returns the prototype, which may be nil.
func (o *Object) Proto() *Object { return o.proto }

// SetProto changes the prototype.
func (o *Object) SetProto(p *Object) { o.proto = p }

// IsCallable reports whether the object is a function.
func (o *Object) IsCallable() bool { return o.fn != nil }

// Callable returns the behavior behind a function object.
func (o *Object) Callable() Callable { return o.fn }

// PrimitiveValue returns the wrapped value of a Boolean, Number or String
// object.
func (o *Object) PrimitiveValue() Value { return o.primitive }

// Elements returns the dense elements of an array-like object. The slice is
// shared with the object.
func (o *Object) Elements() []Value { return o.elems }

func (o *Object) isArrayLike() bool {
	return o.class == ClassArray || o.class == ClassArguments
}

// arrayIndex parses a canonical array index.
func arrayIndex(key string) (int, bool) {
	if key == "" || len(key) > 10 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return int(n), true
}

// GetOwn returns an own property.
func (o *Object) GetOwn(key string) (*Property, bool) {
	if o.isArrayLike() {
		if key == "length" {
			return &Property{Value: float64(len(o.elems)), Writable: o.class == ClassArray}, true
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(o.elems) && o.elems[i] != nil {
				return &Property{Value: o.elems[i], Writable: true, Enumerable: true, Configurable: true}, true
			}
			return nil, false
		}
	}
	if o.class == ClassString {
		s := o.primitive.(string)
		if key == "length" {
			return &Property{Value: float64(len(utf16Units(s)))}, true
		}
		if i, ok := arrayIndex(key); ok {
			if c, ok := charAt(s, i); ok {
				return &Property{Value: c, Enumerable: true}, true
			}
		}
	}
	p, ok := o.props[key]
	return p, ok
}

// HasOwn reports whether the object has an own property.
func (o *Object) HasOwn(key string) bool {
	_, ok := o.GetOwn(key)
	return ok
}

// Has reports whether the object or its prototype chain has the property.
func (o *Object) Has(key string) bool {
	for p := o; p != nil; p = p.proto {
		if p.HasOwn(key) {
			return true
		}
	}
	return false
}

// Get looks a property up along the prototype chain. Missing properties are
// undefined.
func (o *Object) Get(key string) Value {
	for p := o; p != nil; p = p.proto {
		if prop, ok := p.GetOwn(key); ok {
			return prop.Value
		}
	}
	return Undefined
}

// Set assigns a property. It reports false when the assignment is refused
// because the property is read-only or the object is not extensible.
func (o *Object) Set(key string, v Value) bool {
	v = Normalize(v)
	if o.isArrayLike() {
		if i, ok := arrayIndex(key); ok {
			return o.setElement(i, v)
		}
		if key == "length" && o.class == ClassArray {
			return o.setLength(v)
		}
	}
	if p, ok := o.props[key]; ok {
		if !p.Writable {
			return false
		}
		p.Value = v
		return true
	}
	for p := o.proto; p != nil; p = p.proto {
		if prop, ok := p.props[key]; ok {
			if !prop.Writable {
				return false
			}
			break
		}
	}
	if !o.extensible {
		return false
	}
	o.props[key] = &Property{Value: v, Writable: true, Enumerable: true, Configurable: true}
	o.keys = append(o.keys, key)
	return true
}

func (o *Object) setElement(i int, v Value) bool {
	if i < len(o.elems) {
		o.elems[i] = v
		return true
	}
	if !o.extensible {
		return false
	}
	for len(o.elems) < i {
		o.elems = append(o.elems, nil)
	}
	o.elems = append(o.elems, v)
	return true
}

func (o *Object) setLength(v Value) bool {
	f, ok := v.(float64)
	if !ok || f < 0 || f != float64(int(f)) {
		return false
	}
	n := int(f)
	if n <= len(o.elems) {
		o.elems = o.elems[:n]
	} else {
		for len(o.elems) < n {
			o.elems = append(o.elems, nil)
		}
	}
	return true
}

// DefineOwn defines or redefines an own data property.
func (o *Object) DefineOwn(key string, p Property) {
	p.Value = Normalize(p.Value)
	if o.isArrayLike() {
		if i, ok := arrayIndex(key); ok {
			o.setElement(i, p.Value)
			return
		}
	}
	if old, ok := o.props[key]; ok {
		*old = p
		return
	}
	o.props[key] = &p
	o.keys = append(o.keys, key)
}

// DefineValue defines a writable, configurable property with the given
// enumerability.
func (o *Object) DefineValue(key string, v Value, enumerable bool) {
	o.DefineOwn(key, Property{Value: v, Writable: true, Enumerable: enumerable, Configurable: true})
}

// Delete removes an own property. It reports false if the property is not
// configurable.
func (o *Object) Delete(key string) bool {
	if o.isArrayLike() {
		if i, ok := arrayIndex(key); ok {
			if i < len(o.elems) {
				o.elems[i] = nil
			}
			return true
		}
		if key == "length" {
			return false
		}
	}
	p, ok := o.props[key]
	if !ok {
		return true
	}
	if !p.Configurable {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// PreventExtensions makes the object non-extensible.
func (o *Object) PreventExtensions() { o.extensible = false }

// Freeze makes all own properties read-only and the object non-extensible.
func (o *Object) Freeze() {
	o.extensible = false
	for _, p := range o.props {
		p.Writable = false
		p.Configurable = false
	}
}

// OwnKeys returns own property keys in the ordinary order: array indices in
// ascending order, then other integer keys, then string keys in insertion
// order.
func (o *Object) OwnKeys() []string {
	var keys []string
	for i, e := range o.elems {
		if e != nil {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	if o.class == ClassString {
		for i := range utf16Units(o.primitive.(string)) {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	var ints []int
	var strs []string
	for _, k := range o.keys {
		if i, ok := arrayIndex(k); ok {
			ints = append(ints, i)
		} else {
			strs = append(strs, k)
		}
	}
	sort.Ints(ints)
	for _, i := range ints {
		keys = append(keys, strconv.Itoa(i))
	}
	return append(keys, strs...)
}

// IsEnumerable reports whether an own property is enumerable.
func (o *Object) IsEnumerable(key string) bool {
	p, ok := o.GetOwn(key)
	return ok && p.Enumerable
}

// Push appends an element to an array or arguments object; a nil value
// appends a hole.
func (o *Object) Push(v Value) { o.elems = append(o.elems, Normalize(v)) }
