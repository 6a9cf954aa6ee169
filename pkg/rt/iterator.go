package rt

import "unicode/utf8"

// Iterator produces the values of a for-of or for-in loop, or of a spread.
// Iterators are held in hidden locals of an activation and never reach
// script code.
type Iterator interface {
	// Next returns the next value, or false when the iterator is exhausted.
	Next() (Value, bool, error)
}

// GetIterator implements the iteration protocol for arrays, arguments
// objects, strings and objects with a callable next method.
func (r *Realm) GetIterator(v Value) (Iterator, error) {
	switch x := v.(type) {
	case string:
		return &stringIterator{s: x}, nil
	case *Object:
		if x.isArrayLike() {
			return &arrayIterator{o: x}, nil
		}
		if x.class == ClassString {
			return &stringIterator{s: x.primitive.(string)}, nil
		}
		if next := x.Get("next"); IsCallable(next) {
			return &protocolIterator{r: r, o: x, next: next}, nil
		}
	}
	return nil, r.Throwf(TypeError, "%s is not iterable", ToDisplayString(v))
}

type arrayIterator struct {
	o *Object
	i int
}

// Next reads the array live, so elements appended during iteration are
// visited.
func (it *arrayIterator) Next() (Value, bool, error) {
	if it.i >= len(it.o.elems) {
		return nil, false, nil
	}
	v := it.o.elems[it.i]
	it.i++
	if v == nil {
		v = Undefined
	}
	return v, true, nil
}

type stringIterator struct {
	s string
	i int
}

func (it *stringIterator) Next() (Value, bool, error) {
	if it.i >= len(it.s) {
		return nil, false, nil
	}
	_, size := utf8.DecodeRuneInString(it.s[it.i:])
	v := it.s[it.i : it.i+size]
	it.i += size
	return v, true, nil
}

type protocolIterator struct {
	r    *Realm
	o    *Object
	next Value
}

func (it *protocolIterator) Next() (Value, bool, error) {
	res, err := it.r.Call(it.next, it.o, nil, "next")
	if err != nil {
		return nil, false, err
	}
	o, ok := res.(*Object)
	if !ok {
		return nil, false, it.r.Throwf(TypeError, "Iterator result %s is not an object", ToDisplayString(res))
	}
	if ToBoolean(o.Get("done")) {
		return nil, false, nil
	}
	return o.Get("value"), true, nil
}

// EnumerateKeys implements for-in enumeration: the enumerable string keys
// of v and its prototypes, each reported once. Keys deleted before they are
// reached are skipped.
func (r *Realm) EnumerateKeys(v Value) Iterator {
	if IsNullish(v) {
		return &keyIterator{}
	}
	o, err := r.ToObject(v)
	if err != nil {
		return &keyIterator{}
	}
	it := &keyIterator{obj: o}
	seen := make(map[string]bool)
	for p := o; p != nil; p = p.proto {
		for _, k := range p.OwnKeys() {
			if seen[k] {
				continue
			}
			seen[k] = true
			if p.IsEnumerable(k) {
				it.keys = append(it.keys, k)
			}
		}
	}
	return it
}

type keyIterator struct {
	obj  *Object
	keys []string
	i    int
}

func (it *keyIterator) Next() (Value, bool, error) {
	for it.i < len(it.keys) {
		k := it.keys[it.i]
		it.i++
		if it.obj.Has(k) {
			return k, true, nil
		}
	}
	return nil, false, nil
}

// IterateToSlice drains an iterable, or what remains of an iterator, into a
// slice, as spread does.
func (r *Realm) IterateToSlice(v Value) ([]Value, error) {
	it, ok := v.(Iterator)
	if !ok {
		var err error
		if it, err = r.GetIterator(v); err != nil {
			return nil, err
		}
	}
	var vs []Value
	for {
		x, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return vs, nil
		}
		vs = append(vs, x)
	}
}
