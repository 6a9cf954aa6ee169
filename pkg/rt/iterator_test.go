package rt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func drain(t *testing.T, it Iterator) []Value {
	t.Helper()
	var vs []Value
	for {
		v, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return vs
		}
		vs = append(vs, v)
	}
}

func TestEnumerateKeys(t *testing.T) {
	r := NewRealm()
	proto := r.NewObject()
	proto.Set("inherited", 1.0)
	proto.Set("shadowed", 1.0)
	o := NewObjectWithProto(proto, ClassObject)
	o.Set("own", 1.0)
	o.DefineOwn("shadowed", Property{Value: 2.0})
	o.Set("deleted", 1.0)

	it := r.EnumerateKeys(o)
	o.Delete("deleted")
	got := drain(t, it)
	if diff := cmp.Diff([]Value{"own", "inherited"}, got); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if got := drain(t, r.EnumerateKeys(Null)); len(got) != 0 {
		t.Errorf("enumerating null produced %v", got)
	}
}

func TestGetIterator(t *testing.T) {
	r := NewRealm()
	it, err := r.GetIterator("a😀")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Value{"a", "😀"}, drain(t, it)); diff != "" {
		t.Errorf("string iteration (-want +got):\n%s", diff)
	}

	arr := r.NewArray([]Value{1.0})
	it, _ = r.GetIterator(arr)
	v, _, _ := it.Next()
	arr.Set("1", 2.0)
	rest := drain(t, it)
	if v != 1.0 || len(rest) != 1 || rest[0] != 2.0 {
		t.Errorf("array iteration is not live: %v %v", v, rest)
	}

	if _, err := r.GetIterator(1.0); err == nil {
		t.Errorf("numbers should not be iterable")
	}
}

func TestGetIterator_Protocol(t *testing.T) {
	r := NewRealm()
	n := 0.0
	o := r.NewObject()
	o.Set("next", r.NewNative("next", 0, func(Value, []Value) (Value, error) {
		res := r.NewObject()
		n++
		res.Set("done", n > 2)
		res.Set("value", n)
		return res, nil
	}))
	vs, err := r.IterateToSlice(o)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Value{1.0, 2.0}, vs); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
