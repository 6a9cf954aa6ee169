package rt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObject_OwnKeysOrder(t *testing.T) {
	r := NewRealm()
	o := r.NewObject()
	for _, k := range []string{"b", "2", "a", "1", "01"} {
		o.Set(k, true)
	}
	want := []string{"1", "2", "b", "a", "01"}
	if diff := cmp.Diff(want, o.OwnKeys()); diff != "" {
		t.Errorf("OwnKeys (-want +got):\n%s", diff)
	}
}

func TestArray_LengthAndHoles(t *testing.T) {
	r := NewRealm()
	a := r.NewArray([]Value{1.0})
	a.Set("3", 4.0)
	if got := a.Get("length"); got != 4.0 {
		t.Errorf("length = %v, want 4", got)
	}
	if a.HasOwn("1") {
		t.Errorf("hole reported as own property")
	}
	a.Set("length", 2.0)
	if diff := cmp.Diff([]string{"0"}, a.OwnKeys()); diff != "" {
		t.Errorf("OwnKeys after truncation (-want +got):\n%s", diff)
	}
	a.Delete("0")
	if a.Get("0") != Undefined || a.Get("length") != 2.0 {
		t.Errorf("delete changed length or left the element")
	}
}

func TestObject_DeleteNonConfigurable(t *testing.T) {
	o := NewObjectWithProto(nil, ClassObject)
	o.DefineOwn("x", Property{Value: 1.0})
	if o.Delete("x") {
		t.Errorf("deleted a non-configurable property")
	}
	o.DefineValue("y", 1.0, true)
	if !o.Delete("y") || o.HasOwn("y") {
		t.Errorf("could not delete a configurable property")
	}
}

func TestObject_SetRespectsInheritedReadOnly(t *testing.T) {
	proto := NewObjectWithProto(nil, ClassObject)
	proto.DefineOwn("x", Property{Value: 1.0})
	o := NewObjectWithProto(proto, ClassObject)
	if o.Set("x", 2.0) {
		t.Errorf("assignment shadowing a read-only inherited property succeeded")
	}
	if o.HasOwn("x") {
		t.Errorf("own property created")
	}
}

func TestStringWrapper(t *testing.T) {
	r := NewRealm()
	o, _ := r.ToObject("ab")
	if o.Get("length") != 2.0 || o.Get("0") != "a" {
		t.Errorf("String wrapper reads wrong: %v %v", o.Get("length"), o.Get("0"))
	}
	if diff := cmp.Diff([]string{"0", "1"}, o.OwnKeys()); diff != "" {
		t.Errorf("OwnKeys (-want +got):\n%s", diff)
	}
}
