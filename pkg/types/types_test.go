package types

import "testing"

var unifyTests = []struct {
	a, b, want Type
}{
	{None, Int32, Int32},
	{Bool, None, Bool},
	{Int32, Int32, Int32},
	{Int32, UInt32, Number},
	{Int32, Number, Number},
	{Number, String, Any},
	{Undefined, Int32, Any},
	{Null, Null, Null},
	{Object, Object, Object},
	{Object, Any, Any},
}

func TestUnify(t *testing.T) {
	for _, test := range unifyTests {
		if got := Unify(test.a, test.b); got != test.want {
			t.Errorf("Unify(%v, %v) -> %v, want %v", test.a, test.b, got, test.want)
		}
		if got := Unify(test.b, test.a); got != test.want {
			t.Errorf("Unify(%v, %v) -> %v, want %v", test.b, test.a, got, test.want)
		}
	}
}

func TestUnifyAll(t *testing.T) {
	if got := UnifyAll(Int32, Int32, Number); got != Number {
		t.Errorf("UnifyAll -> %v, want number", got)
	}
	if got := UnifyAll(); got != None {
		t.Errorf("UnifyAll() -> %v, want none", got)
	}
}

func TestStorage(t *testing.T) {
	for _, ty := range []Type{Int32, Number, Bool, String} {
		if Storage(ty) != ty {
			t.Errorf("Storage(%v) -> %v", ty, Storage(ty))
		}
	}
	for _, ty := range []Type{None, Any, Object, UInt32, Undefined, Null} {
		if Storage(ty) != Any {
			t.Errorf("Storage(%v) -> %v, want any", ty, Storage(ty))
		}
	}
}

var planTests = []struct {
	from, to Type
	want     Conversion
}{
	{Int32, Int32, Identity},
	{Int32, Any, Box},
	{UInt32, Number, Box},
	{Bool, Any, Identity},
	{Any, Number, ToNumber},
	{Number, Int32, ToInt32},
	{Any, Bool, ToBoolean},
	{Int32, String, ToString},
	{Any, Object, ToObject},
}

func TestPlan(t *testing.T) {
	for _, test := range planTests {
		if got := Plan(test.from, test.to); got != test.want {
			t.Errorf("Plan(%v, %v) -> %v, want %v", test.from, test.to, got, test.want)
		}
	}
}
