package rt

import (
	"math"
	"testing"
)

func TestBinary(t *testing.T) {
	r := NewRealm()
	arr := r.NewArray([]Value{1.0, 2.0})
	tests := []struct {
		op   BinaryOp
		a, b Value
		want Value
	}{
		{OpAdd, 1.0, 2.0, 3.0},
		{OpAdd, int32(1), 2.0, 3.0},
		{OpAdd, "a", 1.0, "a1"},
		{OpAdd, 1.0, "a", "1a"},
		{OpAdd, arr, "!", "1,2!"},
		{OpAdd, true, Null, 1.0},
		{OpSub, "5", 2.0, 3.0},
		{OpMod, -5.0, 3.0, -2.0},
		{OpMod, 5.0, math.Inf(1), 5.0},
		{OpExp, 2.0, 10.0, 1024.0},
		{OpBitOr, 4294967297.0, 0.0, 1.0},
		{OpShl, 1.0, 33.0, 2.0},
		{OpShr, -8.0, 1.0, -4.0},
		{OpUShr, -1.0, 0.0, 4294967295.0},
		{OpLt, "a", "b", true},
		{OpLt, "10", "9", true},
		{OpLt, "10", 9.0, false},
		{OpLe, math.NaN(), 1.0, false},
		{OpGe, Undefined, 0.0, false},
		{OpGe, Null, 0.0, true},
		{OpEq, Null, Undefined, true},
		{OpEq, "1", 1.0, true},
		{OpEq, true, "1", true},
		{OpEq, Null, 0.0, false},
		{OpNe, arr, "1,2", false},
		{OpStrictEq, int32(3), 3.0, true},
		{OpStrictEq, math.NaN(), math.NaN(), false},
		{OpStrictNe, "1", 1.0, true},
	}
	for _, test := range tests {
		got, err := r.Binary(test.op, test.a, test.b)
		if err != nil {
			t.Errorf("%v %v %v -> error %v", test.a, test.op, test.b, err)
			continue
		}
		if !SameValueZero(got, test.want) {
			t.Errorf("%v %v %v -> %v, want %v", test.a, test.op, test.b, got, test.want)
		}
	}
}

func TestUnary(t *testing.T) {
	r := NewRealm()
	tests := []struct {
		op   UnaryOp
		v    Value
		want Value
	}{
		{OpNeg, "3", -3.0},
		{OpPlus, true, 1.0},
		{OpBitNot, 0.0, -1.0},
		{OpNot, "", true},
		{OpTypeof, Null, "object"},
		{OpTypeof, r.Global.Get("Object"), "function"},
		{OpTypeof, int32(1), "number"},
		{OpVoid, 1.0, Undefined},
	}
	for _, test := range tests {
		got, err := r.Unary(test.op, test.v)
		if err != nil || !SameValueZero(got, test.want) {
			t.Errorf("%v %v -> %v, %v, want %v", test.op, test.v, got, err, test.want)
		}
	}
}

func TestInstanceOfAndIn(t *testing.T) {
	r := NewRealm()
	arr := r.NewArray([]Value{1.0})
	if ok, err := r.InstanceOf(arr, r.Global.Get("Array")); !ok || err != nil {
		t.Errorf("[1] instanceof Array -> %v, %v", ok, err)
	}
	if ok, _ := r.InstanceOf(arr, r.Global.Get("Error")); ok {
		t.Errorf("[1] instanceof Error -> true")
	}
	if _, err := r.InstanceOf(arr, 1.0); err == nil {
		t.Errorf("instanceof with non-callable should fail")
	}
	if ok, _ := r.In(0.0, arr); !ok {
		t.Errorf("0 in [1] -> false")
	}
	if ok, _ := r.In("push", arr); !ok {
		t.Errorf("'push' in [1] -> false")
	}
	if _, err := r.In("x", "str"); err == nil {
		t.Errorf("in with a primitive should fail")
	}
}

func TestGetVPutV(t *testing.T) {
	r := NewRealm()
	if v, _ := r.GetV("héllo", "length"); v != 5.0 {
		t.Errorf("length = %v", v)
	}
	if v, _ := r.GetV("abc", "1"); v != "b" {
		t.Errorf("abc[1] = %v", v)
	}
	if _, err := r.GetV(Undefined, "x"); err == nil {
		t.Errorf("reading a property of undefined should fail")
	}
	if err := r.PutV("abc", "x", 1.0, false); err != nil {
		t.Errorf("sloppy assignment to a primitive failed: %v", err)
	}
	if err := r.PutV("abc", "x", 1.0, true); err == nil {
		t.Errorf("strict assignment to a primitive should fail")
	}
	frozen := r.NewObject()
	frozen.Set("x", 1.0)
	frozen.Freeze()
	if err := r.PutV(frozen, "x", 2.0, true); err == nil {
		t.Errorf("strict assignment to a frozen property should fail")
	}
	if frozen.Get("x") != 1.0 {
		t.Errorf("frozen property changed")
	}
}
