package rt

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var numberToStringTests = []struct {
	in   float64
	want string
}{
	{0, "0"},
	{math.Copysign(0, -1), "0"},
	{1, "1"},
	{-1.5, "-1.5"},
	{0.1, "0.1"},
	{123456789, "123456789"},
	{1e21, "1e+21"},
	{1e20, "100000000000000000000"},
	{1.5e-7, "1.5e-7"},
	{0.000001, "0.000001"},
	{math.NaN(), "NaN"},
	{math.Inf(-1), "-Infinity"},
}

func TestNumberToString(t *testing.T) {
	for _, test := range numberToStringTests {
		if got := NumberToString(test.in); got != test.want {
			t.Errorf("NumberToString(%v) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestStringToNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"  42 ", 42},
		{"0x1F", 31},
		{"0b101", 5},
		{"-Infinity", math.Inf(-1)},
		{"1e3", 1000},
		{".5", 0.5},
	}
	for _, test := range tests {
		if got := StringToNumber(test.in); got != test.want {
			t.Errorf("StringToNumber(%q) = %v, want %v", test.in, got, test.want)
		}
	}
	for _, bad := range []string{"abc", "1a", "0xZ", "Infinityx"} {
		if got := StringToNumber(bad); !math.IsNaN(got) {
			t.Errorf("StringToNumber(%q) = %v, want NaN", bad, got)
		}
	}
}

func TestToInt32(t *testing.T) {
	tests := []struct {
		in   float64
		want int32
	}{
		{0, 0},
		{-1, -1},
		{2147483648, -2147483648},
		{4294967296, 0},
		{4294967297.7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{-2147483649, 2147483647},
	}
	for _, test := range tests {
		if got := ToInt32(test.in); got != test.want {
			t.Errorf("ToInt32(%v) = %v, want %v", test.in, got, test.want)
		}
	}
	if got := ToUint32(-1); got != 4294967295 {
		t.Errorf("ToUint32(-1) = %v", got)
	}
}

func TestToBoolean(t *testing.T) {
	r := NewRealm()
	truthy := []Value{true, 1.0, int32(-3), "0", r.NewObject(), r.NewArray(nil)}
	falsy := []Value{false, 0.0, math.NaN(), int32(0), "", Undefined, Null}
	for _, v := range truthy {
		if !ToBoolean(v) {
			t.Errorf("ToBoolean(%v) = false", v)
		}
	}
	for _, v := range falsy {
		if ToBoolean(v) {
			t.Errorf("ToBoolean(%v) = true", v)
		}
	}
}

func TestToPrimitive_UsesValueOfThenToString(t *testing.T) {
	r := NewRealm()
	var calls []string
	o := r.NewObject()
	o.Set("valueOf", r.NewNative("valueOf", 0, func(Value, []Value) (Value, error) {
		calls = append(calls, "valueOf")
		return r.NewObject(), nil
	}))
	o.Set("toString", r.NewNative("toString", 0, func(Value, []Value) (Value, error) {
		calls = append(calls, "toString")
		return "7", nil
	}))
	n, err := r.ToNumber(o)
	if err != nil || n != 7 {
		t.Errorf("ToNumber -> %v, %v", n, err)
	}
	if diff := cmp.Diff([]string{"valueOf", "toString"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestToObject_NullishThrowsTypeError(t *testing.T) {
	r := NewRealm()
	_, err := r.ToObject(Null)
	exc, ok := err.(*Exception)
	if !ok {
		t.Fatalf("got error %v, want *Exception", err)
	}
	if kind, _ := exc.Kind(); kind != TypeError {
		t.Errorf("got kind %v, want TypeError", kind)
	}
}
