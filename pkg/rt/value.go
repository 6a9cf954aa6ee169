// Package rt implements the runtime object model that emitted code calls
// into: values, objects, conversions, errors, the iteration protocols and the
// arena of runtime scopes.
package rt

import "math"

// Value is a script value. The representations are:
//
//   - Undefined and Null
//   - bool, float64 and string for the primitive kinds
//   - *Object for objects, arrays and functions
//
// Unboxed int32 and uint32 values only ever live in typed slots of an
// activation; they are boxed into float64 before reaching generic code.
type Value = any

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

type nullType struct{}

func (nullType) String() string { return "null" }

type holeType struct{}

func (holeType) String() string { return "<uninitialized>" }

var (
	// Undefined is the undefined value.
	Undefined Value = undefinedType{}
	// Null is the null value.
	Null Value = nullType{}
	// Hole marks a let/const binding that has not been initialized yet, and
	// the this binding of a derived constructor before super() returns. It is
	// never visible to scripts.
	Hole Value = holeType{}
)

// NaN is the NaN number value.
var NaN = math.NaN()

// IsUndefined reports whether v is undefined.
func IsUndefined(v Value) bool { return v == Undefined }

// IsNullish reports whether v is undefined or null.
func IsNullish(v Value) bool { return v == Undefined || v == Null }

// IsHole reports whether v is the uninitialized marker.
func IsHole(v Value) bool { return v == Hole }

// Typeof implements the typeof operator.
func Typeof(v Value) string {
	switch v := v.(type) {
	case undefinedType:
		return "undefined"
	case nullType:
		return "object"
	case bool:
		return "boolean"
	case float64, int32, uint32:
		return "number"
	case string:
		return "string"
	case *Object:
		if v.IsCallable() {
			return "function"
		}
		return "object"
	}
	return "undefined"
}

// Normalize turns unboxed integers into the generic number representation.
func Normalize(v Value) Value {
	switch v := v.(type) {
	case int32:
		return float64(v)
	case uint32:
		return float64(v)
	case int:
		return float64(v)
	}
	return v
}
