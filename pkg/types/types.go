// Package types implements the small lattice of static value kinds used to
// avoid boxing values whose type is known at compile time.
package types

// Type is a static value kind.
type Type uint8

// Static value kinds. None is the bottom of the lattice and only appears
// during inference; Any is the top.
const (
	None Type = iota
	Any
	Object
	String
	Number
	Bool
	Int32
	UInt32
	Undefined
	Null
)

var typeNames = [...]string{
	None:      "none",
	Any:       "any",
	Object:    "object",
	String:    "string",
	Number:    "number",
	Bool:      "bool",
	Int32:     "int32",
	UInt32:    "uint32",
	Undefined: "undefined",
	Null:      "null",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "!(bad type)"
}

// IsNumeric reports whether values of t are numbers.
func (t Type) IsNumeric() bool {
	return t == Number || t == Int32 || t == UInt32
}

// IsInteger reports whether values of t are integral numbers held unboxed.
func (t Type) IsInteger() bool {
	return t == Int32 || t == UInt32
}

// Unify returns the least specific type that covers both a and b.
func Unify(a, b Type) Type {
	switch {
	case a == None:
		return b
	case b == None:
		return a
	case a == b:
		return a
	case a.IsNumeric() && b.IsNumeric():
		return Number
	default:
		return Any
	}
}

// UnifyAll folds Unify over ts, starting from None.
func UnifyAll(ts ...Type) Type {
	t := None
	for _, u := range ts {
		t = Unify(t, u)
	}
	return t
}

// Storage returns the type a variable slot uses to hold values of static type
// t. Only a few kinds have an unboxed representation; everything else is
// stored as Any.
func Storage(t Type) Type {
	switch t {
	case Int32, Number, Bool, String:
		return t
	default:
		return Any
	}
}
