package types

// Conversion identifies the operation that turns a value of one static type
// into the representation of another.
type Conversion uint8

// Conversions. Box turns an unboxed integer into the generic number
// representation; the To* conversions follow the abstract operations of the
// same names.
const (
	Identity Conversion = iota
	Box
	ToNumber
	ToInt32
	ToUInt32
	ToBoolean
	ToString
	ToObject
)

var conversionNames = [...]string{
	Identity:  "identity",
	Box:       "box",
	ToNumber:  "tonumber",
	ToInt32:   "toint32",
	ToUInt32:  "touint32",
	ToBoolean: "toboolean",
	ToString:  "tostring",
	ToObject:  "toobject",
}

func (c Conversion) String() string {
	if int(c) < len(conversionNames) {
		return conversionNames[c]
	}
	return "!(bad conversion)"
}

// Plan returns the conversion needed to turn a value of static type from into
// a value usable where static type to is expected.
//
// Int32 and UInt32 values are the only ones with a representation differing
// from their generic one; every other narrow type shares the representation
// of Any, so widening them is the identity.
func Plan(from, to Type) Conversion {
	if from == to {
		return Identity
	}
	switch to {
	case Any, Undefined, Null, None:
		if from.IsInteger() {
			return Box
		}
		return Identity
	case Number:
		if from.IsInteger() {
			return Box
		}
		return ToNumber
	case Int32:
		return ToInt32
	case UInt32:
		return ToUInt32
	case Bool:
		return ToBoolean
	case String:
		return ToString
	case Object:
		return ToObject
	}
	return Identity
}
