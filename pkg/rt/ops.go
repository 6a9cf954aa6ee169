package rt

import (
	"math"
	"strings"
)

// BinaryOp identifies a generic binary operator.
type BinaryOp uint8

// Binary operators.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
)

var binaryOpNames = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpExp: "**",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<", OpShr: ">>", OpUShr: ">>>",
	OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpEq: "==", OpNe: "!=", OpStrictEq: "===", OpStrictNe: "!==",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// Binary applies a generic binary operator.
func (r *Realm) Binary(op BinaryOp, a, b Value) (Value, error) {
	switch op {
	case OpAdd:
		return r.Add(a, b)
	case OpLt:
		return r.lessThan(a, b, true, false)
	case OpGt:
		return r.lessThan(b, a, false, false)
	case OpLe:
		return r.lessThan(b, a, false, true)
	case OpGe:
		return r.lessThan(a, b, true, true)
	case OpEq:
		return r.LooseEquals(a, b)
	case OpNe:
		eq, err := r.LooseEquals(a, b)
		return !eq, err
	case OpStrictEq:
		return StrictEquals(a, b), nil
	case OpStrictNe:
		return !StrictEquals(a, b), nil
	}
	x, err := r.ToNumber(a)
	if err != nil {
		return nil, err
	}
	y, err := r.ToNumber(b)
	if err != nil {
		return nil, err
	}
	return Arith(op, x, y), nil
}

// Arith applies an arithmetic or bitwise operator to two numbers.
func Arith(op BinaryOp, x, y float64) Value {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	case OpMod:
		if math.IsInf(y, 0) && !math.IsInf(x, 0) {
			return x
		}
		return math.Mod(x, y)
	case OpExp:
		if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
			return math.NaN()
		}
		return math.Pow(x, y)
	case OpBitAnd:
		return float64(ToInt32(x) & ToInt32(y))
	case OpBitOr:
		return float64(ToInt32(x) | ToInt32(y))
	case OpBitXor:
		return float64(ToInt32(x) ^ ToInt32(y))
	case OpShl:
		return float64(ToInt32(x) << (ToUint32(y) & 31))
	case OpShr:
		return float64(ToInt32(x) >> (ToUint32(y) & 31))
	case OpUShr:
		return float64(ToUint32(x) >> (ToUint32(y) & 31))
	}
	return math.NaN()
}

// Add implements the + operator.
func (r *Realm) Add(a, b Value) (Value, error) {
	if x, ok := Normalize(a).(float64); ok {
		if y, ok := Normalize(b).(float64); ok {
			return x + y, nil
		}
	}
	pa, err := r.ToPrimitive(a, HintDefault)
	if err != nil {
		return nil, err
	}
	pb, err := r.ToPrimitive(b, HintDefault)
	if err != nil {
		return nil, err
	}
	sa, aStr := pa.(string)
	sb, bStr := pb.(string)
	if aStr || bStr {
		if !aStr {
			sa, _ = r.ToString(pa)
		}
		if !bStr {
			sb, _ = r.ToString(pb)
		}
		return sa + sb, nil
	}
	x, _ := r.ToNumber(pa)
	y, _ := r.ToNumber(pb)
	return x + y, nil
}

// lessThan implements the abstract relational comparison a < b. When negate
// is set the result is inverted unless the comparison is undefined, which is
// how <= and >= are derived from it.
func (r *Realm) lessThan(a, b Value, leftFirst, negate bool) (Value, error) {
	var pa, pb Value
	var err error
	if leftFirst {
		if pa, err = r.ToPrimitive(a, HintNumber); err != nil {
			return nil, err
		}
		if pb, err = r.ToPrimitive(b, HintNumber); err != nil {
			return nil, err
		}
	} else {
		if pb, err = r.ToPrimitive(b, HintNumber); err != nil {
			return nil, err
		}
		if pa, err = r.ToPrimitive(a, HintNumber); err != nil {
			return nil, err
		}
	}
	if sa, ok := pa.(string); ok {
		if sb, ok := pb.(string); ok {
			lt := compareUTF16(sa, sb) < 0
			return lt != negate, nil
		}
	}
	x, _ := r.ToNumber(pa)
	y, _ := r.ToNumber(pb)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false, nil
	}
	return (x < y) != negate, nil
}

func compareUTF16(a, b string) int {
	ua, ub := utf16Units(a), utf16Units(b)
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return len(ua) - len(ub)
}

// StrictEquals implements the === operator.
func StrictEquals(a, b Value) bool {
	a, b = Normalize(a), Normalize(b)
	if x, ok := a.(float64); ok {
		y, ok := b.(float64)
		return ok && x == y
	}
	return a == b
}

// SameValueZero is StrictEquals, except that NaN equals NaN.
func SameValueZero(a, b Value) bool {
	if x, ok := Normalize(a).(float64); ok && math.IsNaN(x) {
		y, ok := Normalize(b).(float64)
		return ok && math.IsNaN(y)
	}
	return StrictEquals(a, b)
}

// LooseEquals implements the == operator.
func (r *Realm) LooseEquals(a, b Value) (bool, error) {
	a, b = Normalize(a), Normalize(b)
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b), nil
	}
	switch x := a.(type) {
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y, nil
		case string:
			return x == StringToNumber(y), nil
		case bool:
			return r.LooseEquals(x, boolToNumber(y))
		case *Object:
			p, err := r.ToPrimitive(y, HintDefault)
			if err != nil {
				return false, err
			}
			return r.LooseEquals(x, p)
		}
	case string:
		switch y := b.(type) {
		case string:
			return x == y, nil
		case float64:
			return StringToNumber(x) == y, nil
		case bool:
			return r.LooseEquals(x, boolToNumber(y))
		case *Object:
			p, err := r.ToPrimitive(y, HintDefault)
			if err != nil {
				return false, err
			}
			return r.LooseEquals(x, p)
		}
	case bool:
		return r.LooseEquals(boolToNumber(x), b)
	case *Object:
		if _, ok := b.(*Object); ok {
			return a == b, nil
		}
		return r.LooseEquals(b, a)
	}
	return false, nil
}

func boolToNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// UnaryOp identifies a generic unary operator.
type UnaryOp uint8

// Unary operators.
const (
	OpNeg UnaryOp = iota
	OpPlus
	OpBitNot
	OpNot
	OpTypeof
	OpVoid
)

var unaryOpNames = [...]string{OpNeg: "-", OpPlus: "+", OpBitNot: "~", OpNot: "!", OpTypeof: "typeof", OpVoid: "void"}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// Unary applies a generic unary operator.
func (r *Realm) Unary(op UnaryOp, v Value) (Value, error) {
	switch op {
	case OpNot:
		return !ToBoolean(v), nil
	case OpTypeof:
		return Typeof(v), nil
	case OpVoid:
		return Undefined, nil
	}
	f, err := r.ToNumber(v)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpNeg:
		return -f, nil
	case OpBitNot:
		return float64(^ToInt32(f)), nil
	}
	return f, nil
}

// InstanceOf implements the instanceof operator.
func (r *Realm) InstanceOf(v, ctor Value) (bool, error) {
	c, ok := ctor.(*Object)
	if !ok || !c.IsCallable() {
		return false, r.Throwf(TypeError, "Right-hand side of 'instanceof' is not callable")
	}
	o, ok := v.(*Object)
	if !ok {
		return false, nil
	}
	proto, ok := c.Get("prototype").(*Object)
	if !ok {
		return false, r.Throwf(TypeError, "Function has non-object prototype in instanceof check")
	}
	for p := o.proto; p != nil; p = p.proto {
		if p == proto {
			return true, nil
		}
	}
	return false, nil
}

// In implements the in operator.
func (r *Realm) In(key, v Value) (bool, error) {
	o, ok := v.(*Object)
	if !ok {
		return false, r.Throwf(TypeError, "Cannot use 'in' operator to search for '%s' in %s", ToDisplayString(key), ToDisplayString(v))
	}
	k, err := r.ToPropertyKey(key)
	if err != nil {
		return false, err
	}
	return o.Has(k), nil
}

// GetV reads a property of any value, boxing primitives.
func (r *Realm) GetV(v Value, key string) (Value, error) {
	switch x := v.(type) {
	case *Object:
		return x.Get(key), nil
	case string:
		if key == "length" {
			return float64(StringLength(x)), nil
		}
		if i, ok := arrayIndex(key); ok {
			if c, ok := charAt(x, i); ok {
				return c, nil
			}
			return Undefined, nil
		}
		return r.StringPrototype.Get(key), nil
	case float64, int32, uint32:
		return r.NumberPrototype.Get(key), nil
	case bool:
		return r.BooleanPrototype.Get(key), nil
	}
	return nil, r.Throwf(TypeError, "Cannot read properties of %s (reading '%s')", ToDisplayString(v), key)
}

// PutV assigns a property of any value. Assignments to primitives are
// dropped, or rejected in strict mode, like refused assignments to objects.
func (r *Realm) PutV(v Value, key string, val Value, strict bool) error {
	switch x := v.(type) {
	case *Object:
		if !x.Set(key, val) && strict {
			return r.Throwf(TypeError, "Cannot assign to read only property '%s' of object", key)
		}
		return nil
	case undefinedType, nullType:
		return r.Throwf(TypeError, "Cannot set properties of %s (setting '%s')", ToDisplayString(v), key)
	}
	if strict {
		return r.Throwf(TypeError, "Cannot create property '%s' on %s '%s'", key, Typeof(v), ToDisplayString(v))
	}
	return nil
}

// DeleteV deletes a property of any value.
func (r *Realm) DeleteV(v Value, key string, strict bool) (bool, error) {
	switch x := v.(type) {
	case *Object:
		ok := x.Delete(key)
		if !ok && strict {
			return false, r.Throwf(TypeError, "Cannot delete property '%s' of %s", key, ToDisplayString(v))
		}
		return ok, nil
	case undefinedType, nullType:
		return false, r.Throwf(TypeError, "Cannot convert undefined or null to object")
	case string:
		if key == "length" || strings.Trim(key, "0123456789") == "" && key != "" {
			if _, ok := charAt(x, atoiOr(key, -1)); ok || key == "length" {
				if strict {
					return false, r.Throwf(TypeError, "Cannot delete property '%s' of [object String]", key)
				}
				return false, nil
			}
		}
	}
	return true, nil
}

func atoiOr(s string, def int) int {
	if i, ok := arrayIndex(s); ok {
		return i
	}
	return def
}
