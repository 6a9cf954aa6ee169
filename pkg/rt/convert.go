package rt

import (
	"math"
	"strconv"
	"strings"

	"src.jsil.dev/pkg/types"
)

// ToBoolean implements the ToBoolean abstract operation.
func ToBoolean(v Value) bool {
	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return !(v == 0 || math.IsNaN(v))
	case int32:
		return v != 0
	case uint32:
		return v != 0
	case string:
		return v != ""
	case *Object:
		return true
	}
	return false
}

// PreferredType is the hint passed to ToPrimitive.
type PreferredType uint8

// Hints for ToPrimitive.
const (
	HintDefault PreferredType = iota
	HintNumber
	HintString
)

// ToPrimitive implements the ToPrimitive abstract operation through the
// valueOf and toString methods.
func (r *Realm) ToPrimitive(v Value, hint PreferredType) (Value, error) {
	o, ok := v.(*Object)
	if !ok {
		return Normalize(v), nil
	}
	methods := [2]string{"valueOf", "toString"}
	if hint == HintString {
		methods = [2]string{"toString", "valueOf"}
	}
	for _, name := range methods {
		if f := o.Get(name); IsCallable(f) {
			res, err := r.Call(f, o, nil, name)
			if err != nil {
				return nil, err
			}
			if _, isObj := res.(*Object); !isObj {
				return res, nil
			}
		}
	}
	return nil, r.Throwf(TypeError, "Cannot convert object to primitive value")
}

// ToNumber implements the ToNumber abstract operation.
func (r *Realm) ToNumber(v Value) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return StringToNumber(v), nil
	case undefinedType:
		return math.NaN(), nil
	case nullType:
		return 0, nil
	case *Object:
		p, err := r.ToPrimitive(v, HintNumber)
		if err != nil {
			return 0, err
		}
		return r.ToNumber(p)
	}
	return math.NaN(), nil
}

// StringToNumber converts a string using the StringNumericLiteral grammar.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-') {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// ToString implements the ToString abstract operation.
func (r *Realm) ToString(v Value) (string, error) {
	if o, ok := v.(*Object); ok {
		p, err := r.ToPrimitive(o, HintString)
		if err != nil {
			return "", err
		}
		return r.ToString(p)
	}
	return ToDisplayString(v), nil
}

// ToDisplayString converts primitives like ToString does, and describes
// objects without calling into script code.
func ToDisplayString(v Value) string {
	switch v := v.(type) {
	case undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return NumberToString(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case string:
		return v
	case *Object:
		switch v.class {
		case ClassFunction:
			name, _ := v.Get("name").(string)
			return "function " + name + "() { [native code] }"
		case ClassError:
			return describeThrown(v)
		case ClassArray:
			parts := make([]string, len(v.elems))
			for i, e := range v.elems {
				if e != nil && !IsNullish(e) {
					parts[i] = ToDisplayString(e)
				}
			}
			return strings.Join(parts, ",")
		case ClassBoolean, ClassNumber, ClassString:
			return ToDisplayString(v.primitive)
		}
		return "[object " + v.class.String() + "]"
	}
	return "undefined"
}

// NumberToString formats a number the way Number::toString does.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f < 0:
		return "-" + NumberToString(-f)
	}
	// Shortest round-tripping digits, as d.ddddde±XX.
	e := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(e, "e")
	digits := strings.Replace(mant, ".", "", 1)
	x, _ := strconv.Atoi(exp)
	k, n := len(digits), x+1
	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}
	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	exponent := strconv.Itoa(abs(n - 1))
	if k == 1 {
		return digits + "e" + sign + exponent
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + exponent
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// ToInt32 implements the ToInt32 abstract operation on a number.
func ToInt32(f float64) int32 {
	return int32(ToUint32(f))
}

// ToUint32 implements the ToUint32 abstract operation on a number.
func ToUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	f = math.Mod(f, 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

// ToObject implements the ToObject abstract operation.
func (r *Realm) ToObject(v Value) (*Object, error) {
	switch v := v.(type) {
	case *Object:
		return v, nil
	case bool:
		return r.wrap(ClassBoolean, r.BooleanPrototype, v), nil
	case float64, int32, uint32:
		return r.wrap(ClassNumber, r.NumberPrototype, Normalize(v)), nil
	case string:
		return r.wrap(ClassString, r.StringPrototype, v), nil
	}
	return nil, r.Throwf(TypeError, "Cannot convert undefined or null to object")
}

func (r *Realm) wrap(class Class, proto *Object, v Value) *Object {
	o := NewObjectWithProto(proto, class)
	o.primitive = v
	return o
}

// ToPropertyKey converts a value to a property key.
func (r *Realm) ToPropertyKey(v Value) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int32:
		return strconv.Itoa(int(v)), nil
	}
	return r.ToString(v)
}

// Convert applies a static conversion to a value held in the representation
// of type from.
func (r *Realm) Convert(v Value, c types.Conversion) (Value, error) {
	switch c {
	case types.Identity:
		return v, nil
	case types.Box:
		return Normalize(v), nil
	case types.ToNumber:
		return r.ToNumber(v)
	case types.ToInt32:
		if i, ok := v.(int32); ok {
			return i, nil
		}
		f, err := r.ToNumber(v)
		if err != nil {
			return nil, err
		}
		return ToInt32(f), nil
	case types.ToUInt32:
		if u, ok := v.(uint32); ok {
			return u, nil
		}
		f, err := r.ToNumber(v)
		if err != nil {
			return nil, err
		}
		return ToUint32(f), nil
	case types.ToBoolean:
		return ToBoolean(v), nil
	case types.ToString:
		return r.ToString(v)
	case types.ToObject:
		return r.ToObject(v)
	}
	return v, nil
}
