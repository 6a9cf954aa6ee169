package engine

import (
	"src.jsil.dev/pkg/rt"
)

// Export converts a script value to a Go value: undefined and null become
// nil, numbers float64, arrays []any and other non-callable objects
// map[string]any of their enumerable own properties. Functions are
// returned as they are. Objects reachable more than once along a path are
// exported as nil.
func Export(v rt.Value) any {
	return export(v, map[*rt.Object]bool{})
}

func export(v rt.Value, seen map[*rt.Object]bool) any {
	switch v := rt.Normalize(v).(type) {
	case nil:
		return nil
	case *rt.Object:
		if v.IsCallable() {
			return v
		}
		if seen[v] {
			return nil
		}
		seen[v] = true
		defer delete(seen, v)
		switch v.Class() {
		case rt.ClassArray:
			elems := v.Elements()
			out := make([]any, len(elems))
			for i, e := range elems {
				out[i] = export(e, seen)
			}
			return out
		case rt.ClassBoolean, rt.ClassNumber, rt.ClassString:
			return export(v.PrimitiveValue(), seen)
		}
		out := make(map[string]any)
		for _, k := range v.OwnKeys() {
			if v.IsEnumerable(k) {
				out[k] = export(v.Get(k), seen)
			}
		}
		return out
	default:
		if rt.IsNullish(v) {
			return nil
		}
		return v
	}
}
