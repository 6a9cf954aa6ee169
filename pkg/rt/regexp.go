package rt

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

// RegExpPattern is a compiled regular expression literal. It is immutable and
// shared by all the RegExp objects created from the same literal site.
type RegExpPattern struct {
	Source string
	Flags  string
	re     *regexp2.Regexp
}

// CompileRegExp compiles a pattern with ECMAScript semantics.
func CompileRegExp(source, flags string) (*RegExpPattern, error) {
	opts := regexp2.None | regexp2.ECMAScript
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		case 'g', 'y':
		default:
			return nil, errors.Errorf("invalid regular expression flags '%s'", flags)
		}
		if strings.Count(flags, string(f)) > 1 {
			return nil, errors.Errorf("invalid regular expression flags '%s'", flags)
		}
	}
	if opts&regexp2.Unicode != 0 {
		// regexp2 does not support ECMAScript and Unicode together.
		opts &^= regexp2.ECMAScript
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regular expression /%s/", source)
	}
	return &RegExpPattern{Source: source, Flags: flags, re: re}, nil
}

func (p *RegExpPattern) global() bool { return strings.ContainsAny(p.Flags, "gy") }

// NewRegExp creates a RegExp object using a compiled pattern.
func (r *Realm) NewRegExp(p *RegExpPattern) *Object {
	o := NewObjectWithProto(r.RegExpPrototype, ClassRegExp)
	o.Internal = p
	o.DefineOwn("lastIndex", Property{Value: 0.0, Writable: true})
	o.DefineOwn("source", Property{Value: p.Source})
	o.DefineOwn("flags", Property{Value: p.Flags})
	o.DefineOwn("global", Property{Value: strings.Contains(p.Flags, "g")})
	return o
}

// regExpExec runs a RegExp object against s, honoring and updating
// lastIndex for global patterns.
func (r *Realm) regExpExec(this Value, s string) (Value, error) {
	o, ok := this.(*Object)
	if !ok || o.class != ClassRegExp {
		return nil, r.Throwf(TypeError, "RegExp method called on incompatible receiver %s", ToDisplayString(this))
	}
	p := o.Internal.(*RegExpPattern)
	runes := []rune(s)
	start := 0
	if p.global() {
		li, err := r.ToNumber(o.Get("lastIndex"))
		if err != nil {
			return nil, err
		}
		start = int(li)
		if start > len(runes) {
			o.Set("lastIndex", 0.0)
			return Null, nil
		}
	}
	m, err := p.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return nil, r.Throwf(Error, "%s", err.Error())
	}
	if m == nil || (strings.Contains(p.Flags, "y") && m.Index != start) {
		if p.global() {
			o.Set("lastIndex", 0.0)
		}
		return Null, nil
	}
	if p.global() {
		o.Set("lastIndex", float64(m.Index+m.Length))
	}
	groups := m.Groups()
	vals := make([]Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			vals[i] = Undefined
		} else {
			vals[i] = g.String()
		}
	}
	res := r.NewArray(vals)
	res.Set("index", float64(m.Index))
	res.Set("input", s)
	return res, nil
}
