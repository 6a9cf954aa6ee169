package rt

import "testing"

func TestRegExpExec(t *testing.T) {
	r := NewRealm()
	p, err := CompileRegExp(`(\d+)-(x)?`, "g")
	if err != nil {
		t.Fatal(err)
	}
	re := r.NewRegExp(p)
	m, err := r.regExpExec(re, "a12-b3-x")
	if err != nil {
		t.Fatal(err)
	}
	arr := m.(*Object)
	if arr.Get("0") != "12-" || arr.Get("2") != Undefined || arr.Get("index") != 1.0 {
		t.Errorf("first match wrong: %v %v %v", arr.Get("0"), arr.Get("2"), arr.Get("index"))
	}
	if re.Get("lastIndex") != 4.0 {
		t.Errorf("lastIndex = %v, want 4", re.Get("lastIndex"))
	}
	m, _ = r.regExpExec(re, "a12-b3-x")
	if m.(*Object).Get("0") != "3-x" {
		t.Errorf("second match = %v", m.(*Object).Get("0"))
	}
	m, _ = r.regExpExec(re, "a12-b3-x")
	if m != Null || re.Get("lastIndex") != 0.0 {
		t.Errorf("exhausted match = %v, lastIndex %v", m, re.Get("lastIndex"))
	}
}

func TestCompileRegExp_Errors(t *testing.T) {
	for _, test := range []struct{ src, flags string }{
		{"(", ""},
		{"a", "gg"},
		{"a", "q"},
	} {
		if _, err := CompileRegExp(test.src, test.flags); err == nil {
			t.Errorf("CompileRegExp(%q, %q) succeeded", test.src, test.flags)
		}
	}
}

func TestCompileRegExp_Flags(t *testing.T) {
	for _, test := range []struct {
		src, flags, input string
		want              bool
	}{
		{`^b.c$`, "ims", "a\nB\nC", true},
		{`^b.c$`, "", "a\nB\nC", false},
		// ECMAScript classes are ASCII only.
		{`^\d$`, "", "٣", false},
		{`^\d$`, "", "3", true},
	} {
		p, err := CompileRegExp(test.src, test.flags)
		if err != nil {
			t.Fatalf("CompileRegExp(%q, %q): %v", test.src, test.flags, err)
		}
		got, err := p.re.MatchString(test.input)
		if err != nil || got != test.want {
			t.Errorf("/%s/%s matching %q -> %v, %v, want %v", test.src, test.flags, test.input, got, err, test.want)
		}
	}
}
