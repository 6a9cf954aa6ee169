package diag

import "testing"

var contextTests = []struct {
	Name    string
	Context *Context
	Indent  string

	WantShow        string
	WantShowCompact string
}{
	{
		Name:    "single-line culprit",
		Context: contextInParen("[test]", "f (bad)"),
		Indent:  "_",

		WantShow: lines(
			"[test]:1:3:",
			"_f <(bad)>",
		),
		WantShowCompact: "[test]:1:3: f <(bad)>",
	},
	{
		Name:    "multi-line culprit",
		Context: contextInParen("[test]", "f (bad\nbad)\nmore"),
		Indent:  "_",

		WantShow: lines(
			"[test]:1:3:",
			"_f <(bad>",
			"_<bad)>",
		),
		WantShowCompact: lines(
			"[test]:1:3: f <(bad>",
			"_            <bad)>",
		),
	},
	{
		Name: "trailing newline in culprit is removed",
		//                             012345678 9
		Context: NewContext("[test]", "echo bad\n", Ranging{5, 9}),
		Indent:  "_",

		WantShow: lines(
			"[test]:1:6:",
			"_echo <bad>",
		),
		WantShowCompact: "[test]:1:6: echo <bad>",
	},
	{
		Name:            "empty culprit",
		Context:         NewContext("[test]", "echo x", Ranging{5, 5}),
		WantShow:        lines("[test]:1:6:", "echo <^>x"),
		WantShowCompact: "[test]:1:6: echo <^>x",
	},
	{
		Name:            "unknown culprit range",
		Context:         NewContext("[test]", "echo", UnknownRanging),
		WantShow:        "[test], unknown position",
		WantShowCompact: "[test], unknown position",
	},
	{
		Name:            "invalid culprit range",
		Context:         NewContext("[test]", "echo", Ranging{2, 1}),
		WantShow:        "[test], invalid position 2-1",
		WantShowCompact: "[test], invalid position 2-1",
	},
}

func TestContext(t *testing.T) {
	setMarkers(t, "<", ">", "{", "}")
	for _, test := range contextTests {
		t.Run(test.Name, func(t *testing.T) {
			gotShow := test.Context.Show(test.Indent)
			if gotShow != test.WantShow {
				t.Errorf("Show() -> %q, want %q", gotShow, test.WantShow)
			}
			gotShowCompact := test.Context.ShowCompact(test.Indent)
			if gotShowCompact != test.WantShowCompact {
				t.Errorf("ShowCompact() -> %q, want %q", gotShowCompact, test.WantShowCompact)
			}
		})
	}
}

func TestContext_Position(t *testing.T) {
	c := NewContext("a.js", "x;\n  y;", Ranging{5, 6})
	line, col := c.Position()
	if line != 2 || col != 3 {
		t.Errorf("Position() -> %d, %d, want 2, 3", line, col)
	}
	if got := NewContext("a.js", "", UnknownRanging).Describe(); got != "a.js" {
		t.Errorf("Describe() of unknown range -> %q, want %q", got, "a.js")
	}
}
