package diag

import (
	"bytes"
	"errors"
	"testing"
)

func TestError(t *testing.T) {
	setMarkers(t, "<", ">", "{", "}")

	err := &Error{
		Type:    "SyntaxError",
		Message: "undefined label 'outer'",
		Context: *contextInParen("[test]", "f (x)"),
	}

	wantErrorString := "SyntaxError: [test]:1:3: undefined label 'outer'"
	if gotErrorString := err.Error(); gotErrorString != wantErrorString {
		t.Errorf("Error() -> %q, want %q", gotErrorString, wantErrorString)
	}

	wantRanging := Ranging{From: 2, To: 5}
	if gotRanging := err.Range(); gotRanging != wantRanging {
		t.Errorf("Range() -> %v, want %v", gotRanging, wantRanging)
	}

	wantShow := lines(
		"SyntaxError: {undefined label 'outer'}",
		"  [test]:1:3: f <(x)>")
	if gotShow := err.Show(""); gotShow != wantShow {
		t.Errorf("Show() -> %q, want %q", gotShow, wantShow)
	}
}

func TestShowError(t *testing.T) {
	var buf bytes.Buffer
	ShowError(&buf, errors.New("plain"))
	if want := "\033[31;1mplain\033[m\n"; buf.String() != want {
		t.Errorf("ShowError(plain) wrote %q, want %q", buf.String(), want)
	}
}
