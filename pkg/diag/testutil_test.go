package diag

import (
	"strings"
	"testing"
)

func setMarkers(t *testing.T, cStart, cEnd, mStart, mEnd string) {
	t.Helper()
	saved := [4]string{culpritStart, culpritEnd, messageStart, messageEnd}
	culpritStart, culpritEnd, messageStart, messageEnd = cStart, cEnd, mStart, mEnd
	t.Cleanup(func() {
		culpritStart, culpritEnd, messageStart, messageEnd = saved[0], saved[1], saved[2], saved[3]
	})
}

// contextInParen returns a Context covering the first parenthesized span of
// the source, parentheses included.
func contextInParen(name, src string) *Context {
	return NewContext(name, src,
		Ranging{strings.Index(src, "("), strings.Index(src, ")") + 1})
}

func lines(ss ...string) string { return strings.Join(ss, "\n") }
