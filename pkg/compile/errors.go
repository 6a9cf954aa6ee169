package compile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja/parser"

	"src.jsil.dev/pkg/diag"
)

// syntaxErrorType is the Type of every compilation error. It doubles as the
// kind of the script-visible error raised when eval code fails to compile.
const syntaxErrorType = "SyntaxError"

func (c *compiler) errorpf(r diag.Ranger, format string, args ...any) {
	// The panic is caught by the recover in generate.
	panic(&diag.Error{
		Type:    syntaxErrorType,
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(c.name, c.src, r)})
}

// GetCompilationError returns a *diag.Error if the given value is a
// compilation error. Otherwise it returns nil.
func GetCompilationError(e any) *diag.Error {
	if e, ok := e.(*diag.Error); ok && e.Type == syntaxErrorType {
		return e
	}
	return nil
}

// parseError converts an error from the parser into a compilation error.
func parseError(name, src string, err error) *diag.Error {
	var pe *parser.Error
	switch err := err.(type) {
	case parser.ErrorList:
		if len(err) > 0 {
			pe = err[0]
		}
	case *parser.Error:
		pe = err
	}
	if pe == nil {
		return &diag.Error{
			Type: syntaxErrorType, Message: err.Error(),
			Context: *diag.NewContext(name, src, diag.UnknownRanging)}
	}
	pos := offsetOf(src, pe.Position.Line, pe.Position.Column)
	return &diag.Error{
		Type: syntaxErrorType, Message: pe.Message,
		Context: *diag.NewContext(name, src, diag.PointRanging(pos))}
}

// offsetOf converts a 1-based line and character column to a byte offset.
func offsetOf(src string, line, col int) int {
	if line <= 0 {
		return -1
	}
	i := 0
	for l := 1; l < line; l++ {
		j := strings.IndexByte(src[i:], '\n')
		if j < 0 {
			return len(src)
		}
		i += j + 1
	}
	for c := 1; c < col && i < len(src) && src[i] != '\n'; c++ {
		_, n := utf8.DecodeRuneInString(src[i:])
		i += n
	}
	return i
}
