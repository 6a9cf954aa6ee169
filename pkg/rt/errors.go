package rt

import (
	"bytes"
	"fmt"

	"src.jsil.dev/pkg/diag"
)

// ErrorKind is the kind of a built-in error object.
type ErrorKind uint8

// Error kinds.
const (
	Error ErrorKind = iota
	TypeError
	ReferenceError
	SyntaxError
	RangeError
	EvalError
)

var errorKindNames = [...]string{
	Error:          "Error",
	TypeError:      "TypeError",
	ReferenceError: "ReferenceError",
	SyntaxError:    "SyntaxError",
	RangeError:     "RangeError",
	EvalError:      "EvalError",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// ErrorKinds lists all error kinds.
var ErrorKinds = []ErrorKind{Error, TypeError, ReferenceError, SyntaxError, RangeError, EvalError}

// ParseErrorKind returns the kind with the given name.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for k, n := range errorKindNames {
		if n == name {
			return ErrorKind(k), true
		}
	}
	return 0, false
}

// Exception carries a thrown script value out of the code that threw it. It
// is the only error type script code can catch.
type Exception struct {
	Value Value
	Trace *StackTrace
}

// StackTrace is a linked list of source contexts; the head is the innermost
// activation.
type StackTrace struct {
	Head *diag.Context
	Next *StackTrace
}

// NewException wraps a thrown value.
func NewException(v Value) *Exception {
	return &Exception{Value: Normalize(v)}
}

// Error describes the thrown value. Error objects are described as
// "Name: message".
func (e *Exception) Error() string {
	return describeThrown(e.Value)
}

// Kind returns the error kind of a thrown error object, if it is one of the
// built-in kinds.
func (e *Exception) Kind() (ErrorKind, bool) {
	o, ok := e.Value.(*Object)
	if !ok || o.class != ClassError {
		return 0, false
	}
	name, _ := o.Get("name").(string)
	return ParseErrorKind(name)
}

// Show shows the exception with its stack trace.
func (e *Exception) Show(indent string) string {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "Uncaught %s", describeThrown(e.Value))
	for tb := e.Trace; tb != nil; tb = tb.Next {
		buf.WriteString("\n" + indent + "  at ")
		buf.WriteString(tb.Head.ShowCompact(indent + "     "))
	}
	return buf.String()
}

// AddFrame records one more activation the exception has unwound through.
func (e *Exception) AddFrame(c *diag.Context) {
	if e.Trace == nil {
		e.Trace = &StackTrace{Head: c}
		return
	}
	t := e.Trace
	for t.Next != nil {
		t = t.Next
	}
	t.Next = &StackTrace{Head: c}
}

func describeThrown(v Value) string {
	if o, ok := v.(*Object); ok && o.class == ClassError {
		name, _ := o.Get("name").(string)
		msg, _ := o.Get("message").(string)
		if msg == "" {
			return name
		}
		return name + ": " + msg
	}
	return ToDisplayString(v)
}

// NewError creates an error object of the given kind.
func (r *Realm) NewError(kind ErrorKind, msg string) *Object {
	o := NewObjectWithProto(r.errorPrototypes[kind], ClassError)
	if msg != "" {
		o.DefineValue("message", msg, false)
	}
	return o
}

// Throwf creates an exception carrying a new error object.
func (r *Realm) Throwf(kind ErrorKind, format string, args ...any) *Exception {
	return NewException(r.NewError(kind, fmt.Sprintf(format, args...)))
}

// ErrorPrototype returns the prototype of error objects of the given kind.
func (r *Realm) ErrorPrototype(kind ErrorKind) *Object { return r.errorPrototypes[kind] }
