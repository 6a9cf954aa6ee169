// Package compile lowers goja ASTs to programs for the vm package.
//
// A compilation unit is a global program, the code of an eval call or,
// nested inside those, a function. Each unit goes through the states of a
// Unit: it is parsed, optimized (scope analysis and type inference), and
// finally lowered to an emit.Program. Lowering errors such as misused labels
// are reported as *diag.Error values with Type "SyntaxError".
package compile

import (
	"fmt"

	"github.com/dop251/goja/ast"

	"src.jsil.dev/pkg/diag"
	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/logutil"
	"src.jsil.dev/pkg/scope"
	"src.jsil.dev/pkg/types"
)

var logger = logutil.GetLogger("[compile] ")

// compiler maintains the states needed when compiling a single unit.
type compiler struct {
	name string
	src  string
	opts CompilerOptions
	tree *scope.Tree
	// The function being lowered.
	fn *funcState
	// Function declarations already bound by hoisting.
	hoisted map[*ast.FunctionDeclaration]bool
}

// funcState is the state of lowering one function or unit.
type funcState struct {
	parent *funcState
	e      *emit.Emitter
	kind   emit.UnitKind
	// The scope of the function, and the innermost scope being lowered.
	scope *scope.Scope
	cur   *scope.Scope
	ctx   OptimizationContext

	// Local holding the completion value of global and eval units, or -1.
	completion int32
	// Return slot and target, allocated on the first return crossing a
	// protected region.
	retLocal int32
	retLabel emit.Label
	// Int32 locals standing in for loop counters.
	overrides map[*scope.Variable]int32
	// Offset of the last marked label.
	markedAt int
	// Set for class constructors and methods, which can refer to super.
	classMethod bool
	// Set for constructors of derived classes, which can call super.
	derived bool
}

func newFuncState(parent *funcState, e *emit.Emitter, kind emit.UnitKind, s *scope.Scope) *funcState {
	return &funcState{
		parent: parent, e: e, kind: kind, scope: s, cur: s,
		completion: -1, retLocal: -1, markedAt: -1,
		overrides: make(map[*scope.Variable]int32),
	}
}

// internalError is raised by panics on inconsistencies of the compiler
// itself. Unlike compilation errors, they are not recovered.
type internalError struct{ msg string }

func (e *internalError) Error() string { return "internal compiler error: " + e.msg }

func internalf(format string, args ...any) {
	panic(&internalError{fmt.Sprintf(format, args...)})
}

func (c *compiler) emit(op emit.Opcode, operands ...int32) int {
	return c.fn.e.Emit(op, operands...)
}

func (c *compiler) label() emit.Label { return c.fn.e.NewLabel() }

func (c *compiler) mark(l emit.Label) {
	c.fn.e.Mark(l)
	c.fn.markedAt = c.fn.e.PC()
}

func (c *compiler) jump(op emit.Opcode, l emit.Label, operands ...int32) {
	c.fn.e.EmitJump(op, l, operands...)
}

// at sets the source position of the following instructions.
func (c *compiler) at(n ast.Node) { c.fn.e.SetPos(scope.Offset(n)) }

func (c *compiler) str(s string) int32 { return c.fn.e.String(s) }

// nameOperand encodes a string constant as a name+1 operand.
func (c *compiler) nameOperand(s string) int32 { return c.str(s) + 1 }

func (c *compiler) rangeOf(n ast.Node) diag.Ranging {
	return diag.Ranging{From: scope.Offset(n), To: scope.End(n)}
}

// sourceOf returns the source text of a node, shortened for messages.
func (c *compiler) sourceOf(n ast.Node) string {
	from, to := scope.Offset(n), scope.End(n)
	if from < 0 || to > len(c.src) || from > to {
		return ""
	}
	s := c.src[from:to]
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}

// widen converts the value on top of the stack from static type from to the
// representation of static type to. Only integers have a representation of
// their own, so only a change away from Int32 emits code.
func (c *compiler) widen(from, to types.Type) {
	if from == to || from == types.None {
		return
	}
	if to == types.Int32 {
		internalf("narrowing %v to %v", from, to)
	}
	if from != types.Int32 {
		return
	}
	code := c.fn.e.Program().Code
	n := len(code)
	if n > 0 && code[n-1].Op == emit.LoadInt && c.fn.markedAt != n {
		// Nothing jumps between the constant and the conversion.
		code[n-1] = emit.Instruction{Op: emit.LoadConst, A: c.fn.e.Number(float64(code[n-1].A)), Pos: code[n-1].Pos}
		return
	}
	c.emit(emit.Conv, int32(types.Box))
}

// subsumes reports whether values of static type from can be stored where
// static type to is expected.
func subsumes(to, from types.Type) bool {
	switch {
	case from == to, from == types.None, to == types.Any:
		return true
	case to == types.Number:
		return from == types.Int32
	}
	return false
}

// storeTo widens the value on top of the stack to the static type of a
// destination, checking that no information is lost.
func (c *compiler) storeTo(from, to types.Type) {
	if !subsumes(to, from) {
		internalf("storing %v into %v", from, to)
	}
	c.widen(from, to)
}
