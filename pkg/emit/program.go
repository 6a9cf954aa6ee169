// Package emit implements the low-level instruction emitter: labels, typed
// local slots, protected regions, and the finished Program container that the
// virtual machine executes.
package emit

import (
	"src.jsil.dev/pkg/diag"
	"src.jsil.dev/pkg/types"
)

// UnitKind is the kind of a compilation unit.
type UnitKind uint8

// Unit kinds.
const (
	GlobalUnit UnitKind = iota
	EvalUnit
	FunctionUnit
)

var unitKindNames = [...]string{"global", "eval", "function"}

func (k UnitKind) String() string { return unitKindNames[k] }

// FuncFlags describe how a function unit is called.
type FuncFlags uint16

// Function flags.
const (
	Arrow FuncFlags = 1 << iota
	Method
	ClassConstructor
	Derived
	// NoConstruct marks functions that cannot be used with new: arrows and
	// methods.
	NoConstruct
)

// Instruction is one VM instruction.
type Instruction struct {
	Op      Opcode
	A, B, C int32
	// Pos is the source offset the instruction was generated for, or -1.
	Pos int32
}

// LiteralKind is the kind of a constant.
type LiteralKind uint8

// Literal kinds.
const (
	NumberLiteral LiteralKind = iota
	StringLiteral
	RegExpLiteral
	TemplateLiteral
)

// Literal is a constant of a Program.
type Literal struct {
	Kind LiteralKind
	Num  float64 `json:",omitempty"`
	Str  string  `json:",omitempty"`
	// Flags of a regexp literal.
	Flags string `json:",omitempty"`
	// Cooked and raw strings of a template literal. A nil cooked string is
	// an invalid escape sequence in a tagged template.
	Cooked []*string `json:",omitempty"`
	Raw    []string  `json:",omitempty"`
}

// LocalInfo describes a local slot of an activation.
type LocalInfo struct {
	Name string
	Type types.Type
}

// ScopeInfo describes a runtime scope record pushed by PushScope.
type ScopeInfo struct {
	// Named is set for records that can be searched by name.
	Named bool
	// VarScope marks a Named record receiving var declarations from eval.
	VarScope  bool
	Names     []string
	Immutable []bool
	// Lexical slots start out uninitialized.
	Lexical []bool
}

// Region is a protected region. The protected body occupies [Start, End);
// the handler occupies [End, Exit). The handler is entered with the caught
// exception (or undefined for a long jump) and the route (0 for an
// exception) pushed on top of the stack height at the Try instruction.
type Region struct {
	Start, End, Exit int32
}

// Program is a finished compilation unit.
type Program struct {
	Name string
	Kind UnitKind
	// Source and SourceName are only recorded on the outermost program;
	// nested methods share them after Link.
	SourceName string `json:",omitempty"`
	Source     string `json:",omitempty"`
	Strict     bool
	Flags      FuncFlags
	// Params is the value of the length property of function units.
	Params int

	Code       []Instruction
	Consts     []Literal
	Locals     []LocalInfo
	Scopes     []ScopeInfo
	Regions    []Region
	Methods    []*Program
	CacheSlots int
	MaxStack   int

	root *Program
}

// Link makes the nested methods of p share its source. It must be called on
// programs restored from serialized form.
func (p *Program) Link() {
	var link func(q *Program)
	link = func(q *Program) {
		q.root = p
		for _, m := range q.Methods {
			link(m)
		}
	}
	link(p)
}

func (p *Program) rootProgram() *Program {
	if p.root != nil {
		return p.root
	}
	return p
}

// SourceContext returns the source context of an instruction position.
func (p *Program) SourceContext(pos int32) *diag.Context {
	root := p.rootProgram()
	if pos < 0 || int(pos) > len(root.Source) {
		return diag.NewContext(root.SourceName, root.Source, diag.UnknownRanging)
	}
	return diag.NewContext(root.SourceName, root.Source, diag.PointRanging(int(pos)))
}

// String returns the string constant at index i.
func (p *Program) String(i int32) string { return p.Consts[i].Str }

// Has reports whether the function flags include f.
func (p *Program) Has(f FuncFlags) bool { return p.Flags&f != 0 }
