// Package scope builds the compile-time scope tree of a goja AST: the
// declared variables of every scope, the optimization hints of every
// function, and which variables are captured by nested functions or exposed
// to dynamic lookup.
package scope

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"src.jsil.dev/pkg/types"
)

// Kind is the kind of a scope.
type Kind uint8

// Scope kinds.
const (
	Global Kind = iota
	Eval
	Function
	Block
	Catch
	With
)

var kindNames = [...]string{"global", "eval", "function", "block", "catch", "with"}

func (k Kind) String() string { return kindNames[k] }

// VarKind is the kind of a declaration.
type VarKind uint8

// Declaration kinds.
const (
	Var VarKind = iota
	Let
	Const
	Class
	Param
	FunctionDecl
	CatchParam
	// FunctionName is the binding of a named function expression to itself.
	FunctionName
	// Arguments is the implicit arguments object of a function.
	Arguments
)

var varKindNames = [...]string{"var", "let", "const", "class", "param", "function", "catch", "funcname", "arguments"}

func (k VarKind) String() string { return varKindNames[k] }

// IsLexical reports whether bindings of kind k are subject to the temporal
// dead zone.
func (k VarKind) IsLexical() bool { return k == Let || k == Const || k == Class }

// IsImmutable reports whether assignments to bindings of kind k fail.
func (k VarKind) IsImmutable() bool { return k == Const }

// Hints is the optimization fact sheet of a function.
type Hints struct {
	// Eval is set when the body contains a direct call to eval.
	Eval bool
	// Arguments is set when the body refers to the arguments object.
	Arguments bool
	// This is set when the body, or an arrow function in it, refers to
	// this.
	This bool
	// NestedFunctions is set when the body declares functions, arrows or
	// classes.
	NestedFunctions bool
	// NewTarget is set when the body refers to new.target.
	NewTarget bool
	// Super is set when the body refers to super.
	Super bool
}

// AssignKind classifies the assignments recorded for a variable.
type AssignKind uint8

// Assignment kinds.
const (
	// AssignInit is the initializer of a declaration.
	AssignInit AssignKind = iota
	// AssignPlain is an assignment expression; Op is token.ASSIGN or the
	// operator of a compound assignment.
	AssignPlain
	// AssignUpdate is an increment or decrement.
	AssignUpdate
	// AssignKey is a for-in binding, always a string.
	AssignKey
	// AssignUnknown is any other binding: parameters, destructuring,
	// for-of and catch parameters.
	AssignUnknown
	// AssignFunction is a function or class declaration.
	AssignFunction
)

// Assignment is a place where a variable receives a value.
type Assignment struct {
	Kind  AssignKind
	Op    token.Token
	Value ast.Expression
	// Node is the assignment or update expression, or the declaration.
	Node   ast.Node
	Offset int
}

// Reference is a use of a name in an expression.
type Reference struct {
	Name   string
	Scope  *Scope
	Var    *Variable
	Offset int
	Write  bool

	compound bool
	assign   *Assignment
}

// Variable is a declared name.
type Variable struct {
	Name  string
	Kind  VarKind
	Scope *Scope
	// Captured is set when a nested function refers to the variable.
	Captured bool
	// Dominated is set when the first declaration has an initializer
	// that runs before every reference, so the variable can never be
	// observed uninitialized.
	Dominated bool

	Refs        []*Reference
	Assignments []Assignment

	declStart, declEnd int
	declList           *stmtList
	hasInit            bool

	// Type is the static type inferred for the variable; Any unless the
	// compiler narrows it.
	Type types.Type
	// Storage is assigned by the compiler.
	Storage Storage
}

// StorageKind says where a variable lives at run time.
type StorageKind uint8

// Storage kinds.
const (
	// Unallocated variables have not been laid out yet.
	Unallocated StorageKind = iota
	// LocalStorage is a local slot of the activation.
	LocalStorage
	// SlotStorage is a slot of the runtime record of the variable's scope.
	SlotStorage
	// DynamicStorage is a property or binding found by name at run time.
	DynamicStorage
)

// Storage is the runtime location of a variable.
type Storage struct {
	Kind  StorageKind
	Index int32
}

// NeedsTDZCheck reports whether accesses to v must check for an
// uninitialized binding.
func (v *Variable) NeedsTDZCheck() bool {
	return v.Kind.IsLexical() && !v.Dominated
}

// Scope is a node of the scope tree.
type Scope struct {
	Kind     Kind
	Parent   *Scope
	Children []*Scope
	Node     ast.Node
	Strict   bool

	// Vars holds the declared variables in declaration order.
	Vars   []*Variable
	byName map[string]*Variable

	// Function scopes only.
	Hints        Hints
	Params       []*Variable
	SimpleParams bool
	Arrow        bool
	IsMethod     bool
	// IsDeclaration is set for the scope of a function declaration, which
	// may be called before the statements preceding it have run.
	IsDeclaration bool

	// Dynamic is set when a direct eval in this scope or a nested one can
	// refer to the variables of this scope by name; they are then kept in
	// Named runtime records.
	Dynamic bool
	// Materialized is set when the scope has a runtime record.
	Materialized bool
}

func newScope(kind Kind, parent *Scope, node ast.Node) *Scope {
	s := &Scope{Kind: kind, Parent: parent, Node: node, byName: make(map[string]*Variable)}
	if parent != nil {
		parent.Children = append(parent.Children, s)
		s.Strict = parent.Strict
	}
	return s
}

// Lookup returns the variable a scope itself declares.
func (s *Scope) Lookup(name string) *Variable { return s.byName[name] }

// IsFunctionBoundary reports whether s is the scope of a unit or function.
func (s *Scope) IsFunctionBoundary() bool {
	return s.Kind == Global || s.Kind == Eval || s.Kind == Function
}

// Func returns the nearest enclosing unit or function scope, which receives
// var declarations.
func (s *Scope) Func() *Scope {
	for !s.IsFunctionBoundary() {
		s = s.Parent
	}
	return s
}

// ThisFunc returns the nearest enclosing scope that binds this: a unit or a
// non-arrow function.
func (s *Scope) ThisFunc() *Scope {
	f := s.Func()
	for f.Kind == Function && f.Arrow {
		f = f.Parent.Func()
	}
	return f
}

// IsEvalVarScope reports whether a non-strict direct eval can add var
// bindings to s at run time.
func (s *Scope) IsEvalVarScope() bool {
	return s.Kind == Function && s.Hints.Eval && !s.Strict
}

// Named reports whether the runtime record of s can be searched by name.
func (s *Scope) Named() bool { return s.Dynamic }

func (s *Scope) declare(name string, kind VarKind) (*Variable, bool) {
	if v, ok := s.byName[name]; ok {
		return v, false
	}
	v := &Variable{Name: name, Kind: kind, Scope: s, Type: types.Any, declStart: -1}
	s.byName[name] = v
	s.Vars = append(s.Vars, v)
	return v, true
}
