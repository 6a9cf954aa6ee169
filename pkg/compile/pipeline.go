package compile

import (
	"bytes"
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/logutil"
	"src.jsil.dev/pkg/scope"
	"src.jsil.dev/pkg/types"
)

// State is the progress of a Unit through the pipeline.
type State uint8

// Unit states, in pipeline order.
const (
	Unparsed State = iota
	Parsed
	Optimized
	CodeGenerated
)

var stateNames = [...]string{"unparsed", "parsed", "optimized", "code-generated"}

func (s State) String() string { return stateNames[s] }

// Unit is a global or eval compilation unit moving through the pipeline:
// parsing, optimization and code generation. Each step runs the previous
// ones if needed and runs at most once.
type Unit struct {
	Kind    emit.UnitKind
	Name    string
	Source  string
	Options CompilerOptions
	// InheritedStrict is set for the code of a direct eval called from
	// strict code.
	InheritedStrict bool

	state   State
	program *ast.Program
	strict  bool
	tree    *scope.Tree
	code    *emit.Program
	err     error
}

// NewUnit creates a unit for the source of a global program or an eval
// call.
func NewUnit(kind emit.UnitKind, name, src string, opts CompilerOptions) *Unit {
	return &Unit{Kind: kind, Name: name, Source: src, Options: opts}
}

// State returns the pipeline state of the unit.
func (u *Unit) State() State { return u.state }

// Strict reports whether the unit is strict code. It is only meaningful
// once the unit is parsed.
func (u *Unit) Strict() bool { return u.strict }

// Tree returns the scope tree of an optimized unit.
func (u *Unit) Tree() *scope.Tree { return u.tree }

// Parse parses the source of the unit.
func (u *Unit) Parse() error {
	if u.state >= Parsed || u.err != nil {
		return u.err
	}
	p, err := parser.ParseFile(nil, u.Name, u.Source, parser.IgnoreRegExpErrors, parser.WithDisableSourceMaps)
	if err != nil {
		u.err = parseError(u.Name, u.Source, err)
		return u.err
	}
	u.program = p
	u.strict = u.Options.ForceStrictMode || u.InheritedStrict || scope.HasUseStrict(p.Body)
	u.state = Parsed
	return nil
}

// Optimize analyzes the scopes of the unit.
func (u *Unit) Optimize() error {
	if err := u.Parse(); err != nil || u.state >= Optimized {
		return err
	}
	kind := scope.Global
	if u.Kind == emit.EvalUnit {
		kind = scope.Eval
	}
	u.tree = scope.Analyze(u.program, kind, u.strict)
	u.state = Optimized
	return nil
}

// GenerateCode lowers the unit to a program.
func (u *Unit) GenerateCode() (*emit.Program, error) {
	if err := u.Optimize(); err != nil || u.state >= CodeGenerated {
		return u.code, err
	}
	c := &compiler{
		name: u.Name, src: u.Source, opts: u.Options, tree: u.tree,
		hoisted: make(map[*ast.FunctionDeclaration]bool),
	}
	u.code, u.err = c.generate(u.program, u.Kind)
	if u.err != nil {
		return nil, u.err
	}
	u.state = CodeGenerated
	if u.Options.EnableILAnalysis && logutil.DebugEnabled() {
		var buf bytes.Buffer
		emit.Disassemble(&buf, u.code)
		logger.Debugf("%s:\n%s", u.Name, buf.String())
	}
	return u.code, nil
}

// Compile runs a global or eval unit through the whole pipeline.
func Compile(kind emit.UnitKind, name, src string, opts CompilerOptions) (*emit.Program, error) {
	return NewUnit(kind, name, src, opts).GenerateCode()
}

// generate lowers a parsed and analyzed program. Compilation errors and
// internal errors are returned; other panics propagate.
func (c *compiler) generate(p *ast.Program, kind emit.UnitKind) (prog *emit.Program, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e := GetCompilationError(r); e != nil {
			prog, err = nil, e
			return
		}
		if ie, ok := r.(*internalError); ok {
			logger.Errorf("%s: %v", c.name, ie)
			prog, err = nil, ie
			return
		}
		panic(r)
	}()
	return c.unit(p, kind), nil
}

// unit lowers the top level of a global or eval unit.
func (c *compiler) unit(p *ast.Program, kind emit.UnitKind) *emit.Program {
	root := c.tree.Root
	e := emit.New(c.name, kind)
	prog := e.Program()
	prog.Source, prog.SourceName, prog.Strict = c.src, c.name, root.Strict
	c.fn = newFuncState(nil, e, kind, root)
	c.fn.completion = e.DeclareLocal("", types.Any)
	e.SetPos(0)
	c.emit(emit.LoadUndefined)
	c.emit(emit.StoreLocal, c.fn.completion)

	c.inferTypes(root)
	info, ok := c.layout(root)
	switch kind {
	case emit.GlobalUnit:
		for _, v := range root.Vars {
			if v.Kind.IsLexical() {
				c.emit(emit.DeclareLexical, c.str(v.Name), boolOperand(v.Kind.IsImmutable()))
			} else {
				c.emit(emit.DeclareVar, c.str(v.Name))
			}
		}
	case emit.EvalUnit:
		if ok {
			c.emit(emit.PushScope, e.Scope(info))
			c.fn.ctx.ScopeDepth++
		}
		if !root.Strict {
			for _, v := range root.Vars {
				if !v.Kind.IsLexical() {
					c.emit(emit.DeclareVar, c.str(v.Name))
				}
			}
		}
	default:
		internalf("unit of kind %v", kind)
	}
	c.hoistFunctions(p.Body)
	c.statements(p.Body)
	c.emit(emit.LoadLocal, c.fn.completion)
	c.emit(emit.Ret)
	return c.finish()
}

func boolOperand(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Describe returns a one-line summary of a program, for logs.
func Describe(p *emit.Program) string {
	n := 0
	var count func(q *emit.Program)
	count = func(q *emit.Program) {
		n++
		for _, m := range q.Methods {
			count(m)
		}
	}
	count(p)
	return fmt.Sprintf("%s unit %s: %d instructions, %d functions", p.Kind, p.Name, len(p.Code), n-1)
}
