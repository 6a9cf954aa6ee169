package compile

import (
	"github.com/dop251/goja/ast"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/rt"
	"src.jsil.dev/pkg/scope"
	"src.jsil.dev/pkg/types"
)

// funcKind says how a function unit is invoked.
type funcKind uint8

const (
	plainFunc funcKind = iota
	arrowFunc
	objectMethod
	classMethod
	baseConstructor
	derivedConstructor
)

func (k funcKind) flags() emit.FuncFlags {
	switch k {
	case arrowFunc:
		return emit.Arrow | emit.NoConstruct
	case objectMethod, classMethod:
		return emit.Method | emit.NoConstruct
	case baseConstructor:
		return emit.ClassConstructor
	case derivedConstructor:
		return emit.ClassConstructor | emit.Derived
	}
	return 0
}

// functionLiteral lowers a function expression or declaration to the
// creation of a closure.
func (c *compiler) functionLiteral(lit *ast.FunctionLiteral, name string) types.Type {
	if lit.Name != nil {
		name = lit.Name.Name.String()
	}
	p := c.function(lit, name, plainFunc)
	c.emit(emit.MakeClosure, c.fn.e.Method(p))
	return types.Object
}

func (c *compiler) arrowLiteral(lit *ast.ArrowFunctionLiteral, name string) types.Type {
	p := c.function(lit, name, arrowFunc)
	c.emit(emit.MakeClosure, c.fn.e.Method(p))
	return types.Object
}

func (c *compiler) methodLiteral(lit *ast.FunctionLiteral, name string) types.Type {
	p := c.function(lit, name, objectMethod)
	c.emit(emit.MakeClosure, c.fn.e.Method(p))
	return types.Object
}

// function compiles the unit of a function literal, arrow or method body.
func (c *compiler) function(node ast.Node, name string, kind funcKind) *emit.Program {
	var (
		params   *ast.ParameterList
		body     []ast.Statement
		exprBody ast.Expression
		selfName *ast.Identifier
	)
	switch lit := node.(type) {
	case *ast.FunctionLiteral:
		if lit.Async {
			c.errorpf(c.rangeOf(lit), "async functions are not supported")
		}
		if lit.Generator {
			c.errorpf(c.rangeOf(lit), "generator functions are not supported")
		}
		params, body, selfName = lit.ParameterList, lit.Body.List, lit.Name
	case *ast.ArrowFunctionLiteral:
		if lit.Async {
			c.errorpf(c.rangeOf(lit), "async functions are not supported")
		}
		params = lit.ParameterList
		switch b := lit.Body.(type) {
		case *ast.BlockStatement:
			body = b.List
		case *ast.ExpressionBody:
			exprBody = b.Expression
		}
	default:
		internalf("function from %T", node)
	}
	s := c.tree.ScopeOf(node)
	if s == nil {
		internalf("no scope for function %q", name)
	}

	e := emit.New(name, emit.FunctionUnit)
	p := e.Program()
	p.Strict = s.Strict
	p.Flags = kind.flags()
	p.Params = paramCount(params)

	saved := c.fn
	c.fn = newFuncState(saved, e, emit.FunctionUnit, s)
	c.fn.classMethod = kind == classMethod || kind == baseConstructor || kind == derivedConstructor
	c.fn.derived = kind == derivedConstructor
	defer func() { c.fn = saved }()

	c.at(node)
	c.inferTypes(s)
	if info, ok := c.layout(s); ok {
		c.emit(emit.PushScope, e.Scope(info))
		c.fn.ctx.ScopeDepth++
	}
	if !s.Strict && !s.Arrow && s.Hints.This {
		c.emit(emit.CoerceThis)
	}
	if selfName != nil {
		if v := s.Lookup(selfName.Name.String()); v != nil && v.Kind == scope.FunctionName && len(v.Refs) > 0 {
			c.emit(emit.LoadFunction)
			c.storeName(v.Name, types.Object, true)
		}
	}
	if v := s.Lookup("arguments"); v != nil && v.Kind == scope.Arguments {
		c.emit(emit.LoadArguments)
		c.storeName(v.Name, types.Object, true)
	}
	c.initLexicals(s)
	c.params(s, params)
	c.hoistFunctions(body)

	if exprBody != nil {
		c.at(exprBody)
		c.exprAny(exprBody)
		c.emit(emit.Ret)
	} else {
		c.statements(body)
		c.emit(emit.LoadUndefined)
		c.emit(emit.Ret)
	}
	c.finishReturn()
	return c.finish()
}

// finishReturn emits the common exit of returns that cross protected
// regions.
func (c *compiler) finishReturn() {
	if c.fn.retLocal < 0 {
		return
	}
	c.mark(c.fn.retLabel)
	c.emit(emit.LoadLocal, c.fn.retLocal)
	c.emit(emit.Ret)
}

func (c *compiler) finish() *emit.Program {
	p, err := c.fn.e.Finish(c.opts.EnableILAnalysis)
	if err != nil {
		internalf("%v", err)
	}
	return p
}

// paramCount is the number of parameters before the first one with a
// default value or the rest parameter.
func paramCount(pl *ast.ParameterList) int {
	n := 0
	for _, b := range pl.List {
		if b.Initializer != nil {
			break
		}
		n++
	}
	return n
}

// params binds the parameters of a function. With simple parameter lists,
// the last of several parameters with the same name wins.
func (c *compiler) params(s *scope.Scope, pl *ast.ParameterList) {
	if s.SimpleParams {
		seen := make(map[string]bool)
		for i := len(pl.List) - 1; i >= 0; i-- {
			name := pl.List[i].Target.(*ast.Identifier).Name.String()
			if seen[name] {
				continue
			}
			seen[name] = true
			c.emit(emit.LoadArg, int32(i))
			c.storeName(name, types.Any, true)
		}
		return
	}
	for i, b := range pl.List {
		c.at(b)
		c.emit(emit.LoadArg, int32(i))
		if b.Initializer != nil {
			c.defaultValue(b.Initializer, targetName(b.Target))
		}
		c.bindPattern(b.Target, bindInit, types.Any)
	}
	if pl.Rest != nil {
		c.at(pl.Rest)
		c.emit(emit.LoadRestArgs, int32(len(pl.List)))
		c.bindPattern(pl.Rest, bindInit, types.Any)
	}
}

// defaultValue replaces an undefined value on top of the stack with the
// value of init.
func (c *compiler) defaultValue(init ast.Expression, name string) {
	skip := c.label()
	c.emit(emit.Dup)
	c.emit(emit.LoadUndefined)
	c.emit(emit.Binary, int32(rt.OpStrictEq))
	c.jump(emit.JumpIfFalse, skip)
	c.emit(emit.Pop)
	c.widen(c.namedExpr(init, name), types.Any)
	c.mark(skip)
}

func targetName(e ast.Expression) string {
	if id, ok := e.(*ast.Identifier); ok {
		return id.Name.String()
	}
	return ""
}

// namedExpr lowers an expression, giving anonymous functions and classes
// the name of the binding they are assigned to.
func (c *compiler) namedExpr(e ast.Expression, name string) types.Type {
	switch e := e.(type) {
	case *ast.FunctionLiteral:
		if e.Name == nil {
			c.at(e)
			return c.functionLiteral(e, name)
		}
	case *ast.ArrowFunctionLiteral:
		c.at(e)
		return c.arrowLiteral(e, name)
	case *ast.ClassLiteral:
		if e.Name == nil {
			c.at(e)
			return c.classLiteral(e, name)
		}
	}
	return c.expr(e)
}

// classLiteral lowers a class to its constructor and prototype methods,
// leaving the constructor on the stack.
func (c *compiler) classLiteral(lit *ast.ClassLiteral, name string) types.Type {
	if lit.Name != nil {
		name = lit.Name.Name.String()
	}
	derived := lit.SuperClass != nil
	if derived {
		c.exprAny(lit.SuperClass)
	}
	s := c.tree.ScopeOf(lit)
	prev := c.enterScope(s, nil)

	var ctor *ast.MethodDefinition
	var methods []*ast.MethodDefinition
	for _, el := range lit.Body {
		switch el := el.(type) {
		case *ast.MethodDefinition:
			if isConstructor(el) {
				ctor = el
				continue
			}
			if el.Kind != ast.PropertyKindMethod {
				c.errorpf(c.rangeOf(el), "getters and setters are not supported")
			}
			methods = append(methods, el)
		case *ast.FieldDefinition:
			c.errorpf(c.rangeOf(el), "class fields are not supported")
		case *ast.ClassStaticBlock:
			c.errorpf(c.rangeOf(el), "class static blocks are not supported")
		default:
			c.errorpf(c.rangeOf(el), "unsupported class element")
		}
	}

	kind := baseConstructor
	if derived {
		kind = derivedConstructor
	}
	var cp *emit.Program
	if ctor != nil {
		cp = c.function(ctor.Body, name, kind)
	} else {
		cp = c.defaultConstructor(name, kind)
	}
	c.at(lit)
	hasSuper := int32(0)
	if derived {
		hasSuper = 1
	}
	c.emit(emit.MakeClass, c.fn.e.Method(cp), hasSuper)

	for _, md := range methods {
		c.at(md)
		key := ""
		if md.Computed {
			c.exprAny(md.Key)
		} else {
			key = c.propertyKey(md.Key)
			c.emit(emit.LoadConst, c.str(key))
		}
		mp := c.function(md.Body, key, classMethod)
		static := int32(0)
		if md.Static {
			static = 1
		}
		c.emit(emit.DefineMethod, c.fn.e.Method(mp), static)
	}
	c.emit(emit.Pop)

	if lit.Name != nil {
		if v := s.Lookup(name); v != nil && len(v.Refs) > 0 {
			c.emit(emit.Dup)
			c.storeName(name, types.Object, true)
		}
	}
	c.exitScope(s, prev)
	return types.Object
}

func isConstructor(md *ast.MethodDefinition) bool {
	if md.Static || md.Computed || md.Kind != ast.PropertyKindMethod {
		return false
	}
	lit, ok := md.Key.(*ast.StringLiteral)
	return ok && lit.Value == "constructor"
}

// defaultConstructor synthesizes the constructor of a class that declares
// none. A derived one passes all its arguments to the parent constructor.
func (c *compiler) defaultConstructor(name string, kind funcKind) *emit.Program {
	e := emit.New(name, emit.FunctionUnit)
	p := e.Program()
	p.Strict = true
	p.Flags = kind.flags()
	e.SetPos(c.fn.e.Pos())
	if kind == derivedConstructor {
		e.Emit(emit.LoadRestArgs, 0)
		e.Emit(emit.SuperCallSpread)
		e.Emit(emit.Pop)
	}
	e.Emit(emit.LoadUndefined)
	e.Emit(emit.Ret)
	p, err := e.Finish(c.opts.EnableILAnalysis)
	if err != nil {
		internalf("%v", err)
	}
	return p
}
