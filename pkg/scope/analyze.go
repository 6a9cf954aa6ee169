package scope

import (
	"math"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// Tree is the result of analyzing a program.
type Tree struct {
	Root   *Scope
	scopes map[ast.Node]*Scope
	refs   []*Reference
	byPos  map[int]*Reference
}

// ScopeOf returns the scope created by a node: a program, function or arrow
// literal, class literal, block, loop, switch, catch clause or with
// statement. It returns nil for nodes that do not create scopes.
func (t *Tree) ScopeOf(n ast.Node) *Scope { return t.scopes[n] }

// RefAt returns the reference recorded for the identifier starting at
// offset, or nil.
func (t *Tree) RefAt(offset int) *Reference {
	if t.byPos == nil {
		t.byPos = make(map[int]*Reference, len(t.refs))
		for _, r := range t.refs {
			t.byPos[r.Offset] = r
		}
	}
	return t.byPos[offset]
}

// Offset converts a goja file index to a byte offset into the source.
func Offset(n ast.Node) int { return int(n.Idx0()) - 1 }

// End converts the end index of a node to a byte offset.
func End(n ast.Node) int { return int(n.Idx1()) - 1 }

// stmtList is the extent of a statement list a declaration belongs to.
type stmtList struct {
	start, end int
	switchCase bool
}

type analyzer struct {
	tree *Tree
	cur  *Scope
	list *stmtList
}

// Analyze builds the scope tree of a parsed program. kind is Global or Eval;
// strict forces strict mode on top of any "use strict" directive.
func Analyze(p *ast.Program, kind Kind, strict bool) *Tree {
	t := &Tree{scopes: make(map[ast.Node]*Scope)}
	a := &analyzer{tree: t}
	root := a.push(kind, p)
	root.Strict = strict || HasUseStrict(p.Body)
	t.Root = root
	a.list = &stmtList{start: 0, end: math.MaxInt}
	a.statements(p.Body)
	a.resolveAll()
	a.finish(root)
	return t
}

// HasUseStrict reports whether a statement list starts with a directive
// prologue containing "use strict".
func HasUseStrict(body []ast.Statement) bool {
	for _, st := range body {
		es, ok := st.(*ast.ExpressionStatement)
		if !ok {
			return false
		}
		lit, ok := es.Expression.(*ast.StringLiteral)
		if !ok {
			return false
		}
		if lit.Literal == `"use strict"` || lit.Literal == `'use strict'` {
			return true
		}
	}
	return false
}

func (a *analyzer) push(kind Kind, n ast.Node) *Scope {
	s := newScope(kind, a.cur, n)
	a.tree.scopes[n] = s
	a.cur = s
	return s
}

func (a *analyzer) pop() { a.cur = a.cur.Parent }

func (a *analyzer) withList(l *stmtList, f func()) {
	saved := a.list
	a.list = l
	f()
	a.list = saved
}

func (a *analyzer) statements(list []ast.Statement) {
	for _, st := range list {
		a.statement(st)
	}
}

func (a *analyzer) block(b *ast.BlockStatement) {
	a.push(Block, b)
	a.withList(&stmtList{start: Offset(b), end: End(b)}, func() { a.statements(b.List) })
	a.pop()
}

func (a *analyzer) statement(st ast.Statement) {
	switch st := st.(type) {
	case *ast.BlockStatement:
		a.block(st)
	case *ast.VariableStatement:
		a.bindings(st.List, Var)
	case *ast.LexicalDeclaration:
		a.bindings(st.List, lexicalKind(st.Token))
	case *ast.FunctionDeclaration:
		v := a.declare(a.cur, st.Function.Name.Name.String(), FunctionDecl, st, true)
		v.Assignments = append(v.Assignments, Assignment{Kind: AssignFunction, Node: st, Offset: Offset(st)})
		a.function(st.Function, true, false)
	case *ast.ClassDeclaration:
		v := a.declare(a.cur, st.Class.Name.Name.String(), Class, st, true)
		v.Assignments = append(v.Assignments, Assignment{Kind: AssignFunction, Node: st, Offset: Offset(st)})
		a.class(st.Class)
	case *ast.ExpressionStatement:
		a.expr(st.Expression)
	case *ast.IfStatement:
		a.expr(st.Test)
		a.statement(st.Consequent)
		if st.Alternate != nil {
			a.statement(st.Alternate)
		}
	case *ast.WhileStatement:
		a.expr(st.Test)
		a.statement(st.Body)
	case *ast.DoWhileStatement:
		a.statement(st.Body)
		a.expr(st.Test)
	case *ast.ForStatement:
		a.push(Block, st)
		a.withList(&stmtList{start: Offset(st), end: End(st)}, func() {
			switch init := st.Initializer.(type) {
			case *ast.ForLoopInitializerVarDeclList:
				a.bindings(init.List, Var)
			case *ast.ForLoopInitializerLexicalDecl:
				a.bindings(init.LexicalDeclaration.List, lexicalKind(init.LexicalDeclaration.Token))
			case *ast.ForLoopInitializerExpression:
				a.expr(init.Expression)
			}
			if st.Test != nil {
				a.expr(st.Test)
			}
			if st.Update != nil {
				a.expr(st.Update)
			}
			a.statement(st.Body)
		})
		a.pop()
	case *ast.ForInStatement:
		a.forInto(st, st.Into, st.Source, st.Body, AssignKey)
	case *ast.ForOfStatement:
		a.forInto(st, st.Into, st.Source, st.Body, AssignUnknown)
	case *ast.LabelledStatement:
		a.statement(st.Statement)
	case *ast.ReturnStatement:
		if st.Argument != nil {
			a.expr(st.Argument)
		}
	case *ast.ThrowStatement:
		a.expr(st.Argument)
	case *ast.SwitchStatement:
		a.expr(st.Discriminant)
		a.push(Block, st)
		for _, c := range st.Body {
			if c.Test != nil {
				a.expr(c.Test)
			}
			if len(c.Consequent) == 0 {
				continue
			}
			a.withList(&stmtList{start: Offset(c), end: End(c), switchCase: true}, func() {
				a.statements(c.Consequent)
			})
		}
		a.pop()
	case *ast.TryStatement:
		a.block(st.Body)
		if c := st.Catch; c != nil {
			a.push(Catch, c)
			if c.Parameter != nil {
				a.withList(&stmtList{start: Offset(c), end: End(c)}, func() {
					a.pattern(c.Parameter, CatchParam, AssignUnknown, c)
				})
			}
			a.block(c.Body)
			a.pop()
		}
		if st.Finally != nil {
			a.block(st.Finally)
		}
	case *ast.WithStatement:
		a.expr(st.Object)
		a.push(With, st)
		a.cur.Materialized = true
		a.statement(st.Body)
		a.pop()
	}
}

func lexicalKind(tok token.Token) VarKind {
	if tok == token.CONST {
		return Const
	}
	return Let
}

func (a *analyzer) forInto(st ast.Statement, into ast.ForInto, source ast.Expression, body ast.Statement, kind AssignKind) {
	a.push(Block, st)
	a.withList(&stmtList{start: Offset(st), end: End(st)}, func() {
		switch into := into.(type) {
		case *ast.ForIntoVar:
			if into.Binding.Initializer != nil {
				a.expr(into.Binding.Initializer)
			}
			a.pattern(into.Binding.Target, Var, kind, into)
		case *ast.ForDeclaration:
			k := Let
			if into.IsConst {
				k = Const
			}
			a.pattern(into.Target, k, kind, into)
		case *ast.ForIntoExpression:
			a.assignTarget(into.Expression, kind)
		}
		a.expr(source)
		a.statement(body)
	})
	a.pop()
}

// bindings handles the bindings of a var, let or const declaration.
func (a *analyzer) bindings(list []*ast.Binding, kind VarKind) {
	for _, b := range list {
		if b.Initializer != nil {
			a.expr(b.Initializer)
		}
		if id, ok := b.Target.(*ast.Identifier); ok {
			v := a.declare(a.declScope(kind), id.Name.String(), kind, b, b.Initializer != nil)
			if b.Initializer != nil {
				v.Assignments = append(v.Assignments, Assignment{
					Kind: AssignInit, Op: token.ASSIGN, Value: b.Initializer, Node: b, Offset: Offset(b)})
			}
			continue
		}
		a.pattern(b.Target, kind, AssignUnknown, b)
	}
}

func (a *analyzer) declScope(kind VarKind) *Scope {
	if kind == Var {
		return a.cur.Func()
	}
	return a.cur
}

// declare adds a declaration of name to s, recording the first declaration
// site for dominance analysis.
func (a *analyzer) declare(s *Scope, name string, kind VarKind, site ast.Node, hasInit bool) *Variable {
	v, fresh := s.declare(name, kind)
	if fresh || v.declStart < 0 {
		v.declStart = Offset(site)
		v.declEnd = End(site)
		v.declList = a.list
		v.hasInit = hasInit
	} else if kind == FunctionDecl {
		v.Kind = FunctionDecl
	}
	return v
}

// pattern declares every name bound by a binding target.
func (a *analyzer) pattern(target ast.Expression, kind VarKind, assign AssignKind, site ast.Node) {
	switch t := target.(type) {
	case *ast.Identifier:
		v := a.declare(a.declScope(kind), t.Name.String(), kind, site, true)
		v.Assignments = append(v.Assignments, Assignment{Kind: assign, Node: site, Offset: Offset(t)})
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el == nil {
				continue
			}
			if as, ok := el.(*ast.AssignExpression); ok {
				a.expr(as.Right)
				a.pattern(as.Left, kind, AssignUnknown, site)
				continue
			}
			a.pattern(el, kind, AssignUnknown, site)
		}
		if t.Rest != nil {
			a.pattern(t.Rest, kind, AssignUnknown, site)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			switch p := p.(type) {
			case *ast.PropertyShort:
				if p.Initializer != nil {
					a.expr(p.Initializer)
				}
				a.pattern(&p.Name, kind, AssignUnknown, site)
			case *ast.PropertyKeyed:
				if p.Computed {
					a.expr(p.Key)
				}
				if as, ok := p.Value.(*ast.AssignExpression); ok {
					a.expr(as.Right)
					a.pattern(as.Left, kind, AssignUnknown, site)
					continue
				}
				a.pattern(p.Value, kind, AssignUnknown, site)
			}
		}
		if t.Rest != nil {
			a.pattern(t.Rest, kind, AssignUnknown, site)
		}
	}
}

// assignTarget records the writes of an assignment target that is not a
// declaration: an identifier, a member expression or a pattern.
func (a *analyzer) assignTarget(target ast.Expression, assign AssignKind) {
	switch t := target.(type) {
	case *ast.Identifier:
		r := a.ref(t.Name.String(), t, true)
		r.assign = &Assignment{Kind: assign, Node: t, Offset: Offset(t)}
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el == nil {
				continue
			}
			if as, ok := el.(*ast.AssignExpression); ok {
				a.expr(as.Right)
				a.assignTarget(as.Left, AssignUnknown)
				continue
			}
			a.assignTarget(el, AssignUnknown)
		}
		if t.Rest != nil {
			a.assignTarget(t.Rest, AssignUnknown)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			switch p := p.(type) {
			case *ast.PropertyShort:
				if p.Initializer != nil {
					a.expr(p.Initializer)
				}
				a.assignTarget(&p.Name, AssignUnknown)
			case *ast.PropertyKeyed:
				if p.Computed {
					a.expr(p.Key)
				}
				if as, ok := p.Value.(*ast.AssignExpression); ok {
					a.expr(as.Right)
					a.assignTarget(as.Left, AssignUnknown)
					continue
				}
				a.assignTarget(p.Value, AssignUnknown)
			}
		}
		if t.Rest != nil {
			a.assignTarget(t.Rest, AssignUnknown)
		}
	default:
		a.expr(target)
	}
}

func (a *analyzer) ref(name string, n ast.Node, write bool) *Reference {
	r := &Reference{Name: name, Scope: a.cur, Offset: Offset(n), Write: write}
	a.tree.refs = append(a.tree.refs, r)
	return r
}

func (a *analyzer) exprs(list []ast.Expression) {
	for _, e := range list {
		if e != nil {
			a.expr(e)
		}
	}
}

func (a *analyzer) expr(e ast.Expression) {
	switch e := e.(type) {
	case *ast.Identifier:
		a.ref(e.Name.String(), e, false)
	case *ast.TemplateLiteral:
		if e.Tag != nil {
			a.expr(e.Tag)
		}
		a.exprs(e.Expressions)
	case *ast.ArrayLiteral:
		a.exprs(e.Value)
	case *ast.SpreadElement:
		a.expr(e.Expression)
	case *ast.ObjectLiteral:
		for _, p := range e.Value {
			switch p := p.(type) {
			case *ast.PropertyShort:
				a.ref(p.Name.Name.String(), &p.Name, false)
			case *ast.PropertyKeyed:
				if p.Computed {
					a.expr(p.Key)
				}
				if fn, ok := p.Value.(*ast.FunctionLiteral); ok && p.Kind != ast.PropertyKindValue {
					a.function(fn, false, true)
					continue
				}
				a.expr(p.Value)
			case *ast.SpreadElement:
				a.expr(p.Expression)
			}
		}
	case *ast.AssignExpression:
		a.expr(e.Right)
		if id, ok := e.Left.(*ast.Identifier); ok {
			r := a.ref(id.Name.String(), id, true)
			r.compound = e.Operator != token.ASSIGN
			r.assign = &Assignment{Kind: AssignPlain, Op: e.Operator, Value: e.Right, Node: e, Offset: Offset(e)}
			return
		}
		a.assignTarget(e.Left, AssignUnknown)
	case *ast.BinaryExpression:
		a.expr(e.Left)
		a.expr(e.Right)
	case *ast.ConditionalExpression:
		a.expr(e.Test)
		a.expr(e.Consequent)
		a.expr(e.Alternate)
	case *ast.SequenceExpression:
		a.exprs(e.Sequence)
	case *ast.UnaryExpression:
		if id, ok := e.Operand.(*ast.Identifier); ok && (e.Operator == token.INCREMENT || e.Operator == token.DECREMENT) {
			r := a.ref(id.Name.String(), id, true)
			r.compound = true
			r.assign = &Assignment{Kind: AssignUpdate, Op: e.Operator, Node: e, Offset: Offset(e)}
			return
		}
		a.expr(e.Operand)
	case *ast.DotExpression:
		a.expr(e.Left)
	case *ast.BracketExpression:
		a.expr(e.Left)
		a.expr(e.Member)
	case *ast.CallExpression:
		if id, ok := e.Callee.(*ast.Identifier); ok && id.Name == "eval" {
			a.markEval()
		}
		a.expr(e.Callee)
		a.exprs(e.ArgumentList)
	case *ast.NewExpression:
		a.expr(e.Callee)
		a.exprs(e.ArgumentList)
	case *ast.FunctionLiteral:
		a.function(e, false, false)
	case *ast.ArrowFunctionLiteral:
		a.arrow(e)
	case *ast.ClassLiteral:
		a.class(e)
	case *ast.ThisExpression:
		a.cur.Func().Hints.This = true
		a.cur.ThisFunc().Hints.This = true
	case *ast.SuperExpression:
		a.cur.Func().Hints.Super = true
		a.cur.ThisFunc().Hints.Super = true
	case *ast.MetaProperty:
		a.cur.Func().Hints.NewTarget = true
		a.cur.ThisFunc().Hints.NewTarget = true
	case *ast.OptionalChain:
		a.expr(e.Expression)
	case *ast.Optional:
		a.expr(e.Expression)
	case *ast.YieldExpression:
		if e.Argument != nil {
			a.expr(e.Argument)
		}
	case *ast.AwaitExpression:
		a.expr(e.Argument)
	case *ast.PrivateDotExpression:
		a.expr(e.Left)
	case *ast.ArrayPattern, *ast.ObjectPattern:
		a.assignTarget(e, AssignUnknown)
	}
}

// markEval records a direct eval in the current scope. Every scope from
// here to the root becomes visible to the evaluated code by name.
func (a *analyzer) markEval() {
	a.cur.Func().Hints.Eval = true
	for s := a.cur; s != nil; s = s.Parent {
		s.Dynamic = true
	}
}

func (a *analyzer) params(s *Scope, pl *ast.ParameterList) {
	s.SimpleParams = pl.Rest == nil
	for _, b := range pl.List {
		if _, ok := b.Target.(*ast.Identifier); !ok || b.Initializer != nil {
			s.SimpleParams = false
		}
	}
	for _, b := range pl.List {
		if b.Initializer != nil {
			a.expr(b.Initializer)
		}
		if id, ok := b.Target.(*ast.Identifier); ok {
			v := a.declare(s, id.Name.String(), Param, b, true)
			v.Kind = Param
			v.Assignments = append(v.Assignments, Assignment{Kind: AssignUnknown, Node: b, Offset: Offset(b)})
			s.Params = append(s.Params, v)
			continue
		}
		a.pattern(b.Target, Param, AssignUnknown, b)
		s.Params = append(s.Params, nil)
	}
	if pl.Rest != nil {
		a.pattern(pl.Rest, Param, AssignUnknown, pl.Rest)
	}
}

func (a *analyzer) function(lit *ast.FunctionLiteral, decl, method bool) {
	a.cur.Func().Hints.NestedFunctions = true
	saved := a.cur
	s := a.push(Function, lit)
	s.IsDeclaration = decl
	s.IsMethod = method
	if lit.Body != nil && HasUseStrict(lit.Body.List) {
		s.Strict = true
	}
	a.withList(&stmtList{start: Offset(lit), end: End(lit)}, func() {
		a.params(s, lit.ParameterList)
		if lit.Body != nil {
			a.statements(lit.Body.List)
		}
	})
	if lit.Name != nil && !decl && s.Lookup(lit.Name.Name.String()) == nil {
		v, _ := s.declare(lit.Name.Name.String(), FunctionName)
		v.hasInit = true
	}
	a.cur = saved
}

func (a *analyzer) arrow(lit *ast.ArrowFunctionLiteral) {
	a.cur.Func().Hints.NestedFunctions = true
	saved := a.cur
	s := a.push(Function, lit)
	s.Arrow = true
	a.withList(&stmtList{start: Offset(lit), end: End(lit)}, func() {
		a.params(s, lit.ParameterList)
		switch body := lit.Body.(type) {
		case *ast.BlockStatement:
			if HasUseStrict(body.List) {
				s.Strict = true
			}
			a.statements(body.List)
		case *ast.ExpressionBody:
			a.expr(body.Expression)
		}
	})
	a.cur = saved
}

func (a *analyzer) class(lit *ast.ClassLiteral) {
	a.cur.Func().Hints.NestedFunctions = true
	if lit.SuperClass != nil {
		a.expr(lit.SuperClass)
	}
	s := a.push(Block, lit)
	s.Strict = true
	if lit.Name != nil {
		a.declare(s, lit.Name.Name.String(), Class, lit, false)
	}
	for _, el := range lit.Body {
		md, ok := el.(*ast.MethodDefinition)
		if !ok {
			continue
		}
		if md.Computed {
			a.expr(md.Key)
		}
		a.function(md.Body, false, true)
	}
	a.pop()
}
