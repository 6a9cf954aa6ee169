package compile

import (
	"math"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/scope"
	"src.jsil.dev/pkg/types"
)

// loop lowers an iteration statement carrying an optional set of labels.
//
// Loops are rotated: the test follows the body, so an iteration executes a
// single conditional jump.
func (c *compiler) loop(st ast.Statement, labels []string) {
	switch st := st.(type) {
	case *ast.ForStatement:
		if !c.counterLoop(st, labels) {
			c.forStmt(st, labels)
		}
	case *ast.ForInStatement:
		c.forInto(st, st.Into, st.Source, st.Body, labels, true)
	case *ast.ForOfStatement:
		c.forInto(st, st.Into, st.Source, st.Body, labels, false)
	case *ast.WhileStatement:
		c.whileStmt(st, labels)
	case *ast.DoWhileStatement:
		c.doWhileStmt(st, labels)
	}
}

// loopBody lowers the body of a loop with its break and continue targets
// registered.
func (c *compiler) loopBody(st, body ast.Statement, labels []string, brk, cont emit.Label) {
	ctx := &c.fn.ctx
	ct := ctx.here(cont)
	c.pushInfo(st, labels, ctx.here(brk), &ct, false)
	c.statement(body)
	ctx.PopBreakOrContinueInfo()
}

func (c *compiler) whileStmt(st *ast.WhileStatement, labels []string) {
	top, test, brk := c.label(), c.label(), c.label()
	c.jump(emit.Jump, test)
	c.mark(top)
	c.loopBody(st, st.Body, labels, brk, test)
	c.mark(test)
	c.at(st.Test)
	c.condJump(st.Test, true, top)
	c.mark(brk)
}

func (c *compiler) doWhileStmt(st *ast.DoWhileStatement, labels []string) {
	top, test, brk := c.label(), c.label(), c.label()
	c.mark(top)
	c.loopBody(st, st.Body, labels, brk, test)
	c.mark(test)
	c.at(st.Test)
	c.condJump(st.Test, true, top)
	c.mark(brk)
}

func (c *compiler) forStmt(st *ast.ForStatement, labels []string) {
	s := c.tree.ScopeOf(st)
	prev := c.enterScope(s, nil)
	switch init := st.Initializer.(type) {
	case *ast.ForLoopInitializerVarDeclList:
		c.bindings(init.List, bindVar)
	case *ast.ForLoopInitializerLexicalDecl:
		c.bindings(init.LexicalDeclaration.List, bindInit)
	case *ast.ForLoopInitializerExpression:
		c.at(init.Expression)
		c.exprDiscard(init.Expression)
	}

	top, cont, test, brk := c.label(), c.label(), c.label(), c.label()
	if st.Test != nil {
		c.jump(emit.Jump, test)
	}
	c.mark(top)
	c.loopBody(st, st.Body, labels, brk, cont)
	c.mark(cont)
	if s.Materialized && hasLexicals(s) {
		// Each iteration gets its own copy of the loop bindings.
		c.emit(emit.CopyScope)
	}
	if st.Update != nil {
		c.at(st.Update)
		c.exprDiscard(st.Update)
	}
	c.mark(test)
	if st.Test != nil {
		c.at(st.Test)
		c.condJump(st.Test, true, top)
	} else {
		c.jump(emit.Jump, top)
	}
	c.mark(brk)
	c.exitScope(s, prev)
}

func hasLexicals(s *scope.Scope) bool {
	for _, v := range s.Vars {
		if v.Kind.IsLexical() {
			return true
		}
	}
	return false
}

// forInto lowers for-in (keys set) and for-of loops. The source is
// evaluated outside the scope of the loop bindings; each iteration binds
// the next value in a fresh record.
func (c *compiler) forInto(st ast.Statement, into ast.ForInto, source ast.Expression, body ast.Statement, labels []string, keys bool) {
	if v, ok := into.(*ast.ForIntoVar); ok && v.Binding.Initializer != nil {
		c.errorpf(c.rangeOf(v.Binding), "for-in loop variable declaration may not have an initializer")
	}
	s := c.tree.ScopeOf(st)
	c.at(source)
	c.exprAny(source)
	c.at(st)
	if keys {
		c.emit(emit.EnumKeys)
	} else {
		c.emit(emit.GetIterator)
	}
	it := c.fn.e.DeclareLocal("", types.Any)
	c.emit(emit.StoreLocal, it)

	// Bindings of for-in hold property keys.
	t := types.Any
	if keys {
		t = types.String
	}
	top, cont, end := c.label(), c.label(), c.label()
	brk := c.fn.ctx.here(end)
	c.mark(top)
	c.emit(emit.LoadLocal, it)
	c.jump(emit.IterNext, end)
	prev := c.enterScope(s, nil)
	c.at(into)
	switch into := into.(type) {
	case *ast.ForIntoVar:
		c.bindPattern(into.Binding.Target, bindVar, t)
	case *ast.ForDeclaration:
		c.bindPattern(into.Target, bindInit, t)
	case *ast.ForIntoExpression:
		c.bindPattern(into.Expression, bindAssign, t)
	}
	ct := c.fn.ctx.here(cont)
	c.pushInfo(st, labels, brk, &ct, false)
	c.statement(body)
	c.fn.ctx.PopBreakOrContinueInfo()
	c.mark(cont)
	c.exitScope(s, prev)
	c.jump(emit.Jump, top)
	c.mark(end)
}

// counter describes a loop of the form
//
//	for (i = init; i < limit; i++) body
//
// with int32 constants init and limit, where i is assigned nowhere in the
// loop but in its initializer and update.
type counter struct {
	v     *scope.Variable
	init  int32
	limit int32
	cmp   emit.Opcode
	step  emit.Opcode
}

// matchCounter recognizes loops whose counter can live in an int32 local.
func (c *compiler) matchCounter(st *ast.ForStatement) (counter, bool) {
	var (
		name     string
		initExpr ast.Expression
		initNode ast.Node
	)
	switch init := st.Initializer.(type) {
	case *ast.ForLoopInitializerVarDeclList:
		if len(init.List) != 1 {
			return counter{}, false
		}
		b := init.List[0]
		name, initExpr, initNode = targetName(b.Target), b.Initializer, b
	case *ast.ForLoopInitializerLexicalDecl:
		decl := init.LexicalDeclaration
		if decl.Token != token.LET || len(decl.List) != 1 {
			return counter{}, false
		}
		b := decl.List[0]
		name, initExpr, initNode = targetName(b.Target), b.Initializer, b
	case *ast.ForLoopInitializerExpression:
		as, ok := init.Expression.(*ast.AssignExpression)
		if !ok || as.Operator != token.ASSIGN {
			return counter{}, false
		}
		name, initExpr, initNode = targetName(as.Left), as.Right, as
	default:
		return counter{}, false
	}
	if name == "" || initExpr == nil {
		return counter{}, false
	}
	var k counter
	var ok bool
	if k.init, ok = int32Literal(initExpr); !ok {
		return counter{}, false
	}

	test, ok := st.Test.(*ast.BinaryExpression)
	if !ok || targetName(test.Left) != name {
		return counter{}, false
	}
	if k.limit, ok = int32Literal(test.Right); !ok {
		return counter{}, false
	}
	update, ok := st.Update.(*ast.UnaryExpression)
	if !ok || targetName(update.Operand) != name {
		return counter{}, false
	}
	up := update.Operator == token.INCREMENT
	switch {
	case test.Operator == token.LESS && up:
		k.cmp = emit.LtInt
	case test.Operator == token.LESS_OR_EQUAL && up && k.limit < math.MaxInt32:
		k.cmp = emit.LeInt
	case test.Operator == token.GREATER && !up && update.Operator == token.DECREMENT:
		k.cmp = emit.GtInt
	case test.Operator == token.GREATER_OR_EQUAL && !up && update.Operator == token.DECREMENT && k.limit > math.MinInt32:
		k.cmp = emit.GeInt
	default:
		return counter{}, false
	}
	k.step = emit.DecInt
	if up {
		k.step = emit.IncInt
	}

	res := scope.Resolve(c.tree.ScopeOf(st), name)
	v := res.Var
	if v == nil || res.Probe || res.IsDynamic() || !eligible(v) {
		return counter{}, false
	}
	if _, ok := c.fn.overrides[v]; ok {
		return counter{}, false
	}
	from, to := scope.Offset(st), scope.End(st)
	for _, a := range v.Assignments {
		if a.Offset < from || a.Offset >= to {
			continue
		}
		if a.Node != initNode && a.Node != ast.Node(update) {
			return counter{}, false
		}
	}
	k.v = v
	return k, true
}

// counterLoop lowers a counting loop with its counter in an int32 local.
// Whatever way the loop is left, the final count is copied back to the
// variable.
func (c *compiler) counterLoop(st *ast.ForStatement, labels []string) bool {
	k, ok := c.matchCounter(st)
	if !ok {
		return false
	}
	logger.Debugf("%s: int32 counter %s", c.name, k.v.Name)
	s := c.tree.ScopeOf(st)
	ov := c.fn.e.DeclareLocal(k.v.Name, types.Int32)
	c.protected(func() {
		prev := c.enterScope(s, nil)
		c.at(st.Initializer)
		c.emit(emit.LoadInt, k.init)
		c.emit(emit.StoreLocal, ov)
		c.fn.overrides[k.v] = ov

		top, cont, test, brk := c.label(), c.label(), c.label(), c.label()
		c.jump(emit.Jump, test)
		c.mark(top)
		c.loopBody(st, st.Body, labels, brk, cont)
		c.mark(cont)
		c.at(st.Update)
		c.emit(emit.LoadLocal, ov)
		c.emit(k.step)
		c.emit(emit.StoreLocal, ov)
		c.mark(test)
		c.at(st.Test)
		c.emit(emit.LoadLocal, ov)
		c.emit(emit.LoadInt, k.limit)
		c.emit(k.cmp)
		c.jump(emit.JumpIfTrue, top)
		c.mark(brk)

		delete(c.fn.overrides, k.v)
		c.exitScope(s, prev)
	}, func() {
		c.emit(emit.LoadLocal, ov)
		c.storeTo(types.Int32, varType(k.v))
		c.emit(emit.StoreLocal, k.v.Storage.Index)
	})
	return true
}
