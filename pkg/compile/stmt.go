package compile

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/rt"
	"src.jsil.dev/pkg/types"
)

func (c *compiler) statements(list []ast.Statement) {
	for _, st := range list {
		c.statement(st)
	}
}

func (c *compiler) statement(st ast.Statement) {
	c.at(st)
	switch st := st.(type) {
	case *ast.EmptyStatement:
	case *ast.BlockStatement:
		c.block(st)
	case *ast.ExpressionStatement:
		if c.fn.completion >= 0 {
			c.exprAny(st.Expression)
			c.emit(emit.StoreLocal, c.fn.completion)
		} else {
			c.exprDiscard(st.Expression)
		}
	case *ast.VariableStatement:
		c.bindings(st.List, bindVar)
	case *ast.LexicalDeclaration:
		c.bindings(st.List, bindInit)
	case *ast.FunctionDeclaration:
		if !c.hoisted[st] {
			// Not in a statement list, as in the body of a labelled
			// statement.
			c.functionLiteral(st.Function, "")
			c.storeName(st.Function.Name.Name.String(), types.Object, true)
		}
	case *ast.ClassDeclaration:
		c.classLiteral(st.Class, "")
		c.storeName(st.Class.Name.Name.String(), types.Object, true)
	case *ast.IfStatement:
		c.ifStmt(st)
	case *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement, *ast.WhileStatement, *ast.DoWhileStatement:
		c.loop(st, nil)
	case *ast.SwitchStatement:
		c.switchStmt(st, nil)
	case *ast.LabelledStatement:
		c.labelled(st)
	case *ast.BranchStatement:
		c.branch(st)
	case *ast.ReturnStatement:
		c.returnStmt(st)
	case *ast.ThrowStatement:
		c.exprAny(st.Argument)
		c.at(st)
		c.emit(emit.Throw)
	case *ast.TryStatement:
		c.tryStmt(st)
	case *ast.WithStatement:
		c.withStmt(st)
	case *ast.DebuggerStatement:
		c.emit(emit.Debugger)
		c.emit(emit.Nop)
	case *ast.BadStatement:
		c.errorpf(c.rangeOf(st), "invalid statement")
	default:
		c.errorpf(c.rangeOf(st), "unsupported statement")
	}
}

func (c *compiler) block(b *ast.BlockStatement) {
	s := c.tree.ScopeOf(b)
	prev := c.enterScope(s, b.List)
	c.statements(b.List)
	c.exitScope(s, prev)
}

// bindings lowers the bindings of a var, let or const declaration. Var
// bindings without an initializer do nothing; lexical ones are initialized
// to undefined.
func (c *compiler) bindings(list []*ast.Binding, mode bindMode) {
	for _, b := range list {
		c.at(b)
		if b.Initializer == nil {
			if mode == bindVar {
				continue
			}
			c.emit(emit.LoadUndefined)
			c.bindPattern(b.Target, mode, types.Undefined)
			continue
		}
		if id, ok := b.Target.(*ast.Identifier); ok {
			t := c.namedExpr(b.Initializer, id.Name.String())
			c.bindPattern(id, mode, t)
			continue
		}
		c.exprAny(b.Initializer)
		c.bindPattern(b.Target, mode, types.Any)
	}
}

func (c *compiler) ifStmt(st *ast.IfStatement) {
	els := c.label()
	c.condJump(st.Test, false, els)
	c.statement(st.Consequent)
	if st.Alternate == nil {
		c.mark(els)
		return
	}
	end := c.label()
	c.jump(emit.Jump, end)
	c.mark(els)
	c.statement(st.Alternate)
	c.mark(end)
}

// condJump jumps to l when the truth value of e is when.
func (c *compiler) condJump(e ast.Expression, when bool, l emit.Label) {
	if u, ok := e.(*ast.UnaryExpression); ok && u.Operator == token.NOT {
		c.condJump(u.Operand, !when, l)
		return
	}
	c.expr(e)
	if when {
		c.jump(emit.JumpIfTrue, l)
	} else {
		c.jump(emit.JumpIfFalse, l)
	}
}

func (c *compiler) returnStmt(st *ast.ReturnStatement) {
	if st.Argument != nil {
		c.exprAny(st.Argument)
	} else {
		c.emit(emit.LoadUndefined)
	}
	c.at(st)
	if c.fn.ctx.RegionDepth == 0 {
		c.emit(emit.Ret)
		return
	}
	if c.fn.retLocal < 0 {
		c.fn.retLocal = c.fn.e.DeclareLocal("", types.Any)
		c.fn.retLabel = c.label()
	}
	c.emit(emit.StoreLocal, c.fn.retLocal)
	c.jumpTo(Target{Label: c.fn.retLabel, RegionDepth: 0, ScopeDepth: -1})
}

func (c *compiler) branch(st *ast.BranchStatement) {
	label := ""
	if st.Label != nil {
		label = st.Label.Name.String()
	}
	var t Target
	var err error
	if st.Token == token.BREAK {
		t, err = c.fn.ctx.BreakTarget(label)
	} else {
		t, err = c.fn.ctx.ContinueTarget(label)
	}
	if err != nil {
		c.errorpf(c.rangeOf(st), "%s", err)
	}
	c.jumpTo(t)
}

// jumpTo transfers control to t: with a plain jump when no protected region
// lies in between, and with a long jump through the enclosing regions
// otherwise.
func (c *compiler) jumpTo(t Target) {
	ctx := &c.fn.ctx
	if t.RegionDepth == ctx.RegionDepth {
		if n := ctx.ScopeDepth - t.ScopeDepth; t.ScopeDepth >= 0 && n > 0 {
			c.emit(emit.PopScope, int32(n))
		}
		c.jump(emit.Jump, t.Label)
		return
	}
	c.emit(emit.LongJump, ctx.route(t).id)
}

func (c *compiler) pushInfo(n ast.Node, labels []string, brk Target, cont *Target, labelledOnly bool) {
	if err := c.fn.ctx.PushBreakOrContinueInfo(labels, brk, cont, labelledOnly); err != nil {
		c.errorpf(c.rangeOf(n), "%s", err)
	}
}

// labelled lowers a chain of labels and the statement they label.
func (c *compiler) labelled(st *ast.LabelledStatement) {
	var labels []string
	var inner ast.Statement = st
	for {
		ls, ok := inner.(*ast.LabelledStatement)
		if !ok {
			break
		}
		name := ls.Label.Name.String()
		for _, l := range labels {
			if l == name {
				c.errorpf(c.rangeOf(ls.Label), "Label '%s' has already been declared", name)
			}
		}
		labels = append(labels, name)
		inner = ls.Statement
	}
	c.at(inner)
	switch inner := inner.(type) {
	case *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement, *ast.WhileStatement, *ast.DoWhileStatement:
		c.loop(inner, labels)
	case *ast.SwitchStatement:
		c.switchStmt(inner, labels)
	default:
		brk := c.label()
		c.pushInfo(st, labels, c.fn.ctx.here(brk), nil, true)
		c.statement(inner)
		c.fn.ctx.PopBreakOrContinueInfo()
		c.mark(brk)
	}
}

func (c *compiler) switchStmt(st *ast.SwitchStatement, labels []string) {
	c.exprAny(st.Discriminant)
	disc := c.fn.e.DeclareLocal("", types.Any)
	c.emit(emit.StoreLocal, disc)

	var all []ast.Statement
	for _, cs := range st.Body {
		all = append(all, cs.Consequent...)
	}
	s := c.tree.ScopeOf(st)
	prev := c.enterScope(s, all)

	brk := c.label()
	entries := make([]emit.Label, len(st.Body))
	for i, cs := range st.Body {
		entries[i] = c.label()
		if cs.Test == nil {
			continue
		}
		c.at(cs)
		c.emit(emit.LoadLocal, disc)
		c.exprAny(cs.Test)
		c.emit(emit.Binary, int32(rt.OpStrictEq))
		c.jump(emit.JumpIfTrue, entries[i])
	}
	if st.Default >= 0 {
		c.jump(emit.Jump, entries[st.Default])
	} else {
		c.jump(emit.Jump, brk)
	}

	c.pushInfo(st, labels, c.fn.ctx.here(brk), nil, false)
	for i, cs := range st.Body {
		c.mark(entries[i])
		c.statements(cs.Consequent)
	}
	c.fn.ctx.PopBreakOrContinueInfo()
	c.mark(brk)
	c.exitScope(s, prev)
}

func (c *compiler) withStmt(st *ast.WithStatement) {
	c.exprAny(st.Object)
	c.at(st)
	c.emit(emit.PushWithScope)
	c.fn.ctx.ScopeDepth++
	prev := c.fn.cur
	c.fn.cur = c.tree.ScopeOf(st)
	c.statement(st.Body)
	c.fn.cur = prev
	c.emit(emit.PopScope, 1)
	c.fn.ctx.ScopeDepth--
}
