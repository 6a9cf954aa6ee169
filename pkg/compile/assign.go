package compile

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/types"
)

// bindMode says how a binding target receives its value.
type bindMode uint8

const (
	// bindInit initializes a declaration: a parameter, a let or const, or
	// a catch parameter.
	bindInit bindMode = iota
	// bindVar assigns to a var declaration.
	bindVar
	// bindAssign assigns to an arbitrary target, including members.
	bindAssign
)

// update lowers an increment or decrement. With keep, the value of the
// expression is left on the stack.
func (c *compiler) update(e *ast.UnaryExpression, keep bool) types.Type {
	step, intStep := emit.IncNum, emit.IncInt
	if e.Operator == token.DECREMENT {
		step, intStep = emit.DecNum, emit.DecInt
	}
	post := e.Postfix && keep
	pre := !e.Postfix && keep
	c.at(e)
	switch x := e.Operand.(type) {
	case *ast.Identifier:
		name := x.Name.String()
		if res := c.resolve(name); res.Var != nil {
			if ov, ok := c.fn.overrides[res.Var]; ok {
				c.emit(emit.LoadLocal, ov)
				if post {
					c.emit(emit.Dup)
				}
				c.emit(intStep)
				if pre {
					c.emit(emit.Dup)
				}
				c.emit(emit.StoreLocal, ov)
				if keep {
					c.widen(types.Int32, types.Number)
				}
				return types.Number
			}
		}
		t := c.loadName(name, false)
		if !t.IsNumeric() {
			c.emit(emit.Conv, int32(types.ToNumber))
			t = types.Number
		}
		if post {
			c.emit(emit.Dup)
		}
		c.emit(step)
		if pre {
			c.emit(emit.Dup)
		}
		c.storeName(name, types.Number, false)
		if post {
			c.widen(t, types.Number)
		}
		return types.Number
	case *ast.DotExpression:
		name := c.str(x.Identifier.Name.String())
		c.member(x.Left)
		c.emit(emit.Dup)
		c.emit(emit.GetPropConst, name)
		tmp := c.postfixValue(post)
		c.emit(step)
		c.emit(emit.SetPropConst, name)
		c.keepUpdate(keep, tmp)
	case *ast.BracketExpression:
		c.member(x.Left)
		c.exprAny(x.Member)
		c.emit(emit.Dup2)
		c.emit(emit.GetProp)
		tmp := c.postfixValue(post)
		c.emit(step)
		c.emit(emit.SetProp)
		c.keepUpdate(keep, tmp)
	default:
		c.errorpf(c.rangeOf(e.Operand), "Invalid left-hand side expression in %s operation", prefixOrPostfix(e))
	}
	return types.Number
}

func prefixOrPostfix(e *ast.UnaryExpression) string {
	if e.Postfix {
		return "postfix"
	}
	return "prefix"
}

// member lowers the object of a member assignment target.
func (c *compiler) member(e ast.Expression) {
	if _, ok := e.(*ast.SuperExpression); ok {
		c.unsupported(e, "assignments to super properties")
	}
	c.exprAny(e)
}

// postfixValue converts the old value of a property to a number and, for a
// postfix expression whose value is used, saves it in a temporary local.
func (c *compiler) postfixValue(post bool) int32 {
	c.emit(emit.Conv, int32(types.ToNumber))
	if !post {
		return -1
	}
	tmp := c.fn.e.DeclareLocal("", types.Number)
	c.emit(emit.Dup)
	c.emit(emit.StoreLocal, tmp)
	return tmp
}

func (c *compiler) keepUpdate(keep bool, tmp int32) {
	switch {
	case !keep:
		c.emit(emit.Pop)
	case tmp >= 0:
		c.emit(emit.Pop)
		c.emit(emit.LoadLocal, tmp)
	}
}

// assign lowers an assignment expression. With keep, the assigned value is
// left on the stack.
func (c *compiler) assign(e *ast.AssignExpression, keep bool) types.Type {
	switch e.Operator {
	case token.ASSIGN:
		return c.plainAssign(e, keep)
	case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
		return c.logicalAssign(e, keep)
	}
	return c.compoundAssign(e, keep)
}

func (c *compiler) plainAssign(e *ast.AssignExpression, keep bool) types.Type {
	switch x := e.Left.(type) {
	case *ast.Identifier:
		name := x.Name.String()
		t := c.namedExpr(e.Right, name)
		st := c.storeType(name)
		c.storeTo(t, st)
		if keep {
			c.emit(emit.Dup)
		}
		c.at(e)
		c.storeName(name, st, false)
		return st
	case *ast.DotExpression:
		c.member(x.Left)
		c.exprAny(e.Right)
		c.at(e)
		c.emit(emit.SetPropConst, c.str(x.Identifier.Name.String()))
	case *ast.BracketExpression:
		c.member(x.Left)
		c.exprAny(x.Member)
		c.exprAny(e.Right)
		c.at(e)
		c.emit(emit.SetProp)
	case *ast.ArrayPattern, *ast.ObjectPattern:
		c.exprAny(e.Right)
		if keep {
			c.emit(emit.Dup)
		}
		c.bindPattern(x, bindAssign, types.Any)
		return types.Any
	default:
		c.errorpf(c.rangeOf(e.Left), "Invalid left-hand side in assignment")
	}
	if !keep {
		c.emit(emit.Pop)
	}
	return types.Any
}

// logicalAssign lowers &&=, ||= and ??=, which only assign when the
// current value calls for it.
func (c *compiler) logicalAssign(e *ast.AssignExpression, keep bool) types.Type {
	end := c.label()
	// test jumps to skip with the current value on the stack when no
	// assignment happens.
	test := func(skip emit.Label) {
		c.emit(emit.Dup)
		switch e.Operator {
		case token.LOGICAL_AND:
			c.jump(emit.JumpIfFalse, skip)
		case token.LOGICAL_OR:
			c.jump(emit.JumpIfTrue, skip)
		case token.COALESCE:
			assign := c.label()
			c.jump(emit.JumpIfNullish, assign)
			c.jump(emit.Jump, skip)
			c.mark(assign)
		}
		c.emit(emit.Pop)
	}
	switch x := e.Left.(type) {
	case *ast.Identifier:
		name := x.Name.String()
		c.widen(c.loadName(name, false), types.Any)
		test(end)
		c.widen(c.namedExpr(e.Right, name), types.Any)
		c.emit(emit.Dup)
		c.at(e)
		c.storeName(name, types.Any, false)
		c.mark(end)
	case *ast.DotExpression:
		name := c.str(x.Identifier.Name.String())
		skip := c.label()
		c.member(x.Left)
		c.emit(emit.Dup)
		c.emit(emit.GetPropConst, name)
		test(skip)
		c.exprAny(e.Right)
		c.at(e)
		c.emit(emit.SetPropConst, name)
		c.jump(emit.Jump, end)
		c.mark(skip)
		c.emit(emit.Swap)
		c.emit(emit.Pop)
		c.mark(end)
	case *ast.BracketExpression:
		skip := c.label()
		c.member(x.Left)
		c.exprAny(x.Member)
		c.emit(emit.Dup2)
		c.emit(emit.GetProp)
		test(skip)
		c.exprAny(e.Right)
		c.at(e)
		c.emit(emit.SetProp)
		c.jump(emit.Jump, end)
		c.mark(skip)
		c.emit(emit.Swap)
		c.emit(emit.Pop)
		c.emit(emit.Swap)
		c.emit(emit.Pop)
		c.mark(end)
	default:
		c.errorpf(c.rangeOf(e.Left), "Invalid left-hand side in assignment")
	}
	if !keep {
		c.emit(emit.Pop)
	}
	return types.Any
}

func (c *compiler) compoundAssign(e *ast.AssignExpression, keep bool) types.Type {
	switch x := e.Left.(type) {
	case *ast.Identifier:
		name := x.Name.String()
		l := c.loadName(name, false)
		r := c.expr(e.Right)
		c.at(e)
		t := c.binaryOp(e.Operator, l, r)
		st := c.storeType(name)
		c.storeTo(t, st)
		if keep {
			c.emit(emit.Dup)
		}
		c.storeName(name, st, false)
		return st
	case *ast.DotExpression:
		name := c.str(x.Identifier.Name.String())
		c.member(x.Left)
		c.emit(emit.Dup)
		c.emit(emit.GetPropConst, name)
		r := c.expr(e.Right)
		c.at(e)
		c.widen(c.binaryOp(e.Operator, types.Any, r), types.Any)
		c.emit(emit.SetPropConst, name)
	case *ast.BracketExpression:
		c.member(x.Left)
		c.exprAny(x.Member)
		c.emit(emit.Dup2)
		c.emit(emit.GetProp)
		r := c.expr(e.Right)
		c.at(e)
		c.widen(c.binaryOp(e.Operator, types.Any, r), types.Any)
		c.emit(emit.SetProp)
	default:
		c.errorpf(c.rangeOf(e.Left), "Invalid left-hand side in assignment")
	}
	if !keep {
		c.emit(emit.Pop)
	}
	return types.Any
}

// bindPattern pops a value of static type t and binds it to a target: an
// identifier, a destructuring pattern or, with bindAssign, a member
// expression.
func (c *compiler) bindPattern(target ast.Expression, mode bindMode, t types.Type) {
	switch x := target.(type) {
	case *ast.Identifier:
		c.storeName(x.Name.String(), t, mode == bindInit)
	case *ast.ArrayPattern:
		c.widen(t, types.Any)
		c.arrayPattern(x, mode)
	case *ast.ObjectPattern:
		c.widen(t, types.Any)
		c.objectPattern(x, mode)
	case *ast.DotExpression, *ast.BracketExpression:
		if mode != bindAssign {
			c.errorpf(c.rangeOf(x), "Invalid destructuring assignment target")
		}
		c.widen(t, types.Any)
		c.memberTarget(x)
	case *ast.AssignExpression:
		// A target with a default value, as in [a = 1] = xs.
		c.widen(t, types.Any)
		c.defaultValue(x.Right, targetName(x.Left))
		c.bindPattern(x.Left, mode, types.Any)
	default:
		c.errorpf(c.rangeOf(target), "Invalid destructuring assignment target")
	}
}

// memberTarget stores the value on top of the stack to a member
// expression.
func (c *compiler) memberTarget(e ast.Expression) {
	v := c.fn.e.DeclareLocal("", types.Any)
	c.emit(emit.StoreLocal, v)
	switch x := e.(type) {
	case *ast.DotExpression:
		c.member(x.Left)
		c.emit(emit.LoadLocal, v)
		c.emit(emit.SetPropConst, c.str(x.Identifier.Name.String()))
	case *ast.BracketExpression:
		c.member(x.Left)
		c.exprAny(x.Member)
		c.emit(emit.LoadLocal, v)
		c.emit(emit.SetProp)
	}
	c.emit(emit.Pop)
}

// arrayPattern destructures the iterable on top of the stack.
func (c *compiler) arrayPattern(p *ast.ArrayPattern, mode bindMode) {
	c.at(p)
	c.emit(emit.GetIterator)
	it := c.fn.e.DeclareLocal("", types.Any)
	c.emit(emit.StoreLocal, it)
	for _, el := range p.Elements {
		got, done := c.label(), c.label()
		c.emit(emit.LoadLocal, it)
		c.jump(emit.IterNext, done)
		c.jump(emit.Jump, got)
		c.mark(done)
		c.emit(emit.LoadUndefined)
		c.mark(got)
		if el == nil {
			c.emit(emit.Pop)
			continue
		}
		c.bindPattern(el, mode, types.Any)
	}
	if p.Rest != nil {
		c.emit(emit.NewArray, 0)
		c.emit(emit.LoadLocal, it)
		c.emit(emit.ArraySpread)
		c.bindPattern(p.Rest, mode, types.Any)
	}
}

// objectPattern destructures the value on top of the stack.
func (c *compiler) objectPattern(p *ast.ObjectPattern, mode bindMode) {
	c.at(p)
	src := c.fn.e.DeclareLocal("", types.Any)
	c.emit(emit.StoreLocal, src)
	// Keys of the properties taken, for the rest object.
	var keys []int32
	for _, prop := range p.Properties {
		switch prop := prop.(type) {
		case *ast.PropertyShort:
			name := prop.Name.Name.String()
			c.emit(emit.LoadLocal, src)
			c.emit(emit.GetPropConst, c.str(name))
			if prop.Initializer != nil {
				c.defaultValue(prop.Initializer, name)
			}
			if p.Rest != nil {
				k := c.fn.e.DeclareLocal("", types.Any)
				c.emit(emit.LoadConst, c.str(name))
				c.emit(emit.StoreLocal, k)
				keys = append(keys, k)
			}
			c.bindPattern(&prop.Name, mode, types.Any)
		case *ast.PropertyKeyed:
			c.emit(emit.LoadLocal, src)
			if prop.Computed {
				c.exprAny(prop.Key)
			} else {
				c.emit(emit.LoadConst, c.str(c.propertyKey(prop.Key)))
			}
			if p.Rest != nil {
				k := c.fn.e.DeclareLocal("", types.Any)
				c.emit(emit.Dup)
				c.emit(emit.StoreLocal, k)
				keys = append(keys, k)
			}
			c.emit(emit.GetProp)
			c.bindPattern(prop.Value, mode, types.Any)
		default:
			c.errorpf(c.rangeOf(prop), "Invalid destructuring assignment target")
		}
	}
	if p.Rest != nil {
		c.emit(emit.NewObject)
		c.emit(emit.LoadLocal, src)
		c.emit(emit.CopyDataProps)
		for _, k := range keys {
			c.emit(emit.Dup)
			c.emit(emit.LoadLocal, k)
			c.emit(emit.DeleteProp)
			c.emit(emit.Pop)
		}
		c.bindPattern(p.Rest, mode, types.Any)
	}
}
