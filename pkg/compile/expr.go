package compile

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/rt"
	"src.jsil.dev/pkg/types"
)

// expr lowers an expression, leaving a value of static type typeOf(e) on the
// stack.
func (c *compiler) expr(e ast.Expression) types.Type {
	want := c.typeOf(e)
	c.storeTo(c.exprRaw(e), want)
	return want
}

// exprAny lowers an expression to a generic value.
func (c *compiler) exprAny(e ast.Expression) {
	c.widen(c.expr(e), types.Any)
}

// exprDiscard lowers an expression evaluated for its effects only.
func (c *compiler) exprDiscard(e ast.Expression) {
	switch e := e.(type) {
	case *ast.UnaryExpression:
		if e.Operator == token.INCREMENT || e.Operator == token.DECREMENT {
			c.update(e, false)
			return
		}
	case *ast.AssignExpression:
		c.assign(e, false)
		return
	case *ast.SequenceExpression:
		for _, x := range e.Sequence {
			c.exprDiscard(x)
		}
		return
	}
	c.expr(e)
	c.emit(emit.Pop)
}

func (c *compiler) unsupported(n ast.Node, what string) {
	c.errorpf(c.rangeOf(n), "%s are not supported", what)
}

// exprRaw lowers an expression and returns the static type of the value
// it leaves.
func (c *compiler) exprRaw(e ast.Expression) types.Type {
	switch e := e.(type) {
	case *ast.Identifier:
		name := e.Name.String()
		if name == "undefined" {
			if res := c.resolve(name); res.Var == nil && !res.Probe {
				c.emit(emit.LoadUndefined)
				return types.Undefined
			}
		}
		c.at(e)
		return c.loadName(name, false)
	case *ast.NumberLiteral:
		if i, ok := int32Literal(e); ok {
			c.emit(emit.LoadInt, i)
			return types.Int32
		}
		c.emit(emit.LoadConst, c.fn.e.Number(numberValue(e)))
		return types.Number
	case *ast.StringLiteral:
		c.emit(emit.LoadConst, c.str(e.Value.String()))
		return types.String
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(emit.LoadBool, 1)
		} else {
			c.emit(emit.LoadBool, 0)
		}
		return types.Bool
	case *ast.NullLiteral:
		c.emit(emit.LoadNull)
		return types.Null
	case *ast.ThisExpression:
		c.emit(emit.LoadThis)
		return types.Any
	case *ast.TemplateLiteral:
		if e.Tag != nil {
			return c.taggedTemplate(e)
		}
		return c.template(e)
	case *ast.RegExpLiteral:
		return c.regexp(e)
	case *ast.ArrayLiteral:
		return c.arrayLiteral(e)
	case *ast.ObjectLiteral:
		return c.objectLiteral(e)
	case *ast.FunctionLiteral:
		c.at(e)
		return c.functionLiteral(e, "")
	case *ast.ArrowFunctionLiteral:
		c.at(e)
		return c.arrowLiteral(e, "")
	case *ast.ClassLiteral:
		c.at(e)
		return c.classLiteral(e, "")
	case *ast.DotExpression:
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			c.superBase(e.Left)
		} else {
			c.exprAny(e.Left)
		}
		c.at(e)
		c.emit(emit.GetPropConst, c.str(e.Identifier.Name.String()))
		return types.Any
	case *ast.BracketExpression:
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			c.superBase(e.Left)
		} else {
			c.exprAny(e.Left)
		}
		c.exprAny(e.Member)
		c.at(e)
		c.emit(emit.GetProp)
		return types.Any
	case *ast.CallExpression:
		return c.call(e)
	case *ast.NewExpression:
		return c.newExpr(e)
	case *ast.UnaryExpression:
		return c.unary(e)
	case *ast.BinaryExpression:
		return c.binary(e)
	case *ast.ConditionalExpression:
		return c.conditional(e)
	case *ast.SequenceExpression:
		for _, x := range e.Sequence[:len(e.Sequence)-1] {
			c.exprDiscard(x)
		}
		return c.expr(e.Sequence[len(e.Sequence)-1])
	case *ast.AssignExpression:
		return c.assign(e, true)
	case *ast.MetaProperty:
		if e.Meta.Name == "new" && e.Property.Name == "target" {
			c.emit(emit.LoadNewTarget)
			return types.Any
		}
		c.errorpf(c.rangeOf(e), "unsupported meta property %s.%s", e.Meta.Name, e.Property.Name)
	case *ast.SuperExpression:
		c.errorpf(c.rangeOf(e), "'super' keyword unexpected here")
	case *ast.YieldExpression:
		c.unsupported(e, "yield expressions")
	case *ast.AwaitExpression:
		c.unsupported(e, "await expressions")
	case *ast.OptionalChain, *ast.Optional:
		c.unsupported(e, "optional chains")
	case *ast.PrivateDotExpression:
		c.unsupported(e, "private names")
	case *ast.ArrayPattern, *ast.ObjectPattern:
		c.errorpf(c.rangeOf(e), "Invalid destructuring assignment target")
	case *ast.BadExpression:
		c.errorpf(c.rangeOf(e), "invalid expression")
	default:
		c.errorpf(c.rangeOf(e), "unsupported expression")
	}
	return types.Any
}

// superBase pushes the object super property accesses start from.
func (c *compiler) superBase(n ast.Node) {
	if !c.fn.classMethod {
		c.errorpf(c.rangeOf(n), "'super' keyword unexpected here")
	}
	c.emit(emit.SuperBase)
}

func (c *compiler) template(e *ast.TemplateLiteral) types.Type {
	c.emit(emit.LoadConst, c.str(e.Elements[0].Parsed.String()))
	for i, x := range e.Expressions {
		c.exprAny(x)
		c.emit(emit.Conv, int32(types.ToString))
		c.emit(emit.Binary, int32(rt.OpAdd))
		if q := e.Elements[i+1].Parsed.String(); q != "" {
			c.emit(emit.LoadConst, c.str(q))
			c.emit(emit.Binary, int32(rt.OpAdd))
		}
	}
	return types.String
}

func (c *compiler) taggedTemplate(e *ast.TemplateLiteral) types.Type {
	c.callee(e.Tag)
	lit := emit.Literal{Kind: emit.TemplateLiteral}
	for _, el := range e.Elements {
		var cooked *string
		if el.Valid {
			s := el.Parsed.String()
			cooked = &s
		}
		lit.Cooked = append(lit.Cooked, cooked)
		lit.Raw = append(lit.Raw, el.Literal)
	}
	c.emit(emit.TemplateObject, c.fn.e.Literal(lit), c.fn.e.CacheSlot())
	for _, x := range e.Expressions {
		c.exprAny(x)
	}
	c.at(e)
	c.emit(emit.Call, int32(len(e.Expressions)+1), c.nameOperand(c.sourceOf(e.Tag)))
	return types.Any
}

func (c *compiler) regexp(e *ast.RegExpLiteral) types.Type {
	if _, err := rt.CompileRegExp(e.Pattern, e.Flags); err != nil {
		c.errorpf(c.rangeOf(e), "Invalid regular expression: /%s/%s: %v", e.Pattern, e.Flags, err)
	}
	lit := c.fn.e.Literal(emit.Literal{Kind: emit.RegExpLiteral, Str: e.Pattern, Flags: e.Flags})
	es3 := int32(0)
	if c.opts.CompatibilityMode == ECMAScript3 {
		es3 = 1
	}
	c.at(e)
	c.emit(emit.RegExp, lit, c.fn.e.CacheSlot(), es3)
	return types.Object
}

func (c *compiler) arrayLiteral(e *ast.ArrayLiteral) types.Type {
	spread := false
	for _, x := range e.Value {
		if _, ok := x.(*ast.SpreadElement); ok {
			spread = true
		}
	}
	if !spread {
		for _, x := range e.Value {
			if x == nil {
				c.emit(emit.LoadHole)
			} else {
				c.exprAny(x)
			}
		}
		c.at(e)
		c.emit(emit.NewArray, int32(len(e.Value)))
		return types.Object
	}
	c.emit(emit.NewArray, 0)
	for _, x := range e.Value {
		switch x := x.(type) {
		case nil:
			c.emit(emit.LoadHole)
			c.emit(emit.ArrayPush)
		case *ast.SpreadElement:
			c.exprAny(x.Expression)
			c.at(x)
			c.emit(emit.ArraySpread)
		default:
			c.exprAny(x)
			c.emit(emit.ArrayPush)
		}
	}
	return types.Object
}

func (c *compiler) objectLiteral(e *ast.ObjectLiteral) types.Type {
	c.at(e)
	c.emit(emit.NewObject)
	for _, p := range e.Value {
		switch p := p.(type) {
		case *ast.PropertyShort:
			if p.Initializer != nil {
				c.errorpf(c.rangeOf(p), "Invalid shorthand property initializer")
			}
			name := p.Name.Name.String()
			c.widen(c.loadName(name, false), types.Any)
			c.emit(emit.DefinePropConst, c.str(name))
		case *ast.PropertyKeyed:
			if p.Kind == ast.PropertyKindGet || p.Kind == ast.PropertyKindSet {
				c.unsupported(p, "getters and setters")
			}
			name := ""
			if p.Computed {
				c.exprAny(p.Key)
			} else {
				name = c.propertyKey(p.Key)
			}
			if fn, ok := p.Value.(*ast.FunctionLiteral); ok && p.Kind == ast.PropertyKindMethod {
				c.at(fn)
				c.methodLiteral(fn, name)
			} else {
				c.widen(c.namedExpr(p.Value, name), types.Any)
			}
			c.at(p)
			if p.Computed {
				c.emit(emit.DefineProp)
			} else {
				c.emit(emit.DefinePropConst, c.str(name))
			}
		case *ast.SpreadElement:
			c.exprAny(p.Expression)
			c.at(p)
			c.emit(emit.CopyDataProps)
		default:
			c.errorpf(c.rangeOf(p), "unsupported property")
		}
	}
	return types.Object
}

// propertyKey returns the name of a non-computed property key.
func (c *compiler) propertyKey(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.StringLiteral:
		return k.Value.String()
	case *ast.NumberLiteral:
		return rt.NumberToString(numberValue(k))
	case *ast.Identifier:
		return k.Name.String()
	case *ast.PrivateIdentifier:
		c.unsupported(k, "private names")
	}
	c.errorpf(c.rangeOf(key), "unsupported property key")
	return ""
}

func (c *compiler) conditional(e *ast.ConditionalExpression) types.Type {
	u := types.Unify(c.typeOf(e.Consequent), c.typeOf(e.Alternate))
	els, end := c.label(), c.label()
	c.condJump(e.Test, false, els)
	c.storeTo(c.expr(e.Consequent), u)
	c.jump(emit.Jump, end)
	c.mark(els)
	c.storeTo(c.expr(e.Alternate), u)
	c.mark(end)
	return u
}

func (c *compiler) unary(e *ast.UnaryExpression) types.Type {
	switch e.Operator {
	case token.INCREMENT, token.DECREMENT:
		return c.update(e, true)
	case token.NOT:
		c.expr(e.Operand)
		c.emit(emit.Unary, int32(rt.OpNot))
		return types.Bool
	case token.MINUS:
		if lit, ok := e.Operand.(*ast.NumberLiteral); ok {
			c.emit(emit.LoadConst, c.fn.e.Number(-numberValue(lit)))
			return types.Number
		}
		c.expr(e.Operand)
		c.at(e)
		c.emit(emit.Unary, int32(rt.OpNeg))
		return types.Number
	case token.PLUS:
		c.expr(e.Operand)
		c.at(e)
		c.emit(emit.Unary, int32(rt.OpPlus))
		return types.Number
	case token.BITWISE_NOT:
		c.expr(e.Operand)
		c.at(e)
		c.emit(emit.Unary, int32(rt.OpBitNot))
		c.emit(emit.Conv, int32(types.ToInt32))
		return types.Int32
	case token.TYPEOF:
		if id, ok := e.Operand.(*ast.Identifier); ok {
			c.typeofName(id.Name.String())
			return types.String
		}
		c.exprAny(e.Operand)
		c.emit(emit.Unary, int32(rt.OpTypeof))
		return types.String
	case token.VOID:
		c.exprDiscard(e.Operand)
		c.emit(emit.LoadUndefined)
		return types.Undefined
	case token.DELETE:
		c.at(e)
		switch x := e.Operand.(type) {
		case *ast.Identifier:
			c.deleteName(x.Name.String())
		case *ast.DotExpression:
			c.exprAny(x.Left)
			c.emit(emit.LoadConst, c.str(x.Identifier.Name.String()))
			c.at(e)
			c.emit(emit.DeleteProp)
		case *ast.BracketExpression:
			c.exprAny(x.Left)
			c.exprAny(x.Member)
			c.at(e)
			c.emit(emit.DeleteProp)
		default:
			c.exprDiscard(x)
			c.emit(emit.LoadBool, 1)
		}
		return types.Bool
	}
	c.errorpf(c.rangeOf(e), "unsupported operator %s", e.Operator)
	return types.Any
}

var binaryOps = map[token.Token]rt.BinaryOp{
	token.PLUS:                 rt.OpAdd,
	token.MINUS:                rt.OpSub,
	token.MULTIPLY:             rt.OpMul,
	token.SLASH:                rt.OpDiv,
	token.REMAINDER:            rt.OpMod,
	token.EXPONENT:             rt.OpExp,
	token.AND:                  rt.OpBitAnd,
	token.OR:                   rt.OpBitOr,
	token.EXCLUSIVE_OR:         rt.OpBitXor,
	token.SHIFT_LEFT:           rt.OpShl,
	token.SHIFT_RIGHT:          rt.OpShr,
	token.UNSIGNED_SHIFT_RIGHT: rt.OpUShr,
	token.LESS:                 rt.OpLt,
	token.LESS_OR_EQUAL:        rt.OpLe,
	token.GREATER:              rt.OpGt,
	token.GREATER_OR_EQUAL:     rt.OpGe,
	token.EQUAL:                rt.OpEq,
	token.NOT_EQUAL:            rt.OpNe,
	token.STRICT_EQUAL:         rt.OpStrictEq,
	token.STRICT_NOT_EQUAL:     rt.OpStrictNe,
}

// Operations specialized for numeric operands.
var (
	numberOps = map[token.Token]emit.Opcode{
		token.PLUS: emit.AddNum, token.MINUS: emit.SubNum,
		token.MULTIPLY: emit.MulNum, token.SLASH: emit.DivNum,
		token.LESS: emit.LtNum, token.LESS_OR_EQUAL: emit.LeNum,
		token.GREATER: emit.GtNum, token.GREATER_OR_EQUAL: emit.GeNum,
	}
	int32Ops = map[token.Token]emit.Opcode{
		token.LESS: emit.LtInt, token.LESS_OR_EQUAL: emit.LeInt,
		token.GREATER: emit.GtInt, token.GREATER_OR_EQUAL: emit.GeInt,
	}
)

func (c *compiler) binary(e *ast.BinaryExpression) types.Type {
	switch e.Operator {
	case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
		return c.logical(e)
	}
	l := c.expr(e.Left)
	r := c.expr(e.Right)
	c.at(e)
	return c.binaryOp(e.Operator, l, r)
}

// binaryOp emits a binary operator applied to the two values on top of the
// stack, choosing a specialized instruction when the operand types allow.
func (c *compiler) binaryOp(op token.Token, l, r types.Type) types.Type {
	switch op {
	case token.IN:
		c.emit(emit.In)
		return types.Bool
	case token.INSTANCEOF:
		c.emit(emit.InstanceOf)
		return types.Bool
	}
	if l == types.Int32 && r == types.Int32 {
		if ins, ok := int32Ops[op]; ok {
			c.emit(ins)
			return types.Bool
		}
	}
	if l.IsNumeric() && r.IsNumeric() {
		if ins, ok := numberOps[op]; ok {
			c.emit(ins)
			return binaryType(op, l, r)
		}
	}
	bop, ok := binaryOps[op]
	if !ok {
		internalf("binary operator %s", op)
	}
	c.emit(emit.Binary, int32(bop))
	t := binaryType(op, l, r)
	if t == types.Int32 {
		c.emit(emit.Conv, int32(types.ToInt32))
	}
	return t
}

func (c *compiler) logical(e *ast.BinaryExpression) types.Type {
	u := types.Unify(c.typeOf(e.Left), c.typeOf(e.Right))
	end := c.label()
	c.storeTo(c.expr(e.Left), u)
	c.emit(emit.Dup)
	switch e.Operator {
	case token.LOGICAL_AND:
		c.jump(emit.JumpIfFalse, end)
	case token.LOGICAL_OR:
		c.jump(emit.JumpIfTrue, end)
	case token.COALESCE:
		right := c.label()
		c.jump(emit.JumpIfNullish, right)
		c.jump(emit.Jump, end)
		c.mark(right)
	}
	c.emit(emit.Pop)
	c.storeTo(c.expr(e.Right), u)
	c.mark(end)
	return u
}

// callee pushes a function and the this value to call it with.
func (c *compiler) callee(e ast.Expression) {
	switch e := e.(type) {
	case *ast.Identifier:
		c.at(e)
		c.loadName(e.Name.String(), true)
	case *ast.DotExpression:
		name := c.str(e.Identifier.Name.String())
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			c.superBase(e.Left)
			c.at(e)
			c.emit(emit.GetPropConst, name)
			c.emit(emit.LoadThis)
			return
		}
		c.exprAny(e.Left)
		c.emit(emit.Dup)
		c.at(e)
		c.emit(emit.GetPropConst, name)
		c.emit(emit.Swap)
	case *ast.BracketExpression:
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			c.superBase(e.Left)
			c.exprAny(e.Member)
			c.at(e)
			c.emit(emit.GetProp)
			c.emit(emit.LoadThis)
			return
		}
		c.exprAny(e.Left)
		c.emit(emit.Dup)
		c.exprAny(e.Member)
		c.at(e)
		c.emit(emit.GetProp)
		c.emit(emit.Swap)
	default:
		c.exprAny(e)
		c.emit(emit.LoadUndefined)
	}
}

// arguments pushes call arguments: each value, or a single array when
// some are spread.
func (c *compiler) arguments(list []ast.Expression) (argc int32, spread bool) {
	for _, x := range list {
		if _, ok := x.(*ast.SpreadElement); ok {
			spread = true
		}
	}
	if !spread {
		for _, x := range list {
			c.exprAny(x)
		}
		return int32(len(list)), false
	}
	c.emit(emit.NewArray, 0)
	for _, x := range list {
		if s, ok := x.(*ast.SpreadElement); ok {
			c.exprAny(s.Expression)
			c.at(s)
			c.emit(emit.ArraySpread)
			continue
		}
		c.exprAny(x)
		c.emit(emit.ArrayPush)
	}
	return 0, true
}

func (c *compiler) call(e *ast.CallExpression) types.Type {
	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		if !c.fn.derived {
			c.errorpf(c.rangeOf(e.Callee), "'super' keyword unexpected here")
		}
		argc, spread := c.arguments(e.ArgumentList)
		c.at(e)
		if spread {
			c.emit(emit.SuperCallSpread)
		} else {
			c.emit(emit.SuperCall, argc)
		}
		return types.Any
	}
	c.callee(e.Callee)
	desc := c.nameOperand(c.sourceOf(e.Callee))
	argc, spread := c.arguments(e.ArgumentList)
	c.at(e)
	switch {
	case spread:
		c.emit(emit.CallSpread)
	case isDirectEval(e):
		c.emit(emit.CallEval, argc, desc)
	default:
		c.emit(emit.Call, argc, desc)
	}
	return types.Any
}

func isDirectEval(e *ast.CallExpression) bool {
	id, ok := e.Callee.(*ast.Identifier)
	return ok && id.Name == "eval"
}

func (c *compiler) newExpr(e *ast.NewExpression) types.Type {
	c.exprAny(e.Callee)
	argc, spread := c.arguments(e.ArgumentList)
	c.at(e)
	if spread {
		c.emit(emit.NewSpread)
	} else {
		c.emit(emit.Construct, argc, c.nameOperand(c.sourceOf(e.Callee)))
	}
	return types.Any
}
