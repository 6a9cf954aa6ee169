package compile

import (
	"math"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"src.jsil.dev/pkg/scope"
	"src.jsil.dev/pkg/types"
)

// inferTypes computes the static types of the eligible variables declared in
// the scopes of function s, excluding nested functions. Every variable starts
// at None; the types of all its assignment sites are unified until nothing
// changes. Variables that may be observed before their first assignment also
// admit undefined.
func (c *compiler) inferTypes(s *scope.Scope) {
	var vars []*scope.Variable
	var collect func(s *scope.Scope)
	collect = func(s *scope.Scope) {
		for _, v := range s.Vars {
			if eligible(v) {
				v.Type = types.None
				vars = append(vars, v)
			} else {
				v.Type = types.Any
			}
		}
		for _, child := range s.Children {
			if child.Kind != scope.Function {
				collect(child)
			}
		}
	}
	collect(s)

	for changed := true; changed; {
		changed = false
		for _, v := range vars {
			t := v.Type
			for _, a := range v.Assignments {
				t = types.Unify(t, c.assignmentType(a))
			}
			if !v.Dominated {
				t = types.Unify(t, types.Undefined)
			}
			if t != v.Type {
				v.Type, changed = t, true
			}
		}
	}
	for _, v := range vars {
		if v.Type == types.None {
			v.Type = types.Any
		}
		logger.Debugf("%s: inferred %v for %s %s", c.name, v.Type, v.Kind, v.Name)
	}
}

func (c *compiler) assignmentType(a scope.Assignment) types.Type {
	switch a.Kind {
	case scope.AssignInit:
		return c.typeOf(a.Value)
	case scope.AssignPlain:
		switch a.Op {
		case token.ASSIGN:
			return c.typeOf(a.Value)
		case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
			return types.Any
		}
		as := a.Node.(*ast.AssignExpression)
		return binaryType(a.Op, c.typeOf(as.Left), c.typeOf(as.Right))
	case scope.AssignUpdate:
		return types.Number
	case scope.AssignKey:
		return types.String
	case scope.AssignFunction:
		return types.Object
	}
	return types.Any
}

// int32Literal returns the value of a number literal that is an int32.
func int32Literal(e ast.Expression) (int32, bool) {
	lit, ok := e.(*ast.NumberLiteral)
	if !ok {
		return 0, false
	}
	switch v := lit.Value.(type) {
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return int32(v), true
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 && !(v == 0 && math.Signbit(v)) {
			return int32(v), true
		}
	}
	return 0, false
}

func numberValue(lit *ast.NumberLiteral) float64 {
	switch v := lit.Value.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return math.NaN()
}

// typeOf returns the static type of the value an expression produces. The
// lowering of every expression yields a value of exactly this type.
func (c *compiler) typeOf(e ast.Expression) types.Type {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		if _, ok := int32Literal(e); ok {
			return types.Int32
		}
		return types.Number
	case *ast.StringLiteral:
		return types.String
	case *ast.TemplateLiteral:
		if e.Tag == nil {
			return types.String
		}
	case *ast.BooleanLiteral:
		return types.Bool
	case *ast.NullLiteral:
		return types.Null
	case *ast.Identifier:
		return c.identType(e)
	case *ast.BinaryExpression:
		switch e.Operator {
		case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
			return types.Unify(c.typeOf(e.Left), c.typeOf(e.Right))
		}
		return binaryType(e.Operator, c.typeOf(e.Left), c.typeOf(e.Right))
	case *ast.UnaryExpression:
		switch e.Operator {
		case token.NOT, token.DELETE:
			return types.Bool
		case token.MINUS, token.PLUS, token.INCREMENT, token.DECREMENT:
			return types.Number
		case token.BITWISE_NOT:
			return types.Int32
		case token.TYPEOF:
			return types.String
		case token.VOID:
			return types.Undefined
		}
	case *ast.ConditionalExpression:
		return types.Unify(c.typeOf(e.Consequent), c.typeOf(e.Alternate))
	case *ast.SequenceExpression:
		return c.typeOf(e.Sequence[len(e.Sequence)-1])
	case *ast.AssignExpression:
		id, ok := e.Left.(*ast.Identifier)
		if !ok {
			return types.Any
		}
		switch e.Operator {
		case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
			return types.Any
		}
		return c.identStoreType(id)
	case *ast.ObjectLiteral, *ast.ArrayLiteral, *ast.FunctionLiteral, *ast.ArrowFunctionLiteral,
		*ast.ClassLiteral, *ast.RegExpLiteral:
		return types.Object
	}
	return types.Any
}

// binaryType is the static type of the result of a binary operator.
func binaryType(op token.Token, l, r types.Type) types.Type {
	switch op {
	case token.PLUS:
		switch {
		case l == types.None || r == types.None:
			return types.None
		case l.IsNumeric() && r.IsNumeric():
			return types.Number
		case l == types.String || r == types.String:
			return types.String
		}
		return types.Any
	case token.MINUS, token.MULTIPLY, token.SLASH, token.REMAINDER, token.EXPONENT, token.UNSIGNED_SHIFT_RIGHT:
		return types.Number
	case token.AND, token.OR, token.EXCLUSIVE_OR, token.SHIFT_LEFT, token.SHIFT_RIGHT:
		return types.Int32
	case token.LESS, token.LESS_OR_EQUAL, token.GREATER, token.GREATER_OR_EQUAL,
		token.EQUAL, token.NOT_EQUAL, token.STRICT_EQUAL, token.STRICT_NOT_EQUAL,
		token.IN, token.INSTANCEOF:
		return types.Bool
	}
	return types.Any
}

// identVar returns the variable an identifier statically refers to, when its
// value can be typed.
func (c *compiler) identVar(id *ast.Identifier) (*scope.Variable, scope.Resolution, bool) {
	ref := c.tree.RefAt(scope.Offset(id))
	if ref == nil {
		return nil, scope.Resolution{}, false
	}
	res := scope.Resolve(ref.Scope, ref.Name)
	return res.Var, res, true
}

func (c *compiler) identType(id *ast.Identifier) types.Type {
	v, res, ok := c.identVar(id)
	if !ok {
		return types.Any
	}
	if v == nil {
		if id.Name == "undefined" && !res.Probe {
			return types.Undefined
		}
		return types.Any
	}
	if res.IsDynamic() || res.Probe {
		return types.Any
	}
	if c.fn != nil {
		if _, ok := c.fn.overrides[v]; ok {
			return types.Int32
		}
	}
	if eligible(v) {
		return v.Type
	}
	return types.Any
}

// identStoreType is the static type of an assignment expression to an
// identifier: the value stored, as held by the variable.
func (c *compiler) identStoreType(id *ast.Identifier) types.Type {
	v, res, ok := c.identVar(id)
	if !ok || v == nil || res.IsDynamic() || res.Probe {
		return types.Any
	}
	if c.fn != nil {
		if ov, ok := c.fn.overrides[v]; ok {
			return c.fn.e.LocalType(ov)
		}
	}
	if eligible(v) {
		return v.Type
	}
	return types.Any
}
