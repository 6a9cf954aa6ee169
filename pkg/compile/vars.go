package compile

import (
	"github.com/dop251/goja/ast"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/rt"
	"src.jsil.dev/pkg/scope"
	"src.jsil.dev/pkg/types"
)

const constAssignMessage = "Assignment to constant variable."

// eligible reports whether v lives in a local of the activation and
// receives an inferred static type.
func eligible(v *scope.Variable) bool {
	if v.Scope.Materialized || v.Scope.Kind == scope.Global || v.Scope.Kind == scope.Eval {
		return false
	}
	switch v.Kind {
	case scope.Var, scope.Let, scope.Const, scope.Param, scope.CatchParam:
		return true
	}
	return false
}

// layout assigns storage to the variables of s. It returns the descriptor of
// the runtime record of s, if s has one.
func (c *compiler) layout(s *scope.Scope) (emit.ScopeInfo, bool) {
	switch {
	case s.Kind == scope.Global:
		for _, v := range s.Vars {
			v.Storage = scope.Storage{Kind: scope.DynamicStorage}
		}
		return emit.ScopeInfo{}, false
	case s.Kind == scope.Eval:
		info := emit.ScopeInfo{Named: true, VarScope: s.Strict}
		for _, v := range s.Vars {
			v.Storage = scope.Storage{Kind: scope.DynamicStorage}
			if s.Strict || v.Kind.IsLexical() {
				info.Names = append(info.Names, v.Name)
				info.Immutable = append(info.Immutable, v.Kind.IsImmutable())
				info.Lexical = append(info.Lexical, v.Kind.IsLexical())
			}
		}
		return info, true
	case s.Materialized:
		info := emit.ScopeInfo{Named: s.Named(), VarScope: s.IsEvalVarScope()}
		for i, v := range s.Vars {
			v.Storage = scope.Storage{Kind: scope.SlotStorage, Index: int32(i)}
			info.Names = append(info.Names, v.Name)
			info.Immutable = append(info.Immutable, v.Kind.IsImmutable())
			info.Lexical = append(info.Lexical, v.NeedsTDZCheck())
		}
		return info, true
	}
	for _, v := range s.Vars {
		t := types.Any
		if eligible(v) {
			t = types.Storage(v.Type)
		}
		v.Storage = scope.Storage{Kind: scope.LocalStorage, Index: c.fn.e.DeclareLocal(v.Name, t)}
	}
	return emit.ScopeInfo{}, false
}

// enterScope lays out s, pushes its runtime record if it has one, puts its
// lexical locals in the temporal dead zone and hoists the function
// declarations among stmts. It returns the previous scope, to be passed to
// exitScope.
func (c *compiler) enterScope(s *scope.Scope, stmts []ast.Statement) *scope.Scope {
	prev := c.fn.cur
	if s == nil {
		return prev
	}
	info, ok := c.layout(s)
	if ok {
		c.emit(emit.PushScope, c.fn.e.Scope(info))
		c.fn.ctx.ScopeDepth++
	}
	c.fn.cur = s
	c.initLexicals(s)
	c.hoistFunctions(stmts)
	return prev
}

func (c *compiler) exitScope(s, prev *scope.Scope) {
	if s != nil && s.Materialized {
		c.emit(emit.PopScope, 1)
		c.fn.ctx.ScopeDepth--
	}
	c.fn.cur = prev
}

// initLexicals puts the lexical locals of s that may be observed before
// their declaration into the temporal dead zone. Records do the same for
// their slots when pushed.
func (c *compiler) initLexicals(s *scope.Scope) {
	for _, v := range s.Vars {
		if v.Storage.Kind == scope.LocalStorage && v.NeedsTDZCheck() {
			c.emit(emit.LoadHole)
			c.emit(emit.StoreLocal, v.Storage.Index)
		}
	}
}

// hoistFunctions creates the functions declared in stmts and binds them
// before the statements run.
func (c *compiler) hoistFunctions(stmts []ast.Statement) {
	for _, st := range stmts {
		fd, ok := st.(*ast.FunctionDeclaration)
		if !ok {
			continue
		}
		c.hoisted[fd] = true
		c.at(fd)
		c.functionLiteral(fd.Function, fd.Function.Name.Name.String())
		c.storeName(fd.Function.Name.Name.String(), types.Object, true)
	}
}

func (c *compiler) resolve(name string) scope.Resolution {
	return scope.Resolve(c.fn.cur, name)
}

// varType is the static type of the values a statically resolved variable
// holds.
func varType(v *scope.Variable) types.Type {
	if v.Storage.Kind == scope.LocalStorage && eligible(v) {
		return v.Type
	}
	return types.Any
}

func (c *compiler) tdzOperand(v *scope.Variable) int32 {
	if v.NeedsTDZCheck() {
		return c.nameOperand(v.Name)
	}
	return 0
}

// loadName loads the value of a name. With withThis, it also loads the
// implicit this of the reference, for calls.
func (c *compiler) loadName(name string, withThis bool) types.Type {
	res := c.resolve(name)
	if res.Var != nil {
		if ov, ok := c.fn.overrides[res.Var]; ok {
			c.emit(emit.LoadLocal, ov)
			if withThis {
				c.widen(types.Int32, types.Any)
				c.emit(emit.LoadUndefined)
				return types.Any
			}
			return types.Int32
		}
	}
	if res.IsDynamic() {
		if withThis {
			c.emit(emit.LoadNameThis, c.str(name))
		} else {
			c.emit(emit.LoadName, c.str(name))
		}
		return types.Any
	}
	if res.Probe {
		done := c.label()
		op := emit.ProbeLoad
		if withThis {
			op = emit.ProbeLoadThis
		}
		c.jump(op, done, c.str(name), int32(res.Depth))
		c.widen(c.loadStatic(res), types.Any)
		if withThis {
			c.emit(emit.LoadUndefined)
		}
		c.mark(done)
		return types.Any
	}
	t := c.loadStatic(res)
	if withThis {
		c.widen(t, types.Any)
		c.emit(emit.LoadUndefined)
		return types.Any
	}
	return t
}

func (c *compiler) loadStatic(res scope.Resolution) types.Type {
	v := res.Var
	switch v.Storage.Kind {
	case scope.LocalStorage:
		c.emit(emit.LoadLocal, v.Storage.Index, c.tdzOperand(v))
		return varType(v)
	case scope.SlotStorage:
		c.emit(emit.LoadScoped, int32(res.Depth), v.Storage.Index, c.tdzOperand(v))
		return types.Any
	}
	internalf("load of %s with storage %v", v.Name, v.Storage.Kind)
	return types.Any
}

// storeType returns the static type a store to name expects on the stack.
func (c *compiler) storeType(name string) types.Type {
	res := c.resolve(name)
	if res.IsDynamic() || res.Probe {
		return types.Any
	}
	if ov, ok := c.fn.overrides[res.Var]; ok {
		return c.fn.e.LocalType(ov)
	}
	return varType(res.Var)
}

// storeName pops a value of static type t and stores it to name. With init,
// the store initializes a declaration: it bypasses the temporal dead zone
// and constness.
func (c *compiler) storeName(name string, t types.Type, init bool) {
	c.storeTo(t, c.storeType(name))
	res := c.resolve(name)
	if res.Var != nil {
		if ov, ok := c.fn.overrides[res.Var]; ok {
			c.emit(emit.StoreLocal, ov)
			return
		}
	}
	if res.IsDynamic() {
		if init {
			c.emit(emit.InitName, c.str(name))
		} else {
			c.emit(emit.StoreName, c.str(name))
		}
		return
	}
	var done emit.Label
	if res.Probe && !init {
		done = c.label()
		c.jump(emit.ProbeStore, done, c.str(name), int32(res.Depth))
	}
	c.storeStatic(res, init)
	if res.Probe && !init {
		c.mark(done)
	}
}

func (c *compiler) storeStatic(res scope.Resolution, init bool) {
	v := res.Var
	if !init {
		switch {
		case v.Kind.IsImmutable():
			if v.NeedsTDZCheck() {
				c.loadStatic(res)
				c.emit(emit.Pop)
			}
			c.emit(emit.Pop)
			c.emit(emit.ThrowError, int32(rt.TypeError), c.str(constAssignMessage))
			return
		case v.Kind == scope.FunctionName:
			if c.fn.cur.Strict {
				c.emit(emit.Pop)
				c.emit(emit.ThrowError, int32(rt.TypeError), c.str(constAssignMessage))
			} else {
				c.emit(emit.Pop)
			}
			return
		}
	}
	tdz := int32(0)
	if !init {
		tdz = c.tdzOperand(v)
	}
	switch v.Storage.Kind {
	case scope.LocalStorage:
		c.emit(emit.StoreLocal, v.Storage.Index, tdz)
	case scope.SlotStorage:
		c.emit(emit.StoreScoped, int32(res.Depth), v.Storage.Index, tdz)
	default:
		internalf("store of %s with storage %v", v.Name, v.Storage.Kind)
	}
}

// typeofName lowers typeof applied to an identifier, which does not throw
// for undeclared names.
func (c *compiler) typeofName(name string) {
	if res := c.resolve(name); res.IsDynamic() {
		c.emit(emit.TypeofName, c.str(name))
		return
	}
	c.widen(c.loadName(name, false), types.Any)
	c.emit(emit.Unary, int32(rt.OpTypeof))
}

// deleteName lowers delete applied to an identifier.
func (c *compiler) deleteName(name string) {
	if res := c.resolve(name); res.IsDynamic() || res.Probe {
		c.emit(emit.DeleteName, c.str(name))
		return
	}
	c.emit(emit.LoadBool, 0)
}
