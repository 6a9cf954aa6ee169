package vm

import (
	"fmt"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/rt"
	"src.jsil.dev/pkg/types"
)

// frame is one activation.
type frame struct {
	prog   *emit.Program
	code   []emit.Instruction
	stack  []rt.Value
	locals []rt.Value
	// scope is the current record of the scope chain; the frame owns one
	// reference to it.
	scope rt.ScopeHandle

	this      rt.Value
	fn        *rt.Object
	closure   *Closure
	newTarget *rt.Object
	args      []rt.Value
	result    rt.Value

	pc      int
	lastExc *rt.Exception
	lastPos int32
}

func (m *Machine) newFrame(p *emit.Program, scope rt.ScopeHandle, this rt.Value) *frame {
	if !scope.IsNone() {
		m.Realm.Scopes.Retain(scope)
	}
	locals := make([]rt.Value, len(p.Locals))
	for i, l := range p.Locals {
		locals[i] = zeroOf(l.Type)
	}
	return &frame{
		prog:   p,
		code:   p.Code,
		stack:  make([]rt.Value, 0, p.MaxStack),
		locals: locals,
		scope:  scope,
		this:   this,
	}
}

func zeroOf(t types.Type) rt.Value {
	switch t {
	case types.Int32:
		return int32(0)
	case types.UInt32:
		return uint32(0)
	case types.Number:
		return 0.0
	case types.Bool:
		return false
	case types.String:
		return ""
	}
	return rt.Undefined
}

func (f *frame) pos() int32 {
	if f.pc < len(f.code) {
		return f.code[f.pc].Pos
	}
	return -1
}

func (f *frame) push(v rt.Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() rt.Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *frame) top() rt.Value { return f.stack[len(f.stack)-1] }

// popN pops n values into a fresh slice, in push order.
func (f *frame) popN(n int) []rt.Value {
	vs := make([]rt.Value, n)
	copy(vs, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return vs
}

func (f *frame) name(i int32) string { return f.prog.String(i) }

// tdzName returns the name encoded in a name+1 operand, or "" for 0.
func (f *frame) tdzName(op int32) string {
	if op <= 0 {
		return ""
	}
	return f.prog.String(op - 1)
}

func (m *Machine) tdzError(name string) error {
	return m.Realm.Throwf(rt.ReferenceError, "Cannot access '%s' before initialization", name)
}

func malformed(f *frame, format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf("%s at %d: ", f.prog.Name, f.pc) + fmt.Sprintf(format, args...)}
}

// run executes the instructions in [pc, end).
func (m *Machine) run(f *frame, pc, end int) error {
	for pc < end {
		f.pc = pc
		ins := f.code[pc]
		pc++
		next, err := m.step(f, ins, pc)
		if err != nil {
			if e, ok := err.(*rt.Exception); ok && f.lastExc != e && ins.Op != emit.Rethrow {
				f.lastExc, f.lastPos = e, ins.Pos
			}
			return err
		}
		pc = next
	}
	return nil
}

// step executes one instruction and returns the offset of the next one.
func (m *Machine) step(f *frame, ins emit.Instruction, pc int) (int, error) {
	r := m.Realm
	arena := r.Scopes
	switch ins.Op {
	case emit.Nop:
	case emit.Pop:
		f.pop()
	case emit.Dup:
		f.push(f.top())
	case emit.Dup2:
		n := len(f.stack)
		f.push(f.stack[n-2])
		f.push(f.stack[n-1])
	case emit.Swap:
		n := len(f.stack)
		f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]

	case emit.LoadUndefined:
		f.push(rt.Undefined)
	case emit.LoadNull:
		f.push(rt.Null)
	case emit.LoadBool:
		f.push(ins.A != 0)
	case emit.LoadInt:
		f.push(ins.A)
	case emit.LoadConst:
		f.push(constValue(f.prog.Consts[ins.A]))
	case emit.LoadHole:
		f.push(rt.Hole)

	case emit.LoadLocal:
		v := f.locals[ins.A]
		if ins.B > 0 && v == rt.Hole {
			return pc, m.tdzError(f.tdzName(ins.B))
		}
		f.push(v)
	case emit.StoreLocal:
		if ins.B > 0 && f.locals[ins.A] == rt.Hole {
			return pc, m.tdzError(f.tdzName(ins.B))
		}
		f.locals[ins.A] = f.pop()

	case emit.PushScope:
		info := f.prog.Scopes[ins.A]
		var h rt.ScopeHandle
		if info.Named {
			h = arena.NewNamed(f.scope, info.Names, info.Immutable, rt.Undefined, info.VarScope)
		} else {
			h = arena.NewDeclarative(f.scope, len(info.Names), rt.Undefined)
		}
		for i, lex := range info.Lexical {
			if lex {
				arena.SetSlot(h, 0, i, rt.Hole)
			}
		}
		arena.Release(f.scope)
		f.scope = h
	case emit.PushWithScope:
		v := f.pop()
		if rt.IsNullish(v) {
			return pc, r.Throwf(rt.TypeError, "Cannot convert undefined or null to object")
		}
		obj, err := r.ToObject(v)
		if err != nil {
			return pc, err
		}
		h := arena.NewObjectBacked(f.scope, obj, true, false)
		arena.Release(f.scope)
		f.scope = h
	case emit.PopScope:
		for i := int32(0); i < ins.A; i++ {
			m.popScope(f)
		}
	case emit.CopyScope:
		f.scope = arena.Copy(f.scope)
	case emit.LoadScoped:
		v := arena.Slot(f.scope, int(ins.A), int(ins.B))
		if ins.C > 0 && v == rt.Hole {
			return pc, m.tdzError(f.tdzName(ins.C))
		}
		f.push(v)
	case emit.StoreScoped:
		if ins.C > 0 && arena.Slot(f.scope, int(ins.A), int(ins.B)) == rt.Hole {
			return pc, m.tdzError(f.tdzName(ins.C))
		}
		arena.SetSlot(f.scope, int(ins.A), int(ins.B), f.pop())

	case emit.LoadName, emit.LoadNameThis:
		name := f.name(ins.A)
		res, ok := arena.Lookup(f.scope, name, -1)
		if !ok {
			return pc, r.Throwf(rt.ReferenceError, "%s is not defined", name)
		}
		v, err := m.readBinding(res, name)
		if err != nil {
			return pc, err
		}
		f.push(v)
		if ins.Op == emit.LoadNameThis {
			f.push(res.This)
		}
	case emit.TypeofName:
		name := f.name(ins.A)
		res, ok := arena.Lookup(f.scope, name, -1)
		if !ok {
			f.push("undefined")
			break
		}
		v, err := m.readBinding(res, name)
		if err != nil {
			return pc, err
		}
		f.push(rt.Typeof(v))
	case emit.StoreName:
		name := f.name(ins.A)
		v := f.pop()
		res, ok := arena.Lookup(f.scope, name, -1)
		if !ok {
			if f.prog.Strict {
				return pc, r.Throwf(rt.ReferenceError, "%s is not defined", name)
			}
			r.Global.Set(name, rt.Normalize(v))
			break
		}
		if err := m.writeBinding(res, name, v, f.prog.Strict); err != nil {
			return pc, err
		}
	case emit.InitName:
		name := f.name(ins.A)
		v := f.pop()
		res, ok := arena.Lookup(f.scope, name, -1)
		if !ok {
			return pc, malformed(f, "no binding to initialize for %s", name)
		}
		if res.Object != nil {
			res.Object.Set(name, rt.Normalize(v))
		} else {
			arena.SetNamedSlot(res.Scope, res.Binding.Slot, rt.Normalize(v))
		}
	case emit.DeleteName:
		name := f.name(ins.A)
		res, ok := arena.Lookup(f.scope, name, -1)
		switch {
		case !ok:
			f.push(true)
		case res.Object != nil:
			f.push(res.Object.Delete(name))
		default:
			f.push(false)
		}
	case emit.DeclareVar:
		name := f.name(ins.A)
		vs, ok := arena.VarScope(f.scope)
		if !ok {
			return pc, malformed(f, "no var scope for %s", name)
		}
		if obj := arena.Object(vs); obj != nil {
			if !obj.HasOwn(name) {
				obj.DefineOwn(name, rt.Property{
					Value: rt.Undefined, Writable: true, Enumerable: true,
					Configurable: f.prog.Kind == emit.EvalUnit,
				})
			}
		} else {
			arena.Declare(vs, name, rt.Undefined)
		}
	case emit.DeclareLexical:
		name := f.name(ins.A)
		if !arena.DeclareLexical(f.scope, name, ins.B != 0) {
			return pc, r.Throwf(rt.SyntaxError, "Identifier '%s' has already been declared", name)
		}
	case emit.ProbeLoad, emit.ProbeLoadThis:
		name := f.name(ins.B)
		res, ok := arena.Lookup(f.scope, name, int(ins.C))
		if !ok {
			break
		}
		v, err := m.readBinding(res, name)
		if err != nil {
			return pc, err
		}
		f.push(v)
		if ins.Op == emit.ProbeLoadThis {
			f.push(res.This)
		}
		return int(ins.A), nil
	case emit.ProbeStore:
		name := f.name(ins.B)
		res, ok := arena.Lookup(f.scope, name, int(ins.C))
		if !ok {
			break
		}
		if err := m.writeBinding(res, name, f.pop(), f.prog.Strict); err != nil {
			return pc, err
		}
		return int(ins.A), nil

	case emit.LoadThis:
		if f.this == rt.Hole {
			return pc, r.Throwf(rt.ReferenceError,
				"Must call super constructor in derived class before accessing 'this' or returning from derived constructor")
		}
		f.push(f.this)
	case emit.CoerceThis:
		if rt.IsNullish(f.this) {
			f.this = r.Global
		} else if obj, err := r.ToObject(f.this); err == nil {
			f.this = obj
		}
	case emit.LoadFunction:
		if f.fn == nil {
			f.push(rt.Undefined)
		} else {
			f.push(f.fn)
		}
	case emit.LoadNewTarget:
		if f.newTarget == nil {
			f.push(rt.Undefined)
		} else {
			f.push(f.newTarget)
		}
	case emit.LoadArg:
		f.push(rt.Arg(f.args, int(ins.A)))
	case emit.LoadRestArgs:
		var rest []rt.Value
		if int(ins.A) < len(f.args) {
			rest = append(rest, f.args[ins.A:]...)
		}
		f.push(r.NewArray(rest))
	case emit.LoadArguments:
		f.push(r.NewArguments(f.args))

	case emit.NewObject:
		f.push(r.NewObject())
	case emit.NewArray:
		vs := f.popN(int(ins.A))
		for i, v := range vs {
			if v == rt.Hole {
				vs[i] = nil
			}
		}
		f.push(r.NewArray(vs))
	case emit.ArrayPush:
		v := f.pop()
		if v == rt.Hole {
			v = nil
		}
		f.top().(*rt.Object).Push(v)
	case emit.ArraySpread:
		vs, err := r.IterateToSlice(f.pop())
		if err != nil {
			return pc, err
		}
		arr := f.top().(*rt.Object)
		for _, v := range vs {
			arr.Push(v)
		}
	case emit.CopyDataProps:
		src := f.pop()
		if rt.IsNullish(src) {
			break
		}
		from, err := r.ToObject(src)
		if err != nil {
			return pc, err
		}
		to := f.top().(*rt.Object)
		for _, k := range from.OwnKeys() {
			if p, ok := from.GetOwn(k); ok && p.Enumerable {
				to.DefineValue(k, p.Value, true)
			}
		}
	case emit.GetProp:
		key := f.pop()
		obj := f.pop()
		k, err := r.ToPropertyKey(key)
		if err != nil {
			return pc, err
		}
		v, err := r.GetV(obj, k)
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.GetPropConst:
		v, err := r.GetV(f.pop(), f.name(ins.A))
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.SetProp:
		v := rt.Normalize(f.pop())
		key := f.pop()
		obj := f.pop()
		k, err := r.ToPropertyKey(key)
		if err != nil {
			return pc, err
		}
		if err := r.PutV(obj, k, v, f.prog.Strict); err != nil {
			return pc, err
		}
		f.push(v)
	case emit.SetPropConst:
		v := rt.Normalize(f.pop())
		obj := f.pop()
		if err := r.PutV(obj, f.name(ins.A), v, f.prog.Strict); err != nil {
			return pc, err
		}
		f.push(v)
	case emit.DeleteProp:
		key := f.pop()
		obj := f.pop()
		k, err := r.ToPropertyKey(key)
		if err != nil {
			return pc, err
		}
		ok, err := r.DeleteV(obj, k, f.prog.Strict)
		if err != nil {
			return pc, err
		}
		f.push(ok)
	case emit.DefineProp:
		v := rt.Normalize(f.pop())
		k, err := r.ToPropertyKey(f.pop())
		if err != nil {
			return pc, err
		}
		f.top().(*rt.Object).DefineValue(k, v, true)
	case emit.DefinePropConst:
		v := rt.Normalize(f.pop())
		f.top().(*rt.Object).DefineValue(f.name(ins.A), v, true)
	case emit.In:
		obj := f.pop()
		key := f.pop()
		ok, err := r.In(key, obj)
		if err != nil {
			return pc, err
		}
		f.push(ok)
	case emit.InstanceOf:
		ctor := f.pop()
		v := f.pop()
		ok, err := r.InstanceOf(v, ctor)
		if err != nil {
			return pc, err
		}
		f.push(ok)

	case emit.Call, emit.CallEval:
		args := f.popN(int(ins.A))
		this := f.pop()
		callee := f.pop()
		var v rt.Value
		var err error
		if ins.Op == emit.CallEval && m.Eval != nil && callee == rt.Value(r.Eval) {
			v, err = m.Eval(EvalContext{Scope: f.scope, This: f.this, Strict: f.prog.Strict, Arguments: args})
		} else {
			v, err = r.Call(callee, this, args, calleeName(f, ins.B, callee))
		}
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.CallSpread:
		arr := f.pop().(*rt.Object)
		this := f.pop()
		callee := f.pop()
		v, err := r.Call(callee, this, spreadArgs(arr), calleeName(f, 0, callee))
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.Construct:
		args := f.popN(int(ins.A))
		callee := f.pop()
		v, err := r.Construct(callee, args, nil, calleeName(f, ins.B, callee))
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.NewSpread:
		arr := f.pop().(*rt.Object)
		callee := f.pop()
		v, err := r.Construct(callee, spreadArgs(arr), nil, calleeName(f, 0, callee))
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.MakeClosure:
		f.push(m.makeClosure(f, f.prog.Methods[ins.A], nil))
	case emit.MakeClass:
		var super rt.Value
		if ins.B != 0 {
			super = f.pop()
		}
		ctor, proto, err := m.makeClass(f, f.prog.Methods[ins.A], ins.B != 0, super)
		if err != nil {
			return pc, err
		}
		f.push(ctor)
		f.push(proto)
	case emit.DefineMethod:
		k, err := r.ToPropertyKey(f.pop())
		if err != nil {
			return pc, err
		}
		n := len(f.stack)
		target := f.stack[n-1].(*rt.Object)
		if ins.B != 0 {
			target = f.stack[n-2].(*rt.Object)
		}
		method := m.makeClosure(f, f.prog.Methods[ins.A], target)
		method.DefineOwn("name", rt.Property{Value: k, Configurable: true})
		target.DefineValue(k, method, false)
	case emit.SuperCall, emit.SuperCallSpread:
		var args []rt.Value
		if ins.Op == emit.SuperCall {
			args = f.popN(int(ins.A))
		} else {
			args = spreadArgs(f.pop().(*rt.Object))
		}
		v, err := m.superCall(f, args)
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.SuperBase:
		if f.closure == nil || f.closure.home == nil {
			return pc, r.Throwf(rt.SyntaxError, "'super' keyword unexpected here")
		}
		if p := f.closure.home.Proto(); p != nil {
			f.push(p)
		} else {
			f.push(rt.Null)
		}

	case emit.Binary:
		b := f.pop()
		a := f.pop()
		v, err := r.Binary(rt.BinaryOp(ins.A), rt.Normalize(a), rt.Normalize(b))
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.Unary:
		v, err := r.Unary(rt.UnaryOp(ins.A), rt.Normalize(f.pop()))
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.AddNum, emit.SubNum, emit.MulNum, emit.DivNum:
		b := toFloat(f.pop())
		a := toFloat(f.pop())
		switch ins.Op {
		case emit.AddNum:
			f.push(a + b)
		case emit.SubNum:
			f.push(a - b)
		case emit.MulNum:
			f.push(a * b)
		default:
			f.push(a / b)
		}
	case emit.LtNum, emit.LeNum, emit.GtNum, emit.GeNum:
		b := toFloat(f.pop())
		a := toFloat(f.pop())
		switch ins.Op {
		case emit.LtNum:
			f.push(a < b)
		case emit.LeNum:
			f.push(a <= b)
		case emit.GtNum:
			f.push(a > b)
		default:
			f.push(a >= b)
		}
	case emit.LtInt, emit.LeInt, emit.GtInt, emit.GeInt:
		b := f.pop().(int32)
		a := f.pop().(int32)
		switch ins.Op {
		case emit.LtInt:
			f.push(a < b)
		case emit.LeInt:
			f.push(a <= b)
		case emit.GtInt:
			f.push(a > b)
		default:
			f.push(a >= b)
		}
	case emit.IncInt:
		f.push(f.pop().(int32) + 1)
	case emit.DecInt:
		f.push(f.pop().(int32) - 1)
	case emit.IncNum:
		f.push(toFloat(f.pop()) + 1)
	case emit.DecNum:
		f.push(toFloat(f.pop()) - 1)
	case emit.Conv:
		v, err := r.Convert(f.pop(), types.Conversion(ins.A))
		if err != nil {
			return pc, err
		}
		f.push(v)

	case emit.Jump:
		return int(ins.A), nil
	case emit.JumpIfTrue:
		if rt.ToBoolean(f.pop()) {
			return int(ins.A), nil
		}
	case emit.JumpIfFalse:
		if !rt.ToBoolean(f.pop()) {
			return int(ins.A), nil
		}
	case emit.JumpIfNullish:
		if rt.IsNullish(f.pop()) {
			return int(ins.A), nil
		}
	case emit.JumpIfEqInt:
		if f.pop().(int32) == ins.B {
			return int(ins.A), nil
		}
	case emit.Try:
		return m.execTry(f, f.prog.Regions[ins.A])
	case emit.Throw:
		return pc, rt.NewException(f.pop())
	case emit.ThrowError:
		return pc, r.Throwf(rt.ErrorKind(ins.A), "%s", f.name(ins.B))
	case emit.Rethrow:
		v := f.pop()
		if e, ok := v.(*rt.Exception); ok {
			return pc, e
		}
		return pc, rt.NewException(v)
	case emit.CaughtValue:
		if e, ok := f.top().(*rt.Exception); ok {
			f.stack[len(f.stack)-1] = e.Value
		}
	case emit.LongJump:
		return pc, LongJump(ins.A)
	case emit.LongJumpDyn:
		return pc, LongJump(f.pop().(int32))
	case emit.Ret:
		f.result = rt.Normalize(f.pop())
		return pc, returned{}
	case emit.Debugger:
		if m.Debugger != nil {
			m.Debugger(f.prog.SourceContext(ins.Pos))
		}

	case emit.RegExp:
		v, err := m.regExp(f, ins)
		if err != nil {
			return pc, err
		}
		f.push(v)
	case emit.TemplateObject:
		cache := m.siteCache(f.prog)
		if cache[ins.B] == nil {
			cache[ins.B] = m.templateObject(f.prog.Consts[ins.A])
		}
		f.push(cache[ins.B])
	case emit.GetIterator:
		it, err := r.GetIterator(f.pop())
		if err != nil {
			return pc, err
		}
		f.push(it)
	case emit.EnumKeys:
		f.push(r.EnumerateKeys(f.pop()))
	case emit.IterNext:
		it, ok := f.pop().(rt.Iterator)
		if !ok {
			return pc, malformed(f, "iternext on a non-iterator")
		}
		v, more, err := it.Next()
		if err != nil {
			return pc, err
		}
		if !more {
			return int(ins.A), nil
		}
		f.push(v)

	default:
		return pc, malformed(f, "unknown opcode %v", ins.Op)
	}
	return pc, nil
}

// execTry runs a protected region and, if it ends abruptly with an
// exception or a long jump, its handler.
func (m *Machine) execTry(f *frame, reg emit.Region) (int, error) {
	height := len(f.stack)
	scope := f.scope
	m.Realm.Scopes.Retain(scope)
	defer m.Realm.Scopes.Release(scope)

	err := m.run(f, int(reg.Start), int(reg.End))
	if err == nil {
		return int(reg.Exit), nil
	}
	var caught rt.Value
	var route int32
	switch e := err.(type) {
	case *rt.Exception:
		caught = e
	case LongJump:
		caught, route = rt.Undefined, int32(e)
	default:
		return f.pc, err
	}
	f.stack = f.stack[:height]
	for f.scope != scope {
		m.popScope(f)
	}
	f.push(caught)
	f.push(route)
	if err := m.run(f, int(reg.End), int(reg.Exit)); err != nil {
		return f.pc, err
	}
	return int(reg.Exit), nil
}

func (m *Machine) popScope(f *frame) {
	arena := m.Realm.Scopes
	parent := arena.Parent(f.scope)
	arena.Retain(parent)
	arena.Release(f.scope)
	f.scope = parent
}

func (m *Machine) readBinding(res rt.LookupResult, name string) (rt.Value, error) {
	if res.Object != nil {
		return res.Object.Get(name), nil
	}
	v := m.Realm.Scopes.NamedSlot(res.Scope, res.Binding.Slot)
	if v == rt.Hole {
		return nil, m.tdzError(name)
	}
	return v, nil
}

func (m *Machine) writeBinding(res rt.LookupResult, name string, v rt.Value, strict bool) error {
	v = rt.Normalize(v)
	if res.Object != nil {
		return m.Realm.PutV(res.Object, name, v, strict)
	}
	arena := m.Realm.Scopes
	if arena.NamedSlot(res.Scope, res.Binding.Slot) == rt.Hole {
		return m.tdzError(name)
	}
	if res.Binding.Immutable {
		return m.Realm.Throwf(rt.TypeError, "Assignment to constant variable.")
	}
	arena.SetNamedSlot(res.Scope, res.Binding.Slot, v)
	return nil
}

func (m *Machine) regExp(f *frame, ins emit.Instruction) (rt.Value, error) {
	cache := m.siteCache(f.prog)
	if ins.C != 0 {
		if o := cache[ins.B]; o != nil {
			return o, nil
		}
	}
	p, _ := cache[ins.B].(*rt.RegExpPattern)
	if p == nil {
		lit := f.prog.Consts[ins.A]
		var err error
		p, err = rt.CompileRegExp(lit.Str, lit.Flags)
		if err != nil {
			return nil, m.Realm.Throwf(rt.SyntaxError, "%s", err.Error())
		}
	}
	o := m.Realm.NewRegExp(p)
	if ins.C != 0 {
		cache[ins.B] = o
	} else {
		cache[ins.B] = p
	}
	return o, nil
}

func (m *Machine) templateObject(lit emit.Literal) *rt.Object {
	cooked := make([]rt.Value, len(lit.Cooked))
	for i, s := range lit.Cooked {
		if s == nil {
			cooked[i] = rt.Undefined
		} else {
			cooked[i] = *s
		}
	}
	raw := make([]rt.Value, len(lit.Raw))
	for i, s := range lit.Raw {
		raw[i] = s
	}
	rawArr := m.Realm.NewArray(raw)
	rawArr.Freeze()
	arr := m.Realm.NewArray(cooked)
	arr.DefineValue("raw", rawArr, false)
	arr.Freeze()
	return arr
}

func constValue(l emit.Literal) rt.Value {
	if l.Kind == emit.NumberLiteral {
		return l.Num
	}
	return l.Str
}

func toFloat(v rt.Value) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case int32:
		return float64(v)
	case uint32:
		return float64(v)
	}
	panic(&InternalError{Message: fmt.Sprintf("numeric instruction on %T", v)})
}

func spreadArgs(arr *rt.Object) []rt.Value {
	args := append([]rt.Value(nil), arr.Elements()...)
	for i, v := range args {
		if v == nil {
			args[i] = rt.Undefined
		}
	}
	return args
}

// calleeName describes a callee for error messages, from a name+1 operand
// or from the value itself.
func calleeName(f *frame, nameOp int32, callee rt.Value) string {
	if nameOp > 0 {
		return f.prog.String(nameOp - 1)
	}
	return rt.ToDisplayString(callee)
}
