package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.jsil.dev/pkg/types"
)

func TestEmitter_ResolvesLabels(t *testing.T) {
	e := New("f", FunctionUnit)
	end := e.NewLabel()
	e.Emit(LoadBool, 1)
	e.EmitJump(JumpIfFalse, end)
	e.Emit(LoadInt, 1)
	e.Emit(Pop)
	e.Mark(end)
	e.Emit(LoadUndefined)
	e.Emit(Ret)
	p, err := e.Finish(true)
	if err != nil {
		t.Fatal(err)
	}
	if p.Code[1].A != 4 {
		t.Errorf("jump target = %d, want 4", p.Code[1].A)
	}
	if p.MaxStack != 1 {
		t.Errorf("MaxStack = %d, want 1", p.MaxStack)
	}
}

func TestEmitter_UnmarkedLabel(t *testing.T) {
	e := New("f", FunctionUnit)
	e.EmitJump(Jump, e.NewLabel())
	if _, err := e.Finish(false); err == nil {
		t.Errorf("Finish succeeded with an unmarked label")
	}
}

func TestEmitter_InternsConstants(t *testing.T) {
	e := New("f", FunctionUnit)
	a, b := e.String("x"), e.String("x")
	n1, n2 := e.Number(1.5), e.Number(1.5)
	if a != b || n1 != n2 || a == n1 {
		t.Errorf("constants not interned: %d %d %d %d", a, b, n1, n2)
	}
}

// emitProtected emits TRY{body} HANDLER{store route; store exception}.
func emitProtected(e *Emitter, body func()) RegionID {
	exc := e.DeclareLocal("", types.Any)
	route := e.DeclareLocal("", types.Int32)
	r := e.BeginTry()
	body()
	e.BeginHandler(r)
	e.Emit(StoreLocal, route)
	e.Emit(StoreLocal, exc)
	e.EndTry(r)
	return r
}

func TestFinish_AcceptsRegionExits(t *testing.T) {
	e := New("f", FunctionUnit)
	exit := e.NewLabel()
	emitProtected(e, func() {
		e.Emit(LoadBool, 0)
		e.EmitJump(JumpIfTrue, exit)
		e.Emit(LongJump, 1)
		e.Mark(exit)
	})
	e.Emit(LoadUndefined)
	e.Emit(Ret)
	p, err := e.Finish(true)
	if err != nil {
		t.Fatal(err)
	}
	if p.MaxStack != 2 {
		t.Errorf("MaxStack = %d, want 2", p.MaxStack)
	}
}

func TestFinish_RejectsJumpOutOfRegion(t *testing.T) {
	e := New("f", FunctionUnit)
	out := e.NewLabel()
	emitProtected(e, func() {
		e.EmitJump(Jump, out)
	})
	e.Mark(out)
	e.Emit(LoadUndefined)
	e.Emit(Ret)
	_, err := e.Finish(true)
	if err == nil || !strings.Contains(err.Error(), "crosses a protected region") {
		t.Errorf("got %v, want region crossing error", err)
	}
}

func TestFinish_RejectsJumpIntoRegion(t *testing.T) {
	e := New("f", FunctionUnit)
	in := e.NewLabel()
	e.EmitJump(Jump, in)
	emitProtected(e, func() {
		e.Emit(Nop)
		e.Mark(in)
		e.Emit(Nop)
	})
	e.Emit(LoadUndefined)
	e.Emit(Ret)
	if _, err := e.Finish(true); err == nil {
		t.Errorf("jump into a region was accepted")
	}
}

func TestFinish_RejectsStackMismatch(t *testing.T) {
	e := New("f", FunctionUnit)
	join := e.NewLabel()
	e.Emit(LoadBool, 1)
	e.EmitJump(JumpIfTrue, join)
	e.Emit(LoadInt, 1)
	e.Mark(join)
	e.Emit(LoadUndefined)
	e.Emit(Ret)
	_, err := e.Finish(true)
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Errorf("got %v, want stack height mismatch", err)
	}
	// Without verification the program is accepted as is.
	e2 := New("f", FunctionUnit)
	e2.Emit(Pop)
	if _, err := e2.Finish(false); err != nil {
		t.Errorf("unverified Finish failed: %v", err)
	}
}

func TestProgram_LinkSharesSource(t *testing.T) {
	inner := New("inner", FunctionUnit)
	inner.SetPos(4)
	inner.Emit(LoadUndefined)
	inner.Emit(Ret)
	ip, _ := inner.Finish(true)

	outer := New("", GlobalUnit)
	outer.Program().Source = "var f"
	outer.Program().SourceName = "test.js"
	outer.Method(ip)
	outer.Emit(LoadUndefined)
	outer.Emit(Ret)
	p, _ := outer.Finish(true)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var restored Program
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	restored.Link()
	ctx := restored.Methods[0].SourceContext(restored.Methods[0].Code[0].Pos)
	if ctx.Name != "test.js" || ctx.From != 4 {
		t.Errorf("context = %s %d", ctx.Name, ctx.From)
	}
}

func TestDisassemble(t *testing.T) {
	e := New("f", FunctionUnit)
	x := e.DeclareLocal("x", types.Int32)
	e.Emit(LoadInt, 3)
	e.Emit(StoreLocal, x)
	e.Emit(LoadConst, e.String("s"))
	e.Emit(GetPropConst, e.String("length"))
	e.Emit(Ret)
	p, _ := e.Finish(true)
	var buf bytes.Buffer
	Disassemble(&buf, p)
	want := `function f (params 0, stack 1)
  .local 0 x int32
  0000 ldint 3
  0001 stloc 0
  0002 ldconst "s"
  0003 getpropc "length"
  0004 ret
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
