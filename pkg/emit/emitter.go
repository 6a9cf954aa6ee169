package emit

import (
	"fmt"
	"math"

	"src.jsil.dev/pkg/types"
)

// Label is a code position that may not be known yet.
type Label int32

// RegionID identifies a protected region being emitted.
type RegionID int32

// Emitter builds a Program. It is not safe for concurrent use.
type Emitter struct {
	prog   *Program
	labels []int32
	pos    int32

	strings map[string]int32
	numbers map[uint64]int32
}

// New creates an Emitter for a unit.
func New(name string, kind UnitKind) *Emitter {
	return &Emitter{
		prog:    &Program{Name: name, Kind: kind},
		pos:     -1,
		strings: make(map[string]int32),
		numbers: make(map[uint64]int32),
	}
}

// Program returns the program being built, for setting its metadata.
func (e *Emitter) Program() *Program { return e.prog }

// PC returns the offset of the next instruction.
func (e *Emitter) PC() int { return len(e.prog.Code) }

// SetPos sets the source offset recorded for subsequent instructions.
func (e *Emitter) SetPos(offset int) { e.pos = int32(offset) }

// Pos returns the current source offset.
func (e *Emitter) Pos() int { return int(e.pos) }

// Emit appends an instruction and returns its offset.
func (e *Emitter) Emit(op Opcode, operands ...int32) int {
	ins := Instruction{Op: op, Pos: e.pos}
	switch len(operands) {
	case 3:
		ins.C = operands[2]
		fallthrough
	case 2:
		ins.B = operands[1]
		fallthrough
	case 1:
		ins.A = operands[0]
	case 0:
	default:
		panic(fmt.Sprintf("too many operands for %v", op))
	}
	e.prog.Code = append(e.prog.Code, ins)
	return len(e.prog.Code) - 1
}

// NewLabel creates an unmarked label.
func (e *Emitter) NewLabel() Label {
	e.labels = append(e.labels, -1)
	return Label(len(e.labels) - 1)
}

// Mark binds a label to the next instruction offset.
func (e *Emitter) Mark(l Label) {
	if e.labels[l] >= 0 {
		panic(fmt.Sprintf("label %d marked twice", l))
	}
	e.labels[l] = int32(len(e.prog.Code))
}

// IsMarked reports whether a label has been marked.
func (e *Emitter) IsMarked(l Label) bool { return e.labels[l] >= 0 }

// EmitJump appends a jump instruction targeting l. The remaining operands
// become B and C.
func (e *Emitter) EmitJump(op Opcode, l Label, operands ...int32) int {
	if !op.IsJump() {
		panic(fmt.Sprintf("%v is not a jump", op))
	}
	return e.Emit(op, append([]int32{int32(l)}, operands...)...)
}

// DeclareLocal adds a local slot. An empty name declares a hidden
// temporary.
func (e *Emitter) DeclareLocal(name string, t types.Type) int32 {
	e.prog.Locals = append(e.prog.Locals, LocalInfo{Name: name, Type: t})
	return int32(len(e.prog.Locals) - 1)
}

// LocalType returns the storage type of a local.
func (e *Emitter) LocalType(i int32) types.Type { return e.prog.Locals[i].Type }

// SetLocalType changes the storage type of a local.
func (e *Emitter) SetLocalType(i int32, t types.Type) { e.prog.Locals[i].Type = t }

// String interns a string constant.
func (e *Emitter) String(s string) int32 {
	if i, ok := e.strings[s]; ok {
		return i
	}
	i := e.addConst(Literal{Kind: StringLiteral, Str: s})
	e.strings[s] = i
	return i
}

// Number interns a number constant.
func (e *Emitter) Number(f float64) int32 {
	bits := math.Float64bits(f)
	if i, ok := e.numbers[bits]; ok {
		return i
	}
	i := e.addConst(Literal{Kind: NumberLiteral, Num: f})
	e.numbers[bits] = i
	return i
}

// Literal adds a constant without interning it.
func (e *Emitter) Literal(l Literal) int32 { return e.addConst(l) }

func (e *Emitter) addConst(l Literal) int32 {
	e.prog.Consts = append(e.prog.Consts, l)
	return int32(len(e.prog.Consts) - 1)
}

// Scope adds a scope descriptor.
func (e *Emitter) Scope(info ScopeInfo) int32 {
	e.prog.Scopes = append(e.prog.Scopes, info)
	return int32(len(e.prog.Scopes) - 1)
}

// Method adds a nested method.
func (e *Emitter) Method(p *Program) int32 {
	e.prog.Methods = append(e.prog.Methods, p)
	return int32(len(e.prog.Methods) - 1)
}

// CacheSlot allocates a per-site cache slot.
func (e *Emitter) CacheSlot() int32 {
	e.prog.CacheSlots++
	return int32(e.prog.CacheSlots - 1)
}

// BeginTry emits a Try instruction and starts its protected body.
func (e *Emitter) BeginTry() RegionID {
	e.prog.Regions = append(e.prog.Regions, Region{Start: -1, End: -1, Exit: -1})
	r := RegionID(len(e.prog.Regions) - 1)
	e.Emit(Try, int32(r))
	e.prog.Regions[r].Start = int32(len(e.prog.Code))
	return r
}

// BeginHandler ends the protected body of r and starts its handler.
func (e *Emitter) BeginHandler(r RegionID) {
	e.prog.Regions[r].End = int32(len(e.prog.Code))
}

// EndTry ends the handler of r.
func (e *Emitter) EndTry(r RegionID) {
	e.prog.Regions[r].Exit = int32(len(e.prog.Code))
}

// Finish resolves labels and returns the program. When verify is set, the
// stack discipline and region structure are checked.
func (e *Emitter) Finish(verify bool) (*Program, error) {
	p := e.prog
	for i := range p.Code {
		ins := &p.Code[i]
		if ins.Op.IsJump() {
			target := e.labels[ins.A]
			if target < 0 {
				return nil, fmt.Errorf("%s: jump at %d to unmarked label %d", p.Name, i, ins.A)
			}
			ins.A = target
		}
	}
	for i, r := range p.Regions {
		if r.Start < 0 || r.End < r.Start || r.Exit < r.End {
			return nil, fmt.Errorf("%s: region %d is not closed", p.Name, i)
		}
	}
	maxStack, err := analyzeStack(p, verify)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	p.MaxStack = maxStack
	if verify {
		if err := checkRegions(p); err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	p.Link()
	return p, nil
}
