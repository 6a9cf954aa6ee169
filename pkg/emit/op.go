package emit

import "fmt"

// Opcode is an instruction opcode. The operands A, B and C of an
// Instruction are interpreted per opcode, as documented below. "name" is the
// index of a string constant; "target" is a code offset (a label before the
// program is finished).
type Opcode uint8

// Opcodes.
const (
	Nop Opcode = iota
	Pop
	Dup
	Dup2 // a b -> a b a b
	Swap

	LoadUndefined
	LoadNull
	LoadBool // A: 0 or 1
	LoadInt  // A: int32 value, pushed unboxed
	LoadConst
	LoadHole

	LoadLocal  // A: local; B: name+1 to check for an uninitialized binding
	StoreLocal // A: local; B: name+1 to check for an uninitialized binding

	PushScope     // A: scope info
	PushWithScope // pops the operand
	PopScope      // A: count
	CopyScope
	LoadScoped     // A: depth; B: slot; C: name+1 to check for an uninitialized binding
	StoreScoped    // A: depth; B: slot; C: name+1 to check for an uninitialized binding
	LoadName       // A: name
	LoadNameThis   // A: name; pushes the value and the implicit this
	TypeofName     // A: name
	StoreName      // A: name
	InitName       // A: name; initializes a Named binding, bypassing checks
	DeleteName     // A: name
	DeclareVar     // A: name
	DeclareLexical // A: name; B: 1 for const
	// The probes search the first C records of the scope chain for a
	// dynamic binding of name B. When one is found they perform the access
	// and jump to target A; otherwise they fall through to the static
	// access without touching the stack.
	ProbeLoad
	ProbeLoadThis // like ProbeLoad, also pushing the implicit this
	ProbeStore    // pops the value only when found

	LoadThis
	CoerceThis
	LoadFunction
	LoadNewTarget
	LoadArg      // A: index
	LoadRestArgs // A: index of the first rest argument
	LoadArguments

	NewObject
	NewArray  // A: number of elements popped
	ArrayPush // array v -> array
	ArraySpread
	CopyDataProps
	GetProp
	GetPropConst // A: name
	SetProp
	SetPropConst // A: name
	DeleteProp
	DefineProp
	DefinePropConst // A: name
	In
	InstanceOf

	Call // A: argc; B: name+1 describing the callee
	CallSpread
	CallEval  // A: argc
	Construct // A: argc
	NewSpread
	MakeClosure  // A: method
	MakeClass    // A: constructor method; B: 1 if there is a superclass on the stack
	DefineMethod // A: method; B: 1 for static
	SuperCall    // A: argc
	SuperCallSpread
	SuperBase

	Binary // A: rt.BinaryOp
	Unary  // A: rt.UnaryOp
	AddNum
	SubNum
	MulNum
	DivNum
	LtNum
	LeNum
	GtNum
	GeNum
	LtInt
	LeInt
	GtInt
	GeInt
	IncInt
	DecInt
	IncNum
	DecNum
	Conv // A: types.Conversion

	Jump          // A: target
	JumpIfTrue    // A: target
	JumpIfFalse   // A: target
	JumpIfNullish // A: target
	JumpIfEqInt   // A: target; B: value
	Try           // A: region
	Throw
	ThrowError // A: rt.ErrorKind; B: message
	Rethrow
	CaughtValue
	LongJump // A: route
	LongJumpDyn
	Ret
	Debugger

	RegExp         // A: literal; B: cache slot
	TemplateObject // A: literal; B: cache slot
	GetIterator
	EnumKeys
	IterNext // A: target taken when exhausted

	numOpcodes
)

type opInfo struct {
	name string
	// Fixed stack effect; ops with a variable effect are handled in
	// StackEffect.
	pop, push int
	jump      bool
	terminal  bool
}

var opInfos = [numOpcodes]opInfo{
	Nop:  {name: "nop"},
	Pop:  {name: "pop", pop: 1},
	Dup:  {name: "dup", pop: 1, push: 2},
	Dup2: {name: "dup2", pop: 2, push: 4},
	Swap: {name: "swap", pop: 2, push: 2},

	LoadUndefined: {name: "ldundef", push: 1},
	LoadNull:      {name: "ldnull", push: 1},
	LoadBool:      {name: "ldbool", push: 1},
	LoadInt:       {name: "ldint", push: 1},
	LoadConst:     {name: "ldconst", push: 1},
	LoadHole:      {name: "ldhole", push: 1},

	LoadLocal:  {name: "ldloc", push: 1},
	StoreLocal: {name: "stloc", pop: 1},

	PushScope:      {name: "pushscope"},
	PushWithScope:  {name: "pushwith", pop: 1},
	PopScope:       {name: "popscope"},
	CopyScope:      {name: "copyscope"},
	LoadScoped:     {name: "ldscoped", push: 1},
	StoreScoped:    {name: "stscoped", pop: 1},
	LoadName:       {name: "ldname", push: 1},
	LoadNameThis:   {name: "ldnamethis", push: 2},
	TypeofName:     {name: "typeofname", push: 1},
	StoreName:      {name: "stname", pop: 1},
	InitName:       {name: "initname", pop: 1},
	DeleteName:     {name: "delname", push: 1},
	DeclareVar:     {name: "declvar"},
	DeclareLexical: {name: "decllex"},
	ProbeLoad:      {name: "probeld", jump: true},
	ProbeLoadThis:  {name: "probeldthis", jump: true},
	ProbeStore:     {name: "probest", jump: true},

	LoadThis:      {name: "ldthis", push: 1},
	CoerceThis:    {name: "coercethis"},
	LoadFunction:  {name: "ldfunc", push: 1},
	LoadNewTarget: {name: "ldnewtarget", push: 1},
	LoadArg:       {name: "ldarg", push: 1},
	LoadRestArgs:  {name: "ldrest", push: 1},
	LoadArguments: {name: "ldarguments", push: 1},

	NewObject:       {name: "newobj", push: 1},
	NewArray:        {name: "newarr"},
	ArrayPush:       {name: "arrpush", pop: 2, push: 1},
	ArraySpread:     {name: "arrspread", pop: 2, push: 1},
	CopyDataProps:   {name: "copyprops", pop: 2, push: 1},
	GetProp:         {name: "getprop", pop: 2, push: 1},
	GetPropConst:    {name: "getpropc", pop: 1, push: 1},
	SetProp:         {name: "setprop", pop: 3, push: 1},
	SetPropConst:    {name: "setpropc", pop: 2, push: 1},
	DeleteProp:      {name: "delprop", pop: 2, push: 1},
	DefineProp:      {name: "defprop", pop: 3, push: 1},
	DefinePropConst: {name: "defpropc", pop: 2, push: 1},
	In:              {name: "in", pop: 2, push: 1},
	InstanceOf:      {name: "instanceof", pop: 2, push: 1},

	Call:            {name: "call"},
	CallSpread:      {name: "callspread", pop: 3, push: 1},
	CallEval:        {name: "calleval"},
	Construct:       {name: "construct"},
	NewSpread:       {name: "newspread", pop: 2, push: 1},
	MakeClosure:     {name: "closure", push: 1},
	MakeClass:       {name: "class"},
	DefineMethod:    {name: "defmethod", pop: 3, push: 2},
	SuperCall:       {name: "supercall"},
	SuperCallSpread: {name: "supercallspread", pop: 1, push: 1},
	SuperBase:       {name: "superbase", push: 1},

	Binary: {name: "binary", pop: 2, push: 1},
	Unary:  {name: "unary", pop: 1, push: 1},
	AddNum: {name: "add.num", pop: 2, push: 1},
	SubNum: {name: "sub.num", pop: 2, push: 1},
	MulNum: {name: "mul.num", pop: 2, push: 1},
	DivNum: {name: "div.num", pop: 2, push: 1},
	LtNum:  {name: "lt.num", pop: 2, push: 1},
	LeNum:  {name: "le.num", pop: 2, push: 1},
	GtNum:  {name: "gt.num", pop: 2, push: 1},
	GeNum:  {name: "ge.num", pop: 2, push: 1},
	LtInt:  {name: "lt.i32", pop: 2, push: 1},
	LeInt:  {name: "le.i32", pop: 2, push: 1},
	GtInt:  {name: "gt.i32", pop: 2, push: 1},
	GeInt:  {name: "ge.i32", pop: 2, push: 1},
	IncInt: {name: "inc.i32", pop: 1, push: 1},
	DecInt: {name: "dec.i32", pop: 1, push: 1},
	IncNum: {name: "inc.num", pop: 1, push: 1},
	DecNum: {name: "dec.num", pop: 1, push: 1},
	Conv:   {name: "conv", pop: 1, push: 1},

	Jump:          {name: "jmp", jump: true, terminal: true},
	JumpIfTrue:    {name: "jtrue", pop: 1, jump: true},
	JumpIfFalse:   {name: "jfalse", pop: 1, jump: true},
	JumpIfNullish: {name: "jnullish", pop: 1, jump: true},
	JumpIfEqInt:   {name: "jeq.i32", pop: 1, jump: true},
	Try:           {name: "try"},
	Throw:         {name: "throw", pop: 1, terminal: true},
	ThrowError:    {name: "throwerr", terminal: true},
	Rethrow:       {name: "rethrow", pop: 1, terminal: true},
	CaughtValue:   {name: "caughtval", pop: 1, push: 1},
	LongJump:      {name: "longjmp", terminal: true},
	LongJumpDyn:   {name: "longjmpdyn", pop: 1, terminal: true},
	Ret:           {name: "ret", pop: 1, terminal: true},
	Debugger:      {name: "debugger"},

	RegExp:         {name: "regexp", push: 1},
	TemplateObject: {name: "template", push: 1},
	GetIterator:    {name: "getiter", pop: 1, push: 1},
	EnumKeys:       {name: "enumkeys", pop: 1, push: 1},
	IterNext:       {name: "iternext", pop: 1, push: 1, jump: true},
}

func (op Opcode) String() string {
	if op < numOpcodes && opInfos[op].name != "" {
		return opInfos[op].name
	}
	return fmt.Sprintf("!(op %d)", uint8(op))
}

// IsJump reports whether the A operand of op is a code target.
func (op Opcode) IsJump() bool { return op < numOpcodes && opInfos[op].jump }

// IsTerminal reports whether control never falls through op.
func (op Opcode) IsTerminal() bool { return op < numOpcodes && opInfos[op].terminal }

// StackEffect returns the number of values an instruction pops and pushes
// when it falls through.
func StackEffect(ins Instruction) (pop, push int) {
	switch ins.Op {
	case NewArray:
		return int(ins.A), 1
	case Call, CallEval:
		return int(ins.A) + 2, 1
	case Construct:
		return int(ins.A) + 1, 1
	case SuperCall:
		return int(ins.A), 1
	case MakeClass:
		return int(ins.B), 2
	case ProbeLoad, ProbeLoadThis, ProbeStore:
		return 0, 0
	}
	info := opInfos[ins.Op]
	return info.pop, info.push
}

// JumpEffect returns the number of values a jump instruction pops and
// pushes when it takes the jump.
func JumpEffect(ins Instruction) (pop, push int) {
	switch ins.Op {
	case ProbeLoad:
		return 0, 1
	case ProbeLoadThis:
		return 0, 2
	case ProbeStore:
		return 1, 0
	case IterNext:
		return 1, 0
	}
	return opInfos[ins.Op].pop, 0
}
