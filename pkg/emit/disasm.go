package emit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"src.jsil.dev/pkg/rt"
	"src.jsil.dev/pkg/types"
)

// Disassemble renders a readable listing of a program and its nested
// methods.
func Disassemble(w io.Writer, p *Program) {
	disassemble(w, p, "")
}

func disassemble(w io.Writer, p *Program, indent string) {
	strict := ""
	if p.Strict {
		strict = " strict"
	}
	fmt.Fprintf(w, "%s%s %s%s (params %d, stack %d)\n", indent, p.Kind, displayName(p.Name), strict, p.Params, p.MaxStack)
	for i, l := range p.Locals {
		fmt.Fprintf(w, "%s  .local %d %s %s\n", indent, i, displayName(l.Name), l.Type)
	}
	for i, s := range p.Scopes {
		kind := "declarative"
		if s.Named {
			kind = "named"
		}
		fmt.Fprintf(w, "%s  .scope %d %s [%s]\n", indent, i, kind, strings.Join(s.Names, " "))
	}
	for i, r := range p.Regions {
		fmt.Fprintf(w, "%s  .region %d body %04d-%04d handler %04d-%04d\n", indent, i, r.Start, r.End, r.End, r.Exit)
	}
	for pc, ins := range p.Code {
		fmt.Fprintf(w, "%s  %04d %s\n", indent, pc, formatInstruction(p, ins))
	}
	for i, m := range p.Methods {
		fmt.Fprintf(w, "%s  .method %d\n", indent, i)
		disassemble(w, m, indent+"    ")
	}
}

func displayName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func formatInstruction(p *Program, ins Instruction) string {
	var sb strings.Builder
	sb.WriteString(ins.Op.String())
	str := func(i int32) string { return strconv.Quote(p.String(i)) }
	checked := func(i int32) string {
		if i == 0 {
			return ""
		}
		return " tdz " + str(i-1)
	}
	switch ins.Op {
	case LoadBool, LoadInt, PopScope, PushScope, LoadArg, LoadRestArgs, NewArray,
		Call, CallEval, Construct, SuperCall, MakeClosure, Try, LongJump:
		fmt.Fprintf(&sb, " %d", ins.A)
	case LoadConst:
		c := p.Consts[ins.A]
		if c.Kind == NumberLiteral {
			fmt.Fprintf(&sb, " %v", c.Num)
		} else {
			sb.WriteString(" " + strconv.Quote(c.Str))
		}
	case LoadLocal, StoreLocal:
		fmt.Fprintf(&sb, " %d%s", ins.A, checked(ins.B))
	case LoadScoped, StoreScoped:
		fmt.Fprintf(&sb, " %d.%d%s", ins.A, ins.B, checked(ins.C))
	case LoadName, LoadNameThis, TypeofName, StoreName, InitName, DeleteName, DeclareVar,
		GetPropConst, SetPropConst, DefinePropConst:
		sb.WriteString(" " + str(ins.A))
	case DeclareLexical:
		fmt.Fprintf(&sb, " %s %d", str(ins.A), ins.B)
	case ProbeLoad, ProbeLoadThis, ProbeStore:
		fmt.Fprintf(&sb, " %s depth %d -> %04d", str(ins.B), ins.C, ins.A)
	case MakeClass, DefineMethod:
		fmt.Fprintf(&sb, " %d %d", ins.A, ins.B)
	case Binary:
		fmt.Fprintf(&sb, " %s", rt.BinaryOp(ins.A))
	case Unary:
		fmt.Fprintf(&sb, " %s", rt.UnaryOp(ins.A))
	case Conv:
		fmt.Fprintf(&sb, " %s", types.Conversion(ins.A))
	case ThrowError:
		fmt.Fprintf(&sb, " %s %s", rt.ErrorKind(ins.A), str(ins.B))
	case RegExp, TemplateObject:
		fmt.Fprintf(&sb, " #%d cache %d", ins.A, ins.B)
	case JumpIfEqInt:
		fmt.Fprintf(&sb, " %d -> %04d", ins.B, ins.A)
	default:
		if ins.Op.IsJump() {
			fmt.Fprintf(&sb, " -> %04d", ins.A)
		}
	}
	return sb.String()
}
