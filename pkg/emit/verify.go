package emit

import "fmt"

const defaultMaxStack = 16

// analyzeStack computes the stack height at every reachable instruction and
// returns the maximum. Without verification it only returns a capacity hint.
func analyzeStack(p *Program, verify bool) (int, error) {
	if !verify {
		return defaultMaxStack, nil
	}
	heights := make([]int, len(p.Code)+1)
	for i := range heights {
		heights[i] = -1
	}
	type item struct{ pc, h int }
	var work []item
	max := 0
	visit := func(from, pc, h int) error {
		pc = exitOf(p, from, pc)
		if h < 0 {
			return fmt.Errorf("stack underflow at %d", from)
		}
		if h > max {
			max = h
		}
		switch heights[pc] {
		case -1:
			heights[pc] = h
			work = append(work, item{pc, h})
		case h:
		default:
			return fmt.Errorf("stack height mismatch at %d: %d from %d, %d before", pc, h, from, heights[pc])
		}
		return nil
	}
	if err := visit(0, 0, 0); err != nil {
		return 0, err
	}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]
		if it.pc == len(p.Code) {
			continue
		}
		ins := p.Code[it.pc]
		if ins.Op == Try {
			r := p.Regions[ins.A]
			for _, next := range []item{{int(r.Start), it.h}, {int(r.End), it.h + 2}, {int(r.Exit), it.h}} {
				if err := visit(it.pc, next.pc, next.h); err != nil {
					return 0, err
				}
			}
			continue
		}
		if ins.Op.IsJump() {
			pop, push := JumpEffect(ins)
			if err := visit(it.pc, int(ins.A), it.h-pop+push); err != nil {
				return 0, err
			}
		}
		if !ins.Op.IsTerminal() {
			pop, push := StackEffect(ins)
			if it.h-pop < 0 {
				return 0, fmt.Errorf("stack underflow at %d (%v)", it.pc, ins.Op)
			}
			if err := visit(it.pc, it.pc+1, it.h-pop+push); err != nil {
				return 0, err
			}
		}
	}
	return max, nil
}

// exitOf maps a control transfer from the instruction at from to pc onto
// the instruction that actually runs next: reaching the end of a protected
// body continues after its handler.
func exitOf(p *Program, from, pc int) int {
	for changed := true; changed; {
		changed = false
		for _, r := range p.Regions {
			if from >= int(r.Start) && from < int(r.End) && pc == int(r.End) {
				pc, changed = int(r.Exit), true
			}
		}
	}
	return pc
}

type part struct{ start, end int }

// checkRegions verifies that no jump crosses the boundary of a protected
// body or handler, except to leave it at its end.
func checkRegions(p *Program) error {
	parts := []part{{0, len(p.Code)}}
	for _, r := range p.Regions {
		parts = append(parts, part{int(r.Start), int(r.End)}, part{int(r.End), int(r.Exit)})
	}
	innermost := func(pc int) part {
		best := parts[0]
		for _, q := range parts[1:] {
			if pc >= q.start && pc < q.end && q.end-q.start <= best.end-best.start {
				best = q
			}
		}
		return best
	}
	for pc, ins := range p.Code {
		if !ins.Op.IsJump() {
			continue
		}
		from := innermost(pc)
		t := int(ins.A)
		if t == from.end {
			continue
		}
		if t < from.start || t > from.end || innermost(t) != from {
			return fmt.Errorf("jump at %d to %d crosses a protected region boundary", pc, t)
		}
	}
	return nil
}
