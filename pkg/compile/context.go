package compile

import (
	"errors"
	"fmt"

	"src.jsil.dev/pkg/emit"
)

// Target is a place control can be transferred to by break, continue or
// return.
type Target struct {
	Label emit.Label
	// RegionDepth is the number of protected regions enclosing the target.
	RegionDepth int
	// ScopeDepth is the number of runtime scope records pushed by the
	// function at the target. It is negative when the scope chain does not
	// matter, as for the return target.
	ScopeDepth int
}

// BreakOrContinueInfo describes a statement break or continue can refer to.
type BreakOrContinueInfo struct {
	Labels []string
	// LabelledOnly is set for statements that can only be the target of a
	// labelled break, such as a labelled block.
	LabelledOnly bool
	Break        Target
	// Continue is nil for statements that are not iteration statements.
	Continue *Target
}

func (info *BreakOrContinueInfo) hasLabel(name string) bool {
	for _, l := range info.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// route is a target reached by a long jump.
type route struct {
	id     int32
	target Target
}

// OptimizationContext tracks the control-flow state of the function being
// lowered: the statements break and continue can refer to, the enclosing
// protected regions, and the routes of the long jumps crossing them.
type OptimizationContext struct {
	infos []*BreakOrContinueInfo

	RegionDepth int
	ScopeDepth  int

	// regions[d] lists the routes of the long jumps leaving the region
	// entered at depth d.
	regions [][]route
	routes  []route
}

// Errors reported by the OptimizationContext.
var (
	errIllegalBreak    = errors.New("Illegal break statement")
	errIllegalContinue = errors.New("Illegal continue statement: no surrounding iteration statement")
)

// PushBreakOrContinueInfo registers a statement break or continue can refer
// to. It fails if one of the labels is already in use by an enclosing
// statement.
func (ctx *OptimizationContext) PushBreakOrContinueInfo(labels []string, brk Target, cont *Target, labelledOnly bool) error {
	for _, l := range labels {
		for _, info := range ctx.infos {
			if info.hasLabel(l) {
				return fmt.Errorf("Label '%s' has already been declared", l)
			}
		}
	}
	ctx.infos = append(ctx.infos, &BreakOrContinueInfo{
		Labels: labels, LabelledOnly: labelledOnly, Break: brk, Continue: cont})
	return nil
}

// PopBreakOrContinueInfo removes the innermost statement.
func (ctx *OptimizationContext) PopBreakOrContinueInfo() {
	ctx.infos = ctx.infos[:len(ctx.infos)-1]
}

// BreakTarget returns the target of a break statement with an optional
// label.
func (ctx *OptimizationContext) BreakTarget(label string) (Target, error) {
	for i := len(ctx.infos) - 1; i >= 0; i-- {
		info := ctx.infos[i]
		if label == "" && !info.LabelledOnly || label != "" && info.hasLabel(label) {
			return info.Break, nil
		}
	}
	if label == "" {
		return Target{}, errIllegalBreak
	}
	return Target{}, fmt.Errorf("Undefined label '%s'", label)
}

// ContinueTarget returns the target of a continue statement with an
// optional label.
func (ctx *OptimizationContext) ContinueTarget(label string) (Target, error) {
	for i := len(ctx.infos) - 1; i >= 0; i-- {
		info := ctx.infos[i]
		if label == "" {
			if info.Continue != nil {
				return *info.Continue, nil
			}
			continue
		}
		if info.hasLabel(label) {
			if info.Continue == nil {
				return Target{}, fmt.Errorf("Illegal continue statement: '%s' does not denote an iteration statement", label)
			}
			return *info.Continue, nil
		}
	}
	if label == "" {
		return Target{}, errIllegalContinue
	}
	return Target{}, fmt.Errorf("Undefined label '%s'", label)
}

// here returns a target at the current depths.
func (ctx *OptimizationContext) here(l emit.Label) Target {
	return Target{Label: l, RegionDepth: ctx.RegionDepth, ScopeDepth: ctx.ScopeDepth}
}

// enterRegion records the start of a protected region.
func (ctx *OptimizationContext) enterRegion() {
	ctx.regions = append(ctx.regions, nil)
	ctx.RegionDepth++
}

// leaveRegion records the end of the innermost protected region and
// returns the routes leaving it.
func (ctx *OptimizationContext) leaveRegion() []route {
	n := len(ctx.regions) - 1
	rs := ctx.regions[n]
	ctx.regions = ctx.regions[:n]
	ctx.RegionDepth--
	return rs
}

// route returns the route of a long jump from the current region depth to
// t, registering it with every region the jump leaves.
func (ctx *OptimizationContext) route(t Target) route {
	var r route
	found := false
	for _, q := range ctx.routes {
		if q.target == t {
			r, found = q, true
			break
		}
	}
	if !found {
		r = route{id: int32(len(ctx.routes) + 1), target: t}
		ctx.routes = append(ctx.routes, r)
	}
	for d := t.RegionDepth; d < ctx.RegionDepth; d++ {
		if !containsRoute(ctx.regions[d], r.id) {
			ctx.regions[d] = append(ctx.regions[d], r)
		}
	}
	return r
}

func containsRoute(rs []route, id int32) bool {
	for _, r := range rs {
		if r.id == id {
			return true
		}
	}
	return false
}
