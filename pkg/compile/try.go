package compile

import (
	"github.com/dop251/goja/ast"

	"src.jsil.dev/pkg/emit"
	"src.jsil.dev/pkg/types"
)

// guard holds the outcome of a protected region: the locals receiving the
// caught value and the route, and the routes of the long jumps leaving the
// region.
type guard struct {
	exc, route int32
	routes     []route
}

// protect lowers body as a protected region. After the region, the route
// local holds -1 when body completed normally, 0 when it threw, and the
// route id of a long jump otherwise.
func (c *compiler) protect(body func()) guard {
	g := guard{
		exc:   c.fn.e.DeclareLocal("", types.Any),
		route: c.fn.e.DeclareLocal("", types.Int32),
	}
	c.emit(emit.LoadInt, -1)
	c.emit(emit.StoreLocal, g.route)
	r := c.fn.e.BeginTry()
	c.fn.ctx.enterRegion()
	body()
	g.routes = c.fn.ctx.leaveRegion()
	c.fn.e.BeginHandler(r)
	c.emit(emit.StoreLocal, g.route)
	c.emit(emit.StoreLocal, g.exc)
	c.fn.e.EndTry(r)
	return g
}

// dispatch continues the long jumps that left a protected region, once its
// handling code has run. Routes to targets at the current region depth
// become plain jumps; the others are passed on to the enclosing regions.
// Control falls through for the routes other has, which must be 0.
func (c *compiler) dispatch(g guard, done, other emit.Label) {
	c.emit(emit.LoadLocal, g.route)
	c.jump(emit.JumpIfEqInt, done, -1)
	var local []route
	nonlocal := false
	for _, r := range g.routes {
		if r.target.RegionDepth == c.fn.ctx.RegionDepth {
			local = append(local, r)
		} else {
			nonlocal = true
		}
	}
	labels := make([]emit.Label, len(local))
	for i, r := range local {
		labels[i] = c.label()
		c.emit(emit.LoadLocal, g.route)
		c.jump(emit.JumpIfEqInt, labels[i], r.id)
	}
	if nonlocal {
		c.emit(emit.LoadLocal, g.route)
		c.jump(emit.JumpIfEqInt, other, 0)
		c.emit(emit.LoadLocal, g.route)
		c.emit(emit.LongJumpDyn)
	} else {
		c.jump(emit.Jump, other)
	}
	for i, r := range local {
		c.mark(labels[i])
		c.jumpTo(r.target)
	}
}

// protected lowers body followed by finally, which runs however body is
// left; afterwards, an exception is rethrown and a jump resumes.
func (c *compiler) protected(body, finally func()) {
	g := c.protect(body)
	finally()
	done, rethrow := c.label(), c.label()
	c.dispatch(g, done, rethrow)
	c.mark(rethrow)
	c.emit(emit.LoadLocal, g.exc)
	c.emit(emit.Rethrow)
	c.mark(done)
}

func (c *compiler) tryStmt(st *ast.TryStatement) {
	if st.Finally == nil {
		c.tryCatch(st)
		return
	}
	c.protected(func() {
		if st.Catch != nil {
			c.tryCatch(st)
		} else {
			c.block(st.Body)
		}
	}, func() {
		c.block(st.Finally)
	})
}

func (c *compiler) tryCatch(st *ast.TryStatement) {
	g := c.protect(func() { c.block(st.Body) })
	done, catch := c.label(), c.label()
	c.dispatch(g, done, catch)

	c.mark(catch)
	cs := st.Catch
	c.at(cs)
	s := c.tree.ScopeOf(cs)
	prev := c.enterScope(s, nil)
	c.emit(emit.LoadLocal, g.exc)
	c.emit(emit.CaughtValue)
	if cs.Parameter != nil {
		c.bindPattern(cs.Parameter, bindInit, types.Any)
	} else {
		c.emit(emit.Pop)
	}
	c.block(cs.Body)
	c.exitScope(s, prev)
	c.mark(done)
}
