package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"src.jsil.dev/pkg/emit"
)

func target(l int) Target { return Target{Label: emit.Label(l)} }

func TestOptimizationContext_BreakTarget(t *testing.T) {
	var ctx OptimizationContext
	_, err := ctx.BreakTarget("")
	assert.EqualError(t, err, "Illegal break statement")

	require.NoError(t, ctx.PushBreakOrContinueInfo([]string{"outer"}, target(1), nil, true))
	_, err = ctx.BreakTarget("")
	assert.EqualError(t, err, "Illegal break statement", "labelled-only statements need a label")
	got, err := ctx.BreakTarget("outer")
	require.NoError(t, err)
	assert.Equal(t, target(1), got)

	cont := target(3)
	require.NoError(t, ctx.PushBreakOrContinueInfo(nil, target(2), &cont, false))
	got, err = ctx.BreakTarget("")
	require.NoError(t, err)
	assert.Equal(t, target(2), got)
	got, err = ctx.BreakTarget("outer")
	require.NoError(t, err)
	assert.Equal(t, target(1), got)

	_, err = ctx.BreakTarget("nope")
	assert.EqualError(t, err, "Undefined label 'nope'")

	ctx.PopBreakOrContinueInfo()
	ctx.PopBreakOrContinueInfo()
	assert.Empty(t, ctx.infos)
}

func TestOptimizationContext_ContinueTarget(t *testing.T) {
	var ctx OptimizationContext
	cont := target(2)
	require.NoError(t, ctx.PushBreakOrContinueInfo([]string{"loop"}, target(1), &cont, false))
	require.NoError(t, ctx.PushBreakOrContinueInfo([]string{"block"}, target(3), nil, true))
	require.NoError(t, ctx.PushBreakOrContinueInfo(nil, target(4), nil, false))

	got, err := ctx.ContinueTarget("")
	require.NoError(t, err, "unlabelled continue skips switch-like entries")
	assert.Equal(t, target(2), got)
	got, err = ctx.ContinueTarget("loop")
	require.NoError(t, err)
	assert.Equal(t, target(2), got)

	_, err = ctx.ContinueTarget("block")
	assert.EqualError(t, err, "Illegal continue statement: 'block' does not denote an iteration statement")
	_, err = ctx.ContinueTarget("missing")
	assert.EqualError(t, err, "Undefined label 'missing'")

	var empty OptimizationContext
	_, err = empty.ContinueTarget("")
	assert.EqualError(t, err, "Illegal continue statement: no surrounding iteration statement")
}

func TestOptimizationContext_DuplicateLabel(t *testing.T) {
	var ctx OptimizationContext
	require.NoError(t, ctx.PushBreakOrContinueInfo([]string{"a", "b"}, target(1), nil, true))
	err := ctx.PushBreakOrContinueInfo([]string{"b"}, target(2), nil, true)
	assert.EqualError(t, err, "Label 'b' has already been declared")
}

func TestOptimizationContext_Routes(t *testing.T) {
	var ctx OptimizationContext
	outer := ctx.here(emit.Label(1))
	ctx.enterRegion()
	ctx.enterRegion()

	r := ctx.route(outer)
	assert.Equal(t, int32(1), r.id)
	assert.Equal(t, r, ctx.route(outer), "routes to the same target are shared")

	inner := ctx.here(emit.Label(2))
	ctx.enterRegion()
	r2 := ctx.route(inner)
	assert.Equal(t, int32(2), r2.id)

	assert.Equal(t, []route{r2}, ctx.leaveRegion())
	assert.Equal(t, []route{r}, ctx.leaveRegion())
	assert.Equal(t, []route{r}, ctx.leaveRegion())
	assert.Equal(t, 0, ctx.RegionDepth)
}
