package rt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeArena_ReleaseFreesChainAndReuses(t *testing.T) {
	a := NewScopeArena()
	outer := a.NewDeclarative(NoScope, 1, Undefined)
	inner := a.NewDeclarative(outer, 2, Hole)
	require.Equal(t, 2, a.Live())

	// The activation that pushed outer drops its reference; inner still
	// keeps outer alive.
	a.Release(outer)
	assert.Equal(t, 2, a.Live())
	a.SetSlot(inner, 1, 0, 42.0)
	assert.Equal(t, 42.0, a.Slot(inner, 1, 0))

	a.Release(inner)
	assert.Equal(t, 0, a.Live())

	reused := a.NewDeclarative(NoScope, 1, Undefined)
	assert.NotEqual(t, inner, reused, "reused record must get a new generation")
	assert.Panics(t, func() { a.Slot(inner, 0, 0) }, "stale handle must be rejected")
}

func TestScopeArena_ReleaseLater(t *testing.T) {
	a := NewScopeArena()
	h := a.NewDeclarative(NoScope, 0, Undefined)
	done := make(chan struct{})
	go func() {
		a.ReleaseLater(h)
		close(done)
	}()
	<-done
	assert.Equal(t, 0, a.Live())
}

func TestScopeArena_Lookup(t *testing.T) {
	r := NewRealm()
	a := r.Scopes
	r.Global.Set("g", 1.0)
	withObj := r.NewObject()
	withObj.Set("w", 2.0)
	named := a.NewNamed(r.GlobalLexical, []string{"n", "c"}, []bool{false, true}, Hole, true)
	with := a.NewObjectBacked(named, withObj, true, false)
	decl := a.NewDeclarative(with, 3, Undefined)

	res, ok := a.Lookup(decl, "w", -1)
	require.True(t, ok)
	assert.Equal(t, withObj, res.Object)
	assert.Equal(t, Value(withObj), res.This)

	res, ok = a.Lookup(decl, "c", -1)
	require.True(t, ok)
	assert.Equal(t, named, res.Scope)
	assert.True(t, res.Binding.Immutable)

	res, ok = a.Lookup(decl, "g", -1)
	require.True(t, ok)
	assert.Equal(t, r.Global, res.Object)
	assert.Equal(t, Undefined, res.This)

	_, ok = a.Lookup(decl, "g", 2)
	assert.False(t, ok, "limit must stop the search")
	_, ok = a.Lookup(decl, "missing", -1)
	assert.False(t, ok)

	vs, ok := a.VarScope(decl)
	require.True(t, ok)
	assert.Equal(t, named, vs)
	slot := a.Declare(vs, "fresh", Undefined)
	assert.Equal(t, 2, slot)
	assert.Equal(t, 2, a.Declare(vs, "fresh", Undefined))
}

func TestScopeArena_CopyTransfersOwnership(t *testing.T) {
	a := NewScopeArena()
	parent := a.NewDeclarative(NoScope, 0, Undefined)
	h := a.NewDeclarative(parent, 1, Undefined)
	a.SetSlot(h, 0, 0, 1.0)
	c := a.Copy(h)
	assert.Equal(t, 1.0, a.Slot(c, 0, 0))
	assert.Equal(t, parent, a.Parent(c))
	assert.Equal(t, 2, a.Live(), "the source record must be freed")
	a.SetSlot(c, 0, 0, 2.0)
	a.Release(c)
	a.Release(parent)
	assert.Equal(t, 0, a.Live())
}
