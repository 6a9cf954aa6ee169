package rt

import (
	"fmt"
	"maps"
	"sync"
)

// ScopeKind is the kind of a runtime scope record.
type ScopeKind uint8

// Runtime scope kinds.
const (
	// Declarative records hold a flat slot array resolved statically.
	Declarative ScopeKind = iota
	// Named records are declarative records that can also be searched by
	// name, used by functions that contain a direct eval and for the global
	// lexical environment.
	Named
	// ObjectBacked records resolve names against the properties of an
	// object: the global object, or the operand of a with statement.
	ObjectBacked
)

var scopeKindNames = [...]string{"declarative", "named", "object"}

func (k ScopeKind) String() string { return scopeKindNames[k] }

// ScopeHandle refers to a record in a ScopeArena. The zero value refers to
// no scope.
type ScopeHandle struct {
	index uint32
	gen   uint32
}

// NoScope is the handle of the empty scope chain.
var NoScope = ScopeHandle{}

// IsNone reports whether the handle refers to no scope.
func (h ScopeHandle) IsNone() bool { return h.index == 0 }

func (h ScopeHandle) String() string {
	if h.IsNone() {
		return "scope(none)"
	}
	return fmt.Sprintf("scope(%d.%d)", h.index, h.gen)
}

// Binding describes one named slot of a Named record.
type Binding struct {
	Slot      int
	Immutable bool
}

type scopeRecord struct {
	gen    uint32
	refs   int32
	kind   ScopeKind
	parent ScopeHandle

	slots []Value
	names map[string]Binding
	// varScope marks a Named record or the global object record as the
	// target of var declarations made by non-strict direct eval.
	varScope bool

	object *Object
	// implicitThis is set for with records; calls through them use the
	// object as this.
	implicitThis bool
}

// ScopeArena owns the runtime scope records of a realm. Records are
// reference counted: each child record and each closure holds a reference
// to the record it was created under, and an activation holds a reference to
// every record it pushes. A record whose count drops to zero releases its
// parent and is reused.
//
// The arena is used by one goroutine at a time, except for ReleaseLater,
// which closure finalizers call.
type ScopeArena struct {
	records []scopeRecord
	free    []uint32

	mu      sync.Mutex
	pending []ScopeHandle
}

// NewScopeArena creates an empty arena.
func NewScopeArena() *ScopeArena {
	// Index 0 is reserved for NoScope.
	return &ScopeArena{records: make([]scopeRecord, 1, 64)}
}

func (a *ScopeArena) get(h ScopeHandle) *scopeRecord {
	if h.index == 0 || int(h.index) >= len(a.records) {
		panic(fmt.Sprintf("invalid %v", h))
	}
	rec := &a.records[h.index]
	if rec.gen != h.gen || rec.refs <= 0 {
		panic(fmt.Sprintf("stale %v", h))
	}
	return rec
}

func (a *ScopeArena) alloc(kind ScopeKind, parent ScopeHandle) ScopeHandle {
	a.drain()
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.records = append(a.records, scopeRecord{})
		index = uint32(len(a.records) - 1)
	}
	rec := &a.records[index]
	rec.gen++
	rec.refs = 1
	rec.kind = kind
	rec.parent = parent
	if !parent.IsNone() {
		a.Retain(parent)
	}
	return ScopeHandle{index, rec.gen}
}

// NewDeclarative creates a declarative record with n slots, all holding
// init. The caller owns one reference.
func (a *ScopeArena) NewDeclarative(parent ScopeHandle, n int, init Value) ScopeHandle {
	h := a.alloc(Declarative, parent)
	rec := &a.records[h.index]
	rec.slots = makeSlots(rec.slots, n, init)
	return h
}

// NewNamed creates a Named record holding the given bindings.
func (a *ScopeArena) NewNamed(parent ScopeHandle, names []string, immutable []bool, init Value, varScope bool) ScopeHandle {
	h := a.alloc(Named, parent)
	rec := &a.records[h.index]
	rec.slots = makeSlots(rec.slots, len(names), init)
	rec.names = make(map[string]Binding, len(names))
	for i, name := range names {
		rec.names[name] = Binding{Slot: i, Immutable: i < len(immutable) && immutable[i]}
	}
	rec.varScope = varScope
	return h
}

// NewObjectBacked creates a record resolving names against obj.
func (a *ScopeArena) NewObjectBacked(parent ScopeHandle, obj *Object, implicitThis, varScope bool) ScopeHandle {
	h := a.alloc(ObjectBacked, parent)
	rec := &a.records[h.index]
	rec.object = obj
	rec.implicitThis = implicitThis
	rec.varScope = varScope
	return h
}

func makeSlots(buf []Value, n int, init Value) []Value {
	if cap(buf) >= n {
		buf = buf[:n]
	} else {
		buf = make([]Value, n)
	}
	for i := range buf {
		buf[i] = init
	}
	return buf
}

// Retain adds a reference to a record.
func (a *ScopeArena) Retain(h ScopeHandle) {
	a.get(h).refs++
}

// Release drops a reference to a record, freeing it and releasing its
// parent when none remain.
func (a *ScopeArena) Release(h ScopeHandle) {
	for !h.IsNone() {
		rec := a.get(h)
		rec.refs--
		if rec.refs > 0 {
			return
		}
		parent := rec.parent
		for i := range rec.slots {
			rec.slots[i] = nil
		}
		rec.slots = rec.slots[:0]
		rec.names = nil
		rec.object = nil
		rec.implicitThis = false
		rec.varScope = false
		rec.parent = NoScope
		a.free = append(a.free, h.index)
		h = parent
	}
}

// ReleaseLater queues a release to be performed by the goroutine using the
// arena. It is safe to call from any goroutine.
func (a *ScopeArena) ReleaseLater(h ScopeHandle) {
	a.mu.Lock()
	a.pending = append(a.pending, h)
	a.mu.Unlock()
}

func (a *ScopeArena) drain() {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	for _, h := range pending {
		a.Release(h)
	}
}

// Live returns the number of records in use.
func (a *ScopeArena) Live() int {
	a.drain()
	return len(a.records) - 1 - len(a.free)
}

// Kind returns the kind of a record.
func (a *ScopeArena) Kind(h ScopeHandle) ScopeKind { return a.get(h).kind }

// Parent returns the parent of a record.
func (a *ScopeArena) Parent(h ScopeHandle) ScopeHandle { return a.get(h).parent }

// Object returns the backing object of an ObjectBacked record.
func (a *ScopeArena) Object(h ScopeHandle) *Object { return a.get(h).object }

// Up walks depth parents up from h.
func (a *ScopeArena) Up(h ScopeHandle, depth int) ScopeHandle {
	for ; depth > 0; depth-- {
		h = a.get(h).parent
	}
	return h
}

// Slot reads a slot of the record depth levels above h.
func (a *ScopeArena) Slot(h ScopeHandle, depth, slot int) Value {
	return a.get(a.Up(h, depth)).slots[slot]
}

// SetSlot writes a slot of the record depth levels above h.
func (a *ScopeArena) SetSlot(h ScopeHandle, depth, slot int, v Value) {
	a.get(a.Up(h, depth)).slots[slot] = v
}

// Copy creates a record with the same kind, parent and slot values as h,
// transferring the caller's reference from h to the copy. It implements
// per-iteration bindings of let loop variables.
func (a *ScopeArena) Copy(h ScopeHandle) ScopeHandle {
	rec := a.get(h)
	parent, kind := rec.parent, rec.kind
	var nh ScopeHandle
	switch kind {
	case Named:
		nh = a.alloc(Named, parent)
		// alloc may have grown the records slice.
		rec = a.get(h)
		nrec := &a.records[nh.index]
		nrec.slots = append(nrec.slots[:0], rec.slots...)
		nrec.names = maps.Clone(rec.names)
		nrec.varScope = rec.varScope
	default:
		nh = a.alloc(Declarative, parent)
		rec = a.get(h)
		nrec := &a.records[nh.index]
		nrec.slots = append(nrec.slots[:0], rec.slots...)
	}
	a.Release(h)
	return nh
}

// LookupResult is where a name was found by Lookup.
type LookupResult struct {
	Scope ScopeHandle
	// Object is set when the name is a property of an object-backed record.
	Object *Object
	// Binding is set when the name is a binding of a Named record.
	Binding Binding
	// This is the implicit this of the record, or Undefined.
	This Value
}

// Lookup searches the chain starting at h for a record that binds name,
// inspecting at most limit records when limit is non-negative. Declarative
// records are skipped.
func (a *ScopeArena) Lookup(h ScopeHandle, name string, limit int) (LookupResult, bool) {
	for ; !h.IsNone() && limit != 0; limit-- {
		rec := a.get(h)
		switch rec.kind {
		case Named:
			if b, ok := rec.names[name]; ok {
				return LookupResult{Scope: h, Binding: b, This: Undefined}, true
			}
		case ObjectBacked:
			if rec.object.Has(name) {
				this := Undefined
				if rec.implicitThis {
					this = rec.object
				}
				return LookupResult{Scope: h, Object: rec.object, This: this}, true
			}
		}
		h = rec.parent
	}
	return LookupResult{}, false
}

// NamedSlot reads a slot of a Named record.
func (a *ScopeArena) NamedSlot(h ScopeHandle, slot int) Value { return a.get(h).slots[slot] }

// SetNamedSlot writes a slot of a Named record.
func (a *ScopeArena) SetNamedSlot(h ScopeHandle, slot int, v Value) { a.get(h).slots[slot] = v }

// VarScope returns the nearest record in the chain that receives var
// declarations.
func (a *ScopeArena) VarScope(h ScopeHandle) (ScopeHandle, bool) {
	for !h.IsNone() {
		rec := a.get(h)
		if rec.varScope {
			return h, true
		}
		h = rec.parent
	}
	return NoScope, false
}

// Declare adds a mutable binding to a Named record if it does not already
// bind name, and returns its slot.
func (a *ScopeArena) Declare(h ScopeHandle, name string, init Value) int {
	rec := a.get(h)
	if b, ok := rec.names[name]; ok {
		return b.Slot
	}
	rec.slots = append(rec.slots, init)
	slot := len(rec.slots) - 1
	if rec.names == nil {
		rec.names = make(map[string]Binding)
	}
	rec.names[name] = Binding{Slot: slot}
	return slot
}

// Names returns the binding names of a Named record.
func (a *ScopeArena) Names(h ScopeHandle) map[string]Binding { return a.get(h).names }

// DeclareLexical adds an uninitialized binding to a Named record. It reports
// false if the record already binds name.
func (a *ScopeArena) DeclareLexical(h ScopeHandle, name string, immutable bool) bool {
	rec := a.get(h)
	if _, ok := rec.names[name]; ok {
		return false
	}
	rec.slots = append(rec.slots, Hole)
	if rec.names == nil {
		rec.names = make(map[string]Binding)
	}
	rec.names[name] = Binding{Slot: len(rec.slots) - 1, Immutable: immutable}
	return true
}
