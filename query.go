package evoke

import (
	"fmt"
	"reflect"
	"unsafe"
)

// fieldState is the world-scoped resolved state of one view field: the
// component's dense index, stride and declared intent. It is built once per
// view and reused for every archetype binding.
type fieldState struct {
	id     ComponentID
	idx    ComponentIdx
	size   uintptr
	access Access
}

// fieldsLive reports whether every field's component is still registered.
// A view outliving a removal cascade must never bind to a component that
// reused the same dense index.
func fieldsLive(w *World, fields []fieldState) bool {
	for _, f := range fields {
		if !w.components.Contains(f.id) {
			return false
		}
	}
	return true
}

// resolveField resolves one field against the world's component registry.
// Every view arity delegates here, so the lookup and layout math exist in
// exactly one place.
func resolveField(w *World, t reflect.Type, access Access) (fieldState, error) {
	info, ok := w.components.GetByTypeKey(t)
	if !ok {
		return fieldState{}, fmt.Errorf("%w: %s", ErrUnregisteredComponent, t)
	}
	if access == Write && info.immutable {
		return fieldState{}, fmt.Errorf("%w: %s", ErrImmutableComponent, t)
	}
	return fieldState{id: info.id, idx: info.id.Index(), size: info.size, access: access}, nil
}

// bindField attempts the per-archetype fast path for one field. It returns
// false when the archetype's composition lacks the component, which means
// the view does not apply to that archetype at all.
func bindField(a *archetype, f fieldState) (unsafe.Pointer, bool) {
	s := a.slot(f.idx)
	if s < 0 {
		return nil, false
	}
	return a.colBase(s), true
}

// Col is the per-archetype fast-path state for one component column: a base
// pointer and a stride.
type Col[T any] struct {
	base unsafe.Pointer
	size uintptr
}

// Get assembles the component value at the row with no runtime validation.
//
// Contract: the caller must have obtained this Col from a successful Arch
// resolution for the archetype the row belongs to, and the row must be
// within that archetype's current length at call time. Violating either is
// undefined behavior; re-validating on every fetch would defeat the fast
// path.
func (c Col[T]) Get(row int) *T {
	return (*T)(unsafe.Add(c.base, uintptr(row)*c.size))
}

// View provides typed access to one component across all archetypes that
// contain it. Per-archetype state is resolved lazily into a side table
// keyed by archetype index and dropped whenever the world's structure
// changes.
type View[T any] struct {
	world   *World
	field   fieldState
	access  ComponentAccess
	cols    map[ArchetypeIdx]Col[T]
	version uint32
	dead    bool
}

// NewView resolves the world-scoped state for component T once. The access
// argument declares the view's intent; Write access to an immutable
// component, or an unregistered T, is a registration error.
func NewView[T any](w *World, access Access) (*View[T], error) {
	f, err := resolveField(w, reflect.TypeOf((*T)(nil)).Elem(), access)
	if err != nil {
		return nil, err
	}
	var ca ComponentAccess
	if err := ca.add(f.idx, access); err != nil {
		return nil, err
	}
	return &View[T]{
		world:   w,
		field:   f,
		access:  ca,
		cols:    make(map[ArchetypeIdx]Col[T], 8),
		version: w.version,
	}, nil
}

// Access returns the view's declared access descriptor, for folding into a
// handler registration.
func (v *View[T]) Access() ComponentAccess {
	return v.access
}

// ReadOnly derives the read-only variant of the view. It succeeds only when
// the view's access is read-only and adds no behavior beyond marking the
// view safe for shared concurrent reads.
func (v *View[T]) ReadOnly() (*View[T], error) {
	if !v.access.ReadOnly() {
		return nil, fmt.Errorf("%w: view declares write access", ErrConflictingAccess)
	}
	return v, nil
}

func (v *View[T]) refresh() {
	if v.version == v.world.version {
		return
	}
	clear(v.cols)
	v.version = v.world.version
	v.dead = !fieldsLive(v.world, []fieldState{v.field})
}

// Arch attempts to build fast-path state for the archetype. It returns
// false when the archetype is dead, its composition lacks T, or T's
// component was removed from the world. Results are cached until the next
// structural change.
func (v *View[T]) Arch(idx ArchetypeIdx) (Col[T], bool) {
	v.refresh()
	if v.dead {
		return Col[T]{}, false
	}
	if c, ok := v.cols[idx]; ok {
		return c, true
	}
	a := v.world.archetypes.at(idx)
	if a == nil {
		return Col[T]{}, false
	}
	base, ok := bindField(a, v.field)
	if !ok {
		return Col[T]{}, false
	}
	c := Col[T]{base: base, size: v.field.size}
	v.cols[idx] = c
	return c, true
}

// Each invokes fn for every entity holding T. Structural mutation from
// within fn is not allowed.
func (v *View[T]) Each(fn func(Entity, *T)) {
	v.world.archetypes.each(func(a *archetype) bool {
		col, ok := v.Arch(a.index)
		if !ok {
			return true
		}
		for row, e := range a.entities {
			fn(e, col.Get(row))
		}
		return true
	})
}
