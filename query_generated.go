// Code in this file follows the canonical tuple rule: every arity delegates
// state resolution, archetype binding, unchecked fetch and access folding to
// the per-field primitives in query.go, in declared field order.

package evoke

import (
	"fmt"
	"reflect"
)

// Cols2 is the per-archetype fast-path state for a two-field view.
type Cols2[T1 any, T2 any] struct {
	c1 Col[T1]
	c2 Col[T2]
}

// Get assembles both field values at the row with no runtime validation.
// The contract is the same as Col.Get.
func (c Cols2[T1, T2]) Get(row int) (*T1, *T2) {
	return c.c1.Get(row), c.c2.Get(row)
}

// View2 provides typed access to the 2 components T1, T2 across all
// archetypes containing both.
type View2[T1 any, T2 any] struct {
	world   *World
	fields  [2]fieldState
	access  ComponentAccess
	cols    map[ArchetypeIdx]Cols2[T1, T2]
	version uint32
	dead    bool
}

// NewView2 resolves world-scoped state for the 2 components T1, T2 in
// declared order. Conflicting access between the fields (overlapping
// mutable claims on one component) is a registration error.
func NewView2[T1 any, T2 any](w *World, a1, a2 Access) (*View2[T1, T2], error) {
	f1, err := resolveField(w, reflect.TypeOf((*T1)(nil)).Elem(), a1)
	if err != nil {
		return nil, err
	}
	f2, err := resolveField(w, reflect.TypeOf((*T2)(nil)).Elem(), a2)
	if err != nil {
		return nil, err
	}
	var ca ComponentAccess
	for _, f := range []fieldState{f1, f2} {
		if err := ca.add(f.idx, f.access); err != nil {
			return nil, err
		}
	}
	return &View2[T1, T2]{
		world:   w,
		fields:  [2]fieldState{f1, f2},
		access:  ca,
		cols:    make(map[ArchetypeIdx]Cols2[T1, T2], 8),
		version: w.version,
	}, nil
}

// Access returns the folded access descriptor of both fields.
func (v *View2[T1, T2]) Access() ComponentAccess {
	return v.access
}

// ReadOnly derives the read-only variant of the view. It succeeds only when
// every field's access is read-only.
func (v *View2[T1, T2]) ReadOnly() (*View2[T1, T2], error) {
	if !v.access.ReadOnly() {
		return nil, fmt.Errorf("%w: view declares write access", ErrConflictingAccess)
	}
	return v, nil
}

func (v *View2[T1, T2]) refresh() {
	if v.version == v.world.version {
		return
	}
	clear(v.cols)
	v.version = v.world.version
	v.dead = !fieldsLive(v.world, v.fields[:])
}

// Arch attempts to build fast-path state for the archetype, returning false
// when the archetype is dead or lacks any required component.
func (v *View2[T1, T2]) Arch(idx ArchetypeIdx) (Cols2[T1, T2], bool) {
	v.refresh()
	if v.dead {
		return Cols2[T1, T2]{}, false
	}
	if c, ok := v.cols[idx]; ok {
		return c, true
	}
	a := v.world.archetypes.at(idx)
	if a == nil {
		return Cols2[T1, T2]{}, false
	}
	b1, ok := bindField(a, v.fields[0])
	if !ok {
		return Cols2[T1, T2]{}, false
	}
	b2, ok := bindField(a, v.fields[1])
	if !ok {
		return Cols2[T1, T2]{}, false
	}
	c := Cols2[T1, T2]{
		c1: Col[T1]{base: b1, size: v.fields[0].size},
		c2: Col[T2]{base: b2, size: v.fields[1].size},
	}
	v.cols[idx] = c
	return c, true
}

// Each invokes fn for every entity holding both components. Structural
// mutation from within fn is not allowed.
func (v *View2[T1, T2]) Each(fn func(Entity, *T1, *T2)) {
	v.world.archetypes.each(func(a *archetype) bool {
		cols, ok := v.Arch(a.index)
		if !ok {
			return true
		}
		for row, e := range a.entities {
			p1, p2 := cols.Get(row)
			fn(e, p1, p2)
		}
		return true
	})
}

// Cols3 is the per-archetype fast-path state for a three-field view.
type Cols3[T1 any, T2 any, T3 any] struct {
	c1 Col[T1]
	c2 Col[T2]
	c3 Col[T3]
}

// Get assembles all three field values at the row with no runtime
// validation. The contract is the same as Col.Get.
func (c Cols3[T1, T2, T3]) Get(row int) (*T1, *T2, *T3) {
	return c.c1.Get(row), c.c2.Get(row), c.c3.Get(row)
}

// View3 provides typed access to the 3 components T1, T2, T3 across all
// archetypes containing all of them.
type View3[T1 any, T2 any, T3 any] struct {
	world   *World
	fields  [3]fieldState
	access  ComponentAccess
	cols    map[ArchetypeIdx]Cols3[T1, T2, T3]
	version uint32
	dead    bool
}

// NewView3 resolves world-scoped state for the 3 components T1, T2, T3 in
// declared order.
func NewView3[T1 any, T2 any, T3 any](w *World, a1, a2, a3 Access) (*View3[T1, T2, T3], error) {
	f1, err := resolveField(w, reflect.TypeOf((*T1)(nil)).Elem(), a1)
	if err != nil {
		return nil, err
	}
	f2, err := resolveField(w, reflect.TypeOf((*T2)(nil)).Elem(), a2)
	if err != nil {
		return nil, err
	}
	f3, err := resolveField(w, reflect.TypeOf((*T3)(nil)).Elem(), a3)
	if err != nil {
		return nil, err
	}
	var ca ComponentAccess
	for _, f := range []fieldState{f1, f2, f3} {
		if err := ca.add(f.idx, f.access); err != nil {
			return nil, err
		}
	}
	return &View3[T1, T2, T3]{
		world:   w,
		fields:  [3]fieldState{f1, f2, f3},
		access:  ca,
		cols:    make(map[ArchetypeIdx]Cols3[T1, T2, T3], 8),
		version: w.version,
	}, nil
}

// Access returns the folded access descriptor of all fields.
func (v *View3[T1, T2, T3]) Access() ComponentAccess {
	return v.access
}

// ReadOnly derives the read-only variant of the view. It succeeds only when
// every field's access is read-only.
func (v *View3[T1, T2, T3]) ReadOnly() (*View3[T1, T2, T3], error) {
	if !v.access.ReadOnly() {
		return nil, fmt.Errorf("%w: view declares write access", ErrConflictingAccess)
	}
	return v, nil
}

func (v *View3[T1, T2, T3]) refresh() {
	if v.version == v.world.version {
		return
	}
	clear(v.cols)
	v.version = v.world.version
	v.dead = !fieldsLive(v.world, v.fields[:])
}

// Arch attempts to build fast-path state for the archetype, returning false
// when the archetype is dead or lacks any required component.
func (v *View3[T1, T2, T3]) Arch(idx ArchetypeIdx) (Cols3[T1, T2, T3], bool) {
	v.refresh()
	if v.dead {
		return Cols3[T1, T2, T3]{}, false
	}
	if c, ok := v.cols[idx]; ok {
		return c, true
	}
	a := v.world.archetypes.at(idx)
	if a == nil {
		return Cols3[T1, T2, T3]{}, false
	}
	b1, ok := bindField(a, v.fields[0])
	if !ok {
		return Cols3[T1, T2, T3]{}, false
	}
	b2, ok := bindField(a, v.fields[1])
	if !ok {
		return Cols3[T1, T2, T3]{}, false
	}
	b3, ok := bindField(a, v.fields[2])
	if !ok {
		return Cols3[T1, T2, T3]{}, false
	}
	c := Cols3[T1, T2, T3]{
		c1: Col[T1]{base: b1, size: v.fields[0].size},
		c2: Col[T2]{base: b2, size: v.fields[1].size},
		c3: Col[T3]{base: b3, size: v.fields[2].size},
	}
	v.cols[idx] = c
	return c, true
}

// Each invokes fn for every entity holding all three components.
// Structural mutation from within fn is not allowed.
func (v *View3[T1, T2, T3]) Each(fn func(Entity, *T1, *T2, *T3)) {
	v.world.archetypes.each(func(a *archetype) bool {
		cols, ok := v.Arch(a.index)
		if !ok {
			return true
		}
		for row, e := range a.entities {
			p1, p2, p3 := cols.Get(row)
			fn(e, p1, p2, p3)
		}
		return true
	})
}

// Cols4 is the per-archetype fast-path state for a four-field view.
type Cols4[T1 any, T2 any, T3 any, T4 any] struct {
	c1 Col[T1]
	c2 Col[T2]
	c3 Col[T3]
	c4 Col[T4]
}

// Get assembles all four field values at the row with no runtime
// validation. The contract is the same as Col.Get.
func (c Cols4[T1, T2, T3, T4]) Get(row int) (*T1, *T2, *T3, *T4) {
	return c.c1.Get(row), c.c2.Get(row), c.c3.Get(row), c.c4.Get(row)
}

// View4 provides typed access to the 4 components T1, T2, T3, T4 across
// all archetypes containing all of them.
type View4[T1 any, T2 any, T3 any, T4 any] struct {
	world   *World
	fields  [4]fieldState
	access  ComponentAccess
	cols    map[ArchetypeIdx]Cols4[T1, T2, T3, T4]
	version uint32
	dead    bool
}

// NewView4 resolves world-scoped state for the 4 components T1, T2, T3, T4
// in declared order.
func NewView4[T1 any, T2 any, T3 any, T4 any](w *World, a1, a2, a3, a4 Access) (*View4[T1, T2, T3, T4], error) {
	f1, err := resolveField(w, reflect.TypeOf((*T1)(nil)).Elem(), a1)
	if err != nil {
		return nil, err
	}
	f2, err := resolveField(w, reflect.TypeOf((*T2)(nil)).Elem(), a2)
	if err != nil {
		return nil, err
	}
	f3, err := resolveField(w, reflect.TypeOf((*T3)(nil)).Elem(), a3)
	if err != nil {
		return nil, err
	}
	f4, err := resolveField(w, reflect.TypeOf((*T4)(nil)).Elem(), a4)
	if err != nil {
		return nil, err
	}
	var ca ComponentAccess
	for _, f := range []fieldState{f1, f2, f3, f4} {
		if err := ca.add(f.idx, f.access); err != nil {
			return nil, err
		}
	}
	return &View4[T1, T2, T3, T4]{
		world:   w,
		fields:  [4]fieldState{f1, f2, f3, f4},
		access:  ca,
		cols:    make(map[ArchetypeIdx]Cols4[T1, T2, T3, T4], 8),
		version: w.version,
	}, nil
}

// Access returns the folded access descriptor of all fields.
func (v *View4[T1, T2, T3, T4]) Access() ComponentAccess {
	return v.access
}

// ReadOnly derives the read-only variant of the view. It succeeds only when
// every field's access is read-only.
func (v *View4[T1, T2, T3, T4]) ReadOnly() (*View4[T1, T2, T3, T4], error) {
	if !v.access.ReadOnly() {
		return nil, fmt.Errorf("%w: view declares write access", ErrConflictingAccess)
	}
	return v, nil
}

func (v *View4[T1, T2, T3, T4]) refresh() {
	if v.version == v.world.version {
		return
	}
	clear(v.cols)
	v.version = v.world.version
	v.dead = !fieldsLive(v.world, v.fields[:])
}

// Arch attempts to build fast-path state for the archetype, returning false
// when the archetype is dead or lacks any required component.
func (v *View4[T1, T2, T3, T4]) Arch(idx ArchetypeIdx) (Cols4[T1, T2, T3, T4], bool) {
	v.refresh()
	if v.dead {
		return Cols4[T1, T2, T3, T4]{}, false
	}
	if c, ok := v.cols[idx]; ok {
		return c, true
	}
	a := v.world.archetypes.at(idx)
	if a == nil {
		return Cols4[T1, T2, T3, T4]{}, false
	}
	b1, ok := bindField(a, v.fields[0])
	if !ok {
		return Cols4[T1, T2, T3, T4]{}, false
	}
	b2, ok := bindField(a, v.fields[1])
	if !ok {
		return Cols4[T1, T2, T3, T4]{}, false
	}
	b3, ok := bindField(a, v.fields[2])
	if !ok {
		return Cols4[T1, T2, T3, T4]{}, false
	}
	b4, ok := bindField(a, v.fields[3])
	if !ok {
		return Cols4[T1, T2, T3, T4]{}, false
	}
	c := Cols4[T1, T2, T3, T4]{
		c1: Col[T1]{base: b1, size: v.fields[0].size},
		c2: Col[T2]{base: b2, size: v.fields[1].size},
		c3: Col[T3]{base: b3, size: v.fields[2].size},
		c4: Col[T4]{base: b4, size: v.fields[3].size},
	}
	v.cols[idx] = c
	return c, true
}

// Each invokes fn for every entity holding all four components. Structural
// mutation from within fn is not allowed.
func (v *View4[T1, T2, T3, T4]) Each(fn func(Entity, *T1, *T2, *T3, *T4)) {
	v.world.archetypes.each(func(a *archetype) bool {
		cols, ok := v.Arch(a.index)
		if !ok {
			return true
		}
		for row, e := range a.entities {
			p1, p2, p3, p4 := cols.Get(row)
			fn(e, p1, p2, p3, p4)
		}
		return true
	})
}
