// Multi-component spawners follow the same shape as Spawner: the exact
// composition is resolved once and revalidated only after a structural
// change, and values are written in declared field order.

package evoke

// Spawner2 creates entities holding exactly the components T1, T2.
type Spawner2[T1 any, T2 any] struct {
	world   *World
	ids     [2]ComponentID
	slots   [2]int
	arch    *archetype
	version uint32
}

// NewSpawner2 resolves the {T1, T2} composition, registering both
// components on first use.
func NewSpawner2[T1 any, T2 any](w *World) *Spawner2[T1, T2] {
	s := &Spawner2[T1, T2]{world: w}
	s.refresh()
	return s
}

func (s *Spawner2[T1, T2]) refresh() {
	if s.arch != nil && s.version == s.world.version {
		return
	}
	w := s.world
	s.ids[0] = RegisterComponent[T1](w)
	s.ids[1] = RegisterComponent[T2](w)
	var mask bitmask256
	for _, id := range s.ids {
		mask.set(uint8(id.Index()))
	}
	s.arch = w.getOrCreateArchetype(mask)
	for i, id := range s.ids {
		s.slots[i] = s.arch.slot(id.Index())
	}
	s.version = w.version
}

// Spawn creates one entity holding both values. Insert events fire after
// the values are stored, in declared order.
func (s *Spawner2[T1, T2]) Spawn(v1 T1, v2 T2) Entity {
	s.refresh()
	w := s.world
	a := s.arch
	e := w.entities.alloc()
	row := a.pushRow(e)
	meta := &w.entities.metas[e.ID]
	meta.archetype = a.index
	meta.row = row
	*(*T1)(a.cell(s.slots[0], row)) = v1
	*(*T2)(a.cell(s.slots[1], row)) = v2
	w.version++
	s.version = w.version
	s.fireInserts(e)
	return e
}

func (s *Spawner2[T1, T2]) fireInserts(e Entity) {
	for _, id := range s.ids {
		if info, ok := s.world.components.Get(id); ok {
			for eid := range info.insertEvents {
				s.world.sendEntity(eid, e)
			}
		}
	}
}

// Spawner3 creates entities holding exactly the components T1, T2, T3.
type Spawner3[T1 any, T2 any, T3 any] struct {
	world   *World
	ids     [3]ComponentID
	slots   [3]int
	arch    *archetype
	version uint32
}

// NewSpawner3 resolves the {T1, T2, T3} composition, registering all three
// components on first use.
func NewSpawner3[T1 any, T2 any, T3 any](w *World) *Spawner3[T1, T2, T3] {
	s := &Spawner3[T1, T2, T3]{world: w}
	s.refresh()
	return s
}

func (s *Spawner3[T1, T2, T3]) refresh() {
	if s.arch != nil && s.version == s.world.version {
		return
	}
	w := s.world
	s.ids[0] = RegisterComponent[T1](w)
	s.ids[1] = RegisterComponent[T2](w)
	s.ids[2] = RegisterComponent[T3](w)
	var mask bitmask256
	for _, id := range s.ids {
		mask.set(uint8(id.Index()))
	}
	s.arch = w.getOrCreateArchetype(mask)
	for i, id := range s.ids {
		s.slots[i] = s.arch.slot(id.Index())
	}
	s.version = w.version
}

// Spawn creates one entity holding all three values.
func (s *Spawner3[T1, T2, T3]) Spawn(v1 T1, v2 T2, v3 T3) Entity {
	s.refresh()
	w := s.world
	a := s.arch
	e := w.entities.alloc()
	row := a.pushRow(e)
	meta := &w.entities.metas[e.ID]
	meta.archetype = a.index
	meta.row = row
	*(*T1)(a.cell(s.slots[0], row)) = v1
	*(*T2)(a.cell(s.slots[1], row)) = v2
	*(*T3)(a.cell(s.slots[2], row)) = v3
	w.version++
	s.version = w.version
	s.fireInserts(e)
	return e
}

func (s *Spawner3[T1, T2, T3]) fireInserts(e Entity) {
	for _, id := range s.ids {
		if info, ok := s.world.components.Get(id); ok {
			for eid := range info.insertEvents {
				s.world.sendEntity(eid, e)
			}
		}
	}
}

// Spawner4 creates entities holding exactly the components T1, T2, T3, T4.
type Spawner4[T1 any, T2 any, T3 any, T4 any] struct {
	world   *World
	ids     [4]ComponentID
	slots   [4]int
	arch    *archetype
	version uint32
}

// NewSpawner4 resolves the {T1, T2, T3, T4} composition, registering all
// four components on first use.
func NewSpawner4[T1 any, T2 any, T3 any, T4 any](w *World) *Spawner4[T1, T2, T3, T4] {
	s := &Spawner4[T1, T2, T3, T4]{world: w}
	s.refresh()
	return s
}

func (s *Spawner4[T1, T2, T3, T4]) refresh() {
	if s.arch != nil && s.version == s.world.version {
		return
	}
	w := s.world
	s.ids[0] = RegisterComponent[T1](w)
	s.ids[1] = RegisterComponent[T2](w)
	s.ids[2] = RegisterComponent[T3](w)
	s.ids[3] = RegisterComponent[T4](w)
	var mask bitmask256
	for _, id := range s.ids {
		mask.set(uint8(id.Index()))
	}
	s.arch = w.getOrCreateArchetype(mask)
	for i, id := range s.ids {
		s.slots[i] = s.arch.slot(id.Index())
	}
	s.version = w.version
}

// Spawn creates one entity holding all four values.
func (s *Spawner4[T1, T2, T3, T4]) Spawn(v1 T1, v2 T2, v3 T3, v4 T4) Entity {
	s.refresh()
	w := s.world
	a := s.arch
	e := w.entities.alloc()
	row := a.pushRow(e)
	meta := &w.entities.metas[e.ID]
	meta.archetype = a.index
	meta.row = row
	*(*T1)(a.cell(s.slots[0], row)) = v1
	*(*T2)(a.cell(s.slots[1], row)) = v2
	*(*T3)(a.cell(s.slots[2], row)) = v3
	*(*T4)(a.cell(s.slots[3], row)) = v4
	w.version++
	s.version = w.version
	s.fireInserts(e)
	return e
}

func (s *Spawner4[T1, T2, T3, T4]) fireInserts(e Entity) {
	for _, id := range s.ids {
		if info, ok := s.world.components.Get(id); ok {
			for eid := range info.insertEvents {
				s.world.sendEntity(eid, e)
			}
		}
	}
}
