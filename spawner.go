package evoke

// Spawner creates entities that hold component T from the moment they
// exist, skipping the intermediate archetype hop that Spawn-then-Insert
// takes. The target archetype is resolved once and revalidated only after
// a structural change.
type Spawner[T any] struct {
	world   *World
	id      ComponentID
	slot    int
	arch    *archetype
	version uint32
}

// NewSpawner resolves the {T} composition, registering T on first use.
func NewSpawner[T any](w *World) *Spawner[T] {
	s := &Spawner[T]{world: w}
	s.refresh()
	return s
}

func (s *Spawner[T]) refresh() {
	if s.arch != nil && s.version == s.world.version {
		return
	}
	w := s.world
	s.id = RegisterComponent[T](w)
	var mask bitmask256
	mask.set(uint8(s.id.Index()))
	s.arch = w.getOrCreateArchetype(mask)
	s.slot = s.arch.slot(s.id.Index())
	s.version = w.version
}

// Spawn creates one entity holding value. The component's insert events
// fire after the value is stored.
func (s *Spawner[T]) Spawn(value T) Entity {
	s.refresh()
	w := s.world
	a := s.arch
	e := w.entities.alloc()
	row := a.pushRow(e)
	meta := &w.entities.metas[e.ID]
	meta.archetype = a.index
	meta.row = row
	*(*T)(a.cell(s.slot, row)) = value
	// Our own mutation does not move the target archetype.
	w.version++
	s.version = w.version
	if info, ok := w.components.Get(s.id); ok {
		for eid := range info.insertEvents {
			w.sendEntity(eid, e)
		}
	}
	return e
}

// SpawnBatch creates count entities all holding value, appending them to
// dst. Returns the extended slice.
func (s *Spawner[T]) SpawnBatch(dst []Entity, count int, value T) []Entity {
	for i := 0; i < count; i++ {
		dst = append(dst, s.Spawn(value))
	}
	return dst
}
