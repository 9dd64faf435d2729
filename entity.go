package evoke

// Entity represents a unique entity in the world. It combines a 32-bit
// recyclable ID with a 32-bit version so that a reference held after the
// entity died is never confused with a later entity reusing the same ID.
type Entity struct {
	ID      uint32 // The unique, recyclable identifier of the entity.
	Version uint32 // Generation counter, incremented on every reuse of ID.
}

// entityMeta stores where an entity currently resides.
type entityMeta struct {
	archetype ArchetypeIdx // archetype holding the entity
	row       int          // position inside the archetype's columns
	version   uint32       // current version, 0 if the entity is dead
}

// entityRegistry tracks residency for every entity ID, recycling dead IDs
// through a free list.
type entityRegistry struct {
	metas   []entityMeta
	freeIDs []uint32
	nextVer uint32
	count   int
}

func newEntityRegistry(capacity int) entityRegistry {
	r := entityRegistry{
		metas:   make([]entityMeta, capacity),
		freeIDs: make([]uint32, capacity),
		nextVer: 1,
	}
	for i := range r.metas {
		r.metas[i].row = -1
	}
	for i := range r.freeIDs {
		r.freeIDs[i] = uint32(capacity - 1 - i)
	}
	return r
}

// expand grows the registry when the free list runs dry.
func (r *entityRegistry) expand() {
	oldCap := len(r.metas)
	newCap := max(oldCap*2, 1)
	delta := newCap - oldCap
	grown := make([]entityMeta, delta)
	for i := range grown {
		grown[i].row = -1
	}
	r.metas = append(r.metas, grown...)
	for i := 0; i < delta; i++ {
		r.freeIDs = append(r.freeIDs, uint32(newCap-1-i))
	}
}

// alloc pops a free ID and stamps it with a fresh version.
func (r *entityRegistry) alloc() Entity {
	if len(r.freeIDs) == 0 {
		r.expand()
	}
	last := len(r.freeIDs) - 1
	id := r.freeIDs[last]
	r.freeIDs = r.freeIDs[:last]
	meta := &r.metas[id]
	meta.version = r.nextVer
	r.nextVer++
	r.count++
	return Entity{ID: id, Version: meta.version}
}

// release invalidates the entity and recycles its ID.
func (r *entityRegistry) release(id uint32) {
	meta := &r.metas[id]
	meta.archetype = 0
	meta.row = -1
	meta.version = 0
	r.freeIDs = append(r.freeIDs, id)
	r.count--
}

// meta returns the residency record for a live entity, or false if the
// entity is stale or unknown.
func (r *entityRegistry) meta(e Entity) (*entityMeta, bool) {
	if int(e.ID) >= len(r.metas) {
		return nil, false
	}
	m := &r.metas[e.ID]
	if m.version == 0 || m.version != e.Version {
		return nil, false
	}
	return m, true
}
