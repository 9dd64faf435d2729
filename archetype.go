package evoke

import "unsafe"

// zeroColumn backs cell pointers for zero-sized components and empty
// columns, so unchecked fetch of a tag component never dereferences nil.
var zeroColumn byte

// archetype is the columnar table of all entities sharing one exact
// component composition. Component values are stored in parallel byte
// columns, one per component, indexed by row.
type archetype struct {
	index    ArchetypeIdx
	mask     bitmask256
	ids      []ComponentIdx           // sorted column order
	columns  [][]byte                 // component data, parallel to ids
	sizes    []uintptr                // component sizes, parallel to ids
	slots    [MaxComponentTypes]int16 // component index -> column slot, -1 if absent
	entities []Entity                 // row -> entity
}

func newArchetype(index ArchetypeIdx, mask bitmask256, components *Components) *archetype {
	bits := mask.indices()
	a := &archetype{
		index:   index,
		mask:    mask,
		ids:     make([]ComponentIdx, len(bits)),
		columns: make([][]byte, len(bits)),
		sizes:   make([]uintptr, len(bits)),
	}
	for i := range a.slots {
		a.slots[i] = -1
	}
	for i, bit := range bits {
		idx := ComponentIdx(bit)
		a.ids[i] = idx
		a.sizes[i] = components.InfoByIndex(idx).size
		a.slots[idx] = int16(i)
	}
	return a
}

// slot returns the column slot for a component index, or -1 if the
// archetype's composition does not include it.
func (a *archetype) slot(idx ComponentIdx) int {
	return int(a.slots[idx])
}

// len returns the number of entities resident in the archetype.
func (a *archetype) len() int {
	return len(a.entities)
}

// cell returns a pointer to the value of column slot at row. Row bounds are
// the caller's responsibility.
func (a *archetype) cell(slot, row int) unsafe.Pointer {
	size := a.sizes[slot]
	if size == 0 || len(a.columns[slot]) == 0 {
		return unsafe.Pointer(&zeroColumn)
	}
	return unsafe.Pointer(&a.columns[slot][uintptr(row)*size])
}

// colBase returns the base pointer of a column for stride access.
func (a *archetype) colBase(slot int) unsafe.Pointer {
	if len(a.columns[slot]) == 0 {
		return unsafe.Pointer(&zeroColumn)
	}
	return unsafe.Pointer(&a.columns[slot][0])
}

// pushRow appends a zeroed row for the entity and returns its index.
func (a *archetype) pushRow(e Entity) int {
	for i := range a.columns {
		a.columns[i] = extendByteSlice(a.columns[i], int(a.sizes[i]))
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// swapRemoveRow deletes a row by moving the last row into its place. It
// returns the entity that was moved into the hole, or false if the removed
// row was the last one.
func (a *archetype) swapRemoveRow(row int) (Entity, bool) {
	last := len(a.entities) - 1
	moved := false
	var movedEnt Entity
	if row != last {
		movedEnt = a.entities[last]
		a.entities[row] = movedEnt
		for i := range a.columns {
			size := int(a.sizes[i])
			if size == 0 {
				continue
			}
			copy(a.columns[i][row*size:(row+1)*size], a.columns[i][last*size:(last+1)*size])
		}
		moved = true
	}
	for i := range a.columns {
		a.columns[i] = a.columns[i][:last*int(a.sizes[i])]
	}
	a.entities = a.entities[:last]
	return movedEnt, moved
}

// clearRows drops all rows without touching component values; destructors,
// if any, have already run.
func (a *archetype) clearRows() {
	for i := range a.columns {
		a.columns[i] = a.columns[i][:0]
	}
	a.entities = a.entities[:0]
}

// archetypeRegistry owns every archetype in the world, keyed by composition
// mask. Deleted indices are recycled so the membership index stays dense.
type archetypeRegistry struct {
	byMask map[bitmask256]ArchetypeIdx
	list   []*archetype // indexed by ArchetypeIdx, nil when deleted
	free   []ArchetypeIdx
	count  int
}

func newArchetypeRegistry() archetypeRegistry {
	return archetypeRegistry{
		byMask: make(map[bitmask256]ArchetypeIdx),
		list:   make([]*archetype, 0, 16),
	}
}

// at returns the live archetype at the index, or nil.
func (r *archetypeRegistry) at(idx ArchetypeIdx) *archetype {
	if int(idx) >= len(r.list) {
		return nil
	}
	return r.list[idx]
}

// lookup returns the archetype for an exact composition mask.
func (r *archetypeRegistry) lookup(mask bitmask256) (*archetype, bool) {
	idx, ok := r.byMask[mask]
	if !ok {
		return nil, false
	}
	return r.list[idx], true
}

// insert places a new archetype for the mask, reusing a freed index when
// one is available. The caller is responsible for membership bookkeeping.
func (r *archetypeRegistry) insert(mask bitmask256, components *Components) *archetype {
	var idx ArchetypeIdx
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = ArchetypeIdx(len(r.list))
		r.list = append(r.list, nil)
	}
	a := newArchetype(idx, mask, components)
	r.list[idx] = a
	r.byMask[mask] = idx
	r.count++
	return a
}

// delete removes the archetype and recycles its index. The caller is
// responsible for membership bookkeeping.
func (r *archetypeRegistry) delete(a *archetype) {
	delete(r.byMask, a.mask)
	r.list[a.index] = nil
	r.free = append(r.free, a.index)
	r.count--
}

// rekey re-registers an archetype under a new composition mask after a
// column was dropped in place.
func (r *archetypeRegistry) rekey(a *archetype, newMask bitmask256) {
	delete(r.byMask, a.mask)
	a.mask = newMask
	r.byMask[newMask] = a.index
}

// each calls fn for every live archetype until fn returns false.
func (r *archetypeRegistry) each(fn func(*archetype) bool) {
	for _, a := range r.list {
		if a == nil {
			continue
		}
		if !fn(a) {
			return
		}
	}
}
