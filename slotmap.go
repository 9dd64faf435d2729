package evoke

// slotKey identifies a value stored in a slotMap. It pairs a dense slot
// index with the generation the slot had when the value was inserted, so a
// key left over from a removed value never resolves again once the slot is
// reused.
type slotKey struct {
	index      uint32
	generation uint32
}

// nullSlotKey never identifies a live value.
var nullSlotKey = slotKey{index: ^uint32(0), generation: 0}

// slot holds one value and the generation of its current occupant.
type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// slotMap is a generational arena: values get stable keys, removed slots are
// recycled through a free list, and each reuse bumps the slot's generation.
// All operations are O(1) amortized.
type slotMap[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
	limit int // maximum number of slots, 0 for unbounded
}

func newSlotMap[T any](limit int) slotMap[T] {
	return slotMap[T]{limit: limit}
}

// insertWith inserts the value produced by fn, which receives the key the
// value will be stored under. Returns false if the allocator is exhausted.
func (m *slotMap[T]) insertWith(fn func(slotKey) T) (slotKey, bool) {
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		if m.limit > 0 && len(m.slots) >= m.limit {
			return nullSlotKey, false
		}
		m.slots = append(m.slots, slot[T]{generation: 1})
		idx = uint32(len(m.slots) - 1)
	}
	s := &m.slots[idx]
	k := slotKey{index: idx, generation: s.generation}
	s.value = fn(k)
	s.live = true
	m.count++
	return k, true
}

// insert stores a value and returns its key, or false on exhaustion.
func (m *slotMap[T]) insert(v T) (slotKey, bool) {
	return m.insertWith(func(slotKey) T { return v })
}

// remove invalidates the key and frees its slot for reuse with a bumped
// generation. Returns the removed value, or false if the key is stale or
// unknown.
func (m *slotMap[T]) remove(k slotKey) (T, bool) {
	var zero T
	if int(k.index) >= len(m.slots) {
		return zero, false
	}
	s := &m.slots[k.index]
	if !s.live || s.generation != k.generation {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.live = false
	s.generation++
	// A slot whose generation counter wraps is retired rather than recycled.
	if s.generation != 0 {
		m.free = append(m.free, k.index)
	}
	m.count--
	return v, true
}

// get returns the value for the key, or false if the key is stale or
// unknown. Stale keys are never undefined behavior.
func (m *slotMap[T]) get(k slotKey) (*T, bool) {
	if int(k.index) >= len(m.slots) {
		return nil, false
	}
	s := &m.slots[k.index]
	if !s.live || s.generation != k.generation {
		return nil, false
	}
	return &s.value, true
}

// getByIndex resolves a value by dense index alone, ignoring generations.
func (m *slotMap[T]) getByIndex(idx uint32) (*T, bool) {
	if int(idx) >= len(m.slots) {
		return nil, false
	}
	s := &m.slots[idx]
	if !s.live {
		return nil, false
	}
	return &s.value, true
}

func (m *slotMap[T]) len() int {
	return m.count
}

// each calls fn for every live value until fn returns false.
func (m *slotMap[T]) each(fn func(slotKey, *T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.live {
			continue
		}
		if !fn(slotKey{index: uint32(i), generation: s.generation}, &s.value) {
			return
		}
	}
}
