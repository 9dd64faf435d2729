package evoke

import "reflect"

// Resources is a store for world-global singleton values (configuration,
// clocks, asset tables) that are not attached to any entity. At most one
// value of a given type is present at a time. Like everything else in the
// World, it is mutated only by the single logical owner.
type Resources struct {
	items   []any
	types   map[reflect.Type]int
	freeIDs []int
}

// Add stores a resource and returns its ID. It panics if a resource of the
// same type already exists; replace by removing first.
func (r *Resources) Add(res any) int {
	if res == nil {
		panic("evoke: cannot add nil resource")
	}
	t := reflect.TypeOf(res)
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if _, ok := r.types[t]; ok {
		panic("evoke: resource of the same type already exists")
	}
	var id int
	if n := len(r.freeIDs); n > 0 {
		id = r.freeIDs[n-1]
		r.freeIDs = r.freeIDs[:n-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.types[t] = id
	return id
}

// Get retrieves the resource by ID, or nil if the ID is free.
func (r *Resources) Get(id int) any {
	if id < 0 || id >= len(r.items) {
		return nil
	}
	return r.items[id]
}

// Remove deletes the resource by ID, recycling the ID.
func (r *Resources) Remove(id int) {
	if r.Get(id) == nil {
		return
	}
	delete(r.types, reflect.TypeOf(r.items[id]))
	r.items[id] = nil
	r.freeIDs = append(r.freeIDs, id)
}

// GetResource retrieves the resource of type *T, or nil and -1 if absent.
func GetResource[T any](r *Resources) (*T, int) {
	t := reflect.TypeOf((*T)(nil))
	if id, ok := r.types[t]; ok {
		return r.items[id].(*T), id
	}
	return nil, -1
}
