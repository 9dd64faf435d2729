package evoke

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
)

// MaxComponentTypes defines the maximum number of component types that can
// be live in a World at the same time. This value is fixed at 256.
const MaxComponentTypes = 256

// ComponentID is a generational identifier for a registered component type.
// It pairs a dense index with a generation count, so an ID held after its
// component was removed never compares equal to, or resolves as, a live one.
//
// A ComponentID is only meaningful in the World it was created from.
type ComponentID struct {
	index      uint32
	generation uint32
}

// NullComponentID never identifies a live component. It is the zero-like
// sentinel for "no component".
var NullComponentID = ComponentID(nullSlotKey)

// IsNull reports whether the ID is the null sentinel.
func (id ComponentID) IsNull() bool {
	return id == NullComponentID
}

// Index returns the dense index of this ID, used for O(1) indexing into
// per-component side tables.
func (id ComponentID) Index() ComponentIdx {
	return ComponentIdx(id.index)
}

// Generation returns the generation count of this ID.
func (id ComponentID) Generation() uint32 {
	return id.generation
}

// ComponentIdx is a ComponentID with the generation count stripped out.
type ComponentIdx uint32

// ArchetypeIdx identifies an archetype by its position in the world's
// archetype table.
type ArchetypeIdx uint32

// DropFn destroys one component value in place. It is invoked once per row
// when component storage is torn down.
type DropFn func(unsafe.Pointer)

// ComponentDescriptor is the data needed to register a new component kind.
type ComponentDescriptor struct {
	// Name is for diagnostics only and carries no identity.
	Name string
	// TypeKey deduplicates registration: descriptors carrying the same
	// non-nil TypeKey resolve to one component. Nil registers a fresh
	// component on every Add.
	TypeKey reflect.Type
	// Size and Align describe the component's memory layout.
	Size  uintptr
	Align uintptr
	// Drop is called for each stored value during teardown. May be nil.
	Drop DropFn
	// Immutable components disallow write access through views, forcing
	// modification through explicit replacement.
	Immutable bool
}

// DescriptorFor builds the canonical descriptor for a Go component type.
func DescriptorFor[T any]() ComponentDescriptor {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return ComponentDescriptor{
		Name:    t.Name(),
		TypeKey: t,
		Size:    t.Size(),
		Align:   uintptr(t.Align()),
	}
}

// ComponentInfo is the metadata record of one registered component. It is
// created on registration, mutated only by the owning registry, and
// destroyed only through World.RemoveComponent.
type ComponentInfo struct {
	name      string
	id        ComponentID
	typeKey   reflect.Type
	size      uintptr
	align     uintptr
	drop      DropFn
	immutable bool

	// insertEvents and removeEvents are the event IDs fired when this
	// component is attached to or detached from an entity. insertEvent and
	// removeEvent cache the canonical member allocated on first use.
	insertEvents map[EventID]struct{}
	removeEvents map[EventID]struct{}
	insertEvent  EventID
	removeEvent  EventID

	// memberOf is the set of archetypes whose composition includes this
	// component. It is kept in sync on every archetype creation, entity
	// move and removal.
	memberOf *roaring.Bitmap
}

// Name returns the diagnostic name of the component.
func (ci *ComponentInfo) Name() string { return ci.name }

// ID returns the component's generational identifier.
func (ci *ComponentInfo) ID() ComponentID { return ci.id }

// TypeKey returns the static type key the component was registered under,
// or nil for dynamic components.
func (ci *ComponentInfo) TypeKey() reflect.Type { return ci.typeKey }

// Size returns the component's storage size in bytes.
func (ci *ComponentInfo) Size() uintptr { return ci.size }

// Align returns the component's required alignment.
func (ci *ComponentInfo) Align() uintptr { return ci.align }

// Immutable reports whether write access to the component is disallowed.
func (ci *ComponentInfo) Immutable() bool { return ci.immutable }

// MemberOf returns the set of archetype indices containing this component.
// The bitmap is owned by the registry and must not be mutated by callers.
func (ci *ComponentInfo) MemberOf() *roaring.Bitmap { return ci.memberOf }

// InsertEvents returns the IDs of the events fired when this component is
// inserted on an entity.
func (ci *ComponentInfo) InsertEvents() []EventID {
	return eventIDSet(ci.insertEvents)
}

// RemoveEvents returns the IDs of the events fired when this component is
// removed from an entity.
func (ci *ComponentInfo) RemoveEvents() []EventID {
	return eventIDSet(ci.removeEvents)
}

func eventIDSet(m map[EventID]struct{}) []EventID {
	out := make([]EventID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// Components holds the metadata for all components in a World.
type Components struct {
	infos     slotMap[ComponentInfo]
	byTypeKey map[reflect.Type]ComponentID
}

func newComponents() Components {
	return Components{
		infos:     newSlotMap[ComponentInfo](MaxComponentTypes),
		byTypeKey: make(map[reflect.Type]ComponentID, 16),
	}
}

// Add registers a component from the descriptor. If the descriptor carries a
// type key that is already registered, the existing ID is returned with
// fresh = false and no record is created. It panics when the identifier
// space is exhausted, since the store cannot continue safely without IDs.
func (c *Components) Add(desc ComponentDescriptor) (id ComponentID, fresh bool) {
	if desc.TypeKey != nil {
		if existing, ok := c.byTypeKey[desc.TypeKey]; ok {
			return existing, false
		}
	}
	k, ok := c.infos.insertWith(func(k slotKey) ComponentInfo {
		return ComponentInfo{
			name:         desc.Name,
			id:           ComponentID(k),
			typeKey:      desc.TypeKey,
			size:         desc.Size,
			align:        desc.Align,
			drop:         desc.Drop,
			immutable:    desc.Immutable,
			insertEvents: make(map[EventID]struct{}),
			removeEvents: make(map[EventID]struct{}),
			insertEvent:  noEvent,
			removeEvent:  noEvent,
			memberOf:     roaring.New(),
		}
	})
	if !ok {
		panic(fmt.Sprintf("evoke: cannot register component %q: maximum number of component types (%d) reached", desc.Name, MaxComponentTypes))
	}
	id = ComponentID(k)
	if desc.TypeKey != nil {
		c.byTypeKey[desc.TypeKey] = id
	}
	return id, true
}

// Remove detaches and returns the info record for the ID, freeing its slot
// for reuse with a bumped generation. Returns false if the ID is stale or
// unknown. Remove does not cascade; see World.RemoveComponent.
func (c *Components) Remove(id ComponentID) (ComponentInfo, bool) {
	info, ok := c.infos.remove(slotKey(id))
	if !ok {
		return ComponentInfo{}, false
	}
	if info.typeKey != nil {
		delete(c.byTypeKey, info.typeKey)
	}
	return info, true
}

// Get returns the info for the ID, or false if the ID is stale or unknown.
func (c *Components) Get(id ComponentID) (*ComponentInfo, bool) {
	return c.infos.get(slotKey(id))
}

// GetByIndex returns the info for a dense component index, or false if no
// live component occupies it.
func (c *Components) GetByIndex(idx ComponentIdx) (*ComponentInfo, bool) {
	return c.infos.getByIndex(uint32(idx))
}

// GetByTypeKey returns the info for the component registered under the
// given type key, or false if none is.
func (c *Components) GetByTypeKey(t reflect.Type) (*ComponentInfo, bool) {
	id, ok := c.byTypeKey[t]
	if !ok {
		return nil, false
	}
	return c.Get(id)
}

// Contains reports whether the ID refers to a live component.
func (c *Components) Contains(id ComponentID) bool {
	_, ok := c.Get(id)
	return ok
}

// Info is the indexing-style accessor: it panics on an invalid ID instead
// of returning nothing. Use it where the ID was already validated at the
// call boundary; a failure here is a defect, not a user error.
func (c *Components) Info(id ComponentID) *ComponentInfo {
	info, ok := c.Get(id)
	if !ok {
		panic(fmt.Sprintf("evoke: no component with ID (%d, %d) exists", id.index, id.generation))
	}
	return info
}

// InfoByIndex is the indexing-style accessor by dense index; it panics on
// an invalid index.
func (c *Components) InfoByIndex(idx ComponentIdx) *ComponentInfo {
	info, ok := c.GetByIndex(idx)
	if !ok {
		panic(fmt.Sprintf("evoke: no component with index %d exists", idx))
	}
	return info
}

// Len returns the number of live components.
func (c *Components) Len() int {
	return c.infos.len()
}

// Each calls fn for every live component info until fn returns false.
func (c *Components) Each(fn func(*ComponentInfo) bool) {
	c.infos.each(func(_ slotKey, info *ComponentInfo) bool {
		return fn(info)
	})
}
