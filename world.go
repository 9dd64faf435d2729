package evoke

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ErrInvalidComponentID is returned by fallible operations handed a stale
// or unknown component identifier.
var ErrInvalidComponentID = errors.New("evoke: invalid component identifier")

// noEvent marks a lifecycle event that has not been allocated yet.
const noEvent EventID = ^EventID(0)

const defaultEntityCapacity = 1024

// Option configures a World at construction.
type Option func(*World)

// WithCapacity pre-allocates entity bookkeeping for n entities. Choosing a
// suitable capacity avoids re-allocations during runtime.
func WithCapacity(n int) Option {
	return func(w *World) {
		w.initialCapacity = n
	}
}

// WithLogger attaches a structured logger. The world logs structural
// changes (registration, archetype churn, removal cascades) at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(w *World) {
		w.logger = l
	}
}

// World owns every registry of the store: components, entities, archetypes,
// events and handlers. A single logical owner drives all mutation; nothing
// in the World is safe for concurrent structural change.
type World struct {
	components Components
	entities   entityRegistry
	archetypes archetypeRegistry
	events     eventRegistry
	handlers   handlerRegistry
	resources  Resources
	logger     *zap.Logger

	// version counts structural mutations; views use it to invalidate
	// their cached per-archetype state.
	version uint32

	initialCapacity int
}

// NewWorld creates an empty World. The empty archetype always exists and
// survives every removal cascade.
func NewWorld(opts ...Option) *World {
	w := &World{
		components:      newComponents(),
		events:          newEventRegistry(),
		handlers:        newHandlerRegistry(),
		logger:          zap.NewNop(),
		initialCapacity: defaultEntityCapacity,
		version:         1,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.entities = newEntityRegistry(w.initialCapacity)
	w.archetypes = newArchetypeRegistry()
	w.getOrCreateArchetype(bitmask256{})
	return w
}

// Components returns the world's component registry.
func (w *World) Components() *Components {
	return &w.components
}

// Resources returns the world's singleton resource store.
func (w *World) Resources() *Resources {
	return &w.resources
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.count
}

// ArchetypeCount returns the number of live archetypes, including the
// empty one.
func (w *World) ArchetypeCount() int {
	return w.archetypes.count
}

// EachArchetype calls fn for every live archetype with its index and
// current entity count, until fn returns false.
func (w *World) EachArchetype(fn func(idx ArchetypeIdx, size int) bool) {
	w.archetypes.each(func(a *archetype) bool {
		return fn(a.index, a.len())
	})
}

// ArchetypeContains reports whether the archetype's composition includes
// the component. Returns false for dead archetypes or stale IDs.
func (w *World) ArchetypeContains(idx ArchetypeIdx, c ComponentID) bool {
	a := w.archetypes.at(idx)
	if a == nil {
		return false
	}
	if !w.components.Contains(c) {
		return false
	}
	return a.slot(c.Index()) >= 0
}

// ---------------------------------------------------------------------------
// Component registration

// AddComponent registers a component kind from a descriptor. If the
// descriptor carries an already-registered type key the existing ID is
// returned with fresh = false. A fresh registration fires ComponentAdded.
func (w *World) AddComponent(desc ComponentDescriptor) (id ComponentID, fresh bool) {
	id, fresh = w.components.Add(desc)
	if fresh {
		w.logger.Debug("component registered",
			zap.String("name", desc.Name),
			zap.Uint32("index", uint32(id.Index())))
		Send(w, ComponentAdded{Component: id})
	}
	return id, fresh
}

// RegisterComponent registers the Go type T as a mutable component,
// returning the existing ID if T was registered before.
func RegisterComponent[T any](w *World) ComponentID {
	id, _ := w.AddComponent(DescriptorFor[T]())
	return id
}

// RegisterImmutable registers the Go type T as an immutable component.
// Immutable components reject write access through views, forcing all
// modification through explicit replacement.
func RegisterImmutable[T any](w *World) ComponentID {
	desc := DescriptorFor[T]()
	desc.Immutable = true
	id, _ := w.AddComponent(desc)
	return id
}

// InsertEvent returns the event fired when the component is attached to an
// entity, allocating it on first use and recording it in the component's
// insert-event set.
func (w *World) InsertEvent(c ComponentID) (EventID, error) {
	info, ok := w.components.Get(c)
	if !ok {
		return noEvent, ErrInvalidComponentID
	}
	if info.insertEvent != noEvent {
		return info.insertEvent, nil
	}
	eid := w.events.dynamic("insert:" + info.name)
	info.insertEvent = eid
	info.insertEvents[eid] = struct{}{}
	return eid, nil
}

// RemoveEvent returns the event fired when the component is detached from
// an entity, allocating it on first use and recording it in the
// component's remove-event set.
func (w *World) RemoveEvent(c ComponentID) (EventID, error) {
	info, ok := w.components.Get(c)
	if !ok {
		return noEvent, ErrInvalidComponentID
	}
	if info.removeEvent != noEvent {
		return info.removeEvent, nil
	}
	eid := w.events.dynamic("remove:" + info.name)
	info.removeEvent = eid
	info.removeEvents[eid] = struct{}{}
	return eid, nil
}

// ---------------------------------------------------------------------------
// Entities

// Spawn creates a new entity in the empty archetype.
func (w *World) Spawn() Entity {
	e := w.entities.alloc()
	empty := w.archetypes.at(0)
	row := empty.pushRow(e)
	meta := &w.entities.metas[e.ID]
	meta.archetype = empty.index
	meta.row = row
	w.version++
	return e
}

// Alive reports whether the entity is currently live. A stale reference to
// a despawned entity is never confused with a later entity reusing the
// same ID.
func (w *World) Alive(e Entity) bool {
	_, ok := w.entities.meta(e)
	return ok
}

// Despawn destroys the entity and all its component values, recycling its
// ID with a bumped version. Returns false if the entity is stale.
func (w *World) Despawn(e Entity) bool {
	meta, ok := w.entities.meta(e)
	if !ok {
		return false
	}
	a := w.archetypes.at(meta.archetype)
	for i, idx := range a.ids {
		info := w.components.InfoByIndex(idx)
		if info.drop != nil {
			info.drop(a.cell(i, meta.row))
		}
	}
	w.removeFromArchetype(a, meta.row)
	w.entities.release(e.ID)
	w.version++
	return true
}

// Insert attaches a component value to the entity, registering the
// component type on first use. If the entity already holds the component
// the value is replaced in place. The component's insert events fire after
// the value is stored. Returns false if the entity is stale.
func Insert[T any](w *World, e Entity, value T) bool {
	RegisterComponent[T](w)
	meta, ok := w.entities.meta(e)
	if !ok {
		return false
	}
	info, _ := w.components.GetByTypeKey(reflect.TypeOf((*T)(nil)).Elem())
	idx := info.id.Index()
	a := w.archetypes.at(meta.archetype)

	if s := a.slot(idx); s >= 0 {
		*(*T)(a.cell(s, meta.row)) = value
	} else {
		newMask := a.mask
		newMask.set(uint8(idx))
		target := w.getOrCreateArchetype(newMask)
		row := w.moveEntity(e, meta, a, target)
		*(*T)(target.cell(target.slot(idx), row)) = value
		w.version++
	}
	for eid := range info.insertEvents {
		w.sendEntity(eid, e)
	}
	return true
}

// Detach removes the component T from the entity, firing the component's
// remove events before the value is destroyed. Returns false if the entity
// is stale or does not hold T.
func Detach[T any](w *World, e Entity) bool {
	meta, ok := w.entities.meta(e)
	if !ok {
		return false
	}
	info, ok := w.components.GetByTypeKey(reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return false
	}
	idx := info.id.Index()
	a := w.archetypes.at(meta.archetype)
	s := a.slot(idx)
	if s < 0 {
		return false
	}
	for eid := range info.removeEvents {
		w.sendEntity(eid, e)
	}
	if info.drop != nil {
		info.drop(a.cell(s, meta.row))
	}
	newMask := a.mask.without(uint8(idx))
	target := w.getOrCreateArchetype(newMask)
	w.moveEntity(e, meta, a, target)
	w.version++
	return true
}

// Get returns the entity's component value of type T, or false if the
// entity is stale or does not hold T.
func Get[T any](w *World, e Entity) (*T, bool) {
	meta, ok := w.entities.meta(e)
	if !ok {
		return nil, false
	}
	info, ok := w.components.GetByTypeKey(reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return nil, false
	}
	a := w.archetypes.at(meta.archetype)
	s := a.slot(info.id.Index())
	if s < 0 {
		return nil, false
	}
	return (*T)(a.cell(s, meta.row)), true
}

// Has reports whether the entity holds a component of type T.
func Has[T any](w *World, e Entity) bool {
	_, ok := Get[T](w, e)
	return ok
}

// ---------------------------------------------------------------------------
// Archetype plumbing

// getOrCreateArchetype returns the archetype for an exact composition mask,
// creating it and updating every member component's membership set if it
// does not exist yet.
func (w *World) getOrCreateArchetype(mask bitmask256) *archetype {
	if a, ok := w.archetypes.lookup(mask); ok {
		return a
	}
	a := w.archetypes.insert(mask, &w.components)
	for _, idx := range a.ids {
		w.components.InfoByIndex(idx).memberOf.Add(uint32(a.index))
	}
	w.version++
	w.logger.Debug("archetype created",
		zap.Uint32("archetype", uint32(a.index)),
		zap.Int("components", len(a.ids)))
	return a
}

// deleteArchetype removes the archetype and detaches its index from every
// member component's membership set.
func (w *World) deleteArchetype(a *archetype) {
	for _, idx := range a.ids {
		if info, ok := w.components.GetByIndex(idx); ok {
			info.memberOf.Remove(uint32(a.index))
		}
	}
	w.archetypes.delete(a)
	w.version++
	w.logger.Debug("archetype deleted", zap.Uint32("archetype", uint32(a.index)))
}

// collapseArchetype drops one column in place and re-keys the archetype
// under the residual composition. The remaining components keep their
// membership.
func (w *World) collapseArchetype(a *archetype, removed ComponentIdx) {
	s := a.slot(removed)
	a.ids = append(a.ids[:s], a.ids[s+1:]...)
	a.columns = append(a.columns[:s], a.columns[s+1:]...)
	a.sizes = append(a.sizes[:s], a.sizes[s+1:]...)
	for i := range a.slots {
		a.slots[i] = -1
	}
	for i, idx := range a.ids {
		a.slots[idx] = int16(i)
	}
	w.archetypes.rekey(a, a.mask.without(uint8(removed)))
	w.version++
	w.logger.Debug("archetype collapsed", zap.Uint32("archetype", uint32(a.index)))
}

// moveEntity transfers an entity between archetypes, copying the shared
// component columns and swap-filling the hole it leaves behind.
func (w *World) moveEntity(e Entity, meta *entityMeta, from, to *archetype) int {
	row := to.pushRow(e)
	for i, idx := range from.ids {
		ts := to.slot(idx)
		if ts < 0 {
			continue
		}
		size := int(from.sizes[i])
		if size == 0 {
			continue
		}
		src := from.columns[i][meta.row*size : (meta.row+1)*size]
		copy(to.columns[ts][row*size:(row+1)*size], src)
	}
	w.removeFromArchetype(from, meta.row)
	meta.archetype = to.index
	meta.row = row
	return row
}

// removeFromArchetype deletes a row and fixes up the residency of the
// entity swapped into its place.
func (w *World) removeFromArchetype(a *archetype, row int) {
	if moved, ok := a.swapRemoveRow(row); ok {
		w.entities.metas[moved.ID].row = row
	}
}

// ---------------------------------------------------------------------------
// Cascading removal

// RemoveComponent removes a component kind from the world and everything
// that depends on it, in one fixed order:
//
//  1. ComponentRemoved fires while handlers and storage are still intact.
//  2. Every handler whose declared access names the component is
//     deregistered, and the component's insert/remove events are dropped
//     together with their subscribers, so nothing can fire mid-teardown.
//  3. Every archetype in the component's membership set is torn down: all
//     resident entities are destroyed (running destructors), and the
//     archetype is collapsed to its residual composition or deleted when
//     that composition already exists.
//  4. The registry slot is freed, bumping its generation.
//
// Returns the detached info record, or false if the ID is stale. A removal
// runs to completion; mid-cascade inconsistency is an invariant violation
// and panics.
func (w *World) RemoveComponent(id ComponentID) (ComponentInfo, bool) {
	info, ok := w.components.Get(id)
	if !ok {
		return ComponentInfo{}, false
	}
	idx := id.Index()
	w.logger.Debug("component removal cascade started", zap.String("component", info.name))
	Send(w, ComponentRemoved{Component: id})

	// Handlers first: nothing may observe storage mid-teardown.
	var doomed []HandlerID
	w.handlers.infos.each(func(_ slotKey, h *handlerInfo) bool {
		if h.access.Touches(idx) {
			doomed = append(doomed, h.id)
		}
		return true
	})
	for _, hid := range doomed {
		w.RemoveHandler(hid)
	}
	for eid := range info.insertEvents {
		for _, hid := range w.events.drop(eid) {
			w.handlers.infos.remove(slotKey(hid))
		}
	}
	for eid := range info.removeEvents {
		for _, hid := range w.events.drop(eid) {
			w.handlers.infos.remove(slotKey(hid))
		}
	}

	// Tear down residents, walking only the affected archetypes.
	for _, ai := range info.memberOf.ToArray() {
		a := w.archetypes.at(ArchetypeIdx(ai))
		if a == nil || a.slot(idx) < 0 {
			panic(fmt.Sprintf("evoke: membership index out of sync removing component %q", info.name))
		}
		for i, cidx := range a.ids {
			cinfo := w.components.InfoByIndex(cidx)
			if cinfo.drop == nil {
				continue
			}
			for row := range a.entities {
				cinfo.drop(a.cell(i, row))
			}
		}
		for _, e := range a.entities {
			w.entities.release(e.ID)
		}
		a.clearRows()

		residual := a.mask.without(uint8(idx))
		if _, exists := w.archetypes.lookup(residual); exists {
			w.deleteArchetype(a)
		} else {
			w.collapseArchetype(a, idx)
		}
	}

	removed, ok := w.components.Remove(id)
	if !ok {
		panic(fmt.Sprintf("evoke: component %q vanished mid-cascade", info.name))
	}
	w.version++
	w.logger.Debug("component removal cascade finished", zap.String("component", removed.name))
	return removed, true
}
