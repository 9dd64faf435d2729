package evoke

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// HandlerID is a generational identifier for a registered handler.
type HandlerID struct {
	index      uint32
	generation uint32
}

// NullHandlerID never identifies a live handler.
var NullHandlerID = HandlerID(nullSlotKey)

// IsNull reports whether the ID is the null sentinel.
func (id HandlerID) IsNull() bool {
	return id == NullHandlerID
}

// handlerInfo is the metadata record of one registered handler.
type handlerInfo struct {
	id     HandlerID
	name   string
	event  EventID
	access ComponentAccess
	fn     any
}

// handlerRegistry stores handler infos in a generational arena so handler
// IDs survive slot reuse safely.
type handlerRegistry struct {
	infos slotMap[handlerInfo]
}

func newHandlerRegistry() handlerRegistry {
	return handlerRegistry{infos: newSlotMap[handlerInfo](0)}
}

// Subscribe registers a handler for the typed event E with no declared
// component access. Handlers fire synchronously, in subscription order.
func Subscribe[E any](w *World, fn func(*World, E)) HandlerID {
	id, err := SubscribeWith(w, fn)
	if err != nil {
		// No access descriptors were merged, so no conflict is possible.
		panic(err)
	}
	return id
}

// SubscribeWith registers a handler for the typed event E along with the
// component access it performs, typically collected from the views the
// handler closes over. Conflicting access among the descriptors is a
// registration error; it is never rechecked at dispatch time.
func SubscribeWith[E any](w *World, fn func(*World, E), accs ...ComponentAccess) (HandlerID, error) {
	access, err := MergeAccess(accs...)
	if err != nil {
		return NullHandlerID, err
	}
	t := reflect.TypeOf((*E)(nil)).Elem()
	eid := w.events.typed(t)
	return w.addHandler(t.String(), eid, access, fn), nil
}

// OnInsert registers a handler fired whenever the component is attached to
// an entity. The subscription is tied to the component's insert event and
// is torn down with the component.
func (w *World) OnInsert(c ComponentID, fn func(*World, Entity)) (HandlerID, error) {
	eid, err := w.InsertEvent(c)
	if err != nil {
		return NullHandlerID, err
	}
	return w.addHandler(w.events.name(eid), eid, ComponentAccess{}, fn), nil
}

// OnRemove registers a handler fired whenever the component is detached
// from an entity, before the row is destroyed.
func (w *World) OnRemove(c ComponentID, fn func(*World, Entity)) (HandlerID, error) {
	eid, err := w.RemoveEvent(c)
	if err != nil {
		return NullHandlerID, err
	}
	return w.addHandler(w.events.name(eid), eid, ComponentAccess{}, fn), nil
}

func (w *World) addHandler(name string, eid EventID, access ComponentAccess, fn any) HandlerID {
	k, ok := w.handlers.infos.insertWith(func(k slotKey) handlerInfo {
		return handlerInfo{
			id:     HandlerID(k),
			name:   name,
			event:  eid,
			access: access,
			fn:     fn,
		}
	})
	if !ok {
		panic("evoke: handler identifier space exhausted")
	}
	id := HandlerID(k)
	w.events.subscribe(eid, id)
	w.logger.Debug("handler registered",
		zap.String("event", w.events.name(eid)),
		zap.Uint32("handler", k.index))
	return id
}

// RemoveHandler deregisters a handler. Returns false if the ID is stale or
// unknown.
func (w *World) RemoveHandler(id HandlerID) bool {
	info, ok := w.handlers.infos.remove(slotKey(id))
	if !ok {
		return false
	}
	w.events.unsubscribe(info.event, id)
	w.logger.Debug("handler removed", zap.String("event", w.events.name(info.event)))
	return true
}

// ContainsHandler reports whether the handler is still registered.
func (w *World) ContainsHandler(id HandlerID) bool {
	_, ok := w.handlers.infos.get(slotKey(id))
	return ok
}

// HandlerCount returns the number of registered handlers.
func (w *World) HandlerCount() int {
	return w.handlers.infos.len()
}

// Send dispatches a typed event synchronously to every subscribed handler,
// in subscription order. Sending an event no handler subscribes to is a
// no-op.
func Send[E any](w *World, event E) {
	t := reflect.TypeOf((*E)(nil)).Elem()
	eid, ok := w.events.lookupTyped(t)
	if !ok {
		return
	}
	// Snapshot the list: a handler may (de)register handlers mid-dispatch.
	subs := append([]HandlerID(nil), w.events.subscribers(eid)...)
	for _, hid := range subs {
		info, ok := w.handlers.infos.get(slotKey(hid))
		if !ok {
			continue
		}
		fn, ok := info.fn.(func(*World, E))
		if !ok {
			panic(fmt.Sprintf("evoke: handler %q registered with mismatched event signature", info.name))
		}
		fn(w, event)
	}
}

// sendEntity dispatches a per-component lifecycle event targeted at an
// entity.
func (w *World) sendEntity(eid EventID, e Entity) {
	subs := append([]HandlerID(nil), w.events.subscribers(eid)...)
	for _, hid := range subs {
		info, ok := w.handlers.infos.get(slotKey(hid))
		if !ok {
			continue
		}
		if fn, ok := info.fn.(func(*World, Entity)); ok {
			fn(w, e)
		}
	}
}
