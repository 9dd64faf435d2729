package evoke

import (
	"fmt"
	"reflect"
)

// MaxEventTypes defines the maximum number of event kinds that can be
// registered in a World. This value is fixed at 256.
const MaxEventTypes = 256

// EventID identifies one registered event kind.
type EventID uint32

// ComponentAdded fires immediately after a component kind is registered in
// the world.
type ComponentAdded struct {
	Component ComponentID
}

// ComponentRemoved fires immediately before a component kind is removed
// from the world, while its handlers and storage are still intact.
type ComponentRemoved struct {
	Component ComponentID
}

// eventRegistry assigns IDs to event kinds and keeps per-event subscription
// lists in subscription order. Typed events are keyed by their Go type;
// component insert/remove events are allocated dynamically and dropped when
// their component is removed.
type eventRegistry struct {
	byType map[reflect.Type]EventID
	names  []string
	live   []bool
	subs   [][]HandlerID
}

func newEventRegistry() eventRegistry {
	return eventRegistry{
		byType: make(map[reflect.Type]EventID, 16),
	}
}

// typed registers (or fetches) the event ID for a Go event type.
func (r *eventRegistry) typed(t reflect.Type) EventID {
	if id, ok := r.byType[t]; ok {
		return id
	}
	id := r.alloc(t.String())
	r.byType[t] = id
	return id
}

// lookupTyped fetches the event ID for a Go event type without registering.
func (r *eventRegistry) lookupTyped(t reflect.Type) (EventID, bool) {
	id, ok := r.byType[t]
	return id, ok
}

// dynamic registers an event kind with no Go type, used for per-component
// insert/remove events.
func (r *eventRegistry) dynamic(name string) EventID {
	return r.alloc(name)
}

func (r *eventRegistry) alloc(name string) EventID {
	if len(r.names) >= MaxEventTypes {
		panic(fmt.Sprintf("evoke: cannot register event %q: maximum number of event types (%d) reached", name, MaxEventTypes))
	}
	id := EventID(len(r.names))
	r.names = append(r.names, name)
	r.live = append(r.live, true)
	r.subs = append(r.subs, nil)
	return id
}

// subscribe appends a handler to the event's dispatch list.
func (r *eventRegistry) subscribe(id EventID, h HandlerID) {
	r.subs[id] = append(r.subs[id], h)
}

// unsubscribe removes a handler from the event's dispatch list.
func (r *eventRegistry) unsubscribe(id EventID, h HandlerID) {
	list := r.subs[id]
	for i, sub := range list {
		if sub == h {
			r.subs[id] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// subscribers returns the event's dispatch list, or nil for dead events.
func (r *eventRegistry) subscribers(id EventID) []HandlerID {
	if int(id) >= len(r.subs) || !r.live[id] {
		return nil
	}
	return r.subs[id]
}

// drop deactivates an event kind and returns the handlers that were
// subscribed to it. Dead event IDs are never reused.
func (r *eventRegistry) drop(id EventID) []HandlerID {
	if int(id) >= len(r.subs) || !r.live[id] {
		return nil
	}
	r.live[id] = false
	dropped := r.subs[id]
	r.subs[id] = nil
	return dropped
}

// name returns the diagnostic name of an event kind.
func (r *eventRegistry) name(id EventID) string {
	if int(id) >= len(r.names) {
		return "?"
	}
	return r.names[id]
}
