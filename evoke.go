// Package evoke implements an event-driven, archetype-based Entity Component
// System for Go.
//
// Features:
// - Archetype-based columnar storage with max 256 live component types.
// - Generational identifiers for components, entities and handlers, so no
//   stale reference ever resolves after its slot is reused.
// - Bitmask archetype lookup and a per-component membership index for
//   removal in time proportional to the affected archetypes.
// - Typed composite views with registration-time access checking and
//   unchecked per-row fetch on the hot path.
// - Reactive handlers dispatched synchronously through a typed event
//   registry, including per-component insert/remove events.
//
// A World is driven by a single logical owner: structural mutation is never
// concurrent. Read-only views may be shared between call sites during the
// dispatch of the operation in progress.
package evoke
