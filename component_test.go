package evoke_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thornmill/evoke"
)

// --- Test Components ---

type Position struct{ X, Y float32 }
type Velocity struct{ VX, VY float32 }
type Health struct{ Current, Max int }
type Tag struct{}
type Unregistered struct{}

func TestIdempotentRegistration(t *testing.T) {
	w := evoke.NewWorld()

	first := evoke.RegisterComponent[Position](w)
	second := evoke.RegisterComponent[Position](w)
	require.Equal(t, first, second, "re-registering a typed component must return the same ID")

	id, fresh := w.AddComponent(evoke.DescriptorFor[Position]())
	require.Equal(t, first, id)
	require.False(t, fresh, "the second registration must not be fresh")
	require.Equal(t, 1, w.Components().Len())
}

func TestUntypedDescriptorAlwaysFresh(t *testing.T) {
	w := evoke.NewWorld()
	desc := evoke.ComponentDescriptor{Name: "scratch", Size: 8, Align: 8}

	a, fresh := w.AddComponent(desc)
	require.True(t, fresh)
	b, fresh := w.AddComponent(desc)
	require.True(t, fresh, "descriptors without a type key never deduplicate")
	require.NotEqual(t, a, b)
}

func TestComponentLookupVariants(t *testing.T) {
	w := evoke.NewWorld()
	id := evoke.RegisterComponent[Health](w)

	info, ok := w.Components().Get(id)
	require.True(t, ok)
	require.Equal(t, "Health", info.Name())
	require.Equal(t, id, info.ID())
	require.Equal(t, reflect.TypeOf((*Health)(nil)).Elem(), info.TypeKey())
	require.Equal(t, reflect.TypeOf((*Health)(nil)).Elem().Size(), info.Size())

	byIdx, ok := w.Components().GetByIndex(id.Index())
	require.True(t, ok)
	require.Equal(t, id, byIdx.ID())

	byKey, ok := w.Components().GetByTypeKey(reflect.TypeOf((*Health)(nil)).Elem())
	require.True(t, ok)
	require.Equal(t, id, byKey.ID())

	_, ok = w.Components().GetByTypeKey(reflect.TypeOf((*Unregistered)(nil)).Elem())
	require.False(t, ok)
	_, ok = w.Components().Get(evoke.NullComponentID)
	require.False(t, ok)
}

func TestNullComponentID(t *testing.T) {
	require.True(t, evoke.NullComponentID.IsNull())

	w := evoke.NewWorld()
	id := evoke.RegisterComponent[Tag](w)
	require.False(t, id.IsNull())
	require.False(t, w.Components().Contains(evoke.NullComponentID))
}

func TestRegistryRemoveDetaches(t *testing.T) {
	w := evoke.NewWorld()
	id := evoke.RegisterComponent[Position](w)

	info, ok := w.Components().Remove(id)
	require.True(t, ok)
	require.Equal(t, "Position", info.Name())
	require.False(t, w.Components().Contains(id))
	require.Equal(t, 0, w.Components().Len())

	_, ok = w.Components().Remove(id)
	require.False(t, ok, "removing a stale ID must return nothing")
}

func TestComponentGenerationSafety(t *testing.T) {
	w := evoke.NewWorld()
	old := evoke.RegisterComponent[Position](w)
	_, ok := w.Components().Remove(old)
	require.True(t, ok)

	// The dense index is reused; the generation is not.
	reused := evoke.RegisterComponent[Velocity](w)
	require.Equal(t, old.Index(), reused.Index())
	require.NotEqual(t, old, reused, "a reused index must never yield an equal ID")
	require.False(t, w.Components().Contains(old))
	require.True(t, w.Components().Contains(reused))
}

func TestIndexingAccessorAborts(t *testing.T) {
	w := evoke.NewWorld()
	id := evoke.RegisterComponent[Position](w)
	w.Components().Remove(id)

	require.Panics(t, func() { w.Components().Info(id) })
	require.Panics(t, func() { w.Components().InfoByIndex(id.Index()) })
	require.NotPanics(t, func() {
		live := evoke.RegisterComponent[Velocity](w)
		w.Components().Info(live)
	})
}

func TestImmutableRegistration(t *testing.T) {
	w := evoke.NewWorld()
	id := evoke.RegisterImmutable[Health](w)

	info, ok := w.Components().Get(id)
	require.True(t, ok)
	require.True(t, info.Immutable())
}

func TestComponentAddedEvent(t *testing.T) {
	w := evoke.NewWorld()
	var seen []evoke.ComponentID
	evoke.Subscribe(w, func(_ *evoke.World, ev evoke.ComponentAdded) {
		seen = append(seen, ev.Component)
	})

	id := evoke.RegisterComponent[Position](w)
	evoke.RegisterComponent[Position](w) // dedup, no event
	require.Equal(t, []evoke.ComponentID{id}, seen)
}
