package evoke_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thornmill/evoke"
)

func TestViewFetchMatchesDirectLookup(t *testing.T) {
	w := evoke.NewWorld()

	entities := make([]evoke.Entity, 0, 16)
	for i := 0; i < 16; i++ {
		e := w.Spawn()
		evoke.Insert(w, e, Position{X: float32(i), Y: float32(-i)})
		evoke.Insert(w, e, Velocity{VX: float32(i) * 2})
		if i%2 == 0 {
			evoke.Insert(w, e, Health{Current: i, Max: 100})
		}
		entities = append(entities, e)
	}

	v, err := evoke.NewView2[Position, Velocity](w, evoke.Read, evoke.Read)
	require.NoError(t, err)

	visited := make(map[evoke.Entity]Position, 16)
	v.Each(func(e evoke.Entity, p *Position, vel *Velocity) {
		visited[e] = *p
		direct, ok := evoke.Get[Velocity](w, e)
		require.True(t, ok)
		require.Same(t, direct, vel, "view fetch and direct lookup must alias the same cell")
	})

	require.Len(t, visited, 16)
	for _, e := range entities {
		p, ok := evoke.Get[Position](w, e)
		require.True(t, ok)
		require.Equal(t, *p, visited[e])
	}
}

func TestViewSkipsArchetypesWithoutComponent(t *testing.T) {
	w := evoke.NewWorld()

	withHealth := w.Spawn()
	evoke.Insert(w, withHealth, Position{X: 1})
	evoke.Insert(w, withHealth, Health{Current: 50, Max: 50})
	withoutHealth := w.Spawn()
	evoke.Insert(w, withoutHealth, Position{X: 2})

	v, err := evoke.NewView[Health](w, evoke.Read)
	require.NoError(t, err)

	var seen []evoke.Entity
	v.Each(func(e evoke.Entity, _ *Health) { seen = append(seen, e) })
	require.Equal(t, []evoke.Entity{withHealth}, seen)

	// Per-archetype resolution fails cleanly for a composition lacking Health.
	matched := 0
	w.EachArchetype(func(idx evoke.ArchetypeIdx, size int) bool {
		if _, ok := v.Arch(idx); ok {
			matched++
		}
		return true
	})
	require.Equal(t, 1, matched)
}

func TestViewUnregisteredComponent(t *testing.T) {
	w := evoke.NewWorld()
	_, err := evoke.NewView[Unregistered](w, evoke.Read)
	require.ErrorIs(t, err, evoke.ErrUnregisteredComponent)
}

func TestViewImmutableWrite(t *testing.T) {
	w := evoke.NewWorld()
	evoke.RegisterImmutable[Health](w)

	_, err := evoke.NewView[Health](w, evoke.Write)
	require.ErrorIs(t, err, evoke.ErrImmutableComponent)

	_, err = evoke.NewView[Health](w, evoke.Read)
	require.NoError(t, err)
}

func TestViewConflictingFields(t *testing.T) {
	w := evoke.NewWorld()
	evoke.RegisterComponent[Position](w)

	_, err := evoke.NewView2[Position, Position](w, evoke.Write, evoke.Write)
	require.ErrorIs(t, err, evoke.ErrConflictingAccess)
	_, err = evoke.NewView2[Position, Position](w, evoke.Read, evoke.Write)
	require.ErrorIs(t, err, evoke.ErrConflictingAccess)
	_, err = evoke.NewView2[Position, Position](w, evoke.Read, evoke.Read)
	require.NoError(t, err, "duplicate read fields never conflict")
}

func TestViewReadOnlyDerivation(t *testing.T) {
	w := evoke.NewWorld()
	evoke.RegisterComponent[Position](w)

	rv, err := evoke.NewView[Position](w, evoke.Read)
	require.NoError(t, err)
	ro, err := rv.ReadOnly()
	require.NoError(t, err)
	require.True(t, ro.Access().ReadOnly())

	wv, err := evoke.NewView[Position](w, evoke.Write)
	require.NoError(t, err)
	_, err = wv.ReadOnly()
	require.ErrorIs(t, err, evoke.ErrConflictingAccess)
}

func TestViewDeadAfterComponentRemoval(t *testing.T) {
	w := evoke.NewWorld()
	id := evoke.RegisterComponent[Position](w)
	e := w.Spawn()
	evoke.Insert(w, e, Position{X: 3})

	v, err := evoke.NewView[Position](w, evoke.Read)
	require.NoError(t, err)
	count := 0
	v.Each(func(evoke.Entity, *Position) { count++ })
	require.Equal(t, 1, count)

	_, removed := w.RemoveComponent(id)
	require.True(t, removed)

	count = 0
	v.Each(func(evoke.Entity, *Position) { count++ })
	require.Equal(t, 0, count, "a view must go dead when its component is removed")

	// Even if a later registration reuses the dense index, the stale view
	// must not bind to it.
	other := w.Spawn()
	evoke.Insert(w, other, Velocity{VX: 1})
	count = 0
	v.Each(func(evoke.Entity, *Position) { count++ })
	require.Equal(t, 0, count)
}

func TestViewRefreshAfterStructuralChange(t *testing.T) {
	w := evoke.NewWorld()
	e1 := w.Spawn()
	evoke.Insert(w, e1, Position{X: 1})

	v, err := evoke.NewView[Position](w, evoke.Write)
	require.NoError(t, err)
	v.Each(func(_ evoke.Entity, p *Position) { p.X *= 10 })

	// A structural change invalidates the cached per-archetype state; the
	// next traversal must pick up the new resident.
	e2 := w.Spawn()
	evoke.Insert(w, e2, Position{X: 2})
	evoke.Insert(w, e2, Velocity{VX: 1})

	seen := make(map[evoke.Entity]float32, 2)
	v.Each(func(e evoke.Entity, p *Position) { seen[e] = p.X })
	require.Equal(t, map[evoke.Entity]float32{e1: 10, e2: 2}, seen)
}

func TestView3View4Traversal(t *testing.T) {
	w := evoke.NewWorld()
	e := w.Spawn()
	evoke.Insert(w, e, Position{X: 1})
	evoke.Insert(w, e, Velocity{VX: 2})
	evoke.Insert(w, e, Health{Current: 3, Max: 3})
	evoke.Insert(w, e, Tag{})

	v3, err := evoke.NewView3[Position, Velocity, Health](w, evoke.Read, evoke.Read, evoke.Read)
	require.NoError(t, err)
	hits := 0
	v3.Each(func(_ evoke.Entity, p *Position, vel *Velocity, h *Health) {
		hits++
		require.Equal(t, float32(1), p.X)
		require.Equal(t, float32(2), vel.VX)
		require.Equal(t, 3, h.Current)
	})
	require.Equal(t, 1, hits)

	v4, err := evoke.NewView4[Position, Velocity, Health, Tag](w, evoke.Read, evoke.Read, evoke.Write, evoke.Read)
	require.NoError(t, err)
	hits = 0
	v4.Each(func(_ evoke.Entity, _ *Position, _ *Velocity, h *Health, _ *Tag) {
		hits++
		h.Current = 0
	})
	require.Equal(t, 1, hits)

	h, ok := evoke.Get[Health](w, e)
	require.True(t, ok)
	require.Equal(t, 0, h.Current)
}
