package evoke_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thornmill/evoke"
)

// requireMembershipConsistent asserts the two directions of the membership
// index agree: an archetype's composition includes a component iff the
// archetype's index is in that component's member-of set.
func requireMembershipConsistent(t *testing.T, w *evoke.World) {
	t.Helper()
	w.Components().Each(func(info *evoke.ComponentInfo) bool {
		member := make(map[evoke.ArchetypeIdx]bool)
		for _, ai := range info.MemberOf().ToArray() {
			member[evoke.ArchetypeIdx(ai)] = true
		}
		w.EachArchetype(func(idx evoke.ArchetypeIdx, _ int) bool {
			require.Equal(t, member[idx], w.ArchetypeContains(idx, info.ID()),
				"component %s vs archetype %d", info.Name(), idx)
			delete(member, idx)
			return true
		})
		require.Empty(t, member, "member-of set of %s references dead archetypes", info.Name())
		return true
	})
}

func TestSpawnDespawn(t *testing.T) {
	w := evoke.NewWorld(evoke.WithCapacity(4), evoke.WithLogger(zap.NewNop()))

	e := w.Spawn()
	require.True(t, w.Alive(e))
	require.Equal(t, 1, w.EntityCount())

	require.True(t, w.Despawn(e))
	require.False(t, w.Alive(e))
	require.Equal(t, 0, w.EntityCount())
	require.False(t, w.Despawn(e), "double despawn must fail")

	// The recycled ID never matches the stale reference.
	reborn := w.Spawn()
	require.Equal(t, e.ID, reborn.ID)
	require.NotEqual(t, e, reborn)
	require.False(t, w.Alive(e))
	require.True(t, w.Alive(reborn))
}

func TestStaleEntityOperations(t *testing.T) {
	w := evoke.NewWorld()
	e := w.Spawn()
	evoke.Insert(w, e, Position{X: 1})
	w.Despawn(e)

	require.False(t, evoke.Insert(w, e, Position{X: 2}))
	require.False(t, evoke.Detach[Position](w, e))
	_, ok := evoke.Get[Position](w, e)
	require.False(t, ok)
	require.False(t, evoke.Has[Position](w, e))
}

func TestInsertDetachMoves(t *testing.T) {
	w := evoke.NewWorld()

	e := w.Spawn()
	require.True(t, evoke.Insert(w, e, Position{X: 1, Y: 2}))
	require.True(t, evoke.Insert(w, e, Velocity{VX: 3}))
	requireMembershipConsistent(t, w)

	p, ok := evoke.Get[Position](w, e)
	require.True(t, ok)
	require.Equal(t, Position{X: 1, Y: 2}, *p, "values survive the archetype move")

	require.True(t, evoke.Detach[Position](w, e))
	require.False(t, evoke.Has[Position](w, e))
	require.True(t, evoke.Has[Velocity](w, e))
	require.False(t, evoke.Detach[Position](w, e), "detaching an absent component must fail")
	requireMembershipConsistent(t, w)
}

func TestSwapRemoveKeepsResidencyCurrent(t *testing.T) {
	w := evoke.NewWorld()

	es := make([]evoke.Entity, 8)
	for i := range es {
		es[i] = w.Spawn()
		evoke.Insert(w, es[i], Health{Current: i, Max: 100})
	}

	// Despawning from the middle swap-fills the hole; every survivor must
	// still resolve to its own value.
	require.True(t, w.Despawn(es[2]))
	require.True(t, w.Despawn(es[5]))
	for i, e := range es {
		if i == 2 || i == 5 {
			require.False(t, w.Alive(e))
			continue
		}
		h, ok := evoke.Get[Health](w, e)
		require.True(t, ok)
		require.Equal(t, i, h.Current)
	}
}

func TestDespawnRunsDestructors(t *testing.T) {
	w := evoke.NewWorld()

	dropped := 0
	desc := evoke.DescriptorFor[Health]()
	desc.Drop = func(p unsafe.Pointer) { dropped++ }
	w.AddComponent(desc)

	e := w.Spawn()
	evoke.Insert(w, e, Health{Current: 10})
	require.Equal(t, 0, dropped)
	w.Despawn(e)
	require.Equal(t, 1, dropped)
}

func TestHandlerMutationScenario(t *testing.T) {
	w := evoke.NewWorld()

	idA := evoke.RegisterComponent[Position](w)
	e1 := w.Spawn()
	require.True(t, evoke.Insert(w, e1, Position{X: 1}))

	view, err := evoke.NewView[Position](w, evoke.Write)
	require.NoError(t, err)
	_, err = evoke.SubscribeWith(w, func(_ *evoke.World, _ Tick) {
		view.Each(func(_ evoke.Entity, p *Position) { p.X++ })
	}, view.Access())
	require.NoError(t, err)

	evoke.Send(w, Tick{})
	p, ok := evoke.Get[Position](w, e1)
	require.True(t, ok)
	require.Equal(t, float32(2), p.X, "one send mutates exactly once")

	_, removed := w.RemoveComponent(idA)
	require.True(t, removed)
	require.False(t, w.Alive(e1), "residents of the removed component are destroyed")
	require.Equal(t, 0, w.HandlerCount(), "handlers touching the component are deregistered")
	require.Equal(t, 1, w.ArchetypeCount(), "only the empty archetype remains")
	require.Equal(t, 0, w.EntityCount())
	requireMembershipConsistent(t, w)
}

func TestMemberOfCardinalityScenario(t *testing.T) {
	w := evoke.NewWorld()

	idA := evoke.RegisterComponent[Position](w)
	idB := evoke.RegisterComponent[Velocity](w)
	idC := evoke.RegisterComponent[Health](w)

	e1 := w.Spawn()
	evoke.Insert(w, e1, Position{})
	e2 := w.Spawn()
	evoke.Insert(w, e2, Position{})
	evoke.Insert(w, e2, Velocity{})
	e3 := w.Spawn()
	evoke.Insert(w, e3, Position{})
	evoke.Insert(w, e3, Velocity{})
	evoke.Insert(w, e3, Health{})

	card := func(id evoke.ComponentID) uint64 {
		return w.Components().Info(id).MemberOf().GetCardinality()
	}
	require.Equal(t, uint64(3), card(idA))
	require.Equal(t, uint64(2), card(idB))
	require.Equal(t, uint64(1), card(idC))
	requireMembershipConsistent(t, w)

	_, ok := w.RemoveComponent(idC)
	require.True(t, ok)
	require.Equal(t, uint64(2), card(idA))
	require.Equal(t, uint64(1), card(idB))
	require.False(t, w.Alive(e3))
	requireMembershipConsistent(t, w)

	_, ok = w.RemoveComponent(idB)
	require.True(t, ok)
	require.Equal(t, uint64(1), card(idA))
	require.False(t, w.Alive(e2))
	require.True(t, w.Alive(e1))
	requireMembershipConsistent(t, w)
}

func TestCascadingCompleteness(t *testing.T) {
	w := evoke.NewWorld()

	idA := evoke.RegisterComponent[Position](w)
	evoke.RegisterComponent[Velocity](w)
	evoke.RegisterComponent[Health](w)

	// Residents spread over three distinct compositions that all hold A.
	var doomed []evoke.Entity
	for i := 0; i < 9; i++ {
		e := w.Spawn()
		evoke.Insert(w, e, Position{X: float32(i)})
		if i%3 > 0 {
			evoke.Insert(w, e, Velocity{})
		}
		if i%3 > 1 {
			evoke.Insert(w, e, Health{})
		}
		doomed = append(doomed, e)
	}
	bystander := w.Spawn()
	evoke.Insert(w, bystander, Velocity{VX: 5})

	view, err := evoke.NewView[Position](w, evoke.Write)
	require.NoError(t, err)
	var handlers []evoke.HandlerID
	for i := 0; i < 4; i++ {
		id, err := evoke.SubscribeWith(w, func(*evoke.World, Tick) {}, view.Access())
		require.NoError(t, err)
		handlers = append(handlers, id)
	}
	hInsert, err := w.OnInsert(idA, func(*evoke.World, evoke.Entity) {})
	require.NoError(t, err)
	unrelated := evoke.Subscribe(w, func(*evoke.World, Collision) {})

	removedNotice := 0
	evoke.Subscribe(w, func(w *evoke.World, ev evoke.ComponentRemoved) {
		require.Equal(t, idA, ev.Component)
		require.True(t, w.Components().Contains(idA), "storage is intact while the notice fires")
		removedNotice++
	})

	info, ok := w.RemoveComponent(idA)
	require.True(t, ok)
	require.Equal(t, "Position", info.Name())
	require.Equal(t, 1, removedNotice)

	for _, e := range doomed {
		require.False(t, w.Alive(e))
	}
	require.True(t, w.Alive(bystander), "entities without the component survive")
	for _, id := range handlers {
		require.False(t, w.ContainsHandler(id))
	}
	require.False(t, w.ContainsHandler(hInsert), "lifecycle subscribers go with the component")
	require.True(t, w.ContainsHandler(unrelated))

	require.False(t, w.Components().Contains(idA))
	w.EachArchetype(func(idx evoke.ArchetypeIdx, _ int) bool {
		require.False(t, w.ArchetypeContains(idx, idA))
		return true
	})
	requireMembershipConsistent(t, w)

	_, ok = w.RemoveComponent(idA)
	require.False(t, ok, "removing a stale ID must fail")
}

func TestCascadeCollapseKeepsResiduals(t *testing.T) {
	w := evoke.NewWorld()

	idB := evoke.RegisterComponent[Velocity](w)

	// Inserting Velocity before Position means no {Position}-only archetype
	// ever exists: removing Velocity must collapse {Position, Velocity} in
	// place rather than delete it. Its residents are destroyed either way.
	e := w.Spawn()
	evoke.Insert(w, e, Velocity{VX: 2})
	evoke.Insert(w, e, Position{X: 1})
	require.Equal(t, 3, w.ArchetypeCount())

	_, ok := w.RemoveComponent(idB)
	require.True(t, ok)
	require.False(t, w.Alive(e))
	// {Velocity} deleted into the empty archetype; {Position, Velocity}
	// collapsed to {Position}.
	require.Equal(t, 2, w.ArchetypeCount())
	requireMembershipConsistent(t, w)

	// The collapsed composition is live and reused, not recreated.
	e2 := w.Spawn()
	evoke.Insert(w, e2, Position{X: 9})
	require.Equal(t, 2, w.ArchetypeCount())
	require.True(t, evoke.Has[Position](w, e2))
	requireMembershipConsistent(t, w)
}
