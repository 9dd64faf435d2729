// Profiling:
// go build ./profile/view
// go tool pprof -http=":8000" -nodefraction=0.001 ./view cpu.pprof

package main

import (
	"github.com/pkg/profile"
	"github.com/thornmill/evoke"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	rounds := 50
	iters := 10000
	entities := 10000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for _i := 0; _i < rounds; _i++ {
		w := evoke.NewWorld(evoke.WithCapacity(numEntities))
		spawner := evoke.NewSpawner2[comp1, comp2](w)
		for _i := 0; _i < numEntities; _i++ {
			spawner.Spawn(comp1{V: 1, W: 2}, comp2{V: 3, W: 4})
		}
		view, err := evoke.NewView2[comp1, comp2](w, evoke.Write, evoke.Read)
		if err != nil {
			panic(err)
		}

		for _i := 0; _i < iters; _i++ {
			view.Each(func(_ evoke.Entity, c1 *comp1, c2 *comp2) {
				c1.V += c2.V
				c1.W += c2.W
			})
		}
	}
}
