// Profiling:
// go build ./profile/cascade
// go tool pprof -http=":8000" -nodefraction=0.001 ./cascade mem.pprof

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

type comp3 struct {
	V int64
	W int64
}

func main() {
	rounds := 50
	iters := 100
	entities := 10000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for _i := 0; _i < rounds; _i++ {
		w := evoke.NewWorld(evoke.WithCapacity(numEntities))
		for _i := 0; _i < iters; _i++ {
			id := evoke.RegisterComponent[comp1](w)
			s2 := evoke.NewSpawner2[comp1, comp2](w)
			s3 := evoke.NewSpawner3[comp1, comp2, comp3](w)
			for i := 0; i < numEntities; i++ {
				if i%2 == 0 {
					s2.Spawn(comp1{V: 1}, comp2{V: 2})
				} else {
					s3.Spawn(comp1{V: 1}, comp2{V: 2}, comp3{V: 3})
				}
			}
			w.RemoveComponent(id)
		}
	}
}
