package agent

import (
	"math/rand/v2"
	"sync/atomic"
	"time"
)

type SeedGeneratorFnType func() uint64

var SeedGeneratorFn SeedGeneratorFnType = func() uint64 {
	return uint64(time.Now().UnixNano())
}

// SetSeedGeneratorFn replaces the seed source used by NewRand, by default
// the current time in nanoseconds.
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}

var streams atomic.Uint64

// NewRand returns a generator seeded from SeedGeneratorFn. Every call gets
// its own stream, so generators built under a fixed seed are reproducible
// but not identical.
func NewRand() *rand.Rand {
	seed := SeedGeneratorFn()
	stream := streams.Add(1)
	return rand.New(rand.NewPCG(seed, seed^(stream*0x9e3779b97f4a7c15)))
}
