// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"sync"

	"github.com/goki/gosl/slrand"
)

// Rand is the random stream of a network: counter-based Philox2x32 draws keyed
// by the seed.  The state is just the seed and the counter, so it is exported
// and restored exactly with the network.  Stream draws are serialized by the
// mutex: callers Lock once for a whole batch of draws (e.g., one connection).
type Rand struct {
	Seed    uint32       `desc:"random key"`
	Counter slrand.Uint2 `desc:"stream position"`

	mu sync.Mutex
}

// Keys xor-ed into the seed for the stateless draws, so they are independent
// of the stream and of each other.
const (
	poissonKey = 0x5bd1e995
	connKey    = 0x9e3779b9
)

// Init sets the seed and rewinds the stream
func (rn *Rand) Init(seed uint32) {
	rn.Seed = seed
	rn.Counter = slrand.Uint2{}
}

// Lock acquires the stream
func (rn *Rand) Lock() { rn.mu.Lock() }

// Unlock releases the stream
func (rn *Rand) Unlock() { rn.mu.Unlock() }

// Float returns a uniform value in [0,1).  Lock must be held.
func (rn *Rand) Float() float32 {
	v := slrand.RandFloat(rn.Counter, rn.Seed)
	slrand.CounterIncr(&rn.Counter)
	return v
}

// NormFloat returns a standard normal value.  Lock must be held.
func (rn *Rand) NormFloat() float32 {
	v := slrand.RandNormFloat(rn.Counter, rn.Seed)
	slrand.CounterIncr(&rn.Counter)
	return v
}

// Intn returns a uniform integer in [0,n).  Lock must be held.
func (rn *Rand) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v := slrand.RandUint32(rn.Counter, rn.Seed)
	slrand.CounterIncr(&rn.Counter)
	return int(v % uint32(n))
}

// PoissonFire is the stateless draw of a Poisson source: true with probability
// p for neuron ni at step t.  It depends only on (seed, t, ni), so every
// backend and every partition of the neurons produces the same spikes.
func PoissonFire(seed uint32, t int64, ni int32, p float32) bool {
	ctr := slrand.Uint2{X: uint32(t), Y: uint32(ni) ^ (uint32(t>>32) << 24)}
	return slrand.RandBoolP(ctr, seed^poissonKey, p)
}

// ConnStream returns the stream id for the random draws of connection id
func ConnStream(seed uint32, id int) uint32 {
	return (seed ^ connKey) + uint32(id)*0x632be5ab
}
