// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "fmt"

// ConnDecision is the decision of a ConnGenerator for one neuron pair
type ConnDecision struct {
	Connect bool    `desc:"create a synapse"`
	Wt      float32 `desc:"initial weight magnitude"`
	MaxWt   float32 `desc:"maximum weight: 0 = Wt"`
	Delay   int     `desc:"delay in msec, 1..MaxDelay"`
	Plastic bool    `desc:"subject to plasticity"`
}

// ConnGenerator decides the synapses of a custom connection.  Connect is called
// exactly once for each ordered (pre, post) neuron pair, pre-major, at build.
type ConnGenerator interface {
	Connect(preGrp, preIdx, postGrp, postIdx int) ConnDecision
}

// ConnGenFunc adapts a function to the ConnGenerator interface
type ConnGenFunc func(preGrp, preIdx, postGrp, postIdx int) ConnDecision

func (cf ConnGenFunc) Connect(preGrp, preIdx, postGrp, postIdx int) ConnDecision {
	return cf(preGrp, preIdx, postGrp, postIdx)
}

// SpikeGenerator decides the spikes of a spike generator group.  Fire is
// called once per step for each neuron of the group, in index order, before
// the neurons are integrated.  idx is the index within the group and t the step.
type SpikeGenerator interface {
	Fire(grp, idx int, t int64) bool
}

// SpikeGenFunc adapts a function to the SpikeGenerator interface
type SpikeGenFunc func(grp, idx int, t int64) bool

func (sf SpikeGenFunc) Fire(grp, idx int, t int64) bool {
	return sf(grp, idx, t)
}

// PoissonRate is a table of per-neuron Poisson firing rates, sampled in the
// neuron kernel with stateless random draws
type PoissonRate struct {
	Rates     []float32 `desc:"firing rate of each neuron, Hz"`
	RefPeriod float32   `def:"1" desc:"refractory period after a spike, msec"`
}

// NewPoissonRate returns n neurons at the same rate
func NewPoissonRate(n int, rate float32) *PoissonRate {
	pr := &PoissonRate{Rates: make([]float32, n), RefPeriod: 1}
	pr.SetAll(rate)
	return pr
}

// SetAll sets all rates
func (pr *PoissonRate) SetAll(rate float32) {
	for i := range pr.Rates {
		pr.Rates[i] = rate
	}
}

// Validate checks the size and ranges
func (pr *PoissonRate) Validate(n int) error {
	if len(pr.Rates) != n {
		return fmt.Errorf("PoissonRate: %d rates for %d neurons", len(pr.Rates), n)
	}
	for i, r := range pr.Rates {
		if r < 0 || r > 1000 {
			return fmt.Errorf("PoissonRate: rate %d: %g not in [0, 1000] Hz", i, r)
		}
	}
	if pr.RefPeriod < 0 {
		return fmt.Errorf("PoissonRate: refractory period must be >= 0: %g", pr.RefPeriod)
	}
	return nil
}
