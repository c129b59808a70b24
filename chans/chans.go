// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package chans provides the conductance-based (COBA) synaptic channels for
spiking neurons: fast AMPA and GABAa, and slow NMDA and GABAb receptors, each
with exponential decay and an optional rise time (difference of exponentials).
NMDA current is additionally gated by the membrane potential (Mg block).
*/
package chans

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Reversal potentials of the synaptic channels, in mV
const (
	EAMPA  = float32(0)
	ENMDA  = float32(0)
	EGABAa = float32(-70)
	EGABAb = float32(-90)
)

// Kinetics are the rise and decay time constants of one receptor type
type Kinetics struct {
	Rise  float32 `def:"0" desc:"rise time constant in msec -- 0 = instantaneous rise, single exponential decay"`
	Decay float32 `desc:"decay time constant in msec -- must be larger than Rise"`

	DecayFact float32 `view:"-" desc:"per-msec retention factor of decay component: exp(-1/Decay)"`
	RiseFact  float32 `view:"-" desc:"per-msec retention factor of rise component: exp(-1/Rise)"`
	Norm      float32 `view:"-" desc:"normalization of the difference of exponentials so that a unit input peaks at 1"`
}

// Set sets the time constants and updates the derived factors
func (kn *Kinetics) Set(rise, decay float32) {
	kn.Rise = rise
	kn.Decay = decay
	kn.Update()
}

// HasRise returns true if a rise time is used
func (kn *Kinetics) HasRise() bool {
	return kn.Rise > 0
}

// Update computes the derived factors
func (kn *Kinetics) Update() {
	if kn.Decay > 0 {
		kn.DecayFact = math32.Exp(-1 / kn.Decay)
	}
	kn.Norm = 1
	kn.RiseFact = 0
	if !kn.HasRise() || kn.Rise >= kn.Decay {
		return
	}
	kn.RiseFact = math32.Exp(-1 / kn.Rise)
	tmax := (kn.Rise * kn.Decay / (kn.Decay - kn.Rise)) * math32.Log(kn.Decay/kn.Rise)
	kn.Norm = 1 / (math32.Exp(-tmax/kn.Decay) - math32.Exp(-tmax/kn.Rise))
}

// Validate checks that the decay is positive and strictly larger than the rise
func (kn *Kinetics) Validate(name string) error {
	if kn.Decay <= 0 {
		return fmt.Errorf("chans: %s decay time: %g must be > 0", name, kn.Decay)
	}
	if kn.Rise < 0 {
		return fmt.Errorf("chans: %s rise time: %g must be >= 0", name, kn.Rise)
	}
	if kn.HasRise() && kn.Rise >= kn.Decay {
		return fmt.Errorf("chans: %s rise time: %g must be smaller than decay time: %g", name, kn.Rise, kn.Decay)
	}
	return nil
}

// Params are the conductance-based synapse parameters for a network.
// When On is false, synaptic input is current-based (CUBA): each delivered
// spike adds its signed weight directly to the input current for one step.
type Params struct {
	On    bool     `desc:"use conductance-based (COBA) synapses instead of current-based"`
	AMPA  Kinetics `view:"inline" desc:"fast excitatory channel -- no rise time"`
	NMDA  Kinetics `view:"inline" desc:"slow excitatory channel, voltage gated"`
	GABAa Kinetics `view:"inline" desc:"fast inhibitory channel -- no rise time"`
	GABAb Kinetics `view:"inline" desc:"slow inhibitory channel"`
}

// Defaults sets the standard time constants: AMPA 5, NMDA 150, GABAa 6, GABAb 150 msec,
// with no rise times
func (pr *Params) Defaults() {
	pr.AMPA.Set(0, 5)
	pr.NMDA.Set(0, 150)
	pr.GABAa.Set(0, 6)
	pr.GABAb.Set(0, 150)
}

// Update updates all derived factors
func (pr *Params) Update() {
	pr.AMPA.Update()
	pr.NMDA.Update()
	pr.GABAa.Update()
	pr.GABAb.Update()
}

// Set sets all time constants, with rise times for the slow channels
func (pr *Params) Set(tdAMPA, trNMDA, tdNMDA, tdGABAa, trGABAb, tdGABAb float32) {
	pr.AMPA.Set(0, tdAMPA)
	pr.NMDA.Set(trNMDA, tdNMDA)
	pr.GABAa.Set(0, tdGABAa)
	pr.GABAb.Set(trGABAb, tdGABAb)
}

// Validate checks all the kinetics.  The fast channels cannot have a rise time.
func (pr *Params) Validate() error {
	if pr.AMPA.HasRise() || pr.GABAa.HasRise() {
		return fmt.Errorf("chans: AMPA and GABAa do not support rise times")
	}
	for _, ck := range []struct {
		nm string
		kn *Kinetics
	}{{"AMPA", &pr.AMPA}, {"NMDA", &pr.NMDA}, {"GABAa", &pr.GABAa}, {"GABAb", &pr.GABAb}} {
		if err := ck.kn.Validate(ck.nm); err != nil {
			return err
		}
	}
	return nil
}

// Conds are the synaptic conductances of one neuron.  Slow channels with a rise
// time keep both components: the effective conductance is Norm * (decay - rise).
type Conds struct {
	AMPA      float32 `desc:"AMPA conductance"`
	NMDA      float32 `desc:"NMDA conductance (decay component when rise is used)"`
	NMDARise  float32 `desc:"NMDA rise component"`
	GABAa     float32 `desc:"GABAa conductance"`
	GABAb     float32 `desc:"GABAb conductance (decay component when rise is used)"`
	GABAbRise float32 `desc:"GABAb rise component"`
}

// Zero resets all conductances
func (cd *Conds) Zero() {
	*cd = Conds{}
}

// GNMDA returns the effective NMDA conductance
func (pr *Params) GNMDA(cd *Conds) float32 {
	if pr.NMDA.HasRise() {
		return pr.NMDA.Norm * (cd.NMDA - cd.NMDARise)
	}
	return cd.NMDA
}

// GGABAb returns the effective GABAb conductance
func (pr *Params) GGABAb(cd *Conds) float32 {
	if pr.GABAb.HasRise() {
		return pr.GABAb.Norm * (cd.GABAb - cd.GABAbRise)
	}
	return cd.GABAb
}

// MgBlock is the voltage dependence of the NMDA channel:
// ((v+80)/60)^2 / (1 + ((v+80)/60)^2)
func MgBlock(v float32) float32 {
	x := (v + 80) / 60
	x *= x
	return x / (1 + x)
}

// Current returns the total synaptic current into a neuron at membrane potential v
func (pr *Params) Current(v float32, cd *Conds) float32 {
	return -(cd.AMPA*(v-EAMPA) +
		pr.GNMDA(cd)*MgBlock(v)*(v-ENMDA) +
		cd.GABAa*(v-EGABAa) +
		pr.GGABAb(cd)*(v-EGABAb))
}

// AddExc adds excitatory input to the fast (AMPA) and slow (NMDA) channels
func (pr *Params) AddExc(cd *Conds, fast, slow float32) {
	cd.AMPA += fast
	cd.NMDA += slow
	if pr.NMDA.HasRise() {
		cd.NMDARise += slow
	}
}

// AddInh adds inhibitory input to the fast (GABAa) and slow (GABAb) channels
func (pr *Params) AddInh(cd *Conds, fast, slow float32) {
	cd.GABAa += fast
	cd.GABAb += slow
	if pr.GABAb.HasRise() {
		cd.GABAbRise += slow
	}
}

// Decay applies one msec of exponential decay to all channels
func (pr *Params) Decay(cd *Conds) {
	cd.AMPA *= pr.AMPA.DecayFact
	cd.NMDA *= pr.NMDA.DecayFact
	cd.GABAa *= pr.GABAa.DecayFact
	cd.GABAb *= pr.GABAb.DecayFact
	if pr.NMDA.HasRise() {
		cd.NMDARise *= pr.NMDA.RiseFact
	}
	if pr.GABAb.HasRise() {
		cd.GABAbRise *= pr.GABAb.RiseFact
	}
}
