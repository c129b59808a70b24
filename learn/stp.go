// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package learn

import (
	"fmt"

	"github.com/goki/mat32"
)

// STPParams are the Tsodyks-Markram short-term plasticity parameters for
// synapses sent by a group.  u is the utilization (release probability),
// x the fraction of available resources:
//
//	du/dt = -u/TauU + U (1 - u-) spike
//	dx/dt = (1 - x)/TauX - u+ x- spike
//
// and the efficacy of a spike is A u+ x-, with A = 1/U so that the first
// spike after a long pause has unit efficacy.
type STPParams struct {
	On   bool    `desc:"enable short-term plasticity on synapses sent by this group"`
	U    float32 `def:"0.45" desc:"increment of utilization u induced by a spike"`
	TauU float32 `def:"50" desc:"decay time constant of u (facilitation), msec"`
	TauX float32 `def:"750" desc:"recovery time constant of x (depression), msec"`

	A float32 `view:"-" desc:"efficacy scaling: 1/U"`
}

// Defaults sets depressing synapse values
func (sp *STPParams) Defaults() {
	sp.U = 0.45
	sp.TauU = 50
	sp.TauX = 750
	sp.Update()
}

// InhibDefaults sets facilitating synapse values typical for inhibitory senders
func (sp *STPParams) InhibDefaults() {
	sp.U = 0.15
	sp.TauU = 750
	sp.TauX = 50
	sp.Update()
}

// Update computes derived values
func (sp *STPParams) Update() {
	sp.A = 1
	if sp.U > 0 {
		sp.A = 1 / sp.U
	}
}

// Validate checks ranges
func (sp *STPParams) Validate() error {
	if !sp.On {
		return nil
	}
	if sp.U <= 0 || sp.U > 1 {
		return fmt.Errorf("learn.STPParams: U: %g must be in (0,1]", sp.U)
	}
	if sp.TauU <= 0 || sp.TauX <= 0 {
		return fmt.Errorf("learn.STPParams: time constants must be > 0: TauU: %g TauX: %g", sp.TauU, sp.TauX)
	}
	return nil
}

// Init returns the resting state: u = 0, x = 1
func (sp *STPParams) Init() (u, x float32) {
	return 0, 1
}

// Relax advances u and x over dt msec with no spikes, in closed form:
// u decays to 0 and x recovers to 1
func (sp *STPParams) Relax(u, x *float32, dt float32) {
	if dt <= 0 {
		return
	}
	*u *= mat32.Exp(-dt / sp.TauU)
	*x = 1 - (1-*x)*mat32.Exp(-dt/sp.TauX)
}

// Spike applies a presynaptic spike and returns the efficacy multiplier A u+ x-
func (sp *STPParams) Spike(u, x *float32) float32 {
	*u += sp.U * (1 - *u)
	ux := *u * *x
	*x -= ux
	return sp.A * ux
}
