// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package learn

import "fmt"

// HomeoParams are the firing-rate homeostasis parameters of a group (Carlson et al., 2013).
// Each neuron tracks its average firing rate with time constant AvgTimeScale, and
// once per second multiplicatively scales its incoming plastic weights toward its
// target rate.
type HomeoParams struct {
	On           bool    `desc:"enable homeostatic synaptic scaling for this group"`
	Scale        float32 `def:"0.1" desc:"strength of scaling: the fraction of the relative rate error applied per second"`
	AvgTimeScale float32 `def:"10" desc:"time scale of the average firing rate estimate, in seconds"`
	BaseRate     float32 `def:"10" desc:"target firing rate in Hz"`
	BaseRateSD   float32 `def:"0" desc:"standard deviation of the per-neuron target rate -- each neuron samples one target"`

	Decay float32 `view:"-" desc:"per-msec rate estimate retention: 1 - 1/(AvgTimeScale*1000)"`
}

// Defaults sets the standard values, homeostasis off
func (hp *HomeoParams) Defaults() {
	hp.Scale = 0.1
	hp.AvgTimeScale = 10
	hp.BaseRate = 10
	hp.BaseRateSD = 0
	hp.Update()
}

// Update computes derived values
func (hp *HomeoParams) Update() {
	hp.Decay = 1
	if hp.AvgTimeScale > 0 {
		hp.Decay = 1 - 1/(hp.AvgTimeScale*1000)
	}
}

// Validate checks ranges
func (hp *HomeoParams) Validate() error {
	if !hp.On {
		return nil
	}
	if hp.Scale < 0 || hp.AvgTimeScale <= 0 {
		return fmt.Errorf("learn.HomeoParams: need Scale >= 0 and AvgTimeScale > 0: %g %g", hp.Scale, hp.AvgTimeScale)
	}
	if hp.BaseRate <= 0 || hp.BaseRateSD < 0 {
		return fmt.Errorf("learn.HomeoParams: need BaseRate > 0 and BaseRateSD >= 0: %g %g", hp.BaseRate, hp.BaseRateSD)
	}
	return nil
}

// AvgRate updates the running firing rate estimate (Hz) for one msec
func (hp *HomeoParams) AvgRate(avg float32, spiked bool) float32 {
	avg *= hp.Decay
	if spiked {
		avg += (1 - hp.Decay) * 1000
	}
	return avg
}

// Factor returns the multiplicative weight scaling for a neuron with average
// rate avg and target rate target: 1 + Scale * (1 - avg/target), never negative
func (hp *HomeoParams) Factor(avg, target float32) float32 {
	if target <= 0 {
		return 1
	}
	f := 1 + hp.Scale*(1-avg/target)
	if f < 0 {
		f = 0
	}
	return f
}
