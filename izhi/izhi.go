// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package izhi provides the Izhikevich (2003) simple spiking neuron model:

	v' = 0.04 v^2 + 5 v + 140 - u + I
	u' = a (b v - u)
	if v >= 30 mV: v = c, u = u + d

Parameters a, b, c, d are specified per group as distributions (mean and
standard deviation) and sampled once per neuron at build time.
The membrane potential is integrated with two 0.5 msec half steps per
1 msec step for numerical stability, as in the original model code.
*/
package izhi

import (
	"fmt"

	"github.com/emer/emergent/erand"
	"github.com/goki/ki/kit"
)

const (
	// VPeak is the spike cutoff: v at or above this value is a spike, in mV
	VPeak = float32(30)

	// VInit is the initial membrane potential, in mV
	VInit = float32(-65)
)

// Rand is the source of random numbers used to sample parameters.
// Float returns a uniform value in [0,1) and NormFloat a standard normal value.
type Rand interface {
	Float() float32
	NormFloat() float32
}

// Params are the Izhikevich neuron parameters for a group of neurons.
// Each value is a distribution: Mean is the mean, Var the standard deviation,
// and Dist is erand.Gaussian (default when Var > 0), erand.Uniform (Mean +/- Var)
// or erand.Mean (no variability).
type Params struct {
	A erand.RndParams `desc:"time scale of the recovery variable u -- smaller = slower recovery"`
	B erand.RndParams `desc:"sensitivity of the recovery variable u to subthreshold fluctuations of v"`
	C erand.RndParams `desc:"after-spike reset value of v, in mV"`
	D erand.RndParams `desc:"after-spike increment of u"`
}

// Defaults sets the regular spiking (RS) parameters with no variability
func (pr *Params) Defaults() {
	pr.SetPreset(RS)
}

// Update normalizes the distributions: zero variability is always the Mean distribution
func (pr *Params) Update() {
	for _, rp := range []*erand.RndParams{&pr.A, &pr.B, &pr.C, &pr.D} {
		if rp.Var == 0 {
			rp.Dist = erand.Mean
		} else if rp.Dist == erand.Mean {
			rp.Dist = erand.Gaussian
		}
	}
}

// Set sets mean values with no variability
func (pr *Params) Set(a, b, c, d float32) {
	pr.SetSD(a, 0, b, 0, c, 0, d, 0)
}

// SetSD sets mean and standard deviation for each parameter, using a
// Gaussian distribution where the SD is non-zero
func (pr *Params) SetSD(a, aSD, b, bSD, c, cSD, d, dSD float32) {
	setRnd(&pr.A, a, aSD)
	setRnd(&pr.B, b, bSD)
	setRnd(&pr.C, c, cSD)
	setRnd(&pr.D, d, dSD)
	pr.Update()
}

func setRnd(rp *erand.RndParams, mean, sd float32) {
	rp.Dist = erand.Gaussian
	rp.Mean = float64(mean)
	rp.Var = float64(sd)
	rp.Par = 0
}

// SetPreset sets the mean parameters for one of the standard firing types
func (pr *Params) SetPreset(ps Presets) {
	abcd := PresetVals[ps]
	pr.Set(abcd[0], abcd[1], abcd[2], abcd[3])
}

// Validate returns an error if the parameters cannot produce a valid neuron
func (pr *Params) Validate() error {
	if pr.A.Var < 0 || pr.B.Var < 0 || pr.C.Var < 0 || pr.D.Var < 0 {
		return fmt.Errorf("izhi.Params: standard deviations must be >= 0: a: %g b: %g c: %g d: %g", pr.A.Var, pr.B.Var, pr.C.Var, pr.D.Var)
	}
	if pr.C.Mean >= float64(VPeak) {
		return fmt.Errorf("izhi.Params: reset c: %g must be below the spike peak: %g", pr.C.Mean, VPeak)
	}
	return nil
}

// Gen samples one value from given distribution
func Gen(rp *erand.RndParams, rnd Rand) float32 {
	switch rp.Dist {
	case erand.Gaussian:
		if rp.Var == 0 {
			return float32(rp.Mean)
		}
		return float32(rp.Mean) + float32(rp.Var)*rnd.NormFloat()
	case erand.Uniform:
		if rp.Var == 0 {
			return float32(rp.Mean)
		}
		return float32(rp.Mean) + float32(rp.Var)*(2*rnd.Float()-1)
	default:
		return float32(rp.Mean)
	}
}

// Sample draws the a, b, c, d values for one neuron
func (pr *Params) Sample(rnd Rand) (a, b, c, d float32) {
	a = Gen(&pr.A, rnd)
	b = Gen(&pr.B, rnd)
	c = Gen(&pr.C, rnd)
	d = Gen(&pr.D, rnd)
	return
}

// InitVU returns the initial state for a neuron with given b value
func InitVU(b float32) (v, u float32) {
	return VInit, b * VInit
}

// Integ integrates v and u over one msec given input current I,
// returning the new values.  No spike detection or reset is done here.
func Integ(v, u, a, b, I float32) (float32, float32) {
	v += 0.5 * (0.04*v*v + 5*v + 140 - u + I)
	v += 0.5 * (0.04*v*v + 5*v + 140 - u + I)
	u += a * (b*v - u)
	return v, u
}

// Step integrates one msec and applies the spike reset.
// Returns true if the neuron spiked.
func Step(v, u *float32, a, b, c, d, I float32) bool {
	*v, *u = Integ(*v, *u, a, b, I)
	if *v >= VPeak {
		*v = c
		*u += d
		return true
	}
	return false
}

// Presets are the standard Izhikevich (2003) firing types
type Presets int32

//go:generate stringer -type=Presets

var KiT_Presets = kit.Enums.AddEnum(PresetsN, kit.NotBitFlag, nil)

func (ev Presets) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Presets) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// RS is regular spiking: excitatory cortical neurons with adapting tonic firing
	RS Presets = iota

	// IB is intrinsically bursting
	IB

	// CH is chattering: fast rhythmic bursts
	CH

	// FS is fast spiking: inhibitory interneurons without adaptation
	FS

	// LTS is low-threshold spiking inhibitory interneurons
	LTS

	// RZ is the resonator
	RZ

	// TC is thalamo-cortical
	TC

	PresetsN
)

// PresetVals are the a, b, c, d values for each preset
var PresetVals = [PresetsN][4]float32{
	RS:  {0.02, 0.2, -65, 8},
	IB:  {0.02, 0.2, -55, 4},
	CH:  {0.02, 0.2, -50, 2},
	FS:  {0.1, 0.2, -65, 2},
	LTS: {0.02, 0.25, -65, 2},
	RZ:  {0.1, 0.26, -65, 2},
	TC:  {0.02, 0.25, -65, 0.05},
}
