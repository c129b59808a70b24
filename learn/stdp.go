// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package learn has the synaptic plasticity rules for spiking networks:
spike-timing dependent plasticity (STDP) with several timing curves,
Tsodyks-Markram short-term plasticity (STP), firing-rate homeostatic
scaling, neuromodulator dynamics, and the weight consolidation schedule.

The rules are pure functions of parameters and timing values, so that the
same code runs in every execution backend.
*/
package learn

import (
	"fmt"

	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// STDPCurve is the shape of the STDP window as a function of spike timing
type STDPCurve int32

//go:generate stringer -type=STDPCurve

var KiT_STDPCurve = kit.Enums.AddEnum(STDPCurveN, kit.NotBitFlag, nil)

func (ev STDPCurve) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *STDPCurve) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Hebbian: pre-before-post potentiates, post-before-pre depresses,
	// both exponentially decaying with timing difference
	Hebbian STDPCurve = iota

	// HalfHebbian: the potentiation side switches to depression for timing
	// differences larger than Gamma, depression side is Hebbian
	HalfHebbian

	// AntiHebbian: Hebbian with the signs inverted, typically for inhibitory synapses
	AntiHebbian

	// ConstantSymmetric: constant potentiation BetaLTP for timing differences
	// below Lambda, constant depression BetaLTD up to Delta, in both orders
	ConstantSymmetric

	// LinearSymmetric: potentiation falls linearly from BetaLTP at 0 to 0 at Lambda,
	// constant depression BetaLTD up to Delta, in both orders
	LinearSymmetric

	STDPCurveN
)

// STDPType determines how neuromodulation affects STDP
type STDPType int32

//go:generate stringer -type=STDPType

var KiT_STDPType = kit.Enums.AddEnum(STDPTypeN, kit.NotBitFlag, nil)

func (ev STDPType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *STDPType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Standard STDP: weight changes are applied as accumulated
	Standard STDPType = iota

	// DAMod: accumulated weight changes are scaled by the dopamine concentration
	// of the postsynaptic group when they are applied
	DAMod

	STDPTypeN
)

// STDPParams are the spike-timing dependent plasticity parameters, set on the
// postsynaptic group.  Separate parameters apply to excitatory (E-STDP) and
// inhibitory (I-STDP) inputs.  Timing differences are in msec.
type STDPParams struct {
	On       bool      `desc:"enable STDP on plastic synapses into this group"`
	Type     STDPType  `desc:"standard or dopamine-modulated"`
	Curve    STDPCurve `desc:"shape of the timing window"`
	AlphaLTP float32   `viewif:"Curve<ConstantSymmetric" def:"0.001" desc:"amplitude of potentiation (exponential curves)"`
	TauLTP   float32   `viewif:"Curve<ConstantSymmetric" def:"20" desc:"time constant of potentiation, msec"`
	AlphaLTD float32   `viewif:"Curve<ConstantSymmetric" def:"0.0012" desc:"amplitude of depression (exponential curves)"`
	TauLTD   float32   `viewif:"Curve<ConstantSymmetric" def:"20" desc:"time constant of depression, msec"`
	Gamma    float32   `viewif:"Curve=HalfHebbian" def:"10" desc:"timing difference where potentiation switches to depression, msec"`
	BetaLTP  float32   `viewif:"Curve>=ConstantSymmetric" def:"0.001" desc:"amplitude of potentiation (symmetric curves)"`
	BetaLTD  float32   `viewif:"Curve>=ConstantSymmetric" def:"0.0006" desc:"amplitude of depression (symmetric curves)"`
	Lambda   float32   `viewif:"Curve>=ConstantSymmetric" def:"6" desc:"extent of the potentiation window, msec"`
	Delta    float32   `viewif:"Curve>=ConstantSymmetric" def:"150" desc:"extent of the depression window, msec"`

	Kappa float32 `view:"-" desc:"HalfHebbian scaling: (1 + exp(-Gamma/TauLTP)) / (1 - exp(-Gamma/TauLTP))"`
	Omega float32 `view:"-" desc:"HalfHebbian offset: AlphaLTP * (1 - 1/Kappa)"`
}

// Defaults sets a Hebbian curve with standard amplitudes, STDP off
func (sp *STDPParams) Defaults() {
	sp.Type = Standard
	sp.Curve = Hebbian
	sp.AlphaLTP = 0.001
	sp.TauLTP = 20
	sp.AlphaLTD = 0.0012
	sp.TauLTD = 20
	sp.Gamma = 10
	sp.BetaLTP = 0.001
	sp.BetaLTD = 0.0006
	sp.Lambda = 6
	sp.Delta = 150
	sp.Update()
}

// InhibDefaults sets the default inhibitory STDP: anti-Hebbian
func (sp *STDPParams) InhibDefaults() {
	sp.Defaults()
	sp.Curve = AntiHebbian
}

// Update computes derived values
func (sp *STDPParams) Update() {
	sp.Kappa = 0
	sp.Omega = 0
	if sp.Curve == HalfHebbian && sp.TauLTP > 0 && sp.Gamma > 0 {
		eg := mat32.Exp(-sp.Gamma / sp.TauLTP)
		sp.Kappa = (1 + eg) / (1 - eg)
		sp.Omega = sp.AlphaLTP * (1 - 1/sp.Kappa)
	}
}

// SetExp sets one of the exponential curves with given amplitudes and time constants
func (sp *STDPParams) SetExp(curve STDPCurve, alphaLTP, tauLTP, alphaLTD, tauLTD float32) {
	sp.Curve = curve
	sp.AlphaLTP, sp.TauLTP, sp.AlphaLTD, sp.TauLTD = alphaLTP, tauLTP, alphaLTD, tauLTD
	sp.Update()
}

// SetSymmetric sets one of the symmetric curves
func (sp *STDPParams) SetSymmetric(curve STDPCurve, betaLTP, betaLTD, lambda, delta float32) {
	sp.Curve = curve
	sp.BetaLTP, sp.BetaLTD, sp.Lambda, sp.Delta = betaLTP, betaLTD, lambda, delta
	sp.Update()
}

// Validate checks the parameters for the selected curve
func (sp *STDPParams) Validate() error {
	if !sp.On {
		return nil
	}
	switch sp.Curve {
	case Hebbian, HalfHebbian, AntiHebbian:
		if sp.AlphaLTP < 0 || sp.AlphaLTD < 0 {
			return fmt.Errorf("learn.STDPParams: %v amplitudes must be >= 0: %g %g", sp.Curve, sp.AlphaLTP, sp.AlphaLTD)
		}
		if sp.TauLTP <= 0 || sp.TauLTD <= 0 {
			return fmt.Errorf("learn.STDPParams: %v time constants must be > 0: %g %g", sp.Curve, sp.TauLTP, sp.TauLTD)
		}
		if sp.Curve == HalfHebbian && sp.Gamma <= 0 {
			return fmt.Errorf("learn.STDPParams: HalfHebbian gamma must be > 0: %g", sp.Gamma)
		}
	case ConstantSymmetric, LinearSymmetric:
		if sp.BetaLTP < 0 || sp.BetaLTD < 0 {
			return fmt.Errorf("learn.STDPParams: %v amplitudes must be >= 0: %g %g", sp.Curve, sp.BetaLTP, sp.BetaLTD)
		}
		if sp.Lambda <= 0 || sp.Delta < sp.Lambda {
			return fmt.Errorf("learn.STDPParams: %v needs 0 < lambda <= delta: %g %g", sp.Curve, sp.Lambda, sp.Delta)
		}
	default:
		return fmt.Errorf("learn.STDPParams: invalid curve: %v", sp.Curve)
	}
	return nil
}

// symmetric is the shared window of the symmetric curves
func (sp *STDPParams) symmetric(dt float32) float32 {
	switch {
	case dt < sp.Lambda:
		if sp.Curve == LinearSymmetric {
			return sp.BetaLTP * (1 - dt/sp.Lambda)
		}
		return sp.BetaLTP
	case dt <= sp.Delta:
		return -sp.BetaLTD
	}
	return 0
}

// LTP returns the weight change when the postsynaptic neuron spikes dt >= 0 msec
// after the last presynaptic spike arrived
func (sp *STDPParams) LTP(dt float32) float32 {
	switch sp.Curve {
	case Hebbian:
		return sp.AlphaLTP * mat32.Exp(-dt/sp.TauLTP)
	case HalfHebbian:
		ex := sp.AlphaLTP * mat32.Exp(-dt/sp.TauLTP)
		if dt <= sp.Gamma {
			return sp.Omega + sp.Kappa*ex
		}
		return -ex
	case AntiHebbian:
		return -sp.AlphaLTP * mat32.Exp(-dt/sp.TauLTP)
	default:
		return sp.symmetric(dt)
	}
}

// LTD returns the weight change when a presynaptic spike arrives dt > 0 msec
// after the last postsynaptic spike
func (sp *STDPParams) LTD(dt float32) float32 {
	switch sp.Curve {
	case Hebbian, HalfHebbian:
		return -sp.AlphaLTD * mat32.Exp(-dt/sp.TauLTD)
	case AntiHebbian:
		return sp.AlphaLTD * mat32.Exp(-dt/sp.TauLTD)
	default:
		return sp.symmetric(dt)
	}
}

// Window returns the maximum timing difference, in msec, beyond which the
// curve is effectively zero -- used to skip computation of far-apart spikes
func (sp *STDPParams) Window() float32 {
	switch sp.Curve {
	case ConstantSymmetric, LinearSymmetric:
		return sp.Delta
	}
	return 25 * mat32.Max(sp.TauLTP, sp.TauLTD)
}
