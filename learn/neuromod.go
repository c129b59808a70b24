// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package learn

import (
	"fmt"

	"github.com/goki/ki/kit"
)

// Neuromods are the neuromodulators tracked for each group
type Neuromods int32

//go:generate stringer -type=Neuromods

var KiT_Neuromods = kit.Enums.AddEnum(NeuromodsN, kit.NotBitFlag, nil)

func (ev Neuromods) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Neuromods) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// DA is dopamine
	DA Neuromods = iota

	// HT5 is serotonin (5-HT)
	HT5

	// ACh is acetylcholine
	ACh

	// NE is noradrenaline
	NE

	NeuromodsN
)

// NeuromodParams are the baseline concentrations and decay time constants of the
// neuromodulators for a group.  Concentrations relax exponentially to the baseline.
type NeuromodParams struct {
	Base [NeuromodsN]float32 `def:"1" desc:"baseline concentration of DA, 5-HT, ACh, NE"`
	Tau  [NeuromodsN]float32 `def:"100" desc:"decay time constants, msec"`

	Decay [NeuromodsN]float32 `view:"-" desc:"per-msec retention: 1 - 1/Tau"`
}

// Defaults sets baseline 1 and time constant 100 msec for all
func (np *NeuromodParams) Defaults() {
	for i := range np.Base {
		np.Base[i] = 1
		np.Tau[i] = 100
	}
	np.Update()
}

// Update computes derived values
func (np *NeuromodParams) Update() {
	for i, tau := range np.Tau {
		np.Decay[i] = 0
		if tau > 0 {
			np.Decay[i] = 1 - 1/tau
		}
	}
}

// Set sets the baseline and time constant of all four
func (np *NeuromodParams) Set(baseDA, tauDA, base5HT, tau5HT, baseACh, tauACh, baseNE, tauNE float32) {
	np.Base = [NeuromodsN]float32{baseDA, base5HT, baseACh, baseNE}
	np.Tau = [NeuromodsN]float32{tauDA, tau5HT, tauACh, tauNE}
	np.Update()
}

// Validate checks ranges
func (np *NeuromodParams) Validate() error {
	for i := range np.Base {
		if np.Base[i] < 0 || np.Tau[i] <= 0 {
			return fmt.Errorf("learn.NeuromodParams: %v needs base >= 0 and tau > 0: %g %g", Neuromods(i), np.Base[i], np.Tau[i])
		}
	}
	return nil
}

// Relax moves concentration c of neuromodulator nm one msec toward its baseline
func (np *NeuromodParams) Relax(nm Neuromods, c float32) float32 {
	return np.Base[nm] + (c-np.Base[nm])*np.Decay[nm]
}
