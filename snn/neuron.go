// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"reflect"

	"github.com/emer/spiking/chans"
	"github.com/goki/gosl/slbool"
)

// NoSpike is the LastSpike / LastArr value before any spike
const NoSpike = int64(-1)

// Neuron holds the state of one neuron, in a flat layout shared by all backends.
// The float32 variables listed in NeuronVars come first, in order.
type Neuron struct {
	V        float32 `desc:"membrane potential, mV"`
	U        float32 `desc:"recovery variable"`
	A        float32 `desc:"Izhikevich a, sampled at build"`
	B        float32 `desc:"Izhikevich b, sampled at build"`
	C        float32 `desc:"Izhikevich c, sampled at build"`
	D        float32 `desc:"Izhikevich d, sampled at build"`
	I        float32 `desc:"synaptic current delivered in this step, integrated in the next (current-based mode)"`
	Ext      float32 `desc:"external current, set by the user"`
	Rate     float32 `desc:"Poisson firing rate, Hz (spike generator neurons)"`
	RefPer   float32 `desc:"Poisson refractory period, msec (spike generator neurons)"`
	AvgRate  float32 `desc:"running average firing rate, Hz, for homeostasis"`
	BaseRate float32 `desc:"homeostatic target rate, Hz"`

	G         chans.Conds `desc:"synaptic conductances (conductance-based mode)"`
	Group     int32       `desc:"group index"`
	Gen       slbool.Bool `desc:"spike generator neuron"`
	Spike     slbool.Bool `desc:"spiked on the current step"`
	GenFire   slbool.Bool `desc:"fire on the next step, set by a SpikeGenerator"`
	LastSpike int64       `desc:"step of the last spike, NoSpike if none"`
}

var NeuronVars = []string{"V", "U", "A", "B", "C", "D", "I", "Ext", "Rate", "RefPer", "AvgRate", "BaseRate"}

var NeuronVarsMap map[string]int

func init() {
	NeuronVarsMap = make(map[string]int, len(NeuronVars))
	for i, v := range NeuronVars {
		NeuronVarsMap[v] = i
	}
}

// NeuronVarIdxByName returns the index of the variable in the Neuron, or error
func NeuronVarIdxByName(varNm string) (int, error) {
	i, ok := NeuronVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) VarByIndex(idx int) float32 {
	v := reflect.ValueOf(*nrn)
	return v.Field(idx).Interface().(float32)
}

// VarByName returns variable by name, or error
func (nrn *Neuron) VarByName(varNm string) (float32, error) {
	i, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return 0, err
	}
	return nrn.VarByIndex(i), nil
}

// IsGen returns true for spike generator neurons
func (nrn *Neuron) IsGen() bool {
	return slbool.IsTrue(nrn.Gen)
}

// Spiked returns true if the neuron spiked on the current step
func (nrn *Neuron) Spiked() bool {
	return slbool.IsTrue(nrn.Spike)
}
