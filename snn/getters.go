// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"strconv"

	"github.com/emer/spiking/chans"
	"github.com/emer/spiking/izhi"
	"github.com/emer/spiking/learn"
	"github.com/emer/spiking/topo"
	"github.com/goki/gosl/slbool"
	"github.com/goki/mat32"
)

//////////////////////////////////////////////////////////////////////////////////////
//  Registry info

// NumGroups returns the number of groups
func (nt *Network) NumGroups() int {
	return len(nt.Groups)
}

// NumGroupsOf returns the number of groups of given kind and polarity
func (nt *Network) NumGroupsOf(kind GroupKinds, pol Polarity) int {
	n := 0
	for _, gp := range nt.Groups {
		if gp.Kind == kind && gp.Pol == pol {
			n++
		}
	}
	return n
}

// NumConns returns the number of connections
func (nt *Network) NumConns() int {
	return len(nt.Conns)
}

// NumNeurons returns the total number of neurons
func (nt *Network) NumNeurons() int {
	n := 0
	for _, gp := range nt.Groups {
		n += gp.N()
	}
	return n
}

// NumNeuronsOf returns the number of neurons in groups of given kind and polarity
func (nt *Network) NumNeuronsOf(kind GroupKinds, pol Polarity) int {
	n := 0
	for _, gp := range nt.Groups {
		if gp.Kind == kind && gp.Pol == pol {
			n += gp.N()
		}
	}
	return n
}

// NumSynapses returns the number of synapses, 0 before Build
func (nt *Network) NumSynapses() int {
	if nt.Buf == nil {
		return 0
	}
	return len(nt.Buf.Syns)
}

// MaxDelay returns the longest delay of any synapse, 0 before Build
func (nt *Network) MaxDelay() int {
	if nt.Buf == nil {
		return 0
	}
	return nt.Buf.MaxDelay
}

// GroupStartEnd returns the first and one past the last network-wide neuron
// ID of a group, valid after Build
func (nt *Network) GroupStartEnd(grp int) (st, ed int, err error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return 0, 0, err
	}
	if err := nt.checkState("GroupStartEnd", SetupState, ExecState); err != nil {
		return 0, 0, err
	}
	return gp.St, gp.Ed, nil
}

// Grid returns the 3D grid of a group
func (nt *Network) Grid(grp int) (topo.Grid, error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return topo.Grid{}, err
	}
	return gp.Grid, nil
}

// NeuronLoc returns the location of neuron idx of a group, in grid
// coordinates centered on the grid
func (nt *Network) NeuronLoc(grp, idx int) (mat32.Vec3, error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return mat32.Vec3{}, err
	}
	if idx < 0 || idx >= gp.N() {
		return mat32.Vec3{}, nt.notFound("NeuronLoc", "neuron", strconv.Itoa(idx)+" in group "+gp.Label())
	}
	return gp.Grid.Loc(idx), nil
}

// Conductances returns the synaptic channel parameters
func (nt *Network) Conductances() chans.Params {
	return nt.Chans
}

// NeuronParams returns the Izhikevich parameters of a group
func (nt *Network) NeuronParams(grp int) (izhi.Params, error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return izhi.Params{}, err
	}
	return gp.Izhi, nil
}

// STDPInfo returns the excitatory and inhibitory STDP of a group
func (nt *Network) STDPInfo(grp int) (esp, isp learn.STDPParams, err error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return
	}
	return gp.ESTDP, gp.ISTDP, nil
}

// STPInfo returns the short-term plasticity of a group
func (nt *Network) STPInfo(grp int) (learn.STPParams, error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return learn.STPParams{}, err
	}
	return gp.STP, nil
}

// HomeostasisInfo returns the homeostasis of a group
func (nt *Network) HomeostasisInfo(grp int) (learn.HomeoParams, error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return learn.HomeoParams{}, err
	}
	return gp.Homeo, nil
}

// NeuromodInfo returns the neuromodulator parameters of a group
func (nt *Network) NeuromodInfo(grp int) (learn.NeuromodParams, error) {
	gp, err := nt.Group(grp)
	if err != nil {
		return learn.NeuromodParams{}, err
	}
	return gp.Neuromod, nil
}

// SetNeuronPreset sets the Izhikevich parameters of a regular group to a preset
func (nt *Network) SetNeuronPreset(grp int, ps izhi.Presets) error {
	var pr izhi.Params
	pr.SetPreset(ps)
	return nt.SetNeuronParams(grp, pr)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Runtime inputs

// runGroup returns a group for a runtime setter
func (nt *Network) runGroup(op string, grp int, states ...States) (*Group, error) {
	if err := nt.checkState(op, states...); err != nil {
		return nil, err
	}
	if grp < 0 || grp >= len(nt.Groups) {
		return nil, nt.notFound(op, "group", strconv.Itoa(grp))
	}
	return nt.Groups[grp], nil
}

// SetExternalCurrent sets the external input current of each neuron of a
// regular group, held until set again
func (nt *Network) SetExternalCurrent(grp int, cur []float32) error {
	gp, err := nt.runGroup("SetExternalCurrent", grp, SetupState, ExecState)
	if err != nil {
		return err
	}
	if gp.IsGen() {
		return nt.configErr("SetExternalCurrent", "group %s is a spike generator group", gp.Label())
	}
	if len(cur) != gp.N() {
		return nt.configErr("SetExternalCurrent", "group %s: %d currents for %d neurons", gp.Label(), len(cur), gp.N())
	}
	nt.syncHost()
	for i, c := range cur {
		nt.Buf.Neurons[gp.St+i].Ext = c
	}
	nt.pushHost()
	return nil
}

// SetSpikeRate sets the Poisson rates of a spike generator group, replacing
// any custom spike generator
func (nt *Network) SetSpikeRate(grp int, rate *PoissonRate) error {
	gp, err := nt.runGroup("SetSpikeRate", grp, SetupState, ExecState)
	if err != nil {
		return err
	}
	if !gp.IsGen() {
		return nt.configErr("SetSpikeRate", "group %s is not a spike generator group", gp.Label())
	}
	if rate == nil {
		return nt.configErr("SetSpikeRate", "group %s: nil rate", gp.Label())
	}
	if err := rate.Validate(gp.N()); err != nil {
		return nt.configErr("SetSpikeRate", "group %s: %v", gp.Label(), err)
	}
	rt := &PoissonRate{Rates: append([]float32(nil), rate.Rates...), RefPeriod: rate.RefPeriod}
	gp.Rate = rt
	gp.SpikeGen = nil
	nt.syncHost()
	for i, r := range rt.Rates {
		nrn := &nt.Buf.Neurons[gp.St+i]
		nrn.Rate = r
		nrn.RefPer = rt.RefPeriod
	}
	nt.pushHost()
	return nil
}

// SetSpikeGen sets the custom spike generator of a spike generator group,
// replacing any Poisson rates
func (nt *Network) SetSpikeGen(grp int, gen SpikeGenerator) error {
	gp, err := nt.runGroup("SetSpikeGen", grp, ConfigState, SetupState)
	if err != nil {
		return err
	}
	if !gp.IsGen() {
		return nt.configErr("SetSpikeGen", "group %s is not a spike generator group", gp.Label())
	}
	gp.SpikeGen = gen
	gp.Rate = nil
	if nt.Buf == nil {
		return nil
	}
	nt.syncHost()
	for ni := gp.St; ni < gp.Ed; ni++ {
		nt.Buf.Neurons[ni].Rate = 0
	}
	nt.pushHost()
	return nil
}

// SetConcentration sets the concentration of a neuromodulator in a group,
// which then relaxes toward its baseline
func (nt *Network) SetConcentration(grp int, mod learn.Neuromods, val float32) error {
	gp, err := nt.runGroup("SetConcentration", grp, ExecState)
	if err != nil {
		return err
	}
	if mod < 0 || mod >= learn.NeuromodsN || val < 0 {
		return nt.configErr("SetConcentration", "group %s: invalid concentration: %v %g", gp.Label(), mod, val)
	}
	nt.syncHost()
	nt.Buf.NMod[NModIdx(grp, mod)] = val
	nt.pushHost()
	return nil
}

// Concentration returns the concentration of a neuromodulator in a group
func (nt *Network) Concentration(grp int, mod learn.Neuromods) (float32, error) {
	gp, err := nt.runGroup("Concentration", grp, SetupState, ExecState)
	if err != nil {
		return 0, err
	}
	if mod < 0 || mod >= learn.NeuromodsN {
		return 0, nt.notFound("Concentration", "neuromodulator", mod.String()+" in group "+gp.Label())
	}
	nt.syncHost()
	return nt.Buf.NMod[NModIdx(grp, mod)], nil
}

// NeuronState returns a copy of the state of neuron idx of a group
func (nt *Network) NeuronState(grp, idx int) (Neuron, error) {
	gp, err := nt.runGroup("NeuronState", grp, SetupState, ExecState)
	if err != nil {
		return Neuron{}, err
	}
	if idx < 0 || idx >= gp.N() {
		return Neuron{}, nt.notFound("NeuronState", "neuron", strconv.Itoa(idx)+" in group "+gp.Label())
	}
	nt.syncHost()
	return nt.Buf.Neurons[gp.St+idx], nil
}

// GenNeurons returns the IDs of all spike generator neurons
func (nt *Network) GenNeurons() []int32 {
	if nt.Buf == nil {
		return nil
	}
	var ids []int32
	for i := range nt.Buf.Neurons {
		if slbool.IsTrue(nt.Buf.Neurons[i].Gen) {
			ids = append(ids, int32(i))
		}
	}
	return ids
}
