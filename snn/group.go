// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"strconv"

	"github.com/emer/spiking/izhi"
	"github.com/emer/spiking/learn"
	"github.com/emer/spiking/topo"
)

// ReleaseParams make each spike of a group release a neuromodulator into every
// group it projects to
type ReleaseParams struct {
	On     bool            `desc:"spikes of this group release neuromodulator Mod"`
	Mod    learn.Neuromods `desc:"neuromodulator released"`
	Amount float32         `def:"0.04" desc:"concentration added per spike"`
}

// Defaults sets dopamine release of 0.04 per spike, off
func (rp *ReleaseParams) Defaults() {
	rp.Mod = learn.DA
	rp.Amount = 0.04
}

// Group is a population of neurons sharing one parameter set
type Group struct {
	ID       int                  `desc:"index in the network, assigned at creation"`
	Name     string               `desc:"name, need not be unique"`
	Kind     GroupKinds           `desc:"integrating neurons or spike generators"`
	Pol      Polarity             `desc:"polarity of the synapses sent by this group"`
	Grid     topo.Grid            `desc:"3D placement of the neurons"`
	Izhi     izhi.Params          `desc:"neuron parameters (regular groups)"`
	ESTDP    learn.STDPParams     `desc:"STDP of excitatory inputs into this group"`
	ISTDP    learn.STDPParams     `desc:"STDP of inhibitory inputs into this group"`
	STP      learn.STPParams      `desc:"short-term plasticity of synapses sent by this group"`
	Homeo    learn.HomeoParams    `desc:"homeostatic scaling of inputs into this group"`
	Neuromod learn.NeuromodParams `desc:"neuromodulator baselines and decay"`
	Release  ReleaseParams        `desc:"neuromodulator release by spikes of this group"`
	Rate     *PoissonRate         `desc:"Poisson firing rates (spike generator groups)"`
	St       int                  `inactive:"+" desc:"first neuron index, set at build"`
	Ed       int                  `inactive:"+" desc:"one past the last neuron index, set at build"`

	SpikeGen SpikeGenerator `json:"-" view:"-" desc:"custom spike generator, called once per step per neuron"`
}

// N returns the number of neurons
func (gp *Group) N() int {
	return gp.Grid.Len()
}

// IsGen returns true for spike generator groups
func (gp *Group) IsGen() bool {
	return gp.Kind == SpikeGenGroup
}

// Label is used in messages
func (gp *Group) Label() string {
	return gp.Name + "[" + strconv.Itoa(gp.ID) + "]"
}

// Validate checks the group configuration
func (gp *Group) Validate() error {
	if err := gp.Grid.Validate(); err != nil {
		return err
	}
	if gp.Pol < 0 || gp.Pol >= PolarityN {
		return fmt.Errorf("invalid polarity: %v", gp.Pol)
	}
	if gp.IsGen() {
		if gp.Rate != nil {
			if err := gp.Rate.Validate(gp.N()); err != nil {
				return err
			}
		}
	} else if err := gp.Izhi.Validate(); err != nil {
		return err
	}
	for _, vl := range []interface{ Validate() error }{&gp.ESTDP, &gp.ISTDP, &gp.STP, &gp.Homeo, &gp.Neuromod} {
		if err := vl.Validate(); err != nil {
			return err
		}
	}
	if gp.Release.On {
		if gp.Release.Mod < 0 || gp.Release.Mod >= learn.NeuromodsN {
			return fmt.Errorf("invalid released neuromodulator: %v", gp.Release.Mod)
		}
		if gp.Release.Amount < 0 {
			return fmt.Errorf("neuromodulator release must be >= 0: %g", gp.Release.Amount)
		}
	}
	return nil
}

// newGroup returns a group with the network default parameters
func (nt *Network) newGroup(name string, gr topo.Grid, pol Polarity, kind GroupKinds) *Group {
	gp := &Group{ID: len(nt.Groups), Name: name, Kind: kind, Pol: pol, Grid: gr}
	gp.Izhi.Defaults()
	gp.ESTDP = nt.Defs.ESTDP
	gp.ESTDP.On = false
	gp.ISTDP = nt.Defs.ISTDP
	gp.ISTDP.On = false
	if pol == Inhibitory {
		gp.STP = nt.Defs.ISTP
	} else {
		gp.STP = nt.Defs.ESTP
	}
	gp.STP.On = false
	gp.Homeo = nt.Defs.Homeo
	gp.Homeo.On = false
	gp.Neuromod = nt.Defs.Neuromod
	gp.Release.Defaults()
	return gp
}

// addGroup validates and registers a new group
func (nt *Network) addGroup(op, name string, gr topo.Grid, pol Polarity, kind GroupKinds) (int, error) {
	if err := nt.checkState(op, ConfigState); err != nil {
		return -1, err
	}
	if err := gr.Validate(); err != nil {
		return -1, nt.configErr(op, "group: %s: %v", name, err)
	}
	if pol < 0 || pol >= PolarityN {
		return -1, nt.configErr(op, "group: %s: invalid polarity: %v", name, pol)
	}
	gp := nt.newGroup(name, gr, pol, kind)
	nt.Groups = append(nt.Groups, gp)
	return gp.ID, nil
}

// AddGroup adds a group of n Izhikevich neurons, returning its ID
func (nt *Network) AddGroup(name string, n int, pol Polarity) (int, error) {
	return nt.addGroup("AddGroup", name, topo.Line(n), pol, RegularGroup)
}

// AddGroupGrid adds a group of Izhikevich neurons placed on a 3D grid
func (nt *Network) AddGroupGrid(name string, gr topo.Grid, pol Polarity) (int, error) {
	return nt.addGroup("AddGroupGrid", name, gr, pol, RegularGroup)
}

// AddSpikeGenGroup adds a group of n spike generator neurons
func (nt *Network) AddSpikeGenGroup(name string, n int, pol Polarity) (int, error) {
	return nt.addGroup("AddSpikeGenGroup", name, topo.Line(n), pol, SpikeGenGroup)
}

// AddSpikeGenGroupGrid adds a group of spike generator neurons placed on a 3D grid
func (nt *Network) AddSpikeGenGroupGrid(name string, gr topo.Grid, pol Polarity) (int, error) {
	return nt.addGroup("AddSpikeGenGroupGrid", name, gr, pol, SpikeGenGroup)
}

// Group returns the group with given ID
func (nt *Network) Group(id int) (*Group, error) {
	if id < 0 || id >= len(nt.Groups) {
		return nil, nt.notFound("Group", "group", strconv.Itoa(id))
	}
	return nt.Groups[id], nil
}

// GroupByName returns the first group with given name
func (nt *Network) GroupByName(name string) (*Group, error) {
	for _, gp := range nt.Groups {
		if gp.Name == name {
			return gp, nil
		}
	}
	return nil, nt.notFound("GroupByName", "group", name)
}

// configGroup returns the group for a CONFIG-only parameter setter
func (nt *Network) configGroup(op string, id int) (*Group, error) {
	if err := nt.checkState(op, ConfigState); err != nil {
		return nil, err
	}
	if id < 0 || id >= len(nt.Groups) {
		return nil, nt.notFound(op, "group", strconv.Itoa(id))
	}
	return nt.Groups[id], nil
}

// SetNeuronParams sets the Izhikevich parameters of a regular group
func (nt *Network) SetNeuronParams(grp int, pr izhi.Params) error {
	gp, err := nt.configGroup("SetNeuronParams", grp)
	if err != nil {
		return err
	}
	if gp.IsGen() {
		return nt.configErr("SetNeuronParams", "group %s is a spike generator group", gp.Label())
	}
	pr.Update()
	if err := pr.Validate(); err != nil {
		return nt.configErr("SetNeuronParams", "group %s: %v", gp.Label(), err)
	}
	gp.Izhi = pr
	return nil
}

// SetESTDP sets the STDP of excitatory inputs into a group
func (nt *Network) SetESTDP(grp int, sp learn.STDPParams) error {
	gp, err := nt.configGroup("SetESTDP", grp)
	if err != nil {
		return err
	}
	sp.Update()
	if err := sp.Validate(); err != nil {
		return nt.configErr("SetESTDP", "group %s: %v", gp.Label(), err)
	}
	gp.ESTDP = sp
	return nil
}

// SetISTDP sets the STDP of inhibitory inputs into a group
func (nt *Network) SetISTDP(grp int, sp learn.STDPParams) error {
	gp, err := nt.configGroup("SetISTDP", grp)
	if err != nil {
		return err
	}
	sp.Update()
	if err := sp.Validate(); err != nil {
		return nt.configErr("SetISTDP", "group %s: %v", gp.Label(), err)
	}
	gp.ISTDP = sp
	return nil
}

// SetSTP sets the short-term plasticity of synapses sent by a group
func (nt *Network) SetSTP(grp int, sp learn.STPParams) error {
	gp, err := nt.configGroup("SetSTP", grp)
	if err != nil {
		return err
	}
	sp.Update()
	if err := sp.Validate(); err != nil {
		return nt.configErr("SetSTP", "group %s: %v", gp.Label(), err)
	}
	gp.STP = sp
	return nil
}

// SetHomeostasis sets the homeostatic scaling of a group
func (nt *Network) SetHomeostasis(grp int, hp learn.HomeoParams) error {
	gp, err := nt.configGroup("SetHomeostasis", grp)
	if err != nil {
		return err
	}
	hp.Update()
	if err := hp.Validate(); err != nil {
		return nt.configErr("SetHomeostasis", "group %s: %v", gp.Label(), err)
	}
	gp.Homeo = hp
	return nil
}

// SetHomeoBaseRate sets the target firing rate (mean and SD, Hz) of a group
func (nt *Network) SetHomeoBaseRate(grp int, rate, sd float32) error {
	gp, err := nt.configGroup("SetHomeoBaseRate", grp)
	if err != nil {
		return err
	}
	if rate <= 0 || sd < 0 {
		return nt.configErr("SetHomeoBaseRate", "group %s: need rate > 0 and sd >= 0: %g %g", gp.Label(), rate, sd)
	}
	gp.Homeo.BaseRate = rate
	gp.Homeo.BaseRateSD = sd
	return nil
}

// SetNeuromod sets the neuromodulator baselines and time constants of a group
func (nt *Network) SetNeuromod(grp int, np learn.NeuromodParams) error {
	gp, err := nt.configGroup("SetNeuromod", grp)
	if err != nil {
		return err
	}
	np.Update()
	if err := np.Validate(); err != nil {
		return nt.configErr("SetNeuromod", "group %s: %v", gp.Label(), err)
	}
	gp.Neuromod = np
	return nil
}

// SetNeuromodRelease makes each spike of a group add amount of neuromodulator
// mod to every group it projects to
func (nt *Network) SetNeuromodRelease(grp int, mod learn.Neuromods, amount float32) error {
	gp, err := nt.configGroup("SetNeuromodRelease", grp)
	if err != nil {
		return err
	}
	rp := ReleaseParams{On: true, Mod: mod, Amount: amount}
	if mod < 0 || mod >= learn.NeuromodsN || amount < 0 {
		return nt.configErr("SetNeuromodRelease", "group %s: invalid release: %v %g", gp.Label(), mod, amount)
	}
	gp.Release = rp
	return nil
}
