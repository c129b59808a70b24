// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"log/slog"

	"github.com/emer/spiking/chans"
	"github.com/emer/spiking/learn"
)

// Defaults are the parameters a group gets when a feature is enabled without
// explicit parameters
type Defaults struct {
	Chans    chans.Params         `desc:"synaptic channels"`
	ESTDP    learn.STDPParams     `desc:"excitatory STDP"`
	ISTDP    learn.STDPParams     `desc:"inhibitory STDP"`
	ESTP     learn.STPParams      `desc:"short-term plasticity of excitatory groups"`
	ISTP     learn.STPParams      `desc:"short-term plasticity of inhibitory groups"`
	Homeo    learn.HomeoParams    `desc:"homeostasis"`
	Neuromod learn.NeuromodParams `desc:"neuromodulators"`
}

// Init sets the standard values
func (df *Defaults) Init() {
	df.Chans.Defaults()
	df.ESTDP.Defaults()
	df.ISTDP.InhibDefaults()
	df.ESTP.Defaults()
	df.ISTP.InhibDefaults()
	df.Homeo.Defaults()
	df.Neuromod.Defaults()
}

// Network is a spiking neural network: the registry of groups and connections,
// the compiled flat state, and the execution backend that advances it.
type Network struct {
	Nm       string               `desc:"name of the network"`
	Cfg      Config               `desc:"network-level settings"`
	State    States               `desc:"lifecycle state"`
	Time     int64                `desc:"simulation time: number of 1 msec steps executed"`
	Rand     Rand                 `view:"-" desc:"random stream"`
	Groups   []*Group             `desc:"neuron groups, by ID"`
	Conns    []*Conn              `desc:"connections, by ID"`
	Chans    chans.Params         `desc:"synaptic channels: On = conductance-based, else current-based"`
	WtUpdate learn.WtUpdateParams `desc:"weight update schedule"`
	Defs     Defaults             `desc:"default parameters of features enabled without parameters"`
	Buf      *Buffers             `view:"-" desc:"compiled state, host copy"`
	ConnSyns [][]int32            `view:"-" desc:"synapse indexes of each connection"`
	Exec     Executor             `view:"-" desc:"execution backend"`
	Monitors []*Monitor           `desc:"all monitors"`
	Counters map[int][]int32      `view:"-" desc:"spike counts of groups with a counter"`
	Timers   Timers               `view:"-" desc:"per-function timers"`
	Log      *slog.Logger         `view:"-" json:"-"`

	hostStale bool
	stepCtx   StepCtx
	genIDs    []int32
	grpSpikes []int
	spikeMons []*Monitor
	grpCtrs   [][]int32
}

// NewNetwork returns a new network in CONFIG state.  A nil cfg uses NewConfig().
func NewNetwork(name string, cfg *Config) *Network {
	nt := &Network{Nm: name}
	if cfg == nil {
		cfg = NewConfig()
	}
	nt.Cfg = *cfg
	nt.Cfg.Update()
	nt.Log = nt.Cfg.Log
	nt.Rand.Init(nt.Cfg.Seed)
	nt.Defs.Init()
	nt.Chans = nt.Defs.Chans
	nt.WtUpdate.Defaults()
	nt.Counters = make(map[int][]int32)
	return nt
}

// Name returns the network name
func (nt *Network) Name() string {
	return nt.Nm
}

// Close stops the backend, releasing any device, and delivers all pending
// monitor snapshots.  The network cannot be run after Close.
func (nt *Network) Close() {
	nt.FlushMonitors()
	for _, mon := range nt.Monitors {
		mon.close()
	}
	if nt.Exec != nil {
		nt.Exec.Release()
		nt.Exec = nil
	}
}

// SetConductances selects conductance-based (on) or current-based synapses,
// with the given channel parameters, or the defaults if pr is nil
func (nt *Network) SetConductances(on bool, pr *chans.Params) error {
	if err := nt.checkState("SetConductances", ConfigState); err != nil {
		return err
	}
	cp := nt.Defs.Chans
	if pr != nil {
		cp = *pr
	}
	cp.On = on
	cp.Update()
	if err := cp.Validate(); err != nil {
		return nt.configErr("SetConductances", "%v", err)
	}
	nt.Chans = cp
	return nil
}

// SetWtUpdate sets the weight update schedule
func (nt *Network) SetWtUpdate(wp learn.WtUpdateParams) error {
	if err := nt.checkState("SetWtUpdate", ConfigState); err != nil {
		return err
	}
	if err := wp.Validate(); err != nil {
		return nt.configErr("SetWtUpdate", "%v", err)
	}
	nt.WtUpdate = wp
	return nil
}

// SetDefaultConductances sets the default channel kinetics used by
// SetConductances(on, nil): decay (td) and rise (tr) times in msec
func (nt *Network) SetDefaultConductances(tdAMPA, trNMDA, tdNMDA, tdGABAa, trGABAb, tdGABAb float32) error {
	if err := nt.checkState("SetDefaultConductances", ConfigState); err != nil {
		return err
	}
	cp := nt.Defs.Chans
	cp.Set(tdAMPA, trNMDA, tdNMDA, tdGABAa, trGABAb, tdGABAb)
	if err := cp.Validate(); err != nil {
		return nt.configErr("SetDefaultConductances", "%v", err)
	}
	nt.Defs.Chans = cp
	return nil
}

// SetDefaultSTDP sets the default excitatory and inhibitory STDP
func (nt *Network) SetDefaultSTDP(esp, isp learn.STDPParams) error {
	if err := nt.checkState("SetDefaultSTDP", ConfigState); err != nil {
		return err
	}
	esp.Update()
	isp.Update()
	for _, sp := range []*learn.STDPParams{&esp, &isp} {
		on := sp.On
		sp.On = true
		err := sp.Validate()
		sp.On = on
		if err != nil {
			return nt.configErr("SetDefaultSTDP", "%v", err)
		}
	}
	nt.Defs.ESTDP, nt.Defs.ISTDP = esp, isp
	return nil
}

// SetDefaultSTP sets the default short-term plasticity of excitatory and inhibitory groups
func (nt *Network) SetDefaultSTP(esp, isp learn.STPParams) error {
	if err := nt.checkState("SetDefaultSTP", ConfigState); err != nil {
		return err
	}
	esp.Update()
	isp.Update()
	for _, sp := range []*learn.STPParams{&esp, &isp} {
		on := sp.On
		sp.On = true
		err := sp.Validate()
		sp.On = on
		if err != nil {
			return nt.configErr("SetDefaultSTP", "%v", err)
		}
	}
	nt.Defs.ESTP, nt.Defs.ISTP = esp, isp
	return nil
}

// SetDefaultHomeostasis sets the default homeostasis
func (nt *Network) SetDefaultHomeostasis(hp learn.HomeoParams) error {
	if err := nt.checkState("SetDefaultHomeostasis", ConfigState); err != nil {
		return err
	}
	hp.Update()
	on := hp.On
	hp.On = true
	err := hp.Validate()
	hp.On = on
	if err != nil {
		return nt.configErr("SetDefaultHomeostasis", "%v", err)
	}
	nt.Defs.Homeo = hp
	return nil
}

// SetDefaultNeuromod sets the default neuromodulator baselines and time constants,
// used by groups created afterwards
func (nt *Network) SetDefaultNeuromod(np learn.NeuromodParams) error {
	if err := nt.checkState("SetDefaultNeuromod", ConfigState); err != nil {
		return err
	}
	np.Update()
	if err := np.Validate(); err != nil {
		return nt.configErr("SetDefaultNeuromod", "%v", err)
	}
	nt.Defs.Neuromod = np
	return nil
}

// EnableESTDP turns excitatory STDP into a group on with the default
// parameters, or off
func (nt *Network) EnableESTDP(grp int, on bool) error {
	sp := nt.Defs.ESTDP
	sp.On = on
	return nt.SetESTDP(grp, sp)
}

// EnableISTDP turns inhibitory STDP into a group on with the default
// parameters, or off
func (nt *Network) EnableISTDP(grp int, on bool) error {
	sp := nt.Defs.ISTDP
	sp.On = on
	return nt.SetISTDP(grp, sp)
}

// EnableSTP turns short-term plasticity of a group on with the default
// parameters for its polarity, or off
func (nt *Network) EnableSTP(grp int, on bool) error {
	gp, err := nt.configGroup("EnableSTP", grp)
	if err != nil {
		return err
	}
	sp := nt.Defs.ESTP
	if gp.Pol == Inhibitory {
		sp = nt.Defs.ISTP
	}
	sp.On = on
	return nt.SetSTP(grp, sp)
}

// EnableHomeostasis turns homeostasis of a group on with the default
// parameters, keeping the group's base rate, or off
func (nt *Network) EnableHomeostasis(grp int, on bool) error {
	gp, err := nt.configGroup("EnableHomeostasis", grp)
	if err != nil {
		return err
	}
	hp := nt.Defs.Homeo
	hp.BaseRate = gp.Homeo.BaseRate
	hp.BaseRateSD = gp.Homeo.BaseRateSD
	hp.On = on
	return nt.SetHomeostasis(grp, hp)
}
