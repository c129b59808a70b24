// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/emer/spiking/chans"
	"github.com/emer/spiking/izhi"
	"github.com/emer/spiking/learn"
	"github.com/emer/spiking/snn"
	"github.com/emer/spiking/topo"
)

// Net is a network built from a NetConfig
type Net struct {
	Net      *snn.Network
	Groups   map[string]int `desc:"group IDs by name"`
	Conns    []int          `desc:"connection IDs in config order"`
	Monitors []*snn.Monitor
}

// SimConfig returns the network-level settings
func (nc *NetConfig) SimConfig(log *slog.Logger) *snn.Config {
	cf := snn.NewConfig()
	cf.Seed = nc.Seed
	cf.Backend = backends[strings.ToLower(nc.Backend)]
	cf.NThreads = nc.Threads
	cf.LockThreads = nc.LockThreads
	cf.MaxDelay = nc.MaxDelay
	cf.DeviceID = nc.Device
	cf.Log = log
	return cf
}

// Build creates, configures and builds the network, attaching the configured
// monitors to sink (none if sink is nil).  On return the network is in the
// setup state with currents and rates applied.
func (nc *NetConfig) Build(log *slog.Logger, sink snn.Sink) (*Net, error) {
	return nc.BuildWith(nc.SimConfig(log), sink)
}

// BuildWith is Build with explicit network settings, e.g. a device registry
func (nc *NetConfig) BuildWith(cf *snn.Config, sink snn.Sink) (*Net, error) {
	if err := nc.Validate(); err != nil {
		return nil, err
	}
	nt := snn.NewNetwork(nc.Name, cf)
	net := &Net{Net: nt, Groups: map[string]int{}}
	if err := nc.configure(net); err != nil {
		nt.Close()
		return nil, err
	}
	if sink != nil {
		if err := nc.addMonitors(net, sink); err != nil {
			nt.Close()
			return nil, err
		}
	}
	if err := nt.Build(); err != nil {
		nt.Close()
		return nil, err
	}
	if err := nc.ApplyInputs(net); err != nil {
		nt.Close()
		return nil, err
	}
	return net, nil
}

// configure sets up everything that must be done in the config state
func (nc *NetConfig) configure(net *Net) error {
	nt := net.Net
	if nc.Conductances != nil {
		cc := nc.Conductances
		var cp chans.Params
		cp.Defaults()
		cp.Set(cc.TdAMPA, cc.TrNMDA, cc.TdNMDA, cc.TdGABAa, cc.TrGABAb, cc.TdGABAb)
		if err := nt.SetConductances(true, &cp); err != nil {
			return err
		}
	}
	if nc.WtUpdate != nil {
		if err := nt.SetWtUpdate(nc.WtUpdate.Params()); err != nil {
			return err
		}
	}
	for i := range nc.Groups {
		gc := &nc.Groups[i]
		id, err := nc.addGroup(nt, gc)
		if err != nil {
			return err
		}
		net.Groups[gc.Name] = id
		if err := configGroup(nt, id, gc); err != nil {
			return err
		}
	}
	for i := range nc.Conns {
		cc := &nc.Conns[i]
		id, err := nt.Connect(net.Groups[cc.From], net.Groups[cc.To], cc.Spec())
		if err != nil {
			return fmt.Errorf("connection %d: %w", i, err)
		}
		net.Conns = append(net.Conns, id)
	}
	return nil
}

func (nc *NetConfig) addGroup(nt *snn.Network, gc *GroupConfig) (int, error) {
	pol := polarities[strings.ToLower(gc.Polarity)]
	gr := topo.Line(gc.Size)
	if len(gc.Grid) == 3 {
		gr = topo.NewGrid(gc.Grid[0], gc.Grid[1], gc.Grid[2])
	}
	if gc.Poisson {
		return nt.AddSpikeGenGroupGrid(gc.Name, gr, pol)
	}
	return nt.AddGroupGrid(gc.Name, gr, pol)
}

// configGroup applies the neuron, plasticity and neuromodulator settings
func configGroup(nt *snn.Network, id int, gc *GroupConfig) error {
	if gc.Izhi != nil || gc.Preset != "" {
		var pr izhi.Params
		pr.Defaults()
		if gc.Preset != "" {
			var ps izhi.Presets
			ps.FromString(strings.ToUpper(gc.Preset))
			pr.SetPreset(ps)
		}
		if ic := gc.Izhi; ic != nil {
			pr.SetSD(ic.A, ic.ASD, ic.B, ic.BSD, ic.C, ic.CSD, ic.D, ic.DSD)
		}
		if err := nt.SetNeuronParams(id, pr); err != nil {
			return err
		}
	}
	if gc.ESTDP != nil {
		var sp learn.STDPParams
		sp.Defaults()
		if err := nt.SetESTDP(id, gc.ESTDP.Params(sp)); err != nil {
			return err
		}
	}
	if gc.ISTDP != nil {
		var sp learn.STDPParams
		sp.InhibDefaults()
		if err := nt.SetISTDP(id, gc.ISTDP.Params(sp)); err != nil {
			return err
		}
	}
	if gc.STP != nil {
		var sp learn.STPParams
		sp.Defaults()
		if polarities[strings.ToLower(gc.Polarity)] == snn.Inhibitory {
			sp.InhibDefaults()
		}
		if err := nt.SetSTP(id, gc.STP.Params(sp)); err != nil {
			return err
		}
	}
	if gc.Homeo != nil {
		if err := nt.SetHomeostasis(id, gc.Homeo.Params()); err != nil {
			return err
		}
	}
	if gc.Neuromod != nil {
		var np learn.NeuromodParams
		np.Defaults()
		copy(np.Base[:], gc.Neuromod.Base)
		copy(np.Tau[:], gc.Neuromod.Tau)
		if err := nt.SetNeuromod(id, np); err != nil {
			return err
		}
	}
	if gc.Release != nil {
		mod, _ := parseMod(gc.Release.Mod)
		if err := nt.SetNeuromodRelease(id, mod, gc.Release.Amount); err != nil {
			return err
		}
	}
	return nil
}

func setf(dst *float32, src *float32) {
	if src != nil {
		*dst = *src
	}
}

// Params returns sp with the configured values set, and STDP on
func (sc *STDPConfig) Params(sp learn.STDPParams) learn.STDPParams {
	sp.On = true
	if sc.Curve != "" {
		sp.Curve.FromString(sc.Curve)
	}
	if sc.DAMod {
		sp.Type = learn.DAMod
	}
	setf(&sp.AlphaLTP, sc.AlphaLTP)
	setf(&sp.TauLTP, sc.TauLTP)
	setf(&sp.AlphaLTD, sc.AlphaLTD)
	setf(&sp.TauLTD, sc.TauLTD)
	setf(&sp.Gamma, sc.Gamma)
	setf(&sp.BetaLTP, sc.BetaLTP)
	setf(&sp.BetaLTD, sc.BetaLTD)
	setf(&sp.Lambda, sc.Lambda)
	setf(&sp.Delta, sc.Delta)
	return sp
}

// Params returns sp with the configured values set, and STP on
func (sc *STPConfig) Params(sp learn.STPParams) learn.STPParams {
	sp.On = true
	setf(&sp.U, sc.U)
	setf(&sp.TauU, sc.TauU)
	setf(&sp.TauX, sc.TauX)
	return sp
}

// Params returns the defaults with the configured values set, and homeostasis on
func (hc *HomeoConfig) Params() learn.HomeoParams {
	var hp learn.HomeoParams
	hp.Defaults()
	hp.On = true
	setf(&hp.Scale, hc.Scale)
	setf(&hp.AvgTimeScale, hc.AvgTimeScale)
	setf(&hp.BaseRate, hc.BaseRate)
	setf(&hp.BaseRateSD, hc.BaseRateSD)
	return hp
}

// Spec returns the connection spec
func (cc *ConnConfig) Spec() *snn.ConnSpec {
	wr := snn.WtRange{Min: cc.Weight.Min, Init: cc.Weight.Max, Max: cc.Weight.Max, Random: cc.Weight.Random}
	if cc.Weight.Init != nil {
		wr.Init = *cc.Weight.Init
	}
	dr := snn.Delays(max(cc.Delay.Min, 1), max(cc.Delay.Max, cc.Delay.Min, 1))
	cs := snn.NewConnSpec(topologies[strings.ToLower(cc.Topology)], wr, dr, cc.Plastic)
	if cc.Prob != 0 {
		cs.Prob = cc.Prob
	}
	if cc.Radius != nil {
		cs.RF = topo.Radius{X: cc.Radius.X, Y: cc.Radius.Y, Z: cc.Radius.Z}
	}
	setf(&cs.MulFast, cc.MulFast)
	setf(&cs.MulSlow, cc.MulSlow)
	return cs
}

// addMonitors attaches the configured monitors to sink
func (nc *NetConfig) addMonitors(net *Net, sink snn.Sink) error {
	nt := net.Net
	for i := range nc.Groups {
		gc := &nc.Groups[i]
		id := net.Groups[gc.Name]
		for _, m := range gc.Monitors {
			var mon *snn.Monitor
			var err error
			if m == "spikes" {
				mon, err = nt.SetSpikeMonitor(id, sink)
			} else {
				mon, err = nt.SetGroupMonitor(id, sink)
			}
			if err != nil {
				return err
			}
			net.Monitors = append(net.Monitors, mon)
		}
	}
	// several connections between one pair share a monitor
	pairs := map[[2]int]bool{}
	for i := range nc.Conns {
		cc := &nc.Conns[i]
		pair := [2]int{net.Groups[cc.From], net.Groups[cc.To]}
		if !cc.Monitor || pairs[pair] {
			continue
		}
		pairs[pair] = true
		mon, err := nt.SetConnMonitor(pair[0], pair[1], sink)
		if err != nil {
			return err
		}
		net.Monitors = append(net.Monitors, mon)
	}
	return nil
}

// ApplyInputs sets the Poisson rates and external currents, which needs a built network
func (nc *NetConfig) ApplyInputs(net *Net) error {
	nt := net.Net
	for i := range nc.Groups {
		gc := &nc.Groups[i]
		id := net.Groups[gc.Name]
		if gc.Poisson {
			pr := snn.NewPoissonRate(gc.N(), gc.Rate)
			if len(gc.Rates) > 0 {
				copy(pr.Rates, gc.Rates)
			}
			setf(&pr.RefPeriod, gc.RefPer)
			if err := nt.SetSpikeRate(id, pr); err != nil {
				return err
			}
			continue
		}
		if gc.Current == 0 && len(gc.Currents) == 0 {
			continue
		}
		cur := make([]float32, gc.N())
		for j := range cur {
			cur[j] = gc.Current
		}
		copy(cur, gc.Currents)
		if err := nt.SetExternalCurrent(id, cur); err != nil {
			return err
		}
	}
	return nil
}

// Attach maps the configured groups onto an existing network by name and
// attaches the configured monitors to sink, e.g. for a network imported
// from a saved state.  Groups and connections are not created, and Conns
// is left empty.
func (nc *NetConfig) Attach(nt *snn.Network, sink snn.Sink) (*Net, error) {
	net := &Net{Net: nt, Groups: map[string]int{}}
	for i := range nc.Groups {
		gp, err := nt.GroupByName(nc.Groups[i].Name)
		if err != nil {
			return nil, err
		}
		net.Groups[gp.Name] = gp.ID
	}
	for i := range nc.Conns {
		cc := &nc.Conns[i]
		cns := nt.ConnsBetween(net.Groups[cc.From], net.Groups[cc.To])
		if len(cns) == 0 {
			return nil, fmt.Errorf("connection %d: no connection %s -> %s in network", i, cc.From, cc.To)
		}
	}
	if sink == nil {
		return net, nil
	}
	if err := nc.addMonitors(net, sink); err != nil {
		return nil, err
	}
	return net, nil
}
