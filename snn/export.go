// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emer/spiking/chans"
	"github.com/emer/spiking/learn"
	"github.com/goki/gosl/slrand"
)

// State is the complete state of a built network: its description, the
// compiled neurons and synapses, the spikes still in flight, and the random
// stream.  A network imported from a State continues exactly where the
// exported one was.  Custom connection generators are not needed after
// build; custom spike generators are not part of the State and are given
// again to Import.
type State struct {
	Name     string               `desc:"network name"`
	Time     int64                `desc:"number of steps executed"`
	Seed     uint32               `desc:"random key"`
	Counter  slrand.Uint2         `desc:"random stream position"`
	CfgDelay int                  `desc:"configured maximum delay"`
	Chans    chans.Params         `desc:"synaptic channels"`
	WtUpdate learn.WtUpdateParams `desc:"weight update schedule"`
	Defs     Defaults             `desc:"default parameters"`
	Groups   []*Group             `desc:"groups"`
	Conns    []*Conn              `desc:"connections"`
	MaxDelay int                  `desc:"longest synapse delay"`
	Neurons  []Neuron             `desc:"neuron state"`
	Syns     []Synapse            `desc:"synapse state"`
	NMod     []float32            `desc:"neuromodulator concentrations, by group"`
	Spikes   []SpikeEvent         `desc:"spikes in flight, by step then neuron"`
	Counters map[int][]int32      `desc:"spike counters"`
}

// ImportOpts are the parts of a network that are not saved in a State
type ImportOpts struct {
	SpikeGens map[int]SpikeGenerator `desc:"custom spike generators, by group ID"`
}

// Export returns a copy of the complete state of the network
func (nt *Network) Export() (*State, error) {
	if err := nt.checkState("Export", SetupState, ExecState); err != nil {
		return nil, err
	}
	nt.syncHost()
	bf := nt.Buf
	st := &State{Name: nt.Nm, Time: nt.Time, Seed: nt.Rand.Seed, CfgDelay: nt.Cfg.MaxDelay,
		Chans: nt.Chans, WtUpdate: nt.WtUpdate, Defs: nt.Defs, MaxDelay: bf.MaxDelay}
	nt.Rand.Lock()
	st.Counter = nt.Rand.Counter
	nt.Rand.Unlock()
	st.Groups = make([]*Group, len(nt.Groups))
	for i, gp := range nt.Groups {
		cp := *gp
		if gp.Rate != nil {
			cp.Rate = &PoissonRate{Rates: append([]float32(nil), gp.Rate.Rates...), RefPeriod: gp.Rate.RefPeriod}
		}
		cp.SpikeGen = nil
		st.Groups[i] = &cp
	}
	st.Conns = make([]*Conn, len(nt.Conns))
	for i, cn := range nt.Conns {
		cp := *cn
		cp.Gen = nil
		st.Conns[i] = &cp
	}
	st.Neurons = append([]Neuron(nil), bf.Neurons...)
	st.Syns = append([]Synapse(nil), bf.Syns...)
	st.NMod = append([]float32(nil), bf.NMod...)
	st.Spikes = bf.Ring.InFlight(nt.Time)
	st.Counters = make(map[int][]int32, len(nt.Counters))
	for gi, ctr := range nt.Counters {
		st.Counters[gi] = append([]int32(nil), ctr...)
	}
	nt.Log.Info("exported", "network", nt.Nm, "time", nt.Time, "inFlight", len(st.Spikes))
	return st, nil
}

// Validate checks the consistency of the state
func (st *State) Validate() error {
	nn := 0
	for i, gp := range st.Groups {
		if gp == nil || gp.ID != i {
			return fmt.Errorf("group %d: missing or wrong ID", i)
		}
		if err := gp.Validate(); err != nil {
			return fmt.Errorf("group %s: %w", gp.Label(), err)
		}
		if gp.St != nn || gp.Ed != nn+gp.N() {
			return fmt.Errorf("group %s: neuron range [%d, %d) does not follow %d", gp.Label(), gp.St, gp.Ed, nn)
		}
		nn = gp.Ed
	}
	if nn != len(st.Neurons) {
		return fmt.Errorf("%d neurons for groups of %d neurons", len(st.Neurons), nn)
	}
	ng := len(st.Groups)
	for i, cn := range st.Conns {
		if cn == nil || cn.ID != i {
			return fmt.Errorf("connection %d: missing or wrong ID", i)
		}
		if cn.Pre < 0 || cn.Pre >= ng || cn.Post < 0 || cn.Post >= ng {
			return fmt.Errorf("connection %d: unknown group", i)
		}
	}
	if st.MaxDelay < 1 || st.MaxDelay > st.CfgDelay {
		return fmt.Errorf("max delay: %d not in [1, %d]", st.MaxDelay, st.CfgDelay)
	}
	for i := range st.Neurons {
		if g := st.Neurons[i].Group; g < 0 || int(g) >= ng {
			return fmt.Errorf("neuron %d: unknown group %d", i, g)
		}
	}
	nc := len(st.Conns)
	for i := range st.Syns {
		sy := &st.Syns[i]
		if sy.Pre < 0 || int(sy.Pre) >= nn || sy.Post < 0 || int(sy.Post) >= nn || sy.Conn < 0 || int(sy.Conn) >= nc {
			return fmt.Errorf("synapse %d: neuron or connection out of range", i)
		}
		cn := st.Conns[sy.Conn]
		pg, qg := st.Groups[cn.Pre], st.Groups[cn.Post]
		if int(sy.Pre) < pg.St || int(sy.Pre) >= pg.Ed || int(sy.Post) < qg.St || int(sy.Post) >= qg.Ed {
			return fmt.Errorf("synapse %d: %d -> %d is not from group %s to group %s of connection %d", i, sy.Pre, sy.Post, pg.Label(), qg.Label(), cn.ID)
		}
		if sy.Delay < 1 || int(sy.Delay) > st.MaxDelay {
			return fmt.Errorf("synapse %d: delay: %d not in [1, %d]", i, sy.Delay, st.MaxDelay)
		}
		if i > 0 {
			pv := &st.Syns[i-1]
			if pv.Pre > sy.Pre || (pv.Pre == sy.Pre && (pv.Delay > sy.Delay || (pv.Delay == sy.Delay && pv.Post > sy.Post))) {
				return fmt.Errorf("synapse %d: not in (pre, delay, post) order", i)
			}
		}
	}
	if len(st.NMod) != ng*int(learn.NeuromodsN) {
		return fmt.Errorf("%d neuromodulator values for %d groups", len(st.NMod), ng)
	}
	for i, ev := range st.Spikes {
		if ev.Nrn < 0 || int(ev.Nrn) >= nn || ev.T >= st.Time || ev.T < st.Time-int64(st.MaxDelay) {
			return fmt.Errorf("spike %d: neuron %d at %d is not in flight at %d", i, ev.Nrn, ev.T, st.Time)
		}
		if i > 0 {
			pv := st.Spikes[i-1]
			if pv.T > ev.T || (pv.T == ev.T && pv.Nrn >= ev.Nrn) {
				return fmt.Errorf("spike %d: neuron %d at %d is a duplicate or not in (step, neuron) order", i, ev.Nrn, ev.T)
			}
		}
	}
	for gi, ctr := range st.Counters {
		if gi < 0 || gi >= ng || len(ctr) != st.Groups[gi].N() {
			return fmt.Errorf("spike counter of group %d: wrong group or size", gi)
		}
	}
	return nil
}

// Import returns a network in SETUP with the state st, to be run with the
// settings of cfg (nil for NewConfig()): backend, threads and devices.  The
// seed and maximum delay are those of the state.  The State is copied.
func Import(st *State, cfg *Config, opts *ImportOpts) (*Network, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	icfg := *cfg
	icfg.Seed = st.Seed
	icfg.MaxDelay = st.CfgDelay
	nt := NewNetwork(st.Name, &icfg)
	if err := st.Validate(); err != nil {
		return nil, nt.logErr(&ConfigurationError{Op: "Import", Msg: err.Error()})
	}
	nt.Rand.Counter = st.Counter
	nt.Chans = st.Chans
	nt.Chans.Update()
	nt.WtUpdate = st.WtUpdate
	nt.Defs = st.Defs
	nt.Groups = make([]*Group, len(st.Groups))
	for i, gp := range st.Groups {
		cp := *gp
		if gp.Rate != nil {
			cp.Rate = &PoissonRate{Rates: append([]float32(nil), gp.Rate.Rates...), RefPeriod: gp.Rate.RefPeriod}
		}
		nt.Groups[i] = &cp
	}
	nt.Conns = make([]*Conn, len(st.Conns))
	for i, cn := range st.Conns {
		cp := *cn
		nt.Conns[i] = &cp
	}
	if opts != nil {
		for gi, gen := range opts.SpikeGens {
			if gi < 0 || gi >= len(nt.Groups) || !nt.Groups[gi].IsGen() {
				return nil, nt.configErr("Import", "spike generator for group %d, which is not a spike generator group", gi)
			}
			nt.Groups[gi].SpikeGen = gen
		}
	}
	for _, gp := range nt.Groups {
		if gp.IsGen() && gp.Rate == nil && gp.SpikeGen == nil {
			nt.Log.Warn("spike generator group has no generator", "network", nt.Nm, "group", gp.Label())
		}
	}
	for gi, ctr := range st.Counters {
		nt.Counters[gi] = append([]int32(nil), ctr...)
	}

	bf := &Buffers{MaxDelay: st.MaxDelay}
	bf.Neurons = append([]Neuron(nil), st.Neurons...)
	bf.Syns = append([]Synapse(nil), st.Syns...)
	connSyns := bf.BuildIndexes(len(nt.Conns))
	for ci, cn := range nt.Conns {
		cn.NSyn = len(connSyns[ci])
	}
	nt.setGroupVals(bf)
	nt.setConnVals(bf)
	copy(bf.NMod, st.NMod)
	bf.Ring.Init(bf.MaxDelay, len(bf.Neurons))
	bf.Ring.Restore(st.Spikes)
	nt.Time = st.Time
	if err := nt.start(bf, connSyns); err != nil {
		return nil, err
	}
	nt.Log.Info("imported", "network", nt.Nm, "time", nt.Time, "inFlight", len(st.Spikes))
	return nt, nil
}

// SaveState exports the network to a JSON file.
// If filename has .gz extension, then file is gzip compressed.
func (nt *Network) SaveState(filename string) error {
	st, err := nt.Export()
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return nt.logErr(err)
	}
	defer fp.Close()
	if filepath.Ext(filename) == ".gz" {
		gzr := gzip.NewWriter(fp)
		err = st.WriteJSON(gzr)
		gzr.Close()
	} else {
		bw := bufio.NewWriter(fp)
		err = st.WriteJSON(bw)
		bw.Flush()
	}
	if err != nil {
		return nt.logErr(err)
	}
	return nil
}

// OpenState imports a network from a file saved by SaveState.
// If filename has .gz extension, then file is gzip uncompressed.
func OpenState(filename string, cfg *Config, opts *ImportOpts) (*Network, error) {
	st, err := ReadStateFile(filename)
	if err != nil {
		return nil, err
	}
	return Import(st, cfg, opts)
}

// ReadStateFile reads a State from a file saved by SaveState
func ReadStateFile(filename string) (*State, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	var r io.Reader = bufio.NewReader(fp)
	if filepath.Ext(filename) == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			return nil, err
		}
		defer gzr.Close()
		r = gzr
	}
	return ReadState(r)
}

// WriteJSON writes the state as JSON
func (st *State) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(st)
}

// ReadState reads a State written by WriteJSON
func ReadState(r io.Reader) (*State, error) {
	st := &State{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(st); err != nil {
		return nil, fmt.Errorf("reading network state: %w", err)
	}
	return st, nil
}
