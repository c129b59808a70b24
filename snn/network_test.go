// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/emer/spiking/learn"
)

// testConfig returns a quiet host config with given seed
func testConfig(seed uint32, nthr int) *Config {
	cf := NewConfig()
	cf.Seed = seed
	cf.NThreads = nthr
	cf.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cf
}

// everyTen fires neuron idx at steps where (t + idx) % 10 == 0
var everyTen = SpikeGenFunc(func(grp, idx int, t int64) bool {
	return (t+int64(idx))%10 == 0
})

// makeTestNet configures an input generator group driving an excitatory
// group with plastic random synapses, which inhibits itself through an
// inhibitory group
func makeTestNet(t *testing.T, cf *Config) *Network {
	t.Helper()
	nt := NewNetwork("TestNet", cf)
	in, err := nt.AddSpikeGenGroup("Input", 20, Excitatory)
	if err != nil {
		t.Fatal(err)
	}
	exc, _ := nt.AddGroup("Exc", 40, Excitatory)
	inh, _ := nt.AddGroup("Inh", 10, Inhibitory)
	if err := nt.SetSpikeGen(in, everyTen); err != nil {
		t.Fatal(err)
	}
	cs := NewConnSpec(Random, RandWt(0.5, 6), Delays(1, 5), true)
	cs.Prob = 0.5
	if _, err := nt.Connect(in, exc, cs); err != nil {
		t.Fatal(err)
	}
	if _, err := nt.Connect(exc, inh, NewConnSpec(Full, FixedWt(2), Delays(1, 3), false)); err != nil {
		t.Fatal(err)
	}
	if _, err := nt.Connect(inh, exc, NewConnSpec(Full, FixedWt(1), Delays(1, 1), false)); err != nil {
		t.Fatal(err)
	}
	if err := nt.EnableESTDP(exc, true); err != nil {
		t.Fatal(err)
	}
	if err := nt.EnableSTP(in, true); err != nil {
		t.Fatal(err)
	}
	if err := nt.SetWtUpdate(learn.WtUpdateParams{Interval: 100, DecayOn: true, Decay: 0.9}); err != nil {
		t.Fatal(err)
	}
	return nt
}

// spikeLog records all spikes of the network through spike monitors
type spikeLog struct {
	snaps [][]*SpikeSnap
}

func (sl *spikeLog) monitor(t *testing.T, nt *Network) {
	t.Helper()
	sl.snaps = make([][]*SpikeSnap, len(nt.Groups))
	for gi := range nt.Groups {
		gi := gi
		if _, err := nt.SetSpikeMonitor(gi, SinkFunc(func(snap Snapshot) {
			sl.snaps[gi] = append(sl.snaps[gi], snap.(*SpikeSnap))
		})); err != nil {
			t.Fatal(err)
		}
	}
}

// equal returns true if both logs have the same spikes, reporting the first difference
func (sl *spikeLog) equal(t *testing.T, o *spikeLog) bool {
	t.Helper()
	for gi := range sl.snaps {
		if len(sl.snaps[gi]) != len(o.snaps[gi]) {
			t.Errorf("group %d: %d snapshots vs. %d", gi, len(sl.snaps[gi]), len(o.snaps[gi]))
			return false
		}
		for si, ss := range sl.snaps[gi] {
			os := o.snaps[gi][si]
			if len(ss.Spikes) != len(os.Spikes) {
				t.Errorf("group %d second %d: %d spikes vs. %d", gi, ss.Second, len(ss.Spikes), len(os.Spikes))
				return false
			}
			for i := range ss.Spikes {
				if ss.Spikes[i] != os.Spikes[i] {
					t.Errorf("group %d second %d spike %d: %v vs. %v", gi, ss.Second, i, ss.Spikes[i], os.Spikes[i])
					return false
				}
			}
		}
	}
	return true
}

func (sl *spikeLog) total() int {
	n := 0
	for _, gs := range sl.snaps {
		for _, ss := range gs {
			n += len(ss.Spikes)
		}
	}
	return n
}

func TestStates(t *testing.T) {
	nt := makeTestNet(t, testConfig(1, 1))
	defer nt.Close()
	if nt.State != ConfigState {
		t.Errorf("new network state: %v", nt.State)
	}
	err := nt.Run(context.Background(), 0, 10)
	var ise *InvalidStateError
	if !errors.As(err, &ise) || ise.Have != ConfigState {
		t.Errorf("Run in CONFIG: %v", err)
	}
	if err := nt.SetExternalCurrent(1, make([]float32, 40)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetExternalCurrent in CONFIG: %v", err)
	}
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	if nt.State != SetupState {
		t.Errorf("built network state: %v", nt.State)
	}
	if _, err := nt.AddGroup("Late", 5, Excitatory); !errors.Is(err, ErrInvalidState) {
		t.Errorf("AddGroup in SETUP: %v", err)
	}
	if err := nt.Build(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Build: %v", err)
	}
	if err := nt.SetSpikeCounter(1); err != nil {
		t.Errorf("SetSpikeCounter in SETUP: %v", err)
	}
	if _, err := nt.SpikeCounter(1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SpikeCounter in SETUP: %v", err)
	}
	if err := nt.SetConcentration(1, learn.DA, 2); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetConcentration in SETUP: %v", err)
	}
	if err := nt.Run(context.Background(), 0, 10); err != nil {
		t.Fatal(err)
	}
	if nt.State != ExecState || nt.Time != 10 {
		t.Errorf("after Run: state: %v time: %v", nt.State, nt.Time)
	}
	if _, err := nt.SetSpikeMonitor(1, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetSpikeMonitor in EXECUTION: %v", err)
	}
	if err := nt.SetSpikeCounter(2); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetSpikeCounter in EXECUTION: %v", err)
	}
	if err := nt.SetConcentration(1, learn.DA, 2); err != nil {
		t.Errorf("SetConcentration in EXECUTION: %v", err)
	}
	if c, _ := nt.Concentration(1, learn.DA); c != 2 {
		t.Errorf("Concentration: %v != 2", c)
	}
	if sec, msec := nt.SimTime(); sec != 0 || msec != 10 {
		t.Errorf("SimTime: %v %v", sec, msec)
	}
}

func TestBuildAllOrNothing(t *testing.T) {
	nt := NewNetwork("Bad", testConfig(1, 1))
	defer nt.Close()
	a, _ := nt.AddGroup("A", 5, Excitatory)
	b, _ := nt.AddGroup("B", 5, Excitatory)
	if _, err := nt.Connect(a, b, nil); err != nil {
		t.Fatal(err)
	}
	// break the group after it was accepted
	nt.Groups[b].Izhi.C.Mean = 40
	err := nt.Build()
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("Build with invalid group: %v", err)
	}
	if nt.State != ConfigState || nt.Buf != nil || nt.Conns[0].NSyn != 0 {
		t.Errorf("failed Build changed the network: state: %v", nt.State)
	}
	nt.Groups[b].Izhi.Defaults()
	if err := nt.Build(); err != nil {
		t.Errorf("Build after fix: %v", err)
	}
	if nt.NumSynapses() != 25 {
		t.Errorf("full 5 x 5: %d synapses", nt.NumSynapses())
	}
}

func TestNotFound(t *testing.T) {
	nt := NewNetwork("NotFound", testConfig(1, 1))
	defer nt.Close()
	nt.AddGroup("A", 5, Excitatory)
	nt.AddGroup("A", 6, Inhibitory)
	gp, err := nt.GroupByName("A")
	if err != nil || gp.ID != 0 {
		t.Errorf("GroupByName first match: %v %v", gp, err)
	}
	_, err = nt.GroupByName("B")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) || nfe.Key != "B" {
		t.Errorf("GroupByName missing: %v", err)
	}
	if _, err := nt.Connect(0, 7, nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Connect to unknown group: %v", err)
	}
	if _, err := nt.Conn(0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Conn 0 of none: %v", err)
	}
}

func TestCounts(t *testing.T) {
	nt := makeTestNet(t, testConfig(1, 1))
	defer nt.Close()
	if nt.NumGroups() != 3 || nt.NumConns() != 3 || nt.NumNeurons() != 70 {
		t.Errorf("counts: %d %d %d", nt.NumGroups(), nt.NumConns(), nt.NumNeurons())
	}
	if n := nt.NumGroupsOf(RegularGroup, Excitatory); n != 1 {
		t.Errorf("regular excitatory groups: %d", n)
	}
	if n := nt.NumNeuronsOf(SpikeGenGroup, Excitatory); n != 20 {
		t.Errorf("generator neurons: %d", n)
	}
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	st, ed, err := nt.GroupStartEnd(2)
	if err != nil || st != 60 || ed != 70 {
		t.Errorf("GroupStartEnd: %d %d %v", st, ed, err)
	}
	if nt.MaxDelay() != 5 {
		t.Errorf("MaxDelay: %d", nt.MaxDelay())
	}
	if len(nt.GenNeurons()) != 20 {
		t.Errorf("GenNeurons: %d", len(nt.GenNeurons()))
	}
	if nt.SizeReport() == "" {
		t.Errorf("empty SizeReport")
	}
}
