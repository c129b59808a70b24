// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"context"
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/spiking/learn"
)

// runTestNet builds the test network with given config, drives the
// excitatory group with an external current, and runs it for msec
func runTestNet(t *testing.T, cf *Config, coba bool, msec int) (*Network, *spikeLog) {
	t.Helper()
	nt := makeTestNet(t, cf)
	if coba {
		if err := nt.SetConductances(true, nil); err != nil {
			t.Fatal(err)
		}
	}
	sl := &spikeLog{}
	sl.monitor(t, nt)
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	cur := make([]float32, 40)
	for i := range cur {
		cur[i] = 4 + 0.1*float32(i)
	}
	if err := nt.SetExternalCurrent(1, cur); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(context.Background(), 0, msec); err != nil {
		t.Fatal(err)
	}
	nt.FlushMonitors()
	return nt, sl
}

func testDevices() *DeviceRegistry {
	return NewDeviceRegistry(Device{Name: "test", Lanes: 4, MemBytes: 1 << 30, WGSize: 8})
}

func TestDeterminism(t *testing.T) {
	for _, coba := range []bool{false, true} {
		n1, s1 := runTestNet(t, testConfig(7, 1), coba, 2000)
		n1.Close()
		n2, s2 := runTestNet(t, testConfig(7, 4), coba, 2000)
		n2.Close()
		if s1.total() == 0 {
			t.Errorf("coba: %v: no spikes", coba)
		}
		if !s1.equal(t, s2) {
			t.Errorf("coba: %v: 1 and 4 threads differ", coba)
		}
	}
}

func TestLockThreads(t *testing.T) {
	n1, s1 := runTestNet(t, testConfig(8, 3), false, 1000)
	n1.Close()
	cf := testConfig(8, 3)
	cf.LockThreads = true
	n2, s2 := runTestNet(t, cf, false, 1000)
	if he, ok := n2.Exec.(*HostExec); !ok || !he.LockThreads || he.NThreads != 3 {
		t.Errorf("host executor not locked: %+v", n2.Exec)
	}
	n2.Close()
	if !s1.equal(t, s2) {
		t.Errorf("locked and unlocked threads differ")
	}
}

func TestHostAccelParity(t *testing.T) {
	for _, coba := range []bool{false, true} {
		hn, hs := runTestNet(t, testConfig(11, 3), coba, 2000)
		cf := testConfig(11, 0)
		cf.Backend = AccelBackend
		cf.Devices = testDevices()
		an, as := runTestNet(t, cf, coba, 2000)
		if !hs.equal(t, as) {
			t.Errorf("coba: %v: host and accelerator spikes differ", coba)
		}
		hw, _ := hn.Weights(0)
		aw, _ := an.Weights(0)
		for i := range hw.Values {
			hv, av := hw.Values[i], aw.Values[i]
			if hv != av && !(hv != hv && av != av) {
				t.Errorf("coba: %v: weight %d: host %v accel %v", coba, i, hv, av)
				break
			}
		}
		hn.Close()
		an.Close()
	}
}

func TestDeviceConflict(t *testing.T) {
	reg := NewDeviceRegistry(Device{Name: "only", Lanes: 2, MemBytes: 1 << 30})
	cf := testConfig(1, 0)
	cf.Backend = AccelBackend
	cf.Devices = reg
	n1 := makeTestNet(t, cf)
	if err := n1.Build(); err != nil {
		t.Fatal(err)
	}
	n2 := makeTestNet(t, cf)
	err := n2.Build()
	var be *BackendError
	if !errors.As(err, &be) || !errors.Is(err, ErrBackend) {
		t.Errorf("second network on a held device: %v", err)
	}
	if n2.State != ConfigState {
		t.Errorf("failed Build state: %v", n2.State)
	}
	if dis := reg.Devices(); !dis[0].InUse || dis[0].Owner != "TestNet" {
		t.Errorf("device status: %v", dis[0])
	}
	n1.Close()
	if err := n2.Build(); err != nil {
		t.Errorf("Build after release: %v", err)
	}
	n2.Close()

	small := NewDeviceRegistry(Device{Name: "small", Lanes: 1, MemBytes: 1024})
	cf.Devices = small
	n3 := makeTestNet(t, cf)
	if err := n3.Build(); !errors.Is(err, ErrBackend) {
		t.Errorf("network larger than device memory: %v", err)
	}
	if small.Devices()[0].InUse {
		t.Errorf("device held after failed Build")
	}
	cf.Devices = NewDeviceRegistry()
	n4 := makeTestNet(t, cf)
	if err := n4.Build(); !errors.Is(err, ErrBackend) {
		t.Errorf("no devices: %v", err)
	}
}

func TestRunCancel(t *testing.T) {
	nt := makeTestNet(t, testConfig(1, 2))
	defer nt.Close()
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := nt.Run(ctx, 1, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Run: %v", err)
	}
	if nt.Time != 0 {
		t.Errorf("cancelled Run advanced time: %d", nt.Time)
	}
	if err := nt.Run(context.Background(), 0, 5); err != nil || nt.Time != 5 {
		t.Errorf("Run after cancel: %v time: %d", err, nt.Time)
	}
	if err := nt.Run(context.Background(), -1, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("negative Run: %v", err)
	}
}

func TestSpikeCounter(t *testing.T) {
	nt := makeTestNet(t, testConfig(2, 1))
	defer nt.Close()
	if err := nt.SetSpikeCounter(1); err != nil {
		t.Fatal(err)
	}
	var snaps []*SpikeSnap
	nt.SetSpikeMonitor(1, SinkFunc(func(snap Snapshot) {
		snaps = append(snaps, snap.(*SpikeSnap))
	}))
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	cur := make([]float32, 40)
	for i := range cur {
		cur[i] = 10
	}
	nt.SetExternalCurrent(1, cur)
	if err := nt.Run(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	nt.FlushMonitors()
	ctr, err := nt.SpikeCounter(1)
	if err != nil {
		t.Fatal(err)
	}
	cnts := snaps[0].Counts()
	tot := 0
	for i, c := range ctr {
		tot += int(c)
		if int(c) != cnts[i] {
			t.Errorf("neuron %d: counter %d, monitor %d", i, c, cnts[i])
		}
	}
	if tot == 0 {
		t.Errorf("no spikes counted with I = 10")
	}
	if err := nt.ResetSpikeCounter(1); err != nil {
		t.Fatal(err)
	}
	ctr, _ = nt.SpikeCounter(1)
	for i, c := range ctr {
		if c != 0 {
			t.Errorf("neuron %d: %d after reset", i, c)
		}
	}
	if _, err := nt.SpikeCounter(2); !errors.Is(err, ErrNotFound) {
		t.Errorf("SpikeCounter without counter: %v", err)
	}
}

func TestPoissonRate(t *testing.T) {
	nt := NewNetwork("Poisson", testConfig(3, 2))
	defer nt.Close()
	g, _ := nt.AddSpikeGenGroup("Gen", 200, Excitatory)
	mon, _ := nt.SetSpikeMonitor(g, nil)
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	if err := nt.SetSpikeRate(g, NewPoissonRate(100, 50)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("rate table of wrong size: %v", err)
	}
	if err := nt.SetSpikeRate(g, NewPoissonRate(200, 50)); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	ss := mon.Last().(*SpikeSnap)
	// 50 Hz with a 1 msec refractory period: ~48 Hz
	if r := ss.MeanRate(); r < 40 || r > 56 {
		t.Errorf("Poisson 50 Hz: mean rate %v", r)
	}
	rs := ss.RateStats()
	if rs.Max < rs.Avg || rs.Avg != ss.MeanRate() {
		t.Errorf("RateStats: %v", rs)
	}
	for i := 1; i < len(ss.Spikes); i++ {
		p, s := ss.Spikes[i-1], ss.Spikes[i]
		if p.Ms > s.Ms || (p.Ms == s.Ms && p.Idx >= s.Idx) {
			t.Fatalf("spikes not in time then neuron order at %d", i)
		}
	}
}

func TestHomeostasis(t *testing.T) {
	nt := NewNetwork("Homeo", testConfig(4, 1))
	defer nt.Close()
	in, _ := nt.AddSpikeGenGroup("In", 10, Excitatory)
	exc, _ := nt.AddGroup("Exc", 10, Excitatory)
	nt.SetSpikeGen(in, everyTen)
	pl, _ := nt.Connect(in, exc, NewConnSpec(Full, RangeWt(0, 1, 2), Delays(1, 1), true))
	fx, _ := nt.Connect(in, exc, NewConnSpec(Full, RangeWt(0, 1, 2), Delays(2, 2), false))
	if err := nt.EnableHomeostasis(exc, true); err != nil {
		t.Fatal(err)
	}
	if err := nt.SetHomeoBaseRate(exc, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	cur := make([]float32, 10)
	for i := range cur {
		cur[i] = 10
	}
	nt.SetExternalCurrent(exc, cur)
	if err := nt.Run(context.Background(), 0, 999); err != nil {
		t.Fatal(err)
	}
	w, _ := nt.Weights(pl)
	if w.Values[0] != 1 {
		t.Errorf("plastic weight scaled before the second boundary: %v", w.Values[0])
	}
	nt.Run(context.Background(), 0, 1)
	w, _ = nt.Weights(pl)
	for i, v := range w.Values {
		if v >= 1 {
			t.Errorf("plastic weight %d of a group firing above its target not scaled down: %v", i, v)
		}
	}
	w, _ = nt.Weights(fx)
	for i, v := range w.Values {
		if v != 1 {
			t.Errorf("non-plastic weight %d changed: %v", i, v)
		}
	}
}

// TestHomeostasisConverges drives a group with Poisson input through plastic
// synapses that start too weak, and checks that scaling brings the measured
// firing rate to the target
func TestHomeostasisConverges(t *testing.T) {
	const target = 10
	nt := NewNetwork("HomeoConv", testConfig(12, 2))
	defer nt.Close()
	in, _ := nt.AddSpikeGenGroup("In", 20, Excitatory)
	exc, _ := nt.AddGroup("Exc", 10, Excitatory)
	if _, err := nt.Connect(in, exc, NewConnSpec(Full, RangeWt(0, 2, 50), Delays(1, 4), true)); err != nil {
		t.Fatal(err)
	}
	var hp learn.HomeoParams
	hp.Defaults()
	hp.On = true
	hp.AvgTimeScale = 1
	hp.BaseRate = target
	if err := nt.SetHomeostasis(exc, hp); err != nil {
		t.Fatal(err)
	}
	var snaps []*SpikeSnap
	if _, err := nt.SetSpikeMonitor(exc, SinkFunc(func(snap Snapshot) {
		snaps = append(snaps, snap.(*SpikeSnap))
	})); err != nil {
		t.Fatal(err)
	}
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	if err := nt.SetSpikeRate(in, NewPoissonRate(20, 20)); err != nil {
		t.Fatal(err)
	}
	cur := make([]float32, 10)
	for i := range cur {
		cur[i] = 2
	}
	if err := nt.SetExternalCurrent(exc, cur); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(context.Background(), 60, 0); err != nil {
		t.Fatal(err)
	}
	nt.FlushMonitors()
	if len(snaps) != 60 {
		t.Fatalf("%d snapshots, not 60", len(snaps))
	}
	if r := snaps[0].MeanRate(); r >= target/2 {
		t.Errorf("initial rate: %g is not well below the target", r)
	}
	var sum float32
	for _, ss := range snaps[40:] {
		sum += ss.MeanRate()
	}
	avg := sum / 20
	if math32.Abs(avg-target) > 0.25*target {
		t.Errorf("rate over the last 20 s: %g Hz, target %d Hz", avg, target)
	}
}

func TestSTDPConsolidation(t *testing.T) {
	nt := makeTestNet(t, testConfig(9, 2))
	defer nt.Close()
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	cur := make([]float32, 40)
	for i := range cur {
		cur[i] = 8
	}
	nt.SetExternalCurrent(1, cur)
	before, _ := nt.Weights(0)
	if err := nt.Run(context.Background(), 0, 99); err != nil {
		t.Fatal(err)
	}
	mid, _ := nt.Weights(0)
	for i := range before.Values {
		b, m := before.Values[i], mid.Values[i]
		if b == b && b != m {
			t.Fatalf("weight %d changed before the first update interval", i)
		}
	}
	chg := false
	for i := range nt.Buf.Syns {
		if nt.Buf.Syns[i].WtChg != 0 {
			chg = true
		}
	}
	if !chg {
		t.Errorf("no pending STDP change after 99 msec")
	}
	nt.Run(context.Background(), 0, 1)
	after, _ := nt.Weights(0)
	nchg := 0
	for i := range before.Values {
		b, a := before.Values[i], after.Values[i]
		if b == b && b != a {
			nchg++
		}
		if a == a && (a < 0 || a > 6) {
			t.Errorf("weight %d out of [0, max]: %v", i, a)
		}
	}
	if nchg == 0 {
		t.Errorf("no weight changed at the update interval")
	}
}

func TestNeuromodRelease(t *testing.T) {
	nt := NewNetwork("Release", testConfig(5, 1))
	defer nt.Close()
	dop, _ := nt.AddSpikeGenGroup("DA", 5, Excitatory)
	tgt, _ := nt.AddGroup("Target", 5, Excitatory)
	oth, _ := nt.AddGroup("Other", 5, Excitatory)
	nt.SetSpikeGen(dop, everyTen)
	nt.Connect(dop, tgt, NewConnSpec(Full, FixedWt(0.1), Delays(1, 1), false))
	nt.Connect(tgt, oth, NewConnSpec(Full, FixedWt(0.1), Delays(1, 1), false))
	if err := nt.SetNeuromodRelease(dop, learn.DA, 0.04); err != nil {
		t.Fatal(err)
	}
	gm, _ := nt.SetGroupMonitor(tgt, nil)
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	c, _ := nt.Concentration(tgt, learn.DA)
	if c <= 1 {
		t.Errorf("released dopamine in target: %v", c)
	}
	if c, _ := nt.Concentration(oth, learn.DA); c != 1 {
		t.Errorf("dopamine in group not receiving from the releaser: %v", c)
	}
	if c, _ := nt.Concentration(tgt, learn.NE); c != 1 {
		t.Errorf("NE in target: %v", c)
	}
	gs := gm.Last().(*GroupSnap)
	if gs.Neuromod[learn.DA] != c || gs.Second != 0 {
		t.Errorf("group snapshot: %+v", gs)
	}
}
