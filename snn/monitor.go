// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"context"
	"strconv"
	"sync"

	"github.com/chewxy/math32"
	"github.com/emer/etable/minmax"
	"github.com/emer/spiking/internal/logging"
	"github.com/emer/spiking/learn"
)

// Snapshot is the per-second record published by a monitor
type Snapshot interface {
	// Kind returns the kind of monitor that produced it
	Kind() MonitorKinds

	// Sec returns the simulated second it covers
	Sec() int64
}

// Sink receives the snapshots of a monitor, in order of seconds with no gaps.
// Publish is called on the monitor's own goroutine, never on the step path.
type Sink interface {
	Publish(snap Snapshot)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(snap Snapshot)

func (sf SinkFunc) Publish(snap Snapshot) {
	sf(snap)
}

// SpikeTime is one spike recorded by a spike monitor: the neuron index in the
// group, and the msec within the second
type SpikeTime struct {
	Idx int32
	Ms  int16
}

// SpikeSnap is the snapshot of a spike monitor: the spikes of one second, in time order
type SpikeSnap struct {
	Group  int         `desc:"group ID"`
	Second int64       `desc:"simulated second"`
	N      int         `desc:"number of neurons in the group"`
	Spikes []SpikeTime `desc:"spikes in time order, then neuron order"`
}

func (ss *SpikeSnap) Kind() MonitorKinds { return SpikeMonitor }
func (ss *SpikeSnap) Sec() int64         { return ss.Second }

// Counts returns the number of spikes of each neuron
func (ss *SpikeSnap) Counts() []int {
	cnt := make([]int, ss.N)
	for _, sp := range ss.Spikes {
		cnt[sp.Idx]++
	}
	return cnt
}

// MeanRate returns the mean firing rate of the group, Hz
func (ss *SpikeSnap) MeanRate() float32 {
	if ss.N == 0 {
		return 0
	}
	return float32(len(ss.Spikes)) / float32(ss.N)
}

// NeuronRate returns the firing rate of neuron idx, Hz
func (ss *SpikeSnap) NeuronRate(idx int) float32 {
	n := 0
	for _, sp := range ss.Spikes {
		if int(sp.Idx) == idx {
			n++
		}
	}
	return float32(n)
}

// RateStats returns the mean and maximum (with index) of the neuron rates
func (ss *SpikeSnap) RateStats() minmax.AvgMax32 {
	var am minmax.AvgMax32
	am.Init()
	for i, c := range ss.Counts() {
		am.UpdateVal(float32(c), int32(i))
	}
	am.CalcAvg()
	return am
}

// GroupSnap is the snapshot of a group monitor
type GroupSnap struct {
	Group    int                       `desc:"group ID"`
	Second   int64                     `desc:"simulated second"`
	Neuromod [learn.NeuromodsN]float32 `desc:"DA, 5-HT, ACh, NE concentrations at the end of the second"`
	Rate     float32                   `desc:"mean firing rate over the second, Hz"`
	AvgRate  float32                   `desc:"mean of the homeostatic rate estimates, Hz"`
	MeanV    float32                   `desc:"mean membrane potential, mV"`
}

func (gs *GroupSnap) Kind() MonitorKinds { return GroupMonitor }
func (gs *GroupSnap) Sec() int64         { return gs.Second }

// snapQueue is the unbounded queue of a monitor, drained by its dispatcher goroutine
type snapQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Snapshot
	busy   bool
	closed bool
	sink   Sink
}

func newSnapQueue(sink Sink) *snapQueue {
	sq := &snapQueue{sink: sink}
	sq.cond = sync.NewCond(&sq.mu)
	go sq.dispatch()
	return sq
}

func (sq *snapQueue) dispatch() {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	for {
		for len(sq.items) == 0 && !sq.closed {
			sq.cond.Wait()
		}
		if len(sq.items) == 0 {
			return
		}
		snap := sq.items[0]
		sq.items[0] = nil
		sq.items = sq.items[1:]
		sq.busy = true
		sq.mu.Unlock()
		sq.sink.Publish(snap)
		sq.mu.Lock()
		sq.busy = false
		sq.cond.Broadcast()
	}
}

func (sq *snapQueue) push(snap Snapshot) {
	sq.mu.Lock()
	sq.items = append(sq.items, snap)
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// flush waits until all queued snapshots are delivered
func (sq *snapQueue) flush() {
	sq.mu.Lock()
	for len(sq.items) > 0 || sq.busy {
		sq.cond.Wait()
	}
	sq.mu.Unlock()
}

// close stops the dispatcher after the queued snapshots are delivered
func (sq *snapQueue) close() {
	sq.mu.Lock()
	sq.closed = true
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// Monitor observes a group (spike and group monitors) or a group pair
// (connection monitors) and publishes one snapshot per simulated second
type Monitor struct {
	Kind MonitorKinds `desc:"kind of monitor"`
	Grp  int          `desc:"group, or pre group of a connection monitor"`
	Post int          `desc:"post group of a connection monitor, -1 otherwise"`

	mu      sync.Mutex
	last    Snapshot
	lastSec int64
	q       *snapQueue
	spikes  []SpikeTime
	prevWts *ConnSnap
}

// Target names what the monitor observes
func (mon *Monitor) Target() string {
	if mon.Kind == ConnMonitor {
		return strconv.Itoa(mon.Grp) + " -> " + strconv.Itoa(mon.Post)
	}
	return "group " + strconv.Itoa(mon.Grp)
}

// Last returns the most recent snapshot, nil before the first second completes
func (mon *Monitor) Last() Snapshot {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.last
}

// LastSec returns the second of the most recent snapshot, -1 if none
func (mon *Monitor) LastSec() int64 {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.lastSec
}

func (mon *Monitor) publish(snap Snapshot) {
	mon.mu.Lock()
	mon.last = snap
	mon.lastSec = snap.Sec()
	mon.mu.Unlock()
	if mon.q != nil {
		mon.q.push(snap)
	}
}

func (mon *Monitor) close() {
	if mon.q != nil {
		mon.q.close()
	}
}

// addMonitor registers a monitor after checking state, target and duplicates
func (nt *Network) addMonitor(op string, kind MonitorKinds, grp, post int, sink Sink) (*Monitor, error) {
	if err := nt.checkState(op, ConfigState, SetupState); err != nil {
		return nil, err
	}
	for _, g := range []int{grp, post} {
		if g != -1 && (g < 0 || g >= len(nt.Groups)) {
			return nil, nt.notFound(op, "group", strconv.Itoa(g))
		}
	}
	if kind == ConnMonitor && len(nt.ConnsBetween(grp, post)) == 0 {
		return nil, nt.notFound(op, "connection", strconv.Itoa(grp)+" -> "+strconv.Itoa(post))
	}
	mon := &Monitor{Kind: kind, Grp: grp, Post: post, lastSec: -1}
	for _, om := range nt.Monitors {
		if om.Kind == kind && om.Grp == grp && om.Post == post {
			return nil, nt.logErr(&DuplicateMonitorError{Kind: kind, Target: mon.Target()})
		}
	}
	if sink != nil {
		mon.q = newSnapQueue(sink)
	}
	nt.Monitors = append(nt.Monitors, mon)
	nt.indexMonitors()
	return mon, nil
}

// SetSpikeMonitor records the spikes of a group and publishes them to sink
// each second.  sink may be nil, to only keep the last snapshot.
func (nt *Network) SetSpikeMonitor(grp int, sink Sink) (*Monitor, error) {
	return nt.addMonitor("SetSpikeMonitor", SpikeMonitor, grp, -1, sink)
}

// SetConnMonitor records the weights of all connections from group pre to
// group post and publishes them to sink each second
func (nt *Network) SetConnMonitor(pre, post int, sink Sink) (*Monitor, error) {
	return nt.addMonitor("SetConnMonitor", ConnMonitor, pre, post, sink)
}

// SetGroupMonitor records the neuromodulators and mean state of a group and
// publishes them to sink each second
func (nt *Network) SetGroupMonitor(grp int, sink Sink) (*Monitor, error) {
	return nt.addMonitor("SetGroupMonitor", GroupMonitor, grp, -1, sink)
}

// FlushMonitors waits until every published snapshot has been delivered to its sink
func (nt *Network) FlushMonitors() {
	for _, mon := range nt.Monitors {
		if mon.q != nil {
			mon.q.flush()
		}
	}
}

// indexMonitors builds the per-group lookup of spike monitors and counters
// used on the step path
func (nt *Network) indexMonitors() {
	if nt.State == ConfigState && nt.Buf == nil {
		return
	}
	ng := len(nt.Groups)
	nt.spikeMons = make([]*Monitor, ng)
	nt.grpCtrs = make([][]int32, ng)
	for _, mon := range nt.Monitors {
		if mon.Kind == SpikeMonitor {
			nt.spikeMons[mon.Grp] = mon
		}
	}
	for gi, ctr := range nt.Counters {
		nt.grpCtrs[gi] = ctr
	}
}

// publishSecond publishes the snapshots of all monitors for second sec
func (nt *Network) publishSecond(sec int64) {
	if len(nt.Monitors) == 0 {
		clear(nt.grpSpikes)
		return
	}
	nt.Timers.Start("Monitors")
	for _, mon := range nt.Monitors {
		if mon.Kind != SpikeMonitor {
			nt.syncHost()
			break
		}
	}
	for _, mon := range nt.Monitors {
		switch mon.Kind {
		case SpikeMonitor:
			ss := &SpikeSnap{Group: mon.Grp, Second: sec, N: nt.Groups[mon.Grp].N(), Spikes: mon.spikes}
			mon.spikes = make([]SpikeTime, 0, len(mon.spikes))
			mon.publish(ss)
		case GroupMonitor:
			mon.publish(nt.groupSnap(mon.Grp, sec))
		case ConnMonitor:
			cs := nt.connSnap(mon.Grp, mon.Post, sec, mon.prevWts)
			mon.prevWts = cs
			mon.publish(cs)
		}
	}
	clear(nt.grpSpikes)
	nt.Timers.Stop("Monitors")
	nt.Log.Log(context.Background(), logging.LevelTrace, "published snapshots", "network", nt.Nm, "second", sec, "monitors", len(nt.Monitors))
}

// groupSnap computes the group monitor snapshot from the host buffers
func (nt *Network) groupSnap(gi int, sec int64) *GroupSnap {
	gp := nt.Groups[gi]
	bf := nt.Buf
	gs := &GroupSnap{Group: gi, Second: sec}
	copy(gs.Neuromod[:], bf.NMod[NModIdx(gi, 0):NModIdx(gi+1, 0)])
	n := float32(gp.N())
	gs.Rate = float32(nt.grpSpikes[gi]) / n
	var sumV, sumR float32
	for ni := gp.St; ni < gp.Ed; ni++ {
		nrn := &bf.Neurons[ni]
		sumV += nrn.V
		sumR += nrn.AvgRate
	}
	gs.MeanV = sumV / n
	gs.AvgRate = sumR / n
	if gp.IsGen() {
		gs.MeanV = math32.NaN()
	}
	return gs
}
