// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

// SpikeEvent is a spike of neuron Nrn at step T
type SpikeEvent struct {
	Nrn int32
	T   int64
}

// SpikeRing is the conduction delay queue: a ring of MaxDelay+1 slots, one per
// step, each holding the indexes of the neurons that spiked on that step in
// increasing order.  A spike emitted at step t through a synapse of delay d is
// delivered at step t+d by reading slot t+d-d, so no per-synapse events are stored.
// Each slot can hold every neuron, so enqueue is O(1) and never overflows.
type SpikeRing struct {
	NSlots int     `desc:"number of slots: MaxDelay+1"`
	Cap    int     `desc:"capacity of each slot: number of neurons"`
	N      []int32 `desc:"number of spikes in each slot"`
	IDs    []int32 `desc:"neuron indexes, NSlots * Cap"`
}

// Init allocates the ring
func (sr *SpikeRing) Init(maxDelay, nNeurons int) {
	sr.NSlots = maxDelay + 1
	sr.Cap = nNeurons
	sr.N = make([]int32, sr.NSlots)
	sr.IDs = make([]int32, sr.NSlots*sr.Cap)
}

// Slot returns the slot of step t
func (sr *SpikeRing) Slot(t int64) int {
	s := int(t % int64(sr.NSlots))
	if s < 0 {
		s += sr.NSlots
	}
	return s
}

// Reset empties the slot of step t, discarding the spikes of step t - NSlots
func (sr *SpikeRing) Reset(t int64) {
	sr.N[sr.Slot(t)] = 0
}

// Push adds neuron nid to the spikes of step t: must be called in
// increasing nid order within a step
func (sr *SpikeRing) Push(t int64, nid int32) {
	s := sr.Slot(t)
	sr.IDs[s*sr.Cap+int(sr.N[s])] = nid
	sr.N[s]++
}

// Spikes returns the neurons that spiked at step t.  Steps before the start
// of the simulation have empty slots.
func (sr *SpikeRing) Spikes(t int64) []int32 {
	if t < 0 {
		return nil
	}
	s := sr.Slot(t)
	st := s * sr.Cap
	return sr.IDs[st : st+int(sr.N[s])]
}

// CountRange returns the number of spikes at step t from neurons in [st, ed)
func (sr *SpikeRing) CountRange(t int64, st, ed int32) int {
	spk := sr.Spikes(t)
	return searchIDs(spk, ed) - searchIDs(spk, st)
}

// InFlight returns the spikes that can still be delivered at or after step t:
// those of steps t - (NSlots-1) .. t-1
func (sr *SpikeRing) InFlight(t int64) []SpikeEvent {
	var evs []SpikeEvent
	for st := t - int64(sr.NSlots-1); st < t; st++ {
		for _, nid := range sr.Spikes(st) {
			evs = append(evs, SpikeEvent{Nrn: nid, T: st})
		}
	}
	return evs
}

// Restore empties the ring and loads events, which must be sorted by step and
// then neuron, as returned by InFlight
func (sr *SpikeRing) Restore(evs []SpikeEvent) {
	for i := range sr.N {
		sr.N[i] = 0
	}
	for _, ev := range evs {
		sr.Push(ev.T, ev.Nrn)
	}
}

// searchIDs returns the first position in sorted ids with value >= v
func searchIDs(ids []int32, v int32) int {
	lo, hi := 0, len(ids)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if ids[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
