// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"unsafe"

	"github.com/emer/spiking/learn"
	"github.com/goki/gosl/slbool"
)

// GroupVals are the per-group parameters used by the kernels
type GroupVals struct {
	St       int32                `desc:"first neuron index"`
	Ed       int32                `desc:"one past the last neuron index"`
	Gen      slbool.Bool          `desc:"spike generator group"`
	RelSt    int32                `desc:"start of the groups releasing neuromodulator into this one, in Buffers.RelSrc"`
	RelEd    int32                `desc:"end of the groups releasing neuromodulator into this one"`
	ESTDP    learn.STDPParams     `desc:"STDP of excitatory inputs"`
	ISTDP    learn.STDPParams     `desc:"STDP of inhibitory inputs"`
	STP      learn.STPParams      `desc:"short-term plasticity of sent synapses"`
	Homeo    learn.HomeoParams    `desc:"homeostasis of inputs"`
	Neuromod learn.NeuromodParams `desc:"neuromodulator dynamics"`
	Release  ReleaseParams        `desc:"neuromodulator release by this group"`
}

// ConnVals are the per-connection parameters used by the kernels
type ConnVals struct {
	Pre     int32       `desc:"sending group"`
	Post    int32       `desc:"receiving group"`
	Inhib   slbool.Bool `desc:"sending group is inhibitory"`
	Sign    float32     `desc:"+1 or -1 from the sending polarity"`
	MulFast float32     `desc:"fast channel scaling"`
	MulSlow float32     `desc:"slow channel scaling"`
}

// Buffers are the flat arrays holding the complete dynamic state of a built
// network.  Every backend runs the same kernels on a Buffers: the host
// executor on the network's own copy, the accelerator on a device copy.
//
// Synapses are sorted by (pre neuron, delay, post neuron, connection), and the
// synapses of neuron n with delay d are Syns[DelaySt[n*MaxDelay+d-1] : DelaySt[n*MaxDelay+d]].
// The incoming synapses of neuron n are RecvSyn[RecvSt[n] : RecvSt[n+1]].
type Buffers struct {
	MaxDelay int         `desc:"largest delay of any synapse, >= 1"`
	Neurons  []Neuron    `desc:"all neurons, groups in order"`
	Syns     []Synapse   `desc:"all synapses, sorted by pre, delay, post"`
	DelaySt  []int32     `desc:"start of the synapses of each (neuron, delay): NNeurons*MaxDelay+1"`
	RecvSt   []int32     `desc:"start of the incoming synapses of each neuron in RecvSyn: NNeurons+1"`
	RecvSyn  []int32     `desc:"synapse indexes grouped by post neuron, increasing within each"`
	Groups   []GroupVals `desc:"group parameters"`
	Conns    []ConnVals  `desc:"connection parameters"`
	RelSrc   []int32     `desc:"neuromodulator source groups of each group, see GroupVals.RelSt"`
	NMod     []float32   `desc:"neuromodulator concentrations: NGroups * NeuromodsN"`
	Ring     SpikeRing   `desc:"conduction delay queue"`
}

// NModIdx returns the index into NMod of neuromodulator nm of group gi
func NModIdx(gi int, nm learn.Neuromods) int {
	return gi*int(learn.NeuromodsN) + int(nm)
}

// SynRange returns the synapses of neuron ni with delay d
func (bf *Buffers) SynRange(ni, d int) (st, ed int32) {
	off := ni*bf.MaxDelay + d - 1
	return bf.DelaySt[off], bf.DelaySt[off+1]
}

// MemBytes returns the total size of the arrays
func (bf *Buffers) MemBytes() int64 {
	n := int64(len(bf.Neurons)) * int64(unsafe.Sizeof(Neuron{}))
	n += int64(len(bf.Syns)) * int64(unsafe.Sizeof(Synapse{}))
	n += int64(len(bf.DelaySt)+len(bf.RecvSt)+len(bf.RecvSyn)+len(bf.RelSrc)+len(bf.NMod)) * 4
	n += int64(len(bf.Groups)) * int64(unsafe.Sizeof(GroupVals{}))
	n += int64(len(bf.Conns)) * int64(unsafe.Sizeof(ConnVals{}))
	n += int64(len(bf.Ring.N)+len(bf.Ring.IDs)) * 4
	return n
}

// Clone returns a deep copy
func (bf *Buffers) Clone() *Buffers {
	cp := &Buffers{}
	cp.CopyFrom(bf)
	return cp
}

// CopyFrom copies all arrays from src, reusing existing memory when the sizes match
func (bf *Buffers) CopyFrom(src *Buffers) {
	bf.MaxDelay = src.MaxDelay
	bf.DelaySt = append(bf.DelaySt[:0], src.DelaySt...)
	bf.RecvSt = append(bf.RecvSt[:0], src.RecvSt...)
	bf.RecvSyn = append(bf.RecvSyn[:0], src.RecvSyn...)
	bf.Groups = append(bf.Groups[:0], src.Groups...)
	bf.Conns = append(bf.Conns[:0], src.Conns...)
	bf.RelSrc = append(bf.RelSrc[:0], src.RelSrc...)
	bf.CopyStateFrom(src)
}

// CopyStateFrom copies only the arrays that change during a run: neurons,
// synapses, neuromodulators and the spike ring
func (bf *Buffers) CopyStateFrom(src *Buffers) {
	bf.Neurons = append(bf.Neurons[:0], src.Neurons...)
	bf.Syns = append(bf.Syns[:0], src.Syns...)
	bf.NMod = append(bf.NMod[:0], src.NMod...)
	bf.Ring.NSlots = src.Ring.NSlots
	bf.Ring.Cap = src.Ring.Cap
	bf.Ring.N = append(bf.Ring.N[:0], src.Ring.N...)
	bf.Ring.IDs = append(bf.Ring.IDs[:0], src.Ring.IDs...)
}
