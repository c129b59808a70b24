// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
)

// ConnSnap is the snapshot of a connection monitor: the weight magnitudes of
// all synapses from the pre group to the post group, as a [pre, post] matrix
// with NaN where there is no synapse.  Where several synapses join the same
// pair, the one of the highest connection ID is shown.
type ConnSnap struct {
	Pre    int              `desc:"pre group"`
	Post   int              `desc:"post group"`
	Second int64            `desc:"simulated second"`
	T      int64            `desc:"step of this snapshot"`
	PrevT  int64            `desc:"step of the previous snapshot, -1 if first"`
	Wts    *etensor.Float32 `desc:"weights: [pre neuron, post neuron]"`
	Prev   *etensor.Float32 `desc:"weights of the previous snapshot, nil if first"`
}

func (cs *ConnSnap) Kind() MonitorKinds { return ConnMonitor }
func (cs *ConnSnap) Sec() int64         { return cs.Second }

// NPre returns the number of pre neurons
func (cs *ConnSnap) NPre() int { return cs.Wts.Dim(0) }

// NPost returns the number of post neurons
func (cs *ConnSnap) NPost() int { return cs.Wts.Dim(1) }

// Wt returns the weight from pre neuron i to post neuron j, NaN if not connected
func (cs *ConnSnap) Wt(i, j int) float32 {
	return cs.Wts.Value([]int{i, j})
}

// NumSynapses returns the number of connected pairs
func (cs *ConnSnap) NumSynapses() int {
	n := 0
	for _, w := range cs.Wts.Values {
		if !math32.IsNaN(w) {
			n++
		}
	}
	return n
}

// TimeSinceLast returns the msec since the previous snapshot, or since the
// start of the simulation for the first
func (cs *ConnSnap) TimeSinceLast() int64 {
	return cs.T - cs.PrevT
}

// WtChanges returns the weight changes since the previous snapshot, with
// NaN where not connected, and 0 everywhere for the first snapshot
func (cs *ConnSnap) WtChanges() *etensor.Float32 {
	chg := etensor.NewFloat32(cs.Wts.Shapes(), nil, cs.Wts.DimNames())
	for i, w := range cs.Wts.Values {
		switch {
		case math32.IsNaN(w):
			chg.Values[i] = w
		case cs.Prev != nil && !math32.IsNaN(cs.Prev.Values[i]):
			chg.Values[i] = w - cs.Prev.Values[i]
		}
	}
	return chg
}

// NumWtsChanged returns the number of weights whose non-zero absolute change since the
// previous snapshot is at least minAbs
func (cs *ConnSnap) NumWtsChanged(minAbs float32) int {
	n := 0
	for _, c := range cs.WtChanges().Values {
		if !math32.IsNaN(c) && c != 0 && math32.Abs(c) >= minAbs {
			n++
		}
	}
	return n
}

// PctWtsChanged returns NumWtsChanged as a percentage of the synapses
func (cs *ConnSnap) PctWtsChanged(minAbs float32) float32 {
	ns := cs.NumSynapses()
	if ns == 0 {
		return 0
	}
	return 100 * float32(cs.NumWtsChanged(minAbs)) / float32(ns)
}

// TotalAbsWtChange returns the sum of the absolute weight changes
func (cs *ConnSnap) TotalAbsWtChange() float32 {
	sum := float32(0)
	for _, c := range cs.WtChanges().Values {
		if !math32.IsNaN(c) {
			sum += math32.Abs(c)
		}
	}
	return sum
}

// WtRange returns the minimum and maximum weights
func (cs *ConnSnap) WtRange() minmax.F32 {
	var mm minmax.F32
	mm.SetInfinity()
	for _, w := range cs.Wts.Values {
		if !math32.IsNaN(w) {
			mm.FitValInRange(w)
		}
	}
	return mm
}

// MinWt returns the smallest weight
func (cs *ConnSnap) MinWt() float32 { return cs.WtRange().Min }

// MaxWt returns the largest weight
func (cs *ConnSnap) MaxWt() float32 { return cs.WtRange().Max }

// NumWtsInRange returns the number of weights in [min, max]
func (cs *ConnSnap) NumWtsInRange(min, max float32) int {
	rg := minmax.F32{Min: min, Max: max}
	n := 0
	for _, w := range cs.Wts.Values {
		if !math32.IsNaN(w) && rg.InRange(w) {
			n++
		}
	}
	return n
}

// PctWtsInRange returns NumWtsInRange as a percentage of the synapses
func (cs *ConnSnap) PctWtsInRange(min, max float32) float32 {
	ns := cs.NumSynapses()
	if ns == 0 {
		return 0
	}
	return 100 * float32(cs.NumWtsInRange(min, max)) / float32(ns)
}

// NumWtsWithValue returns the number of weights within tol of val
func (cs *ConnSnap) NumWtsWithValue(val, tol float32) int {
	return cs.NumWtsInRange(val-tol, val+tol)
}

// FanIn returns the number of synapses into post neuron j
func (cs *ConnSnap) FanIn(j int) int {
	n := 0
	for i := 0; i < cs.NPre(); i++ {
		if !math32.IsNaN(cs.Wt(i, j)) {
			n++
		}
	}
	return n
}

// FanOut returns the number of synapses from pre neuron i
func (cs *ConnSnap) FanOut(i int) int {
	n := 0
	for j := 0; j < cs.NPost(); j++ {
		if !math32.IsNaN(cs.Wt(i, j)) {
			n++
		}
	}
	return n
}

// FanInStats returns the mean and maximum fan-in over the post neurons
func (cs *ConnSnap) FanInStats() minmax.AvgMax32 {
	var am minmax.AvgMax32
	am.Init()
	for j := 0; j < cs.NPost(); j++ {
		am.UpdateVal(float32(cs.FanIn(j)), int32(j))
	}
	am.CalcAvg()
	return am
}

// weightMatrix returns the [pre, post] weight matrix of all connections from
// pre to post, from the host buffers
func (nt *Network) weightMatrix(pre, post int) *etensor.Float32 {
	pg, rg := nt.Groups[pre], nt.Groups[post]
	wts := etensor.NewFloat32([]int{pg.N(), rg.N()}, nil, []string{"Pre", "Post"})
	nan := math32.NaN()
	for i := range wts.Values {
		wts.Values[i] = nan
	}
	for _, ci := range nt.ConnsBetween(pre, post) {
		for _, si := range nt.ConnSyns[ci] {
			sy := &nt.Buf.Syns[si]
			wts.Set([]int{int(sy.Pre) - pg.St, int(sy.Post) - rg.St}, sy.Wt)
		}
	}
	return wts
}

// connSnap computes the connection monitor snapshot from the host buffers
func (nt *Network) connSnap(pre, post int, sec int64, prev *ConnSnap) *ConnSnap {
	cs := &ConnSnap{Pre: pre, Post: post, Second: sec, T: nt.Time, PrevT: -1}
	cs.Wts = nt.weightMatrix(pre, post)
	if prev != nil {
		cs.Prev = prev.Wts
		cs.PrevT = prev.T
	}
	return cs
}
