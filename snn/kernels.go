// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/spiking/chans"
	"github.com/emer/spiking/izhi"
	"github.com/emer/spiking/learn"
	"github.com/goki/gosl/slbool"
)

// StepCtx is the network-wide context of the kernels for one step
type StepCtx struct {
	T        int64                `desc:"current step, msec"`
	Seed     uint32               `desc:"random key for stateless draws"`
	Chans    chans.Params         `desc:"synaptic channels: On = conductance-based"`
	WtUpdate learn.WtUpdateParams `desc:"weight update schedule"`
}

// IsSecond returns true if step T is the last step of a simulated second
func (ctx *StepCtx) IsSecond() bool {
	return (ctx.T+1)%1000 == 0
}

// The kernels below are the computation of one step, each over a range of
// neurons, groups or synapses.  Each writes only to the elements in its range
// (the post-neuron partition for delivery), so ranges can run concurrently, and
// each element is computed in the same order in any partition: results do not
// depend on the backend or the number of threads.

// IntegNeuron integrates neuron ni for step ctx.T and sets its Spike flag
func (bf *Buffers) IntegNeuron(ctx *StepCtx, ni int) {
	nrn := &bf.Neurons[ni]
	gv := &bf.Groups[nrn.Group]
	spiked := false
	if nrn.IsGen() {
		spiked = slbool.IsTrue(nrn.GenFire)
		if !spiked && nrn.Rate > 0 {
			if nrn.LastSpike == NoSpike || float32(ctx.T-nrn.LastSpike) > nrn.RefPer {
				spiked = PoissonFire(ctx.Seed, ctx.T, int32(ni), nrn.Rate*0.001)
			}
		}
		nrn.GenFire = slbool.False
	} else {
		I := nrn.Ext
		if ctx.Chans.On {
			I += ctx.Chans.Current(nrn.V, &nrn.G)
			ctx.Chans.Decay(&nrn.G)
		} else {
			I += nrn.I
		}
		nrn.I = 0
		spiked = izhi.Step(&nrn.V, &nrn.U, nrn.A, nrn.B, nrn.C, nrn.D, I)
	}
	nrn.Spike = slbool.FromBool(spiked)
	if spiked {
		nrn.LastSpike = ctx.T
	}
	if gv.Homeo.On {
		nrn.AvgRate = gv.Homeo.AvgRate(nrn.AvgRate, spiked)
	}
}

// CollectSpikes appends the indexes of neurons in [st, ed) that spiked, in order
func (bf *Buffers) CollectSpikes(st, ed int, out []int32) []int32 {
	for ni := st; ni < ed; ni++ {
		if bf.Neurons[ni].Spiked() {
			out = append(out, int32(ni))
		}
	}
	return out
}

// stdpFor returns the STDP params of synapses of connection cv into group pgv, nil if off
func stdpFor(cv *ConnVals, pgv *GroupVals) *learn.STDPParams {
	sp := &pgv.ESTDP
	if slbool.IsTrue(cv.Inhib) {
		sp = &pgv.ISTDP
	}
	if !sp.On {
		return nil
	}
	return sp
}

// DeliverRange delivers all spikes arriving at step ctx.T at post neurons in
// [pst, ped), in order of delay then pre neuron, and then applies STDP
// potentiation to the inputs of the post neurons in the range that spiked at ctx.T
func (bf *Buffers) DeliverRange(ctx *StepCtx, pst, ped int) {
	ps, pe := int32(pst), int32(ped)
	for d := 1; d <= bf.MaxDelay; d++ {
		for _, pre := range bf.Ring.Spikes(ctx.T - int64(d)) {
			st, ed := bf.SynRange(int(pre), d)
			if st == ed {
				continue
			}
			for si := bf.searchPost(st, ed, ps); si < ed; si++ {
				sy := &bf.Syns[si]
				if sy.Post >= pe {
					break
				}
				bf.Arrive(ctx, sy)
			}
		}
	}
	for ni := pst; ni < ped; ni++ {
		if bf.Neurons[ni].Spiked() {
			bf.PostSpike(ctx, ni)
		}
	}
}

// searchPost returns the first synapse in [st, ed) with Post >= post
func (bf *Buffers) searchPost(st, ed, post int32) int32 {
	lo, hi := st, ed
	for lo < hi {
		mid := int32(uint32(lo+hi) >> 1)
		if bf.Syns[mid].Post < post {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Arrive applies a presynaptic spike arriving at step ctx.T through synapse sy
func (bf *Buffers) Arrive(ctx *StepCtx, sy *Synapse) {
	cv := &bf.Conns[sy.Conn]
	post := &bf.Neurons[sy.Post]
	eff := sy.Wt
	if stp := &bf.Groups[cv.Pre].STP; stp.On {
		stp.Relax(&sy.STPU, &sy.STPX, float32(ctx.T-sy.STPLast))
		eff *= stp.Spike(&sy.STPU, &sy.STPX)
		sy.STPLast = ctx.T
	}
	switch {
	case !ctx.Chans.On:
		post.I += cv.Sign * eff * cv.MulFast
	case slbool.IsTrue(cv.Inhib):
		ctx.Chans.AddInh(&post.G, eff*cv.MulFast, eff*cv.MulSlow)
	default:
		ctx.Chans.AddExc(&post.G, eff*cv.MulFast, eff*cv.MulSlow)
	}
	if !sy.IsPlastic() {
		return
	}
	if sp := stdpFor(cv, &bf.Groups[cv.Post]); sp != nil && post.LastSpike != NoSpike && post.LastSpike < ctx.T {
		if dt := float32(ctx.T - post.LastSpike); dt <= sp.Window() {
			sy.WtChg += sp.LTD(dt)
		}
	}
	sy.LastArr = ctx.T
}

// PostSpike applies STDP potentiation to the plastic inputs of neuron ni,
// which spiked at step ctx.T
func (bf *Buffers) PostSpike(ctx *StepCtx, ni int) {
	pgv := &bf.Groups[bf.Neurons[ni].Group]
	if !pgv.ESTDP.On && !pgv.ISTDP.On {
		return
	}
	for _, si := range bf.RecvSyn[bf.RecvSt[ni]:bf.RecvSt[ni+1]] {
		sy := &bf.Syns[si]
		if !sy.IsPlastic() || sy.LastArr == NoSpike {
			continue
		}
		sp := stdpFor(&bf.Conns[sy.Conn], pgv)
		if sp == nil {
			continue
		}
		if dt := float32(ctx.T - sy.LastArr); dt <= sp.Window() {
			sy.WtChg += sp.LTP(dt)
		}
	}
}

// NeuromodGroup relaxes the neuromodulators of group gi toward baseline and
// adds the release of the spikes at step ctx.T of the groups projecting to it
func (bf *Buffers) NeuromodGroup(ctx *StepCtx, gi int) {
	gv := &bf.Groups[gi]
	nm := bf.NMod[NModIdx(gi, 0):NModIdx(gi+1, 0)]
	for m := range nm {
		nm[m] = gv.Neuromod.Relax(learn.Neuromods(m), nm[m])
	}
	for _, sgi := range bf.RelSrc[gv.RelSt:gv.RelEd] {
		sgv := &bf.Groups[sgi]
		if n := bf.Ring.CountRange(ctx.T, sgv.St, sgv.Ed); n > 0 {
			nm[sgv.Release.Mod] += sgv.Release.Amount * float32(n)
		}
	}
}

// ConsolidateRange applies the accumulated weight changes of plastic synapses
// in [st, ed), scaled by the dopamine of the post group for DAMod STDP
func (bf *Buffers) ConsolidateRange(ctx *StepCtx, st, ed int) {
	for si := st; si < ed; si++ {
		sy := &bf.Syns[si]
		if !sy.IsPlastic() || sy.WtChg == 0 {
			continue
		}
		cv := &bf.Conns[sy.Conn]
		mod := float32(1)
		if sp := stdpFor(cv, &bf.Groups[cv.Post]); sp != nil && sp.Type == learn.DAMod {
			mod = bf.NMod[NModIdx(int(cv.Post), learn.DA)]
		}
		sy.Wt, sy.WtChg = ctx.WtUpdate.Apply(sy.Wt, sy.WtChg, mod, sy.MaxWt)
	}
}

// HomeoRange scales the plastic inputs of post neurons in [pst, ped) toward
// their target firing rate
func (bf *Buffers) HomeoRange(ctx *StepCtx, pst, ped int) {
	for ni := pst; ni < ped; ni++ {
		nrn := &bf.Neurons[ni]
		gv := &bf.Groups[nrn.Group]
		if !gv.Homeo.On {
			continue
		}
		f := gv.Homeo.Factor(nrn.AvgRate, nrn.BaseRate)
		if f == 1 {
			continue
		}
		for _, si := range bf.RecvSyn[bf.RecvSt[ni]:bf.RecvSt[ni+1]] {
			sy := &bf.Syns[si]
			if !sy.IsPlastic() {
				continue
			}
			sy.Wt *= f
			if sy.Wt > sy.MaxWt {
				sy.Wt = sy.MaxWt
			}
		}
	}
}
