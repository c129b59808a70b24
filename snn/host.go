// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/emer/emergent/timer"
	"github.com/goki/gosl/slbool"
)

// ThrFun is a function run on one worker thread
type ThrFun func(th int)

// ThrFunChan is the channel of work for one thread
type ThrFunChan chan ThrFun

// Range is an index range [St, Ed)
type Range struct {
	St, Ed int
}

// Split divides [0, n) into nthr contiguous ranges of near-equal size
func Split(n, nthr int) []Range {
	rs := make([]Range, nthr)
	per := n / nthr
	rem := n % nthr
	st := 0
	for th := range rs {
		sz := per
		if th < rem {
			sz++
		}
		rs[th] = Range{St: st, Ed: st + sz}
		st += sz
	}
	return rs
}

// HostExec runs the kernels on persistent worker goroutines over the network's
// own buffers.  Each thread owns a contiguous range of neurons, which is also
// its range of post neurons for delivery, and a contiguous range of synapses
// for consolidation.
type HostExec struct {
	Buf         *Buffers       `desc:"the network buffers"`
	NThreads    int            `desc:"number of worker threads"`
	LockThreads bool           `desc:"call runtime.LockOSThread on the workers"`
	ThrNeur     []Range        `desc:"neuron range of each thread"`
	ThrSyn      []Range        `desc:"synapse range of each thread"`
	ThrChans    []ThrFunChan   `view:"-" desc:"work channels"`
	ThrTimes    []timer.Time   `view:"-" desc:"per-thread timers"`
	ThrSpikes   [][]int32      `view:"-" desc:"spikes found by each thread"`
	Timers      *Timers        `view:"-" desc:"per-function timers"`
	WaitGp      sync.WaitGroup `view:"-"`
}

// NewHostExec allocates the thread partitions and starts the workers when
// on more than one thread, locked to OS threads if lock is set
func NewHostExec(bf *Buffers, nthr int, lock bool, tm *Timers, log *slog.Logger) *HostExec {
	nn := len(bf.Neurons)
	if nthr > nn {
		nthr = nn
	}
	if nthr < 1 {
		nthr = 1
	}
	he := &HostExec{Buf: bf, NThreads: nthr, LockThreads: lock, Timers: tm}
	he.ThrNeur = Split(nn, nthr)
	he.ThrSyn = Split(len(bf.Syns), nthr)
	he.ThrTimes = make([]timer.Time, nthr)
	he.ThrSpikes = make([][]int32, nthr)
	if nthr > 1 {
		he.ThrChans = make([]ThrFunChan, nthr)
		for th := range he.ThrChans {
			he.ThrChans[th] = make(ThrFunChan)
		}
		he.StartThreads()
	}
	log.Debug("host executor", "NThreads", nthr, "LockThreads", lock, "GOMAXPROCS", runtime.GOMAXPROCS(0), "NumCPU", runtime.NumCPU())
	return he
}

func (he *HostExec) Backend() Backends { return HostBackend }

// StartThreads starts up the computation threads, which monitor the channels for work
func (he *HostExec) StartThreads() {
	for th := 0; th < he.NThreads; th++ {
		go he.ThrWorker(th)
	}
}

// StopThreads stops the computation threads
func (he *HostExec) StopThreads() {
	for th := range he.ThrChans {
		close(he.ThrChans[th])
	}
	he.ThrChans = nil
}

// ThrWorker is the worker function run by the worker threads
func (he *HostExec) ThrWorker(th int) {
	if he.LockThreads {
		runtime.LockOSThread()
	}
	for fun := range he.ThrChans[th] {
		he.ThrTimes[th].Start()
		fun(th)
		he.ThrTimes[th].Stop()
		he.WaitGp.Done()
	}
	if he.LockThreads {
		runtime.UnlockOSThread()
	}
}

// ThrRun calls fun on every thread and waits for all of them,
// or just calls fun(0) in the current goroutine if NThreads <= 1
func (he *HostExec) ThrRun(fun ThrFun, funame string) {
	he.Timers.Start(funame)
	if he.NThreads <= 1 {
		fun(0)
	} else {
		for th := 0; th < he.NThreads; th++ {
			he.WaitGp.Add(1)
			he.ThrChans[th] <- fun
		}
		he.WaitGp.Wait()
	}
	he.Timers.Stop(funame)
}

func (he *HostExec) SetGenFire(ids []int32) {
	for _, ni := range ids {
		he.Buf.Neurons[ni].GenFire = slbool.True
	}
}

func (he *HostExec) Step(ctx *StepCtx) []int32 {
	bf := he.Buf
	he.ThrRun(func(th int) {
		r := he.ThrNeur[th]
		for ni := r.St; ni < r.Ed; ni++ {
			bf.IntegNeuron(ctx, ni)
		}
		he.ThrSpikes[th] = bf.CollectSpikes(r.St, r.Ed, he.ThrSpikes[th][:0])
	}, "Integ")
	bf.Ring.Reset(ctx.T)
	for _, spk := range he.ThrSpikes {
		for _, ni := range spk {
			bf.Ring.Push(ctx.T, ni)
		}
	}
	he.ThrRun(func(th int) {
		r := he.ThrNeur[th]
		bf.DeliverRange(ctx, r.St, r.Ed)
	}, "Deliver")
	he.Timers.Start("Neuromod")
	for gi := range bf.Groups {
		bf.NeuromodGroup(ctx, gi)
	}
	he.Timers.Stop("Neuromod")
	return bf.Ring.Spikes(ctx.T)
}

func (he *HostExec) Consolidate(ctx *StepCtx) {
	he.ThrRun(func(th int) {
		r := he.ThrSyn[th]
		he.Buf.ConsolidateRange(ctx, r.St, r.Ed)
	}, "Consolidate")
}

func (he *HostExec) Homeostasis(ctx *StepCtx) {
	he.ThrRun(func(th int) {
		r := he.ThrNeur[th]
		he.Buf.HomeoRange(ctx, r.St, r.Ed)
	}, "Homeostasis")
}

// Pull is a no-op: the host executor works on the network buffers
func (he *HostExec) Pull() {}

// Push is a no-op: the host executor works on the network buffers
func (he *HostExec) Push() {}

func (he *HostExec) Release() {
	he.StopThreads()
}

// ThrTimerReset resets the per-thread timers
func (he *HostExec) ThrTimerReset() {
	for th := range he.ThrTimes {
		he.ThrTimes[th].Reset()
	}
}
