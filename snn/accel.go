// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/goki/gosl/slbool"
)

// AccelExec runs the kernels on an accelerator device.  The device holds its
// own copy of the buffers: kernels only touch device memory, and the host
// buffers are synchronized explicitly by Pull and Push.
type AccelExec struct {
	Host   *Buffers   `desc:"the network buffers"`
	Dev    *Buffers   `desc:"device memory"`
	Ctx    *DeviceCtx `desc:"exclusive device context"`
	Timers *Timers    `view:"-" desc:"per-function timers"`

	spikes []int32
}

// NewAccelExec acquires a device from reg, checks that the network fits in
// its memory and uploads the buffers
func NewAccelExec(bf *Buffers, reg *DeviceRegistry, devID int, owner string, tm *Timers) (*AccelExec, error) {
	dc, err := reg.Acquire(devID, owner)
	if err != nil {
		return nil, err
	}
	need := bf.MemBytes()
	if need > dc.Dev.MemBytes {
		dc.Release()
		return nil, &BackendError{Backend: AccelBackend, Device: dc.Dev.ID,
			Msg: fmt.Sprintf("insufficient device memory: need %s, have %s",
				datasize.ByteSize(need).HumanReadable(), datasize.ByteSize(dc.Dev.MemBytes).HumanReadable())}
	}
	ax := &AccelExec{Host: bf, Ctx: dc, Timers: tm}
	ax.Timers.Start("Upload")
	ax.Dev = bf.Clone()
	ax.Timers.Stop("Upload")
	return ax, nil
}

func (ax *AccelExec) Backend() Backends { return AccelBackend }

func (ax *AccelExec) SetGenFire(ids []int32) {
	for _, ni := range ids {
		ax.Dev.Neurons[ni].GenFire = slbool.True
	}
}

func (ax *AccelExec) Step(ctx *StepCtx) []int32 {
	dev := ax.Dev
	nn := len(dev.Neurons)
	ax.Timers.Start("Integ")
	ax.Ctx.Dispatch(nn, 0, func(st, ed int) {
		for ni := st; ni < ed; ni++ {
			dev.IntegNeuron(ctx, ni)
		}
	})
	// stream compaction of the spike flags into the ring: one work group
	ax.Ctx.Dispatch(1, 1, func(_, _ int) {
		dev.Ring.Reset(ctx.T)
		for ni := 0; ni < nn; ni++ {
			if dev.Neurons[ni].Spiked() {
				dev.Ring.Push(ctx.T, int32(ni))
			}
		}
	})
	ax.Timers.Stop("Integ")
	ax.Timers.Start("Deliver")
	ax.Ctx.Dispatch(nn, 0, func(st, ed int) {
		dev.DeliverRange(ctx, st, ed)
	})
	ax.Timers.Stop("Deliver")
	ax.Timers.Start("Neuromod")
	ax.Ctx.Dispatch(len(dev.Groups), 1, func(st, ed int) {
		for gi := st; gi < ed; gi++ {
			dev.NeuromodGroup(ctx, gi)
		}
	})
	ax.Timers.Stop("Neuromod")
	ax.spikes = append(ax.spikes[:0], dev.Ring.Spikes(ctx.T)...)
	return ax.spikes
}

func (ax *AccelExec) Consolidate(ctx *StepCtx) {
	ax.Timers.Start("Consolidate")
	ax.Ctx.Dispatch(len(ax.Dev.Syns), 0, func(st, ed int) {
		ax.Dev.ConsolidateRange(ctx, st, ed)
	})
	ax.Timers.Stop("Consolidate")
}

func (ax *AccelExec) Homeostasis(ctx *StepCtx) {
	ax.Timers.Start("Homeostasis")
	ax.Ctx.Dispatch(len(ax.Dev.Neurons), 0, func(st, ed int) {
		ax.Dev.HomeoRange(ctx, st, ed)
	})
	ax.Timers.Stop("Homeostasis")
}

func (ax *AccelExec) Pull() {
	ax.Timers.Start("Download")
	ax.Host.CopyStateFrom(ax.Dev)
	ax.Timers.Stop("Download")
}

func (ax *AccelExec) Push() {
	ax.Timers.Start("Upload")
	ax.Dev.CopyStateFrom(ax.Host)
	ax.Timers.Stop("Upload")
}

func (ax *AccelExec) Release() {
	ax.Ctx.Release()
	ax.Dev = nil
}
