// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"context"

	"github.com/emer/spiking/internal/logging"
)

// Run advances the simulation by sec seconds plus msec milliseconds, one
// 1 msec step at a time.  The first Run moves from SETUP to EXECUTION.
// ctx is checked between steps: a cancelled run stops after a complete step
// and returns ctx.Err(), leaving the network consistent and runnable.
func (nt *Network) Run(ctx context.Context, sec, msec int) error {
	if err := nt.checkState("Run", SetupState, ExecState); err != nil {
		return err
	}
	if sec < 0 || msec < 0 {
		return nt.configErr("Run", "run length must be >= 0: sec: %d msec: %d", sec, msec)
	}
	if nt.Exec == nil {
		return nt.logErr(&BackendError{Backend: nt.Cfg.Backend, Device: nt.Cfg.DeviceID, Msg: "network is closed"})
	}
	if nt.State == SetupState {
		nt.setState(ExecState)
	}
	nsteps := int64(sec)*1000 + int64(msec)
	nt.Timers.Start("Run")
	defer nt.Timers.Stop("Run")
	for i := int64(0); i < nsteps; i++ {
		if err := ctx.Err(); err != nil {
			nt.Log.Warn("run interrupted", "network", nt.Nm, "time", nt.Time, "err", err)
			return err
		}
		nt.Step()
	}
	return nil
}

// Step executes one 1 msec step: spike generators, integration and spike
// detection, delivery with STDP, neuromodulators, and at their intervals
// weight consolidation, homeostasis and monitor snapshots.
// Run should normally be used instead, which checks the state.
func (nt *Network) Step() {
	sc := &nt.stepCtx
	sc.T = nt.Time
	nt.genSpikes(sc.T)
	fired := nt.Exec.Step(sc)
	if nt.Exec.Backend() != HostBackend {
		nt.hostStale = true
	}
	nt.recordSpikes(sc.T, fired)
	if sc.WtUpdate.IsUpdate(sc.T) {
		nt.Exec.Consolidate(sc)
		nt.Log.Log(context.Background(), logging.LevelTrace, "consolidated weights", "network", nt.Nm, "time", sc.T)
	}
	if sc.IsSecond() {
		nt.Exec.Homeostasis(sc)
		nt.publishSecond(sc.T / 1000)
	}
	nt.Time++
}

// genSpikes calls the spike generators of all generator groups for step t
func (nt *Network) genSpikes(t int64) {
	nt.genIDs = nt.genIDs[:0]
	for _, gp := range nt.Groups {
		if gp.SpikeGen == nil {
			continue
		}
		for i := 0; i < gp.N(); i++ {
			if gp.SpikeGen.Fire(gp.ID, i, t) {
				nt.genIDs = append(nt.genIDs, int32(gp.St+i))
			}
		}
	}
	if len(nt.genIDs) > 0 {
		nt.Exec.SetGenFire(nt.genIDs)
	}
}

// recordSpikes updates the counters and spike monitors with the spikes of step t
func (nt *Network) recordSpikes(t int64, fired []int32) {
	ms := int16(t % 1000)
	for _, ni := range fired {
		gi := nt.Buf.Neurons[ni].Group
		nt.grpSpikes[gi]++
		idx := ni - int32(nt.Groups[gi].St)
		if ctr := nt.grpCtrs[gi]; ctr != nil {
			ctr[idx]++
		}
		if mon := nt.spikeMons[gi]; mon != nil {
			mon.spikes = append(mon.spikes, SpikeTime{Idx: idx, Ms: ms})
		}
	}
}

// syncHost makes the network buffers current with the executor
func (nt *Network) syncHost() {
	if nt.hostStale && nt.Exec != nil {
		nt.Exec.Pull()
	}
	nt.hostStale = false
}

// pushHost makes the executor see changes made to the network buffers
func (nt *Network) pushHost() {
	if nt.Exec != nil {
		nt.Exec.Push()
	}
}

// SimTime returns the time as the number of whole seconds and the remaining msec
func (nt *Network) SimTime() (sec int64, msec int) {
	return nt.Time / 1000, int(nt.Time % 1000)
}
