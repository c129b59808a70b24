// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/timer"
)

// Timers are the per-function timers of a network
type Timers struct {
	FunTimes map[string]*timer.Time `view:"-" desc:"timers for each major function (step phase)"`
}

// Start starts the timer for given function name, creating it if needed
func (tm *Timers) Start(fun string) {
	if tm.FunTimes == nil {
		tm.FunTimes = make(map[string]*timer.Time)
	}
	ft, ok := tm.FunTimes[fun]
	if !ok {
		ft = &timer.Time{}
		tm.FunTimes[fun] = ft
	}
	ft.Start()
}

// Stop stops the timer for given function name -- timer must already exist
func (tm *Timers) Stop(fun string) {
	ft := tm.FunTimes[fun]
	ft.Stop()
}

// Reset resets all timers
func (tm *Timers) Reset() {
	for _, ft := range tm.FunTimes {
		ft.Reset()
	}
}

// TotalSecs returns the total seconds of given function, 0 if never timed
func (tm *Timers) TotalSecs(fun string) float64 {
	ft, ok := tm.FunTimes[fun]
	if !ok {
		return 0
	}
	return ft.TotalSecs()
}

// TimerReport writes the amount of time spent in each function, and in each
// thread of the host backend
func (nt *Network) TimerReport(w io.Writer) {
	nthr := 0
	he, isHost := nt.Exec.(*HostExec)
	if isHost {
		nthr = he.NThreads
	}
	fmt.Fprintf(w, "TimerReport: %v, Backend: %v, NThreads: %v\n", nt.Nm, nt.Cfg.Backend, nthr)
	fmt.Fprintf(w, "\t%13s \t%7s\t%7s\n", "Function Name", "Secs", "Pct")
	fnms := make([]string, 0, len(nt.Timers.FunTimes))
	for k := range nt.Timers.FunTimes {
		if k == "Run" {
			continue // contains the others
		}
		fnms = append(fnms, k)
	}
	sort.StringSlice(fnms).Sort()
	pcts := make([]float64, len(fnms))
	tot := 0.0
	for i, fn := range fnms {
		pcts[i] = nt.Timers.TotalSecs(fn)
		tot += pcts[i]
	}
	for i, fn := range fnms {
		fmt.Fprintf(w, "\t%13s \t%7.3f\t%7.1f\n", fn, pcts[i], 100*(pcts[i]/tot))
	}
	fmt.Fprintf(w, "\t%13s \t%7.3f\n", "Total", tot)

	if nthr <= 1 {
		return
	}
	fmt.Fprintf(w, "\n\tThr\tSecs\tPct\n")
	pcts = make([]float64, nthr)
	tot = 0.0
	for th := 0; th < nthr; th++ {
		pcts[th] = he.ThrTimes[th].TotalSecs()
		tot += pcts[th]
	}
	for th := 0; th < nthr; th++ {
		fmt.Fprintf(w, "\t%v \t%7.3f\t%7.1f\n", th, pcts[th], 100*(pcts[th]/tot))
	}
}

// TimerReset resets the function timers, and the per-thread timers of the host backend
func (nt *Network) TimerReset() {
	nt.Timers.Reset()
	if he, ok := nt.Exec.(*HostExec); ok {
		he.ThrTimerReset()
	}
}

// SizeReport returns a string reporting the size of each group and its
// outgoing connections, and of the whole network
func (nt *Network) SizeReport() string {
	var b strings.Builder
	nsz := int(unsafe.Sizeof(Neuron{}))
	ssz := int(unsafe.Sizeof(Synapse{}))
	neur, syn := 0, 0
	for _, gp := range nt.Groups {
		nn := gp.N()
		nmem := nn * nsz
		neur += nn
		fmt.Fprintf(&b, "%14s:\t Neurons: %d\t NeurMem: %v \t Sends To:\n", gp.Name, nn, (datasize.ByteSize)(nmem).HumanReadable())
		for _, cn := range nt.Conns {
			if cn.Pre != gp.ID {
				continue
			}
			ns := cn.NSyn
			pmem := ns * ssz
			syn += ns
			fmt.Fprintf(&b, "\t%14s:\t Syns: %d\t SynMem: %v\n", nt.Groups[cn.Post].Name, ns, (datasize.ByteSize)(pmem).HumanReadable())
		}
	}
	fmt.Fprintf(&b, "\n\n%14s:\t Neurons: %d\t NeurMem: %v \t Syns: %d \t SynMem: %v\n", nt.Nm, neur, (datasize.ByteSize)(neur*nsz).HumanReadable(), syn, (datasize.ByteSize)(syn*ssz).HumanReadable())
	if nt.Buf != nil {
		fmt.Fprintf(&b, "%14s:\t MaxDelay: %d\t TotalMem: %v\n", "Buffers", nt.Buf.MaxDelay, (datasize.ByteSize)(nt.Buf.MemBytes()).HumanReadable())
	}
	return b.String()
}

// ThreadReport returns a report of the neuron and synapse partitions of the
// host backend threads
func (nt *Network) ThreadReport() string {
	he, ok := nt.Exec.(*HostExec)
	if !ok {
		return fmt.Sprintf("%s: no host threads, backend: %v\n", nt.Nm, nt.Cfg.Backend)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Network: %s Auto Thread Allocation for %d threads:\n", nt.Nm, he.NThreads)
	for th := 0; th < he.NThreads; th++ {
		nr, sr := he.ThrNeur[th], he.ThrSyn[th]
		fmt.Fprintf(&b, "%3d:\t Neurons: [%d, %d)\t N: %d\t Syns: [%d, %d)\t N: %d\n", th, nr.St, nr.Ed, nr.Ed-nr.St, sr.St, sr.Ed, sr.Ed-sr.St)
	}
	return b.String()
}
