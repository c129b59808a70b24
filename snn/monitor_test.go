// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/emer/spiking/internal/logging"
)

func TestDuplicateMonitor(t *testing.T) {
	nt := makeTestNet(t, testConfig(1, 1))
	defer nt.Close()
	if _, err := nt.SetSpikeMonitor(1, nil); err != nil {
		t.Fatal(err)
	}
	_, err := nt.SetSpikeMonitor(1, nil)
	var dme *DuplicateMonitorError
	if !errors.As(err, &dme) || dme.Kind != SpikeMonitor {
		t.Errorf("second spike monitor: %v", err)
	}
	if _, err := nt.SetGroupMonitor(1, nil); err != nil {
		t.Errorf("group monitor on a group with a spike monitor: %v", err)
	}
	if _, err := nt.SetConnMonitor(0, 1, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := nt.SetConnMonitor(0, 1, nil); !errors.Is(err, ErrDuplicateMonitor) {
		t.Errorf("second connection monitor: %v", err)
	}
	if _, err := nt.SetConnMonitor(1, 0, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("connection monitor without connection: %v", err)
	}
	if _, err := nt.SetSpikeMonitor(9, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("spike monitor of unknown group: %v", err)
	}
	if len(nt.Monitors) != 3 {
		t.Errorf("monitors: %d", len(nt.Monitors))
	}
}

// slowSink records the seconds it receives, slowly, from any goroutine
type slowSink struct {
	mu   sync.Mutex
	secs []int64
}

func (ss *slowSink) Publish(snap Snapshot) {
	time.Sleep(2 * time.Millisecond)
	ss.mu.Lock()
	ss.secs = append(ss.secs, snap.Sec())
	ss.mu.Unlock()
}

func TestMonitorOrder(t *testing.T) {
	nt := makeTestNet(t, testConfig(1, 2))
	defer nt.Close()
	sks := []*slowSink{{}, {}, {}}
	nt.SetSpikeMonitor(1, sks[0])
	nt.SetGroupMonitor(2, sks[1])
	nt.SetConnMonitor(0, 1, sks[2])
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(context.Background(), 5, 500); err != nil {
		t.Fatal(err)
	}
	nt.FlushMonitors()
	for k, sk := range sks {
		sk.mu.Lock()
		if len(sk.secs) != 5 {
			t.Errorf("monitor %d: %d snapshots after 5.5 seconds", k, len(sk.secs))
		}
		for i, s := range sk.secs {
			if s != int64(i) {
				t.Errorf("monitor %d: snapshot %d is of second %d", k, i, s)
			}
		}
		sk.mu.Unlock()
	}
	if sec := nt.Monitors[0].LastSec(); sec != 4 {
		t.Errorf("LastSec: %d", sec)
	}
}

func TestConnSnap(t *testing.T) {
	nt := makeTestNet(t, testConfig(6, 1))
	defer nt.Close()
	var snaps []*ConnSnap
	nt.SetConnMonitor(0, 1, SinkFunc(func(snap Snapshot) {
		snaps = append(snaps, snap.(*ConnSnap))
	}))
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	cur := make([]float32, 40)
	for i := range cur {
		cur[i] = 8
	}
	nt.SetExternalCurrent(1, cur)
	if err := nt.Run(context.Background(), 2, 0); err != nil {
		t.Fatal(err)
	}
	nt.FlushMonitors()
	if len(snaps) != 2 {
		t.Fatalf("snapshots: %d", len(snaps))
	}
	s0, s1 := snaps[0], snaps[1]
	if s0.NPre() != 20 || s0.NPost() != 40 || s0.NumSynapses() != nt.Conns[0].NSyn {
		t.Errorf("snapshot size: %d x %d, %d synapses", s0.NPre(), s0.NPost(), s0.NumSynapses())
	}
	if s0.TimeSinceLast() != 1000 || s1.TimeSinceLast() != 1000 {
		t.Errorf("TimeSinceLast: %d %d", s0.TimeSinceLast(), s1.TimeSinceLast())
	}
	if s0.NumWtsChanged(0) != 0 {
		t.Errorf("first snapshot has changes: %d", s0.NumWtsChanged(0))
	}
	if s1.Prev != s0.Wts {
		t.Errorf("second snapshot does not refer to the first")
	}
	n := s1.NumWtsChanged(0)
	if n == 0 || n > s1.NumSynapses() {
		t.Errorf("NumWtsChanged: %d of %d", n, s1.NumSynapses())
	}
	if p := s1.PctWtsChanged(0); math32.Abs(p-100*float32(n)/float32(s1.NumSynapses())) > 1e-3 {
		t.Errorf("PctWtsChanged: %v", p)
	}
	if s1.TotalAbsWtChange() <= 0 {
		t.Errorf("TotalAbsWtChange: %v", s1.TotalAbsWtChange())
	}
	rg := s1.WtRange()
	if rg.Min < 0 || rg.Max > 6 || rg.Min > rg.Max || s1.MinWt() != rg.Min || s1.MaxWt() != rg.Max {
		t.Errorf("WtRange: %v", rg)
	}
	if s1.NumWtsInRange(rg.Min, rg.Max) != s1.NumSynapses() {
		t.Errorf("NumWtsInRange of the full range: %d", s1.NumWtsInRange(rg.Min, rg.Max))
	}
	fi := 0
	for j := 0; j < s1.NPost(); j++ {
		fi += s1.FanIn(j)
	}
	fo := 0
	for i := 0; i < s1.NPre(); i++ {
		fo += s1.FanOut(i)
	}
	if fi != s1.NumSynapses() || fo != fi {
		t.Errorf("fan in: %d fan out: %d synapses: %d", fi, fo, s1.NumSynapses())
	}
	w := s1.Wt(0, 0)
	if !math32.IsNaN(w) && s1.NumWtsWithValue(w, 0) < 1 {
		t.Errorf("NumWtsWithValue of an existing weight")
	}
}

func TestGroupSnap(t *testing.T) {
	nt := makeTestNet(t, testConfig(1, 1))
	defer nt.Close()
	gm, _ := nt.SetGroupMonitor(0, nil)
	em, _ := nt.SetGroupMonitor(1, nil)
	sm, _ := nt.SetSpikeMonitor(0, nil)
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	if gm.Last() != nil || gm.LastSec() != -1 {
		t.Errorf("snapshot before the first second")
	}
	if err := nt.Run(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
	gs := gm.Last().(*GroupSnap)
	if !math32.IsNaN(gs.MeanV) {
		t.Errorf("MeanV of a generator group: %v", gs.MeanV)
	}
	// every neuron fires every 10 msec
	if gs.Rate != 100 || sm.Last().(*SpikeSnap).MeanRate() != 100 {
		t.Errorf("generator rate: %v", gs.Rate)
	}
	es := em.Last().(*GroupSnap)
	if math32.IsNaN(es.MeanV) || es.MeanV > 30 || es.MeanV < -100 {
		t.Errorf("MeanV: %v", es.MeanV)
	}
}

// syncBuffer is a bytes.Buffer safe for the log writes of several goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.String()
}

func TestTraceLog(t *testing.T) {
	for _, level := range []string{"trace", "debug"} {
		sb := &syncBuffer{}
		cf := testConfig(2, 1)
		cf.Log = logging.NewLogger(level, sb)
		nt := makeTestNet(t, cf)
		if _, err := nt.SetSpikeMonitor(1, nil); err != nil {
			t.Fatal(err)
		}
		if err := nt.Build(); err != nil {
			t.Fatal(err)
		}
		if err := nt.Run(context.Background(), 1, 0); err != nil {
			t.Fatal(err)
		}
		nt.FlushMonitors()
		nt.Close()
		out := sb.String()
		ncons := strings.Count(out, "consolidated weights")
		npub := strings.Count(out, "published snapshots")
		if level == "trace" {
			if ncons != 10 || npub != 1 || !strings.Contains(out, "level=TRACE") {
				t.Errorf("trace log: %d consolidation and %d publish records:\n%s", ncons, npub, out)
			}
		} else if ncons != 0 || npub != 0 {
			t.Errorf("debug log has trace records:\n%s", out)
		}
	}
}
