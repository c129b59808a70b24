// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"sync/atomic"
	"testing"
)

func TestSpikeRing(t *testing.T) {
	var sr SpikeRing
	sr.Init(3, 10)
	if sr.NSlots != 4 || len(sr.IDs) != 40 {
		t.Errorf("Init: %d slots, %d ids", sr.NSlots, len(sr.IDs))
	}
	if sr.Spikes(-1) != nil {
		t.Errorf("spikes before the start")
	}
	for ts := int64(0); ts < 6; ts++ {
		sr.Reset(ts)
		for ni := int32(0); ni < 10; ni++ {
			if (int64(ni)+ts)%3 == 0 {
				sr.Push(ts, ni)
			}
		}
	}
	sp := sr.Spikes(5)
	if len(sp) != 3 || sp[0] != 1 || sp[2] != 7 {
		t.Errorf("spikes at 5: %v", sp)
	}
	if n := sr.CountRange(5, 2, 8); n != 2 {
		t.Errorf("CountRange [2, 8) at 5: %d", n)
	}
	evs := sr.InFlight(6)
	if len(evs) == 0 || evs[0].T != 3 || evs[len(evs)-1].T != 5 {
		t.Errorf("InFlight at 6: %v", evs)
	}
	var cp SpikeRing
	cp.Init(3, 10)
	cp.Restore(evs)
	for ts := int64(3); ts < 6; ts++ {
		a, b := sr.Spikes(ts), cp.Spikes(ts)
		if len(a) != len(b) {
			t.Fatalf("restored step %d: %v vs %v", ts, a, b)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("restored step %d: %v vs %v", ts, a, b)
			}
		}
	}
}

func TestSplit(t *testing.T) {
	rs := Split(10, 3)
	if len(rs) != 3 || rs[0].St != 0 || rs[2].Ed != 10 {
		t.Errorf("Split: %v", rs)
	}
	for i := 1; i < len(rs); i++ {
		if rs[i].St != rs[i-1].Ed {
			t.Errorf("Split not contiguous: %v", rs)
		}
	}
}

func TestDispatch(t *testing.T) {
	reg := NewDeviceRegistry(Device{Name: "d0", Lanes: 3}, Device{Name: "d1", Lanes: 2})
	dc, err := reg.Acquire(-1, "a")
	if err != nil || dc.Dev.ID != 0 {
		t.Fatalf("first free device: %v %v", dc, err)
	}
	d1, err := reg.Acquire(-1, "b")
	if err != nil || d1.Dev.ID != 1 {
		t.Fatalf("second free device: %v", err)
	}
	if _, err := reg.Acquire(-1, "c"); err == nil {
		t.Errorf("acquired a device when all are in use")
	}
	if _, err := reg.Acquire(5, "c"); err == nil {
		t.Errorf("acquired an unknown device")
	}
	seen := make([]int32, 1000)
	var calls int32
	dc.Dispatch(len(seen), 64, func(st, ed int) {
		atomic.AddInt32(&calls, 1)
		for i := st; i < ed; i++ {
			seen[i]++
		}
	})
	if calls != 16 {
		t.Errorf("1000 elements in groups of 64: %d work groups", calls)
	}
	for i, s := range seen {
		if s != 1 {
			t.Fatalf("element %d run %d times", i, s)
		}
	}
	dc.Release()
	dc.Release()
	d1.Release()
	if _, err := reg.Acquire(1, "c"); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}
