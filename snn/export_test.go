// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// from returns the log without the snapshots before second sec
func (sl *spikeLog) from(sec int) *spikeLog {
	fl := &spikeLog{snaps: make([][]*SpikeSnap, len(sl.snaps))}
	for gi, gs := range sl.snaps {
		fl.snaps[gi] = gs[sec:]
	}
	return fl
}

func TestExportImport(t *testing.T) {
	cf := testConfig(21, 2)
	orig, osl := runTestNet(t, cf, true, 1000)
	defer orig.Close()
	st, err := orig.Export()
	if err != nil {
		t.Fatal(err)
	}
	if st.Time != 1000 || len(st.Neurons) != 70 || len(st.Syns) != orig.NumSynapses() {
		t.Errorf("exported state: time: %d neurons: %d synapses: %d", st.Time, len(st.Neurons), len(st.Syns))
	}
	if len(st.Spikes) == 0 {
		t.Errorf("no spikes in flight at export")
	}

	fn := filepath.Join(t.TempDir(), "state.json.gz")
	if err := orig.SaveState(fn); err != nil {
		t.Fatal(err)
	}
	opts := &ImportOpts{SpikeGens: map[int]SpikeGenerator{0: everyTen}}
	imps := make([]*Network, 3)
	if imps[0], err = Import(st, testConfig(99, 1), opts); err != nil {
		t.Fatal(err)
	}
	if imps[1], err = OpenState(fn, testConfig(0, 3), opts); err != nil {
		t.Fatal(err)
	}
	acf := testConfig(0, 0)
	acf.Backend = AccelBackend
	acf.Devices = testDevices()
	if imps[2], err = Import(st, acf, opts); err != nil {
		t.Fatal(err)
	}

	if err := orig.Run(context.Background(), 2, 0); err != nil {
		t.Fatal(err)
	}
	orig.FlushMonitors()
	want := osl.from(1)
	for k, nt := range imps {
		if nt.State != SetupState || nt.Time != 1000 || nt.Rand.Seed != 21 {
			t.Errorf("import %d: state: %v time: %d seed: %d", k, nt.State, nt.Time, nt.Rand.Seed)
		}
		sl := &spikeLog{}
		sl.monitor(t, nt)
		if err := nt.Run(context.Background(), 2, 0); err != nil {
			t.Fatal(err)
		}
		nt.FlushMonitors()
		if !want.equal(t, sl) {
			t.Errorf("import %d: spikes differ from the original after export", k)
		}
		if sl.snaps[1][0].Second != 1 {
			t.Errorf("import %d: first snapshot is of second %d", k, sl.snaps[1][0].Second)
		}
		w1, _ := orig.Weights(0)
		w2, _ := nt.Weights(0)
		for i := range w1.Values {
			a, b := w1.Values[i], w2.Values[i]
			if a != b && !(a != a && b != b) {
				t.Errorf("import %d: weight %d: %v vs. %v", k, i, a, b)
				break
			}
		}
		nt.Close()
	}
}

func TestImportInvalid(t *testing.T) {
	nt := makeTestNet(t, testConfig(1, 1))
	defer nt.Close()
	if _, err := nt.Export(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Export in CONFIG: %v", err)
	}
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	st, _ := nt.Export()
	st.Neurons = st.Neurons[:len(st.Neurons)-1]
	if _, err := Import(st, testConfig(1, 1), nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Import of a truncated state: %v", err)
	}
	st, _ = nt.Export()
	st.Syns[0], st.Syns[len(st.Syns)-1] = st.Syns[len(st.Syns)-1], st.Syns[0]
	if _, err := Import(st, testConfig(1, 1), nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Import of unsorted synapses: %v", err)
	}
	st, _ = nt.Export()
	if _, err := Import(st, testConfig(1, 1), &ImportOpts{SpikeGens: map[int]SpikeGenerator{1: everyTen}}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Import with a spike generator for a regular group: %v", err)
	}
}

func TestImportInconsistent(t *testing.T) {
	nt := makeTestNet(t, testConfig(3, 1))
	defer nt.Close()
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	if err := nt.Run(context.Background(), 0, 50); err != nil {
		t.Fatal(err)
	}
	n := nt.NumNeurons()
	tests := []struct {
		name string
		edit func(st *State)
		msg  string
	}{
		{"slot overflow", func(st *State) {
			st.Spikes = nil
			for i := 0; i <= n; i++ {
				st.Spikes = append(st.Spikes, SpikeEvent{Nrn: 0, T: st.Time - 1})
			}
		}, "duplicate"},
		{"unsorted neurons", func(st *State) {
			st.Spikes = []SpikeEvent{{Nrn: 5, T: st.Time - 2}, {Nrn: 3, T: st.Time - 2}}
		}, "order"},
		{"unsorted steps", func(st *State) {
			st.Spikes = []SpikeEvent{{Nrn: 1, T: st.Time - 1}, {Nrn: 2, T: st.Time - 2}}
		}, "order"},
		{"post outside connection", func(st *State) {
			st.Syns[0].Post = 0 // Input neuron, but connection 0 goes to Exc
		}, "not from group"},
		{"pre outside connection", func(st *State) {
			st.Syns[0].Conn = 1 // Exc -> Inh, but the pre neuron is in Input
		}, "not from group"},
	}
	for _, tt := range tests {
		st, err := nt.Export()
		if err != nil {
			t.Fatal(err)
		}
		tt.edit(st)
		_, err = Import(st, testConfig(3, 1), &ImportOpts{SpikeGens: map[int]SpikeGenerator{0: everyTen}})
		if !errors.Is(err, ErrConfiguration) || !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%s: Import: %v", tt.name, err)
		}
	}
}
