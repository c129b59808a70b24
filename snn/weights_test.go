// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/weights"
)

// makeWtNet returns a built network with a full 3 x 4 connection of weights
// 0.5 in [0, 1], and a one-to-one 4 x 4 connection
func makeWtNet(t *testing.T) *Network {
	t.Helper()
	nt := NewNetwork("WtNet", testConfig(1, 1))
	a, _ := nt.AddGroup("A", 3, Excitatory)
	b, _ := nt.AddGroup("B", 4, Excitatory)
	c, _ := nt.AddGroup("C", 4, Inhibitory)
	nt.Connect(a, b, NewConnSpec(Full, RangeWt(0, 0.5, 1), Delays(1, 1), true))
	nt.Connect(c, b, NewConnSpec(OneToOne, RangeWt(0, 0.5, 1), Delays(1, 2), false))
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	return nt
}

func TestWeightOps(t *testing.T) {
	nt := makeWtNet(t)
	defer nt.Close()
	if err := nt.BiasWeights(0, 0.2, false); err != nil {
		t.Fatal(err)
	}
	w, _ := nt.Weights(0)
	if dif := math32.Abs(w.Value([]int{1, 2}) - 0.7); dif > 1e-6 {
		t.Errorf("BiasWeights: %v", w.Value([]int{1, 2}))
	}
	nt.BiasWeights(0, 1, false)
	w, _ = nt.Weights(0)
	if w.Values[0] != 1 {
		t.Errorf("BiasWeights not clamped to max: %v", w.Values[0])
	}
	nt.BiasWeights(0, 1, true)
	w, _ = nt.Weights(0)
	if w.Values[0] != 2 || nt.Buf.Syns[nt.ConnSyns[0][0]].MaxWt != 2 {
		t.Errorf("BiasWeights with updateRange: %v", w.Values[0])
	}
	nt.BiasWeights(0, -5, true)
	w, _ = nt.Weights(0)
	if w.Values[0] != 0 {
		t.Errorf("BiasWeights below 0: %v", w.Values[0])
	}
	if err := nt.ScaleWeights(1, -1, false); !errors.Is(err, ErrConfiguration) {
		t.Errorf("negative scale: %v", err)
	}
	if err := nt.ScaleWeights(1, 3, false); err != nil {
		t.Fatal(err)
	}
	w, _ = nt.Weights(1)
	if w.Value([]int{2, 2}) != 1 || !math32.IsNaN(w.Value([]int{2, 1})) {
		t.Errorf("ScaleWeights: %v", w.Values)
	}
	if err := nt.SetWeight(1, 3, 3, 0.25, false); err != nil {
		t.Fatal(err)
	}
	if v := nt.Buf.Syns[nt.findSyn(nt.Conns[1], 3, 3)].Wt; v != 0.25 {
		t.Errorf("SetWeight: %v", v)
	}
	if err := nt.SetWeight(1, 3, 2, 0.25, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetWeight without synapse: %v", err)
	}
	if err := nt.SetWeight(1, 9, 2, 0.25, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetWeight of unknown neuron: %v", err)
	}
	if err := nt.ScaleWeights(5, 1, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("ScaleWeights of unknown connection: %v", err)
	}
}

func TestWeightOpsState(t *testing.T) {
	nt := NewNetwork("Cfg", testConfig(1, 1))
	defer nt.Close()
	a, _ := nt.AddGroup("A", 3, Excitatory)
	nt.Connect(a, a, nil)
	if err := nt.BiasWeights(0, 1, false); !errors.Is(err, ErrInvalidState) {
		t.Errorf("BiasWeights in CONFIG: %v", err)
	}
	if _, err := nt.Weights(0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Weights in CONFIG: %v", err)
	}
}

func TestWtsJSON(t *testing.T) {
	nt := makeWtNet(t)
	defer nt.Close()
	nt.SetWeight(0, 2, 1, 0.125, false)
	nt.SetWeight(1, 0, 0, 0.75, false)
	var buf bytes.Buffer
	if err := nt.WriteWtsJSON(&buf); err != nil {
		t.Fatal(err)
	}
	nw, err := weights.NetReadJSON(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("weights JSON does not parse: %v\n%s", err, buf.String())
	}
	if nw.Network != "WtNet" || len(nw.Layers) != 3 || len(nw.Layers[1].Prjns) != 2 {
		t.Errorf("weights structure: %+v", nw)
	}
	rs := nw.Layers[1].Prjns[0].Rs[1]
	if rs.Ri != 1 || rs.N != 3 || rs.Si[2] != 2 || rs.Wt[2] != 0.125 {
		t.Errorf("recv 1 of A -> B: %+v", rs)
	}

	fn := filepath.Join(t.TempDir(), "wts.json.gz")
	if err := nt.SaveWtsJSON(fn); err != nil {
		t.Fatal(err)
	}
	n2 := makeWtNet(t)
	defer n2.Close()
	if err := n2.OpenWtsJSON(fn); err != nil {
		t.Fatal(err)
	}
	for ci := range nt.Conns {
		w1, _ := nt.Weights(ci)
		w2, _ := n2.Weights(ci)
		for i := range w1.Values {
			a, b := w1.Values[i], w2.Values[i]
			if a != b && !(math32.IsNaN(a) && math32.IsNaN(b)) {
				t.Errorf("conn %d weight %d: saved %v opened %v", ci, i, a, b)
			}
		}
	}
}

func TestSetWtsAllOrNothing(t *testing.T) {
	nt := makeWtNet(t)
	defer nt.Close()
	nw := &weights.Network{Network: "WtNet", Layers: []weights.Layer{{Layer: "B", Prjns: []weights.Prjn{{
		From:     "C",
		MetaData: map[string]string{"Conn": "1"},
		Rs: []weights.Recv{
			{Ri: 0, N: 1, Si: []int{0}, Wt: []float32{0.9}},
			{Ri: 1, N: 1, Si: []int{0}, Wt: []float32{0.9}},
		},
	}}}}}
	if err := nt.SetWts(nw); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetWts with a missing synapse: %v", err)
	}
	w, _ := nt.Weights(1)
	if w.Value([]int{0, 0}) != 0.5 {
		t.Errorf("failed SetWts changed a weight: %v", w.Value([]int{0, 0}))
	}
}

func TestWeightsAccel(t *testing.T) {
	cf := testConfig(1, 0)
	cf.Backend = AccelBackend
	cf.Devices = testDevices()
	nt := makeTestNet(t, cf)
	defer nt.Close()
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	nt.Run(context.Background(), 0, 50)
	if err := nt.ScaleWeights(1, 0, false); err != nil {
		t.Fatal(err)
	}
	nt.Run(context.Background(), 0, 50)
	w, _ := nt.Weights(1)
	for i, v := range w.Values {
		if v != 0 {
			t.Fatalf("weight %d on the device after scaling by 0: %v", i, v)
		}
	}
}
