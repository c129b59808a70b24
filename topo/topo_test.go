// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

func countCons(cons *etensor.Bits) int {
	n := 0
	for i := 0; i < cons.Len(); i++ {
		if cons.Values.Index(i) {
			n++
		}
	}
	return n
}

func TestGridLoc(t *testing.T) {
	gr := NewGrid(3, 2, 2)
	if gr.Len() != 12 {
		t.Errorf("Len: %v\n", gr.Len())
	}
	x, y, z := gr.Coords(7)
	if x != 1 || y != 0 || z != 1 {
		t.Errorf("Coords(7): %v %v %v\n", x, y, z)
	}
	loc := gr.Loc(0)
	if loc != (mat32.Vec3{X: -1, Y: -0.5, Z: -0.5}) {
		t.Errorf("Loc(0): %v\n", loc)
	}
	if err := NewGrid(0, 1, 1).Validate(); err == nil {
		t.Errorf("zero grid should fail\n")
	}
}

func TestFullNoDirect(t *testing.T) {
	sh := Line(10).Shape()
	sendn, recvn, cons := NewFullNoDirect().Connect(sh, sh, true)
	if n := countCons(cons); n != 90 {
		t.Errorf("FullNoDirect 10x10: %v cons, cor: 90\n", n)
	}
	for i := 0; i < 10; i++ {
		if sendn.Values[i] != 9 || recvn.Values[i] != 9 {
			t.Errorf("FullNoDirect counts at %d: %v %v\n", i, sendn.Values[i], recvn.Values[i])
		}
	}
}

func TestFull(t *testing.T) {
	sh := Line(10).Shape()
	_, _, cons := Full().Connect(sh, sh, true)
	if n := countCons(cons); n != 100 {
		t.Errorf("Full 10x10 same group: %v cons, cor: 100\n", n)
	}
}

func TestRandom(t *testing.T) {
	ssh := Line(100).Shape()
	rsh := Line(100).Shape()
	rp := NewRandom(0.1, 42, 1)
	_, recvn, cons := rp.Connect(ssh, rsh, false)
	n := countCons(cons)
	if n < 800 || n > 1200 {
		t.Errorf("Random p=0.1 of 10000: %v cons\n", n)
	}
	tot := int32(0)
	for _, rn := range recvn.Values {
		tot += rn
	}
	if int(tot) != n {
		t.Errorf("recv counts: %v != cons: %v\n", tot, n)
	}
	_, _, cons2 := rp.Connect(ssh, rsh, false)
	for i := 0; i < cons.Len(); i++ {
		if cons.Values.Index(i) != cons2.Values.Index(i) {
			t.Fatalf("Random is not reproducible at: %v\n", i)
		}
	}
	rp.Stream = 2
	_, _, cons3 := rp.Connect(ssh, rsh, false)
	same := true
	for i := 0; i < cons.Len(); i++ {
		if cons.Values.Index(i) != cons3.Values.Index(i) {
			same = false
			break
		}
	}
	if same {
		t.Errorf("different streams should give different patterns\n")
	}
}

func TestRadius(t *testing.T) {
	rd := Radius{X: 2, Y: 0, Z: -1}
	tsts := []struct {
		d   mat32.Vec3
		cor bool
	}{
		{mat32.Vec3{X: 2}, true}, // inclusive boundary
		{mat32.Vec3{X: 2.5}, false},
		{mat32.Vec3{X: 1, Y: 1}, false},
		{mat32.Vec3{X: 1, Z: 100}, true},
	}
	for _, ts := range tsts {
		if rd.Contains(ts.d) != ts.cor {
			t.Errorf("Contains(%v): %v, cor: %v\n", ts.d, !ts.cor, ts.cor)
		}
	}
	if err := (Radius{}).Validate(); err == nil {
		t.Errorf("all-zero radius should fail\n")
	}
	if !AnyRadius().IsAny() {
		t.Errorf("AnyRadius should be unconstrained\n")
	}
}

func TestRF(t *testing.T) {
	gr := NewGrid(5, 5, 1)
	sh := gr.Shape()
	rf := NewRF(Full(), Radius{X: 1, Y: 1, Z: -1}, gr, gr)
	sendn, recvn, cons := rf.Connect(sh, sh, false)
	// center neuron (2,2) = 12 sees itself and its 4 neighbors
	if recvn.Values[12] != 5 {
		t.Errorf("center recv count: %v, cor: 5\n", recvn.Values[12])
	}
	// corner neuron sees itself and 2 neighbors
	if sendn.Values[0] != 3 {
		t.Errorf("corner send count: %v, cor: 3\n", sendn.Values[0])
	}
	if n := countCons(cons); n != 105 {
		t.Errorf("RF total cons: %v, cor: 105\n", n)
	}
}
