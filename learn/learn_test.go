// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package learn

import (
	"testing"

	"github.com/goki/mat32"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = float32(1.0e-6)

func TestHebbian(t *testing.T) {
	sp := STDPParams{}
	sp.Defaults()
	sp.On = true
	if err := sp.Validate(); err != nil {
		t.Fatal(err)
	}
	if dif := mat32.Abs(sp.LTP(0) - 0.001); dif > difTol {
		t.Errorf("LTP(0): %v\n", sp.LTP(0))
	}
	if dif := mat32.Abs(sp.LTP(20) - 0.001*mat32.Exp(-1)); dif > difTol {
		t.Errorf("LTP(20): %v\n", sp.LTP(20))
	}
	if sp.LTD(5) >= 0 {
		t.Errorf("Hebbian LTD must depress: %v\n", sp.LTD(5))
	}
	if sp.LTP(5) <= sp.LTP(10) {
		t.Errorf("LTP must decay with timing difference\n")
	}
}

func TestAntiHebbian(t *testing.T) {
	sp := STDPParams{}
	sp.InhibDefaults()
	if sp.LTP(3) >= 0 || sp.LTD(3) <= 0 {
		t.Errorf("AntiHebbian signs: LTP: %v LTD: %v\n", sp.LTP(3), sp.LTD(3))
	}
}

func TestHalfHebbian(t *testing.T) {
	sp := STDPParams{}
	sp.Defaults()
	sp.Curve = HalfHebbian
	sp.Update()
	if sp.Kappa <= 1 {
		t.Errorf("Kappa should be > 1: %v\n", sp.Kappa)
	}
	if sp.LTP(sp.Gamma) <= 0 {
		t.Errorf("LTP at gamma should potentiate: %v\n", sp.LTP(sp.Gamma))
	}
	if sp.LTP(sp.Gamma+1) >= 0 {
		t.Errorf("LTP beyond gamma should depress: %v\n", sp.LTP(sp.Gamma+1))
	}
}

func TestSymmetric(t *testing.T) {
	sp := STDPParams{}
	sp.Defaults()
	sp.On = true
	sp.SetSymmetric(ConstantSymmetric, 0.002, 0.001, 6, 50)
	if err := sp.Validate(); err != nil {
		t.Fatal(err)
	}
	tsts := []struct {
		dt, cor float32
	}{{0, 0.002}, {5, 0.002}, {6, -0.001}, {50, -0.001}, {51, 0}}
	for _, ts := range tsts {
		if v := sp.LTP(ts.dt); v != ts.cor {
			t.Errorf("constant LTP(%v): %v, cor: %v\n", ts.dt, v, ts.cor)
		}
		if v := sp.LTD(ts.dt); v != ts.cor {
			t.Errorf("constant LTD(%v): %v, cor: %v\n", ts.dt, v, ts.cor)
		}
	}
	sp.Curve = LinearSymmetric
	if dif := mat32.Abs(sp.LTP(3) - 0.001); dif > difTol {
		t.Errorf("linear LTP(3): %v, cor: 0.001\n", sp.LTP(3))
	}
	sp.Lambda = 0
	if err := sp.Validate(); err == nil {
		t.Errorf("lambda 0 should fail validation\n")
	}
}

func TestSTP(t *testing.T) {
	sp := STPParams{}
	sp.Defaults()
	sp.On = true
	if err := sp.Validate(); err != nil {
		t.Fatal(err)
	}
	u, x := sp.Init()
	eff := sp.Spike(&u, &x)
	if dif := mat32.Abs(eff - 1); dif > difTol {
		t.Errorf("first spike efficacy: %v should be 1\n", eff)
	}
	if dif := mat32.Abs(x - (1 - sp.U)); dif > difTol {
		t.Errorf("x after first spike: %v, cor: %v\n", x, 1-sp.U)
	}
	eff2 := sp.Spike(&u, &x)
	if eff2 >= eff {
		t.Errorf("depressing synapse: second spike: %v should be weaker than first: %v\n", eff2, eff)
	}
	sp.Relax(&u, &x, 100000)
	if u > difTol || mat32.Abs(x-1) > difTol {
		t.Errorf("relaxed state should be u=0, x=1: %v %v\n", u, x)
	}

	fac := STPParams{}
	fac.InhibDefaults()
	u, x = fac.Init()
	e1 := fac.Spike(&u, &x)
	fac.Relax(&u, &x, 10)
	e2 := fac.Spike(&u, &x)
	if e2 <= e1 {
		t.Errorf("facilitating synapse: second spike: %v should be stronger than first: %v\n", e2, e1)
	}
}

// TestHomeoConverge runs the scaling rule against a plant whose rate is
// proportional to the weight, and checks that the rate reaches the target
func TestHomeoConverge(t *testing.T) {
	hp := HomeoParams{}
	hp.Defaults()
	hp.On = true
	target := float32(10)
	for _, w0 := range []float32{0.2, 3} {
		w := w0
		for sec := 0; sec < 200; sec++ {
			rate := 20 * w
			w *= hp.Factor(rate, target)
		}
		if dif := mat32.Abs(20*w - target); dif > 0.1 {
			t.Errorf("homeostasis from w=%v: rate: %v, target: %v\n", w0, 20*w, target)
		}
	}
	if f := hp.Factor(1000, target); f != 0 {
		t.Errorf("Factor should not be negative: %v\n", f)
	}
}

func TestAvgRate(t *testing.T) {
	hp := HomeoParams{}
	hp.Defaults()
	hp.AvgTimeScale = 1
	hp.Update()
	avg := float32(0)
	for ms := 0; ms < 20000; ms++ {
		avg = hp.AvgRate(avg, ms%50 == 0) // 20 Hz
	}
	if avg < 15 || avg > 25 {
		t.Errorf("AvgRate for 20 Hz: %v\n", avg)
	}
}

func TestNeuromod(t *testing.T) {
	np := NeuromodParams{}
	np.Defaults()
	if err := np.Validate(); err != nil {
		t.Fatal(err)
	}
	c := float32(5)
	for i := 0; i < 2000; i++ {
		c = np.Relax(DA, c)
	}
	if dif := mat32.Abs(c - 1); dif > 1.0e-4 {
		t.Errorf("DA should relax to baseline: %v\n", c)
	}
}

func TestWtUpdate(t *testing.T) {
	wp := WtUpdateParams{}
	wp.Defaults()
	if err := wp.Validate(); err != nil {
		t.Fatal(err)
	}
	if !wp.IsUpdate(999) || wp.IsUpdate(1000) {
		t.Errorf("IsUpdate should fire at the end of each second\n")
	}
	wt, chg := wp.Apply(0.1, 0.5, 1, 0.2)
	if wt != 0.2 || chg != 0 {
		t.Errorf("Apply clip: %v %v\n", wt, chg)
	}
	wp.DecayOn = true
	wt, chg = wp.Apply(0.1, -0.5, 1, 0.2)
	if wt != 0 || mat32.Abs(chg+0.45) > difTol {
		t.Errorf("Apply decay: %v %v\n", wt, chg)
	}
	wp.Interval = 50
	if err := wp.Validate(); err == nil {
		t.Errorf("interval 50 should fail\n")
	}
}
