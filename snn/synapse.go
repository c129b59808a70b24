// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"reflect"

	"github.com/goki/gosl/slbool"
)

// Synapse holds the state of one synapse.  Wt is a magnitude: the sign comes
// from the polarity of the sending group.  The float32 variables listed in
// SynapseVars come first, in order.
type Synapse struct {
	Wt    float32 `desc:"weight magnitude, in [0, MaxWt]"`
	MaxWt float32 `desc:"upper bound of the weight"`
	WtChg float32 `desc:"accumulated STDP weight change, applied at the weight update interval"`
	STPU  float32 `desc:"short-term plasticity utilization u, as of STPLast"`
	STPX  float32 `desc:"short-term plasticity resources x, as of STPLast"`

	Pre     int32       `desc:"sending neuron index"`
	Post    int32       `desc:"receiving neuron index"`
	Conn    int32       `desc:"connection ID"`
	Delay   int32       `desc:"conduction delay, msec"`
	Plastic slbool.Bool `desc:"subject to STDP and homeostasis"`
	STPLast int64       `desc:"step at which STPU, STPX were last updated"`
	LastArr int64       `desc:"step of the last presynaptic spike arrival, NoSpike if none"`
}

var SynapseVars = []string{"Wt", "MaxWt", "WtChg", "STPU", "STPX"}

var SynapseVarsMap map[string]int

func init() {
	SynapseVarsMap = make(map[string]int, len(SynapseVars))
	for i, v := range SynapseVars {
		SynapseVarsMap[v] = i
	}
}

// SynapseVarByName returns the index of the variable in the Synapse, or error
func SynapseVarByName(varNm string) (int, error) {
	i, ok := SynapseVarsMap[varNm]
	if !ok {
		return 0, fmt.Errorf("Synapse VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in SynapseVars list)
func (sy *Synapse) VarByIndex(idx int) float32 {
	v := reflect.ValueOf(*sy)
	return v.Field(idx).Interface().(float32)
}

// VarByName returns variable by name, or error
func (sy *Synapse) VarByName(varNm string) (float32, error) {
	i, err := SynapseVarByName(varNm)
	if err != nil {
		return 0, err
	}
	return sy.VarByIndex(i), nil
}

// IsPlastic returns true if the synapse learns
func (sy *Synapse) IsPlastic() bool {
	return slbool.IsTrue(sy.Plastic)
}
