// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"strconv"
)

// SetSpikeCounter starts counting the spikes of each neuron of a group
func (nt *Network) SetSpikeCounter(grp int) error {
	if err := nt.checkState("SetSpikeCounter", ConfigState, SetupState); err != nil {
		return err
	}
	gp, err := nt.Group(grp)
	if err != nil {
		return err
	}
	if _, has := nt.Counters[grp]; has {
		return nil
	}
	nt.Counters[grp] = make([]int32, gp.N())
	nt.indexMonitors()
	return nil
}

// counter returns the spike counter of a group in EXECUTION
func (nt *Network) counter(op string, grp int) ([]int32, error) {
	if err := nt.checkState(op, ExecState); err != nil {
		return nil, err
	}
	ctr, has := nt.Counters[grp]
	if !has {
		return nil, nt.notFound(op, "spike counter", strconv.Itoa(grp))
	}
	return ctr, nil
}

// SpikeCounter returns a copy of the spike counts of each neuron of a group
// since the counter was set or last reset
func (nt *Network) SpikeCounter(grp int) ([]int32, error) {
	ctr, err := nt.counter("SpikeCounter", grp)
	if err != nil {
		return nil, err
	}
	return append([]int32(nil), ctr...), nil
}

// ResetSpikeCounter sets the spike counts of a group to 0
func (nt *Network) ResetSpikeCounter(grp int) error {
	ctr, err := nt.counter("ResetSpikeCounter", grp)
	if err != nil {
		return err
	}
	clear(ctr)
	return nil
}
