// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "github.com/goki/ki/kit"

// States are the phases of the network lifecycle.  Transitions only go forward:
// ConfigState -> SetupState (Build) -> ExecState (first Run).
type States int32

//go:generate stringer -type=States

var KiT_States = kit.Enums.AddEnum(StatesN, kit.NotBitFlag, nil)

func (ev States) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *States) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// ConfigState is the initial state, where groups and connections are declared
	ConfigState States = iota

	// SetupState is after Build: the network is compiled into flat arrays
	SetupState

	// ExecState is after the first Run
	ExecState

	StatesN
)

// Polarity is the sign of the synapses sent by a group
type Polarity int32

//go:generate stringer -type=Polarity

var KiT_Polarity = kit.Enums.AddEnum(PolarityN, kit.NotBitFlag, nil)

func (ev Polarity) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Polarity) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Excitatory groups send positive (AMPA / NMDA) input
	Excitatory Polarity = iota

	// Inhibitory groups send negative (GABAa / GABAb) input
	Inhibitory

	PolarityN
)

// Sign returns +1 for excitatory and -1 for inhibitory
func (ev Polarity) Sign() float32 {
	if ev == Inhibitory {
		return -1
	}
	return 1
}

// GroupKinds distinguish integrating neurons from external spike sources
type GroupKinds int32

//go:generate stringer -type=GroupKinds

var KiT_GroupKinds = kit.Enums.AddEnum(GroupKindsN, kit.NotBitFlag, nil)

func (ev GroupKinds) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *GroupKinds) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// RegularGroup neurons integrate Izhikevich dynamics
	RegularGroup GroupKinds = iota

	// SpikeGenGroup neurons fire according to a SpikeGenerator or PoissonRate
	SpikeGenGroup

	GroupKindsN
)

// Topologies are the primitive connectivity rules of a connection
type Topologies int32

//go:generate stringer -type=Topologies

var KiT_Topologies = kit.Enums.AddEnum(TopologiesN, kit.NotBitFlag, nil)

func (ev Topologies) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Topologies) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Full connects every pre neuron to every post neuron
	Full Topologies = iota

	// FullNoDirect is Full without same-index pairs
	FullNoDirect

	// OneToOne pairs neurons by index: requires equal group sizes
	OneToOne

	// Random connects each pair independently with probability Prob
	Random

	// Generator delegates each pair to a ConnGenerator
	Generator

	TopologiesN
)

// Backends are the execution strategies
type Backends int32

//go:generate stringer -type=Backends

var KiT_Backends = kit.Enums.AddEnum(BackendsN, kit.NotBitFlag, nil)

func (ev Backends) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Backends) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// HostBackend runs the kernels on worker goroutines over host memory
	HostBackend Backends = iota

	// AccelBackend runs the kernels on an accelerator device with its own memory
	AccelBackend

	BackendsN
)

// MonitorKinds are the kinds of per-second observers
type MonitorKinds int32

//go:generate stringer -type=MonitorKinds

var KiT_MonitorKinds = kit.Enums.AddEnum(MonitorKindsN, kit.NotBitFlag, nil)

func (ev MonitorKinds) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *MonitorKinds) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// SpikeMonitor records the spikes of a group
	SpikeMonitor MonitorKinds = iota

	// ConnMonitor records the weights between two groups
	ConnMonitor

	// GroupMonitor records group-level variables
	GroupMonitor

	MonitorKindsN
)
