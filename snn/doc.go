// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package snn is a spiking neural network engine: groups of Izhikevich neurons
connected by synapses with conduction delays, simulated in 1 msec steps with
spike-timing dependent plasticity, short-term plasticity, homeostatic scaling
and neuromodulation.

A Network goes through three states.  In CONFIG, groups (AddGroup,
AddSpikeGenGroup) and connections (Connect, ConnectGen) are declared, and the
parameters of each feature are set.  Build compiles the description into flat
arrays (Buffers) and starts the execution backend, entering SETUP, where
monitors, spike generators, inputs and weights can still be set.  The first
Run enters EXECUTION.  Every operation checks the state it is called in and
returns an *InvalidStateError otherwise.

Each step integrates all neurons, collects the spikes into a delay ring,
delivers the spikes arriving at the step (with STP and STDP), and updates
neuromodulators.  Weight changes are consolidated at the WtUpdate interval, and
homeostasis and monitor snapshots happen at each second boundary.

Two backends run the same kernels: the host backend uses persistent worker
goroutines over contiguous neuron ranges, and the accelerator backend runs work
groups on the lanes of a device acquired from a DeviceRegistry, on its own copy
of the buffers.  Results are identical across backends and thread counts for
the same seed.

Export and Import save and restore the complete state, so that a network can
be resumed with identical spike timing.
*/
package snn
