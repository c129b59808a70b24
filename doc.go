// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spiking is the overall repository for a spiking neural network engine
built from groups of Izhikevich neurons connected by delayed, plastic synapses.

This top-level of the repository has no functional code -- everything is organized
into the following sub-packages:

* snn: the core engine.  A Network is configured (groups, connections, learning
rules), then built into flat neuron and synapse buffers, then executed msec by
msec on either the host (worker goroutines) or an accelerator device.  Spike,
group and connection monitors, spike counters, export / import of the full
network state, and JSON weights files are all here.

* izhi: Izhikevich neuron parameters and the per-msec membrane update, with the
standard named presets (RS, IB, CH, FS, LTS, ...).

* chans: synaptic conductance channels (AMPA, NMDA with Mg block, GABAa, GABAb)
and current-based input.

* learn: spike-timing dependent plasticity (E-STDP, I-STDP, with dopamine
modulation), short-term plasticity, homeostatic scaling, and neuromodulators.

* topo: 3D neuron grids and the spatial receptive fields used to restrict
connectivity.

* cmd/spikesim: a command line tool that builds networks from YAML files, runs
them, records monitor output into an in-memory or sqlite store, and resumes
from saved state.
*/
package spiking
