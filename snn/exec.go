// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

// Executor runs the kernels of each step on the buffers of a built network.
// The network calls the phases in order: SetGenFire, Step, and at their
// intervals Consolidate and Homeostasis.  Pull makes the network's own
// Buffers current, Push makes the executor see changes made to them.
type Executor interface {
	// Backend returns the kind of executor
	Backend() Backends

	// SetGenFire flags generator neurons that fire on the next step
	SetGenFire(ids []int32)

	// Step integrates, detects, delivers and updates neuromodulators for step
	// ctx.T, returning the neurons that spiked, in increasing order.  The
	// returned slice is only valid until the next Step.
	Step(ctx *StepCtx) []int32

	// Consolidate applies the accumulated weight changes
	Consolidate(ctx *StepCtx)

	// Homeostasis applies homeostatic scaling
	Homeostasis(ctx *StepCtx)

	// Pull copies the dynamic state into the network's Buffers
	Pull()

	// Push copies the network's Buffers into the executor state
	Push()

	// Release stops workers and frees devices
	Release()
}
