// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package topo has the connectivity patterns for spiking networks, as
prjn.Pattern implementations over 3D neuron grids: full, full without
same-index pairs, one-to-one, Bernoulli random, and receptive-field
restrictions of any of these.
*/
package topo

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// Grid is the 3D placement of the neurons of a group.  Neurons are placed with
// x varying fastest, then y, then z.
type Grid struct {
	X int `desc:"number of neurons along x"`
	Y int `desc:"number of neurons along y"`
	Z int `desc:"number of neurons along z"`
}

// NewGrid returns a grid of given size
func NewGrid(x, y, z int) Grid {
	return Grid{X: x, Y: y, Z: z}
}

// Line returns the default grid for a group without explicit placement: n x 1 x 1
func Line(n int) Grid {
	return Grid{X: n, Y: 1, Z: 1}
}

// Len returns the number of neurons
func (gr Grid) Len() int {
	return gr.X * gr.Y * gr.Z
}

// Validate checks that all dimensions are positive
func (gr Grid) Validate() error {
	if gr.X <= 0 || gr.Y <= 0 || gr.Z <= 0 {
		return fmt.Errorf("topo.Grid: all dimensions must be > 0: %v", gr)
	}
	return nil
}

// Shape returns the etensor shape, outer to inner: Z, Y, X
func (gr Grid) Shape() *etensor.Shape {
	return etensor.NewShape([]int{gr.Z, gr.Y, gr.X}, nil, []string{"Z", "Y", "X"})
}

// Coords returns the integer grid coordinates of neuron idx
func (gr Grid) Coords(idx int) (x, y, z int) {
	x = idx % gr.X
	y = (idx / gr.X) % gr.Y
	z = idx / (gr.X * gr.Y)
	return
}

// Loc returns the location of neuron idx, centered on the grid origin
// so that grids of different sizes are aligned on their centers
func (gr Grid) Loc(idx int) mat32.Vec3 {
	x, y, z := gr.Coords(idx)
	return mat32.Vec3{
		X: float32(x) - float32(gr.X-1)/2,
		Y: float32(y) - float32(gr.Y-1)/2,
		Z: float32(z) - float32(gr.Z-1)/2,
	}
}

// String satisfies fmt.Stringer
func (gr Grid) String() string {
	return fmt.Sprintf("Grid(%d x %d x %d)", gr.X, gr.Y, gr.Z)
}
