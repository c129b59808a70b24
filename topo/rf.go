// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"fmt"

	"github.com/emer/emergent/prjn"
	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// Radius is the receptive field radius on each axis.
// A negative value leaves the axis unconstrained, 0 requires the coordinates
// on that axis to match exactly, and a positive value bounds the axis.
// The bounded axes together form an ellipsoid: a pair is inside when
// sum over bounded axes of (d/r)^2 <= 1 (boundary inclusive).
type Radius struct {
	X float32
	Y float32
	Z float32
}

// AnyRadius returns the unconstrained radius
func AnyRadius() Radius {
	return Radius{X: -1, Y: -1, Z: -1}
}

// IsAny returns true if no axis is constrained
func (rd Radius) IsAny() bool {
	return rd.X < 0 && rd.Y < 0 && rd.Z < 0
}

// IsZero returns true if all axes are 0, which is not a usable receptive field
func (rd Radius) IsZero() bool {
	return rd.X == 0 && rd.Y == 0 && rd.Z == 0
}

// Validate returns an error for the all-zero radius
func (rd Radius) Validate() error {
	if rd.IsZero() {
		return fmt.Errorf("topo.Radius: radius (0, 0, 0) is not a valid receptive field")
	}
	return nil
}

// Contains returns true if the offset d between two locations is inside the field
func (rd Radius) Contains(d mat32.Vec3) bool {
	sum := float32(0)
	for _, ax := range [3][2]float32{{rd.X, d.X}, {rd.Y, d.Y}, {rd.Z, d.Z}} {
		r, dv := ax[0], ax[1]
		switch {
		case r < 0:
		case r == 0:
			if dv != 0 {
				return false
			}
		default:
			q := dv / r
			sum += q * q
		}
	}
	return sum <= 1
}

// String satisfies fmt.Stringer
func (rd Radius) String() string {
	return fmt.Sprintf("RF(%g, %g, %g)", rd.X, rd.Y, rd.Z)
}

// RF restricts the connections of a base pattern to pairs whose grid
// locations are within a receptive field radius
type RF struct {
	Base   prjn.Pattern `desc:"underlying pattern"`
	Radius Radius       `desc:"receptive field radius"`
	Send   Grid         `desc:"sending group grid"`
	Recv   Grid         `desc:"receiving group grid"`
}

// NewRF returns a new RF pattern
func NewRF(base prjn.Pattern, rad Radius, send, recv Grid) *RF {
	return &RF{Base: base, Radius: rad, Send: send, Recv: recv}
}

func (rf *RF) Name() string {
	return "RF" + rf.Base.Name()
}

func (rf *RF) Connect(send, recv *etensor.Shape, same bool) (sendn, recvn *etensor.Int32, cons *etensor.Bits) {
	sendn, recvn, cons = rf.Base.Connect(send, recv, same)
	if rf.Radius.IsAny() {
		return
	}
	slen := send.Len()
	rlen := recv.Len()
	for ri := 0; ri < rlen; ri++ {
		rloc := rf.Recv.Loc(ri)
		for si := 0; si < slen; si++ {
			idx := ri*slen + si
			if !cons.Values.Index(idx) {
				continue
			}
			if rf.Radius.Contains(rf.Send.Loc(si).Sub(rloc)) {
				continue
			}
			cons.Values.Set(idx, false)
			sendn.Values[si]--
			recvn.Values[ri]--
		}
	}
	return
}
