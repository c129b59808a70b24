// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"github.com/emer/emergent/prjn"
	"github.com/emer/etable/etensor"
	"github.com/goki/gosl/slrand"
)

// FullNoDirect connects every sender to every receiver except the sender
// with the same index as the receiver
type FullNoDirect struct {
}

// NewFullNoDirect returns a new FullNoDirect pattern
func NewFullNoDirect() *FullNoDirect {
	return &FullNoDirect{}
}

func (fp *FullNoDirect) Name() string {
	return "FullNoDirect"
}

func (fp *FullNoDirect) Connect(send, recv *etensor.Shape, same bool) (sendn, recvn *etensor.Int32, cons *etensor.Bits) {
	sendn, recvn, cons = prjn.NewTensors(send, recv)
	slen := send.Len()
	rlen := recv.Len()
	for ri := 0; ri < rlen; ri++ {
		for si := 0; si < slen; si++ {
			if si == ri {
				continue
			}
			cons.Values.Set(ri*slen+si, true)
			sendn.Values[si]++
			recvn.Values[ri]++
		}
	}
	return
}

// Random connects each sender, receiver pair independently with probability PCon.
// Draws are counter-based (Philox2x32), indexed by the pair and keyed by Seed and
// Stream, so the result only depends on those values and not on call order.
type Random struct {
	PCon     float32 `desc:"probability of connection for each pair"`
	NoDirect bool    `desc:"exclude same-index pairs"`
	Seed     uint32  `desc:"random key"`
	Stream   uint32  `desc:"stream id: use a different value for each connection"`
}

// NewRandom returns a new Random pattern
func NewRandom(pcon float32, seed, stream uint32) *Random {
	return &Random{PCon: pcon, Seed: seed, Stream: stream}
}

func (rp *Random) Name() string {
	return "Random"
}

func (rp *Random) Connect(send, recv *etensor.Shape, same bool) (sendn, recvn *etensor.Int32, cons *etensor.Bits) {
	sendn, recvn, cons = prjn.NewTensors(send, recv)
	slen := send.Len()
	rlen := recv.Len()
	for ri := 0; ri < rlen; ri++ {
		for si := 0; si < slen; si++ {
			if rp.NoDirect && si == ri {
				continue
			}
			idx := ri*slen + si
			ctr := slrand.Uint2{X: uint32(idx), Y: rp.Stream ^ (uint32(uint64(idx)>>32) << 20)}
			if !slrand.RandBoolP(ctr, rp.Seed, rp.PCon) {
				continue
			}
			cons.Values.Set(idx, true)
			sendn.Values[si]++
			recvn.Values[ri]++
		}
	}
	return
}

// OneToOne returns the standard one-to-one pattern for groups of equal size
func OneToOne() prjn.Pattern {
	return prjn.NewOneToOne()
}

// Full returns the standard full pattern, with self connections included
// even when sender and receiver are the same group
func Full() prjn.Pattern {
	fp := prjn.NewFull()
	fp.SelfCon = true
	return fp
}
