// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"strconv"

	"github.com/emer/spiking/topo"
)

// WtRange is the range of synaptic weight magnitudes of a connection.
// The sign of the synapse comes from the polarity of the sending group.
type WtRange struct {
	Min    float32 `desc:"minimum weight"`
	Init   float32 `desc:"initial weight, unless Random"`
	Max    float32 `desc:"maximum weight, the bound for plasticity"`
	Random bool    `desc:"draw initial weights uniformly in [Min, Max]"`
}

// RangeWt returns a fixed initial weight range
func RangeWt(min, init, max float32) WtRange {
	return WtRange{Min: min, Init: init, Max: max}
}

// RandWt returns a range with uniform random initial weights
func RandWt(min, max float32) WtRange {
	return WtRange{Min: min, Init: min, Max: max, Random: true}
}

// FixedWt returns a range where all weights are wt
func FixedWt(wt float32) WtRange {
	return WtRange{Min: wt, Init: wt, Max: wt}
}

// Validate checks ordering and non-negativity
func (wr *WtRange) Validate() error {
	if wr.Min < 0 {
		return fmt.Errorf("weights are magnitudes and must be >= 0: min: %g", wr.Min)
	}
	if wr.Max < wr.Min {
		return fmt.Errorf("max weight: %g < min weight: %g", wr.Max, wr.Min)
	}
	if !wr.Random && (wr.Init < wr.Min || wr.Init > wr.Max) {
		return fmt.Errorf("initial weight: %g not in [%g, %g]", wr.Init, wr.Min, wr.Max)
	}
	return nil
}

// Gen returns an initial weight.  Lock must be held on rnd.
func (wr *WtRange) Gen(rnd *Rand) float32 {
	if !wr.Random {
		return wr.Init
	}
	return wr.Min + (wr.Max-wr.Min)*rnd.Float()
}

// DelayRange is the range of synaptic delays of a connection, in msec
type DelayRange struct {
	Min int `def:"1" desc:"minimum delay"`
	Max int `def:"1" desc:"maximum delay"`
}

// Delays returns a delay range
func Delays(min, max int) DelayRange {
	return DelayRange{Min: min, Max: max}
}

// Validate checks 1 <= Min <= Max <= maxDelay
func (dr *DelayRange) Validate(maxDelay int) error {
	if dr.Min < 1 {
		return fmt.Errorf("min delay: %d must be >= 1", dr.Min)
	}
	if dr.Max < dr.Min {
		return fmt.Errorf("max delay: %d < min delay: %d", dr.Max, dr.Min)
	}
	if dr.Max > maxDelay {
		return fmt.Errorf("max delay: %d exceeds network MaxDelay: %d", dr.Max, maxDelay)
	}
	return nil
}

// Gen returns a uniform integer delay.  Lock must be held on rnd.
func (dr *DelayRange) Gen(rnd *Rand) int {
	if dr.Max == dr.Min {
		return dr.Min
	}
	return dr.Min + rnd.Intn(dr.Max-dr.Min+1)
}

// ConnSpec is the declarative description of a connection
type ConnSpec struct {
	Topo    Topologies  `desc:"connectivity rule"`
	Prob    float32     `viewif:"Topo=Random" def:"0.1" desc:"probability of connection of each pair"`
	Wt      WtRange     `desc:"weight magnitudes"`
	Delay   DelayRange  `desc:"conduction delays, msec"`
	RF      topo.Radius `desc:"receptive field radius: any negative axis is unconstrained"`
	Plastic bool        `desc:"synapses are subject to STDP and homeostasis"`
	MulFast float32     `def:"1" desc:"scaling of the fast channel (AMPA / GABAa) input"`
	MulSlow float32     `def:"1" desc:"scaling of the slow channel (NMDA / GABAb) input"`
}

// Defaults sets a full, fixed, unit-delay connection with unconstrained receptive field
func (cs *ConnSpec) Defaults() {
	cs.Topo = Full
	cs.Prob = 0.1
	cs.Wt = FixedWt(1)
	cs.Delay = Delays(1, 1)
	cs.RF = topo.AnyRadius()
	cs.MulFast = 1
	cs.MulSlow = 1
}

// NewConnSpec returns a spec with defaults, the given topology and weights
func NewConnSpec(tp Topologies, wt WtRange, delay DelayRange, plastic bool) *ConnSpec {
	cs := &ConnSpec{}
	cs.Defaults()
	cs.Topo = tp
	cs.Wt = wt
	cs.Delay = delay
	cs.Plastic = plastic
	return cs
}

// Conn is a connection between a sending (pre) and receiving (post) group
type Conn struct {
	ID   int      `desc:"index in the network, never reused"`
	Pre  int      `desc:"sending group ID"`
	Post int      `desc:"receiving group ID"`
	Spec ConnSpec `desc:"connectivity, weights and delays"`
	NSyn int      `inactive:"+" desc:"number of synapses, set at build"`

	Gen ConnGenerator `json:"-" view:"-" desc:"custom connectivity, for Topo = Generator"`
}

// Label is used in messages
func (cn *Conn) Label() string {
	return strconv.Itoa(cn.ID) + ": " + strconv.Itoa(cn.Pre) + " -> " + strconv.Itoa(cn.Post)
}

// validateConn checks a connection against the groups and the network settings
func (nt *Network) validateConn(cn *Conn) error {
	op := "Connect"
	if cn.Pre < 0 || cn.Pre >= len(nt.Groups) {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: unknown pre group: %d", cn.ID, cn.Pre)}
	}
	if cn.Post < 0 || cn.Post >= len(nt.Groups) {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: unknown post group: %d", cn.ID, cn.Post)}
	}
	post := nt.Groups[cn.Post]
	if post.IsGen() {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: post group %s is a spike generator group", cn.ID, post.Label())}
	}
	cs := &cn.Spec
	if cs.Topo < 0 || cs.Topo >= TopologiesN {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: invalid topology: %v", cn.ID, cs.Topo)}
	}
	if cs.MulFast < 0 || cs.MulSlow < 0 {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: channel scaling must be >= 0: %g %g", cn.ID, cs.MulFast, cs.MulSlow)}
	}
	if cs.Topo == Generator {
		if cn.Gen == nil {
			return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: generator topology without a ConnGenerator", cn.ID)}
		}
		return nil
	}
	if err := cs.Wt.Validate(); err != nil {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: %v", cn.ID, err)}
	}
	if err := cs.Delay.Validate(nt.Cfg.MaxDelay); err != nil {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: %v", cn.ID, err)}
	}
	if err := cs.RF.Validate(); err != nil {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: %v", cn.ID, err)}
	}
	if cs.Topo == Random && (cs.Prob < 0 || cs.Prob > 1) {
		return &ConfigurationError{Op: op, Msg: fmt.Sprintf("connection %d: probability: %g not in [0,1]", cn.ID, cs.Prob)}
	}
	if cs.Topo == OneToOne {
		pre := nt.Groups[cn.Pre]
		if pre.N() != post.N() {
			return &TopologyError{Conn: cn.ID, Topo: cs.Topo, Msg: fmt.Sprintf("group sizes differ: %s: %d, %s: %d", pre.Label(), pre.N(), post.Label(), post.N())}
		}
	}
	return nil
}

// addConn validates and registers a connection
func (nt *Network) addConn(op string, cn *Conn) (int, error) {
	if err := nt.checkState(op, ConfigState); err != nil {
		return -1, err
	}
	cn.ID = len(nt.Conns)
	if err := nt.validateConn(cn); err != nil {
		return -1, nt.logErr(err)
	}
	nt.Conns = append(nt.Conns, cn)
	return cn.ID, nil
}

// Connect adds a connection from group pre to group post, returning its ID.
// A nil spec uses the ConnSpec defaults.
func (nt *Network) Connect(pre, post int, cs *ConnSpec) (int, error) {
	cn := &Conn{Pre: pre, Post: post}
	if cs == nil {
		cn.Spec.Defaults()
	} else {
		cn.Spec = *cs
	}
	if cn.Spec.Topo == Generator {
		return -1, nt.configErr("Connect", "use ConnectGen for generator connections")
	}
	return nt.addConn("Connect", cn)
}

// ConnectGen adds a connection whose synapses are decided by gen, which is
// called exactly once for every (pre, post) neuron pair at build time
func (nt *Network) ConnectGen(pre, post int, gen ConnGenerator, mulFast, mulSlow float32) (int, error) {
	cn := &Conn{Pre: pre, Post: post, Gen: gen}
	cn.Spec.Defaults()
	cn.Spec.Topo = Generator
	cn.Spec.MulFast = mulFast
	cn.Spec.MulSlow = mulSlow
	return nt.addConn("ConnectGen", cn)
}

// Conn returns the connection with given ID
func (nt *Network) Conn(id int) (*Conn, error) {
	if id < 0 || id >= len(nt.Conns) {
		return nil, nt.notFound("Conn", "connection", strconv.Itoa(id))
	}
	return nt.Conns[id], nil
}

// ConnsBetween returns the IDs of all connections from pre to post
func (nt *Network) ConnsBetween(pre, post int) []int {
	var ids []int
	for _, cn := range nt.Conns {
		if cn.Pre == pre && cn.Post == post {
			ids = append(ids, cn.ID)
		}
	}
	return ids
}
