// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emer/emergent/prjn"
	"github.com/emer/spiking/izhi"
	"github.com/emer/spiking/learn"
	"github.com/emer/spiking/topo"
	"github.com/goki/gosl/slbool"
	"github.com/goki/gosl/slrand"
)

// Build compiles the groups and connections into the flat buffers and sets up
// the execution backend, moving from CONFIG to SETUP.  Build is all-or-nothing:
// on any error the network stays in CONFIG and can be fixed and built again.
func (nt *Network) Build() error {
	if err := nt.checkState("Build", ConfigState); err != nil {
		return err
	}
	nt.Timers.Start("Build")
	defer nt.Timers.Stop("Build")
	if err := nt.validate(); err != nil {
		return err
	}
	nt.Rand.Lock()
	ctr := nt.Rand.Counter
	nt.Rand.Unlock()
	bf, connSyns, err := nt.compile()
	if err != nil {
		nt.undoCompile(ctr)
		return nt.logErr(err)
	}
	if err := nt.start(bf, connSyns); err != nil {
		nt.undoCompile(ctr)
		return err
	}
	nt.Log.Info("built", "network", nt.Nm, "groups", len(nt.Groups), "conns", len(nt.Conns),
		"neurons", len(bf.Neurons), "synapses", len(bf.Syns), "maxDelay", bf.MaxDelay, "backend", nt.Cfg.Backend.String())
	return nil
}

// start creates the executor on compiled buffers and enters SETUP
func (nt *Network) start(bf *Buffers, connSyns [][]int32) error {
	ex, err := nt.newExec(bf)
	if err != nil {
		return nt.logErr(err)
	}
	nt.Buf = bf
	nt.ConnSyns = connSyns
	nt.Exec = ex
	nt.stepCtx = StepCtx{Seed: nt.Rand.Seed, Chans: nt.Chans, WtUpdate: nt.WtUpdate}
	nt.grpSpikes = make([]int, len(nt.Groups))
	nt.indexMonitors()
	nt.setState(SetupState)
	return nil
}

// undoCompile restores the random stream to ctr and clears the synapse
// counts, so that a failed Build leaves no trace
func (nt *Network) undoCompile(ctr slrand.Uint2) {
	nt.Rand.Lock()
	nt.Rand.Counter = ctr
	nt.Rand.Unlock()
	for _, cn := range nt.Conns {
		cn.NSyn = 0
	}
}

func (nt *Network) newExec(bf *Buffers) (Executor, error) {
	switch nt.Cfg.Backend {
	case AccelBackend:
		return NewAccelExec(bf, nt.Cfg.Devices, nt.Cfg.DeviceID, nt.Nm, &nt.Timers)
	default:
		return NewHostExec(bf, nt.Cfg.NThreads, nt.Cfg.LockThreads, &nt.Timers, nt.Log), nil
	}
}

// validate checks everything before anything is allocated.  All problems are
// logged; a topology problem is returned as such, others as one ConfigurationError.
func (nt *Network) validate() error {
	var emsg []string
	var topoErr error
	add := func(err error) {
		emsg = append(emsg, err.Error())
		var te *TopologyError
		if topoErr == nil && errors.As(err, &te) {
			topoErr = err
		}
	}
	if err := nt.Cfg.Validate(); err != nil {
		add(err)
	}
	if len(nt.Groups) == 0 {
		add(fmt.Errorf("network has no groups"))
	}
	for _, gp := range nt.Groups {
		if err := gp.Validate(); err != nil {
			add(fmt.Errorf("group %s: %w", gp.Label(), err))
		}
	}
	for _, cn := range nt.Conns {
		if err := nt.validateConn(cn); err != nil {
			add(err)
		}
	}
	if err := nt.Chans.Validate(); err != nil {
		add(err)
	}
	if err := nt.WtUpdate.Validate(); err != nil {
		add(err)
	}
	if len(emsg) == 0 {
		return nil
	}
	if topoErr != nil {
		return nt.logErr(topoErr)
	}
	return nt.logErr(&ConfigurationError{Op: "Build", Msg: strings.Join(emsg, "\n")})
}

// compile lays out the neurons and synapses.  All stream draws happen here,
// under one acquisition of the random stream, in group then connection order.
func (nt *Network) compile() (*Buffers, [][]int32, error) {
	bf := &Buffers{}
	nn := 0
	for _, gp := range nt.Groups {
		gp.St = nn
		nn += gp.N()
		gp.Ed = nn
	}
	bf.Neurons = make([]Neuron, nn)

	nt.Rand.Lock()
	for _, gp := range nt.Groups {
		nt.initNeurons(bf, gp)
	}
	var syns []Synapse
	for _, cn := range nt.Conns {
		cs, err := nt.compileConn(cn)
		if err != nil {
			nt.Rand.Unlock()
			return nil, nil, err
		}
		cn.NSyn = len(cs)
		syns = append(syns, cs...)
	}
	nt.Rand.Unlock()

	sort.SliceStable(syns, func(i, j int) bool {
		si, sj := &syns[i], &syns[j]
		if si.Pre != sj.Pre {
			return si.Pre < sj.Pre
		}
		if si.Delay != sj.Delay {
			return si.Delay < sj.Delay
		}
		if si.Post != sj.Post {
			return si.Post < sj.Post
		}
		return si.Conn < sj.Conn
	})
	bf.Syns = syns
	bf.MaxDelay = 1
	for i := range syns {
		bf.MaxDelay = max(bf.MaxDelay, int(syns[i].Delay))
	}
	connSyns := bf.BuildIndexes(len(nt.Conns))
	nt.setGroupVals(bf)
	nt.setConnVals(bf)
	bf.Ring.Init(bf.MaxDelay, nn)
	return bf, connSyns, nil
}

// BuildIndexes computes DelaySt, RecvSt and RecvSyn from the sorted synapses,
// and returns the synapse indexes of each of nconn connections
func (bf *Buffers) BuildIndexes(nconn int) [][]int32 {
	nn := len(bf.Neurons)
	md := bf.MaxDelay
	bf.DelaySt = make([]int32, nn*md+1)
	bf.RecvSt = make([]int32, nn+1)
	for i := range bf.Syns {
		sy := &bf.Syns[i]
		bf.DelaySt[int(sy.Pre)*md+int(sy.Delay)]++
		bf.RecvSt[sy.Post+1]++
	}
	for i := 1; i < len(bf.DelaySt); i++ {
		bf.DelaySt[i] += bf.DelaySt[i-1]
	}
	for i := 1; i < len(bf.RecvSt); i++ {
		bf.RecvSt[i] += bf.RecvSt[i-1]
	}
	bf.RecvSyn = make([]int32, len(bf.Syns))
	rcur := make([]int32, nn) // temporary: number of incoming synapses placed so far
	connSyns := make([][]int32, nconn)
	for i := range bf.Syns {
		sy := &bf.Syns[i]
		bf.RecvSyn[bf.RecvSt[sy.Post]+rcur[sy.Post]] = int32(i)
		rcur[sy.Post]++
		connSyns[sy.Conn] = append(connSyns[sy.Conn], int32(i))
	}
	return connSyns
}

// initNeurons samples the parameters and sets the initial state of the
// neurons of a group.  Rand must be locked.
func (nt *Network) initNeurons(bf *Buffers, gp *Group) {
	for i := 0; i < gp.N(); i++ {
		nrn := &bf.Neurons[gp.St+i]
		nrn.Group = int32(gp.ID)
		nrn.LastSpike = NoSpike
		if gp.IsGen() {
			nrn.Gen = slbool.True
			if gp.Rate != nil {
				nrn.Rate = gp.Rate.Rates[i]
				nrn.RefPer = gp.Rate.RefPeriod
			}
		} else {
			nrn.A, nrn.B, nrn.C, nrn.D = gp.Izhi.Sample(&nt.Rand)
			nrn.V, nrn.U = izhi.InitVU(nrn.B)
		}
		if gp.Homeo.On {
			br := gp.Homeo.BaseRate
			if gp.Homeo.BaseRateSD > 0 {
				br += gp.Homeo.BaseRateSD * nt.Rand.NormFloat()
				br = max(br, 0.1*gp.Homeo.BaseRate)
			}
			nrn.BaseRate = br
			nrn.AvgRate = br
		}
	}
}

// connPattern returns the connectivity pattern of a connection
func (nt *Network) connPattern(cn *Conn, pre, post *Group) prjn.Pattern {
	cs := &cn.Spec
	var pat prjn.Pattern
	switch cs.Topo {
	case FullNoDirect:
		pat = topo.NewFullNoDirect()
	case OneToOne:
		pat = topo.OneToOne()
	case Random:
		pat = topo.NewRandom(cs.Prob, nt.Rand.Seed, ConnStream(nt.Rand.Seed, cn.ID))
	default:
		pat = topo.Full()
	}
	if !cs.RF.IsAny() {
		pat = topo.NewRF(pat, cs.RF, pre.Grid, post.Grid)
	}
	return pat
}

// compileConn returns the synapses of a connection.  Rand must be locked.
func (nt *Network) compileConn(cn *Conn) ([]Synapse, error) {
	pre, post := nt.Groups[cn.Pre], nt.Groups[cn.Post]
	if cn.Spec.Topo == Generator {
		return nt.compileGen(cn, pre, post)
	}
	cs := &cn.Spec
	pat := nt.connPattern(cn, pre, post)
	ssh := pre.Grid.Shape()
	rsh := post.Grid.Shape()
	_, recvn, cons := pat.Connect(ssh, rsh, cn.Pre == cn.Post)
	slen := ssh.Len()
	rlen := rsh.Len()
	tcon := 0
	for _, n := range recvn.Values {
		tcon += int(n)
	}
	syns := make([]Synapse, 0, tcon)
	cbits := cons.Values
	for ri := 0; ri < rlen; ri++ {
		rbi := ri * slen // recv bit index
		for si := 0; si < slen; si++ {
			if !cbits.Index(rbi + si) {
				continue
			}
			wt := cs.Wt.Gen(&nt.Rand)
			dl := cs.Delay.Gen(&nt.Rand)
			syns = append(syns, newSynapse(cn.ID, pre.St+si, post.St+ri, wt, cs.Wt.Max, dl, cs.Plastic))
		}
	}
	return syns, nil
}

// compileGen calls the generator of a connection once per pair, pre-major
func (nt *Network) compileGen(cn *Conn, pre, post *Group) ([]Synapse, error) {
	var syns []Synapse
	for i := 0; i < pre.N(); i++ {
		for j := 0; j < post.N(); j++ {
			cd := cn.Gen.Connect(pre.ID, i, post.ID, j)
			if !cd.Connect {
				continue
			}
			maxWt := cd.MaxWt
			if maxWt == 0 {
				maxWt = cd.Wt
			}
			if cd.Wt < 0 || maxWt < cd.Wt {
				return nil, &ConfigurationError{Op: "Build", Msg: fmt.Sprintf("connection %d: generator pair (%d, %d): need 0 <= weight <= max weight: %g %g", cn.ID, i, j, cd.Wt, maxWt)}
			}
			if cd.Delay < 1 || cd.Delay > nt.Cfg.MaxDelay {
				return nil, &ConfigurationError{Op: "Build", Msg: fmt.Sprintf("connection %d: generator pair (%d, %d): delay: %d not in [1, %d]", cn.ID, i, j, cd.Delay, nt.Cfg.MaxDelay)}
			}
			syns = append(syns, newSynapse(cn.ID, pre.St+i, post.St+j, cd.Wt, maxWt, cd.Delay, cd.Plastic))
		}
	}
	return syns, nil
}

func newSynapse(conn, pre, post int, wt, maxWt float32, delay int, plastic bool) Synapse {
	return Synapse{Wt: wt, MaxWt: maxWt, STPX: 1, Pre: int32(pre), Post: int32(post), Conn: int32(conn),
		Delay: int32(delay), Plastic: slbool.FromBool(plastic), LastArr: NoSpike}
}

// setGroupVals sets the kernel parameters of the groups, their neuromodulator
// sources, and initial concentrations
func (nt *Network) setGroupVals(bf *Buffers) {
	ng := len(nt.Groups)
	bf.Groups = make([]GroupVals, ng)
	bf.NMod = make([]float32, ng*int(learn.NeuromodsN))
	bf.RelSrc = nil
	for gi, gp := range nt.Groups {
		gv := &bf.Groups[gi]
		gv.St, gv.Ed = int32(gp.St), int32(gp.Ed)
		gv.Gen = slbool.FromBool(gp.IsGen())
		gv.ESTDP, gv.ISTDP = gp.ESTDP, gp.ISTDP
		gv.STP = gp.STP
		gv.Homeo = gp.Homeo
		gv.Neuromod = gp.Neuromod
		gv.Release = gp.Release
		for m := learn.Neuromods(0); m < learn.NeuromodsN; m++ {
			bf.NMod[NModIdx(gi, m)] = gp.Neuromod.Base[m]
		}
		gv.RelSt = int32(len(bf.RelSrc))
		var srcs []int
		for _, cn := range nt.Conns {
			if cn.Post == gi && nt.Groups[cn.Pre].Release.On && cn.NSyn > 0 {
				srcs = append(srcs, cn.Pre)
			}
		}
		sort.Ints(srcs)
		for i, s := range srcs {
			if i > 0 && s == srcs[i-1] {
				continue
			}
			bf.RelSrc = append(bf.RelSrc, int32(s))
		}
		gv.RelEd = int32(len(bf.RelSrc))
	}
}

// setConnVals sets the kernel parameters of the connections
func (nt *Network) setConnVals(bf *Buffers) {
	bf.Conns = make([]ConnVals, len(nt.Conns))
	for ci, cn := range nt.Conns {
		pol := nt.Groups[cn.Pre].Pol
		bf.Conns[ci] = ConnVals{Pre: int32(cn.Pre), Post: int32(cn.Post), Inhib: slbool.FromBool(pol == Inhibitory),
			Sign: pol.Sign(), MulFast: cn.Spec.MulFast, MulSlow: cn.Spec.MulSlow}
	}
}
