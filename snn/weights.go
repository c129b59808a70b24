// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/weights"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/indent"
)

// weightConn returns the connection for a weight operation in SETUP or EXECUTION
func (nt *Network) weightConn(op string, connID int) (*Conn, error) {
	if err := nt.checkState(op, SetupState, ExecState); err != nil {
		return nil, err
	}
	if connID < 0 || connID >= len(nt.Conns) {
		return nil, nt.notFound(op, "connection", strconv.Itoa(connID))
	}
	return nt.Conns[connID], nil
}

// setWt stores wt in sy: never below 0, and clamped to MaxWt unless
// updateRange, in which case MaxWt grows to wt
func setWt(sy *Synapse, wt float32, updateRange bool) {
	if wt < 0 {
		wt = 0
	}
	if wt > sy.MaxWt {
		if updateRange {
			sy.MaxWt = wt
		} else {
			wt = sy.MaxWt
		}
	}
	sy.Wt = wt
}

// BiasWeights adds bias to all weights of a connection
func (nt *Network) BiasWeights(connID int, bias float32, updateRange bool) error {
	cn, err := nt.weightConn("BiasWeights", connID)
	if err != nil {
		return err
	}
	nt.syncHost()
	for _, si := range nt.ConnSyns[cn.ID] {
		sy := &nt.Buf.Syns[si]
		setWt(sy, sy.Wt+bias, updateRange)
	}
	nt.pushHost()
	return nil
}

// ScaleWeights multiplies all weights of a connection by scale >= 0
func (nt *Network) ScaleWeights(connID int, scale float32, updateRange bool) error {
	cn, err := nt.weightConn("ScaleWeights", connID)
	if err != nil {
		return err
	}
	if scale < 0 {
		return nt.configErr("ScaleWeights", "connection %d: scale must be >= 0: %g", connID, scale)
	}
	nt.syncHost()
	for _, si := range nt.ConnSyns[cn.ID] {
		sy := &nt.Buf.Syns[si]
		setWt(sy, sy.Wt*scale, updateRange)
	}
	nt.pushHost()
	return nil
}

// findSyn returns the synapse index of connection cn from pre neuron preIdx
// to post neuron postIdx (indexes within the groups), -1 if none
func (nt *Network) findSyn(cn *Conn, preIdx, postIdx int) int32 {
	pre := int32(nt.Groups[cn.Pre].St + preIdx)
	post := int32(nt.Groups[cn.Post].St + postIdx)
	bf := nt.Buf
	for _, si := range bf.RecvSyn[bf.RecvSt[post]:bf.RecvSt[post+1]] {
		sy := &bf.Syns[si]
		if sy.Pre == pre && sy.Conn == int32(cn.ID) {
			return si
		}
	}
	return -1
}

// SetWeight sets the weight of the synapse of a connection from pre neuron
// preIdx to post neuron postIdx (indexes within the groups)
func (nt *Network) SetWeight(connID, preIdx, postIdx int, wt float32, updateRange bool) error {
	cn, err := nt.weightConn("SetWeight", connID)
	if err != nil {
		return err
	}
	if preIdx < 0 || preIdx >= nt.Groups[cn.Pre].N() || postIdx < 0 || postIdx >= nt.Groups[cn.Post].N() {
		return nt.notFound("SetWeight", "neuron", fmt.Sprintf("(%d, %d) in connection %d", preIdx, postIdx, connID))
	}
	si := nt.findSyn(cn, preIdx, postIdx)
	if si < 0 {
		return nt.notFound("SetWeight", "synapse", fmt.Sprintf("(%d, %d) in connection %d", preIdx, postIdx, connID))
	}
	nt.syncHost()
	setWt(&nt.Buf.Syns[si], wt, updateRange)
	nt.pushHost()
	return nil
}

// Weights returns the [pre, post] matrix of weight magnitudes of a
// connection, NaN where there is no synapse
func (nt *Network) Weights(connID int) (*etensor.Float32, error) {
	cn, err := nt.weightConn("Weights", connID)
	if err != nil {
		return nil, err
	}
	nt.syncHost()
	pg, rg := nt.Groups[cn.Pre], nt.Groups[cn.Post]
	wts := etensor.NewFloat32([]int{pg.N(), rg.N()}, nil, []string{"Pre", "Post"})
	nan := math32.NaN()
	for i := range wts.Values {
		wts.Values[i] = nan
	}
	for _, si := range nt.ConnSyns[cn.ID] {
		sy := &nt.Buf.Syns[si]
		wts.Set([]int{int(sy.Pre) - pg.St, int(sy.Post) - rg.St}, sy.Wt)
	}
	return wts, nil
}

// Delays returns the [pre, post] matrix of delays of a connection, 0 where
// there is no synapse
func (nt *Network) Delays(connID int) (*etensor.Int32, error) {
	cn, err := nt.weightConn("Delays", connID)
	if err != nil {
		return nil, err
	}
	pg, rg := nt.Groups[cn.Pre], nt.Groups[cn.Post]
	dls := etensor.NewInt32([]int{pg.N(), rg.N()}, nil, []string{"Pre", "Post"})
	for _, si := range nt.ConnSyns[cn.ID] {
		sy := &nt.Buf.Syns[si]
		dls.Set([]int{int(sy.Pre) - pg.St, int(sy.Post) - rg.St}, sy.Delay)
	}
	return dls, nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Weights File

// SaveWtsJSON saves the weights of all connections to a JSON-formatted file.
// If filename has .gz extension, then file is gzip compressed.
func (nt *Network) SaveWtsJSON(filename string) error {
	if err := nt.checkState("SaveWtsJSON", SetupState, ExecState); err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return nt.logErr(err)
	}
	defer fp.Close()
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr := gzip.NewWriter(fp)
		err = nt.WriteWtsJSON(gzr)
		gzr.Close()
	} else {
		bw := bufio.NewWriter(fp)
		err = nt.WriteWtsJSON(bw)
		bw.Flush()
	}
	return err
}

// OpenWtsJSON opens weights saved by SaveWtsJSON, for a network of the same
// structure.  If filename has .gz extension, then file is gzip uncompressed.
func (nt *Network) OpenWtsJSON(filename string) error {
	if err := nt.checkState("OpenWtsJSON", SetupState, ExecState); err != nil {
		return err
	}
	fp, err := os.Open(filename)
	if err != nil {
		return nt.logErr(err)
	}
	defer fp.Close()
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			return nt.logErr(err)
		}
		defer gzr.Close()
		return nt.ReadWtsJSON(gzr)
	}
	return nt.ReadWtsJSON(bufio.NewReader(fp))
}

// WriteWtsJSON writes the weights of all connections, organized as in the
// weights package: one layer per receiving group, with one projection per
// incoming connection, from the receiver-side perspective
func (nt *Network) WriteWtsJSON(w io.Writer) error {
	nt.syncHost()
	depth := 0
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Network\": %q,\n", nt.Nm)))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"MetaData\": {\n")))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Time\": \"%d\"\n", nt.Time)))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	ng := len(nt.Groups)
	if ng == 0 {
		w.Write([]byte("\"Layers\": null\n"))
	} else {
		w.Write([]byte("\"Layers\": [\n"))
		depth++
		for gi, gp := range nt.Groups {
			nt.writeGroupWtsJSON(w, gp, depth)
			if gi == ng-1 {
				w.Write([]byte("\n"))
			} else {
				w.Write([]byte(",\n"))
			}
		}
		depth--
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("]\n"))
	}
	depth--
	w.Write(indent.TabBytes(depth))
	_, err := w.Write([]byte("}\n"))
	return err
}

// writeGroupWtsJSON writes the incoming connections of a group
func (nt *Network) writeGroupWtsJSON(w io.Writer, gp *Group, depth int) {
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Layer\": %q,\n", gp.Name)))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"MetaData\": {\n")))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"ID\": \"%d\"\n", gp.ID)))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	var rcns []*Conn
	for _, cn := range nt.Conns {
		if cn.Post == gp.ID {
			rcns = append(rcns, cn)
		}
	}
	np := len(rcns)
	if np == 0 {
		w.Write([]byte("\"Prjns\": null\n"))
	} else {
		w.Write([]byte("\"Prjns\": [\n"))
		depth++
		for pi, cn := range rcns {
			nt.writeConnWtsJSON(w, cn, depth)
			if pi == np-1 {
				w.Write([]byte("\n"))
			} else {
				w.Write([]byte(",\n"))
			}
		}
		depth--
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("]\n"))
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// writeConnWtsJSON writes the weights of one connection, by receiving neuron
func (nt *Network) writeConnWtsJSON(w io.Writer, cn *Conn, depth int) {
	bf := nt.Buf
	pre, post := nt.Groups[cn.Pre], nt.Groups[cn.Post]
	nr := post.N()
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"From\": %q,\n", pre.Name)))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"MetaData\": {\n")))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Conn\": \"%d\"\n", cn.ID)))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Rs\": [\n")))
	depth++
	var sis []int32
	for ri := 0; ri < nr; ri++ {
		sis = sis[:0]
		rn := post.St + ri
		for _, si := range bf.RecvSyn[bf.RecvSt[rn]:bf.RecvSt[rn+1]] {
			if bf.Syns[si].Conn == int32(cn.ID) {
				sis = append(sis, si)
			}
		}
		nc := len(sis)
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("{\n"))
		depth++
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"Ri\": %v,\n", ri)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"N\": %v,\n", nc)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Si\": [ "))
		for ci, si := range sis {
			w.Write([]byte(fmt.Sprintf("%v", int(bf.Syns[si].Pre)-pre.St)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("],\n"))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Wt\": [ "))
		for ci, si := range sis {
			w.Write([]byte(strconv.FormatFloat(float64(bf.Syns[si].Wt), 'g', weights.Prec, 32)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("]\n"))
		depth--
		w.Write(indent.TabBytes(depth))
		if ri == nr-1 {
			w.Write([]byte("}\n"))
		} else {
			w.Write([]byte("},\n"))
		}
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("]\n"))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// ReadWtsJSON reads weights written by WriteWtsJSON and sets them
func (nt *Network) ReadWtsJSON(r io.Reader) error {
	nw, err := weights.NetReadJSON(r)
	if err != nil {
		return nt.logErr(err)
	}
	return nt.SetWts(nw)
}

// SetWts sets the weights from decoded values.  Connections are identified by
// the "Conn" metadata of each projection.  Every synapse is located before any
// weight is changed: on error no weight is modified.
func (nt *Network) SetWts(nw *weights.Network) error {
	if err := nt.checkState("SetWts", SetupState, ExecState); err != nil {
		return err
	}
	type wtSet struct {
		si int32
		wt float32
	}
	var sets []wtSet
	for li := range nw.Layers {
		lw := &nw.Layers[li]
		for pi := range lw.Prjns {
			pw := &lw.Prjns[pi]
			cid, err := strconv.Atoi(pw.MetaData["Conn"])
			if err != nil || cid < 0 || cid >= len(nt.Conns) {
				return nt.notFound("SetWts", "connection", lw.Layer+" <- "+pw.From)
			}
			cn := nt.Conns[cid]
			for ri := range pw.Rs {
				rw := &pw.Rs[ri]
				if len(rw.Si) != len(rw.Wt) {
					return nt.configErr("SetWts", "connection %d recv %d: %d senders with %d weights", cid, rw.Ri, len(rw.Si), len(rw.Wt))
				}
				if rw.Ri < 0 || rw.Ri >= nt.Groups[cn.Post].N() {
					return nt.notFound("SetWts", "neuron", fmt.Sprintf("%d in group %d", rw.Ri, cn.Post))
				}
				for ci, sni := range rw.Si {
					if sni < 0 || sni >= nt.Groups[cn.Pre].N() {
						return nt.notFound("SetWts", "neuron", fmt.Sprintf("%d in group %d", sni, cn.Pre))
					}
					si := nt.findSyn(cn, sni, rw.Ri)
					if si < 0 {
						return nt.notFound("SetWts", "synapse", fmt.Sprintf("(%d, %d) in connection %d", sni, rw.Ri, cid))
					}
					sets = append(sets, wtSet{si: si, wt: rw.Wt[ci]})
				}
			}
		}
	}
	nt.syncHost()
	for _, ws := range sets {
		setWt(&nt.Buf.Syns[ws.si], ws.wt, false)
	}
	nt.pushHost()
	return nil
}
