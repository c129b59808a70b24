// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store keeps the monitor snapshots of simulation runs, in memory or
// in a sqlite database, for later analysis.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/emer/spiking/learn"
	"github.com/emer/spiking/snn"
)

// Run identifies one simulation run
type Run struct {
	ID      string
	Network string
	Seed    uint32
	Backend string
	Started time.Time
}

// SpikeRow is one recorded spike
type SpikeRow struct {
	Group  int
	Second int64
	Idx    int32
	Ms     int16
}

// T returns the step of the spike
func (sr SpikeRow) T() int64 {
	return sr.Second*1000 + int64(sr.Ms)
}

// GroupRow is one second of a group monitor
type GroupRow struct {
	Group    int
	Second   int64
	Neuromod [learn.NeuromodsN]float32
	Rate     float32
	AvgRate  float32
	MeanV    float32
}

// ConnRow is one second of a connection monitor: summary statistics plus the
// full [pre, post] weight matrix in row-major order, NaN where not connected
type ConnRow struct {
	Pre       int
	Post      int
	Second    int64
	NPre      int
	NPost     int
	NSyn      int
	MinWt     float32
	MaxWt     float32
	MeanWt    float32
	NChanged  int
	AbsChange float32
	Wts       []float32
}

// Wt returns the weight from pre neuron i to post neuron j
func (cr *ConnRow) Wt(i, j int) float32 {
	return cr.Wts[i*cr.NPost+j]
}

// Store defines persistence of runs and their monitor snapshots
type Store interface {
	Init(ctx context.Context) error
	BeginRun(ctx context.Context, run Run) error
	Runs(ctx context.Context) ([]Run, error)
	SaveSnapshot(ctx context.Context, runID string, snap snn.Snapshot) error
	Spikes(ctx context.Context, runID string, grp int, fromSec, toSec int64) ([]SpikeRow, error)
	GroupStats(ctx context.Context, runID string, grp int) ([]GroupRow, error)
	ConnStats(ctx context.Context, runID string, pre, post int) ([]ConnRow, error)
	Close() error
}

// NewStore returns a memory store for kind "" or "memory", and a sqlite store
// on path for kind "sqlite".  The store is not yet initialized.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// spikeRows flattens a spike snapshot
func spikeRows(ss *snn.SpikeSnap) []SpikeRow {
	rows := make([]SpikeRow, len(ss.Spikes))
	for i, sp := range ss.Spikes {
		rows[i] = SpikeRow{Group: ss.Group, Second: ss.Second, Idx: sp.Idx, Ms: sp.Ms}
	}
	return rows
}

func groupRow(gs *snn.GroupSnap) GroupRow {
	return GroupRow{Group: gs.Group, Second: gs.Second, Neuromod: gs.Neuromod, Rate: gs.Rate, AvgRate: gs.AvgRate, MeanV: gs.MeanV}
}

// connRow summarizes a connection snapshot.  Weights are counted as changed
// when they moved by any amount since the previous snapshot.
func connRow(cs *snn.ConnSnap) ConnRow {
	cr := ConnRow{Pre: cs.Pre, Post: cs.Post, Second: cs.Second, NPre: cs.NPre(), NPost: cs.NPost()}
	cr.Wts = make([]float32, len(cs.Wts.Values))
	copy(cr.Wts, cs.Wts.Values)
	cr.NSyn = cs.NumSynapses()
	if cr.NSyn > 0 {
		rng := cs.WtRange()
		cr.MinWt, cr.MaxWt = rng.Min, rng.Max
		sum := float32(0)
		for _, w := range cr.Wts {
			if !math32.IsNaN(w) {
				sum += w
			}
		}
		cr.MeanWt = sum / float32(cr.NSyn)
	}
	cr.NChanged = cs.NumWtsChanged(0)
	cr.AbsChange = cs.TotalAbsWtChange()
	return cr
}
