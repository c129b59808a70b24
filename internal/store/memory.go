// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/emer/spiking/snn"
)

// memRun holds the records of one run
type memRun struct {
	run    Run
	spikes []SpikeRow
	groups []GroupRow
	conns  []ConnRow
}

// MemoryStore keeps everything in memory, for tests and short runs
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]*memRun
	order       []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]*memRun)
	s.order = nil
	return nil
}

func (s *MemoryStore) BeginRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	if run.ID == "" {
		return errors.New("run ID is required")
	}
	if _, has := s.runs[run.ID]; has {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	s.runs[run.ID] = &memRun{run: run}
	s.order = append(s.order, run.ID)
	return nil
}

func (s *MemoryStore) Runs(_ context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, len(s.order))
	for i, id := range s.order {
		runs[i] = s.runs[id].run
	}
	return runs, nil
}

// getRun must be called with the lock held
func (s *MemoryStore) getRun(runID string) (*memRun, error) {
	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}
	mr, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("unknown run: %s", runID)
	}
	return mr, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, runID string, snap snn.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mr, err := s.getRun(runID)
	if err != nil {
		return err
	}
	switch sn := snap.(type) {
	case *snn.SpikeSnap:
		mr.spikes = append(mr.spikes, spikeRows(sn)...)
	case *snn.GroupSnap:
		mr.groups = append(mr.groups, groupRow(sn))
	case *snn.ConnSnap:
		mr.conns = append(mr.conns, connRow(sn))
	default:
		return fmt.Errorf("unsupported snapshot type: %T", snap)
	}
	return nil
}

func (s *MemoryStore) Spikes(_ context.Context, runID string, grp int, fromSec, toSec int64) ([]SpikeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mr, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	var rows []SpikeRow
	for _, sr := range mr.spikes {
		if sr.Group == grp && sr.Second >= fromSec && sr.Second < toSec {
			rows = append(rows, sr)
		}
	}
	// time order, then neuron order as recorded
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].T() < rows[j].T() })
	return rows, nil
}

func (s *MemoryStore) GroupStats(_ context.Context, runID string, grp int) ([]GroupRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mr, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	var rows []GroupRow
	for _, gr := range mr.groups {
		if gr.Group == grp {
			rows = append(rows, gr)
		}
	}
	return rows, nil
}

func (s *MemoryStore) ConnStats(_ context.Context, runID string, pre, post int) ([]ConnRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mr, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	var rows []ConnRow
	for _, cr := range mr.conns {
		if cr.Pre == pre && cr.Post == post {
			rows = append(rows, cr)
		}
	}
	return rows, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
