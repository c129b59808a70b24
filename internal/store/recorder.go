// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/emer/spiking/snn"
)

// Recorder is a snn.Sink that saves each snapshot it receives into a Store.
// One Recorder may serve any number of monitors.  Publish cannot return an
// error, so the first failure is kept for Err and every failure is logged.
type Recorder struct {
	Store Store
	RunID string
	Log   *slog.Logger

	ctx   context.Context
	mu    sync.Mutex
	err   error
	nSnap int
}

// NewRecorder returns a recorder of snapshots for run runID.  ctx bounds the
// store writes; log may be nil for slog.Default().
func NewRecorder(ctx context.Context, st Store, runID string, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{Store: st, RunID: runID, Log: log, ctx: ctx}
}

func (rc *Recorder) Publish(snap snn.Snapshot) {
	err := rc.Store.SaveSnapshot(rc.ctx, rc.RunID, snap)
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if err != nil {
		rc.Log.Error("saving snapshot", "run", rc.RunID, "kind", snap.Kind().String(), "second", snap.Sec(), "err", err)
		if rc.err == nil {
			rc.err = err
		}
		return
	}
	rc.nSnap++
}

// Err returns the first error of saving a snapshot
func (rc *Recorder) Err() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.err
}

// NSaved returns the number of snapshots saved
func (rc *Recorder) NSaved() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.nSnap
}
