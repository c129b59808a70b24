// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emer/spiking/internal/config"
	"github.com/emer/spiking/internal/logging"
	"github.com/emer/spiking/internal/store"
	"github.com/emer/spiking/snn"
	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newLogger returns the logger from the flags, falling back to the config level
func newLogger(cmd *cobra.Command, cfgLevel string) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfgLevel
	}
	if jsonLog, _ := cmd.Flags().GetBool("json-log"); jsonLog {
		return logging.NewJSONLogger(level, cmd.ErrOrStderr())
	}
	return logging.NewLogger(level, cmd.ErrOrStderr())
}

// addRunFlags adds the flags shared by run and resume
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("seconds", -1, "Seconds to simulate (default from config)")
	cmd.Flags().Int("msec", -1, "Additional msec to simulate (default from config)")
	cmd.Flags().String("backend", "", "Execution backend: host or accel (default from config)")
	cmd.Flags().Int("threads", -1, "Host worker threads, 0 for all cores (default from config)")
	cmd.Flags().String("store", "", "Snapshot store: none, memory or sqlite (default from config)")
	cmd.Flags().String("db", "", "Sqlite database path (default from config)")
	cmd.Flags().String("run-id", "", "Run ID in the store (default: network name and start time)")
	cmd.Flags().String("save-state", "", "Save the full network state here after the run (.gz compresses)")
	cmd.Flags().String("save-wts", "", "Save the weights as JSON here after the run (.gz compresses)")
	cmd.Flags().Bool("report", false, "Print timing and size reports")
}

// applyRunFlags overrides the config with any run flags that were given
func applyRunFlags(cmd *cobra.Command, nc *config.NetConfig) error {
	fl := cmd.Flags()
	if fl.Changed("seconds") || fl.Changed("msec") {
		sec, _ := fl.GetInt("seconds")
		msec, _ := fl.GetInt("msec")
		nc.Run = config.RunConfig{Seconds: max(sec, 0), Msec: max(msec, 0)}
	}
	if v, _ := fl.GetString("backend"); v != "" {
		nc.Backend = v
	}
	if fl.Changed("threads") {
		nc.Threads, _ = fl.GetInt("threads")
	}
	if v, _ := fl.GetString("store"); v != "" {
		nc.Store.Kind = v
	}
	if v, _ := fl.GetString("db"); v != "" {
		nc.Store.Path = v
		if nc.Store.Kind == "" || nc.Store.Kind == "none" {
			nc.Store.Kind = "sqlite"
		}
	}
	return nc.Validate()
}

// recording is the store side of a run
type recording struct {
	st  store.Store
	rec *store.Recorder
	id  string
}

// openRecording opens the configured store and begins a run in it,
// returning nil for no store
func openRecording(ctx context.Context, cmd *cobra.Command, nc *config.NetConfig, log *slog.Logger) (*recording, error) {
	if nc.Store.Kind == "" || nc.Store.Kind == "none" {
		return nil, nil
	}
	st, err := store.NewStore(nc.Store.Kind, nc.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	now := time.Now()
	id, _ := cmd.Flags().GetString("run-id")
	if id == "" {
		id = nc.Name + "-" + now.UTC().Format("20060102T150405.000")
	}
	run := store.Run{ID: id, Network: nc.Name, Seed: nc.Seed, Backend: strings.ToLower(nc.Backend), Started: now}
	if err := st.BeginRun(ctx, run); err != nil {
		st.Close()
		return nil, err
	}
	log.Info("recording run", "store", nc.Store.Kind, "path", nc.Store.Path, "run", id)
	return &recording{st: st, rec: store.NewRecorder(ctx, st, id, log), id: id}, nil
}

func (rc *recording) sink() snn.Sink {
	if rc == nil {
		return nil
	}
	return rc.rec
}

func (rc *recording) close() error {
	if rc == nil {
		return nil
	}
	err := rc.rec.Err()
	if cerr := rc.st.Close(); err == nil {
		err = cerr
	}
	return err
}

// groupSummary is the activity of one group over a run
type groupSummary struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	N      int     `json:"n"`
	Spikes int64   `json:"spikes"`
	Rate   float32 `json:"rate_hz"`
}

type runSummary struct {
	Network  string         `json:"network"`
	Run      string         `json:"run,omitempty"`
	Backend  string         `json:"backend"`
	FromMsec int64          `json:"from_msec"`
	ToMsec   int64          `json:"to_msec"`
	Secs     float64        `json:"wall_secs"`
	Groups   []groupSummary `json:"groups"`
}

// setCounters adds a zeroed spike counter to every group.  Counters restored
// from a saved state keep their counts until reset, which needs the
// execution state: a zero-length run enters it.
func setCounters(ctx context.Context, nt *snn.Network) error {
	for gi := range nt.Groups {
		if err := nt.SetSpikeCounter(gi); err != nil {
			return err
		}
	}
	if err := nt.Run(ctx, 0, 0); err != nil {
		return err
	}
	for gi := range nt.Groups {
		if err := nt.ResetSpikeCounter(gi); err != nil {
			return err
		}
	}
	return nil
}

// simulate runs the network for nc.Run and reports the group activity
func simulate(cmd *cobra.Command, nt *snn.Network, nc *config.NetConfig, rc *recording, log *slog.Logger) error {
	ctx := cmd.Context()
	if err := setCounters(ctx, nt); err != nil {
		return err
	}
	from := nt.Time
	start := time.Now()
	log.Info("running", "network", nt.Name(), "from", from, "msec", nc.Run.Duration(), "backend", nt.Cfg.Backend.String())
	runErr := nt.Run(ctx, nc.Run.Seconds, nc.Run.Msec)
	secs := time.Since(start).Seconds()
	nt.FlushMonitors()

	sm := runSummary{Network: nt.Name(), Backend: nt.Cfg.Backend.String(), FromMsec: from, ToMsec: nt.Time, Secs: secs}
	if rc != nil {
		sm.Run = rc.id
	}
	dur := float32(nt.Time-from) / 1000
	for gi, gp := range nt.Groups {
		cnt, err := nt.SpikeCounter(gi)
		if err != nil {
			break // never ran
		}
		gs := groupSummary{ID: gi, Name: gp.Name, N: gp.N()}
		for _, c := range cnt {
			gs.Spikes += int64(c)
		}
		if dur > 0 && gs.N > 0 {
			gs.Rate = float32(gs.Spikes) / float32(gs.N) / dur
		}
		sm.Groups = append(sm.Groups, gs)
	}
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		printJSON(cmd, sm)
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: simulated %d to %d msec in %.3f s\n", sm.Network, sm.FromMsec, sm.ToMsec, sm.Secs)
		for _, gs := range sm.Groups {
			fmt.Fprintf(out, "%14s:\t N: %d\t Spikes: %d\t Rate: %.2f Hz\n", gs.Name, gs.N, gs.Spikes, gs.Rate)
		}
	}
	if runErr != nil {
		return runErr
	}

	if rep, _ := cmd.Flags().GetBool("report"); rep {
		out := cmd.OutOrStdout()
		nt.TimerReport(out)
		fmt.Fprintln(out, nt.SizeReport())
		fmt.Fprint(out, nt.ThreadReport())
	}
	if fn, _ := cmd.Flags().GetString("save-wts"); fn != "" {
		if err := nt.SaveWtsJSON(fn); err != nil {
			return fmt.Errorf("saving weights: %w", err)
		}
		log.Info("saved weights", "file", fn)
	}
	if fn, _ := cmd.Flags().GetString("save-state"); fn != "" {
		if err := nt.SaveState(fn); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
		log.Info("saved state", "file", fn, "time", nt.Time)
	}
	return nil
}
