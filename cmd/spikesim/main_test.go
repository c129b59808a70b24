// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emer/spiking/internal/store"
)

const testNet = `
name: CLINet
seed: 3
threads: 2
groups:
  - name: Input
    size: 20
    poisson: true
    rate: 30
    monitors: [spikes]
  - name: Exc
    size: 20
    preset: RS
    estdp: {curve: Hebbian}
    monitors: [spikes, group]
connections:
  - from: Input
    to: Exc
    topology: random
    prob: 0.5
    weight: {min: 0, max: 8, random: true}
    delay: {min: 1, max: 5}
    plastic: true
    monitor: true
run:
  seconds: 1
`

// writeNet writes the test network description into a temp dir
func writeNet(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "net.yaml")
	if err := os.WriteFile(path, []byte(testNet), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

// execute runs the root command with args, returning stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output: %q", out)
	}
	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil || v["version"] != version {
		t.Errorf("json version output: %q %v", out, err)
	}
}

func TestRunAndResume(t *testing.T) {
	dir, path := writeNet(t)
	db := filepath.Join(dir, "runs.db")
	state := filepath.Join(dir, "state.json.gz")
	wts := filepath.Join(dir, "wts.json")

	out, err := execute(t, "run", path, "--db", db, "--run-id", "first", "--save-state", state, "--save-wts", wts, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var sm runSummary
	if err := json.Unmarshal([]byte(out), &sm); err != nil {
		t.Fatalf("run output: %v\n%s", err, out)
	}
	if sm.Network != "CLINet" || sm.Run != "first" || sm.FromMsec != 0 || sm.ToMsec != 1000 || len(sm.Groups) != 2 {
		t.Errorf("unexpected summary: %+v", sm)
	}
	if sm.Groups[0].Spikes == 0 || sm.Groups[0].Rate < 15 || sm.Groups[0].Rate > 45 {
		t.Errorf("input activity: %+v", sm.Groups[0])
	}
	for _, fn := range []string{state, wts} {
		if _, err := os.Stat(fn); err != nil {
			t.Errorf("missing output file: %v", err)
		}
	}

	out, err = execute(t, "resume", state, "--config", path, "--db", db, "--run-id", "second", "--seconds", "1", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var rs runSummary
	if err := json.Unmarshal([]byte(out), &rs); err != nil {
		t.Fatalf("resume output: %v\n%s", err, out)
	}
	if rs.FromMsec != 1000 || rs.ToMsec != 2000 {
		t.Errorf("resumed %d to %d, want 1000 to 2000", rs.FromMsec, rs.ToMsec)
	}
	if rs.Groups[0].Spikes == 0 || rs.Groups[0].Spikes > 2*sm.Groups[0].Spikes+100 {
		t.Errorf("resumed counts not reset: %d after %d", rs.Groups[0].Spikes, sm.Groups[0].Spikes)
	}

	ctx := context.Background()
	st := store.NewSQLiteStore(db)
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	runs, err := st.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "first" || runs[1].ID != "second" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	spk, err := st.Spikes(ctx, "first", 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(spk)) != sm.Groups[0].Spikes {
		t.Errorf("stored %d input spikes, counted %d", len(spk), sm.Groups[0].Spikes)
	}
	spk, err = st.Spikes(ctx, "second", 0, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(spk)) != rs.Groups[0].Spikes {
		t.Errorf("stored %d resumed input spikes, counted %d", len(spk), rs.Groups[0].Spikes)
	}
	conns, err := st.ConnStats(ctx, "second", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(conns) != 1 || conns[0].Second != 1 || conns[0].NSyn == 0 {
		t.Errorf("unexpected conn stats: %d rows", len(conns))
	}
}

func TestRunText(t *testing.T) {
	_, path := writeNet(t)
	out, err := execute(t, "run", path, "--msec", "200", "--seconds", "0", "--report")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CLINet: simulated 0 to 200 msec", "Input:", "Exc:", "Syns:", "Threads"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspect(t *testing.T) {
	_, path := writeNet(t)
	out, err := execute(t, "inspect", path, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var ni netInfo
	if err := json.Unmarshal([]byte(out), &ni); err != nil {
		t.Fatalf("inspect output: %v\n%s", err, out)
	}
	if ni.Neurons != 40 || len(ni.Groups) != 2 || len(ni.Conns) != 1 {
		t.Errorf("unexpected structure: %+v", ni)
	}
	if ni.Groups[1].Start != 20 || ni.Groups[1].End != 40 || ni.Groups[0].Kind != "SpikeGenGroup" {
		t.Errorf("unexpected groups: %+v", ni.Groups)
	}
	if ci := ni.Conns[0]; ci.Synapses != ni.Synapses || ci.Synapses == 0 || ci.MaxDelay != 5 || !ci.Plastic {
		t.Errorf("unexpected connection: %+v", ci)
	}
}

func TestDevices(t *testing.T) {
	out, err := execute(t, "devices")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "host-lanes") {
		t.Errorf("devices output: %q", out)
	}
}

func TestRunErrors(t *testing.T) {
	dir, path := writeNet(t)
	if _, err := execute(t, "run", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing config accepted")
	}
	if _, err := execute(t, "run", path, "--backend", "tpu"); err == nil {
		t.Error("invalid backend accepted")
	}
	if _, err := execute(t, "run", path, "--store", "sqlite"); err == nil {
		t.Error("sqlite store without path accepted")
	}
	if _, err := execute(t, "resume", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing state accepted")
	}
	if _, err := execute(t, "run"); err == nil {
		t.Error("run without file accepted")
	}
}
