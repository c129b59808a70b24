// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads YAML descriptions of spiking networks and runs, and
// builds the described snn.Network.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/emer/spiking/izhi"
	"github.com/emer/spiking/learn"
	"github.com/emer/spiking/snn"
	"gopkg.in/yaml.v3"
)

// NetConfig is a complete network and run description
type NetConfig struct {
	// Name of the network
	Name string `json:"name" yaml:"name"`

	// Seed of all random draws
	Seed uint32 `json:"seed" yaml:"seed"`

	// Backend: "host" (default) or "accel"
	Backend string `json:"backend" yaml:"backend"`

	// Threads is the number of host workers, 0 for all cores
	Threads int `json:"threads,omitempty" yaml:"threads,omitempty"`

	// LockThreads pins each host worker to its own OS thread
	LockThreads bool `json:"lock_threads,omitempty" yaml:"lock_threads,omitempty"`

	// Device is the accelerator device, -1 for the first free one
	Device int `json:"device" yaml:"device"`

	// MaxDelay is the largest synaptic delay, msec
	MaxDelay int `json:"max_delay" yaml:"max_delay"`

	// Conductances selects COBA synapses with the given kinetics; nil is CUBA
	Conductances *ChansConfig `json:"conductances,omitempty" yaml:"conductances,omitempty"`

	// WtUpdate is the weight consolidation schedule
	WtUpdate *WtUpdateConfig `json:"wt_update,omitempty" yaml:"wt_update,omitempty"`

	Groups []GroupConfig `json:"groups" yaml:"groups"`
	Conns  []ConnConfig  `json:"connections" yaml:"connections"`

	Run     RunConfig     `json:"run" yaml:"run"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ChansConfig are the decay (td) and rise (tr) times of the channels, msec
type ChansConfig struct {
	TdAMPA  float32 `json:"td_ampa" yaml:"td_ampa"`
	TrNMDA  float32 `json:"tr_nmda" yaml:"tr_nmda"`
	TdNMDA  float32 `json:"td_nmda" yaml:"td_nmda"`
	TdGABAa float32 `json:"td_gabaa" yaml:"td_gabaa"`
	TrGABAb float32 `json:"tr_gabab" yaml:"tr_gabab"`
	TdGABAb float32 `json:"td_gabab" yaml:"td_gabab"`
}

// WtUpdateConfig sets the consolidation interval (10, 100 or 1000 msec) and
// the retained fraction of pending changes, 0 to zero them
type WtUpdateConfig struct {
	Interval int     `json:"interval" yaml:"interval"`
	Decay    float32 `json:"decay" yaml:"decay"`
}

// GroupConfig describes a neuron group
type GroupConfig struct {
	Name string `json:"name" yaml:"name"`

	// Size is the number of neurons, for a line of neurons
	Size int `json:"size,omitempty" yaml:"size,omitempty"`

	// Grid is the [x, y, z] layout, instead of Size
	Grid []int `json:"grid,omitempty" yaml:"grid,omitempty"`

	// Polarity: "excitatory" (default) or "inhibitory"
	Polarity string `json:"polarity" yaml:"polarity"`

	// Poisson makes this a spike generator group firing at Rate (or Rates) Hz
	Poisson bool      `json:"poisson,omitempty" yaml:"poisson,omitempty"`
	Rate    float32   `json:"rate,omitempty" yaml:"rate,omitempty"`
	Rates   []float32 `json:"rates,omitempty" yaml:"rates,omitempty"`
	RefPer  *float32  `json:"refractory,omitempty" yaml:"refractory,omitempty"`

	// Preset is an Izhikevich firing type: RS, IB, CH, FS, LTS, RZ, TC
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty"`

	// Izhi sets the a, b, c, d parameters explicitly, overriding Preset
	Izhi *IzhiConfig `json:"izhi,omitempty" yaml:"izhi,omitempty"`

	// Current is the external current into every neuron, Currents per neuron
	Current  float32   `json:"current,omitempty" yaml:"current,omitempty"`
	Currents []float32 `json:"currents,omitempty" yaml:"currents,omitempty"`

	ESTDP    *STDPConfig     `json:"estdp,omitempty" yaml:"estdp,omitempty"`
	ISTDP    *STDPConfig     `json:"istdp,omitempty" yaml:"istdp,omitempty"`
	STP      *STPConfig      `json:"stp,omitempty" yaml:"stp,omitempty"`
	Homeo    *HomeoConfig    `json:"homeostasis,omitempty" yaml:"homeostasis,omitempty"`
	Neuromod *NeuromodConfig `json:"neuromod,omitempty" yaml:"neuromod,omitempty"`
	Release  *ReleaseConfig  `json:"release,omitempty" yaml:"release,omitempty"`

	// Monitors: any of "spikes", "group"
	Monitors []string `json:"monitors,omitempty" yaml:"monitors,omitempty"`
}

// IzhiConfig are mean and standard deviation of each Izhikevich parameter
type IzhiConfig struct {
	A   float32 `json:"a" yaml:"a"`
	ASD float32 `json:"a_sd,omitempty" yaml:"a_sd,omitempty"`
	B   float32 `json:"b" yaml:"b"`
	BSD float32 `json:"b_sd,omitempty" yaml:"b_sd,omitempty"`
	C   float32 `json:"c" yaml:"c"`
	CSD float32 `json:"c_sd,omitempty" yaml:"c_sd,omitempty"`
	D   float32 `json:"d" yaml:"d"`
	DSD float32 `json:"d_sd,omitempty" yaml:"d_sd,omitempty"`
}

// STDPConfig enables STDP.  Unset amplitudes keep the defaults of the curve.
type STDPConfig struct {
	Curve    string   `json:"curve,omitempty" yaml:"curve,omitempty"`
	DAMod    bool     `json:"da_mod,omitempty" yaml:"da_mod,omitempty"`
	AlphaLTP *float32 `json:"alpha_ltp,omitempty" yaml:"alpha_ltp,omitempty"`
	TauLTP   *float32 `json:"tau_ltp,omitempty" yaml:"tau_ltp,omitempty"`
	AlphaLTD *float32 `json:"alpha_ltd,omitempty" yaml:"alpha_ltd,omitempty"`
	TauLTD   *float32 `json:"tau_ltd,omitempty" yaml:"tau_ltd,omitempty"`
	Gamma    *float32 `json:"gamma,omitempty" yaml:"gamma,omitempty"`
	BetaLTP  *float32 `json:"beta_ltp,omitempty" yaml:"beta_ltp,omitempty"`
	BetaLTD  *float32 `json:"beta_ltd,omitempty" yaml:"beta_ltd,omitempty"`
	Lambda   *float32 `json:"lambda,omitempty" yaml:"lambda,omitempty"`
	Delta    *float32 `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// STPConfig enables STP of the synapses sent by a group
type STPConfig struct {
	U    *float32 `json:"u,omitempty" yaml:"u,omitempty"`
	TauU *float32 `json:"tau_u,omitempty" yaml:"tau_u,omitempty"`
	TauX *float32 `json:"tau_x,omitempty" yaml:"tau_x,omitempty"`
}

// HomeoConfig enables homeostatic scaling
type HomeoConfig struct {
	Scale        *float32 `json:"scale,omitempty" yaml:"scale,omitempty"`
	AvgTimeScale *float32 `json:"avg_time_scale,omitempty" yaml:"avg_time_scale,omitempty"`
	BaseRate     *float32 `json:"base_rate,omitempty" yaml:"base_rate,omitempty"`
	BaseRateSD   *float32 `json:"base_rate_sd,omitempty" yaml:"base_rate_sd,omitempty"`
}

// NeuromodConfig are baselines and time constants, in the order DA, 5-HT, ACh, NE
type NeuromodConfig struct {
	Base []float32 `json:"base,omitempty" yaml:"base,omitempty"`
	Tau  []float32 `json:"tau,omitempty" yaml:"tau,omitempty"`
}

// ReleaseConfig makes spikes of a group release a neuromodulator
type ReleaseConfig struct {
	Mod    string  `json:"mod" yaml:"mod"`
	Amount float32 `json:"amount" yaml:"amount"`
}

// ConnConfig describes a connection between two groups, by name
type ConnConfig struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`

	// Topology: "full" (default), "full_no_direct", "one_to_one", "random"
	Topology string  `json:"topology" yaml:"topology"`
	Prob     float32 `json:"prob,omitempty" yaml:"prob,omitempty"`

	Weight  WeightConfig  `json:"weight" yaml:"weight"`
	Delay   DelayConfig   `json:"delay" yaml:"delay"`
	Radius  *RadiusConfig `json:"radius,omitempty" yaml:"radius,omitempty"`
	Plastic bool          `json:"plastic" yaml:"plastic"`
	MulFast *float32      `json:"mul_fast,omitempty" yaml:"mul_fast,omitempty"`
	MulSlow *float32      `json:"mul_slow,omitempty" yaml:"mul_slow,omitempty"`

	// Monitor records the weights from From to To each second
	Monitor bool `json:"monitor,omitempty" yaml:"monitor,omitempty"`
}

// WeightConfig is the weight range.  Without Init the weight is fixed at Max,
// or uniform in [Min, Max] when Random.
type WeightConfig struct {
	Min    float32  `json:"min" yaml:"min"`
	Init   *float32 `json:"init,omitempty" yaml:"init,omitempty"`
	Max    float32  `json:"max" yaml:"max"`
	Random bool     `json:"random,omitempty" yaml:"random,omitempty"`
}

// DelayConfig is the delay range, msec; zero values default to 1
type DelayConfig struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// RadiusConfig is a receptive field radius: negative axes are unconstrained
type RadiusConfig struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
}

// RunConfig is the simulated duration
type RunConfig struct {
	Seconds int `json:"seconds" yaml:"seconds"`
	Msec    int `json:"msec,omitempty" yaml:"msec,omitempty"`
}

// StoreConfig selects where monitor snapshots go: "memory", "sqlite" or "none"
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig sets the log level: "error", "warn", "info", "debug" or "trace"
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
	JSON  bool   `json:"json,omitempty" yaml:"json,omitempty"`
}

// Default returns an empty network with the standard settings
func Default() *NetConfig {
	return &NetConfig{
		Name:     "Network",
		Seed:     1,
		Backend:  "host",
		Device:   -1,
		MaxDelay: snn.DefMaxDelay,
		Run:      RunConfig{Seconds: 1},
		Store:    StoreConfig{Kind: "none"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// LoadFromFile reads and validates a YAML description
func LoadFromFile(path string) (*NetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	nc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nc, nil
}

// Parse decodes and validates a YAML description, on top of Default.
// Unknown keys are errors.
func Parse(data []byte) (*NetConfig, error) {
	nc := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(nc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := nc.Validate(); err != nil {
		return nil, err
	}
	return nc, nil
}

// Marshal returns the YAML form
func (nc *NetConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(nc)
}

var polarities = map[string]snn.Polarity{"": snn.Excitatory, "excitatory": snn.Excitatory, "inhibitory": snn.Inhibitory}

var topologies = map[string]snn.Topologies{"": snn.Full, "full": snn.Full, "full_no_direct": snn.FullNoDirect,
	"one_to_one": snn.OneToOne, "random": snn.Random}

var backends = map[string]snn.Backends{"": snn.HostBackend, "host": snn.HostBackend, "accel": snn.AccelBackend}

// Validate checks names, references and enum values.  Numeric ranges are
// checked by the network when it is built.
func (nc *NetConfig) Validate() error {
	var errs []error
	if _, ok := backends[strings.ToLower(nc.Backend)]; !ok {
		errs = append(errs, fmt.Errorf("invalid backend: %s (valid: host, accel)", nc.Backend))
	}
	if nc.Run.Seconds < 0 || nc.Run.Msec < 0 {
		errs = append(errs, fmt.Errorf("run duration must be >= 0: %ds %dms", nc.Run.Seconds, nc.Run.Msec))
	}
	switch nc.Store.Kind {
	case "", "none", "memory":
	case "sqlite":
		if nc.Store.Path == "" {
			errs = append(errs, errors.New("sqlite store needs a path"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store kind: %s (valid: none, memory, sqlite)", nc.Store.Kind))
	}
	if nc.WtUpdate != nil {
		wp := nc.WtUpdate.Params()
		if err := wp.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("wt_update: %w", err))
		}
	}

	names := map[string]bool{}
	for i := range nc.Groups {
		gc := &nc.Groups[i]
		if err := gc.validate(); err != nil {
			errs = append(errs, fmt.Errorf("group %d (%s): %w", i, gc.Name, err))
		}
		if names[gc.Name] {
			errs = append(errs, fmt.Errorf("group %d: duplicate name: %s", i, gc.Name))
		}
		names[gc.Name] = true
	}
	for i := range nc.Conns {
		cc := &nc.Conns[i]
		if !names[cc.From] {
			errs = append(errs, fmt.Errorf("connection %d: unknown group: %s", i, cc.From))
		}
		if !names[cc.To] {
			errs = append(errs, fmt.Errorf("connection %d: unknown group: %s", i, cc.To))
		}
		if _, ok := topologies[strings.ToLower(cc.Topology)]; !ok {
			errs = append(errs, fmt.Errorf("connection %d: invalid topology: %s", i, cc.Topology))
		}
	}
	return errors.Join(errs...)
}

func (gc *GroupConfig) validate() error {
	if gc.Name == "" {
		return errors.New("name is required")
	}
	if (gc.Size > 0) == (len(gc.Grid) > 0) {
		return errors.New("exactly one of size or grid is required")
	}
	if len(gc.Grid) > 0 && len(gc.Grid) != 3 {
		return fmt.Errorf("grid needs 3 sizes: %v", gc.Grid)
	}
	if _, ok := polarities[strings.ToLower(gc.Polarity)]; !ok {
		return fmt.Errorf("invalid polarity: %s (valid: excitatory, inhibitory)", gc.Polarity)
	}
	if gc.Preset != "" {
		var ps izhi.Presets
		if err := ps.FromString(strings.ToUpper(gc.Preset)); err != nil {
			return err
		}
	}
	if gc.Poisson {
		if gc.Izhi != nil || gc.Preset != "" || gc.Current != 0 || len(gc.Currents) > 0 {
			return errors.New("poisson groups have no neuron parameters or currents")
		}
		if len(gc.Rates) > 0 && len(gc.Rates) != gc.N() {
			return fmt.Errorf("%d rates for %d neurons", len(gc.Rates), gc.N())
		}
	} else if gc.Rate != 0 || len(gc.Rates) > 0 {
		return errors.New("rates are only for poisson groups")
	}
	if len(gc.Currents) > 0 && len(gc.Currents) != gc.N() {
		return fmt.Errorf("%d currents for %d neurons", len(gc.Currents), gc.N())
	}
	for _, sc := range []*STDPConfig{gc.ESTDP, gc.ISTDP} {
		if sc != nil && sc.Curve != "" {
			var cv learn.STDPCurve
			if err := cv.FromString(sc.Curve); err != nil {
				return err
			}
		}
	}
	if gc.Neuromod != nil {
		if n := len(gc.Neuromod.Base); n != 0 && n != int(learn.NeuromodsN) {
			return fmt.Errorf("neuromod base needs %d values: %v", learn.NeuromodsN, gc.Neuromod.Base)
		}
		if n := len(gc.Neuromod.Tau); n != 0 && n != int(learn.NeuromodsN) {
			return fmt.Errorf("neuromod tau needs %d values: %v", learn.NeuromodsN, gc.Neuromod.Tau)
		}
	}
	if gc.Release != nil {
		if _, err := parseMod(gc.Release.Mod); err != nil {
			return err
		}
	}
	for _, m := range gc.Monitors {
		if m != "spikes" && m != "group" {
			return fmt.Errorf("invalid monitor: %s (valid: spikes, group)", m)
		}
	}
	return nil
}

// N returns the number of neurons
func (gc *GroupConfig) N() int {
	if len(gc.Grid) == 3 {
		return gc.Grid[0] * gc.Grid[1] * gc.Grid[2]
	}
	return gc.Size
}

// parseMod accepts DA, HT5 (or 5HT, 5-HT), ACh, NE
func parseMod(s string) (learn.Neuromods, error) {
	switch strings.ToUpper(s) {
	case "5HT", "5-HT", "HT5":
		return learn.HT5, nil
	case "ACH":
		return learn.ACh, nil
	}
	var nm learn.Neuromods
	err := nm.FromString(strings.ToUpper(s))
	return nm, err
}

// Params returns the schedule
func (wc *WtUpdateConfig) Params() learn.WtUpdateParams {
	var wp learn.WtUpdateParams
	wp.Defaults()
	if wc.Interval != 0 {
		wp.Interval = wc.Interval
	}
	if wc.Decay > 0 {
		wp.DecayOn = true
		wp.Decay = wc.Decay
	}
	return wp
}

// Duration returns the run length in msec
func (rc *RunConfig) Duration() int {
	return rc.Seconds*1000 + rc.Msec
}
