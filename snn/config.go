// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"log/slog"
	"runtime"
)

// DefMaxDelay is the default maximum synaptic delay, in msec
const DefMaxDelay = 20

// Config has the network-level settings that are fixed at creation
type Config struct {
	Backend     Backends        `desc:"execution backend"`
	NThreads    int             `def:"0" desc:"number of host worker goroutines: 0 = runtime.NumCPU()"`
	LockThreads bool            `desc:"lock each host worker goroutine to its own OS thread"`
	Seed        uint32          `desc:"random seed: all random draws of the network derive from it"`
	MaxDelay    int             `def:"20" desc:"maximum synaptic delay that may be configured, in msec"`
	Devices     *DeviceRegistry `json:"-" desc:"accelerator devices: nil = DefaultDevices()"`
	DeviceID    int             `def:"-1" desc:"accelerator device to use: -1 = first free device"`
	Log         *slog.Logger    `json:"-" desc:"logger: nil = slog.Default()"`
}

// Defaults sets host execution on all cores
func (cf *Config) Defaults() {
	cf.Backend = HostBackend
	cf.NThreads = 0
	cf.MaxDelay = DefMaxDelay
	cf.DeviceID = -1
}

// Update fills in derived and default values
func (cf *Config) Update() {
	if cf.NThreads <= 0 {
		cf.NThreads = runtime.NumCPU()
	}
	if cf.MaxDelay <= 0 {
		cf.MaxDelay = DefMaxDelay
	}
	if cf.Log == nil {
		cf.Log = slog.Default()
	}
	if cf.Backend == AccelBackend && cf.Devices == nil {
		cf.Devices = DefaultDevices()
	}
}

// Validate checks the settings
func (cf *Config) Validate() error {
	if cf.Backend < 0 || cf.Backend >= BackendsN {
		return &ConfigurationError{Op: "Config", Msg: fmt.Sprintf("invalid backend: %v", cf.Backend)}
	}
	if cf.MaxDelay < 1 {
		return &ConfigurationError{Op: "Config", Msg: fmt.Sprintf("MaxDelay: %d must be >= 1", cf.MaxDelay)}
	}
	return nil
}

// NewConfig returns a new default config
func NewConfig() *Config {
	cf := &Config{}
	cf.Defaults()
	return cf
}
