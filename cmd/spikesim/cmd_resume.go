// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/emer/spiking/internal/config"
	"github.com/emer/spiking/snn"
	"github.com/spf13/cobra"
)

func newResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <state.json[.gz]>",
		Short: "Continue a run from a saved network state",
		Long: `Load a network state saved by 'run --save-state' and continue simulating
from the saved time.  Spike timing continues exactly as if the original run
had not stopped.

The optional --config file supplies the monitors, store and run length; its
groups are matched to the saved network by name.

Examples:
  spikesim resume net.state.json.gz --seconds 5
  spikesim resume net.state.json.gz --config net.yaml --db runs.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nc := config.Default()
			if fn, _ := cmd.Flags().GetString("config"); fn != "" {
				var err error
				nc, err = config.LoadFromFile(fn)
				if err != nil {
					return err
				}
			}
			st, err := snn.ReadStateFile(args[0])
			if err != nil {
				return fmt.Errorf("reading state: %w", err)
			}
			if nc.Name == config.Default().Name {
				nc.Name = st.Name
			}
			nc.Seed = st.Seed
			if err := applyRunFlags(cmd, nc); err != nil {
				return err
			}
			log := newLogger(cmd, nc.Logging.Level)

			nt, err := snn.Import(st, nc.SimConfig(log), nil)
			if err != nil {
				return fmt.Errorf("importing state: %w", err)
			}
			log.Info("resumed", "network", nt.Name(), "time", nt.Time)

			rc, err := openRecording(cmd.Context(), cmd, nc, log)
			if err != nil {
				nt.Close()
				return err
			}
			if _, err := nc.Attach(nt, rc.sink()); err != nil {
				nt.Close()
				rc.close()
				return err
			}
			err = simulate(cmd, nt, nc, rc, log)
			nt.Close()
			if cerr := rc.close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().String("config", "", "YAML description with monitors, store and run length")
	addRunFlags(cmd)
	return cmd
}
