// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/emer/spiking/internal/config"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <net.yaml>",
		Short: "Build a network from a YAML description and run it",
		Long: `Build the network described in a YAML file and run it for the configured
duration, recording the configured monitors into the snapshot store.

Examples:
  spikesim run net.yaml
  spikesim run net.yaml --seconds 10 --backend accel
  spikesim run net.yaml --db runs.db --save-state net.state.json.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nc, err := config.LoadFromFile(args[0])
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, nc); err != nil {
				return err
			}
			log := newLogger(cmd, nc.Logging.Level)

			rc, err := openRecording(cmd.Context(), cmd, nc, log)
			if err != nil {
				return err
			}
			net, err := nc.Build(log, rc.sink())
			if err != nil {
				rc.close()
				return fmt.Errorf("building network: %w", err)
			}
			err = simulate(cmd, net.Net, nc, rc, log)
			net.Net.Close()
			if cerr := rc.close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	addRunFlags(cmd)
	return cmd
}
