// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/emer/spiking/snn"
	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the accelerator devices available to the accel backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			devs := snn.DefaultDevices().Devices()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, devs)
			}
			for _, di := range devs {
				fmt.Fprintln(cmd.OutOrStdout(), di.String())
			}
			return nil
		},
	}
}
