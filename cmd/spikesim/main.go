// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// spikesim builds and runs spiking networks described in YAML files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spikesim",
		Short: "Spiking neural network simulator",
		Long: `spikesim builds spiking networks of Izhikevich neurons from YAML
descriptions and runs them on the host or on an accelerator device, with
STDP, short-term plasticity, homeostasis and neuromodulation.

Monitor snapshots can be recorded into a sqlite database, and the full
network state saved to resume the run later with identical spike timing.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace (default from config, else info)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON lines")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newResumeCmd(),
		newInspectCmd(),
		newDevicesCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				printJSON(cmd, map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "spikesim version %s\n", version)
			}
		},
	}
}
