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

type groupInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Polarity string `json:"polarity"`
	Grid     string `json:"grid"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

type connInfo struct {
	ID       int    `json:"id"`
	Pre      string `json:"pre"`
	Post     string `json:"post"`
	Topology string `json:"topology"`
	Synapses int    `json:"synapses"`
	MinDelay int    `json:"min_delay"`
	MaxDelay int    `json:"max_delay"`
	Plastic  bool   `json:"plastic"`
}

type netInfo struct {
	Name     string      `json:"name"`
	Neurons  int         `json:"neurons"`
	Synapses int         `json:"synapses"`
	MaxDelay int         `json:"max_delay"`
	Groups   []groupInfo `json:"groups"`
	Conns    []connInfo  `json:"connections"`
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <net.yaml>",
		Short: "Build a network and report its groups, connections and memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nc, err := config.LoadFromFile(args[0])
			if err != nil {
				return err
			}
			log := newLogger(cmd, nc.Logging.Level)
			net, err := nc.Build(log, nil)
			if err != nil {
				return fmt.Errorf("building network: %w", err)
			}
			nt := net.Net
			defer nt.Close()

			ni := inspect(nt)
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, ni)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Network: %s\t Neurons: %d\t Synapses: %d\t MaxDelay: %d\n\n", ni.Name, ni.Neurons, ni.Synapses, ni.MaxDelay)
			for _, gi := range ni.Groups {
				fmt.Fprintf(out, "%3d: %14s\t %s %s\t grid: %s\t neurons: [%d, %d)\n", gi.ID, gi.Name, gi.Kind, gi.Polarity, gi.Grid, gi.Start, gi.End)
			}
			fmt.Fprintln(out)
			for _, ci := range ni.Conns {
				fmt.Fprintf(out, "%3d: %s -> %s\t %s\t syns: %d\t delays: [%d, %d]\t plastic: %v\n", ci.ID, ci.Pre, ci.Post, ci.Topology, ci.Synapses, ci.MinDelay, ci.MaxDelay, ci.Plastic)
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, nt.SizeReport())
			return nil
		},
	}
	return cmd
}

// inspect collects the structure of a built network
func inspect(nt *snn.Network) *netInfo {
	ni := &netInfo{Name: nt.Name(), Neurons: nt.NumNeurons(), Synapses: nt.NumSynapses(), MaxDelay: nt.MaxDelay()}
	for _, gp := range nt.Groups {
		st, ed, _ := nt.GroupStartEnd(gp.ID)
		ni.Groups = append(ni.Groups, groupInfo{ID: gp.ID, Name: gp.Name, Kind: gp.Kind.String(), Polarity: gp.Pol.String(),
			Grid: gp.Grid.String(), Start: st, End: ed})
	}
	for _, cn := range nt.Conns {
		ci := connInfo{ID: cn.ID, Pre: nt.Groups[cn.Pre].Name, Post: nt.Groups[cn.Post].Name, Topology: cn.Spec.Topo.String(),
			Synapses: cn.NSyn, MinDelay: cn.Spec.Delay.Min, MaxDelay: cn.Spec.Delay.Max, Plastic: cn.Spec.Plastic}
		ni.Conns = append(ni.Conns, ci)
	}
	return ni
}
