/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/facebook/roughtime/roughtime/client"
)

var sequenceServerList string

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Query a list of servers in order, chaining nonces to prove causality",
	Run:   runSequence,
}

func init() {
	sequenceCmd.Flags().StringVar(&sequenceServerList, "servers", "", "path to a JSON or YAML server list")
	_ = sequenceCmd.MarkFlagRequired("servers")
}

func runSequence(c *cobra.Command, args []string) {
	servers, err := client.LoadServerList(sequenceServerList)
	if err != nil {
		fatal("loading server list: %v", err)
	}
	if len(servers) == 0 {
		fatal("server list %s names no servers", sequenceServerList)
	}

	measurements, err := client.RunSequence(servers)
	if err != nil {
		fatal("sequence failed: %v", err)
	}

	table := tablewriter.NewWriter(c.OutOrStdout())
	table.Header([]string{"server", "midpoint (UTC)", "radius", "round trip"})
	for i, m := range measurements {
		midpoint := time.UnixMicro(int64(m.Midpoint()))
		radius := time.Duration(m.Response.Srep.Radi) * time.Second
		roundTrip := time.Duration(m.LocalRecvMicros-m.LocalSendMicros) * time.Microsecond
		_ = table.Append([]string{
			servers[i].Name,
			midpoint.UTC().Format(time.RFC3339Nano),
			radius.String(),
			roundTrip.String(),
		})
	}
	_ = table.Render()

	fmt.Println(color.GreenString("sequence validated: each server queried no earlier than the previous one replied"))
}
