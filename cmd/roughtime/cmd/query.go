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
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fatih/color"
	hversion "github.com/hashicorp/go-version"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/facebook/roughtime/roughtime/client"
	"github.com/facebook/roughtime/roughtime/wire"
)

var (
	queryAddr      string
	queryPublicKey string
	queryVersion   string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a single Roughtime server and print the validated time",
	Run:   runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryAddr, "addr", "", "server UDP address, host:port")
	queryCmd.Flags().StringVar(&queryPublicKey, "pubkey", "", "server's base64-encoded long-term Ed25519 public key")
	queryCmd.Flags().StringVar(&queryVersion, "version", "1", "protocol version to request (0, 1, 14, google-roughtime or ietf-roughtime)")
	_ = queryCmd.MarkFlagRequired("addr")
	_ = queryCmd.MarkFlagRequired("pubkey")
}

func runQuery(c *cobra.Command, args []string) {
	// go-version is used only as a sanity check on the shape of a numeric
	// version string; the wire package's own parser understands the
	// Roughtime-specific aliases go-version doesn't.
	if _, err := hversion.NewVersion(normalizeVersionString(queryVersion)); err != nil {
		fatal("--version %q doesn't look like a version: %v", queryVersion, err)
	}

	pub, err := base64.StdEncoding.DecodeString(queryPublicKey)
	if err != nil {
		fatal("decoding --pubkey: %v", err)
	}

	version, err := wire.ParseProtocolVersion(queryVersion)
	if err != nil {
		fatal("parsing --version: %v", err)
	}

	cl := client.NewClient(queryAddr, pub)
	cl.Version = version
	nonce, err := client.RandomNonce()
	if err != nil {
		fatal("generating nonce: %v", err)
	}

	m, _, err := cl.Query(nonce)
	if err != nil {
		fatal("query failed: %v", err)
	}

	midpoint := time.UnixMicro(int64(m.Midpoint()))
	radius := time.Duration(m.Response.Srep.Radi) * time.Second

	table := tablewriter.NewWriter(c.OutOrStdout())
	table.Header([]string{"server", "midpoint (UTC)", "radius", "round trip"})
	roundTrip := time.Duration(m.LocalRecvMicros-m.LocalSendMicros) * time.Microsecond
	_ = table.Append([]string{
		queryAddr,
		midpoint.UTC().Format(time.RFC3339Nano),
		radius.String(),
		roundTrip.String(),
	})
	_ = table.Render()

	fmt.Println(color.GreenString("response validated against pinned long-term key"))
}

func normalizeVersionString(s string) string {
	switch s {
	case "google-roughtime":
		return "0.0.0"
	case "ietf-roughtime":
		return "1.0.0"
	default:
		return s + ".0.0"
	}
}
