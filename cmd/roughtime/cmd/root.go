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

// Package cmd implements the roughtime command-line client's subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RootCmd is the entry point cmd/roughtime/main.go executes.
var RootCmd = &cobra.Command{
	Use:   "roughtime",
	Short: "Query Roughtime servers for an authenticated time measurement",
}

func init() {
	RootCmd.AddCommand(queryCmd)
	RootCmd.AddCommand(sequenceCmd)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString(format, args...))
	os.Exit(1)
}
