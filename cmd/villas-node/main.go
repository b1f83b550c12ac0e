// File: cmd/villas-node/main.go
// Grounded on jhkimqd-chaos-utils/cmd/chaos-runner's cobra root command
// shape: a persistent --config flag, a version string injected at
// build time, subcommands defined in sibling files.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "villas-node",
	Short:   "Real-time dataflow gateway for simulation samples",
	Long:    `villas-node routes, maps, and re-times simulation samples between nodes (files, signal generators, in-process queues, and beyond) along configured paths.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./villas-node.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
