// File: cmd/villas-node/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/villas-go/node/config"
	"github.com/villas-go/node/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Load a configuration and run until interrupted",
	RunE:  runNode,
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	sup, err := supervisor.New(cfg)
	if err != nil {
		return fmt.Errorf("build supervisor: %w", err)
	}
	if err := sup.Start(); err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-sup.Done():
		// a source reached eof=stop and requested shutdown (spec.md §4.8)
	}

	return sup.Stop()
}
