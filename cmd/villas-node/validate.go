// File: cmd/villas-node/validate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/villas-go/node/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Args:  cobra.NoArgs,
	Short: "Load and validate a configuration without running it",
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Printf("ok: %d node(s), %d path(s)\n", len(cfg.Nodes), len(cfg.Paths))
	return nil
}
