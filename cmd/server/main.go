// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/logging"
)

// Set by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "tagwatch",
		Short:         "Real-time location trigger console",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Caller: cfg.Logging.Caller,
		})
		return cfg, nil
	}

	root.AddCommand(
		newServeCommand(load),
		newEventsCommand(load),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "tagwatch %s (%s)\n", version, commit)
			},
		},
	)
	return root
}

// configLoader loads configuration and initializes logging.
type configLoader func() (*config.Config, error)
