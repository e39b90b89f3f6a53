// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tagwatch/internal/storage"
)

func newEventsCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the persisted system event list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print persisted system events, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := storage.Open(cfg.Storage)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			events, err := store.LoadEvents(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range events {
				fmt.Fprintln(out, e)
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no events")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete persisted system events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := storage.Open(cfg.Storage)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			if err := store.ClearEvents(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "events cleared")
			return nil
		},
	})
	return cmd
}
