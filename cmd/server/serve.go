// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tagwatch/internal/api"
	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/console"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/metrics"
	"github.com/tomtom215/tagwatch/internal/rtls"
	"github.com/tomtom215/tagwatch/internal/storage"
	"github.com/tomtom215/tagwatch/internal/stream"
	"github.com/tomtom215/tagwatch/internal/supervisor"
	"github.com/tomtom215/tagwatch/internal/supervisor/services"
	ws "github.com/tomtom215/tagwatch/internal/websocket"
)

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console and its HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

//nolint:gocyclo // Sequential setup steps
func serve(ctx context.Context, cfg *config.Config) error {
	metrics.AppInfo.WithLabelValues(version, commit).Set(1)
	logging.Info().
		Str("version", version).
		Str("control_url", cfg.RTLS.ControlURL).
		Str("api_url", cfg.RTLS.APIURL).
		Str("storage", cfg.Storage.Path).
		Bool("storage_in_memory", cfg.Storage.InMemory).
		Msg("Starting tagwatch")

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	client := rtls.NewClient(cfg.RTLS)
	hub := ws.NewHub()

	var manager *stream.Manager
	con, err := console.New(*cfg, client, store, hub, func(h stream.Handler) (console.Session, error) {
		m, err := stream.NewManager(cfg.Stream, cfg.RTLS.ControlURL, h)
		if err != nil {
			return nil, err
		}
		manager = m
		return m, nil
	})
	if err != nil {
		return err
	}
	defer con.Close()
	defer func() {
		if err := manager.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing stream manager")
		}
	}()

	hub.OnMessage(con.HandleClientMessage)
	hub.OnRegister(con.SnapshotMessages)

	if err := con.Start(ctx); err != nil {
		// The refresh service keeps retrying.
		logging.Warn().Err(err).Msg("Initial trigger load failed")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if cfg.RTLS.RefreshInterval > 0 {
		tree.AddDataService(services.NewPeriodicService("trigger-refresh", con.Refresh, services.PeriodicConfig{
			Interval: cfg.RTLS.RefreshInterval,
		}))
	}
	if !cfg.Storage.InMemory && cfg.Storage.GCInterval > 0 {
		tree.AddDataService(services.NewPeriodicService("storage-gc", store.RunGC, services.PeriodicConfig{
			Interval: cfg.Storage.GCInterval,
		}))
	}

	tree.AddStreamService(manager)
	tree.AddStreamService(con.Ingestor())
	tree.AddStreamService(con.PortableRenderer())
	tree.AddMessagingService(hub)

	handler := api.NewHandler(con, hub, cfg)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromServer(cfg.Server))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		IdleTimeout:       4 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if len(cfg.Server.CORSOrigins) == 1 && cfg.Server.CORSOrigins[0] == "*" {
		logging.Warn().Msg("CORS allows every origin (CORS_ORIGINS=*); any website can drive this console")
	}

	errCh := tree.ServeBackground(ctx)
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			serveErr = err
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if con.Status().Stream.Connected {
		if err := con.Disconnect(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Disconnect on shutdown failed")
		}
	}
	logging.Info().Msg("Tagwatch stopped")
	return serveErr
}
