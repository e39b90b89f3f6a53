// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

/*
Package supervisor runs the long-lived parts of the console under suture v4.

# Tree

	tagwatch
	├── data-layer
	│   ├── trigger-refresh   (periodic trigger list reload)
	│   └── storage-gc        (BadgerDB value log GC)
	├── stream-layer
	│   ├── stream-manager    (RTLS websockets)
	│   ├── ingest-sweeper    (stale tag eviction)
	│   └── portable-renderer (portable trigger polling)
	├── messaging-layer
	│   └── websocket-hub     (browser fan-out)
	└── api-layer
	    └── http-server

Each layer has its own failure budget. A stream manager that keeps failing
against an unreachable RTLS backs off without taking the HTTP server down.

# Services

Any type with Serve(ctx context.Context) error is a service. Returning an
error restarts it; returning ctx.Err() after cancellation is a clean stop.
Adding a String method names the service in supervisor logs.

Components without that shape are wrapped by package services.

# Logging

Supervisor events go through sutureslog to a slog.Logger. main passes
logging.NewSlogLogger() so they land in the zerolog output.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddStreamService(streamManager)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)
*/
package supervisor
