// Package main is the entry point for the Workbench backend. It runs the
// terminal session manager, the WebSocket gateway, the HTTP API, and the
// agent hook bridge as one process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/workbench/workbench/internal/api"
	"github.com/workbench/workbench/internal/common/config"
	"github.com/workbench/workbench/internal/common/logger"
	"github.com/workbench/workbench/internal/events"
	gateway "github.com/workbench/workbench/internal/gateway/websocket"
	"github.com/workbench/workbench/internal/hookbridge"
	"github.com/workbench/workbench/internal/terminal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting Workbench backend...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event bus: in-memory by default, NATS when configured.
	provided, cleanup, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer func() { _ = cleanup() }()
	if provided.NATS != nil {
		log.Info("Connected to NATS event bus", zap.String("url", cfg.NATS.URL))
	} else {
		log.Info("Using in-memory event bus")
	}
	eventBus := provided.Bus

	// Hook bridge: the socket path feeds into every spawned session.
	bridge := hookbridge.New(eventBus, log)
	if err := bridge.Start(cfg.HookBridge); err != nil {
		log.Warn("Hook bridge unavailable, sessions run without the side channel", zap.Error(err))
	}
	defer func() { _ = bridge.Close() }()

	manager := terminal.NewManager(cfg.Terminal, eventBus, bridge.SocketPath(), log)
	defer manager.Close()

	gw := gateway.NewGateway(manager, log)
	gateway.RegisterTerminalNotifications(ctx, eventBus, gw.Hub, log)

	server := api.NewServer(cfg.Server, manager, gw, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gw.Hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return server.Start(ctx)
	})

	log.Info("API configured",
		zap.String("websocket", "/ws"),
		zap.String("health", "/health"),
		zap.String("http", "/api/v1"))

	if err := g.Wait(); err != nil {
		log.Error("Server error", zap.Error(err))
	}

	log.Info("Workbench stopped")
}
