package main

import (
	"context"
	"log"
	"os/signal"

	"golang.org/x/sys/unix"

	"uplink/internal/bus"
	"uplink/internal/config"
	"uplink/internal/daemon"
	"uplink/internal/history"
	"uplink/internal/ipc"
	"uplink/internal/logging"
	"uplink/internal/nm"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, closeLogs, err := logging.NewFromConfig(logging.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		LogDir: cfg.Paths.LogDir,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer closeLogs() //nolint:errcheck

	conn, err := bus.Connect(cfg.Bus.Address, cfg.CallTimeout(), logger)
	if err != nil {
		logger.Error("connect bus", logging.Error(err))
		return
	}
	session := nm.NewSession(conn, logger)
	defer session.Close()

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg)
		if err != nil {
			logger.Error("open history store", logging.Error(err))
			return
		}
	}

	d, err := daemon.New(cfg, session, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("uplinkd shutting down")
}
