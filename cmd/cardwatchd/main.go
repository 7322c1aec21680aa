package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cardwatch/internal/config"
	"cardwatch/internal/identity"
	"cardwatch/internal/logging"
	"cardwatch/internal/outbox"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, configPath, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if _, err := identity.EnsureDeviceID(cfg, configPath, logger); err != nil {
		logger.Error("establish device identity", logging.Error(err))
		os.Exit(1)
	}

	store, err := outbox.Open(cfg)
	if err != nil {
		logger.Error("open outbox store", logging.Error(err))
		os.Exit(1)
	}

	d, err := buildDaemon(cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		d.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("cardwatchd shutting down")
	d.Close()
}
