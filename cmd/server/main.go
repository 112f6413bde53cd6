package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthewbaird/infraview/internal/client"
	"github.com/matthewbaird/infraview/internal/config"
	"github.com/matthewbaird/infraview/internal/display"
	"github.com/matthewbaird/infraview/internal/logging"
	"github.com/matthewbaird/infraview/internal/server"
	"github.com/matthewbaird/infraview/internal/snapshot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(os.Stderr, "info")
		bootLog.Fatal().Err(err).Msg("loading config")
	}
	log := logging.New(os.Stderr, cfg.LogLevel)

	store, err := snapshot.Open(ctx, cfg.SnapshotDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("opening snapshot store")
	}
	defer store.Close()

	var backend *client.Client
	if cfg.Address != "" {
		backend = client.New(cfg.Address, cfg.APIToken,
			client.WithDefaultBranch(cfg.DefaultBranch),
			client.WithLogger(logging.Component(log, "client")),
		)
	} else {
		log.Warn().Msg("INFRAHUB_ADDRESS not set; object listing disabled")
	}

	if err := server.Run(ctx, server.Config{
		Port:          cfg.Port,
		DefaultBranch: cfg.DefaultBranch,
		PageSize:      cfg.PageSize,
		SchemaFile:    cfg.SchemaFile,
		Backend:       backend,
		Snapshots:     store,
		Logger:        log,

		SchemaRefreshInterval: cfg.SchemaRefreshInterval,

		Display: display.Options{
			MaxLength: cfg.DisplayMaxLength,
			Location:  cfg.DisplayLocation(),
		},
	}); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
