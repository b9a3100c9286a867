package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/pedsafe"
	"github.com/poiesic/pedsafe/history"
	"github.com/poiesic/pedsafe/httpapi"
	"github.com/poiesic/pedsafe/metrics"
	"github.com/urfave/cli/v2"
)

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	source, err := newReportSource(cfg, nil)
	if err != nil {
		return err
	}
	defer source.Release()

	m := metrics.New()
	explorerOpts := append(explorerOptions(cfg), pedsafe.WithMetrics(m))
	serverOpts := []httpapi.Option{httpapi.WithLogger(slog.Default()), httpapi.WithMetrics(m)}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		explorerOpts = append(explorerOpts, pedsafe.WithHistory(store))
		serverOpts = append(serverOpts, httpapi.WithHistory(store))
	}

	explorer, err := pedsafe.NewExplorer(source, provider, explorerOpts...)
	if err != nil {
		return err
	}

	slog.Info("starting server",
		"addr", cfg.HTTP.Addr,
		"embedding_model", cfg.AI.EmbeddingModel,
		"generative_model", cfg.AI.GenerativeModel,
		"history", cfg.History.Path)

	return httpapi.NewServer(explorer, serverOpts...).Run(ctx, cfg.HTTP.Addr)
}
