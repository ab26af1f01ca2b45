package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/newsscrape/internal/app"
	"github.com/Adda-Baaj/newsscrape/internal/config"
	"github.com/Adda-Baaj/newsscrape/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(run).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "newsscrape failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, mode app.Mode) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.InfoObj("newsscrape starting", "config", map[string]any{
		"mode":         mode.String(),
		"storage_type": cfg.StorageType,
		"subjects":     len(cfg.Subjects),
		"qualifiers":   len(cfg.Qualifiers),
		"sites_file":   cfg.SitesFile,
	})

	runner, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize runner", "error", err.Error())
		return err
	}

	if _, err := runner.Run(ctx, mode); err != nil {
		log.ErrorObj("run failed", "error", err.Error())
		return fmt.Errorf("run %s: %w", mode, err)
	}
	return nil
}
