package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tuanbk654123/QLCP-QLKH/internal/config"
	"github.com/tuanbk654123/QLCP-QLKH/internal/container"
	"github.com/tuanbk654123/QLCP-QLKH/internal/directory"
	"github.com/tuanbk654123/QLCP-QLKH/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	filePath := flag.String("file", "configs/directory.yaml", "path to the directory YAML file")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stdout",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *filePath, *dryRun, logger); err != nil {
		logger.Error("Directory import failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, path string, dryRun bool, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open directory file: %w", err)
	}
	defer f.Close()

	users, err := directory.Parse(f)
	if err != nil {
		return err
	}
	logger.Info("Directory file parsed", zap.String("file", path), zap.Int("users", len(users)))

	if dryRun {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	containerCfg := cfg.ToContainerConfig()
	store, err := container.ProvideStore(ctx, &containerCfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	n, err := directory.NewImporter(store.Users, logger).Import(ctx, users)
	if err != nil {
		return err
	}

	logger.Info("Directory import completed", zap.Int("imported", n))
	return nil
}
