package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/go-accounts-backend/config"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/audit"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/logging"
)

const commandTimeout = 2 * time.Minute

// RunAudit sweeps the configured directory once and exits non-zero when any
// account has a manager that no longer resolves.
func RunAudit(_ []string) {
	withDirectory(func(ctx context.Context, dir directory.Directory, logger *zap.Logger) error {
		report, err := audit.NewAuditor(dir, logger).Run(ctx)
		if err != nil {
			return err
		}
		for _, id := range report.Orphaned {
			fmt.Println(id)
		}
		if len(report.Orphaned) > 0 {
			return fmt.Errorf("%d of %d accounts have an unresolvable manager", len(report.Orphaned), report.Accounts)
		}
		return nil
	})
}

func RunSeed(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker seed <yamlPath>")
	}
	seed, err := bootstrap.LoadSeed(args[0])
	if err != nil {
		log.Fatal(err)
	}

	withDirectory(func(ctx context.Context, dir directory.Directory, logger *zap.Logger) error {
		return seed.Apply(ctx, dir, logger)
	})
}

func withDirectory(fn func(context.Context, directory.Directory, *zap.Logger) error) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	dir, closeDir, err := bootstrap.OpenDirectory(ctx, cfg)
	if err != nil {
		logger.Error("open directory", zap.Error(err))
		os.Exit(1)
	}
	defer closeDir()

	if err := fn(ctx, dir, logger); err != nil {
		logger.Error("command failed", zap.Error(err))
		closeDir()
		cancel()
		os.Exit(1)
	}
}
