package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/go-accounts-backend/config"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/audit"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/auth"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/logging"
)

const serviceName = "accounts-admin"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("accounts service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)

	dir, closeDir, err := bootstrap.OpenDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDir()
	logger.Info("directory ready", zap.String("backend", cfg.Directory.Backend))

	if cfg.Directory.SeedFile != "" {
		seed, err := bootstrap.LoadSeed(cfg.Directory.SeedFile)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, dir, logger); err != nil {
			return err
		}
	}

	var firebaseClient *firebaseauth.Client
	if cfg.Admin.AuthMode == config.AuthModeFirebase {
		firebaseClient, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
	}
	if !cfg.Admin.AllowAdminAPI {
		logger.Warn("ALLOW_ADMIN_API is off; every account request will be refused")
	}

	if cfg.Audit.Schedule != "" {
		scheduler, err := audit.NewAuditor(dir, logger).Schedule(cfg.Audit.Schedule, 30*time.Second)
		if err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		Directory:      dir,
		Guard:          auth.NewAdminGuard(dir, cfg.Admin.AllowAdminAPI),
		Firebase:       firebaseClient,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
