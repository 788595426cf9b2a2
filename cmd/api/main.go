// Package main provides the entry point for the site builder API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/narvanalabs/sitebuilder/internal/api"
	"github.com/narvanalabs/sitebuilder/internal/api/health"
	"github.com/narvanalabs/sitebuilder/internal/auth"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/domains"
	"github.com/narvanalabs/sitebuilder/internal/events"
	"github.com/narvanalabs/sitebuilder/internal/hosting"
	"github.com/narvanalabs/sitebuilder/internal/shutdown"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/store/memory"
	pgstore "github.com/narvanalabs/sitebuilder/internal/store/postgres"
	"github.com/narvanalabs/sitebuilder/pkg/config"
	"github.com/narvanalabs/sitebuilder/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.Format != "text",
		File:  cfg.Log.File,
	})
	slog.SetDefault(log.Logger)

	os.Exit(run(cfg, log))
}

func run(cfg *config.Config, log *logger.Logger) int {
	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	checker := health.NewChecker(api.Version)

	// Store
	var st store.Store
	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		st = memory.New()
		checker.Register("database", health.PingFunc(func(context.Context) error { return nil }), true)
	default:
		pg, err := pgstore.NewPostgresStore(pgstore.DefaultConfig(cfg.DatabaseDSN), log.WithComponent("store").Logger)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			return 1
		}
		st = pg
		checker.Register("database", pg, true)
	}
	coordinator.Register(shutdown.NewCloserComponent("store", st))

	// In-flight guard
	var guard deploy.Guard = deploy.NewMemoryGuard()
	if cfg.Deploy.RedisURL != "" {
		client, err := deploy.ConnectRedis(cfg.Deploy.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			return 1
		}
		coordinator.Register(shutdown.NewCloserComponent("redis", client))
		redisGuard := deploy.NewRedisGuard(client, log.WithComponent("deploy-guard").Logger)
		checker.Register("redis", redisGuard, false)
		guard = redisGuard
		log.Info("using redis deployment guard")
	}

	adapter, err := hosting.New(cfg.Deploy, log.Logger)
	if err != nil {
		log.Error("failed to create hosting adapter", "error", err)
		return 1
	}

	broker := events.NewBroker(log.WithComponent("events").Logger)

	controller := deploy.NewController(adapter, st.Deployments(),
		deploy.WithTimeout(cfg.Deploy.Timeout),
		deploy.WithGuard(guard),
		deploy.WithPublisher(broker),
		deploy.WithLogger(log.Logger),
	)
	coordinator.Register(controller)

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	recovered, err := controller.RecoverInterrupted(startupCtx)
	cancel()
	if err != nil {
		log.Error("failed to recover interrupted deployments", "error", err)
		return 1
	}
	if recovered > 0 {
		log.Warn("marked interrupted deployments as failed", "count", recovered)
	}

	domainManager := domains.NewManager(adapter, st.Domains(), controller,
		domains.WithPublisher(broker),
		domains.WithLogger(log.Logger),
	)
	coordinator.Register(domainManager)

	authService := auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.TokenExpiry,
	}, log.Logger)

	server := api.NewServer(cfg, api.Dependencies{
		Store:      st,
		Controller: controller,
		Domains:    domainManager,
		Broker:     broker,
		Auth:       authService,
		Health:     checker,
	}, log.WithComponent("api").Logger)
	coordinator.Register(server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		coordinator.WaitForSignal(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		coordinator.Shutdown()
		return 1
	}

	log.Info("server stopped")
	return coordinator.ExitCode()
}
