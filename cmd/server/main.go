package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oggyb/h1bee-match/internal/app"
	"github.com/oggyb/h1bee-match/internal/auth"
	"github.com/oggyb/h1bee-match/internal/cache"
	"github.com/oggyb/h1bee-match/internal/config"
	"github.com/oggyb/h1bee-match/internal/db"
	"github.com/oggyb/h1bee-match/internal/logger"
	"github.com/oggyb/h1bee-match/internal/notify"
	"github.com/oggyb/h1bee-match/internal/observability"
	"github.com/oggyb/h1bee-match/internal/server"
	"github.com/oggyb/h1bee-match/internal/service/discovery"
	"github.com/oggyb/h1bee-match/internal/service/explore"
	"github.com/oggyb/h1bee-match/internal/service/match"
	"github.com/oggyb/h1bee-match/internal/transport/http/handlers"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		log.Error("failed to init tracing", "err", err)
		return
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	flushSentry, err := observability.InitSentry(cfg.Sentry.DSN, cfg.App.ENV)
	if err != nil {
		log.Warn("sentry disabled", "err", err)
	}
	defer flushSentry()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}
	sqlDB, err := database.DB()
	if err != nil {
		log.Error("failed to get sql.DB", "err", err)
		return
	}
	defer sqlDB.Close()

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	notifier, notifierCloser := notify.New(cfg, redisCache, log)
	defer notifierCloser.Close()
	log.Info("match notifications", "driver", notify.Mode(notifier))

	appCtx := app.New(cfg, database, redisCache, notifier, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	matchSvc, err := match.NewMatchService(appCtx)
	if err != nil {
		log.Error("failed to init match service", "err", err)
		return
	}

	router := server.NewRouter(cfg, log, auth.NewVerifier(cfg.Auth.JWTSecret), server.Handlers{
		Match:  handlers.NewMatchHandler(discovery.NewDiscoveryService(appCtx), matchSvc),
		Likes:  handlers.NewLikesHandler(explore.NewExploreService(appCtx)),
		Health: handlers.NewHealthHandler(sqlDB, handlers.PingFunc(redisCache.Ping)),
	})
	health := server.NewHealthRegistrar(cfg.App.Name)

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Error("server failed", "server", name, "err", err)
				stop()
			}
		}()
	}
	run("http", func() error { return server.StartHTTPServer(ctx, cfg, log, router) })
	run("grpc", func() error { return server.StartGRPCServer(ctx, cfg, log, health) })

	<-ctx.Done()
	health.Shutdown()
	wg.Wait()
	log.Info("shutdown complete")
}
