package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Umar7799/task4safety/internal/broadcast"
	"github.com/Umar7799/task4safety/internal/config"
	"github.com/Umar7799/task4safety/internal/db"
	httpx "github.com/Umar7799/task4safety/internal/http"
	"github.com/Umar7799/task4safety/internal/observability"
	"github.com/Umar7799/task4safety/internal/redisclient"
	"github.com/Umar7799/task4safety/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is optional; only wired when an OTLP endpoint is configured
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "userdir-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(3 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	// database: pool + schema + bootstrap admin

	if err := db.Migrate(cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	seedCtx, seedCancel := config.WithTimeout(5 * time.Second)

	err = db.EnsureAdminUser(seedCtx, pool, cfg)

	seedCancel()

	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	// metrics registry

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewProm(registry)

	// broadcast hub, with a redis bridge when configured so several API
	// instances share one logical channel

	hub := broadcast.NewHub()

	var redis *redisclient.Client

	if cfg.RedisAddr != "" {
		redis = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, pingCancel := config.WithTimeout(2 * time.Second)

		err = redis.Ping(pingCtx)

		pingCancel()

		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}

		defer func() { _ = redis.Close() }()
	}

	notifier := broadcast.NewBroadcaster(hub, redis, "", metrics, log)

	bridgeCtx, bridgeCancel := context.WithCancel(context.Background())
	defer bridgeCancel()

	if redis != nil {
		go notifier.Run(bridgeCtx)
	}

	ping := func() error {
		ctx, cancel := config.WithTimeout(1 * time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	usersRepo := postgres.NewUsersRepo(pool, metrics)

	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Cfg:      cfg,
		Store:    usersRepo,
		Hub:      hub,
		Notifier: notifier,
		Metrics:  metrics,
		Gatherer: registry,
		Ping:     ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// WriteTimeout would cut long-lived SSE streams; rely on
		// per-request DB timeouts instead
		IdleTimeout: 60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	// closing the hub ends every open event stream so Shutdown can drain
	hub.Close()
	bridgeCancel()

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
