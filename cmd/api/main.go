package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/socialfeed/internal/auth"
	"github.com/geocoder89/socialfeed/internal/cache"
	"github.com/geocoder89/socialfeed/internal/config"
	"github.com/geocoder89/socialfeed/internal/db"
	httpx "github.com/geocoder89/socialfeed/internal/http"
	"github.com/geocoder89/socialfeed/internal/observability"
	"github.com/geocoder89/socialfeed/internal/repo/memory"
	"github.com/geocoder89/socialfeed/internal/repo/postgres"
	"github.com/geocoder89/socialfeed/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TraceConfig{
			ServiceName:   "socialfeed-api",
			Env:           cfg.Env,
			Endpoint:      cfg.OTELEndpoint,
			SamplePercent: cfg.OTELSamplePercent,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			tctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(tctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps := httpx.RouterDeps{
		Cfg:      cfg,
		JWT:      auth.NewManager(cfg.JWTSecret, cfg.AccessTTL()),
		Prom:     prom,
		Gatherer: reg,
	}

	// record store
	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		deps.Users = memory.NewUsersRepo()
		deps.Posts = memory.NewPostsRepo()

	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		mctx, cancel := config.WithTimeout(30 * time.Second)
		err = db.RunMigrations(mctx, pool)
		cancel()
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Posts = postgres.NewPostsRepo(pool, prom)
		deps.Ping = pool.Ping

	default:
		log.Error("unknown STORE", "store", cfg.Store)
		os.Exit(1)
	}

	// feed page cache
	feedCache, closeCache, err := buildFeedCache(ctx, cfg)
	if err != nil {
		log.Error("feed cache init failed", "err", err)
		os.Exit(1)
	}
	defer closeCache()
	deps.Cache = feedCache

	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store, "feed_cache", cfg.FeedCache)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// buildFeedCache returns a nil cache when FEED_CACHE is off.
func buildFeedCache(ctx context.Context, cfg config.Config) (services.FeedCache, func(), error) {
	noop := func() {}

	switch cfg.FeedCache {
	case "", "off":
		return nil, noop, nil

	case "memory":
		return cache.NewMemory(cfg.FeedCacheTTL()), noop, nil

	case "redis":
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.FeedCacheTTL(),
		})

		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		if err := rc.Ping(pctx); err != nil {
			_ = rc.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}

		return rc, func() { _ = rc.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown FEED_CACHE %q", cfg.FeedCache)
	}
}
