package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexroche/boutique/internal/config"
	"github.com/alexroche/boutique/internal/db"
	httpx "github.com/alexroche/boutique/internal/http"
	"github.com/alexroche/boutique/internal/observability"
	"github.com/alexroche/boutique/internal/queue/redisclient"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "boutique-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	seedCtx, cancel := config.WithTimeout(10 * time.Second)

	err = db.EnsureAdminUser(seedCtx, pool, cfg)
	cancel()

	if err != nil {
		log.Error("admin seeding failed", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	queue := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer queue.Close()

	router := httpx.NewRouter(log, httpx.Deps{
		Pool:     pool,
		Cfg:      cfg,
		Prom:     prom,
		Registry: registry,
		Queue:    queue,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)

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

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
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
