package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alexroche/boutique/internal/config"
	"github.com/alexroche/boutique/internal/notifications"
	"github.com/alexroche/boutique/internal/observability"
	"github.com/alexroche/boutique/internal/queue/redisclient"
	"github.com/alexroche/boutique/internal/queue/worker"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	log := observability.NewLogger(os.Getenv("APP_ENV"))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	queue := redisclient.New(redisclient.Config{
		Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
	})

	defer queue.Close()

	pingCtx, cancel := config.WithTimeout(3 * time.Second)

	err := queue.Ping(pingCtx)
	cancel()

	if err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:    workerID,
		PollTimeout: 2 * time.Second,
	}, queue, notifications.NewLogNotifier(log), prom, log)

	// health endpoints on a side listener
	healthAddr := getEnv("WORKER_HEALTH_ADDR", ":8090")

	go func() {
		srv := &http.Server{
			Addr:              healthAddr,
			Handler:           w.HealthHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker health listener failed", "err", err)
		}
	}()

	log.Info("worker started", "worker_id", workerID, "health_addr", healthAddr)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)

	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)

	if err != nil {
		return fallback
	}

	return num
}
