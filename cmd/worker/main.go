package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"roster/internal/audit"
	"roster/internal/config"
	"roster/internal/logging"
	"roster/internal/queue"
	"roster/internal/store"
)

// Worker consumes employee change events and writes them to the audit log.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Production())

	if cfg.QueueBackend != "redis" {
		log.Fatal("the worker needs QUEUE_BACKEND=redis; the api drains in-memory queues itself")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer backend.Close()

	worker := audit.NewWorker(queue.NewRedisQueue(backend.Redis, ""), backend.Audit, log.WithField("component", "audit"))
	if err := worker.Run(ctx); err != nil {
		log.WithError(err).Error("worker failed")
	}
}
