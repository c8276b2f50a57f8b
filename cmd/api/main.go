package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"roster/internal/audit"
	"roster/internal/auth"
	"roster/internal/config"
	"roster/internal/employee"
	"roster/internal/handler"
	"roster/internal/httpmiddleware"
	"roster/internal/logging"
	"roster/internal/query"
	"roster/internal/queue"
	"roster/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Production())

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("api stopped")
	}
}

func run(ctx context.Context, cfg config.App, log *logrus.Logger) error {
	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(256)
	} else {
		q = queue.NewRedisQueue(backend.Redis, "")
	}

	var sessions auth.Sessions
	if cfg.SessionBackend == "memory" {
		sessions = auth.NewMemorySessions()
	} else {
		sessions = auth.NewRedisSessions(backend.Redis)
	}

	tokens := auth.NewTokens(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	accounts := auth.NewAccounts(backend.Users, tokens, sessions, log.WithField("component", "auth"))
	pager := query.NewPaginator(backend.Employees, cfg.PageSizeDefault, cfg.PageSizeMax)
	employees := employee.NewService(backend.Employees, pager, q, log.WithField("component", "employee"))
	limiter := httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: handler.New(handler.Options{
			Employees:   employees,
			Accounts:    accounts,
			Users:       backend.Users,
			Health:      backend.Health,
			Limiter:     limiter,
			Log:         log.WithField("component", "http"),
			Production:  cfg.Production(),
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.HTTPPort).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				limiter.Sweep(10 * time.Minute)
			}
		}
	})
	if cfg.QueueBackend == "memory" {
		// Nothing outside this process can drain an in-memory queue.
		worker := audit.NewWorker(q, backend.Audit, log.WithField("component", "audit"))
		g.Go(func() error { return worker.Run(ctx) })
	}

	err = g.Wait()
	log.Info("server exited")
	return err
}
