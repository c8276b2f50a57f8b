// Package store opens the configured persistence backend and the shared Redis client.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"roster/internal/audit"
	"roster/internal/auth"
	"roster/internal/config"
	"roster/internal/query"
	"roster/internal/store/memstore"
	"roster/internal/store/mongostore"
	"roster/internal/store/pgstore"
)

// Backend bundles the stores of one persistence backend.
type Backend struct {
	Employees query.RecordStore
	Users     auth.UserStore
	Audit     audit.Sink
	// Redis is nil unless the queue or session backend needs it.
	Redis *redis.Client

	checks  map[string]func(context.Context) error
	closers []func() error
}

// Open connects everything cfg asks for. Postgres gets its schema bootstrapped
// and Mongo its indexes.
func Open(ctx context.Context, cfg config.App, log logrus.FieldLogger) (*Backend, error) {
	b := &Backend{checks: make(map[string]func(context.Context) error)}

	switch cfg.StoreBackend {
	case "postgres":
		db, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		if err := pgstore.Migrate(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		b.Employees, b.Users, b.Audit = pgstore.NewEmployees(db), pgstore.NewUsers(db), pgstore.NewAudit(db)
		b.checks["postgres"] = db.PingContext
	case "mongo":
		client, db, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { return client.Disconnect(context.Background()) })
		employees, users := mongostore.NewEmployees(db), mongostore.NewUsers(db)
		if err := errors.Join(employees.EnsureIndexes(ctx), users.EnsureIndexes(ctx)); err != nil {
			b.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		b.Employees, b.Users, b.Audit = employees, users, mongostore.NewAudit(db)
		b.checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	case "memory":
		b.Employees, b.Users, b.Audit = memstore.NewEmployees(), memstore.NewUsers(), memstore.NewAudit()
		log.Warn("using in-memory store; data is lost on exit")
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.QueueBackend == "redis" || cfg.SessionBackend == "redis" {
		b.Redis = NewRedis(cfg.RedisAddr)
		b.closers = append(b.closers, b.Redis.Close)
		b.checks["redis"] = func(ctx context.Context) error { return b.Redis.Ping(ctx).Err() }
	}

	log.WithField("backend", cfg.StoreBackend).Info("store ready")
	return b, nil
}

// Health pings every dependency and reports failures by name.
func (b *Backend) Health(ctx context.Context) map[string]error {
	out := make(map[string]error, len(b.checks))
	for name, check := range b.checks {
		out[name] = check(ctx)
	}
	return out
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}
