// Package backend assembles the repository and change bus selected by
// configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"zenbudget/internal/amqp"
	"zenbudget/internal/changefeed"
	"zenbudget/internal/log"
	"zenbudget/internal/store"
	"zenbudget/internal/store/memory"
	"zenbudget/internal/store/postgres"
	"zenbudget/internal/store/sqlite"
)

// Pinger is implemented by stores and buses that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Result is an assembled backend. Repo publishes every write on Bus.
type Result struct {
	Repo *store.Notifying
	Bus  changefeed.Bus

	base store.Repository
}

// Ping checks every component that supports it.
func (r *Result) Ping(ctx context.Context) error {
	for _, c := range []any{r.base, r.Bus} {
		if p, ok := c.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the bus, then the repository.
func (r *Result) Close() error {
	return errors.Join(r.Bus.Close(), r.base.Close())
}

// Factory creates backends based on configuration
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	return &Factory{logger: logger.WithComponent(log.ComponentStorage)}
}

// Create opens the configured store and bus.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	repo, err := f.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bus, err := f.openBus(ctx, cfg)
	if err != nil {
		repo.Close()
		return nil, err
	}
	f.logger.InfoContext(ctx, "Backend ready", "store", cfg.Store, "feed", cfg.Feed)
	return &Result{Repo: store.Notify(repo, bus), Bus: bus, base: repo}, nil
}

func (f *Factory) openStore(ctx context.Context, cfg Config) (store.Repository, error) {
	switch cfg.Store {
	case SQLiteStore:
		repo, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case PostgresStore:
		repo, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		return repo, nil
	case MemoryStore:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported store type: %s", cfg.Store)
}

func (f *Factory) openBus(ctx context.Context, cfg Config) (changefeed.Bus, error) {
	switch cfg.Feed {
	case AMQPFeed:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		return client, nil
	case RedisFeed:
		bus, err := changefeed.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisChannel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis bus: %w", err)
		}
		return bus, nil
	case LocalFeed:
		return changefeed.NewLocalBus(256), nil
	}
	return nil, fmt.Errorf("unsupported feed type: %s", cfg.Feed)
}
