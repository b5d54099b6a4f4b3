package backend

import (
	"fmt"

	"zenbudget/internal/config"
)

// StoreType selects the repository implementation.
type StoreType string

const (
	MemoryStore   StoreType = config.BackendMemory
	SQLiteStore   StoreType = config.BackendSQLite
	PostgresStore StoreType = config.BackendPostgres
)

func (t StoreType) IsValid() bool {
	switch t {
	case MemoryStore, SQLiteStore, PostgresStore:
		return true
	}
	return false
}

// FeedType selects how changes travel from writers to subscribers.
type FeedType string

const (
	LocalFeed FeedType = config.FeedLocal
	AMQPFeed  FeedType = config.FeedAMQP
	RedisFeed FeedType = config.FeedRedis
)

func (t FeedType) IsValid() bool {
	switch t {
	case LocalFeed, AMQPFeed, RedisFeed:
		return true
	}
	return false
}

// Config holds what the factory needs from the application config.
type Config struct {
	Store        StoreType
	SQLiteDBPath string
	DatabaseURL  string

	Feed          FeedType
	AMQPURL       string
	AMQPExchange  string
	RedisAddr     string
	RedisPassword string
	RedisChannel  string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Store:        StoreType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		Feed:          FeedType(appConfig.ChangeFeed),
		AMQPURL:       appConfig.AMQPURL,
		AMQPExchange:  appConfig.AMQPExchange,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisChannel:  appConfig.RedisChannel,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Store.IsValid() {
		return fmt.Errorf("invalid store type: %s", c.Store)
	}
	if !c.Feed.IsValid() {
		return fmt.Errorf("invalid feed type: %s", c.Feed)
	}
	switch c.Store {
	case SQLiteStore:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite store")
		}
	case PostgresStore:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres store")
		}
	}
	switch c.Feed {
	case AMQPFeed:
		if c.AMQPURL == "" || c.AMQPExchange == "" {
			return fmt.Errorf("AMQP URL and exchange are required for amqp feed")
		}
	case RedisFeed:
		if c.RedisAddr == "" || c.RedisChannel == "" {
			return fmt.Errorf("Redis address and channel are required for redis feed")
		}
	}
	return nil
}
