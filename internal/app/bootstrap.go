package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/catalog/internal/platform/cache"
	"github.com/odyssey-erp/catalog/internal/platform/db"
	"github.com/odyssey-erp/catalog/internal/products"
)

// Store is the opened product store together with its health probe.
type Store struct {
	Products products.Repository
	Probe    Probe
	close    func()
}

// Close releases the store connections.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// OpenStore opens the product store selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case StoreDriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return &Store{
			Products: products.NewMemoryRepository(),
			Probe:    Probe{Name: "store", Check: func(context.Context) error { return nil }},
		}, nil
	case StoreDriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		return &Store{
			Products: products.NewRepository(pool),
			Probe:    Probe{Name: "store", Check: pool.Ping},
			close:    pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// OpenRedis connects to Redis and returns the client with its health probe.
func OpenRedis(ctx context.Context, cfg *Config) (*redis.Client, Probe, error) {
	client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return nil, Probe{}, err
	}
	probe := Probe{Name: "redis", Check: func(ctx context.Context) error {
		return cache.Ping(ctx, client)
	}}
	return client, probe, nil
}
