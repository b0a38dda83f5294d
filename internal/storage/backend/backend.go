// Package backend opens the storage backend selected in the configuration.
package backend

import (
	"context"
	"fmt"
	"log"

	"kraken-tools/internal/config"
	"kraken-tools/internal/storage"
	chstore "kraken-tools/internal/storage/clickhouse"
	"kraken-tools/internal/storage/csvfile"
	"kraken-tools/internal/storage/memory"
	"kraken-tools/internal/storage/migrations"
	pgstore "kraken-tools/internal/storage/postgres"
	redisstore "kraken-tools/internal/storage/redis"
)

// Cleanup releases backend resources. It is never nil.
type Cleanup func()

func noop() {}

// OpenRankingStore opens a ranking store for csv, memory or postgres.
// Postgres migrations are applied before the store is returned.
func OpenRankingStore(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (storage.VolumeRankingStore, Cleanup, error) {
	if logger == nil {
		logger = log.Default()
	}

	switch cfg.Backend {
	case config.BackendCSV:
		logger.Printf("Using CSV ranking store in %s", cfg.OutputDir)
		return csvfile.NewVolumeRankingStore(cfg.OutputDir), noop, nil

	case config.BackendMemory:
		logger.Println("Using in-memory ranking store, the ranking is not persisted")
		return memory.NewVolumeRankingStore(), noop, nil

	case config.BackendPostgres:
		pool, err := openPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		logger.Println("Using PostgreSQL ranking store")
		return pgstore.NewVolumeRankingStore(pool), pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("backend %q does not store rankings (use csv, memory or postgres)", cfg.Backend)
	}
}

// OpenTickerStore opens a ticker record store for any configured backend.
func OpenTickerStore(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (storage.TickerRecordStore, Cleanup, error) {
	if logger == nil {
		logger = log.Default()
	}

	switch cfg.Backend {
	case config.BackendCSV:
		logger.Printf("Using CSV ticker store in %s", cfg.OutputDir)
		return csvfile.NewTickerRecordStore(cfg.OutputDir), noop, nil

	case config.BackendMemory:
		logger.Println("Using in-memory ticker store, records are not persisted")
		return memory.NewTickerRecordStore(), noop, nil

	case config.BackendPostgres:
		pool, err := openPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		logger.Println("Using PostgreSQL ticker store")
		return pgstore.NewTickerRecordStore(pool), pool.Close, nil

	case config.BackendClickhouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open clickhouse: %w", err)
		}
		logger.Println("Using ClickHouse ticker store")
		return chstore.NewTickerRecordStore(conn), func() { conn.Close() }, nil

	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis: %w", err)
		}
		logger.Println("Using Redis ticker store")
		return redisstore.NewTickerRecordStore(client), func() { client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func openPostgres(ctx context.Context, dsn string) (*pgstore.Pool, error) {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return pool, nil
}
