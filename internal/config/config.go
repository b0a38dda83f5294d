// Package config loads tool configuration from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"kraken-tools/internal/ingestion"
	"kraken-tools/internal/kraken"
	"kraken-tools/internal/normalization"
)

// Storage backends.
const (
	BackendCSV        = "csv"
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
	BackendRedis      = "redis"
)

// Environment variables that override the file.
const (
	EnvRESTURL       = "KRAKEN_REST_URL"
	EnvWSURL         = "KRAKEN_WS_URL"
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvClickhouseDSN = "CLICKHOUSE_DSN"
	EnvRedisAddr     = "REDIS_ADDR"
)

// Config holds settings shared by the volume and ingest tools.
type Config struct {
	Kraken      KrakenConfig  `yaml:"kraken"`
	Volume      VolumeConfig  `yaml:"volume"`
	Ingest      IngestConfig  `yaml:"ingest"`
	Storage     StorageConfig `yaml:"storage"`
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables /metrics and /health
}

// KrakenConfig configures the exchange endpoints.
type KrakenConfig struct {
	RESTURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// VolumeConfig configures the USD volume ranking run.
type VolumeConfig struct {
	ChunkSize    int           `yaml:"chunk_size"`
	Pause        time.Duration `yaml:"pause"`
	TopN         int           `yaml:"top_n"`
	SummaryLimit int           `yaml:"summary_limit"`
}

// IngestConfig configures the live ticker session.
type IngestConfig struct {
	Pairs        string        `yaml:"pairs"` // list, file.txt[:n] or file.csv:column[:n]
	Channel      string        `yaml:"channel"`
	Snapshot     bool          `yaml:"snapshot"`
	DecodePolicy string        `yaml:"decode_policy"`
	FlushTimeout time.Duration `yaml:"flush_timeout"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	OutputDir     string `yaml:"output_dir"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Kraken: KrakenConfig{
			RESTURL:    kraken.DefaultBaseURL,
			WSURL:      kraken.DefaultWSURL,
			Timeout:    kraken.DefaultTimeout,
			MaxRetries: kraken.DefaultMaxRetries,
		},
		Volume: VolumeConfig{
			ChunkSize:    ingestion.DefaultChunkSize,
			Pause:        ingestion.DefaultPause,
			TopN:         normalization.DefaultTopN,
			SummaryLimit: 20,
		},
		Ingest: IngestConfig{
			Channel:      ingestion.ChannelTicker,
			Snapshot:     true,
			DecodePolicy: ingestion.Lenient.String(),
			FlushTimeout: ingestion.DefaultFlushTimeout,
		},
		Storage: StorageConfig{
			Backend:   BackendCSV,
			OutputDir: "data",
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is ignored.
func Load(path string) (*Config, error) {
	// godotenv.Load never overrides variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key string
		dst *string
	}{
		{EnvRESTURL, &c.Kraken.RESTURL},
		{EnvWSURL, &c.Kraken.WSURL},
		{EnvPostgresDSN, &c.Storage.PostgresDSN},
		{EnvClickhouseDSN, &c.Storage.ClickhouseDSN},
		{EnvRedisAddr, &c.Storage.RedisAddr},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error

	if c.Volume.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("volume.chunk_size must be > 0, got %d", c.Volume.ChunkSize))
	}
	if c.Volume.Pause < 0 {
		errs = append(errs, fmt.Errorf("volume.pause must be >= 0, got %s", c.Volume.Pause))
	}
	if c.Volume.TopN <= 0 {
		errs = append(errs, fmt.Errorf("volume.top_n must be > 0, got %d", c.Volume.TopN))
	}
	if c.Kraken.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("kraken.max_retries must be >= 0, got %d", c.Kraken.MaxRetries))
	}
	if c.Ingest.Channel != ingestion.ChannelTicker {
		errs = append(errs, fmt.Errorf("ingest.channel: only %q is supported, got %q", ingestion.ChannelTicker, c.Ingest.Channel))
	}
	if _, err := ingestion.ParseDecodePolicy(c.Ingest.DecodePolicy); err != nil {
		errs = append(errs, fmt.Errorf("ingest.decode_policy: %w", err))
	}

	switch c.Storage.Backend {
	case BackendCSV:
		if c.Storage.OutputDir == "" {
			errs = append(errs, errors.New("storage.output_dir is required for the csv backend"))
		}
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("storage.postgres_dsn (or %s) is required for the postgres backend", EnvPostgresDSN))
		}
	case BackendClickhouse:
		if c.Storage.ClickhouseDSN == "" {
			errs = append(errs, fmt.Errorf("storage.clickhouse_dsn (or %s) is required for the clickhouse backend", EnvClickhouseDSN))
		}
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("storage.redis_addr (or %s) is required for the redis backend", EnvRedisAddr))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	return errors.Join(errs...)
}
