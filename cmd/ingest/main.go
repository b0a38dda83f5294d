// Command ingest streams live Kraken ticker updates until interrupted and
// persists the session's records in one bulk write at shutdown.
//
// Pairs come from --pairs: a comma list, pairs.txt[:n] or ranking.csv:column[:n].
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kraken-tools/internal/config"
	"kraken-tools/internal/ingestion"
	"kraken-tools/internal/kraken"
	"kraken-tools/internal/observability"
	"kraken-tools/internal/pairspec"
	"kraken-tools/internal/schema"
	"kraken-tools/internal/storage/backend"
	"kraken-tools/internal/storage/csvfile"
)

const tool = "ingest"

func main() {
	defaults := config.Default()

	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	pairs := flag.String("pairs", "", "Pairs: BTC/USD,ETH/USD | pairs.txt[:n] | ranking.csv:pair[:n]")
	wsURL := flag.String("ws-url", defaults.Kraken.WSURL, "Kraken websocket URL (env "+config.EnvWSURL+")")
	channel := flag.String("channel", defaults.Ingest.Channel, "Channel to subscribe to (only ticker is decoded)")
	snapshot := flag.Bool("snapshot", defaults.Ingest.Snapshot, "Request an initial snapshot")
	decodePolicy := flag.String("decode-policy", defaults.Ingest.DecodePolicy, "Missing numeric fields: lenient (default to 0) or strict (reject)")
	flushTimeout := flag.Duration("flush-timeout", defaults.Ingest.FlushTimeout, "Timeout for the final bulk write")
	backendName := flag.String("storage", defaults.Storage.Backend, "Storage backend: csv, memory, postgres, clickhouse or redis")
	outputDir := flag.String("output-dir", defaults.Storage.OutputDir, "Output directory for the csv backend")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (env "+config.EnvPostgresDSN+")")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (env "+config.EnvClickhouseDSN+")")
	redisAddr := flag.String("redis-addr", "", "Redis address or URL (env "+config.EnvRedisAddr+")")
	sessionID := flag.String("session-id", "", "Session identifier (default: random UUID)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "["+tool+"] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Only explicitly set flags override the file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pairs":
			cfg.Ingest.Pairs = *pairs
		case "ws-url":
			cfg.Kraken.WSURL = *wsURL
		case "channel":
			cfg.Ingest.Channel = *channel
		case "snapshot":
			cfg.Ingest.Snapshot = *snapshot
		case "decode-policy":
			cfg.Ingest.DecodePolicy = *decodePolicy
		case "flush-timeout":
			cfg.Ingest.FlushTimeout = *flushTimeout
		case "storage":
			cfg.Storage.Backend = *backendName
		case "output-dir":
			cfg.Storage.OutputDir = *outputDir
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		case "clickhouse-dsn":
			cfg.Storage.ClickhouseDSN = *clickhouseDSN
		case "redis-addr":
			cfg.Storage.RedisAddr = *redisAddr
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Ingest.Pairs == "" {
		logger.Fatal("--pairs is required")
	}

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, closing stream and flushing records...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		grace := cfg.Ingest.FlushTimeout + 10*time.Second
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(grace):
			logger.Printf("Graceful shutdown timed out after %v, forcing exit", grace)
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	start := time.Now()
	err = run(ctx, cfg, *sessionID, logger)

	// Signal completion to shutdown handler
	done <- err
	cancel()

	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordRun(tool, status, time.Since(start).Seconds())

	if err != nil {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, sessionID string, logger *log.Logger) error {
	symbols, err := pairspec.Parse(cfg.Ingest.Pairs)
	if err != nil {
		return err
	}
	logger.Printf("Resolved %d symbols", len(symbols))

	policy, err := ingestion.ParseDecodePolicy(cfg.Ingest.DecodePolicy)
	if err != nil {
		return err
	}

	validator, err := schema.New()
	if err != nil {
		return fmt.Errorf("load message contracts: %w", err)
	}

	// Open storage before dialing so a bad backend fails fast
	store, cleanup, err := backend.OpenTickerStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer cleanup()

	conn, err := kraken.DialWS(ctx, cfg.Kraken.WSURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Kraken.WSURL, err)
	}
	logger.Printf("Connected to %s", conn.Endpoint())

	snapshot := cfg.Ingest.Snapshot
	p := ingestion.NewPipeline(ingestion.PipelineOptions{
		Conn:         conn,
		Validator:    validator,
		Store:        store,
		Symbols:      symbols,
		Channel:      cfg.Ingest.Channel,
		Snapshot:     &snapshot,
		DecodePolicy: policy,
		FlushTimeout: cfg.Ingest.FlushTimeout,
		SessionID:    sessionID,
		Logger:       logger,
	})

	stats, err := p.Run(ctx)
	logger.Printf("Session %s: %d messages (%d tickers, %d heartbeats, %d acks, %d unknown, %d invalid), %d records, %d rejected, %d flushed",
		stats.SessionID, stats.Messages, stats.Tickers, stats.Heartbeats, stats.Acks,
		stats.Unknown, stats.Invalid, stats.Records, stats.Rejected, stats.Flushed)

	if s, ok := store.(*csvfile.TickerRecordStore); ok && stats.Flushed > 0 {
		logger.Printf("Saved to %s", s.Path(stats.SessionID))
	}
	return err
}

func serveMetrics(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("Metrics server error: %v", err)
	}
}
