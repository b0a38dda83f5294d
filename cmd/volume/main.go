// Command volume ranks all tradeable Kraken pairs by 24h volume in USD.
//
// Flow: pair catalog → chunked ticker fetch → USD conversion map → ranking → storage.
// Flags override environment variables, which override the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kraken-tools/internal/config"
	"kraken-tools/internal/kraken"
	"kraken-tools/internal/observability"
	"kraken-tools/internal/orchestrator"
	"kraken-tools/internal/reporting"
	"kraken-tools/internal/storage/backend"
	"kraken-tools/internal/storage/csvfile"
)

const tool = "volume"

func main() {
	defaults := config.Default()

	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	restURL := flag.String("rest-url", defaults.Kraken.RESTURL, "Kraken REST base URL (env "+config.EnvRESTURL+")")
	timeout := flag.Duration("timeout", defaults.Kraken.Timeout, "REST request timeout")
	maxRetries := flag.Int("max-retries", defaults.Kraken.MaxRetries, "Retries on rate limits and server errors")
	chunkSize := flag.Int("chunk-size", defaults.Volume.ChunkSize, "Pairs per Ticker request")
	pause := flag.Duration("pause", defaults.Volume.Pause, "Pause after every Ticker request (0 disables)")
	topN := flag.Int("top-n", defaults.Volume.TopN, "Number of pairs kept in the ranking")
	summaryLimit := flag.Int("summary-limit", defaults.Volume.SummaryLimit, "Rows shown in the console summary")
	backendName := flag.String("storage", defaults.Storage.Backend, "Storage backend: csv, memory or postgres")
	outputDir := flag.String("output-dir", defaults.Storage.OutputDir, "Output directory for the csv backend")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (env "+config.EnvPostgresDSN+")")
	runID := flag.String("run-id", "", "Run identifier (default: random UUID)")
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
		case "rest-url":
			cfg.Kraken.RESTURL = *restURL
		case "timeout":
			cfg.Kraken.Timeout = *timeout
		case "max-retries":
			cfg.Kraken.MaxRetries = *maxRetries
		case "chunk-size":
			cfg.Volume.ChunkSize = *chunkSize
		case "pause":
			cfg.Volume.Pause = *pause
		case "top-n":
			cfg.Volume.TopN = *topN
		case "summary-limit":
			cfg.Volume.SummaryLimit = *summaryLimit
		case "storage":
			cfg.Storage.Backend = *backendName
		case "output-dir":
			cfg.Storage.OutputDir = *outputDir
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, stopping run...", sig)
		cancel()

		sig = <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	start := time.Now()
	err = run(ctx, cfg, *runID, logger)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordRun(tool, status, time.Since(start).Seconds())

	if err != nil {
		var fe *kraken.FetchError
		if errors.As(err, &fe) {
			logger.Fatalf("Upstream error, run aborted: %v", err)
		}
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, runID string, logger *log.Logger) error {
	store, cleanup, err := backend.OpenRankingStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer cleanup()

	client := kraken.NewHTTPClient(cfg.Kraken.RESTURL,
		kraken.WithTimeout(cfg.Kraken.Timeout),
		kraken.WithMaxRetries(cfg.Kraken.MaxRetries),
	)

	// Zero means no pause here; the fetcher treats zero as its default
	pause := cfg.Volume.Pause
	if pause == 0 {
		pause = -1
	}

	orch := orchestrator.New(orchestrator.Options{
		Client:       client,
		RankingStore: store,
		ChunkSize:    cfg.Volume.ChunkSize,
		Pause:        pause,
		TopN:         cfg.Volume.TopN,
		RunID:        runID,
		Logger:       logger,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	report := reporting.BuildRankingReport(result.Ranking, result.Conversion, cfg.Volume.SummaryLimit).
		WithQuality(reporting.CheckRunQuality(reporting.RunStats{
			ChunksTotal:  result.Fetch.ChunksTotal,
			ChunksFailed: len(result.Fetch.FailedChunks),
			Candidates:   result.Candidates,
			Dropped:      len(result.Dropped),
		}, result.Ranking))
	fmt.Print(reporting.RenderMarkdown(report))

	if s, ok := store.(*csvfile.VolumeRankingStore); ok {
		logger.Printf("Saved top %d USD volume pairs to %s", len(result.Ranking.Records), s.Path(orch.RunID()))
	} else {
		logger.Printf("Saved ranking %s (%d pairs)", orch.RunID(), len(result.Ranking.Records))
	}
	return nil
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
