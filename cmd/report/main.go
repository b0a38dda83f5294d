// Command report renders a previously saved volume ranking as Markdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"kraken-tools/internal/config"
	"kraken-tools/internal/reporting"
	"kraken-tools/internal/storage/backend"
)

func main() {
	defaults := config.Default()

	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	runID := flag.String("run-id", "", "Ranking run identifier (required)")
	limit := flag.Int("limit", defaults.Volume.SummaryLimit, "Rows shown in the report")
	backendName := flag.String("storage", defaults.Storage.Backend, "Storage backend: csv or postgres")
	outputDir := flag.String("output-dir", defaults.Storage.OutputDir, "Directory of the csv backend")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (env "+config.EnvPostgresDSN+")")
	output := flag.String("output", "", "Write the report to this file instead of stdout")
	flag.Parse()

	if *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: --run-id is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "storage":
			cfg.Storage.Backend = *backendName
		case "output-dir":
			cfg.Storage.OutputDir = *outputDir
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)
	ctx := context.Background()

	store, cleanup, err := backend.OpenRankingStore(ctx, cfg.Storage, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	report, err := reporting.NewGenerator(store).Generate(ctx, *runID, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		cleanup()
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			cleanup()
			os.Exit(1)
		}
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *output, err)
			cleanup()
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if _, err := io.WriteString(w, reporting.RenderMarkdown(report)); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		cleanup()
		os.Exit(1)
	}

	if *output != "" {
		logger.Printf("Report written to %s", *output)
	}
}
