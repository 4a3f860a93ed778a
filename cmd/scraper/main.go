package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vimawesome/vimorg-scraper/config"
	"github.com/vimawesome/vimorg-scraper/models"
	"github.com/vimawesome/vimorg-scraper/pipeline"
	"github.com/vimawesome/vimorg-scraper/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()
	numDefault := defaultCfg.NumScripts
	if value, ok, err := config.EnvInt("SCRAPER_NUM_SCRIPTS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_NUM_SCRIPTS: %v\n", err)
		os.Exit(1)
	} else if ok {
		numDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	numScripts := flag.Int("num", numDefault, "Number of most-recent scripts to scrape")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "HTTP request timeout (seconds)")
	respectRobots := flag.Bool("respect-robots", false, "Respect robots.txt directives")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", "csv", "Output format: csv, json, or dual")
	workers := flag.Int("workers", defaultCfg.PipelineWorkers, "Number of pipeline workers")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Base URL of the script archive")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.NumScripts = *numScripts
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.RespectRobotsTxt = *respectRobots
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	cfg.PipelineWorkers = *workers
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("num_scripts", cfg.NumScripts),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing the current row")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p, err := pipeline.NewPipeline(ctx, writer, cfg)
	if err != nil {
		slog.Error("initialising pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	p.Start(cfg.PipelineWorkers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	startTime := time.Now()
	result, err := s.Run(ctx, p)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, time.Since(startTime), cfg.OutputFile, p.GetMetrics())
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.ScrapeResult, duration time.Duration, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	totalItems := int64(0)
	if processed, ok := metrics["processed_plugins"].(int64); ok {
		totalItems = processed
	}
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(totalItems) / duration.Seconds()
	}

	fmt.Printf("  Total plugins: %d\n", totalItems)
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	fmt.Printf("  Skipped rows:  %d\n", result.SkippedRows)
	if len(result.FailedItems) > 0 {
		fmt.Printf("  Failed items:  %v\n", result.FailedItems)
	}
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:    %v\n", valErrors)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Items/sec:     %.2f\n", itemsPerSec)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
