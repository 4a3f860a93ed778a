package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL          string
	NumScripts       int
	Timeout          time.Duration
	UserAgent        string
	RespectRobotsTxt bool

	OutputFile   string
	OutputFormat string // csv, json, or dual
	MetricsAddr  string
	Verbose      bool

	PipelineWorkers    int
	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int
}

// DefaultConfig returns conservative defaults for the vim.org script pages.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://www.vim.org",
		NumScripts:         100,
		Timeout:            10 * time.Second,
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt:   false,
		OutputFile:         "output/plugins.csv",
		OutputFormat:       "csv",
		MetricsAddr:        "",
		Verbose:            false,
		PipelineWorkers:    2,
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      65536,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.NumScripts <= 0 {
		return fmt.Errorf("num scripts must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.PipelineWorkers <= 0 {
		return fmt.Errorf("pipeline workers must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}

// EnvInt reads an integer override from the environment.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", name, err)
	}
	return value, true, nil
}

// EnvString reads a string override from the environment.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
