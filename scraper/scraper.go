// Package scraper extracts plugin metadata from vim.org: a search-results
// listing walk that merges each row with fields scraped from the script's
// detail page.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/vimawesome/vimorg-scraper/config"
	"github.com/vimawesome/vimorg-scraper/models"
	"github.com/vimawesome/vimorg-scraper/parser"
	"github.com/vimawesome/vimorg-scraper/pipeline"
)

// Scraper wraps a synchronous colly collector. Fetches are strictly
// sequential and attempted exactly once: each row's detail page is fully
// processed (or failed) before the next row begins.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics

	mu           sync.Mutex
	requestCount int
	errorCount   int
	skippedRows  int
	failedItems  []string
	errorsByType map[string]int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Scraper{
		cfg:          cfg,
		collector:    collector,
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}, nil
}

// Run scrapes the configured batch and streams merged records through the
// pipeline, returning run-level counters.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.ScrapeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	plugins, err := s.ScrapePlugins(ctx, s.cfg.NumScripts)
	if err != nil {
		return nil, err
	}

	total := 0
	for plugin := range plugins {
		if err := p.Process(plugin); err != nil {
			if errors.Is(err, pipeline.ErrPipelineClosed) {
				break
			}
			slog.Error("pipeline process error", slog.Any("error", err))
			continue
		}
		total++
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.ScrapeResult{
		StartTime:    start,
		EndTime:      time.Now(),
		TotalCount:   total,
		RequestCount: s.requestCount,
		ErrorCount:   s.errorCount,
		SkippedRows:  s.skippedRows,
		FailedItems:  append([]string(nil), s.failedItems...),
		ErrorsByType: copyCounts(s.errorsByType),
	}, nil
}

// ScrapePlugins fetches one search-results page of the num most recent
// scripts and returns a lazy sequence of merged records in listing order.
// Failing to fetch or parse the listing itself is fatal for the whole
// batch; any error while processing a single row is logged and only that
// row is skipped.
func (s *Scraper) ScrapePlugins(ctx context.Context, num int) (iter.Seq[*models.Plugin], error) {
	listURL := fmt.Sprintf("%s/scripts/script_search_results.php?show_me=%d",
		strings.TrimSuffix(s.cfg.BaseURL, "/"), num)
	doc, err := s.fetchDocument(ctx, listURL, "listing")
	if err != nil {
		s.recordError(err, "")
		return nil, err
	}
	rows, err := listingRows(doc)
	if err != nil {
		s.recordError(err, "")
		return nil, err
	}

	return func(yield func(*models.Plugin) bool) {
		rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if ctx.Err() != nil {
				return false
			}
			plugin, err := s.scrapeRow(ctx, row)
			if err != nil {
				// already logged and counted; the batch continues
				return true
			}
			return yield(plugin)
		})
	}, nil
}

// listingRows locates the single script table by its header text and strips
// the two header rows and the trailing pagination row, which carry no
// scripts. The header must belong to the table itself: wrapper layout
// tables carry the same header as a descendant and must not match.
func listingRows(doc *goquery.Document) (*goquery.Selection, error) {
	table := doc.Find("table").FilterFunction(func(_ int, t *goquery.Selection) bool {
		found := false
		t.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
			if strings.Contains(th.Text(), "Script") && inTable(th, t) {
				found = true
				return false
			}
			return true
		})
		return found
	}).First()
	if table.Length() == 0 {
		return nil, StructureError{Landmark: `table with "Script" header`}
	}

	rows := tableRows(table)
	if rows.Length() < 3 {
		return nil, StructureError{Landmark: "script rows"}
	}
	return rows.Slice(2, rows.Length()-1), nil
}

func (s *Scraper) scrapeRow(ctx context.Context, row *goquery.Selection) (*models.Plugin, error) {
	summary, err := extractSummary(row, s.cfg.BaseURL)
	if err != nil {
		s.recordError(err, "")
		s.noteSkippedRow()
		slog.Error("skipping malformed listing row", slog.Any("error", err))
		return nil, err
	}

	detail, err := s.ScrapeDetail(ctx, summary.scriptID)
	if err != nil {
		s.recordError(err, summary.name)
		s.noteSkippedRow()
		slog.Error("error scraping script detail",
			slog.String("name", summary.name),
			slog.Int("script_id", summary.scriptID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.Metrics.IncPlugins()
	return mergeRecord(summary, detail), nil
}

// pluginSummary carries the fields available on a search-results row.
type pluginSummary struct {
	url        string
	scriptID   int
	name       string
	scriptType string
	rating     int
	downloads  int
	shortDesc  string
}

func extractSummary(row *goquery.Selection, baseURL string) (*pluginSummary, error) {
	cells := row.Find("td")
	if cells.Length() < 5 {
		return nil, StructureError{Landmark: "listing row cells"}
	}

	link := cells.Eq(0).Find("a").First()
	href, ok := link.Attr("href")
	if !ok {
		return nil, StructureError{Landmark: "listing row link"}
	}
	scriptID, err := parser.ParseScriptID(href)
	if err != nil {
		return nil, StructureError{Landmark: "script id in link"}
	}

	rating, err := strconv.Atoi(strings.TrimSpace(cells.Eq(2).Text()))
	if err != nil {
		return nil, fmt.Errorf("listing rating: %w", err)
	}
	downloads, err := strconv.Atoi(strings.TrimSpace(cells.Eq(3).Text()))
	if err != nil {
		return nil, fmt.Errorf("listing downloads: %w", err)
	}

	// the short description sits in its own child element when present
	desc := cells.Eq(4).Text()
	if first := cells.Eq(4).Children().First(); first.Length() > 0 {
		desc = first.Text()
	}

	return &pluginSummary{
		url:        strings.TrimSuffix(baseURL, "/") + "/scripts/" + href,
		scriptID:   scriptID,
		name:       link.Text(),
		scriptType: strings.TrimSpace(cells.Eq(1).Text()),
		rating:     rating,
		downloads:  downloads,
		shortDesc:  desc,
	}, nil
}

func mergeRecord(summary *pluginSummary, detail *Detail) *models.Plugin {
	return &models.Plugin{
		VimScriptID:          summary.scriptID,
		Name:                 summary.name,
		VimorgURL:            summary.url,
		VimorgType:           summary.scriptType,
		VimorgRating:         summary.rating,
		VimorgDownloads:      summary.downloads,
		VimorgShortDesc:      summary.shortDesc,
		VimorgNumRaters:      detail.NumRaters,
		Author:               detail.Author,
		VimorgLongDesc:       detail.LongDesc,
		VimorgInstallDetails: detail.InstallDetails,
		UpdatedAt:            detail.UpdatedAt,
		CreatedAt:            detail.CreatedAt,
		ScrapedAt:            time.Now(),
	}
}

// fetchDocument retrieves one page and parses it. Every call uses a fresh
// collector clone so no handler or parser state leaks between fetches.
func (s *Scraper) fetchDocument(ctx context.Context, pageURL, page string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, FetchError{URL: pageURL, Err: err}
	}

	s.Metrics.IncRequest(page)
	s.mu.Lock()
	s.requestCount++
	s.mu.Unlock()
	slog.Debug("fetching page", slog.String("url", pageURL), slog.String("page", page))

	var body []byte
	c := s.collector.Clone()
	c.SetRequestTimeout(s.cfg.Timeout)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	start := time.Now()
	err := c.Visit(pageURL)
	s.Metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return nil, FetchError{URL: pageURL, Err: err}
	}
	if body == nil {
		return nil, FetchError{URL: pageURL, Err: fmt.Errorf("empty response body")}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, ParseError{URL: pageURL, Err: err}
	}
	return doc, nil
}

func (s *Scraper) recordError(err error, name string) {
	label := errorTypeLabel(err)
	s.Metrics.IncError(label)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCount++
	s.errorsByType[label]++
	if name != "" {
		s.failedItems = append(s.failedItems, name)
	}
}

func (s *Scraper) noteSkippedRow() {
	s.Metrics.IncSkipped()
	s.mu.Lock()
	s.skippedRows++
	s.mu.Unlock()
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
