// Package models defines data structures for the scraper.
package models

import "time"

// Plugin is one merged record: the summary fields from a search-results row
// joined with the extra fields scraped from the script's detail page.
type Plugin struct {
	VimScriptID          int       `csv:"vim_script_id" json:"vim_script_id"`
	Name                 string    `csv:"name" json:"name"`
	VimorgURL            string    `csv:"vimorg_url" json:"vimorg_url"`
	VimorgType           string    `csv:"vimorg_type" json:"vimorg_type"`
	VimorgRating         int       `csv:"vimorg_rating" json:"vimorg_rating"`
	VimorgDownloads      int       `csv:"vimorg_downloads" json:"vimorg_downloads"`
	VimorgShortDesc      string    `csv:"vimorg_short_desc" json:"vimorg_short_desc"`
	VimorgNumRaters      int       `csv:"vimorg_num_raters" json:"vimorg_num_raters"`
	Author               string    `csv:"author" json:"author"`
	VimorgLongDesc       string    `csv:"vimorg_long_desc" json:"vimorg_long_desc"`
	VimorgInstallDetails string    `csv:"vimorg_install_details" json:"vimorg_install_details"`
	UpdatedAt            int64     `csv:"updated_at" json:"updated_at"`
	CreatedAt            int64     `csv:"created_at" json:"created_at"`
	ScrapedAt            time.Time `csv:"scraped_at" json:"scraped_at"`
}

// ScrapeResult holds the overall result of one scraping run
type ScrapeResult struct {
	StartTime    time.Time
	EndTime      time.Time
	TotalCount   int
	RequestCount int
	ErrorCount   int
	SkippedRows  int
	FailedItems  []string
	ErrorsByType map[string]int
}
