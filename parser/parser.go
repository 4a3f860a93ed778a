package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vimawesome/vimorg-scraper/models"
)

var (
	scriptIDPattern = regexp.MustCompile(`script_id=(\d+)`)
	ratingPattern   = regexp.MustCompile(`(\d+)/(\d+)`)
)

// ParseScriptID extracts the numeric script id from a script link's query
// parameter.
func ParseScriptID(href string) (int, error) {
	m := scriptIDPattern.FindStringSubmatch(href)
	if m == nil {
		return 0, fmt.Errorf("no script_id in %q", href)
	}
	return strconv.Atoi(m[1])
}

// ParseRatingFraction splits an "x/y" karma fraction into the points total
// and the number of people who rated the script.
func ParseRatingFraction(text string) (points, raters int, err error) {
	m := ratingPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, fmt.Errorf("no rating fraction in %q", text)
	}
	points, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, err
	}
	raters, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, err
	}
	return points, raters, nil
}

// ToTimestamp converts a date to the Unix timestamp stored downstream.
func ToTimestamp(t time.Time) int64 {
	return t.Unix()
}

// NormalizeText trims surrounding whitespace from a scraped text cell.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}

// ValidatePlugin ensures the scraper captured the required fields.
func ValidatePlugin(p *models.Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin is nil")
	}
	if p.VimScriptID <= 0 {
		return fmt.Errorf("plugin missing script id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("plugin missing name for script_id=%d", p.VimScriptID)
	}
	if strings.TrimSpace(p.VimorgURL) == "" {
		return fmt.Errorf("plugin missing url for %s", p.Name)
	}
	if strings.TrimSpace(p.Author) == "" {
		return fmt.Errorf("plugin missing author for %s", p.Name)
	}
	return nil
}
