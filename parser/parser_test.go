package parser

import (
	"testing"
	"time"

	"github.com/vimawesome/vimorg-scraper/models"
)

func TestParseScriptID(t *testing.T) {
	tests := []struct {
		name    string
		href    string
		want    int
		wantErr bool
	}{
		{
			name: "relative detail link",
			href: "script.php?script_id=2736",
			want: 2736,
		},
		{
			name: "absolute link",
			href: "https://www.vim.org/scripts/script.php?script_id=42",
			want: 42,
		},
		{
			name: "id followed by more query parameters",
			href: "script.php?script_id=1658&foo=bar",
			want: 1658,
		},
		{
			name:    "missing script_id parameter",
			href:    "account.php?user_id=7",
			wantErr: true,
		},
		{
			name:    "empty href",
			href:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScriptID(tt.href)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseScriptID(%q) expected error", tt.href)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScriptID(%q) error: %v", tt.href, err)
			}
			if got != tt.want {
				t.Fatalf("ParseScriptID(%q) = %d, want %d", tt.href, got, tt.want)
			}
		})
	}
}

func TestParseRatingFraction(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantPoints int
		wantRaters int
		wantErr    bool
	}{
		{
			name:       "plain fraction",
			text:       "150/45",
			wantPoints: 150,
			wantRaters: 45,
		},
		{
			name:       "fraction embedded in cell text",
			text:       "Rating 23/9, Downloaded by 1234",
			wantPoints: 23,
			wantRaters: 9,
		},
		{
			name:       "zero raters",
			text:       "0/0",
			wantPoints: 0,
			wantRaters: 0,
		},
		{
			name:    "no fraction present",
			text:    "unrated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, raters, err := ParseRatingFraction(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRatingFraction(%q) expected error", tt.text)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRatingFraction(%q) error: %v", tt.text, err)
			}
			if points != tt.wantPoints || raters != tt.wantRaters {
				t.Fatalf("ParseRatingFraction(%q) = %d/%d, want %d/%d",
					tt.text, points, raters, tt.wantPoints, tt.wantRaters)
			}
		})
	}
}

func TestToTimestamp(t *testing.T) {
	date := time.Date(2013, time.April, 1, 0, 0, 0, 0, time.UTC)
	if got := ToTimestamp(date); got != 1364774400 {
		t.Fatalf("ToTimestamp = %d, want 1364774400", got)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  padded \n"); got != "padded" {
		t.Fatalf("NormalizeText = %q, want %q", got, "padded")
	}
	if got := NormalizeText("unchanged"); got != "unchanged" {
		t.Fatalf("NormalizeText = %q, want %q", got, "unchanged")
	}
}

func TestValidatePlugin(t *testing.T) {
	valid := func() *models.Plugin {
		return &models.Plugin{
			VimScriptID: 1234,
			Name:        "surround",
			VimorgURL:   "https://www.vim.org/scripts/script.php?script_id=1234",
			Author:      "Tim Pope",
		}
	}

	if err := ValidatePlugin(valid()); err != nil {
		t.Fatalf("valid plugin rejected: %v", err)
	}
	if err := ValidatePlugin(nil); err == nil {
		t.Fatalf("nil plugin accepted")
	}

	tests := []struct {
		name   string
		mutate func(*models.Plugin)
	}{
		{"zero script id", func(p *models.Plugin) { p.VimScriptID = 0 }},
		{"negative script id", func(p *models.Plugin) { p.VimScriptID = -3 }},
		{"blank name", func(p *models.Plugin) { p.Name = "  " }},
		{"blank url", func(p *models.Plugin) { p.VimorgURL = "" }},
		{"blank author", func(p *models.Plugin) { p.Author = "\t" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			if err := ValidatePlugin(p); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
