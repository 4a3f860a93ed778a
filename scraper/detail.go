package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/vimawesome/vimorg-scraper/parser"
)

// dateLayout is the fixed format release dates use on script pages.
const dateLayout = "2006-01-02"

// Detail holds the fields scraped from one script's detail page that are
// not available on the search listing.
type Detail struct {
	NumRaters      int
	Author         string
	LongDesc       string
	InstallDetails string
	UpdatedAt      int64
	CreatedAt      int64
}

// ScrapeDetail fetches one script's detail page and extracts its fields.
// Nothing is retried; any failure is fatal for this script only and
// propagates to the caller.
func (s *Scraper) ScrapeDetail(ctx context.Context, scriptID int) (*Detail, error) {
	pageURL := fmt.Sprintf("%s/scripts/script.php?script_id=%d",
		strings.TrimSuffix(s.cfg.BaseURL, "/"), scriptID)
	doc, err := s.fetchDocument(ctx, pageURL, "detail")
	if err != nil {
		return nil, err
	}
	return parseDetail(doc)
}

// parseDetail extracts the detail fields through landmark queries: the
// script pages carry no ids or classes for direct addressing, so every
// lookup matches visible text or a cell class, and a missing landmark is
// fatal for the script.
func parseDetail(doc *goquery.Document) (*Detail, error) {
	numRaters, err := ratingDenominator(doc)
	if err != nil {
		return nil, err
	}

	promptTable, err := tableWithCellClass(doc, "prompt")
	if err != nil {
		return nil, err
	}
	rows := tableRows(promptTable)

	authorRow, err := rowAfterLabel(rows, "created by")
	if err != nil {
		return nil, err
	}
	author := firstCellLinkText(authorRow)

	descRow, err := rowAfterLabel(rows, "description")
	if err != nil {
		return nil, err
	}
	longDesc, err := CleanFragment(descRow.Find("td").First())
	if err != nil {
		return nil, err
	}

	installRow, err := rowAfterLabel(rows, "install details")
	if err != nil {
		return nil, err
	}
	installDetails, err := CleanFragment(installRow.Find("td").First())
	if err != nil {
		return nil, err
	}

	updated, created, err := releaseDates(doc)
	if err != nil {
		return nil, err
	}

	return &Detail{
		NumRaters:      numRaters,
		Author:         author,
		LongDesc:       longDesc,
		InstallDetails: installDetails,
		UpdatedAt:      parser.ToTimestamp(updated),
		CreatedAt:      parser.ToTimestamp(created),
	}, nil
}

// ratingDenominator reads the bolded "x/y" karma fraction next to the
// "Rating" label; y is how many people rated the script.
func ratingDenominator(doc *goquery.Document) (int, error) {
	cell := doc.Find("td").FilterFunction(func(_ int, td *goquery.Selection) bool {
		return len(td.Nodes) > 0 && strings.Contains(ownText(td.Nodes[0]), "Rating")
	}).First()
	if cell.Length() == 0 {
		return 0, StructureError{Landmark: `cell containing "Rating"`}
	}

	_, raters, err := parser.ParseRatingFraction(cell.Find("b").First().Text())
	if err != nil {
		return 0, StructureError{Landmark: "rating fraction"}
	}
	return raters, nil
}

// tableWithCellClass finds the first table with an own td whose class
// attribute mentions class.
func tableWithCellClass(doc *goquery.Document, class string) (*goquery.Selection, error) {
	table := doc.Find("table").FilterFunction(func(_ int, t *goquery.Selection) bool {
		found := false
		t.Find("td[class*='"+class+"']").EachWithBreak(func(_ int, td *goquery.Selection) bool {
			if inTable(td, t) {
				found = true
				return false
			}
			return true
		})
		return found
	}).First()
	if table.Length() == 0 {
		return nil, StructureError{Landmark: fmt.Sprintf("table with %q cell", class)}
	}
	return table, nil
}

// inTable reports whether cell's nearest enclosing table is table itself.
// The site lays pages out with tables, so a landmark cell is also a
// descendant of every wrapper table around it; only its closest table owns
// it.
func inTable(cell, table *goquery.Selection) bool {
	closest := cell.Closest("table")
	return len(closest.Nodes) > 0 && len(table.Nodes) > 0 && closest.Nodes[0] == table.Nodes[0]
}

// tableRows returns the rows of table itself, excluding rows of any table
// nested inside its cells.
func tableRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return inTable(row, table)
	})
}

// rowAfterLabel finds the row whose first cell reads label and returns the
// row after it, which holds that field's content.
func rowAfterLabel(rows *goquery.Selection, label string) (*goquery.Selection, error) {
	index := -1
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if strings.TrimSpace(row.Find("td").First().Text()) == label {
			index = i
			return false
		}
		return true
	})
	if index < 0 || index+1 >= rows.Length() {
		return nil, StructureError{Landmark: fmt.Sprintf("%q row", label)}
	}
	return rows.Eq(index + 1), nil
}

func firstCellLinkText(row *goquery.Selection) string {
	cell := row.Find("td").First()
	if link := cell.Find("a").First(); link.Length() > 0 {
		return link.Text()
	}
	return cell.Text()
}

// releaseDates reads the update and creation dates off the release notes
// table: its rows are ordered newest first, so the row under the header is
// the latest update and the last row is the original upload.
func releaseDates(doc *goquery.Document) (updated, created time.Time, err error) {
	table := doc.Find("table").FilterFunction(func(_ int, t *goquery.Selection) bool {
		found := false
		t.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
			if strings.TrimSpace(th.Text()) == "release notes" && inTable(th, t) {
				found = true
				return false
			}
			return true
		})
		return found
	}).First()
	if table.Length() == 0 {
		return updated, created, StructureError{Landmark: `"release notes" table`}
	}

	rows := tableRows(table)
	header := rows.First().Children()
	if header.Length() < 3 || strings.TrimSpace(header.Eq(2).Text()) != "date" {
		return updated, created, StructureError{Landmark: `"date" release column`}
	}
	if rows.Length() < 2 {
		return updated, created, StructureError{Landmark: "release rows"}
	}

	updated, err = releaseDate(rows.Eq(1))
	if err != nil {
		return updated, created, err
	}
	created, err = releaseDate(rows.Last())
	return updated, created, err
}

// releaseDate parses the fixed-position date column of one release row.
func releaseDate(row *goquery.Selection) (time.Time, error) {
	cells := row.Children()
	if cells.Length() < 3 {
		return time.Time{}, StructureError{Landmark: "release date cell"}
	}

	text := strings.TrimSpace(cells.Eq(2).Text())
	parsed, err := time.Parse(dateLayout, text)
	if err != nil {
		return time.Time{}, DateFormatError{Value: text, Err: err}
	}
	return parsed, nil
}
