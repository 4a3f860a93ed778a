package scraper

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func buildDetailPage(author, updated, created string) string {
	return fmt.Sprintf(`<html><body>
<table>
  <tr><td>script karma</td><td>Rating <b>150/45</b>, Downloaded by 9999</td></tr>
</table>
<table>
  <tr><td class="prompt">created by</td></tr>
  <tr><td><a href="account.php?user_id=7">%s</a></td></tr>
  <tr><td class="prompt">script type</td></tr>
  <tr><td>utility</td></tr>
  <tr><td class="prompt">description</td></tr>
  <tr><td>line one<br>line two with <a href="http://ref.test">http://ref.test</a></td></tr>
  <tr><td class="prompt">install details</td></tr>
  <tr><td>copy to your plugin directory</td></tr>
</table>
<table>
  <tr><th>package</th><th>script version</th><th>date</th><th>Vim version</th><th>user</th><th>release notes</th></tr>
  <tr><td>foo.zip</td><td>1.2</td><td><b>%s</b></td><td>7.0</td><td>jane</td><td>latest release</td></tr>
  <tr><td>foo.zip</td><td>1.0</td><td><b>%s</b></td><td>7.0</td><td>jane</td><td>initial upload</td></tr>
</table>
</body></html>`, author, updated, created)
}

// wrapInLayoutTable nests a page's tables inside an outer layout table, the
// way the real site arranges content tables on table-layout pages.
func wrapInLayoutTable(page string) string {
	inner := strings.TrimPrefix(page, "<html><body>")
	inner = strings.TrimSuffix(inner, "</body></html>")
	return "<html><body><table><tr><td>site navigation</td></tr><tr><td>" +
		inner + "</td></tr></table></body></html>"
}

func detailDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse detail page: %v", err)
	}
	return doc
}

func TestParseDetailFields(t *testing.T) {
	doc := detailDoc(t, buildDetailPage("Jane Hacker", "2013-04-01", "2012-01-15"))

	detail, err := parseDetail(doc)
	if err != nil {
		t.Fatalf("parseDetail: %v", err)
	}

	if detail.NumRaters != 45 {
		t.Fatalf("num raters = %d, want 45", detail.NumRaters)
	}
	if detail.Author != "Jane Hacker" {
		t.Fatalf("author = %q, want %q", detail.Author, "Jane Hacker")
	}
	if want := "line oneline two with http://ref.test"; detail.LongDesc != want {
		t.Fatalf("long desc = %q, want %q", detail.LongDesc, want)
	}
	if want := "copy to your plugin directory"; detail.InstallDetails != want {
		t.Fatalf("install details = %q, want %q", detail.InstallDetails, want)
	}
	if want := time.Date(2013, time.April, 1, 0, 0, 0, 0, time.UTC).Unix(); detail.UpdatedAt != want {
		t.Fatalf("updated at = %d, want %d", detail.UpdatedAt, want)
	}
	if want := time.Date(2012, time.January, 15, 0, 0, 0, 0, time.UTC).Unix(); detail.CreatedAt != want {
		t.Fatalf("created at = %d, want %d", detail.CreatedAt, want)
	}
}

func TestParseDetailInsideLayoutTable(t *testing.T) {
	page := wrapInLayoutTable(buildDetailPage("Jane Hacker", "2013-04-01", "2012-01-15"))

	detail, err := parseDetail(detailDoc(t, page))
	if err != nil {
		t.Fatalf("parseDetail: %v", err)
	}
	if detail.NumRaters != 45 {
		t.Fatalf("num raters = %d, want 45", detail.NumRaters)
	}
	if detail.Author != "Jane Hacker" {
		t.Fatalf("author = %q, want %q", detail.Author, "Jane Hacker")
	}
	if want := "copy to your plugin directory"; detail.InstallDetails != want {
		t.Fatalf("install details = %q, want %q", detail.InstallDetails, want)
	}
	if want := time.Date(2013, time.April, 1, 0, 0, 0, 0, time.UTC).Unix(); detail.UpdatedAt != want {
		t.Fatalf("updated at = %d, want %d", detail.UpdatedAt, want)
	}
	if want := time.Date(2012, time.January, 15, 0, 0, 0, 0, time.UTC).Unix(); detail.CreatedAt != want {
		t.Fatalf("created at = %d, want %d", detail.CreatedAt, want)
	}
}

func TestParseDetailSingleRelease(t *testing.T) {
	page := buildDetailPage("Jane Hacker", "2013-04-01", "2012-01-15")
	// drop the older release row, leaving header + one release
	page = strings.Replace(page,
		`  <tr><td>foo.zip</td><td>1.0</td><td><b>2012-01-15</b></td><td>7.0</td><td>jane</td><td>initial upload</td></tr>
`, "", 1)

	detail, err := parseDetail(detailDoc(t, page))
	if err != nil {
		t.Fatalf("parseDetail: %v", err)
	}
	if detail.UpdatedAt != detail.CreatedAt {
		t.Fatalf("updated %d != created %d for single release", detail.UpdatedAt, detail.CreatedAt)
	}
}

func TestParseDetailStructureErrors(t *testing.T) {
	base := buildDetailPage("Jane Hacker", "2013-04-01", "2012-01-15")

	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{
			name: "missing rating cell",
			mutate: func(page string) string {
				return strings.Replace(page, "Rating <b>150/45</b>", "no karma here", 1)
			},
		},
		{
			name: "rating fraction absent",
			mutate: func(page string) string {
				return strings.Replace(page, "<b>150/45</b>", "<b>unrated</b>", 1)
			},
		},
		{
			name: "missing prompt table",
			mutate: func(page string) string {
				return strings.ReplaceAll(page, `class="prompt"`, `class="label"`)
			},
		},
		{
			name: "missing created by row",
			mutate: func(page string) string {
				return strings.Replace(page, ">created by<", ">uploaded by<", 1)
			},
		},
		{
			name: "missing install details row",
			mutate: func(page string) string {
				return strings.Replace(page, ">install details<", ">installation<", 1)
			},
		},
		{
			name: "date column moved",
			mutate: func(page string) string {
				return strings.Replace(page, "<th>date</th>", "<th>when</th>", 1)
			},
		},
		{
			name: "missing release notes table",
			mutate: func(page string) string {
				return strings.Replace(page, "<th>release notes</th>", "<th>downloads</th>", 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDetail(detailDoc(t, tt.mutate(base)))
			var structErr StructureError
			if !errors.As(err, &structErr) {
				t.Fatalf("error = %v, want StructureError", err)
			}
		})
	}
}

func TestParseDetailDateFormatError(t *testing.T) {
	page := buildDetailPage("Jane Hacker", "04/01/2013", "2012-01-15")

	_, err := parseDetail(detailDoc(t, page))
	var dateErr DateFormatError
	if !errors.As(err, &dateErr) {
		t.Fatalf("error = %v, want DateFormatError", err)
	}
	if dateErr.Value != "04/01/2013" {
		t.Fatalf("value = %q, want %q", dateErr.Value, "04/01/2013")
	}
}
