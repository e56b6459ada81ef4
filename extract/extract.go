// Package extract recovers rows of raw text cells from the semi-structured
// documents brokers produce: rendered HTML reports and the line-per-cell text
// of printable statements. It knows nothing about brokers or finance; the
// parser packages assign meaning to the cells.
package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/etnz/declara"
)

// RawRow is one data row lifted out of a document: untyped cell strings plus
// enough provenance to attribute an error to its source location.
type RawRow struct {
	Line      int      // 1-based row index within the table or section
	Class     string   // the row's own class attribute, HTML sources only
	LeadClass string   // class attribute of the first cell, HTML sources only
	Cells     []string // trimmed cell texts
}

// Table is one extracted HTML table: its header texts and its data rows.
type Table struct {
	Header []string
	Rows   []RawRow
}

// HTMLTables parses r as HTML and extracts every table matched by the given
// goquery selector. Header cells come from thead (or th cells), data rows
// from tbody tr. It returns ErrFormatNotRecognized when the selector matches
// nothing: the document is not what the caller thinks it is.
func HTMLTables(r io.Reader, selector string) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no %q table: %w", selector, declara.ErrFormatNotRecognized)
	}

	var tables []Table
	sel.Each(func(_ int, tbl *goquery.Selection) {
		var t Table
		tbl.Find("thead tr th, thead tr td").Each(func(_ int, cell *goquery.Selection) {
			t.Header = append(t.Header, clean(cell.Text()))
		})
		body := tbl.Find("tbody tr")
		if body.Length() == 0 {
			body = tbl.Find("tr")
		}
		body.Each(func(i int, tr *goquery.Selection) {
			row := RawRow{Line: i + 1}
			row.Class, _ = tr.Attr("class")
			tr.Children().Each(func(j int, cell *goquery.Selection) {
				if j == 0 {
					row.LeadClass, _ = cell.Attr("class")
				}
				row.Cells = append(row.Cells, clean(cell.Text()))
			})
			t.Rows = append(t.Rows, row)
		})
		tables = append(tables, t)
	})
	return tables, nil
}

// clean trims a cell and collapses the non-breaking spaces HTML renderers
// pad cells with.
func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}
