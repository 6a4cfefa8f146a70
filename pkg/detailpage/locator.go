// Package detailpage reads the coordinate field of a heritage-register
// detail page: it locates the labelled table cell and pulls the numeric
// easting/northing pair out of its text.
package detailpage

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CoordinatesLabel is the header text the register uses for the grid position.
const CoordinatesLabel = "Koordinaten"

// Locator finds the value associated with label in doc. The boolean is false
// when the document has no such field; that is not an error.
type Locator func(doc *goquery.Selection, label string) (string, bool)

// Parse reads an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// FindLabeledValue is the default Locator. It walks header cells in document
// order and, for the first whose trimmed text contains label, returns the text
// of the next value cell in the same row, or failing that the first value cell
// anywhere in that row.
func FindLabeledValue(doc *goquery.Selection, label string) (string, bool) {
	var (
		value string
		found bool
	)
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(strings.TrimSpace(th.Text()), label) {
			return true
		}
		cell := th.NextAllFiltered("td").First()
		if cell.Length() == 0 {
			cell = th.Closest("tr").Find("td").First()
		}
		if cell.Length() == 0 {
			return true
		}
		value, found = cellText(cell), true
		return false
	})
	return value, found
}

// blockBreaks are elements whose boundaries separate words when rendered.
var blockBreaks = map[string]bool{"br": true, "p": true, "div": true, "li": true}

// cellText concatenates the text of sel like a browser would render it, with
// line breaks and block elements turned into spaces and whitespace collapsed.
func cellText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if blockBreaks[n.Data] {
				b.WriteByte(' ')
				defer b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
