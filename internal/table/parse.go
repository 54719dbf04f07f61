package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrMalformed means the markup lacks the sections a shareholder table needs.
var ErrMalformed = errors.New("malformed table")

// Parsed is the raw result of reading table markup.
type Parsed struct {
	Headers []string
	Rows    [][]string
	Dropped [][]string // rows whose cell count differs from the header count
}

// Parse reads the inner markup of a <table> element. Header cells come from
// thead th, data cells from tbody tr td.
func Parse(inner string) (*Parsed, error) {
	// The HTML parser discards table sections found outside a table.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + inner + "</table>"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	t := doc.Find("table").First()

	thead := t.Find("thead").First()
	if thead.Length() == 0 {
		return nil, fmt.Errorf("%w: no thead", ErrMalformed)
	}
	tbody := t.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, fmt.Errorf("%w: no tbody", ErrMalformed)
	}

	p := &Parsed{}
	thead.Find("th").Each(func(_ int, th *goquery.Selection) {
		p.Headers = append(p.Headers, cellText(th))
	})
	if len(p.Headers) == 0 {
		return nil, fmt.Errorf("%w: no header cells", ErrMalformed)
	}

	tbody.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cellText(td))
		})
		if len(cells) == len(p.Headers) {
			p.Rows = append(p.Rows, cells)
		} else {
			p.Dropped = append(p.Dropped, cells)
		}
	})

	return p, nil
}

// cellText joins every text node of s, each trimmed, with no separator.
func cellText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		appendText(&b, n)
	}
	return b.String()
}

func appendText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(b, c)
	}
}
