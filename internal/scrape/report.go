package scrape

import (
	"fmt"
	"io"

	"sharescrape/internal/table"

	pretty "github.com/jedib0t/go-pretty/v6/table"
)

// Render prints the outcome log as a table.
func (r *Report) Render(w io.Writer) {
	t := pretty.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(pretty.Row{"#", "Company", "Matched", "Shareholders", "Historical", "Result"})

	for i, o := range r.Outcomes {
		result := "ok"
		if o.Err != nil {
			result = o.Err.Error()
		}
		t.AppendRow(pretty.Row{
			i + 1,
			o.Company,
			o.Matched,
			cellStatus(o.MainStatus, o.MainRows),
			cellStatus(o.HistoricalState, o.HistoricalRows),
			result,
		})
	}

	footer := fmt.Sprintf("%d processed, %d failed", len(r.Outcomes), r.Failures())
	if r.Aborted != nil {
		footer += ", aborted: " + r.Aborted.Error()
	}
	t.AppendFooter(pretty.Row{"", footer})
	t.SetStyle(pretty.StyleRounded)
	t.Render()
}

func cellStatus(status string, rows int) string {
	switch status {
	case "":
		return "-"
	case table.Ready.String():
		return fmt.Sprintf("%d rows", rows)
	default:
		return status
	}
}
