package table

// Identifier columns prepended to every stored row.
const (
	OriginalColumn = "Original Company Name"
	MatchedColumn  = "Matched Company Name"
)

// Snapshot is one validated table read from a detail view. Every row in Rows
// has exactly len(Headers) cells.
type Snapshot struct {
	OriginalName string
	MatchedName  string
	Label        string // logical table, e.g. 股东信息 or the activated tab label
	Headers      []string
	Rows         [][]string
}

// Columns returns the identifier columns followed by the scraped headers.
func (s *Snapshot) Columns() []string {
	cols := make([]string, 0, len(s.Headers)+2)
	cols = append(cols, OriginalColumn, MatchedColumn)
	return append(cols, s.Headers...)
}

// Records returns every row prefixed with the original and matched names.
func (s *Snapshot) Records() [][]string {
	out := make([][]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		rec := make([]string, 0, len(row)+2)
		rec = append(rec, s.OriginalName, s.MatchedName)
		out = append(out, append(rec, row...))
	}
	return out
}
