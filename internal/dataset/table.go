package dataset

import "strings"

// Well-known file stems inside an event folder.
const (
	Events          = "events"
	Rounds          = "rounds"
	Heats           = "heats"
	HeatCompetitors = "heat_competitors"
	Competitors     = "competitors"
	Laps            = "laps"
)

// Table is a column-oriented view of one flat file. Cells are kept as text;
// an empty string means the value is missing.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable returns an empty table with the given header.
func NewTable(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is part of the header.
func (t *Table) Has(col string) bool { return t.Index(col) >= 0 }

// Value returns the cell at (row, col); missing columns and short rows yield "".
func (t *Table) Value(row int, col string) string {
	idx := t.Index(col)
	if idx < 0 || row < 0 || row >= t.Len() {
		return ""
	}
	r := t.Rows[row]
	if idx >= len(r) {
		return ""
	}
	return r[idx]
}

// Column returns a copy of all values in col, or nil when the column is absent.
func (t *Table) Column(col string) []string {
	idx := t.Index(col)
	if idx < 0 {
		return nil
	}
	out := make([]string, t.Len())
	for i, r := range t.Rows {
		if idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out
}

// AppendRow adds a row, padding or truncating it to the header width.
func (t *Table) AppendRow(vals ...string) {
	row := make([]string, len(t.Columns))
	copy(row, vals)
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := NewTable(t.Name, t.Columns...)
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(t.Columns))
		copy(row, r)
		out.Rows[i] = row
	}
	return out
}

// DropColumns removes the named columns; names not in the header are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := map[int]bool{}
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return
	}
	keep := make([]int, 0, len(t.Columns))
	for i := range t.Columns {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	t.project(keep)
}

// Rename applies old->new header renames. Unknown keys are ignored.
func (t *Table) Rename(mapping map[string]string) {
	for i, c := range t.Columns {
		if n, ok := mapping[c]; ok {
			t.Columns[i] = n
		}
	}
}

// SetColumn replaces or appends col with vals (one per row).
func (t *Table) SetColumn(col string, vals []string) {
	idx := t.Index(col)
	if idx < 0 {
		t.Columns = append(t.Columns, col)
		idx = len(t.Columns) - 1
	}
	for i := range t.Rows {
		for len(t.Rows[i]) <= idx {
			t.Rows[i] = append(t.Rows[i], "")
		}
		if i < len(vals) {
			t.Rows[i][idx] = vals[i]
		} else {
			t.Rows[i][idx] = ""
		}
	}
}

// Select returns a new table holding only the listed columns that exist, in
// the listed order.
func (t *Table) Select(cols ...string) *Table {
	out := t.Clone()
	keep := make([]int, 0, len(cols))
	for _, c := range cols {
		if i := out.Index(c); i >= 0 {
			keep = append(keep, i)
		}
	}
	out.project(keep)
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := NewTable(t.Name, t.Columns...)
	for i, r := range t.Rows {
		if keep(i) {
			row := make([]string, len(t.Columns))
			copy(row, r)
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func (t *Table) project(idx []int) {
	cols := make([]string, len(idx))
	for j, i := range idx {
		cols[j] = t.Columns[i]
	}
	for ri, r := range t.Rows {
		row := make([]string, len(idx))
		for j, i := range idx {
			if i < len(r) {
				row[j] = r[i]
			}
		}
		t.Rows[ri] = row
	}
	t.Columns = cols
}

// isIndexColumn recognises the unnamed positional index some exporters prepend.
func isIndexColumn(name string) bool {
	n := strings.TrimSpace(name)
	return n == "" || strings.EqualFold(n, "Unnamed: 0")
}
