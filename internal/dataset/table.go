package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

// ErrNoColumn is returned when a column name is not part of the table schema.
var ErrNoColumn = errors.New("no such column")

// Column holds row-aligned values of a single kind. Exactly one of Nums or
// Texts is populated, depending on Kind. Null marks missing cells.
type Column struct {
	Name  string
	Kind  Kind
	Nums  []float64
	Texts []string
	Null  []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.Null) }

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool { return c.Null[i] }

// String returns the display text of row i; missing cells render as "".
func (c *Column) String(i int) string {
	if c.Null[i] {
		return ""
	}
	if c.Kind == KindNumeric {
		return FormatNumber(c.Nums[i])
	}
	return c.Texts[i]
}

// NonNull counts the non-missing cells.
func (c *Column) NonNull() int {
	n := 0
	for _, null := range c.Null {
		if !null {
			n++
		}
	}
	return n
}

// Values returns the non-missing numeric values in row order.
// It returns nil for text columns.
func (c *Column) Values() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Nums))
	for i, v := range c.Nums {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) subset(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Null: make([]bool, len(rows))}
	if c.Kind == KindNumeric {
		out.Nums = make([]float64, len(rows))
	} else {
		out.Texts = make([]string, len(rows))
	}
	for i, r := range rows {
		out.Null[i] = c.Null[r]
		if c.Kind == KindNumeric {
			out.Nums[i] = c.Nums[r]
		} else {
			out.Texts[i] = c.Texts[r]
		}
	}
	return out
}

// Table is an immutable, column-oriented dataset. Derived tables (filtered
// views, heads) keep the schema of their parent and record in Source the
// parent row each of their rows came from.
type Table struct {
	Name   string
	Cols   []*Column
	Source []int

	rows  int
	index map[string]int
}

// NewTable assembles a table from columns of equal length.
func NewTable(name string, cols []*Column) (*Table, error) {
	t := &Table{Name: name, Cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), t.rows)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// Names returns the column names in schema order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Cols))
	for i, c := range t.Cols {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return t.Cols[i], nil
}

// Cell returns the display text at (row, col).
func (t *Table) Cell(row, col int) string { return t.Cols[col].String(row) }

// Record returns one row as display text, missing cells as "".
func (t *Table) Record(row int) []string {
	out := make([]string, len(t.Cols))
	for j, c := range t.Cols {
		out[j] = c.String(row)
	}
	return out
}

// Records returns up to limit rows as display text; limit <= 0 means all.
func (t *Table) Records(limit int) [][]string {
	n := t.rows
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = t.Record(i)
	}
	return out
}

// NumericColumns returns the numeric columns in schema order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Cols {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Subset returns a derived table holding the given rows, in the given order.
// The schema is unchanged.
func (t *Table) Subset(rows []int) *Table {
	cols := make([]*Column, len(t.Cols))
	for j, c := range t.Cols {
		cols[j] = c.subset(rows)
	}
	src := make([]int, len(rows))
	for i, r := range rows {
		if t.Source != nil {
			src[i] = t.Source[r]
		} else {
			src[i] = r
		}
	}
	index := make(map[string]int, len(t.index))
	for k, v := range t.index {
		index[k] = v
	}
	return &Table{Name: t.Name, Cols: cols, Source: src, rows: len(rows), index: index}
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.Subset(rows)
}

// DistinctValues returns the non-missing distinct values of a column, sorted
// ascending (numerically for numeric columns, lexically for text).
func (t *Table) DistinctValues(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind == KindNumeric {
		seen := map[float64]struct{}{}
		var nums []float64
		for i, v := range c.Nums {
			if c.Null[i] {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			nums = append(nums, v)
		}
		sort.Float64s(nums)
		out := make([]string, len(nums))
		for i, v := range nums {
			out[i] = FormatNumber(v)
		}
		return out, nil
	}
	out := FirstValues(c, 0)
	sort.Strings(out)
	return out, nil
}

// FirstValues returns the first n distinct non-missing values of a column in
// order of appearance; n <= 0 returns all of them.
func FirstValues(c *Column, n int) []string {
	seen := map[string]struct{}{}
	var out []string
	for i := 0; i < c.Len(); i++ {
		if c.Null[i] {
			continue
		}
		v := c.String(i)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

// FormatNumber renders a float in its shortest round-trip form without an
// exponent, so "15" stays "15" and "22.5" stays "22.5".
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
