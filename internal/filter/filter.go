package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tableloom/internal/dataset"
)

// Missing is the selection token that matches missing cells. Without it a
// categorical constraint never keeps a row whose value is missing.
const Missing = "(missing)"

// ErrInvalidSelection marks selections that cannot be applied to a table,
// such as a range over a text column. Callers treat it as a client error.
var ErrInvalidSelection = errors.New("invalid selection")

// Range is an inclusive numeric interval over one column.
type Range struct {
	Column string  `json:"column" yaml:"column" mapstructure:"column"`
	Low    float64 `json:"low" yaml:"low" mapstructure:"low"`
	High   float64 `json:"high" yaml:"high" mapstructure:"high"`
}

// Contains reports whether lo <= v <= hi.
func (r Range) Contains(v float64) bool { return v >= r.Low && v <= r.High }

type jsonRange struct {
	Column string   `json:"column"`
	Low    *float64 `json:"low"`
	High   *float64 `json:"high"`
}

// MarshalJSON writes open bounds as null.
func (r Range) MarshalJSON() ([]byte, error) {
	out := jsonRange{Column: r.Column}
	if !math.IsInf(r.Low, 0) && !math.IsNaN(r.Low) {
		out.Low = &r.Low
	}
	if !math.IsInf(r.High, 0) && !math.IsNaN(r.High) {
		out.High = &r.High
	}
	return json.Marshal(out)
}

func (r *Range) UnmarshalJSON(b []byte) error {
	var in jsonRange
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Range{Column: in.Column, Low: math.Inf(-1), High: math.Inf(1)}
	if in.Low != nil {
		r.Low = *in.Low
	}
	if in.High != nil {
		r.High = *in.High
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("%s in [%s, %s]", r.Column, formatBound(r.Low), formatBound(r.High))
}

// Selection is the set of accepted values per categorical column plus an
// optional numeric range. A column present in Categories with an empty slice
// accepts nothing; a column absent from it is unconstrained.
type Selection struct {
	Categories map[string][]string `json:"categories,omitempty"`
	Range      *Range              `json:"range,omitempty"`
}

// Empty reports whether the selection constrains nothing.
func (s Selection) Empty() bool { return len(s.Categories) == 0 && s.Range == nil }

// Columns lists the constrained categorical columns, sorted.
func (s Selection) Columns() []string {
	out := make([]string, 0, len(s.Categories))
	for k := range s.Categories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EmptySelectionWarning reports a filter that matched no rows. Columns names
// the columns whose selection set was empty, if any.
type EmptySelectionWarning struct {
	Columns []string
	Matched int
}

func (w *EmptySelectionWarning) Error() string {
	if len(w.Columns) > 0 {
		return fmt.Sprintf("no values selected for %s: %d rows match", strings.Join(w.Columns, ", "), w.Matched)
	}
	return fmt.Sprintf("selection is too restrictive: %d rows match", w.Matched)
}

// Result is the outcome of applying a selection.
type Result struct {
	View    *dataset.Table
	Warning *EmptySelectionWarning
}

// Apply returns the rows of t that satisfy every constraint in sel. The
// returned view keeps the schema of t and never includes a row twice. An
// empty view is not an error; it carries a warning instead.
func Apply(t *dataset.Table, sel Selection) (Result, error) {
	type catFilter struct {
		col    *dataset.Column
		accept map[string]struct{}
	}
	var cats []catFilter
	var emptyCols []string
	for _, name := range sel.Columns() {
		c, err := t.Column(name)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
		}
		vals := sel.Categories[name]
		if len(vals) == 0 {
			emptyCols = append(emptyCols, name)
		}
		accept := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			accept[v] = struct{}{}
		}
		cats = append(cats, catFilter{col: c, accept: accept})
	}

	var rc *dataset.Column
	if sel.Range != nil {
		c, err := t.Column(sel.Range.Column)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
		}
		if c.Kind != dataset.KindNumeric {
			return Result{}, fmt.Errorf("%w: range on %s column %q", ErrInvalidSelection, c.Kind, c.Name)
		}
		if math.IsNaN(sel.Range.Low) || math.IsNaN(sel.Range.High) {
			return Result{}, fmt.Errorf("%w: range bounds on %q must be numbers", ErrInvalidSelection, c.Name)
		}
		if sel.Range.Low > sel.Range.High {
			return Result{}, fmt.Errorf("%w: range low %s is above high %s", ErrInvalidSelection,
				dataset.FormatNumber(sel.Range.Low), dataset.FormatNumber(sel.Range.High))
		}
		rc = c
	}

	rows := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		keep := true
		for _, f := range cats {
			v := Missing
			if !f.col.IsNull(i) {
				v = f.col.String(i)
			}
			if _, ok := f.accept[v]; !ok {
				keep = false
				break
			}
		}
		if keep && rc != nil {
			keep = !rc.IsNull(i) && sel.Range.Contains(rc.Nums[i])
		}
		if keep {
			rows = append(rows, i)
		}
	}

	res := Result{View: t.Subset(rows)}
	if len(rows) == 0 && (t.Rows() > 0 || len(emptyCols) > 0) {
		res.Warning = &EmptySelectionWarning{Columns: emptyCols, Matched: 0}
	}
	return res, nil
}

// DefaultSelection selects the first n distinct values, in order of
// appearance, of each given column.
func DefaultSelection(t *dataset.Table, columns []string, n int) (Selection, error) {
	sel := Selection{Categories: make(map[string][]string, len(columns))}
	for _, name := range columns {
		c, err := t.Column(name)
		if err != nil {
			return Selection{}, err
		}
		vals := dataset.FirstValues(c, n)
		if vals == nil {
			vals = []string{}
		}
		sel.Categories[name] = vals
	}
	return sel, nil
}

// All selects every value of each given column, Missing included when the
// column has gaps. Applying it returns the whole table.
func All(t *dataset.Table, columns []string) (Selection, error) {
	sel, err := DefaultSelection(t, columns, 0)
	if err != nil {
		return Selection{}, err
	}
	for _, name := range columns {
		c, _ := t.Column(name)
		if c.NonNull() < c.Len() {
			sel.Categories[name] = append(sel.Categories[name], Missing)
		}
	}
	return sel, nil
}
