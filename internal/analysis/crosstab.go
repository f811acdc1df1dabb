package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/KaramelBytes/tableloom/internal/dataset"
)

// Matrix is a labeled 2-D grid: a cross-tabulation of counts or a
// correlation matrix. Values[i][j] belongs to row Rows[i], column Cols[j].
type Matrix struct {
	Rows   []string  `json:"rows"`
	Cols   []string  `json:"cols"`
	Values [][]Float `json:"values"`
	// Counts marks integer cells (cross-tabs) so renderers annotate them as such.
	Counts bool `json:"counts"`
}

// RowSum adds up the valid cells of row i.
func (m *Matrix) RowSum(i int) float64 {
	var s float64
	for _, v := range m.Values[i] {
		if v.Valid() {
			s += float64(v)
		}
	}
	return s
}

// CrossTab counts rows per (a, b) value pair. Rows hold the distinct values of
// column a, columns those of b, both sorted ascending; rows where either value
// is missing are skipped. Only the topRows rows with the largest totals are
// kept (topRows <= 0 keeps all), largest first.
func CrossTab(t *dataset.Table, a, b string, topRows int) (*Matrix, error) {
	ca, err := t.Column(a)
	if err != nil {
		return nil, err
	}
	cb, err := t.Column(b)
	if err != nil {
		return nil, err
	}
	type pair struct{ a, b string }
	counts := map[pair]int{}
	rowSet, colSet := map[string]struct{}{}, map[string]struct{}{}
	for i := 0; i < t.Rows(); i++ {
		if ca.IsNull(i) || cb.IsNull(i) {
			continue
		}
		p := pair{ca.String(i), cb.String(i)}
		counts[p]++
		rowSet[p.a] = struct{}{}
		colSet[p.b] = struct{}{}
	}
	if len(counts) == 0 {
		return nil, &InsufficientDataError{Chart: "cross-tabulation", Reason: fmt.Sprintf("no rows have both %q and %q", a, b)}
	}
	rows := sortedLabels(rowSet, ca.Kind)
	cols := sortedLabels(colSet, cb.Kind)

	m := &Matrix{Rows: rows, Cols: cols, Values: make([][]Float, len(rows)), Counts: true}
	for i, r := range rows {
		m.Values[i] = make([]Float, len(cols))
		for j, c := range cols {
			m.Values[i][j] = Float(counts[pair{r, c}])
		}
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool { return m.RowSum(order[x]) > m.RowSum(order[y]) })
	if topRows > 0 && len(order) > topRows {
		order = order[:topRows]
	}
	out := &Matrix{Cols: cols, Counts: true}
	for _, i := range order {
		out.Rows = append(out.Rows, m.Rows[i])
		out.Values = append(out.Values, m.Values[i])
	}
	return out, nil
}

func sortedLabels(set map[string]struct{}, kind dataset.Kind) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	if kind == dataset.KindNumeric {
		sort.Slice(out, func(i, j int) bool {
			x, _ := strconv.ParseFloat(out[i], 64)
			y, _ := strconv.ParseFloat(out[j], 64)
			return x < y
		})
		return out
	}
	sort.Strings(out)
	return out
}
