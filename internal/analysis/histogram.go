package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tableloom/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the histogram bin count used when none is given.
const DefaultBins = 20

// Histogram holds equal-width bin counts of a numeric column. Bin i covers
// [Edges[i], Edges[i+1]); the last bin also includes its upper edge.
type Histogram struct {
	Column string    `json:"column"`
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// Total is the number of values counted.
func (h *Histogram) Total() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// NewHistogram buckets the non-missing values of a numeric column into bins
// equal-width bins spanning [min, max]. A constant column is widened to
// [v-0.5, v+0.5].
func NewHistogram(t *dataset.Table, column string, bins int) (*Histogram, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	if c.Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("histogram: column %q is %s, not numeric", column, c.Kind)
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	vals := c.Values()
	if len(vals) == 0 {
		return nil, &InsufficientDataError{Chart: "histogram", Reason: fmt.Sprintf("column %q has no values", column)}
	}
	sort.Float64s(vals)
	lo, hi := vals[0], vals[len(vals)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	raw := stat.Histogram(nil, dividers, vals, nil)
	counts := make([]int, len(raw))
	for i, v := range raw {
		counts[i] = int(v)
	}
	return &Histogram{Column: column, Edges: edges, Counts: counts}, nil
}
