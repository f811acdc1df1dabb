package analysis

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/tableloom/internal/dataset"
)

// CategoryCount is one bar of a frequency chart.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts counts the non-missing values of c, most frequent first.
// Equal counts keep the order in which values first appear in the column.
func ValueCounts(c *dataset.Column) []CategoryCount {
	idx := map[string]int{}
	var out []CategoryCount
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		v := c.String(i)
		if j, ok := idx[v]; ok {
			out[j].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, CategoryCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TopN returns the n most frequent values of a column; n <= 0 returns all.
func TopN(t *dataset.Table, column string, n int) ([]CategoryCount, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	counts := ValueCounts(c)
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts, nil
}

// DistributionThreshold is the distinct-value count at which a numeric
// column is shown as a histogram instead of value counts.
const DistributionThreshold = 20

// Distribution picks a view for an ad hoc column: value counts for text or
// low-cardinality columns, otherwise a histogram with the given bins.
func Distribution(t *dataset.Table, column string, bins int) ([]CategoryCount, *Histogram, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, nil, err
	}
	counts := ValueCounts(c)
	if c.Kind != dataset.KindNumeric || len(counts) < DistributionThreshold {
		if len(counts) == 0 {
			return nil, nil, &InsufficientDataError{Chart: "distribution", Reason: fmt.Sprintf("column %q has no values", column)}
		}
		return counts, nil, nil
	}
	h, err := NewHistogram(t, column, bins)
	if err != nil {
		return nil, nil, err
	}
	return nil, h, nil
}
