package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/tableloom/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Correlation computes the Pearson correlation matrix of the numeric columns
// of t using pairwise-complete rows. The matrix is symmetric with a unit
// diagonal; pairs with fewer than two complete rows or zero variance are NaN.
func Correlation(t *dataset.Table) (*Matrix, error) {
	nums := t.NumericColumns()
	if len(nums) < 2 {
		return nil, &InsufficientDataError{
			Chart:  "correlation heatmap",
			Reason: fmt.Sprintf("need at least 2 numeric columns, found %d", len(nums)),
		}
	}
	names := make([]string, len(nums))
	for i, c := range nums {
		names[i] = c.Name
	}
	n := len(nums)
	m := &Matrix{Rows: names, Cols: names, Values: make([][]Float, n)}
	for i := range m.Values {
		m.Values[i] = make([]Float, n)
		m.Values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := pearson(nums[i], nums[j])
			m.Values[i][j] = Float(r)
			m.Values[j][i] = Float(r)
		}
	}
	return m, nil
}

func pearson(a, b *dataset.Column) float64 {
	var x, y []float64
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) || b.IsNull(i) {
			continue
		}
		x = append(x, a.Nums[i])
		y = append(y, b.Nums[i])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, r))
}
