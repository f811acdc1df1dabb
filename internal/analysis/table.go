package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/montanaflynn/stats"
)

// Options controls summary behavior for tabular data.
type Options struct {
	// PreviewRows determines how many leading rows to include in the report.
	PreviewRows int
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset summaries.
func DefaultOptions() Options {
	return Options{
		PreviewRows:      10,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report summarizes a table: shape, missing values, per-column statistics and
// a preview of the first rows.
type Report struct {
	Name     string          `json:"name"`
	Rows     int             `json:"rows"`
	Columns  int             `json:"columns"`
	Cols     []ColumnSummary `json:"column_stats"`
	Header   []string        `json:"header"`
	Preview  [][]string      `json:"preview"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ColumnSummary captures the inferred type and descriptive statistics of a
// column. Statistics that do not apply, or are undefined for the data, are NaN.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"count"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min    Float `json:"min"`
	Max    Float `json:"max"`
	Mean   Float `json:"mean"`
	Std    Float `json:"std"`
	Q1     Float `json:"q1"`
	Median Float `json:"median"`
	Q3     Float `json:"q3"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Categorical mode
	Top  string `json:"top,omitempty"`
	Freq int    `json:"freq,omitempty"`
}

// Summarize computes a Report for t. It never fails: a table without rows
// reports zero counts and NaN statistics.
func Summarize(t *dataset.Table, opt Options) *Report {
	rep := &Report{
		Name:    t.Name,
		Rows:    t.Rows(),
		Columns: len(t.Cols),
		Header:  t.Names(),
	}
	previewRows := opt.PreviewRows
	if previewRows <= 0 {
		previewRows = 10
	}
	rep.Preview = t.Records(previewRows)

	rep.Cols = make([]ColumnSummary, 0, len(t.Cols))
	for _, c := range t.Cols {
		rep.Cols = append(rep.Cols, summarizeColumn(c, opt))
	}
	if t.Rows() == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows; statistics are undefined")
	}
	return rep
}

func summarizeColumn(c *dataset.Column, opt Options) ColumnSummary {
	nan := Float(math.NaN())
	s := ColumnSummary{
		Name:    c.Name,
		Kind:    string(c.Kind),
		NonNull: c.NonNull(),
		Min:     nan, Max: nan, Mean: nan, Std: nan,
		Q1: nan, Median: nan, Q3: nan,
	}
	s.Missing = c.Len() - s.NonNull

	counts := ValueCounts(c)
	s.Unique = len(counts)

	if c.Kind != dataset.KindNumeric {
		if len(counts) > 0 {
			s.Top = counts[0].Value
			s.Freq = counts[0].Count
		}
		return s
	}

	vals := c.Values()
	if len(vals) == 0 {
		return s
	}
	if v, err := stats.Min(vals); err == nil {
		s.Min = Float(v)
	}
	if v, err := stats.Max(vals); err == nil {
		s.Max = Float(v)
	}
	if v, err := stats.Mean(vals); err == nil {
		s.Mean = Float(v)
	}
	if len(vals) > 1 {
		if v, err := stats.StandardDeviationSample(vals); err == nil {
			s.Std = Float(v)
		}
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Q1 = Float(quantile(sorted, 0.25))
	s.Median = Float(quantile(sorted, 0.5))
	s.Q3 = Float(quantile(sorted, 0.75))

	if opt.Outliers && len(vals) >= 8 {
		median, mad := medianMAD(vals)
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		var cnt int
		maxAbsZ := 0.0
		if mad > 0 {
			for _, v := range vals {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					cnt++
				}
				if az > maxAbsZ {
					maxAbsZ = az
				}
			}
		}
		s.OutliersCount = cnt
		s.OutliersMaxAbsZ = maxAbsZ
		s.OutlierThreshold = thr
	}
	return s
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between closest ranks, matching the default
// of pandas and numpy.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
