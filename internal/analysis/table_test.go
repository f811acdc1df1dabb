package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, rows ...string) *dataset.Table {
	t.Helper()
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = strings.Split(r, ",")
	}
	tbl, err := dataset.FromRecords("test.csv", recs, dataset.LoadOptions{})
	require.NoError(t, err)
	return tbl
}

func TestSummarizeNumericAndText(t *testing.T) {
	tbl := mustTable(t,
		"Title,Age,Score",
		"A,15,1",
		"A,17,",
		"B,22,3",
		"B,30,4",
		"C,40,",
	)
	rep := Summarize(tbl, DefaultOptions())
	assert.Equal(t, 5, rep.Rows)
	assert.Equal(t, 3, rep.Columns)
	require.Len(t, rep.Cols, 3)

	title := rep.Cols[0]
	assert.Equal(t, "text", title.Kind)
	assert.Equal(t, 5, title.NonNull)
	assert.Equal(t, 3, title.Unique)
	assert.Equal(t, "A", title.Top)
	assert.Equal(t, 2, title.Freq)
	assert.False(t, title.Mean.Valid())

	age := rep.Cols[1]
	assert.Equal(t, "numeric", age.Kind)
	assert.InDelta(t, 15, float64(age.Min), 1e-9)
	assert.InDelta(t, 40, float64(age.Max), 1e-9)
	assert.InDelta(t, 24.8, float64(age.Mean), 1e-9)
	assert.InDelta(t, 17, float64(age.Q1), 1e-9)
	assert.InDelta(t, 22, float64(age.Median), 1e-9)
	assert.InDelta(t, 30, float64(age.Q3), 1e-9)
	assert.InDelta(t, 10.2811, float64(age.Std), 1e-3)

	score := rep.Cols[2]
	assert.Equal(t, 2, score.Missing)
	assert.Equal(t, 3, score.NonNull)
	assert.InDelta(t, 2, float64(score.Q1), 1e-9)

	assert.Len(t, rep.Preview, 5)
	assert.Equal(t, []string{"A", "17", ""}, rep.Preview[1])
}

func TestSummarizeEmptyTableIsNaN(t *testing.T) {
	tbl := mustTable(t, "Age,Name")
	rep := Summarize(tbl, DefaultOptions())
	assert.Equal(t, 0, rep.Rows)
	for _, c := range rep.Cols {
		assert.Equal(t, 0, c.NonNull)
		assert.True(t, math.IsNaN(float64(c.Mean)))
		assert.True(t, math.IsNaN(float64(c.Q1)))
	}
	assert.NotEmpty(t, rep.Warnings)

	b, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mean":null`)
}

func TestSummarizeOutliers(t *testing.T) {
	rows := []string{"v"}
	for _, v := range []string{"10", "11", "9", "10", "10", "11", "9", "10", "500"} {
		rows = append(rows, v)
	}
	rep := Summarize(mustTable(t, rows...), DefaultOptions())
	assert.Equal(t, 1, rep.Cols[0].OutliersCount)
	assert.Greater(t, rep.Cols[0].OutliersMaxAbsZ, 3.5)
}

func TestMarkdownSections(t *testing.T) {
	tbl := mustTable(t, "Title,Age", "A,15", "B|x,")
	md := Summarize(tbl, DefaultOptions()).Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 2", "[SCHEMA]", "- Age: numeric", "[MISSING VALUES]", "- Age: 1", "[HEAD]", "B/x"} {
		assert.Contains(t, md, want)
	}
}

func TestQuantile(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(s, 0.25), 1e-12)
	assert.InDelta(t, 2.5, quantile(s, 0.5), 1e-12)
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestFloatJSON(t *testing.T) {
	b, err := json.Marshal([]Float{1.5, Float(math.NaN()), Float(math.Inf(1))})
	require.NoError(t, err)
	assert.Equal(t, "[1.5,null,null]", string(b))

	var back []Float
	require.NoError(t, json.Unmarshal(b, &back))
	assert.False(t, back[1].Valid())
}
