package analysis

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopNTiesKeepFirstAppearance(t *testing.T) {
	tbl := mustTable(t, "Title", "A", "A", "B", "B", "C")
	top, err := TopN(tbl, "Title", 2)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{{"A", 2}, {"B", 2}}, top)

	tbl = mustTable(t, "Title", "B", "A", "A", "B", "C")
	top, err = TopN(tbl, "Title", 2)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{{"B", 2}, {"A", 2}}, top)
}

func TestTopNLengthAndTotals(t *testing.T) {
	tbl := mustTable(t, "Company", "x", "y", "", "x", "z", "x")
	for _, n := range []int{1, 3, 10, 0} {
		top, err := TopN(tbl, "Company", n)
		require.NoError(t, err)
		want := 3
		if n > 0 && n < 3 {
			want = n
		}
		assert.Len(t, top, want, "n=%d", n)
		if want == 3 {
			sum := 0
			for _, c := range top {
				sum += c.Count
			}
			assert.Equal(t, 5, sum)
		}
	}
	_, err := TopN(tbl, "Missing", 3)
	require.Error(t, err)
}

func TestCrossTab(t *testing.T) {
	tbl := mustTable(t,
		"Title,Location",
		"Dev,Yerevan",
		"Dev,Yerevan",
		"Dev,Gyumri",
		"QA,Yerevan",
		"PM,",
		"Ops,Gyumri",
		"Ops,Gyumri",
		"Ops,Yerevan",
	)
	m, err := CrossTab(tbl, "Title", "Location", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gyumri", "Yerevan"}, m.Cols)
	assert.Equal(t, []string{"Dev", "Ops"}, m.Rows)
	assert.Equal(t, []Float{1, 2}, m.Values[0])
	assert.Equal(t, []Float{2, 1}, m.Values[1])
	assert.True(t, m.Counts)

	all, err := CrossTab(tbl, "Title", "Location", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dev", "Ops", "QA"}, all.Rows)

	empty := mustTable(t, "a,b", "x,", ",y")
	_, err = CrossTab(empty, "a", "b", 10)
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
}

func TestCrossTabKeepsAtMostTenRows(t *testing.T) {
	rows := []string{"a,b"}
	for i := 0; i < 15; i++ {
		for j := 0; j <= i; j++ {
			rows = append(rows, fmt.Sprintf("r%02d,c", i))
		}
	}
	m, err := CrossTab(mustTable(t, rows...), "a", "b", 10)
	require.NoError(t, err)
	require.Len(t, m.Rows, 10)
	assert.Equal(t, "r14", m.Rows[0])
	for i := 1; i < len(m.Rows); i++ {
		assert.GreaterOrEqual(t, m.RowSum(i-1), m.RowSum(i))
	}
}

func TestHistogram(t *testing.T) {
	tbl := mustTable(t, "Age", "0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "")
	h, err := NewHistogram(tbl, "Age", 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, h.Edges)
	assert.Equal(t, []int{2, 2, 2, 2, 3}, h.Counts)
	assert.Equal(t, 11, h.Total())

	def, err := NewHistogram(tbl, "Age", 0)
	require.NoError(t, err)
	assert.Len(t, def.Counts, DefaultBins)
	assert.Equal(t, 11, def.Total())

	constant := mustTable(t, "v", "3", "3")
	h, err = NewHistogram(constant, "v", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 3, 3.5}, h.Edges)
	assert.Equal(t, 2, h.Total())

	_, err = NewHistogram(mustTable(t, "name", "x"), "name", 5)
	require.Error(t, err)
}

func TestCorrelation(t *testing.T) {
	tbl := mustTable(t,
		"x,y,z,label",
		"1,2,5,a",
		"2,4,3,b",
		"3,6,4,c",
		"4,8,1,d",
		"5,,2,e",
	)
	m, err := Correlation(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, m.Rows)
	assert.False(t, m.Counts)
	for i := range m.Rows {
		assert.InDelta(t, 1.0, float64(m.Values[i][i]), 1e-12)
		for j := range m.Cols {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
			v := float64(m.Values[i][j])
			assert.True(t, v >= -1 && v <= 1, "value %v out of range", v)
		}
	}
	assert.InDelta(t, 1.0, float64(m.Values[0][1]), 1e-9)
	assert.Less(t, float64(m.Values[0][2]), 0.0)
}

func TestCorrelationUndefinedPair(t *testing.T) {
	tbl := mustTable(t, "x,c", "1,7", "2,7", "3,7")
	m, err := Correlation(tbl)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(m.Values[0][1])))
}

func TestCorrelationInsufficientColumns(t *testing.T) {
	_, err := Correlation(mustTable(t, "x,label", "1,a", "2,b"))
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Contains(t, ide.Error(), "found 1")
}

func TestDistribution(t *testing.T) {
	bars, h, err := Distribution(mustTable(t, "g", "m", "f", "m"), "g", 0)
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Equal(t, []CategoryCount{{"m", 2}, {"f", 1}}, bars)

	rows := []string{"v"}
	for i := 0; i < 30; i++ {
		rows = append(rows, fmt.Sprint(i))
	}
	bars, h, err = Distribution(mustTable(t, rows...), "v", 0)
	require.NoError(t, err)
	assert.Nil(t, bars)
	require.NotNil(t, h)
	assert.Len(t, h.Counts, DefaultBins)
	assert.Equal(t, 30, h.Total())
}
