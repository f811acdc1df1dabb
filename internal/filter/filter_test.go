package filter

import (
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobs(t *testing.T) *dataset.Table {
	t.Helper()
	recs := [][]string{{"Title", "Location", "Age"}}
	for _, r := range []string{"A,Yerevan,15", "A,Gyumri,17", "B,Yerevan,22", "B,,30", "C,Yerevan,40"} {
		recs = append(recs, strings.Split(r, ","))
	}
	tbl, err := dataset.FromRecords("jobs.csv", recs, dataset.LoadOptions{})
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *dataset.Table, name string) []string {
	t.Helper()
	c, err := tbl.Column(name)
	require.NoError(t, err)
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.String(i)
	}
	return out
}

func TestApplyMembership(t *testing.T) {
	tbl := jobs(t)
	res, err := Apply(tbl, Selection{Categories: map[string][]string{"Title": {"A", "B"}}})
	require.NoError(t, err)
	assert.Nil(t, res.Warning)
	assert.Equal(t, 4, res.View.Rows())
	assert.Equal(t, []int{0, 1, 2, 3}, res.View.Source)
	assert.Equal(t, tbl.Names(), res.View.Names())
	for _, v := range column(t, res.View, "Title") {
		assert.Contains(t, []string{"A", "B"}, v)
	}
}

func TestApplyRangeInclusive(t *testing.T) {
	tbl := jobs(t)
	res, err := Apply(tbl, Selection{Range: &Range{Column: "Age", Low: 15, High: 25}})
	require.NoError(t, err)
	assert.Equal(t, []string{"15", "17", "22"}, column(t, res.View, "Age"))

	res, err = Apply(tbl, Selection{Range: &Range{Column: "Age", Low: 22, High: 22}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.View.Rows())
}

func TestApplyAndAcrossColumns(t *testing.T) {
	tbl := jobs(t)
	res, err := Apply(tbl, Selection{
		Categories: map[string][]string{"Title": {"A", "B"}, "Location": {"Yerevan"}},
		Range:      &Range{Column: "Age", Low: 20, High: math.Inf(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.View.Source)
}

func TestApplyIdentity(t *testing.T) {
	tbl := jobs(t)
	sel, err := All(tbl, []string{"Title", "Location"})
	require.NoError(t, err)
	assert.Contains(t, sel.Categories["Location"], Missing)

	res, err := Apply(tbl, sel)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows(), res.View.Rows())
	assert.Equal(t, tbl.Records(0), res.View.Records(0))

	res, err = Apply(tbl, Selection{})
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows(), res.View.Rows())
}

func TestApplyEmptySelectionWarns(t *testing.T) {
	tbl := jobs(t)
	res, err := Apply(tbl, Selection{Categories: map[string][]string{"Title": {}}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.View.Rows())
	require.NotNil(t, res.Warning)
	assert.Equal(t, []string{"Title"}, res.Warning.Columns)
	assert.Contains(t, res.Warning.Error(), "Title")
	assert.Contains(t, res.Warning.Error(), "0 rows")

	res, err = Apply(tbl, Selection{Categories: map[string][]string{"Title": {"Z"}}})
	require.NoError(t, err)
	require.NotNil(t, res.Warning)
	assert.Empty(t, res.Warning.Columns)
}

func TestApplyValidation(t *testing.T) {
	tbl := jobs(t)
	cases := map[string]Selection{
		"unknown column": {Categories: map[string][]string{"Nope": {"x"}}},
		"unknown range":  {Range: &Range{Column: "Nope"}},
		"text range":     {Range: &Range{Column: "Title", Low: 0, High: 1}},
		"inverted range": {Range: &Range{Column: "Age", Low: 30, High: 10}},
	}
	for name, sel := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Apply(tbl, sel)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSelection))
		})
	}
}

func TestApplyNumericCategories(t *testing.T) {
	tbl := jobs(t)
	res, err := Apply(tbl, Selection{Categories: map[string][]string{"Age": {"15", "40"}}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, res.View.Source)
}

func TestDefaultSelection(t *testing.T) {
	sel, err := DefaultSelection(jobs(t), []string{"Title", "Location"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, sel.Categories["Title"])
	assert.Equal(t, []string{"Yerevan"}, sel.Categories["Location"])

	_, err = DefaultSelection(jobs(t), []string{"Nope"}, 3)
	require.ErrorIs(t, err, dataset.ErrNoColumn)
}

func TestParseQuery(t *testing.T) {
	q, err := url.ParseQuery("f.Title=A&f.Title=B&f.Location=&r.Age=15:25&page=2")
	require.NoError(t, err)
	sel, found, err := ParseQuery(q)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"A", "B"}, sel.Categories["Title"])
	assert.Equal(t, []string{}, sel.Categories["Location"])
	require.NotNil(t, sel.Range)
	assert.Equal(t, Range{Column: "Age", Low: 15, High: 25}, *sel.Range)

	back, found, err := ParseQuery(sel.Encode())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sel, back)

	_, found, err = ParseQuery(url.Values{"page": {"1"}})
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = ParseQuery(url.Values{"r.Age": {"abc"}})
	require.ErrorIs(t, err, ErrInvalidSelection)
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection([]string{"Title=A, B", "Location="}, "Age=:25")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, sel.Categories["Title"])
	assert.Empty(t, sel.Categories["Location"])
	assert.True(t, math.IsInf(sel.Range.Low, -1))
	assert.Equal(t, 25.0, sel.Range.High)

	_, err = ParseSelection([]string{"novalue"}, "")
	require.ErrorIs(t, err, ErrInvalidSelection)
	_, err = ParseSelection(nil, "Age=1")
	require.ErrorIs(t, err, ErrInvalidSelection)
}

func TestParseQueryKeepsWhitespaceValues(t *testing.T) {
	tbl, err := dataset.FromRecords("loc.csv", [][]string{{"Loc"}, {"Yerevan "}, {"Yerevan, Armenia"}}, dataset.LoadOptions{})
	require.NoError(t, err)
	values, err := tbl.DistinctValues("Loc")
	require.NoError(t, err)
	require.Contains(t, values, "Yerevan ")

	sel, found, err := ParseQuery(url.Values{CategoryPrefix + "Loc": values})
	require.NoError(t, err)
	require.True(t, found)
	res, err := Apply(tbl, sel)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows(), res.View.Rows())
}

func TestParseSelectQuotedValues(t *testing.T) {
	col, vals, err := ParseSelect(`Loc="Yerevan, Armenia", Gyumri`)
	require.NoError(t, err)
	assert.Equal(t, "Loc", col)
	assert.Equal(t, []string{"Yerevan, Armenia", "Gyumri"}, vals)

	_, vals, err = ParseSelect(`Loc="Yerevan "`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yerevan "}, vals)

	_, _, err = ParseSelect(`Loc="unterminated`)
	require.ErrorIs(t, err, ErrInvalidSelection)
	_, _, err = ParseSelect("Loc=a\nb")
	require.ErrorIs(t, err, ErrInvalidSelection)

	tbl, err := dataset.FromRecords("loc.csv", [][]string{{"Loc"}, {"Yerevan, Armenia"}, {"Gyumri"}}, dataset.LoadOptions{})
	require.NoError(t, err)
	sel, err := ParseSelection([]string{`Loc="Yerevan, Armenia"`}, "")
	require.NoError(t, err)
	res, err := Apply(tbl, sel)
	require.NoError(t, err)
	assert.Equal(t, 1, res.View.Rows())
}

func TestRangeRejectsNaN(t *testing.T) {
	for _, in := range []string{"nan:nan", "NaN:", ":nan"} {
		_, _, err := ParseQuery(url.Values{RangePrefix + "Age": {in}})
		assert.ErrorIs(t, err, ErrInvalidSelection, in)
		_, err = ParseRange("Age=" + in)
		assert.ErrorIs(t, err, ErrInvalidSelection, in)
	}
	_, err := Apply(jobs(t), Selection{Range: &Range{Column: "Age", Low: math.NaN(), High: 25}})
	require.ErrorIs(t, err, ErrInvalidSelection)

	r, err := ParseRange("Age=-inf:25")
	require.NoError(t, err)
	assert.True(t, math.IsInf(r.Low, -1))
}

func TestRangeJSONOpenBounds(t *testing.T) {
	r := Range{Column: "Age", Low: math.Inf(-1), High: 25}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"column":"Age","low":null,"high":25}`, string(b))

	var back Range
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r, back)
	assert.Equal(t, "Age in [, 25]", back.String())
}
